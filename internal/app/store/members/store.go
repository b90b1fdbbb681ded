// internal/app/store/members/store.go
package members

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/rollcall/internal/app/system/normalize"
	"github.com/dalemusser/rollcall/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ErrDuplicateUsername is returned when creating a member whose username
// already exists.
var ErrDuplicateUsername = errors.New("a member with this username already exists")

// Store manages the members collection. Member documents are keyed by
// the stable username.
type Store struct {
	c *mongo.Collection
}

// New creates a members Store.
func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("members")}
}

// Create inserts a new member with zero markings and zero absences.
func (s *Store) Create(ctx context.Context, m models.Member) (models.Member, error) {
	m.Username = normalize.Username(m.Username)
	m.Name = normalize.Name(m.Name)
	if m.Markings == nil {
		m.Markings = []models.Marking{}
	}
	m.Absences = 0

	now := time.Now().UTC()
	m.CreatedAt = now
	m.UpdatedAt = now

	if _, err := s.c.InsertOne(ctx, m); err != nil {
		if wafflemongo.IsDup(err) {
			return models.Member{}, ErrDuplicateUsername
		}
		return models.Member{}, err
	}
	return m, nil
}

// GetByUsername loads a member. Returns mongo.ErrNoDocuments if absent.
func (s *Store) GetByUsername(ctx context.Context, username string) (*models.Member, error) {
	var m models.Member
	if err := s.c.FindOne(ctx, bson.M{"_id": normalize.Username(username)}).Decode(&m); err != nil {
		return nil, err
	}
	return &m, nil
}

// List returns every member ordered by username.
func (s *Store) List(ctx context.Context) ([]models.Member, error) {
	opts := options.Find().SetSort(bson.D{{Key: "_id", Value: 1}})
	cur, err := s.c.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.Member
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// AddMarking appends a marking to the member's attendance, but only if no
// marking for that session id exists yet. This conditional filter is what
// keeps concurrent scans of the same session from producing duplicates.
//
// Returns false when the member already held a marking for the session
// (or does not exist; callers that care resolve the member first).
func (s *Store) AddMarking(ctx context.Context, username string, mk models.Marking) (bool, error) {
	res, err := s.c.UpdateOne(ctx,
		bson.M{
			"_id":                 normalize.Username(username),
			"markings.session_id": bson.M{"$ne": mk.SessionID},
		},
		bson.M{
			"$push": bson.M{"markings": mk},
			"$set":  bson.M{"updated_at": time.Now().UTC()},
		},
	)
	if err != nil {
		return false, err
	}
	return res.ModifiedCount > 0, nil
}

// RemoveMarking deletes any marking for the given session id from the member.
func (s *Store) RemoveMarking(ctx context.Context, username, sessionID string) error {
	_, err := s.c.UpdateOne(ctx,
		bson.M{"_id": normalize.Username(username)},
		bson.M{
			"$pull": bson.M{"markings": bson.M{"session_id": sessionID}},
			"$set":  bson.M{"updated_at": time.Now().UTC()},
		},
	)
	return err
}

// PullMarkingFromAll scrubs every marking referencing sessionID from all
// members. Used by session abort.
func (s *Store) PullMarkingFromAll(ctx context.Context, sessionID string) (int64, error) {
	res, err := s.c.UpdateMany(ctx,
		bson.M{"markings.session_id": sessionID},
		bson.M{
			"$pull": bson.M{"markings": bson.M{"session_id": sessionID}},
			"$set":  bson.M{"updated_at": time.Now().UTC()},
		},
	)
	if err != nil {
		return 0, err
	}
	return res.ModifiedCount, nil
}

// IncrementAbsences adds the given usernames' absence counts by one in a
// single bulk write. Used by session close for every non-attendee.
func (s *Store) IncrementAbsences(ctx context.Context, usernames []string) error {
	if len(usernames) == 0 {
		return nil
	}

	now := time.Now().UTC()
	writes := make([]mongo.WriteModel, 0, len(usernames))
	for _, u := range usernames {
		writes = append(writes, mongo.NewUpdateOneModel().
			SetFilter(bson.M{"_id": u}).
			SetUpdate(bson.M{
				"$inc": bson.M{"absences": 1},
				"$set": bson.M{"updated_at": now},
			}))
	}

	_, err := s.c.BulkWrite(ctx, writes, options.BulkWrite().SetOrdered(false))
	return err
}

// SetAbsences overwrites a member's stored absence count.
func (s *Store) SetAbsences(ctx context.Context, username string, absences int) error {
	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": normalize.Username(username)},
		bson.M{"$set": bson.M{
			"absences":   absences,
			"updated_at": time.Now().UTC(),
		}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// ResetAllAbsences zeroes every nonzero absence count in one batch.
// Members already at zero are skipped, so the operation is an idempotent
// no-op for them. Returns how many documents were updated.
func (s *Store) ResetAllAbsences(ctx context.Context) (int64, error) {
	res, err := s.c.UpdateMany(ctx,
		bson.M{"absences": bson.M{"$ne": 0}},
		bson.M{"$set": bson.M{
			"absences":   0,
			"updated_at": time.Now().UTC(),
		}},
	)
	if err != nil {
		return 0, err
	}
	return res.ModifiedCount, nil
}

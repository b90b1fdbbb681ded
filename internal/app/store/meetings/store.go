// internal/app/store/meetings/store.go
package meetings

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/rollcall/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ErrOpenSessionExists is returned when starting a session while another
// is still open.
var ErrOpenSessionExists = errors.New("an attendance session is already open")

// Store manages the attendanceSessions collection.
type Store struct {
	c *mongo.Collection
}

// New creates a meetings Store.
func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("attendanceSessions")}
}

// EnsureIndexes creates the partial unique index that allows at most one
// document with open == true. The "no open session" check and the create
// are thereby combined into one atomic precondition: a concurrent second
// start fails with a duplicate-key error instead of racing.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	_, err := s.c.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "open", Value: 1}},
		Options: options.Index().
			SetName("idx_sessions_single_open").
			SetUnique(true).
			SetPartialFilterExpression(bson.M{"open": true}),
	})
	return err
}

// Create opens a new session. The generated UUID is the QR payload.
func (s *Store) Create(ctx context.Context) (models.Meeting, error) {
	m := models.Meeting{
		ID:        uuid.NewString(),
		Open:      true,
		CreatedAt: time.Now().UTC(),
	}
	if _, err := s.c.InsertOne(ctx, m); err != nil {
		if wafflemongo.IsDup(err) {
			return models.Meeting{}, ErrOpenSessionExists
		}
		return models.Meeting{}, err
	}
	return m, nil
}

// GetByID loads a session. Returns mongo.ErrNoDocuments if absent.
func (s *Store) GetByID(ctx context.Context, id string) (*models.Meeting, error) {
	var m models.Meeting
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&m); err != nil {
		return nil, err
	}
	return &m, nil
}

// FindOpen returns the currently open session, or mongo.ErrNoDocuments.
func (s *Store) FindOpen(ctx context.Context) (*models.Meeting, error) {
	var m models.Meeting
	if err := s.c.FindOne(ctx, bson.M{"open": true}).Decode(&m); err != nil {
		return nil, err
	}
	return &m, nil
}

// List returns all sessions ordered oldest first.
func (s *Store) List(ctx context.Context) ([]models.Meeting, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}})
	cur, err := s.c.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.Meeting
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Count returns the total number of session documents. The absence
// recompute uses this as count(sessions).
func (s *Store) Count(ctx context.Context) (int64, error) {
	return s.c.CountDocuments(ctx, bson.M{})
}

// MarkClosed flips a session to closed. Returns mongo.ErrNoDocuments if
// the session does not exist or is already closed.
func (s *Store) MarkClosed(ctx context.Context, id string) error {
	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": id, "open": true},
		bson.M{"$set": bson.M{
			"open":      false,
			"closed_at": time.Now().UTC(),
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

// Delete removes a session document entirely. Used by abort.
func (s *Store) Delete(ctx context.Context, id string) error {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// internal/app/store/editlog/store.go
package editlog

import (
	"context"
	"time"

	"github.com/dalemusser/rollcall/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Store manages the append-only manualEdits collection. There are no
// update or delete methods on purpose.
type Store struct {
	c *mongo.Collection
}

// New creates an editlog Store.
func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("manualEdits")}
}

// EnsureIndexes creates the indexes used by the listing views.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		// Most recent first
		{
			Keys: bson.D{{Key: "timestamp", Value: -1}},
		},
		// Per-member history
		{
			Keys: bson.D{
				{Key: "username", Value: 1},
				{Key: "timestamp", Value: -1},
			},
		},
	}
	_, err := s.c.Indexes().CreateMany(ctx, indexes)
	return err
}

// Append records one entry.
func (s *Store) Append(ctx context.Context, e models.EditEntry) error {
	if e.ID.IsZero() {
		e.ID = primitive.NewObjectID()
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now().UTC()
	}
	_, err := s.c.InsertOne(ctx, e)
	return err
}

// AppendMany records a batch of entries, such as the per-member absence
// increments written at session close.
func (s *Store) AppendMany(ctx context.Context, entries []models.EditEntry) error {
	if len(entries) == 0 {
		return nil
	}

	docs := make([]interface{}, 0, len(entries))
	now := time.Now().UTC()
	for _, e := range entries {
		if e.ID.IsZero() {
			e.ID = primitive.NewObjectID()
		}
		if e.Timestamp.IsZero() {
			e.Timestamp = now
		}
		docs = append(docs, e)
	}
	_, err := s.c.InsertMany(ctx, docs)
	return err
}

// List returns entries newest first.
func (s *Store) List(ctx context.Context, limit, offset int64) ([]models.EditEntry, error) {
	if limit <= 0 {
		limit = 100
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "timestamp", Value: -1}}).
		SetLimit(limit).
		SetSkip(offset)

	cur, err := s.c.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.EditEntry
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ByUsername returns a member's entries, newest first.
func (s *Store) ByUsername(ctx context.Context, username string, limit int64) ([]models.EditEntry, error) {
	if limit <= 0 {
		limit = 100
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "timestamp", Value: -1}}).
		SetLimit(limit)

	cur, err := s.c.Find(ctx, bson.M{"username": username}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.EditEntry
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Count returns the total number of entries.
func (s *Store) Count(ctx context.Context) (int64, error) {
	return s.c.CountDocuments(ctx, bson.M{})
}

// internal/app/store/proxies/store.go
package proxies

import (
	"context"
	"time"

	"github.com/dalemusser/rollcall/internal/app/system/normalize"
	"github.com/dalemusser/rollcall/internal/domain/models"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Store manages the two proxy request collections: proxyRequests holds
// pending requests, approvedRequests holds approved ones. Rejected
// requests are deleted rather than archived.
type Store struct {
	pending  *mongo.Collection
	approved *mongo.Collection
}

// New creates a proxies Store.
func New(db *mongo.Database) *Store {
	return &Store{
		pending:  db.Collection("proxyRequests"),
		approved: db.Collection("approvedRequests"),
	}
}

// Submit inserts a new pending request.
func (s *Store) Submit(ctx context.Context, req models.ProxyRequest) (models.ProxyRequest, error) {
	req.ID = uuid.NewString()
	req.ProxyName = normalize.Username(req.ProxyName)
	req.ProxyingFor = normalize.Username(req.ProxyingFor)
	req.CreatedAt = time.Now().UTC()

	if _, err := s.pending.InsertOne(ctx, req); err != nil {
		return models.ProxyRequest{}, err
	}
	return req, nil
}

// GetPending loads one pending request. Returns mongo.ErrNoDocuments if
// absent, including when the request was already approved or rejected,
// which is how double approval is detected.
func (s *Store) GetPending(ctx context.Context, id string) (*models.ProxyRequest, error) {
	var req models.ProxyRequest
	if err := s.pending.FindOne(ctx, bson.M{"_id": id}).Decode(&req); err != nil {
		return nil, err
	}
	return &req, nil
}

// GetApproved loads one approved request by id.
func (s *Store) GetApproved(ctx context.Context, id string) (*models.ProxyRequest, error) {
	var req models.ProxyRequest
	if err := s.approved.FindOne(ctx, bson.M{"_id": id}).Decode(&req); err != nil {
		return nil, err
	}
	return &req, nil
}

// ListPending returns pending requests, newest first.
func (s *Store) ListPending(ctx context.Context) ([]models.ProxyRequest, error) {
	return s.list(ctx, s.pending, "created_at")
}

// ListApproved returns approved requests, newest approval first.
func (s *Store) ListApproved(ctx context.Context) ([]models.ProxyRequest, error) {
	return s.list(ctx, s.approved, "approved_at")
}

// DeletePending removes a pending request. Returns mongo.ErrNoDocuments
// when there was nothing to delete.
func (s *Store) DeletePending(ctx context.Context, id string) error {
	res, err := s.pending.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// InsertApproved stores a request in the approved collection with its
// approval timestamp stamped.
func (s *Store) InsertApproved(ctx context.Context, req models.ProxyRequest) error {
	req.ApprovedAt = time.Now().UTC()
	_, err := s.approved.InsertOne(ctx, req)
	return err
}

// FindApprovedFor looks up an approved request naming proxyName as the
// stand-in for the given session. Check-in uses this to decide whether a
// scan marks the scanner or the member they represent.
func (s *Store) FindApprovedFor(ctx context.Context, sessionID, proxyName string) (*models.ProxyRequest, error) {
	var req models.ProxyRequest
	err := s.approved.FindOne(ctx, bson.M{
		"session_id": sessionID,
		"proxy_name": normalize.Username(proxyName),
	}).Decode(&req)
	if err != nil {
		return nil, err
	}
	return &req, nil
}

func (s *Store) list(ctx context.Context, c *mongo.Collection, sortField string) ([]models.ProxyRequest, error) {
	opts := options.Find().SetSort(bson.D{{Key: sortField, Value: -1}})
	cur, err := c.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.ProxyRequest
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

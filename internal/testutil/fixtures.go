package testutil

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/dalemusser/rollcall/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// WithChiURLParam adds a chi URL parameter to the request context.
// Use this in handler tests that need to access chi.URLParam values.
func WithChiURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// Fixtures provides helper methods for creating test data.
type Fixtures struct {
	db *mongo.Database
	t  *testing.T
}

// NewFixtures creates a new Fixtures instance for the given test database.
func NewFixtures(t *testing.T, db *mongo.Database) *Fixtures {
	t.Helper()
	return &Fixtures{db: db, t: t}
}

// DB returns the underlying database for direct access in tests.
func (f *Fixtures) DB() *mongo.Database {
	return f.db
}

// CreateMember inserts a member with the given username and name and no
// markings or absences.
func (f *Fixtures) CreateMember(ctx context.Context, username, name string) models.Member {
	f.t.Helper()

	now := time.Now().UTC()
	m := models.Member{
		Username:  username,
		Name:      name,
		Markings:  []models.Marking{},
		Absences:  0,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if _, err := f.db.Collection("members").InsertOne(ctx, m); err != nil {
		f.t.Fatalf("failed to create test member: %v", err)
	}
	return m
}

// CreateMemberWithMarkings inserts a member carrying the given markings
// and absence count.
func (f *Fixtures) CreateMemberWithMarkings(ctx context.Context, username string, markings []models.Marking, absences int) models.Member {
	f.t.Helper()

	now := time.Now().UTC()
	m := models.Member{
		Username:  username,
		Name:      username,
		Markings:  markings,
		Absences:  absences,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if _, err := f.db.Collection("members").InsertOne(ctx, m); err != nil {
		f.t.Fatalf("failed to create test member: %v", err)
	}
	return m
}

// CreateOpenMeeting inserts an open attendance session and returns it.
func (f *Fixtures) CreateOpenMeeting(ctx context.Context) models.Meeting {
	f.t.Helper()
	return f.createMeeting(ctx, true)
}

// CreateClosedMeeting inserts an already-closed attendance session.
func (f *Fixtures) CreateClosedMeeting(ctx context.Context) models.Meeting {
	f.t.Helper()
	return f.createMeeting(ctx, false)
}

func (f *Fixtures) createMeeting(ctx context.Context, open bool) models.Meeting {
	f.t.Helper()

	m := models.Meeting{
		ID:        uuid.NewString(),
		Open:      open,
		CreatedAt: time.Now().UTC(),
	}
	if !open {
		m.ClosedAt = time.Now().UTC()
	}
	if _, err := f.db.Collection("attendanceSessions").InsertOne(ctx, m); err != nil {
		f.t.Fatalf("failed to create test session: %v", err)
	}
	return m
}

// CreateProxyRequest inserts a pending proxy request.
func (f *Fixtures) CreateProxyRequest(ctx context.Context, sessionID, proxyName, proxyingFor string) models.ProxyRequest {
	f.t.Helper()

	req := models.ProxyRequest{
		ID:          uuid.NewString(),
		SessionID:   sessionID,
		ProxyName:   proxyName,
		ProxyingFor: proxyingFor,
		Description: "test proxy request",
		CreatedAt:   time.Now().UTC(),
	}
	if _, err := f.db.Collection("proxyRequests").InsertOne(ctx, req); err != nil {
		f.t.Fatalf("failed to create test proxy request: %v", err)
	}
	return req
}

// CreateApprovedProxy inserts an approved proxy request directly.
func (f *Fixtures) CreateApprovedProxy(ctx context.Context, sessionID, proxyName, proxyingFor string) models.ProxyRequest {
	f.t.Helper()

	req := models.ProxyRequest{
		ID:          uuid.NewString(),
		SessionID:   sessionID,
		ProxyName:   proxyName,
		ProxyingFor: proxyingFor,
		Description: "test proxy request",
		CreatedAt:   time.Now().UTC(),
		ApprovedAt:  time.Now().UTC(),
	}
	if _, err := f.db.Collection("approvedRequests").InsertOne(ctx, req); err != nil {
		f.t.Fatalf("failed to create test approved proxy: %v", err)
	}
	return req
}

// LoadMember fetches a member back out of the database for assertions.
func (f *Fixtures) LoadMember(ctx context.Context, username string) models.Member {
	f.t.Helper()

	var m models.Member
	if err := f.db.Collection("members").FindOne(ctx, bson.M{"_id": username}).Decode(&m); err != nil {
		f.t.Fatalf("failed to load member %s: %v", username, err)
	}
	return m
}

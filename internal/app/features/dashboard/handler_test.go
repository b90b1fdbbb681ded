package dashboard_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dalemusser/rollcall/internal/app/features/dashboard"
	"github.com/dalemusser/rollcall/internal/app/store/meetings"
	"github.com/dalemusser/rollcall/internal/app/store/members"
	"github.com/dalemusser/rollcall/internal/domain/models"
	"github.com/dalemusser/rollcall/internal/testutil"
	"go.uber.org/zap"
)

func newHandler(t *testing.T) (*dashboard.Handler, *testutil.Fixtures) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	h := dashboard.NewHandler(members.New(db), meetings.New(db), zap.NewNop())
	return h, testutil.NewFixtures(t, db)
}

func TestHandleDashboard(t *testing.T) {
	h, fx := newHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	s1 := fx.CreateClosedMeeting(ctx)
	fx.CreateClosedMeeting(ctx)
	fx.CreateOpenMeeting(ctx)
	fx.CreateMemberWithMarkings(ctx, "bob", []models.Marking{
		{SessionID: s1.ID, Kind: models.MarkingPresent},
	}, 1)

	req := testutil.WithCaller(testutil.NewRequest("GET", "/dashboard"), testutil.MemberCaller("bob"))
	rec := httptest.NewRecorder()

	h.HandleDashboard(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d; body: %s", rec.Code, http.StatusOK, rec.Body.String())
	}

	var resp struct {
		Username      string `json:"username"`
		Absences      int    `json:"absences"`
		SessionsTotal int64  `json:"sessions_total"`
		SessionOpen   bool   `json:"session_open"`
		Markings      []struct {
			SessionID string `json:"session_id"`
			Kind      string `json:"kind"`
		} `json:"markings"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if resp.Username != "bob" || resp.Absences != 1 || resp.SessionsTotal != 3 {
		t.Errorf("response = %+v", resp)
	}
	if !resp.SessionOpen {
		t.Error("SessionOpen = false, want true")
	}
	if len(resp.Markings) != 1 || resp.Markings[0].SessionID != s1.ID {
		t.Errorf("markings = %+v", resp.Markings)
	}
}

func TestHandleDashboard_NoOpenSession(t *testing.T) {
	h, fx := newHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	fx.CreateMember(ctx, "bob", "Bob")
	fx.CreateClosedMeeting(ctx)

	req := testutil.WithCaller(testutil.NewRequest("GET", "/dashboard"), testutil.MemberCaller("bob"))
	rec := httptest.NewRecorder()

	h.HandleDashboard(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	var resp struct {
		SessionOpen bool `json:"session_open"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if resp.SessionOpen {
		t.Error("SessionOpen = true, want false")
	}
}

func TestHandleDashboard_RequiresSignIn(t *testing.T) {
	h, _ := newHandler(t)

	rec := httptest.NewRecorder()
	h.HandleDashboard(rec, testutil.NewRequest("GET", "/dashboard"))

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
}

func TestHandleDashboard_UnknownMember(t *testing.T) {
	h, _ := newHandler(t)

	req := testutil.WithCaller(testutil.NewRequest("GET", "/dashboard"), testutil.MemberCaller("ghost"))
	rec := httptest.NewRecorder()

	h.HandleDashboard(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusNotFound)
	}
}

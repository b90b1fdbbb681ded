package attendance_test

import (
	"errors"
	"testing"

	"github.com/dalemusser/rollcall/internal/app/attendance"
	"github.com/dalemusser/rollcall/internal/app/store/editlog"
	"github.com/dalemusser/rollcall/internal/app/system/auditlog"
	"github.com/dalemusser/rollcall/internal/domain/models"
	"github.com/dalemusser/rollcall/internal/testutil"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

func newEngine(t *testing.T) (*attendance.Engine, *editlog.Store, *testutil.Fixtures) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	logger := zap.NewNop()
	edits := editlog.New(db)
	eng := attendance.New(db, auditlog.New(edits, logger, auditlog.ModeDB), logger)
	return eng, edits, testutil.NewFixtures(t, db)
}

func TestStartSession(t *testing.T) {
	eng, _, fx := newEngine(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	admin := testutil.AdminCaller("alice")

	m, err := eng.StartSession(ctx, admin)
	if err != nil {
		t.Fatalf("StartSession: %v", err)
	}
	if m.ID == "" || !m.Open {
		t.Errorf("StartSession returned %+v, want open session with id", m)
	}

	// A second open session must be refused.
	if _, err := eng.StartSession(ctx, admin); !errors.Is(err, attendance.ErrInvalidState) {
		t.Errorf("second StartSession error = %v, want ErrInvalidState", err)
	}

	// Non-admins cannot start sessions.
	if _, err := eng.StartSession(ctx, testutil.MemberCaller("bob")); !errors.Is(err, attendance.ErrUnauthorized) {
		t.Errorf("non-admin StartSession error = %v, want ErrUnauthorized", err)
	}

	_ = fx
}

func TestCheckIn(t *testing.T) {
	eng, _, fx := newEngine(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	fx.CreateMember(ctx, "bob", "Bob")
	sess := fx.CreateOpenMeeting(ctx)

	res, err := eng.CheckIn(ctx, testutil.MemberCaller("bob"), sess.ID)
	if err != nil {
		t.Fatalf("CheckIn: %v", err)
	}
	if res.MarkedUsername != "bob" || res.Kind != models.MarkingPresent || res.AlreadyMarked {
		t.Errorf("CheckIn result = %+v", res)
	}

	// Scanning again is a no-op, reported as already marked.
	res, err = eng.CheckIn(ctx, testutil.MemberCaller("bob"), sess.ID)
	if err != nil {
		t.Fatalf("second CheckIn: %v", err)
	}
	if !res.AlreadyMarked {
		t.Errorf("second CheckIn AlreadyMarked = false, want true")
	}

	m := fx.LoadMember(ctx, "bob")
	if len(m.Markings) != 1 {
		t.Errorf("markings = %v, want exactly one", m.Markings)
	}
}

func TestCheckIn_ClosedOrUnknownSession(t *testing.T) {
	eng, _, fx := newEngine(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	fx.CreateMember(ctx, "bob", "Bob")
	closed := fx.CreateClosedMeeting(ctx)

	if _, err := eng.CheckIn(ctx, testutil.MemberCaller("bob"), closed.ID); !errors.Is(err, attendance.ErrNotFound) {
		t.Errorf("CheckIn on closed session error = %v, want ErrNotFound", err)
	}
	if _, err := eng.CheckIn(ctx, testutil.MemberCaller("bob"), "nonexistent"); !errors.Is(err, attendance.ErrNotFound) {
		t.Errorf("CheckIn on unknown session error = %v, want ErrNotFound", err)
	}
	if _, err := eng.CheckIn(ctx, testutil.MemberCaller("bob"), "   "); !errors.Is(err, attendance.ErrInvalidInput) {
		t.Errorf("CheckIn with empty payload error = %v, want ErrInvalidInput", err)
	}
}

func TestCheckIn_ApprovedProxyRedirects(t *testing.T) {
	eng, _, fx := newEngine(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	fx.CreateMember(ctx, "bob", "Bob")
	fx.CreateMember(ctx, "carol", "Carol")
	sess := fx.CreateOpenMeeting(ctx)
	fx.CreateApprovedProxy(ctx, sess.ID, "bob", "carol")

	res, err := eng.CheckIn(ctx, testutil.MemberCaller("bob"), sess.ID)
	if err != nil {
		t.Fatalf("CheckIn: %v", err)
	}
	if res.MarkedUsername != "carol" || res.Kind != models.MarkingProxy {
		t.Errorf("proxy CheckIn result = %+v, want carol marked proxy", res)
	}

	carol := fx.LoadMember(ctx, "carol")
	if mk, ok := carol.MarkingFor(sess.ID); !ok || mk.Kind != models.MarkingProxy {
		t.Errorf("carol markings = %v, want proxy marking for %s", carol.Markings, sess.ID)
	}
	bob := fx.LoadMember(ctx, "bob")
	if len(bob.Markings) != 0 {
		t.Errorf("bob markings = %v, want none (scan redirected)", bob.Markings)
	}
}

func TestCloseSession(t *testing.T) {
	eng, edits, fx := newEngine(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	sess := fx.CreateOpenMeeting(ctx)
	fx.CreateMemberWithMarkings(ctx, "bob",
		[]models.Marking{{SessionID: sess.ID, Kind: models.MarkingPresent}}, 0)
	fx.CreateMember(ctx, "carol", "Carol")
	fx.CreateMember(ctx, "dave", "Dave")

	res, err := eng.CloseSession(ctx, testutil.AdminCaller("alice"), sess.ID)
	if err != nil {
		t.Fatalf("CloseSession: %v", err)
	}
	if res.AbsencesAdded != 2 || res.MembersSkipped != 1 {
		t.Errorf("CloseSession result = %+v, want 2 absences added, 1 skipped", res)
	}

	if fx.LoadMember(ctx, "bob").Absences != 0 {
		t.Errorf("bob was marked but got an absence")
	}
	if fx.LoadMember(ctx, "carol").Absences != 1 {
		t.Errorf("carol absences = %d, want 1", fx.LoadMember(ctx, "carol").Absences)
	}

	// One audit entry per absent member.
	n, err := edits.Count(ctx)
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if n != 2 {
		t.Errorf("audit entries = %d, want 2", n)
	}

	// The entry names the member and session but no absence count; the
	// increments land inside the batch, after the entry text is built.
	carolEntries, err := edits.ByUsername(ctx, "carol", 10)
	if err != nil {
		t.Fatalf("ByUsername: %v", err)
	}
	if len(carolEntries) != 1 {
		t.Fatalf("carol audit entries = %d, want 1", len(carolEntries))
	}
	if e := carolEntries[0]; e.SessionID != sess.ID ||
		e.Description != "Session close: absence recorded for carol" {
		t.Errorf("audit entry = %+v", e)
	}

	// Closing again fails.
	if _, err := eng.CloseSession(ctx, testutil.AdminCaller("alice"), sess.ID); !errors.Is(err, attendance.ErrInvalidState) {
		t.Errorf("second CloseSession error = %v, want ErrInvalidState", err)
	}
}

func TestAbortSession(t *testing.T) {
	eng, _, fx := newEngine(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	sess := fx.CreateOpenMeeting(ctx)
	fx.CreateMemberWithMarkings(ctx, "bob",
		[]models.Marking{{SessionID: sess.ID, Kind: models.MarkingPresent}}, 0)

	if err := eng.AbortSession(ctx, testutil.AdminCaller("alice"), sess.ID); err != nil {
		t.Fatalf("AbortSession: %v", err)
	}

	if _, err := eng.Meetings.GetByID(ctx, sess.ID); !errors.Is(err, mongo.ErrNoDocuments) {
		t.Errorf("session still exists after abort")
	}
	if len(fx.LoadMember(ctx, "bob").Markings) != 0 {
		t.Errorf("bob still holds a marking for the aborted session")
	}

	// Closed sessions cannot be aborted.
	closed := fx.CreateClosedMeeting(ctx)
	if err := eng.AbortSession(ctx, testutil.AdminCaller("alice"), closed.ID); !errors.Is(err, attendance.ErrInvalidState) {
		t.Errorf("abort of closed session error = %v, want ErrInvalidState", err)
	}
}

func TestApproveProxy(t *testing.T) {
	eng, _, fx := newEngine(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	sess := fx.CreateOpenMeeting(ctx)
	fx.CreateMember(ctx, "bob", "Bob")
	fx.CreateMember(ctx, "carol", "Carol")
	req := fx.CreateProxyRequest(ctx, sess.ID, "bob", "carol")

	admin := testutil.AdminCaller("alice")
	if err := eng.ApproveProxy(ctx, admin, req.ID); err != nil {
		t.Fatalf("ApproveProxy: %v", err)
	}

	carol := fx.LoadMember(ctx, "carol")
	if mk, ok := carol.MarkingFor(sess.ID); !ok || mk.Kind != models.MarkingProxy {
		t.Errorf("carol markings = %v, want proxy marking", carol.Markings)
	}

	if _, err := eng.Proxies.GetPending(ctx, req.ID); !errors.Is(err, mongo.ErrNoDocuments) {
		t.Errorf("request still pending after approval")
	}
	if _, err := eng.Proxies.GetApproved(ctx, req.ID); err != nil {
		t.Errorf("request not in approved collection: %v", err)
	}

	// Approving twice reports the already-approved state.
	if err := eng.ApproveProxy(ctx, admin, req.ID); !errors.Is(err, attendance.ErrInvalidState) {
		t.Errorf("double approval error = %v, want ErrInvalidState", err)
	}

	// An unknown request id is not found.
	if err := eng.ApproveProxy(ctx, admin, "nonexistent"); !errors.Is(err, attendance.ErrNotFound) {
		t.Errorf("unknown request error = %v, want ErrNotFound", err)
	}
}

func TestApproveProxy_NeverDowngradesPresent(t *testing.T) {
	eng, _, fx := newEngine(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	sess := fx.CreateOpenMeeting(ctx)
	fx.CreateMember(ctx, "bob", "Bob")
	fx.CreateMemberWithMarkings(ctx, "carol",
		[]models.Marking{{SessionID: sess.ID, Kind: models.MarkingPresent}}, 0)
	req := fx.CreateProxyRequest(ctx, sess.ID, "bob", "carol")

	if err := eng.ApproveProxy(ctx, testutil.AdminCaller("alice"), req.ID); err != nil {
		t.Fatalf("ApproveProxy: %v", err)
	}

	carol := fx.LoadMember(ctx, "carol")
	mk, ok := carol.MarkingFor(sess.ID)
	if !ok || mk.Kind != models.MarkingPresent {
		t.Errorf("carol marking = %+v, want present marking kept", mk)
	}
	if len(carol.Markings) != 1 {
		t.Errorf("carol markings = %v, want exactly one", carol.Markings)
	}
}

func TestRejectProxy(t *testing.T) {
	eng, edits, fx := newEngine(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	sess := fx.CreateOpenMeeting(ctx)
	fx.CreateMember(ctx, "carol", "Carol")
	req := fx.CreateProxyRequest(ctx, sess.ID, "bob", "carol")

	if err := eng.RejectProxy(ctx, testutil.AdminCaller("alice"), req.ID); err != nil {
		t.Fatalf("RejectProxy: %v", err)
	}
	if _, err := eng.Proxies.GetPending(ctx, req.ID); !errors.Is(err, mongo.ErrNoDocuments) {
		t.Errorf("request still pending after rejection")
	}

	// Rejection writes no audit entries and touches no member state.
	n, err := edits.Count(ctx)
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if n != 0 {
		t.Errorf("audit entries after rejection = %d, want 0", n)
	}

	if err := eng.RejectProxy(ctx, testutil.AdminCaller("alice"), req.ID); !errors.Is(err, attendance.ErrNotFound) {
		t.Errorf("second rejection error = %v, want ErrNotFound", err)
	}
}

func TestSubmitProxy(t *testing.T) {
	eng, _, fx := newEngine(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	sess := fx.CreateOpenMeeting(ctx)
	fx.CreateMember(ctx, "carol", "Carol")

	req, err := eng.SubmitProxy(ctx, testutil.MemberCaller("bob"), attendance.SubmitProxyInput{
		SessionID:   sess.ID,
		ProxyName:   "bob",
		ProxyingFor: "carol",
		Description: "<b>out sick</b>",
	})
	if err != nil {
		t.Fatalf("SubmitProxy: %v", err)
	}
	if req.Description != "out sick" {
		t.Errorf("description = %q, want markup stripped", req.Description)
	}

	// Missing fields are rejected.
	_, err = eng.SubmitProxy(ctx, testutil.MemberCaller("bob"), attendance.SubmitProxyInput{
		SessionID: sess.ID, ProxyName: "bob", ProxyingFor: "carol",
	})
	if !errors.Is(err, attendance.ErrInvalidInput) {
		t.Errorf("missing description error = %v, want ErrInvalidInput", err)
	}

	// Unknown represented member is rejected.
	_, err = eng.SubmitProxy(ctx, testutil.MemberCaller("bob"), attendance.SubmitProxyInput{
		SessionID: sess.ID, ProxyName: "bob", ProxyingFor: "ghost", Description: "x",
	})
	if !errors.Is(err, attendance.ErrNotFound) {
		t.Errorf("unknown member error = %v, want ErrNotFound", err)
	}

	// Closed session is rejected.
	closed := fx.CreateClosedMeeting(ctx)
	_, err = eng.SubmitProxy(ctx, testutil.MemberCaller("bob"), attendance.SubmitProxyInput{
		SessionID: closed.ID, ProxyName: "bob", ProxyingFor: "carol", Description: "x",
	})
	if !errors.Is(err, attendance.ErrInvalidState) {
		t.Errorf("closed session error = %v, want ErrInvalidState", err)
	}
}

func TestSetMarking(t *testing.T) {
	eng, _, fx := newEngine(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	s1 := fx.CreateClosedMeeting(ctx)
	s2 := fx.CreateClosedMeeting(ctx)
	fx.CreateMemberWithMarkings(ctx, "bob",
		[]models.Marking{{SessionID: s1.ID, Kind: models.MarkingPresent}}, 1)

	admin := testutil.AdminCaller("alice")

	// Mark bob present for s2: absences recompute to 0.
	if err := eng.SetMarking(ctx, admin, "bob", s2.ID, attendance.StatusPresent); err != nil {
		t.Fatalf("SetMarking: %v", err)
	}
	bob := fx.LoadMember(ctx, "bob")
	if bob.Absences != 0 {
		t.Errorf("absences = %d, want 0", bob.Absences)
	}
	if len(bob.Markings) != 2 {
		t.Errorf("markings = %v, want two", bob.Markings)
	}

	// Mark bob absent for s1: the marking goes away, absences become 1.
	if err := eng.SetMarking(ctx, admin, "bob", s1.ID, attendance.StatusAbsent); err != nil {
		t.Fatalf("SetMarking absent: %v", err)
	}
	bob = fx.LoadMember(ctx, "bob")
	if _, ok := bob.MarkingFor(s1.ID); ok {
		t.Errorf("s1 marking survived an absent edit")
	}
	if bob.Absences != 1 {
		t.Errorf("absences = %d, want 1", bob.Absences)
	}

	// Switching kinds replaces rather than stacks markings.
	if err := eng.SetMarking(ctx, admin, "bob", s2.ID, attendance.StatusProxy); err != nil {
		t.Fatalf("SetMarking proxy: %v", err)
	}
	bob = fx.LoadMember(ctx, "bob")
	if mk, _ := bob.MarkingFor(s2.ID); mk.Kind != models.MarkingProxy {
		t.Errorf("s2 marking kind = %q, want proxy", mk.Kind)
	}
	if len(bob.Markings) != 1 {
		t.Errorf("markings = %v, want one", bob.Markings)
	}

	// Invalid status and unknown targets are rejected.
	if err := eng.SetMarking(ctx, admin, "bob", s2.ID, "late"); !errors.Is(err, attendance.ErrInvalidInput) {
		t.Errorf("bad status error = %v, want ErrInvalidInput", err)
	}
	if err := eng.SetMarking(ctx, admin, "ghost", s2.ID, attendance.StatusPresent); !errors.Is(err, attendance.ErrNotFound) {
		t.Errorf("unknown member error = %v, want ErrNotFound", err)
	}
	if err := eng.SetMarking(ctx, admin, "bob", "nope", attendance.StatusPresent); !errors.Is(err, attendance.ErrNotFound) {
		t.Errorf("unknown session error = %v, want ErrNotFound", err)
	}
}

func TestSetAbsenceCount(t *testing.T) {
	eng, _, fx := newEngine(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	fx.CreateMember(ctx, "bob", "Bob")
	admin := testutil.AdminCaller("alice")

	if err := eng.SetAbsenceCount(ctx, admin, "bob", 5); err != nil {
		t.Fatalf("SetAbsenceCount: %v", err)
	}
	if got := fx.LoadMember(ctx, "bob").Absences; got != 5 {
		t.Errorf("absences = %d, want 5", got)
	}

	if err := eng.SetAbsenceCount(ctx, admin, "bob", -1); !errors.Is(err, attendance.ErrInvalidInput) {
		t.Errorf("negative count error = %v, want ErrInvalidInput", err)
	}
	if err := eng.SetAbsenceCount(ctx, admin, "ghost", 1); !errors.Is(err, attendance.ErrNotFound) {
		t.Errorf("unknown member error = %v, want ErrNotFound", err)
	}
}

func TestResetAbsences(t *testing.T) {
	eng, edits, fx := newEngine(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	fx.CreateMemberWithMarkings(ctx, "bob", nil, 3)
	fx.CreateMemberWithMarkings(ctx, "carol", nil, 0)
	fx.CreateMemberWithMarkings(ctx, "dave", nil, 1)

	n, err := eng.ResetAbsences(ctx, testutil.AdminCaller("alice"))
	if err != nil {
		t.Fatalf("ResetAbsences: %v", err)
	}
	if n != 2 {
		t.Errorf("members updated = %d, want 2 (carol already at zero)", n)
	}
	if got := fx.LoadMember(ctx, "bob").Absences; got != 0 {
		t.Errorf("bob absences = %d, want 0", got)
	}

	// One summary audit entry, not per-member entries.
	entries, err := edits.Count(ctx)
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if entries != 1 {
		t.Errorf("audit entries = %d, want 1", entries)
	}
}

func TestAdminGate(t *testing.T) {
	eng, _, fx := newEngine(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	member := testutil.MemberCaller("bob")
	checks := map[string]error{}
	if _, err := eng.CloseSession(ctx, member, "x"); err != nil {
		checks["CloseSession"] = err
	}
	checks["AbortSession"] = eng.AbortSession(ctx, member, "x")
	checks["ApproveProxy"] = eng.ApproveProxy(ctx, member, "x")
	checks["RejectProxy"] = eng.RejectProxy(ctx, member, "x")
	checks["SetMarking"] = eng.SetMarking(ctx, member, "x", "y", attendance.StatusPresent)
	checks["SetAbsenceCount"] = eng.SetAbsenceCount(ctx, member, "x", 1)
	if _, err := eng.ResetAbsences(ctx, member); err != nil {
		checks["ResetAbsences"] = err
	}

	for op, err := range checks {
		if !errors.Is(err, attendance.ErrUnauthorized) {
			t.Errorf("%s error = %v, want ErrUnauthorized", op, err)
		}
	}

	_ = fx
}

package members_test

import (
	"errors"
	"testing"

	"github.com/dalemusser/rollcall/internal/app/store/members"
	"github.com/dalemusser/rollcall/internal/domain/models"
	"github.com/dalemusser/rollcall/internal/testutil"
	"go.mongodb.org/mongo-driver/mongo"
)

func TestStore_Create(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := members.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	m, err := store.Create(ctx, models.Member{Username: "  Bob@Example.COM ", Name: " Bob Smith "})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if m.Username != "bob" {
		t.Errorf("username = %q, want normalized %q", m.Username, "bob")
	}
	if m.Name != "Bob Smith" {
		t.Errorf("name = %q, want trimmed", m.Name)
	}
	if m.Absences != 0 || len(m.Markings) != 0 {
		t.Errorf("new member not zeroed: %+v", m)
	}

	// Username is the document id, so duplicates are rejected.
	if _, err := store.Create(ctx, models.Member{Username: "bob", Name: "Other Bob"}); !errors.Is(err, members.ErrDuplicateUsername) {
		t.Errorf("duplicate Create error = %v, want ErrDuplicateUsername", err)
	}
}

func TestStore_GetByUsername(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := members.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	testutil.NewFixtures(t, db).CreateMember(ctx, "bob", "Bob")

	m, err := store.GetByUsername(ctx, "BOB@example.com")
	if err != nil {
		t.Fatalf("GetByUsername failed: %v", err)
	}
	if m.Username != "bob" {
		t.Errorf("username = %q, want %q", m.Username, "bob")
	}

	if _, err := store.GetByUsername(ctx, "ghost"); !errors.Is(err, mongo.ErrNoDocuments) {
		t.Errorf("unknown username error = %v, want ErrNoDocuments", err)
	}
}

func TestStore_AddMarking(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := members.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	fx := testutil.NewFixtures(t, db)
	fx.CreateMember(ctx, "bob", "Bob")

	mk := models.Marking{SessionID: "s1", Kind: models.MarkingPresent}
	added, err := store.AddMarking(ctx, "bob", mk)
	if err != nil {
		t.Fatalf("AddMarking failed: %v", err)
	}
	if !added {
		t.Error("expected first AddMarking to report added")
	}

	// A second marking for the same session is refused, even with a
	// different kind.
	added, err = store.AddMarking(ctx, "bob", models.Marking{SessionID: "s1", Kind: models.MarkingProxy})
	if err != nil {
		t.Fatalf("second AddMarking failed: %v", err)
	}
	if added {
		t.Error("expected second AddMarking to be a no-op")
	}

	m := fx.LoadMember(ctx, "bob")
	if len(m.Markings) != 1 || m.Markings[0].Kind != models.MarkingPresent {
		t.Errorf("markings = %v, want one present marking", m.Markings)
	}
}

func TestStore_RemoveMarking(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := members.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	fx := testutil.NewFixtures(t, db)
	fx.CreateMemberWithMarkings(ctx, "bob", []models.Marking{
		{SessionID: "s1", Kind: models.MarkingPresent},
		{SessionID: "s2", Kind: models.MarkingProxy},
	}, 0)

	if err := store.RemoveMarking(ctx, "bob", "s1"); err != nil {
		t.Fatalf("RemoveMarking failed: %v", err)
	}

	m := fx.LoadMember(ctx, "bob")
	if len(m.Markings) != 1 || m.Markings[0].SessionID != "s2" {
		t.Errorf("markings = %v, want only s2 left", m.Markings)
	}

	// Removing a marking that does not exist is not an error.
	if err := store.RemoveMarking(ctx, "bob", "s1"); err != nil {
		t.Errorf("repeat RemoveMarking failed: %v", err)
	}
}

func TestStore_PullMarkingFromAll(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := members.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	fx := testutil.NewFixtures(t, db)
	fx.CreateMemberWithMarkings(ctx, "bob", []models.Marking{{SessionID: "s1", Kind: models.MarkingPresent}}, 0)
	fx.CreateMemberWithMarkings(ctx, "carol", []models.Marking{
		{SessionID: "s1", Kind: models.MarkingProxy},
		{SessionID: "s2", Kind: models.MarkingPresent},
	}, 0)
	fx.CreateMember(ctx, "dave", "Dave")

	n, err := store.PullMarkingFromAll(ctx, "s1")
	if err != nil {
		t.Fatalf("PullMarkingFromAll failed: %v", err)
	}
	if n != 2 {
		t.Errorf("modified = %d, want 2", n)
	}
	if m := fx.LoadMember(ctx, "carol"); len(m.Markings) != 1 || m.Markings[0].SessionID != "s2" {
		t.Errorf("carol markings = %v, want only s2", m.Markings)
	}
}

func TestStore_IncrementAbsences(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := members.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	fx := testutil.NewFixtures(t, db)
	fx.CreateMemberWithMarkings(ctx, "bob", nil, 2)
	fx.CreateMember(ctx, "carol", "Carol")
	fx.CreateMember(ctx, "dave", "Dave")

	if err := store.IncrementAbsences(ctx, []string{"bob", "carol"}); err != nil {
		t.Fatalf("IncrementAbsences failed: %v", err)
	}
	if got := fx.LoadMember(ctx, "bob").Absences; got != 3 {
		t.Errorf("bob absences = %d, want 3", got)
	}
	if got := fx.LoadMember(ctx, "carol").Absences; got != 1 {
		t.Errorf("carol absences = %d, want 1", got)
	}
	if got := fx.LoadMember(ctx, "dave").Absences; got != 0 {
		t.Errorf("dave absences = %d, want 0", got)
	}

	// An empty batch is a no-op.
	if err := store.IncrementAbsences(ctx, nil); err != nil {
		t.Errorf("empty IncrementAbsences failed: %v", err)
	}
}

func TestStore_SetAbsences(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := members.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	fx := testutil.NewFixtures(t, db)
	fx.CreateMember(ctx, "bob", "Bob")

	if err := store.SetAbsences(ctx, "bob", 7); err != nil {
		t.Fatalf("SetAbsences failed: %v", err)
	}
	if got := fx.LoadMember(ctx, "bob").Absences; got != 7 {
		t.Errorf("absences = %d, want 7", got)
	}

	if err := store.SetAbsences(ctx, "ghost", 1); !errors.Is(err, mongo.ErrNoDocuments) {
		t.Errorf("unknown member error = %v, want ErrNoDocuments", err)
	}
}

func TestStore_ResetAllAbsences(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := members.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	fx := testutil.NewFixtures(t, db)
	fx.CreateMemberWithMarkings(ctx, "bob", nil, 4)
	fx.CreateMemberWithMarkings(ctx, "carol", nil, 0)

	n, err := store.ResetAllAbsences(ctx)
	if err != nil {
		t.Fatalf("ResetAllAbsences failed: %v", err)
	}
	if n != 1 {
		t.Errorf("modified = %d, want 1 (carol already zero)", n)
	}
	if got := fx.LoadMember(ctx, "bob").Absences; got != 0 {
		t.Errorf("bob absences = %d, want 0", got)
	}
}

func TestStore_List(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := members.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	fx := testutil.NewFixtures(t, db)
	fx.CreateMember(ctx, "carol", "Carol")
	fx.CreateMember(ctx, "bob", "Bob")

	list, err := store.List(ctx)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("expected 2 members, got %d", len(list))
	}
	if list[0].Username != "bob" || list[1].Username != "carol" {
		t.Errorf("list not sorted by username: %v, %v", list[0].Username, list[1].Username)
	}
}

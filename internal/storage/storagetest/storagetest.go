// Package storagetest is a conformance suite shared by every
// storage.Storage backend. Each backend's tests call Run with a factory
// that returns a fresh, empty store.
package storagetest

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/qe-students/students-api/internal/storage"
	"github.com/qe-students/students-api/internal/types"
)

// Factory returns an empty store. Cleanup is the caller's job
// (t.Cleanup inside the factory works well).
type Factory func(t *testing.T) storage.Storage

func boolPtr(b bool) *bool { return &b }

// Run executes the full suite against stores produced by newStore.
// unknownID must be well formed for the backend but never assigned.
func Run(t *testing.T, newStore Factory, unknownID string) {
	t.Run("CreateDefaultsIsActive", func(t *testing.T) {
		testCreateDefaultsIsActive(t, newStore(t))
	})
	t.Run("CreateExplicitInactive", func(t *testing.T) {
		testCreateExplicitInactive(t, newStore(t))
	})
	t.Run("CreateInvalid", func(t *testing.T) {
		testCreateInvalid(t, newStore(t))
	})
	t.Run("CreateDuplicate", func(t *testing.T) {
		testCreateDuplicate(t, newStore(t))
	})
	t.Run("ConcurrentDuplicate", func(t *testing.T) {
		testConcurrentDuplicate(t, newStore(t))
	})
	t.Run("List", func(t *testing.T) {
		testList(t, newStore(t))
	})
	t.Run("GetUnknown", func(t *testing.T) {
		testGetUnknown(t, newStore(t), unknownID)
	})
	t.Run("Update", func(t *testing.T) {
		testUpdate(t, newStore(t), unknownID)
	})
	t.Run("UpdateDuplicate", func(t *testing.T) {
		testUpdateDuplicate(t, newStore(t))
	})
	t.Run("Delete", func(t *testing.T) {
		testDelete(t, newStore(t), unknownID)
	})
	t.Run("Ping", func(t *testing.T) {
		if err := newStore(t).Ping(context.Background()); err != nil {
			t.Errorf("Ping: %v", err)
		}
	})
}

func mustCreate(t *testing.T, s storage.Storage, in types.StudentInput) types.Student {
	t.Helper()
	created, err := s.CreateStudent(context.Background(), in)
	if err != nil {
		t.Fatalf("CreateStudent(%+v): %v", in, err)
	}
	return created
}

func expectOutcome(t *testing.T, err error, want storage.Outcome) {
	t.Helper()
	if got := storage.Classify(err); got != want {
		t.Fatalf("expected outcome %s, got %s (%v)", want, got, err)
	}
}

func testCreateDefaultsIsActive(t *testing.T, s storage.Storage) {
	ctx := context.Background()
	created := mustCreate(t, s, types.StudentInput{FullName: "A B", StudentCode: "ST00001"})

	if created.ID == "" {
		t.Fatal("created student has no ID")
	}
	if !created.IsActive {
		t.Error("isActive should default to true")
	}

	got, err := s.GetStudentByID(ctx, created.ID)
	if err != nil {
		t.Fatalf("GetStudentByID: %v", err)
	}
	if got != created {
		t.Errorf("GetStudentByID = %+v, want %+v", got, created)
	}
}

func testCreateExplicitInactive(t *testing.T, s storage.Storage) {
	created := mustCreate(t, s, types.StudentInput{
		FullName: "A B", StudentCode: "ST00002", IsActive: boolPtr(false),
	})
	if created.IsActive {
		t.Error("explicit isActive=false was not kept")
	}
}

func testCreateInvalid(t *testing.T, s storage.Storage) {
	ctx := context.Background()
	for _, code := range []string{"", "ST1234", "ST123456", "XX12345", "st12345", "ST1234a"} {
		_, err := s.CreateStudent(ctx, types.StudentInput{FullName: "A B", StudentCode: code})
		expectOutcome(t, err, storage.OutcomeValidation)
	}

	_, err := s.CreateStudent(ctx, types.StudentInput{StudentCode: "ST00001"})
	expectOutcome(t, err, storage.OutcomeValidation)

	list, err := s.GetStudents(ctx)
	if err != nil {
		t.Fatalf("GetStudents: %v", err)
	}
	if len(list) != 0 {
		t.Errorf("invalid creates persisted %d records", len(list))
	}
}

func testCreateDuplicate(t *testing.T, s storage.Storage) {
	ctx := context.Background()
	first := mustCreate(t, s, types.StudentInput{FullName: "A B", StudentCode: "ST00001"})

	_, err := s.CreateStudent(ctx, types.StudentInput{FullName: "C D", StudentCode: "ST00001"})
	expectOutcome(t, err, storage.OutcomeDuplicateKey)

	if _, err := s.GetStudentByID(ctx, first.ID); err != nil {
		t.Errorf("first record no longer retrievable: %v", err)
	}
}

func testConcurrentDuplicate(t *testing.T, s storage.Storage) {
	const writers = 8

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
		dupes     int
	)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.CreateStudent(context.Background(),
				types.StudentInput{FullName: "Racer", StudentCode: "ST55555"})
			mu.Lock()
			defer mu.Unlock()
			switch storage.Classify(err) {
			case storage.OutcomeOK:
				succeeded++
			case storage.OutcomeDuplicateKey:
				dupes++
			}
		}()
	}
	wg.Wait()

	if succeeded != 1 || dupes != writers-1 {
		t.Errorf("got %d successes and %d duplicates, want 1 and %d", succeeded, dupes, writers-1)
	}
}

func testList(t *testing.T, s storage.Storage) {
	ctx := context.Background()

	empty, err := s.GetStudents(ctx)
	if err != nil {
		t.Fatalf("GetStudents: %v", err)
	}
	if empty == nil || len(empty) != 0 {
		t.Errorf("empty store should return an empty non-nil slice, got %#v", empty)
	}

	mustCreate(t, s, types.StudentInput{FullName: "A", StudentCode: "ST00001"})
	mustCreate(t, s, types.StudentInput{FullName: "B", StudentCode: "ST00002"})

	list, err := s.GetStudents(ctx)
	if err != nil {
		t.Fatalf("GetStudents: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("expected 2 students, got %d", len(list))
	}
	codes := map[string]bool{}
	for _, st := range list {
		codes[st.StudentCode] = true
	}
	if !codes["ST00001"] || !codes["ST00002"] {
		t.Errorf("unexpected list contents %+v", list)
	}
}

func testGetUnknown(t *testing.T, s storage.Storage, unknownID string) {
	ctx := context.Background()

	_, err := s.GetStudentByID(ctx, unknownID)
	expectOutcome(t, err, storage.OutcomeNotFound)

	// Malformed IDs are reported the same way as unknown ones.
	_, err = s.GetStudentByID(ctx, "not-an-id")
	expectOutcome(t, err, storage.OutcomeNotFound)
}

func testUpdate(t *testing.T, s storage.Storage, unknownID string) {
	ctx := context.Background()
	created := mustCreate(t, s, types.StudentInput{FullName: "A B", StudentCode: "ST00001"})

	updated, err := s.UpdateStudentByID(ctx, created.ID, types.StudentPatch{FullName: types.Some("New Name")})
	if err != nil {
		t.Fatalf("UpdateStudentByID: %v", err)
	}
	if updated.FullName != "New Name" {
		t.Errorf("fullName = %q, want %q", updated.FullName, "New Name")
	}
	if updated.ID != created.ID || updated.StudentCode != "ST00001" || !updated.IsActive {
		t.Errorf("unsupplied fields changed: %+v", updated)
	}

	updated, err = s.UpdateStudentByID(ctx, created.ID, types.StudentPatch{
		StudentCode: types.Some("ST00009"), IsActive: types.Some(false),
	})
	if err != nil {
		t.Fatalf("UpdateStudentByID: %v", err)
	}
	if updated.StudentCode != "ST00009" || updated.IsActive || updated.FullName != "New Name" {
		t.Errorf("unexpected record after second update: %+v", updated)
	}

	// The old code is free again.
	mustCreate(t, s, types.StudentInput{FullName: "Other", StudentCode: "ST00001"})

	_, err = s.UpdateStudentByID(ctx, created.ID, types.StudentPatch{StudentCode: types.Some("bad")})
	expectOutcome(t, err, storage.OutcomeValidation)

	stored, err := s.GetStudentByID(ctx, created.ID)
	if err != nil {
		t.Fatalf("GetStudentByID: %v", err)
	}
	if stored != updated {
		t.Errorf("invalid update modified the record: %+v, want %+v", stored, updated)
	}

	// Explicit nulls are supplied fields and fail the required rules.
	_, err = s.UpdateStudentByID(ctx, created.ID, types.StudentPatch{
		FullName: types.Null[string](), StudentCode: types.Null[string](),
	})
	expectOutcome(t, err, storage.OutcomeValidation)
	if stored, err = s.GetStudentByID(ctx, created.ID); err != nil || stored != updated {
		t.Errorf("null update modified the record: %+v (%v)", stored, err)
	}

	_, err = s.UpdateStudentByID(ctx, unknownID, types.StudentPatch{FullName: types.Some("x")})
	expectOutcome(t, err, storage.OutcomeNotFound)

	_, err = s.UpdateStudentByID(ctx, "not-an-id", types.StudentPatch{FullName: types.Some("x")})
	expectOutcome(t, err, storage.OutcomeNotFound)

	same, err := s.UpdateStudentByID(ctx, created.ID, types.StudentPatch{})
	if err != nil {
		t.Fatalf("empty patch: %v", err)
	}
	if same != stored {
		t.Errorf("empty patch changed the record: %+v", same)
	}
}

func testUpdateDuplicate(t *testing.T, s storage.Storage) {
	ctx := context.Background()
	a := mustCreate(t, s, types.StudentInput{FullName: "A", StudentCode: "ST00001"})
	b := mustCreate(t, s, types.StudentInput{FullName: "B", StudentCode: "ST00002"})

	_, err := s.UpdateStudentByID(ctx, b.ID, types.StudentPatch{StudentCode: types.Some("ST00001")})
	expectOutcome(t, err, storage.OutcomeDuplicateKey)

	stored, err := s.GetStudentByID(ctx, b.ID)
	if err != nil {
		t.Fatalf("GetStudentByID: %v", err)
	}
	if stored.StudentCode != "ST00002" {
		t.Errorf("rejected update changed studentCode to %q", stored.StudentCode)
	}

	// Re-asserting the current code is not a conflict.
	if _, err := s.UpdateStudentByID(ctx, a.ID, types.StudentPatch{StudentCode: types.Some("ST00001")}); err != nil {
		t.Errorf("updating to own code: %v", err)
	}
}

func testDelete(t *testing.T, s storage.Storage, unknownID string) {
	ctx := context.Background()
	created := mustCreate(t, s, types.StudentInput{FullName: "A B", StudentCode: "ST00001"})

	if err := s.DeleteStudentByID(ctx, created.ID); err != nil {
		t.Fatalf("DeleteStudentByID: %v", err)
	}

	_, err := s.GetStudentByID(ctx, created.ID)
	expectOutcome(t, err, storage.OutcomeNotFound)

	err = s.DeleteStudentByID(ctx, created.ID)
	expectOutcome(t, err, storage.OutcomeNotFound)

	err = s.DeleteStudentByID(ctx, unknownID)
	expectOutcome(t, err, storage.OutcomeNotFound)

	if !errors.Is(s.DeleteStudentByID(ctx, "not-an-id"), storage.ErrNotFound) {
		t.Error("malformed id should be reported as not found")
	}

	// Deleting frees the code for reuse.
	mustCreate(t, s, types.StudentInput{FullName: "A B", StudentCode: "ST00001"})
}

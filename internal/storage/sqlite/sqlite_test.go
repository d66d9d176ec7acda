package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/google/uuid"

	"github.com/qe-students/students-api/internal/storage"
	"github.com/qe-students/students-api/internal/storage/storagetest"
	"github.com/qe-students/students-api/internal/types"
)

func newTestStore(t *testing.T) *SQLite {
	t.Helper()
	s, err := New(filepath.Join(t.TempDir(), "data", "students.db"))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { s.Close(context.Background()) })
	return s
}

func TestSQLite(t *testing.T) {
	storagetest.Run(t, func(t *testing.T) storage.Storage {
		return newTestStore(t)
	}, uuid.NewString())
}

func TestReopenKeepsRecords(t *testing.T) {
	path := filepath.Join(t.TempDir(), "students.db")
	ctx := context.Background()

	s, err := New(path)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	created, err := s.CreateStudent(ctx, types.StudentInput{FullName: "A B", StudentCode: "ST00001"})
	if err != nil {
		t.Fatalf("CreateStudent: %v", err)
	}
	s.Close(ctx)

	reopened, err := New(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close(ctx)

	got, err := reopened.GetStudentByID(ctx, created.ID)
	if err != nil {
		t.Fatalf("GetStudentByID after reopen: %v", err)
	}
	if got != created {
		t.Errorf("got %+v, want %+v", got, created)
	}

	_, err = reopened.CreateStudent(ctx, types.StudentInput{FullName: "C", StudentCode: "ST00001"})
	if storage.Classify(err) != storage.OutcomeDuplicateKey {
		t.Errorf("unique constraint lost after reopen: %v", err)
	}
}

func TestClosedDatabaseIsStorageError(t *testing.T) {
	s := newTestStore(t)
	s.Db.Close()

	_, err := s.GetStudents(context.Background())
	if storage.Classify(err) != storage.OutcomeStorage {
		t.Errorf("expected storage outcome, got %v", err)
	}
}

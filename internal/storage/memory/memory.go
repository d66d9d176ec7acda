// Package memory provides an in-process implementation of
// storage.Storage. It backs the handler tests and the "memory" driver
// used for local development; nothing survives a restart.
package memory

import (
	"context"
	"sort"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/puzpuzpuz/xsync/v3"

	"github.com/qe-students/students-api/internal/storage"
	"github.com/qe-students/students-api/internal/types"
	"github.com/qe-students/students-api/internal/validation"
)

type entry struct {
	student types.Student
	seq     uint64
}

// Memory keeps records keyed by ID plus a studentCode -> ID index.
// Claiming a code goes through LoadOrStore on the index, so two
// concurrent writers can never both own the same code.
type Memory struct {
	records *xsync.MapOf[string, entry]
	codes   *xsync.MapOf[string, string]
	seq     atomic.Uint64
}

// New returns an empty store.
func New() *Memory {
	return &Memory{
		records: xsync.NewMapOf[string, entry](),
		codes:   xsync.NewMapOf[string, string](),
	}
}

func (m *Memory) CreateStudent(ctx context.Context, in types.StudentInput) (types.Student, error) {
	if err := ctx.Err(); err != nil {
		return types.Student{}, storage.Wrap("memory.CreateStudent", err)
	}
	if err := validation.ValidateInput(in); err != nil {
		return types.Student{}, err
	}

	student := in.ToStudent()
	student.ID = uuid.NewString()

	if _, loaded := m.codes.LoadOrStore(student.StudentCode, student.ID); loaded {
		return types.Student{}, storage.ErrDuplicateKey
	}
	m.records.Store(student.ID, entry{student: student, seq: m.seq.Add(1)})

	return student, nil
}

func (m *Memory) GetStudents(ctx context.Context) ([]types.Student, error) {
	if err := ctx.Err(); err != nil {
		return nil, storage.Wrap("memory.GetStudents", err)
	}

	entries := make([]entry, 0, m.records.Size())
	m.records.Range(func(_ string, e entry) bool {
		entries = append(entries, e)
		return true
	})
	sort.Slice(entries, func(i, j int) bool { return entries[i].seq < entries[j].seq })

	students := make([]types.Student, 0, len(entries))
	for _, e := range entries {
		students = append(students, e.student)
	}
	return students, nil
}

func (m *Memory) GetStudentByID(ctx context.Context, id string) (types.Student, error) {
	if err := ctx.Err(); err != nil {
		return types.Student{}, storage.Wrap("memory.GetStudentByID", err)
	}
	if _, err := uuid.Parse(id); err != nil {
		return types.Student{}, storage.ErrNotFound
	}

	e, ok := m.records.Load(id)
	if !ok {
		return types.Student{}, storage.ErrNotFound
	}
	return e.student, nil
}

func (m *Memory) UpdateStudentByID(ctx context.Context, id string, patch types.StudentPatch) (types.Student, error) {
	if err := ctx.Err(); err != nil {
		return types.Student{}, storage.Wrap("memory.UpdateStudentByID", err)
	}
	if err := validation.ValidatePatch(patch); err != nil {
		return types.Student{}, err
	}
	if _, err := uuid.Parse(id); err != nil {
		return types.Student{}, storage.ErrNotFound
	}

	var outcome error
	updated, ok := m.records.Compute(id, func(old entry, loaded bool) (entry, bool) {
		if !loaded {
			outcome = storage.ErrNotFound
			return old, true
		}

		next := old
		next.student = patch.Apply(old.student)

		oldCode, newCode := old.student.StudentCode, next.student.StudentCode
		if newCode != oldCode {
			if owner, taken := m.codes.LoadOrStore(newCode, id); taken && owner != id {
				outcome = storage.ErrDuplicateKey
				return old, false
			}
			m.codes.Delete(oldCode)
		}
		return next, false
	})

	if outcome != nil {
		return types.Student{}, outcome
	}
	if !ok {
		return types.Student{}, storage.ErrNotFound
	}
	return updated.student, nil
}

func (m *Memory) DeleteStudentByID(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return storage.Wrap("memory.DeleteStudentByID", err)
	}

	e, ok := m.records.LoadAndDelete(id)
	if !ok {
		return storage.ErrNotFound
	}
	m.codes.Delete(e.student.StudentCode)
	return nil
}

func (m *Memory) Ping(ctx context.Context) error {
	return storage.Wrap("memory.Ping", ctx.Err())
}

func (m *Memory) Close(context.Context) error { return nil }

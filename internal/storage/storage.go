// Package storage defines the Storage interface, the contract every
// database backend must satisfy to work with this application, and the
// outcome taxonomy those backends report.
//
// Handlers depend only on this package. Switching backends means
// implementing the interface for the new store and changing one line in
// main.go; tests pass the in-memory backend instead of a real database.
package storage

import (
	"context"

	"github.com/qe-students/students-api/internal/types"
)

// Storage is the database contract.
//
// Every method reports failures using the taxonomy in errors.go:
// *ValidationError, ErrDuplicateKey, ErrNotFound or *StorageError.
// Use Classify to turn an error into an Outcome.
type Storage interface {
	// CreateStudent validates the input, assigns an ID, applies the
	// isActive default and persists the record.
	CreateStudent(ctx context.Context, in types.StudentInput) (types.Student, error)

	// GetStudents returns every student in store-native order.
	// Returns an empty slice (not nil) if there are no students.
	GetStudents(ctx context.Context) ([]types.Student, error)

	// GetStudentByID fetches a single student. An ID that is not in the
	// backend's format is reported as ErrNotFound.
	GetStudentByID(ctx context.Context, id string) (types.Student, error)

	// UpdateStudentByID validates and applies only the supplied fields
	// and returns the record as it is stored after the update.
	UpdateStudentByID(ctx context.Context, id string, patch types.StudentPatch) (types.Student, error)

	// DeleteStudentByID removes a student record permanently.
	DeleteStudentByID(ctx context.Context, id string) error

	// Ping checks that the backend is reachable.
	Ping(ctx context.Context) error

	// Close releases the backend's resources.
	Close(ctx context.Context) error
}

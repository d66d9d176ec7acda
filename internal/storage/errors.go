package storage

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotFound is returned when no record has the requested ID.
	ErrNotFound = errors.New("student not found")

	// ErrDuplicateKey is returned when a write would give two records
	// the same student code.
	ErrDuplicateKey = errors.New("student code already exists")
)

// FieldError describes one field that broke a shape rule.
type FieldError struct {
	Field   string
	Message string
}

// ValidationError is returned when the input does not satisfy the
// Student shape rules. It is client-fixable.
type ValidationError struct {
	// Summary prefixes the rendered message, e.g. "Student validation failed".
	Summary string
	Fields  []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, fmt.Sprintf("%s: %s", f.Field, f.Message))
	}
	summary := e.Summary
	if summary == "" {
		summary = "Validation failed"
	}
	return summary + ": " + strings.Join(parts, ", ")
}

// StorageError wraps an unexpected backend failure (connectivity loss,
// timeout, corrupt data). It is never client-fixable.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// Wrap returns err as a *StorageError for op, or nil if err is nil.
func Wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	return &StorageError{Op: op, Err: err}
}

// Outcome is the class of result a storage call produced.
type Outcome int

const (
	OutcomeOK Outcome = iota
	OutcomeValidation
	OutcomeDuplicateKey
	OutcomeNotFound
	OutcomeStorage
)

func (o Outcome) String() string {
	switch o {
	case OutcomeOK:
		return "ok"
	case OutcomeValidation:
		return "validation"
	case OutcomeDuplicateKey:
		return "duplicate_key"
	case OutcomeNotFound:
		return "not_found"
	default:
		return "storage"
	}
}

// Classify maps an error returned by a Storage method to its Outcome.
// Anything not in the taxonomy is treated as a storage failure.
func Classify(err error) Outcome {
	var verr *ValidationError
	switch {
	case err == nil:
		return OutcomeOK
	case errors.As(err, &verr):
		return OutcomeValidation
	case errors.Is(err, ErrDuplicateKey):
		return OutcomeDuplicateKey
	case errors.Is(err, ErrNotFound):
		return OutcomeNotFound
	default:
		return OutcomeStorage
	}
}

// Package types holds the shared data structures used across the
// application. Keeping them in one place prevents import cycles:
// handlers, storage backends and validation all import types without
// depending on each other.
package types

import "encoding/json"

// Student is a persisted student record.
//
// ID is assigned by the storage backend on creation and never changes.
// It is opaque to clients: a Mongo ObjectID hex string for the document
// store, a UUID for the sqlite and in-memory backends.
type Student struct {
	ID          string `json:"id"`
	FullName    string `json:"fullName"`
	StudentCode string `json:"studentCode"`
	IsActive    bool   `json:"isActive"`
}

// StudentInput is the body accepted by POST /students.
//
// IsActive is a pointer so that "omitted" can be told apart from an
// explicit false; an omitted flag defaults to true.
type StudentInput struct {
	FullName    string `json:"fullName"    validate:"required"`
	StudentCode string `json:"studentCode" validate:"required,studentcode"`
	IsActive    *bool  `json:"isActive"`
}

// ToStudent converts the input into a record without an ID, applying
// the isActive default.
func (in StudentInput) ToStudent() Student {
	active := true
	if in.IsActive != nil {
		active = *in.IsActive
	}
	return Student{
		FullName:    in.FullName,
		StudentCode: in.StudentCode,
		IsActive:    active,
	}
}

// Optional is a JSON field that remembers whether the body carried it.
// An explicit null counts as supplied: Set and Null are both true.
type Optional[T any] struct {
	Value T
	Set   bool
	Null  bool
}

// Some returns a supplied, non-null value.
func Some[T any](v T) Optional[T] {
	return Optional[T]{Value: v, Set: true}
}

// Null returns a field supplied as JSON null.
func Null[T any]() Optional[T] {
	return Optional[T]{Set: true, Null: true}
}

// UnmarshalJSON is only called when the key is present, so reaching it
// at all marks the field as supplied.
func (o *Optional[T]) UnmarshalJSON(b []byte) error {
	o.Set = true
	if string(b) == "null" {
		o.Null = true
		return nil
	}
	return json.Unmarshal(b, &o.Value)
}

// Ptr returns the value, or nil when it is absent or null.
func (o Optional[T]) Ptr() *T {
	if !o.Set || o.Null {
		return nil
	}
	v := o.Value
	return &v
}

// StudentPatch is the body accepted by PUT /students/{id}.
// Only supplied fields are applied; everything else is left untouched.
// Supplied nulls never reach storage: validation rejects them.
type StudentPatch struct {
	FullName    Optional[string] `json:"fullName"`
	StudentCode Optional[string] `json:"studentCode"`
	IsActive    Optional[bool]   `json:"isActive"`
}

// Empty reports whether the patch carries no fields at all.
func (p StudentPatch) Empty() bool {
	return !p.FullName.Set && !p.StudentCode.Set && !p.IsActive.Set
}

// Apply returns a copy of s with the supplied non-null fields replaced.
func (p StudentPatch) Apply(s Student) Student {
	if v := p.FullName.Ptr(); v != nil {
		s.FullName = *v
	}
	if v := p.StudentCode.Ptr(); v != nil {
		s.StudentCode = *v
	}
	if v := p.IsActive.Ptr(); v != nil {
		s.IsActive = *v
	}
	return s
}

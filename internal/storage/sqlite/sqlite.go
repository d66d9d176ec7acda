// Package sqlite provides a SQLite-backed implementation of the
// storage.Storage interface using Go's standard database/sql package.
//
// SQLite keeps everything in a single file on disk: no network, no
// separate server process. It is the embedded alternative to the Mongo
// document store and is selected with STORAGE_DRIVER=sqlite.
//
// Importing go-sqlite3 registers the "sqlite3" driver with database/sql;
// its Error type is also used to recognise UNIQUE constraint violations.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/mattn/go-sqlite3"

	"github.com/qe-students/students-api/internal/storage"
	"github.com/qe-students/students-api/internal/types"
	"github.com/qe-students/students-api/internal/validation"
)

// SQLite is the concrete implementation of storage.Storage.
// It holds a *sql.DB, a connection pool managed by database/sql.
type SQLite struct {
	Db *sql.DB
}

// New opens the SQLite database at path, creates the students table if
// it does not already exist, and returns a ready-to-use *SQLite.
func New(path string) (*SQLite, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("sqlite.New: create dir: %w", err)
		}
	}

	// sql.Open only validates the DSN; the first real connection happens
	// on the first query.
	db, err := sql.Open("sqlite3", fmt.Sprintf("file:%s?_busy_timeout=5000", path))
	if err != nil {
		return nil, fmt.Errorf("sqlite.New: open db: %w", err)
	}

	// SQLite allows a single writer. One pooled connection serialises
	// writes instead of surfacing SQLITE_BUSY to callers.
	db.SetMaxOpenConns(1)

	// Schema:
	//   id           — UUID assigned on insert, never updated
	//   student_code — unique; the UNIQUE index is what enforces
	//                  uniqueness under concurrent writers
	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS students (
			id           TEXT    PRIMARY KEY,
			full_name    TEXT    NOT NULL,
			student_code TEXT    NOT NULL UNIQUE,
			is_active    INTEGER NOT NULL DEFAULT 1
		)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite.New: create table: %w", err)
	}

	return &SQLite{Db: db}, nil
}

// isUniqueViolation reports whether err is a UNIQUE constraint failure.
func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	return errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique
}

// validID reports whether id could have been assigned by this backend.
// Anything else cannot match a row, so callers answer ErrNotFound.
func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

// CreateStudent inserts a new row into the students table.
// Placeholders (?) keep user input out of the SQL text.
func (s *SQLite) CreateStudent(ctx context.Context, in types.StudentInput) (types.Student, error) {
	if err := validation.ValidateInput(in); err != nil {
		return types.Student{}, err
	}

	student := in.ToStudent()
	student.ID = uuid.NewString()

	stmt, err := s.Db.PrepareContext(ctx,
		"INSERT INTO students (id, full_name, student_code, is_active) VALUES (?, ?, ?, ?)",
	)
	if err != nil {
		return types.Student{}, storage.Wrap("CreateStudent: prepare", err)
	}
	defer stmt.Close()

	if _, err := stmt.ExecContext(ctx, student.ID, student.FullName, student.StudentCode, student.IsActive); err != nil {
		if isUniqueViolation(err) {
			return types.Student{}, storage.ErrDuplicateKey
		}
		return types.Student{}, storage.Wrap("CreateStudent: exec", err)
	}

	return student, nil
}

// GetStudentByID fetches exactly one student row matched by primary key.
func (s *SQLite) GetStudentByID(ctx context.Context, id string) (types.Student, error) {
	if !validID(id) {
		return types.Student{}, storage.ErrNotFound
	}

	stmt, err := s.Db.PrepareContext(ctx,
		"SELECT id, full_name, student_code, is_active FROM students WHERE id = ? LIMIT 1",
	)
	if err != nil {
		return types.Student{}, storage.Wrap("GetStudentByID: prepare", err)
	}
	defer stmt.Close()

	var student types.Student

	// QueryRow never returns nil; a missing row surfaces from Scan as
	// sql.ErrNoRows.
	err = stmt.QueryRowContext(ctx, id).Scan(
		&student.ID,
		&student.FullName,
		&student.StudentCode,
		&student.IsActive,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Student{}, storage.ErrNotFound
		}
		return types.Student{}, storage.Wrap("GetStudentByID: scan", err)
	}

	return student, nil
}

// GetStudents returns all student rows in insertion order.
func (s *SQLite) GetStudents(ctx context.Context) ([]types.Student, error) {
	stmt, err := s.Db.PrepareContext(ctx,
		"SELECT id, full_name, student_code, is_active FROM students ORDER BY rowid",
	)
	if err != nil {
		return nil, storage.Wrap("GetStudents: prepare", err)
	}
	defer stmt.Close()

	rows, err := stmt.QueryContext(ctx)
	if err != nil {
		return nil, storage.Wrap("GetStudents: query", err)
	}
	defer rows.Close()

	// Non-nil so the JSON body is [] rather than null.
	students := make([]types.Student, 0)

	for rows.Next() {
		var student types.Student

		if err := rows.Scan(
			&student.ID,
			&student.FullName,
			&student.StudentCode,
			&student.IsActive,
		); err != nil {
			return nil, storage.Wrap("GetStudents: scan row", err)
		}

		students = append(students, student)
	}

	if err := rows.Err(); err != nil {
		return nil, storage.Wrap("GetStudents: rows iteration", err)
	}

	return students, nil
}

// UpdateStudentByID applies only the supplied fields. An absent field is
// bound as NULL, and COALESCE keeps the stored value for that column.
func (s *SQLite) UpdateStudentByID(ctx context.Context, id string, patch types.StudentPatch) (types.Student, error) {
	if err := validation.ValidatePatch(patch); err != nil {
		return types.Student{}, err
	}
	if !validID(id) {
		return types.Student{}, storage.ErrNotFound
	}

	stmt, err := s.Db.PrepareContext(ctx, `
		UPDATE students SET
			full_name    = COALESCE(?, full_name),
			student_code = COALESCE(?, student_code),
			is_active    = COALESCE(?, is_active)
		WHERE id = ?`,
	)
	if err != nil {
		return types.Student{}, storage.Wrap("UpdateStudentByID: prepare", err)
	}
	defer stmt.Close()

	result, err := stmt.ExecContext(ctx, patch.FullName.Ptr(), patch.StudentCode.Ptr(), patch.IsActive.Ptr(), id)
	if err != nil {
		if isUniqueViolation(err) {
			return types.Student{}, storage.ErrDuplicateKey
		}
		return types.Student{}, storage.Wrap("UpdateStudentByID: exec", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return types.Student{}, storage.Wrap("UpdateStudentByID: rows affected", err)
	}
	if affected == 0 {
		return types.Student{}, storage.ErrNotFound
	}

	// Re-fetch so the caller sees exactly what is stored.
	return s.GetStudentByID(ctx, id)
}

// DeleteStudentByID removes a student row by primary key.
func (s *SQLite) DeleteStudentByID(ctx context.Context, id string) error {
	if !validID(id) {
		return storage.ErrNotFound
	}

	stmt, err := s.Db.PrepareContext(ctx, "DELETE FROM students WHERE id = ?")
	if err != nil {
		return storage.Wrap("DeleteStudentByID: prepare", err)
	}
	defer stmt.Close()

	result, err := stmt.ExecContext(ctx, id)
	if err != nil {
		return storage.Wrap("DeleteStudentByID: exec", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return storage.Wrap("DeleteStudentByID: rows affected", err)
	}
	if affected == 0 {
		return storage.ErrNotFound
	}

	return nil
}

func (s *SQLite) Ping(ctx context.Context) error {
	return storage.Wrap("sqlite.Ping", s.Db.PingContext(ctx))
}

func (s *SQLite) Close(context.Context) error {
	return s.Db.Close()
}

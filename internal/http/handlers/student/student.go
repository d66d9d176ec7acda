// Package student contains the HTTP handlers for the Student resource.
//
// Every handler is built by a factory that receives its dependencies
// and returns the function the router needs:
//
//	router.HandleFunc("POST /students", student.New(store))
//
// New(store) runs once at startup; the returned closure runs on every
// request. No handler keeps state between requests and each one makes
// exactly one storage call.
package student

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/qe-students/students-api/internal/storage"
	"github.com/qe-students/students-api/internal/types"
	"github.com/qe-students/students-api/internal/utils/response"
)

const (
	msgCreated = "Student created successfully"
	msgUpdated = "Student updated successfully"
	msgDeleted = "Student deleted successfully"
)

// decodeBody reads a JSON body into v. An empty body leaves v at its
// zero value, so the shape rules decide whether that is acceptable.
func decodeBody(r *http.Request, v any) error {
	err := json.NewDecoder(r.Body).Decode(v)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

// decodeMessage describes a body decoding failure without exposing Go
// type names: a value of the wrong JSON type becomes "<field>: invalid type".
func decodeMessage(err error) string {
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		if typeErr.Field == "" {
			return "invalid type"
		}
		return typeErr.Field + ": invalid type"
	}
	return err.Error()
}

// writeError translates a storage outcome into the status code and
// envelope clients see. Storage failures and anything unrecognised are
// logged and hidden behind a generic 500.
func writeError(w http.ResponseWriter, r *http.Request, op string, err error) {
	switch storage.Classify(err) {
	case storage.OutcomeValidation:
		response.WriteJSON(w, http.StatusBadRequest, response.Fail(err.Error()))
	case storage.OutcomeDuplicateKey:
		response.WriteJSON(w, http.StatusBadRequest, response.Fail(response.MsgDuplicateKey))
	case storage.OutcomeNotFound:
		response.WriteJSON(w, http.StatusNotFound, response.Fail(response.MsgNotFound))
	default:
		slog.Error("server error",
			slog.String("op", op),
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.String("error", err.Error()))
		response.WriteJSON(w, http.StatusInternalServerError, response.Fail(response.MsgServerError))
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// New handles POST /students.
//
// Request body:
//
//	{ "fullName": "A B", "studentCode": "ST00001", "isActive": true }
//
// isActive is optional and defaults to true.
//
// Responses:
//
//	201 { success, message, data }
//	400 malformed JSON, shape violation, or duplicate studentCode
//	500 storage failure
//
// ─────────────────────────────────────────────────────────────────────────────
func New(store storage.Storage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		slog.Debug("creating a student")

		var in types.StudentInput
		if err := decodeBody(r, &in); err != nil {
			response.WriteJSON(w, http.StatusBadRequest, response.Fail(decodeMessage(err)))
			return
		}

		created, err := store.CreateStudent(r.Context(), in)
		if err != nil {
			writeError(w, r, "create", err)
			return
		}

		slog.Info("student created",
			slog.String("id", created.ID),
			slog.String("studentCode", created.StudentCode))
		response.WriteJSON(w, http.StatusCreated, response.OKWithMessage(msgCreated, created))
	}
}

// GetList handles GET /students and returns every record.
// An empty store yields "data": [] rather than null.
func GetList(store storage.Storage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		slog.Debug("getting all students")

		students, err := store.GetStudents(r.Context())
		if err != nil {
			writeError(w, r, "list", err)
			return
		}

		response.WriteJSON(w, http.StatusOK, response.OK(students))
	}
}

// GetByID handles GET /students/{id}.
// Unknown and malformed ids both answer 404.
func GetByID(store storage.Storage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("id")
		slog.Debug("getting a student", slog.String("id", id))

		student, err := store.GetStudentByID(r.Context(), id)
		if err != nil {
			writeError(w, r, "get", err)
			return
		}

		response.WriteJSON(w, http.StatusOK, response.OK(student))
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// Update handles PUT /students/{id}.
//
// The body is a partial Student: only the fields present are changed
// and each one is re-validated with the create rules.
//
//	{ "isActive": false }
//
// Responses:
//
//	200 { success, message, data }   data is the record after the update
//	400 malformed JSON, shape violation, or duplicate studentCode
//	404 no such student
//	500 storage failure
//
// ─────────────────────────────────────────────────────────────────────────────
func Update(store storage.Storage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("id")
		slog.Debug("updating a student", slog.String("id", id))

		var patch types.StudentPatch
		if err := decodeBody(r, &patch); err != nil {
			response.WriteJSON(w, http.StatusBadRequest, response.Fail(decodeMessage(err)))
			return
		}

		updated, err := store.UpdateStudentByID(r.Context(), id, patch)
		if err != nil {
			writeError(w, r, "update", err)
			return
		}

		slog.Info("student updated", slog.String("id", id))
		response.WriteJSON(w, http.StatusOK, response.OKWithMessage(msgUpdated, updated))
	}
}

// Delete handles DELETE /students/{id}. The record is removed for good.
func Delete(store storage.Storage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("id")
		slog.Debug("deleting a student", slog.String("id", id))

		if err := store.DeleteStudentByID(r.Context(), id); err != nil {
			writeError(w, r, "delete", err)
			return
		}

		slog.Info("student deleted", slog.String("id", id))
		response.WriteJSON(w, http.StatusOK, response.OKWithMessage(msgDeleted, nil))
	}
}

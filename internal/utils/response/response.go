// Package response provides helpers for writing consistent JSON HTTP
// responses.
//
// Every CRUD response uses the same envelope, so API consumers always
// know where to look:
//
//	{ "success": true,  "message": "...", "data": {...} }
//	{ "success": false, "message": "Student not found" }
package response

import (
	"encoding/json"
	"net/http"
)

// Envelope is the uniform wrapper returned by every CRUD route.
// Message and Data are dropped from the JSON when unset.
type Envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

// Fixed client-facing messages.
const (
	MsgNotFound     = "Student not found"
	MsgDuplicateKey = "Student code already exists"
	MsgServerError  = "Something went wrong on the server"
)

// WriteJSON writes data as JSON with the given status code.
//
// Order matters: Header() → WriteHeader() → body. Headers are frozen
// once WriteHeader (or the first Write) runs.
func WriteJSON(w http.ResponseWriter, status int, data any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(data)
}

// OK wraps a successful payload.
func OK(data any) Envelope {
	return Envelope{Success: true, Data: data}
}

// OKWithMessage wraps a successful payload with a confirmation message.
func OKWithMessage(message string, data any) Envelope {
	return Envelope{Success: true, Message: message, Data: data}
}

// Fail builds an error envelope.
func Fail(message string) Envelope {
	return Envelope{Success: false, Message: message}
}

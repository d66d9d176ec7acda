// Package info serves the static identity endpoint.
package info

import (
	"net/http"

	"github.com/qe-students/students-api/internal/utils/response"
)

// Identity is the fixed payload returned by GET /info.
type Identity struct {
	FullName    string `json:"fullName"`
	StudentCode string `json:"studentCode"`
}

// Owner is the identity this deployment reports.
var Owner = Identity{FullName: "Le Manh Hung", StudentCode: "QE170213"}

// Get handles GET /info. It never touches storage and always answers
// 200 with { "data": { "fullName", "studentCode" } }.
func Get() http.HandlerFunc {
	body := struct {
		Data Identity `json:"data"`
	}{Data: Owner}

	return func(w http.ResponseWriter, r *http.Request) {
		response.WriteJSON(w, http.StatusOK, body)
	}
}

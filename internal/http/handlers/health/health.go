// Package health reports whether the service can reach its storage.
package health

import (
	"log/slog"
	"net/http"

	"github.com/qe-students/students-api/internal/storage"
	"github.com/qe-students/students-api/internal/utils/response"
)

// Get handles GET /healthz.
func Get(store storage.Storage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := store.Ping(r.Context()); err != nil {
			slog.Warn("health check failed", slog.String("error", err.Error()))
			response.WriteJSON(w, http.StatusInternalServerError, response.Fail(response.MsgServerError))
			return
		}
		response.WriteJSON(w, http.StatusOK, response.OKWithMessage("ok", nil))
	}
}

// Package router wires every route to its handler.
//
// Route table:
//
//	GET    /info            static identity
//	POST   /students        create a student
//	GET    /students        list all students
//	GET    /students/{id}   get one student
//	PUT    /students/{id}   update a student
//	DELETE /students/{id}   delete a student
//	GET    /healthz         storage reachability
//	GET    /metrics         Prometheus metrics
package router

import (
	"log/slog"
	"net/http"

	"github.com/VictoriaMetrics/metrics"

	"github.com/qe-students/students-api/internal/http/handlers/health"
	"github.com/qe-students/students-api/internal/http/handlers/info"
	"github.com/qe-students/students-api/internal/http/handlers/student"
	"github.com/qe-students/students-api/internal/http/middleware"
	"github.com/qe-students/students-api/internal/storage"
)

// New returns the application's root handler backed by store.
func New(store storage.Storage, log *slog.Logger) http.Handler {
	mux := http.NewServeMux()

	handle := func(pattern string, h http.HandlerFunc) {
		mux.Handle(pattern, middleware.Metrics(pattern, h))
	}

	handle("GET /info", info.Get())

	handle("POST /students", student.New(store))
	handle("GET /students", student.GetList(store))
	handle("GET /students/{id}", student.GetByID(store))
	handle("PUT /students/{id}", student.Update(store))
	handle("DELETE /students/{id}", student.Delete(store))

	handle("GET /healthz", health.Get(store))
	mux.HandleFunc("GET /metrics", func(w http.ResponseWriter, r *http.Request) {
		metrics.WritePrometheus(w, true)
	})

	return middleware.Chain(mux,
		middleware.Recoverer(log),
		middleware.CORS,
		middleware.Logger(log),
	)
}

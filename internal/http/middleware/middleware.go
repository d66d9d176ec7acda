// Package middleware wraps http.Handlers with the cross-cutting
// behaviour every route shares: CORS, panic recovery, request logging
// and metrics.
package middleware

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/VictoriaMetrics/metrics"
	"github.com/rs/cors"

	"github.com/qe-students/students-api/internal/utils/response"
)

// statusRecorder remembers the status code written by the wrapped
// handler and whether the response has been started.
type statusRecorder struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func (r *statusRecorder) WriteHeader(status int) {
	if !r.wroteHeader {
		r.status = status
		r.wroteHeader = true
	}
	r.ResponseWriter.WriteHeader(status)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	r.wroteHeader = true
	return r.ResponseWriter.Write(b)
}

func record(w http.ResponseWriter) *statusRecorder {
	return &statusRecorder{ResponseWriter: w, status: http.StatusOK}
}

// corsPolicy lets any origin call the API with any request header.
// Preflight requests are answered with 204 and never reach the mux.
var corsPolicy = cors.New(cors.Options{
	AllowedOrigins: []string{"*"},
	AllowedMethods: []string{
		http.MethodGet,
		http.MethodHead,
		http.MethodPut,
		http.MethodPatch,
		http.MethodPost,
		http.MethodDelete,
	},
	AllowedHeaders: []string{"*"},
})

// CORS applies corsPolicy to next.
func CORS(next http.Handler) http.Handler {
	return corsPolicy.Handler(next)
}

// Recoverer turns a panicking handler into the generic 500 envelope so
// a single bad request never takes the process down. If the handler had
// already started its response, the panic is only logged.
func Recoverer(log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sr := record(w)
			defer func() {
				if rec := recover(); rec != nil {
					if rec == http.ErrAbortHandler {
						panic(rec)
					}
					log.Error("panic while handling request",
						slog.String("method", r.Method),
						slog.String("path", r.URL.Path),
						slog.Bool("response_started", sr.wroteHeader),
						slog.Any("panic", rec))
					if !sr.wroteHeader {
						response.WriteJSON(w, http.StatusInternalServerError, response.Fail(response.MsgServerError))
					}
				}
			}()
			next.ServeHTTP(sr, r)
		})
	}
}

// Logger writes one structured line per request.
func Logger(log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := record(w)
			next.ServeHTTP(rec, r)

			log.Info("request",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", rec.status),
				slog.Duration("duration", time.Since(start)))
		})
	}
}

// Metrics counts requests by route and status and records their
// duration. route is the mux pattern the handler is registered under.
func Metrics(route string, next http.Handler) http.Handler {
	duration := metrics.GetOrCreateHistogram(
		fmt.Sprintf(`http_request_duration_seconds{route=%q}`, route))

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := record(w)
		next.ServeHTTP(rec, r)

		duration.UpdateDuration(start)
		metrics.GetOrCreateCounter(
			fmt.Sprintf(`http_requests_total{route=%q,status="%d"}`, route, rec.status)).Inc()
	})
}

// Chain applies middlewares so the first one listed is the outermost.
func Chain(h http.Handler, mws ...func(http.Handler) http.Handler) http.Handler {
	for i := len(mws) - 1; i >= 0; i-- {
		h = mws[i](h)
	}
	return h
}

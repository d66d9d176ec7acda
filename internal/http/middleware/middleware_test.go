package middleware

import (
	"bytes"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/VictoriaMetrics/metrics"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

func ok(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusTeapot) }

func TestCORSPreflight(t *testing.T) {
	called := false
	h := CORS(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { called = true }))

	req := httptest.NewRequest(http.MethodOptions, "/students", nil)
	req.Header.Set("Origin", "http://example.com")
	req.Header.Set("Access-Control-Request-Method", "POST")
	req.Header.Set("Access-Control-Request-Headers", "content-type")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if called {
		t.Error("preflight should not reach the handler")
	}
	if rec.Code != http.StatusNoContent {
		t.Errorf("status = %d, want 204", rec.Code)
	}
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("Allow-Origin = %q", got)
	}
	if got := rec.Header().Get("Access-Control-Allow-Headers"); got != "content-type" {
		t.Errorf("Allow-Headers = %q", got)
	}
	if got := rec.Header().Get("Access-Control-Allow-Methods"); !strings.Contains(got, "POST") {
		t.Errorf("Allow-Methods = %q", got)
	}
}

func TestCORSPreflightRejectsUnknownMethod(t *testing.T) {
	h := CORS(http.HandlerFunc(ok))

	req := httptest.NewRequest(http.MethodOptions, "/students", nil)
	req.Header.Set("Origin", "http://example.com")
	req.Header.Set("Access-Control-Request-Method", "TRACE")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Errorf("Allow-Origin = %q for a method the API does not serve", got)
	}
}

func TestCORSSimpleRequest(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/students", nil)
	req.Header.Set("Origin", "http://example.com")
	rec := httptest.NewRecorder()
	CORS(http.HandlerFunc(ok)).ServeHTTP(rec, req)

	if rec.Code != http.StatusTeapot {
		t.Errorf("handler not called, status = %d", rec.Code)
	}
	if rec.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Error("missing Allow-Origin on simple request")
	}
}

func TestRecoverer(t *testing.T) {
	h := Recoverer(discard)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
	want := `{"success":false,"message":"Something went wrong on the server"}`
	if got := strings.TrimSpace(rec.Body.String()); got != want {
		t.Errorf("body = %s", got)
	}
}

func TestRecovererAfterResponseStarted(t *testing.T) {
	h := Recoverer(discard)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"success":true}`))
		panic("late boom")
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want the handler's 200", rec.Code)
	}
	if got := rec.Body.String(); got != `{"success":true}` {
		t.Errorf("body = %s, want only the handler's output", got)
	}
}

func TestRecovererAfterImplicitHeader(t *testing.T) {
	h := Recoverer(discard)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("partial"))
		panic("late boom")
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if got := rec.Body.String(); got != "partial" {
		t.Errorf("body = %q, want %q", got, "partial")
	}
}

func TestLogger(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(slog.NewTextHandler(&buf, nil))

	rec := httptest.NewRecorder()
	Logger(log)(http.HandlerFunc(ok)).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/info", nil))

	line := buf.String()
	for _, want := range []string{"method=GET", "path=/info", "status=418"} {
		if !strings.Contains(line, want) {
			t.Errorf("log line %q missing %q", line, want)
		}
	}
}

func TestMetrics(t *testing.T) {
	h := Metrics("GET /metrics-test", http.HandlerFunc(ok))
	for i := 0; i < 3; i++ {
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/metrics-test", nil))
	}

	var buf bytes.Buffer
	metrics.WritePrometheus(&buf, false)
	want := `http_requests_total{route="GET /metrics-test",status="418"} 3`
	if !strings.Contains(buf.String(), want) {
		t.Errorf("metrics output missing %q:\n%s", want, buf.String())
	}
}

func TestChainOrder(t *testing.T) {
	var order []string
	mw := func(name string) func(http.Handler) http.Handler {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}

	Chain(http.HandlerFunc(ok), mw("a"), mw("b")).
		ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	if strings.Join(order, ",") != "a,b" {
		t.Errorf("order = %v, want [a b]", order)
	}
}

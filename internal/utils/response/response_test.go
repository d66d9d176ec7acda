package response

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestWriteJSON(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   any
		want   string
	}{
		{
			name:   "failure omits data",
			status: http.StatusNotFound,
			body:   Fail(MsgNotFound),
			want:   `{"success":false,"message":"Student not found"}`,
		},
		{
			name:   "success omits message",
			status: http.StatusOK,
			body:   OK(map[string]int{"n": 1}),
			want:   `{"success":true,"data":{"n":1}}`,
		},
		{
			name:   "empty list is kept",
			status: http.StatusOK,
			body:   OK([]string{}),
			want:   `{"success":true,"data":[]}`,
		},
		{
			name:   "message only",
			status: http.StatusOK,
			body:   OKWithMessage("Student deleted successfully", nil),
			want:   `{"success":true,"message":"Student deleted successfully"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			if err := WriteJSON(rec, tt.status, tt.body); err != nil {
				t.Fatalf("WriteJSON: %v", err)
			}

			if rec.Code != tt.status {
				t.Errorf("status = %d, want %d", rec.Code, tt.status)
			}
			if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
				t.Errorf("Content-Type = %q", ct)
			}
			if got := strings.TrimSpace(rec.Body.String()); got != tt.want {
				t.Errorf("body = %s, want %s", got, tt.want)
			}
		})
	}
}

package trace

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
)

func TestMiddlewareAssignsRequestID(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	m := NewMiddleware(logger, func(*http.Request) string { return "10.0.0.1" })

	var seen string
	h := m.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetRequestID(r.Context())
		w.WriteHeader(http.StatusTeapot)
	}))

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/journal", nil))

	if _, err := uuid.Parse(seen); err != nil {
		t.Fatalf("request id %q is not a UUID", seen)
	}
	if got := w.Header().Get(RequestIDHeader); got != seen {
		t.Errorf("header id %q != context id %q", got, seen)
	}
	out := buf.String()
	if !strings.Contains(out, "status_code=418") || !strings.Contains(out, "level=WARN") {
		t.Errorf("completion log missing status/level: %s", out)
	}
	if m.GetMetrics().TotalRequests != 1 {
		t.Errorf("TotalRequests = %d", m.GetMetrics().TotalRequests)
	}
}

func TestMiddlewareReusesValidIncomingID(t *testing.T) {
	m := NewMiddleware(slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil)), nil)
	incoming := uuid.NewString()

	tests := []struct {
		name   string
		header string
		reuse  bool
	}{
		{"valid uuid", incoming, true},
		{"garbage", "<script>", false},
		{"missing", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var seen string
			h := m.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				seen = GetRequestID(r.Context())
			}))
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				r.Header.Set(RequestIDHeader, tt.header)
			}
			h.ServeHTTP(httptest.NewRecorder(), r)
			if (seen == tt.header) != tt.reuse {
				t.Errorf("seen %q, header %q, reuse %v", seen, tt.header, tt.reuse)
			}
		})
	}
}

func TestMiddlewareCountsServerErrors(t *testing.T) {
	m := NewMiddleware(slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil)), nil)
	h := m.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusServiceUnavailable)
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	if m.GetMetrics().ServerErrors != 1 {
		t.Errorf("ServerErrors = %d, want 1", m.GetMetrics().ServerErrors)
	}
}

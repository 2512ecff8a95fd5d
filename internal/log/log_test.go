package log

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"salesjournal/internal/core"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"INFO":    slog.LevelInfo,
		"warn":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"bogus":   slog.LevelInfo,
	}
	for in, want := range tests {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestErrorType(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{nil, ""},
		{core.NewValidationError("quantity", core.ErrInvalidQuantity), ErrorTypeValidation},
		{&core.StorageCorruptionError{Key: "k", Err: errors.New("bad")}, ErrorTypeCorruption},
		{&core.StorageUnavailableError{Op: "read", Err: errors.New("gone")}, ErrorTypeUnavailable},
		{context.DeadlineExceeded, ErrorTypeUnavailable},
		{errors.New("other"), ErrorTypeInternal},
	}
	for _, tt := range tests {
		if got := ErrorType(tt.err); got != tt.want {
			t.Errorf("ErrorType(%v) = %q, want %q", tt.err, got, tt.want)
		}
	}
}

func TestStructuredLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: slog.LevelDebug, Component: ComponentApp, Output: &buf})
	sl := NewStructuredLogger(logger)

	sl.LogSaleRecorded(context.Background(), core.Transaction{ID: 7, ProductName: "Coffee", Quantity: 2, Total: 7})
	sl.LogError(context.Background(), "Sale rejected", core.NewValidationError("product", core.ErrNoProduct), ComponentJournal, OpRecord)

	out := buf.String()
	for _, want := range []string{"Sale recorded", "transaction_id=7", "product=Coffee", "level=WARN", "error_type=validation_error"} {
		if !strings.Contains(out, want) {
			t.Errorf("log output missing %q:\n%s", want, out)
		}
	}
}

func TestMiddlewareStoresRequestLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Output: &buf})
	idFn := func(context.Context) string { return "req-1" }

	h := Middleware(logger, idFn)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		FromContext(r.Context()).InfoContext(r.Context(), "inside")
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	if !strings.Contains(buf.String(), "request_id=req-1") {
		t.Errorf("request id missing from log: %s", buf.String())
	}
	if FromContext(context.Background()).Component() != "unknown" {
		t.Error("FromContext without logger should fall back to default")
	}
}

func TestComponentIsReplacedNotStacked(t *testing.T) {
	var buf bytes.Buffer
	root := New(Config{Component: ComponentApp, Output: &buf})
	httpLogger := root.WithComponent(ComponentHTTP).With(FieldRequestID, "req-9")
	sl := NewStructuredLogger(httpLogger.WithComponent(ComponentJournal))

	sl.LogSaleRecorded(context.Background(), core.Transaction{ID: 3, ProductName: "Tea"})
	sl.LogError(context.Background(), "Journal operation failed", errors.New("boom"), ComponentHTTP, OpRecord)
	httpLogger.Info("plain")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	wants := []string{"component=journal", "component=http", "component=http"}
	if len(lines) != len(wants) {
		t.Fatalf("got %d lines:\n%s", len(lines), buf.String())
	}
	for i, line := range lines {
		if n := strings.Count(line, "component="); n != 1 {
			t.Errorf("line %d has %d component attributes: %s", i, n, line)
		}
		if !strings.Contains(line, wants[i]) {
			t.Errorf("line %d missing %q: %s", i, wants[i], line)
		}
		if !strings.Contains(line, "request_id=req-9") {
			t.Errorf("line %d lost request id: %s", i, line)
		}
	}
}

package log

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"salesjournal/internal/core"
)

type contextKey struct{}

// WithLogger stores logger in ctx.
func WithLogger(ctx context.Context, logger *Logger) context.Context {
	return context.WithValue(ctx, contextKey{}, logger)
}

// FromContext returns the request logger, or the default one.
func FromContext(ctx context.Context) *Logger {
	if logger, ok := ctx.Value(contextKey{}).(*Logger); ok {
		return logger
	}
	return &Logger{Logger: slog.Default(), base: slog.Default(), component: "unknown"}
}

// Middleware stores a request-scoped logger in the context. requestID may
// be nil.
func Middleware(logger *Logger, requestID func(context.Context) string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			l := logger
			if requestID != nil {
				if id := requestID(r.Context()); id != "" {
					l = l.With(FieldRequestID, id)
				}
			}
			next.ServeHTTP(w, r.WithContext(WithLogger(r.Context(), l)))
		})
	}
}

// ErrorType classifies err for the error_type log field.
func ErrorType(err error) string {
	switch {
	case err == nil:
		return ""
	case core.IsValidation(err):
		return ErrorTypeValidation
	case core.IsCorruption(err):
		return ErrorTypeCorruption
	case core.IsUnavailable(err):
		return ErrorTypeUnavailable
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return ErrorTypeUnavailable
	default:
		return ErrorTypeInternal
	}
}

// StructuredLogger logs domain events with consistent fields.
type StructuredLogger struct {
	logger *Logger
}

func NewStructuredLogger(logger *Logger) *StructuredLogger {
	return &StructuredLogger{logger: logger}
}

// LogSaleRecorded logs a successful sale.
func (sl *StructuredLogger) LogSaleRecorded(ctx context.Context, t core.Transaction) {
	fields := NewFields().
		WithSale(t.ID, t.ProductName, t.Category, t.Quantity, t.Total, t.Date).
		WithOperation(OpRecord).
		WithComponent(ComponentJournal)
	sl.logger.LogFields(ctx, slog.LevelInfo, "Sale recorded", fields)
}

// LogSaleDeleted logs a deletion and how many records remain.
func (sl *StructuredLogger) LogSaleDeleted(ctx context.Context, id int64, remaining int) {
	fields := NewFields().
		WithOperation(OpDelete).
		WithComponent(ComponentJournal)
	fields[FieldTransactionID] = id
	fields["remaining"] = remaining
	sl.logger.LogFields(ctx, slog.LevelInfo, "Sale deleted", fields)
}

// LogError logs err at a level that matches its category: validation
// failures are warnings, everything else is an error.
func (sl *StructuredLogger) LogError(ctx context.Context, msg string, err error, component, operation string) {
	kind := ErrorType(err)
	level := slog.LevelError
	if kind == ErrorTypeValidation {
		level = slog.LevelWarn
	}
	fields := NewFields().
		WithError(err, kind).
		WithOperation(operation).
		WithComponent(component)
	sl.logger.LogFields(ctx, level, msg, fields)
}

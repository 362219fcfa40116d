package web

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/phrazzld/taskdash/internal/platform/logger"
)

type contextKey string

// traceIDKey is the context key for the request trace ID.
const traceIDKey contextKey = "traceID"

// TraceIDHeader echoes the trace ID back to the caller.
const TraceIDHeader = "X-Trace-ID"

// SetTraceID adds a fresh trace ID to the context.
func SetTraceID(ctx context.Context) context.Context {
	return context.WithValue(ctx, traceIDKey, uuid.NewString())
}

// GetTraceID retrieves the trace ID from the context, or "" if none is set.
func GetTraceID(ctx context.Context) string {
	traceID, ok := ctx.Value(traceIDKey).(string)
	if !ok {
		return ""
	}
	return traceID
}

// TraceMiddleware adds a trace ID to the request context and response
// headers, and stores a logger tagged with that ID for the handlers.
// Apply it before any handler that reports errors.
func TraceMiddleware(base *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := SetTraceID(r.Context())
			traceID := GetTraceID(ctx)
			w.Header().Set(TraceIDHeader, traceID)

			l := base.With(slog.String("trace_id", traceID))
			l.Debug("request started",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.String("remote_addr", r.RemoteAddr))

			next.ServeHTTP(w, r.WithContext(logger.WithLogger(ctx, l)))
		})
	}
}

package ctxmanage

import (
	"context"

	"github.com/gin-gonic/gin"
)

type Key string

// TraceIDKey is the context key under which the per-request trace id lives.
const TraceIDKey Key = "trace-id"

func WithTraceID(ctx context.Context, traceID string) context.Context {
	return context.WithValue(ctx, TraceIDKey, traceID)
}

// GetTraceIdOfRequest returns the trace id injected by the logger middleware,
// or "unknown" when the middleware did not run (e.g. in tests).
func GetTraceIdOfRequest(c *gin.Context) string {
	traceID, ok := c.Request.Context().Value(TraceIDKey).(string)
	if !ok || traceID == "" {
		return "unknown"
	}
	return traceID
}

package middleware

import (
	"github.com/gin-gonic/gin"

	appctx "github.com/Colossus92/eazy-recycling-sub004/internal/core/context"
	"github.com/Colossus92/eazy-recycling-sub004/pkg/logger"
)

const (
	HeaderRequestID = "X-Request-ID"
	HeaderTraceID   = "X-Trace-ID"

	KeyRequestID = "request_id"
	KeyTraceID   = "trace_id"
)

// Trace middleware adds request tracing context and a request-scoped logger.
// The request id is taken from the caller when present.
func Trace(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		trace := appctx.NewTraceContext(ctx, c.GetHeader(HeaderRequestID))
		if traceID := c.GetHeader(HeaderTraceID); traceID != "" {
			trace.TraceID = traceID
		}

		ctx = appctx.WithTrace(ctx, trace)
		ctx = logger.WithLogger(ctx, log)
		c.Request = c.Request.WithContext(ctx)

		c.Set(KeyTraceID, trace.TraceID)
		c.Set(KeyRequestID, trace.RequestID)

		c.Header(HeaderRequestID, trace.RequestID)
		c.Header(HeaderTraceID, trace.TraceID)

		c.Next()
	}
}

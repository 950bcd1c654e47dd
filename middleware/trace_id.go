package middleware

import (
	"github.com/KOMKZ/go-yogan-quota/logger"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"
)

// TraceIDHeader request and response header carrying the trace id
const TraceIDHeader = "X-Trace-ID"

// TraceID takes the trace id from the active span, the request header or a
// new uuid, puts it in the request context for the loggers and echoes it back.
func TraceID() gin.HandlerFunc {
	return func(c *gin.Context) {
		var traceID string
		span := trace.SpanFromContext(c.Request.Context())
		if span.SpanContext().IsValid() {
			traceID = span.SpanContext().TraceID().String()
		} else {
			traceID = c.GetHeader(TraceIDHeader)
			if traceID == "" {
				traceID = uuid.New().String()
			}
			c.Request = c.Request.WithContext(logger.WithTraceID(c.Request.Context(), traceID))
		}

		c.Header(TraceIDHeader, traceID)
		c.Next()
	}
}

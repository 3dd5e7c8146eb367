package middleware

import (
	"bankfeed/internal/logger"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

const (
	// TraceIDHeader carries the trace ID in and out; callers may supply
	// their own, otherwise one is generated.
	TraceIDHeader = "X-Trace-ID"
	// TraceIDContextKey keys the trace ID in the echo context.
	TraceIDContextKey = "trace_id"
)

// RequestID tags every request with a trace ID, echoes it in the response
// header, and hangs a trace-scoped logger on the request context so
// downstream stages log with the same correlation ID.
func RequestID(log zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()

			traceID := req.Header.Get(TraceIDHeader)
			if traceID == "" {
				traceID = uuid.New().String()
			}

			c.Set(TraceIDContextKey, traceID)
			c.Response().Header().Set(TraceIDHeader, traceID)

			traced := log.With().Str(TraceIDContextKey, traceID).Logger()
			c.SetRequest(req.WithContext(logger.WithContext(req.Context(), traced)))

			return next(c)
		}
	}
}

// GetTraceID returns the trace ID set by RequestID, or "" outside it.
func GetTraceID(c echo.Context) string {
	traceID, _ := c.Get(TraceIDContextKey).(string)
	return traceID
}

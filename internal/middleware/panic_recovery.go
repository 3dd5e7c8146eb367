package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"bankfeed/internal/errors"
	"bankfeed/internal/logger"

	"github.com/labstack/echo/v4"
)

// PanicRecovery converts a panicking handler into a SYSTEM_001 response.
// The stack trace goes through the request-scoped logger, so it carries the
// trace ID when RequestID runs earlier in the chain.
func PanicRecovery() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			defer func() {
				if r := recover(); r != nil {
					log := logger.FromContext(c.Request().Context())
					log.Error().
						Str("panic", fmt.Sprintf("%v", r)).
						Str("stack_trace", string(debug.Stack())).
						Str("path", c.Request().URL.Path).
						Str("method", c.Request().Method).
						Msg("panic recovered")

					traceID := GetTraceID(c)
					if traceID == "" {
						traceID = "unknown"
					}
					resp := errors.NewErrorResponse(errors.SystemInternalError, traceID)
					if err := c.JSON(http.StatusInternalServerError, resp); err != nil {
						log.Error().Err(err).Msg("failed to send panic recovery response")
					}
				}
			}()

			return next(c)
		}
	}
}

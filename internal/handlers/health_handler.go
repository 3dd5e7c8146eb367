package handlers

import (
	"context"
	"net/http"
	"time"

	"bankfeed/internal/errors"

	"github.com/labstack/echo/v4"
)

// HealthChecker reports backing-store connectivity.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// HealthCheckHandler handles the health check endpoint. The checker is nil
// when the service runs with the in-memory gate backend and no database.
type HealthCheckHandler struct {
	checker HealthChecker
}

// NewHealthCheckHandler creates a new health check handler
func NewHealthCheckHandler(checker HealthChecker) *HealthCheckHandler {
	return &HealthCheckHandler{checker: checker}
}

// HealthCheck reports service and database status
func (h *HealthCheckHandler) HealthCheck(c echo.Context) error {
	if h.checker != nil {
		if err := h.checker.HealthCheck(c.Request().Context()); err != nil {
			errorResponse := errors.NewErrorResponse(
				errors.SystemServiceUnavailable,
				getTraceID(c),
				errors.WithDetails("Database connection failed"),
			)
			return c.JSON(http.StatusServiceUnavailable, errorResponse)
		}
	}

	return c.JSON(http.StatusOK, map[string]string{
		"status": "healthy",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

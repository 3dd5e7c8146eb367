package middleware

import (
	"context"
	"net/http"
	"time"

	"bankfeed/internal/errors"
	"bankfeed/internal/gate"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

// ClientIDHeader identifies the calling client for admission accounting.
// Requests without it are keyed by remote IP.
const ClientIDHeader = "X-Client-ID"

// AdmissionConfig controls the per-client concurrency gate.
type AdmissionConfig struct {
	Store  gate.Store
	Limit  int
	TTL    time.Duration
	Logger zerolog.Logger
}

// Admission bounds concurrent ingestions per client. A slot is taken before
// the handler runs and released when it returns; the TTL reclaims slots from
// requests that die without releasing.
func Admission(cfg AdmissionConfig) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			clientKey := c.Request().Header.Get(ClientIDHeader)
			if clientKey == "" {
				clientKey = c.RealIP()
			}

			ctx := c.Request().Context()

			acquired, err := cfg.Store.Acquire(ctx, clientKey, cfg.Limit, cfg.TTL)
			if err != nil {
				cfg.Logger.Error().Err(err).Str("client_key", clientKey).
					Msg("admission store unavailable")
				resp := errors.NewErrorResponse(errors.GateUnavailable, GetTraceID(c))
				return c.JSON(http.StatusServiceUnavailable, resp)
			}
			if !acquired {
				cfg.Logger.Warn().Str("client_key", clientKey).Int("limit", cfg.Limit).
					Msg("admission limit exceeded")
				resp := errors.NewErrorResponse(errors.GateLimitExceeded, GetTraceID(c))
				return c.JSON(http.StatusTooManyRequests, resp)
			}

			defer func() {
				// The slot must come back even when the caller disconnected
				// and cancelled the request context mid-flight.
				releaseCtx := context.WithoutCancel(ctx)
				if err := cfg.Store.Release(releaseCtx, clientKey); err != nil {
					cfg.Logger.Error().Err(err).Str("client_key", clientKey).
						Msg("admission release failed")
				}
			}()

			return next(c)
		}
	}
}

package middleware

import (
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/dukerupert/addressd/internal/domain"
)

// RequestLogger injects a request-scoped logger into the context and logs
// one line per completed request. Place it after RequestID so the logger
// carries the request ID. Handlers fetch it with zerolog.Ctx.
func RequestLogger(base zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			start := time.Now()

			lc := base.With().
				Str("method", req.Method).
				Str("path", req.URL.Path)
			if requestID := domain.RequestIDFromContext(req.Context()); requestID != "" {
				lc = lc.Str("request_id", requestID)
			}
			logger := lc.Logger()

			c.SetRequest(req.WithContext(logger.WithContext(req.Context())))

			err := next(c)
			if err != nil {
				// Let the error handler write the response so the logged status is final.
				c.Error(err)
			}

			status := c.Response().Status
			event := logger.Info()
			if status >= 500 {
				event = logger.Error()
			} else if status >= 400 {
				event = logger.Warn()
			}
			event.
				Int("status", status).
				Dur("latency", time.Since(start)).
				Str("remote_ip", c.RealIP()).
				Int64("bytes_out", c.Response().Size).
				Msg("request completed")

			return nil
		}
	}
}

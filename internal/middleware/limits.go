package middleware

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/dukerupert/addressd/internal/domain"
)

// Common size limits
const (
	KB = 1024
	MB = 1024 * KB

	// DefaultMaxBodySize is the default maximum request body size.
	// An address fits comfortably; anything bigger is abuse.
	DefaultMaxBodySize = 64 * KB
)

// DefaultTimeout bounds a whole request, upstream lookups included.
const DefaultTimeout = 15 * time.Second

// MaxBodySize limits the size of request bodies.
// If no size is provided, DefaultMaxBodySize is used.
// A declared Content-Length over the limit is rejected up front; otherwise
// the body is wrapped so that reads past the limit fail.
func MaxBodySize(maxBytes ...int64) echo.MiddlewareFunc {
	limit := int64(DefaultMaxBodySize)
	if len(maxBytes) > 0 && maxBytes[0] > 0 {
		limit = maxBytes[0]
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			if req.Body == nil {
				return next(c)
			}
			if req.ContentLength > limit {
				return domain.Errorf(domain.ETOOLARGE, "middleware.MaxBodySize", "Request body too large")
			}
			req.Body = http.MaxBytesReader(c.Response(), req.Body, limit)
			return next(c)
		}
	}
}

// Timeout attaches a deadline to the request context.
// If no duration is provided, DefaultTimeout is used. Handlers and the
// lookups they make observe the deadline through the context.
func Timeout(timeout ...time.Duration) echo.MiddlewareFunc {
	duration := DefaultTimeout
	if len(timeout) > 0 && timeout[0] > 0 {
		duration = timeout[0]
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx, cancel := context.WithTimeout(c.Request().Context(), duration)
			defer cancel()

			c.SetRequest(c.Request().WithContext(ctx))
			return next(c)
		}
	}
}

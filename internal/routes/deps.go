package routes

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/dukerupert/addressd/internal/handler"
)

// APIDeps contains dependencies for the public API routes
type APIDeps struct {
	// Validation
	AddressHandler *handler.AddressHandler

	// Per-client limiting for the validation endpoint (optional)
	RateLimit echo.MiddlewareFunc
}

// OpsDeps contains dependencies for operational routes
type OpsDeps struct {
	HealthHandler *handler.HealthHandler

	// Prometheus exposition (optional)
	MetricsHandler http.Handler
}

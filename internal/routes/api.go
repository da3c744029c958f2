package routes

import (
	"github.com/labstack/echo/v4"

	"github.com/dukerupert/addressd/internal/handler"
)

// RegisterAPIRoutes registers the validation API.
func RegisterAPIRoutes(e *echo.Echo, deps APIDeps) {
	var mw []echo.MiddlewareFunc
	if deps.RateLimit != nil {
		mw = append(mw, deps.RateLimit)
	}

	e.GET("/", handler.Index)
	e.POST("/validate-address", deps.AddressHandler.Validate, mw...)
}

// RegisterOpsRoutes registers health and metrics endpoints.
func RegisterOpsRoutes(e *echo.Echo, deps OpsDeps) {
	e.GET("/health", deps.HealthHandler.Health)
	if deps.MetricsHandler != nil {
		e.GET("/metrics", echo.WrapHandler(deps.MetricsHandler))
	}
}

package handler

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
)

// Usage is the text served on GET /.
const Usage = `addressd - US address validation

POST /validate-address  {"address": "123 Main St, Springfield, IL 62701"}
                        ?debug=true adds the reconciliation trace
GET  /health            liveness and dependency checks
GET  /metrics           Prometheus metrics
`

// Index handles GET / with a usage string.
func Index(c echo.Context) error {
	return c.String(http.StatusOK, Usage)
}

// HealthCheck reports whether one dependency is usable.
type HealthCheck func(ctx context.Context) error

// HealthHandler serves GET /health.
type HealthHandler struct {
	checks map[string]HealthCheck
}

// NewHealthHandler creates a health handler over named checks.
func NewHealthHandler(checks map[string]HealthCheck) *HealthHandler {
	return &HealthHandler{checks: checks}
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// Health handles GET /health
//
// Response codes:
// - 200 OK: every check passed
// - 503 Service Unavailable: at least one check failed
func (h *HealthHandler) Health(c echo.Context) error {
	resp := HealthResponse{Status: "ok"}
	status := http.StatusOK

	if len(h.checks) > 0 {
		resp.Checks = make(map[string]string, len(h.checks))
	}
	for name, check := range h.checks {
		if err := check(c.Request().Context()); err != nil {
			resp.Checks[name] = err.Error()
			resp.Status = "degraded"
			status = http.StatusServiceUnavailable
			continue
		}
		resp.Checks[name] = "ok"
	}

	return c.JSON(status, resp)
}

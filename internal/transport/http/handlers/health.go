package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// Pinger verifies connectivity to a backing dependency.
type Pinger interface {
	HealthCheck(ctx context.Context) error
}

// PingerFunc adapts a function to the Pinger interface.
type PingerFunc func(ctx context.Context) error

// HealthCheck calls the wrapped function.
func (f PingerFunc) HealthCheck(ctx context.Context) error { return f(ctx) }

// HealthHandler exposes liveness and readiness information.
type HealthHandler struct {
	startedAt    time.Time
	dependencies map[string]Pinger
}

// NewHealthHandler builds a new health handler instance.
func NewHealthHandler(dependencies map[string]Pinger) *HealthHandler {
	return &HealthHandler{
		startedAt:    time.Now().UTC(),
		dependencies: dependencies,
	}
}

// Status handles GET /healthz.
func (h *HealthHandler) Status(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{
		Status:    "ok",
		StartedAt: h.startedAt,
	})
}

// Readiness handles GET /readyz and pings every backing dependency.
func (h *HealthHandler) Readiness(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
	defer cancel()

	status := http.StatusOK
	checks := make(map[string]string, len(h.dependencies))
	for name, pinger := range h.dependencies {
		if err := pinger.HealthCheck(ctx); err != nil {
			checks[name] = err.Error()
			status = http.StatusServiceUnavailable
			continue
		}
		checks[name] = "ok"
	}

	c.JSON(status, gin.H{
		"status": http.StatusText(status),
		"checks": checks,
	})
}

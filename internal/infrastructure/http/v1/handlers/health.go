// Package handlers provides HTTP request handlers.
package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
)

// Pinger checks that the storage backend is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// detailer is implemented by backends that expose connection statistics.
type detailer interface {
	Details() map[string]any
}

// HealthHandler provides health check endpoints.
type HealthHandler struct {
	storage Pinger
	driver  string
	version string
}

// NewHealthHandler creates a health handler. A nil storage is always ready.
func NewHealthHandler(storage Pinger, driver, version string) *HealthHandler {
	return &HealthHandler{storage: storage, driver: driver, version: version}
}

// Live handles liveness probe (is the process alive?).
// GET /health/live
func (h *HealthHandler) Live(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"version": h.version,
	})
}

// Ready handles readiness probe (is the service ready to accept traffic?).
// GET /health/ready
func (h *HealthHandler) Ready(c *gin.Context) {
	if h.storage != nil {
		if err := h.storage.Ping(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status": "error",
				"checks": map[string]string{
					h.driver: "unhealthy: " + err.Error(),
				},
			})
			return
		}
	}

	body := gin.H{
		"status": "ok",
		"checks": map[string]string{
			h.driver: "healthy",
		},
	}
	if d, ok := h.storage.(detailer); ok {
		body["storage"] = d.Details()
	}
	c.JSON(http.StatusOK, body)
}

// Package handler provides HTTP request handlers for the application.
package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

const readinessTimeout = 2 * time.Second

// Pinger reports whether the record store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthChecker reports whether an optional dependency is connected.
type HealthChecker interface {
	IsHealthy() bool
}

// HealthHandler handles health check endpoints.
type HealthHandler struct {
	store     Pinger
	publisher HealthChecker
}

// NewHealthHandler creates a new HealthHandler instance. publisher may be
// nil when publishing is disabled.
func NewHealthHandler(store Pinger, publisher HealthChecker) *HealthHandler {
	return &HealthHandler{
		store:     store,
		publisher: publisher,
	}
}

// LivenessProbe checks if the application is running.
func (h *HealthHandler) LivenessProbe(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "UP",
		"time":   time.Now(),
	})
}

// ReadinessProbe checks if the application is ready to serve traffic.
func (h *HealthHandler) ReadinessProbe(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), readinessTimeout)
	defer cancel()

	if err := h.store.Ping(ctx); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "DOWN",
			"store":  "unhealthy",
			"error":  err.Error(),
			"time":   time.Now(),
		})
		return
	}

	resp := gin.H{
		"status": "UP",
		"store":  "healthy",
		"time":   time.Now(),
	}

	if h.publisher != nil {
		if !h.publisher.IsHealthy() {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":   "DOWN",
				"rabbitmq": "unhealthy",
				"time":     time.Now(),
			})
			return
		}
		resp["rabbitmq"] = "healthy"
	}

	c.JSON(http.StatusOK, resp)
}

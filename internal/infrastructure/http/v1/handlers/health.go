package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"foodchain/internal/infrastructure/storage/postgres"
)

// Version is reported by /health/info.
var Version = "0.1.0"

// HealthHandler provides health check endpoints.
type HealthHandler struct {
	pool    *postgres.Pool
	storage string
}

// NewHealthHandler creates a new health handler. pool is nil for the in-memory backend.
func NewHealthHandler(pool *postgres.Pool, storage string) *HealthHandler {
	return &HealthHandler{pool: pool, storage: storage}
}

// Live handles liveness probe (is the process alive?).
// GET /health/live
func (h *HealthHandler) Live(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
	})
}

// Ready handles readiness probe (is the service ready to accept traffic?).
// GET /health/ready
func (h *HealthHandler) Ready(c *gin.Context) {
	if h.pool == nil {
		c.JSON(http.StatusOK, gin.H{
			"status": "ok",
			"checks": map[string]string{"storage": h.storage},
		})
		return
	}

	if err := h.pool.Ping(c.Request.Context()); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "error",
			"checks": map[string]string{
				"database": "unhealthy: " + err.Error(),
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"checks": map[string]string{
			"database": "healthy",
		},
	})
}

// Info returns application information.
// GET /health/info
func (h *HealthHandler) Info(c *gin.Context) {
	info := gin.H{
		"app":     "foodchain",
		"version": Version,
		"storage": h.storage,
	}
	if h.pool != nil {
		info["database"] = h.pool.Stats()
	}
	c.JSON(http.StatusOK, info)
}

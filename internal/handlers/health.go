package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/inacomp/contest-live-service/internal/hub"
	redisclient "github.com/inacomp/contest-live-service/internal/redis"
)

type HealthHandler struct {
	redis *redisclient.Client
	db    *gorm.DB
	hub   *hub.Hub
}

func NewHealthHandler(redis *redisclient.Client, db *gorm.DB, h *hub.Hub) *HealthHandler {
	return &HealthHandler{
		redis: redis,
		db:    db,
		hub:   h,
	}
}

func (h *HealthHandler) Healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Readyz checks the backing stores. A failing dependency takes the instance
// out of the load balancer without killing live websocket sessions.
func (h *HealthHandler) Readyz(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	if err := h.redis.Ping(ctx); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "redis unavailable"})
		return
	}

	sqlDB, err := h.db.DB()
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "database unavailable"})
		return
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "database unavailable"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ready"})
}

func (h *HealthHandler) Stats(c *gin.Context) {
	c.JSON(http.StatusOK, h.hub.GetStats())
}

// Package health serves the liveness endpoint hosting platforms probe.
package health

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

type HealthCheckHandler struct {
	startedAt time.Time
	now       func() time.Time
}

func NewHealthCheckHandler() *HealthCheckHandler {
	return &HealthCheckHandler{startedAt: time.Now(), now: time.Now}
}

func (h *HealthCheckHandler) Root(c *gin.Context) {
	c.String(http.StatusOK, "Vaccine slot notifier is running")
}

func (h *HealthCheckHandler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":         "ok",
		"uptime_seconds": int64(h.now().Sub(h.startedAt).Seconds()),
	})
}

// SetupRouter builds the liveness router. It serves nothing of the check
// cycle itself.
func SetupRouter(handler *HealthCheckHandler) *gin.Engine {
	server := gin.New()
	server.Use(gin.Recovery())

	server.GET("/", handler.Root)
	server.GET("/healthz", handler.HealthCheck)

	return server
}

package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// SessionCounter reports how many widget sessions are live.
type SessionCounter interface {
	Len() int
}

type HealthHandler struct {
	logger    *zap.Logger
	sessions  SessionCounter
	startTime time.Time
}

func NewHealthHandler(logger *zap.Logger, sessions SessionCounter) *HealthHandler {
	return &HealthHandler{
		logger:    logger,
		sessions:  sessions,
		startTime: time.Now(),
	}
}

func (h *HealthHandler) Liveness(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{
		Status: "alive",
		Uptime: time.Since(h.startTime).String(),
	})
}

func (h *HealthHandler) Readiness(c *gin.Context) {
	resp := HealthResponse{
		Status: "ready",
		Uptime: time.Since(h.startTime).String(),
	}
	if h.sessions != nil {
		n := h.sessions.Len()
		resp.Sessions = &n
	}
	c.JSON(http.StatusOK, resp)
}

func (h *HealthHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{
		Status:    "ok",
		Uptime:    time.Since(h.startTime).String(),
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

package handlers

import (
	"net/http"
	"runtime"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/urmzd/shadepanel/pkg/api/types"
	"github.com/urmzd/shadepanel/pkg/device"
)

// HealthHandler handles health check endpoints
type HealthHandler struct {
	controller device.Controller
	hub        *Hub
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(controller device.Controller, hub *Hub) *HealthHandler {
	return &HealthHandler{controller: controller, hub: hub}
}

// Health handles GET /api/health
// @Summary      Health check
// @Description  Returns the health of the service, the actor count and the number of live-state subscribers
// @Tags         health
// @Produce      json
// @Success      200  {object}  types.HealthResponse  "Service is healthy"
// @Failure      503  {object}  types.HealthResponse  "No actors configured"
// @Router       /health [get]
func (h *HealthHandler) Health(c *gin.Context) {
	actors, err := h.controller.ListActors(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	status := "ok"
	httpStatus := http.StatusOK
	if !h.controller.IsConnected() {
		status = "degraded"
		httpStatus = http.StatusServiceUnavailable
	}

	c.JSON(httpStatus, types.HealthResponse{
		Status:     status,
		Goroutines: runtime.NumGoroutine(),
		Actors:     len(actors),
		SSEClients: h.hub.Clients(),
		Timestamp:  time.Now(),
	})
}

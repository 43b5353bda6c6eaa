package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/urmzd/shadepanel/pkg/device"
)

// ActorsHandler handles actor and group listing endpoints
type ActorsHandler struct {
	controller device.Controller
}

// NewActorsHandler creates a new actors handler
func NewActorsHandler(controller device.Controller) *ActorsHandler {
	return &ActorsHandler{controller: controller}
}

// ListActors handles GET /api/actors
// @Summary      List actors
// @Description  Returns every configured actor ordered by rank, then name
// @Tags         actors
// @Produce      json
// @Success      200  {array}   device.ActorStatus
// @Failure      500  {object}  types.ErrorResponse  "Controller error"
// @Router       /actors [get]
func (h *ActorsHandler) ListActors(c *gin.Context) {
	actors, err := h.controller.ListActors(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	if actors == nil {
		actors = []device.ActorStatus{}
	}
	c.JSON(http.StatusOK, actors)
}

// GetActor handles GET /api/actors/:name
// @Summary      Get actor
// @Description  Returns a single actor by name (case-insensitive)
// @Tags         actors
// @Produce      json
// @Param        name  path      string  true  "Actor name"
// @Success      200   {object}  device.ActorStatus
// @Failure      404   {object}  types.ErrorResponse  "Actor not found"
// @Router       /actors/{name} [get]
func (h *ActorsHandler) GetActor(c *gin.Context) {
	actor, err := h.controller.GetActor(c.Request.Context(), c.Param("name"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, actor)
}

// ListGroups handles GET /api/groups
// @Summary      List groups
// @Description  Returns the groups derived from the actors' group IDs, ordered by ID
// @Tags         groups
// @Produce      json
// @Success      200  {array}   device.GroupInfo
// @Failure      500  {object}  types.ErrorResponse  "Controller error"
// @Router       /groups [get]
func (h *ActorsHandler) ListGroups(c *gin.Context) {
	actors, err := h.controller.ListActors(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, device.Groups(actors))
}

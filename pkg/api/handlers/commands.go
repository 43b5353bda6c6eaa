package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/urmzd/shadepanel/pkg/api/types"
	"github.com/urmzd/shadepanel/pkg/device"
	"github.com/urmzd/shadepanel/pkg/device/schema"
)

// Broadcast delays after a command, giving actors time to start moving.
const (
	SingleSettle = 500 * time.Millisecond
	BulkSettle   = 1 * time.Second
)

// CommandsHandler handles position, tilt and slat commands
type CommandsHandler struct {
	controller device.Controller
	validator  *schema.Validator
	hub        *Hub
}

// NewCommandsHandler creates a new commands handler
func NewCommandsHandler(controller device.Controller, validator *schema.Validator, hub *Hub) *CommandsHandler {
	return &CommandsHandler{controller: controller, validator: validator, hub: hub}
}

// Actor returns the handler for POST /api/actors/:name/{kind}. The name
// "all" addresses every actor.
// @Summary      Command an actor
// @Description  Moves one actor, or every actor when name is "all". Tilt moves to the position and then tilts the slats; slat changes the slat angle only. Roller shutters ignore tilt and slat.
// @Tags         commands
// @Accept       json
// @Produce      json
// @Param        name     path      string                 true  "Actor name or \"all\""
// @Param        request  body      types.PositionRequest  true  "Target position (0 closed, 100 open)"
// @Success      200      {object}  types.CommandResponse
// @Failure      400      {object}  types.ErrorResponse  "Invalid request"
// @Failure      404      {object}  types.ErrorResponse  "Actor not found"
// @Router       /actors/{name}/position [post]
// @Router       /actors/{name}/tilt [post]
// @Router       /actors/{name}/slat [post]
func (h *CommandsHandler) Actor(kind device.Kind) gin.HandlerFunc {
	return func(c *gin.Context) {
		position, ok := h.position(c)
		if !ok {
			return
		}

		name := c.Param("name")
		cmd := device.Command{Scope: device.ScopeActor, Target: name, Kind: kind, Value: position}
		if strings.EqualFold(name, device.TargetAll) {
			cmd.Scope, cmd.Target = device.ScopeAll, device.TargetAll
		}
		h.dispatch(c, cmd)
	}
}

// Group returns the handler for POST /api/groups/:id/{kind}.
// @Summary      Command a group
// @Description  Moves every actor whose group ID matches
// @Tags         commands
// @Accept       json
// @Produce      json
// @Param        id       path      string                 true  "Group ID"
// @Param        request  body      types.PositionRequest  true  "Target position (0 closed, 100 open)"
// @Success      200      {object}  types.CommandResponse
// @Failure      400      {object}  types.ErrorResponse  "Invalid request"
// @Failure      404      {object}  types.ErrorResponse  "No actors in group"
// @Router       /groups/{id}/position [post]
// @Router       /groups/{id}/tilt [post]
// @Router       /groups/{id}/slat [post]
func (h *CommandsHandler) Group(kind device.Kind) gin.HandlerFunc {
	return func(c *gin.Context) {
		position, ok := h.position(c)
		if !ok {
			return
		}
		h.dispatch(c, device.Command{Scope: device.ScopeGroup, Target: c.Param("id"), Kind: kind, Value: position})
	}
}

// position reads and validates the {"position": n} body.
func (h *CommandsHandler) position(c *gin.Context) (int, bool) {
	raw, err := c.GetRawData()
	if err != nil || len(raw) == 0 {
		c.JSON(http.StatusBadRequest, types.ErrorResponse{
			Error:   "invalid_request",
			Message: "Invalid request body",
		})
		return 0, false
	}

	payload, err := h.validator.DecodeValid(schema.PositionRequest, raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, types.ErrorResponse{
			Error:   "validation_error",
			Message: err.Error(),
		})
		return 0, false
	}

	position, ok := schema.Int(payload, "position")
	if !ok {
		c.JSON(http.StatusBadRequest, types.ErrorResponse{
			Error:   "validation_error",
			Message: device.ErrInvalidPosition.Error(),
		})
		return 0, false
	}
	return position, true
}

func (h *CommandsHandler) dispatch(c *gin.Context, cmd device.Command) {
	count, err := h.controller.Apply(c.Request.Context(), cmd)
	if err != nil {
		respondError(c, err)
		return
	}

	resp := types.CommandResponse{Status: types.StatusSuccess}
	switch cmd.Scope {
	case device.ScopeActor:
		h.hub.BroadcastAfter(SingleSettle)
	case device.ScopeGroup:
		resp.Count, resp.Group = count, cmd.Target
		h.hub.BroadcastAfter(BulkSettle)
	default:
		resp.Count = count
		h.hub.BroadcastAfter(BulkSettle)
	}
	c.JSON(http.StatusOK, resp)
}

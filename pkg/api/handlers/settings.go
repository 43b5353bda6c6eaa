package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"github.com/urmzd/shadepanel/pkg/api/types"
	"github.com/urmzd/shadepanel/pkg/db"
	"github.com/urmzd/shadepanel/pkg/device/schema"
	"github.com/urmzd/shadepanel/pkg/panel"
)

// SettingsHandler handles panel preference endpoints
type SettingsHandler struct {
	prefs     db.PreferenceStore
	profileID int64
	validator *schema.Validator
	onChange  func(*db.Preferences)
}

// NewSettingsHandler creates a new settings handler. onChange, if set, is
// called after preferences are saved.
func NewSettingsHandler(prefs db.PreferenceStore, profileID int64, validator *schema.Validator, onChange func(*db.Preferences)) *SettingsHandler {
	return &SettingsHandler{prefs: prefs, profileID: profileID, validator: validator, onChange: onChange}
}

// GetSettings handles GET /api/settings
// @Summary      Get panel settings
// @Description  Returns the panel settings. When no safe mode is saved, safeMode is derived from the caller's User-Agent (on for phones and tablets).
// @Tags         settings
// @Produce      json
// @Success      200  {object}  types.SettingsResponse
// @Failure      500  {object}  types.ErrorResponse  "Database error"
// @Router       /settings [get]
func (h *SettingsHandler) GetSettings(c *gin.Context) {
	prefs, err := h.prefs.Get(c.Request.Context(), h.profileID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, types.ErrorResponse{
			Error:   "database_error",
			Message: err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, settingsResponse(prefs, c.GetHeader("User-Agent")))
}

// UpdateSettings handles PUT /api/settings
// @Summary      Update panel settings
// @Description  Saves panel settings. Omitted fields are unchanged; "safeMode": null restores the User-Agent default.
// @Tags         settings
// @Accept       json
// @Produce      json
// @Param        request  body      types.SettingsRequest  true  "Settings to change"
// @Success      200      {object}  types.SettingsResponse
// @Failure      400      {object}  types.ErrorResponse  "Invalid request"
// @Failure      500      {object}  types.ErrorResponse  "Database error"
// @Router       /settings [put]
func (h *SettingsHandler) UpdateSettings(c *gin.Context) {
	ctx := c.Request.Context()

	raw, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusBadRequest, types.ErrorResponse{
			Error:   "invalid_request",
			Message: "Invalid request body",
		})
		return
	}

	payload, err := h.validator.DecodeValid(schema.Settings, raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, types.ErrorResponse{
			Error:   "validation_error",
			Message: err.Error(),
		})
		return
	}

	var req types.SettingsRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		c.JSON(http.StatusBadRequest, types.ErrorResponse{
			Error:   "invalid_request",
			Message: err.Error(),
		})
		return
	}

	prefs, err := h.prefs.Get(ctx, h.profileID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, types.ErrorResponse{
			Error:   "database_error",
			Message: err.Error(),
		})
		return
	}

	if _, ok := payload["safeMode"]; ok {
		prefs.SafeMode = req.SafeMode
	}
	if req.ConfirmTimeoutMs != nil {
		prefs.ConfirmTimeout = time.Duration(*req.ConfirmTimeoutMs) * time.Millisecond
	}
	if req.OptimizeTilt != nil {
		prefs.OptimizeTilt = *req.OptimizeTilt
	}
	if req.PollIntervalMs != nil {
		prefs.PollInterval = time.Duration(*req.PollIntervalMs) * time.Millisecond
	}

	if err := h.prefs.Save(ctx, prefs); err != nil {
		c.JSON(http.StatusInternalServerError, types.ErrorResponse{
			Error:   "database_error",
			Message: err.Error(),
		})
		return
	}
	log.Info().
		Interface("safe_mode", prefs.SafeMode).
		Dur("confirm_timeout", prefs.ConfirmTimeout).
		Bool("optimize_tilt", prefs.OptimizeTilt).
		Msg("Settings saved")

	if h.onChange != nil {
		h.onChange(prefs)
	}
	c.JSON(http.StatusOK, settingsResponse(prefs, c.GetHeader("User-Agent")))
}

func settingsResponse(prefs *db.Preferences, userAgent string) types.SettingsResponse {
	safe := panel.MobileUserAgent(userAgent)
	if prefs.SafeMode != nil {
		safe = *prefs.SafeMode
	}
	return types.SettingsResponse{
		SafeMode:         safe,
		SafeModeSaved:    prefs.SafeMode,
		ConfirmTimeoutMs: prefs.ConfirmTimeout.Milliseconds(),
		OptimizeTilt:     prefs.OptimizeTilt,
		PollIntervalMs:   prefs.PollInterval.Milliseconds(),
	}
}

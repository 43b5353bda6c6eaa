package types

import (
	"time"
)

// --- Request DTOs ---

// PositionRequest is the request body for every position, tilt and slat command
type PositionRequest struct {
	Position int `json:"position" example:"50"`
}

// SettingsRequest is the request body for PUT /api/settings. Omitted fields
// keep their current value; a null safeMode means "derive from the client".
type SettingsRequest struct {
	SafeMode         *bool `json:"safeMode"`
	ConfirmTimeoutMs *int  `json:"confirmTimeoutMs,omitempty"`
	OptimizeTilt     *bool `json:"optimizeTilt,omitempty"`
	PollIntervalMs   *int  `json:"pollIntervalMs,omitempty"`
}

// --- Response DTOs ---

// ErrorResponse represents an API error
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// HealthResponse is returned from GET /api/health
type HealthResponse struct {
	Status     string    `json:"status"`
	Goroutines int       `json:"goroutines"`
	Actors     int       `json:"actors"`
	SSEClients int       `json:"sse_clients"`
	Timestamp  time.Time `json:"timestamp"`
}

// CommandResponse is returned from every command endpoint. Count and Group
// are set for bulk and group commands.
type CommandResponse struct {
	Status string `json:"status"`
	Count  int    `json:"count,omitempty"`
	Group  string `json:"group,omitempty"`
}

// SettingsResponse is returned from GET/PUT /api/settings
type SettingsResponse struct {
	SafeMode         bool  `json:"safeMode"`
	SafeModeSaved    *bool `json:"safeModeSaved"`
	ConfirmTimeoutMs int64 `json:"confirmTimeoutMs"`
	OptimizeTilt     bool  `json:"optimizeTilt"`
	PollIntervalMs   int64 `json:"pollIntervalMs"`
}

// StatusSuccess is the status of a command that was dispatched
const StatusSuccess = "success"

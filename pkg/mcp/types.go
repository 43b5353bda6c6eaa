package mcp

import "github.com/urmzd/shadepanel/pkg/device"

// --- Health Tool ---

// GetHealthOutput is the output for the get_health tool
type GetHealthOutput struct {
	Status    string `json:"status" jsonschema:"description=ok or degraded"`
	Connected bool   `json:"connected" jsonschema:"description=Whether the live-state feed is up"`
	Actors    int    `json:"actors" jsonschema:"description=Number of known actors"`
	Busy      bool   `json:"busy" jsonschema:"description=Whether a command is in flight"`
	Timestamp string `json:"timestamp" jsonschema:"description=ISO8601 timestamp"`
}

// --- Actor and Group Tools ---

// ListActorsOutput is the output for the list_actors tool
type ListActorsOutput struct {
	Actors []device.ActorStatus `json:"actors" jsonschema:"description=Actors ordered by rank, then name"`
	Count  int                  `json:"count" jsonschema:"description=Total number of actors"`
}

// GroupSummary represents a group in tool outputs
type GroupSummary struct {
	GroupID         string   `json:"groupId" jsonschema:"description=Group identifier"`
	Name            string   `json:"name" jsonschema:"description=Group name"`
	ActorCount      int      `json:"actorCount" jsonschema:"description=Number of actors in the group"`
	AveragePosition int      `json:"averagePosition" jsonschema:"description=Rounded mean position of the members"`
	HasBlinds       bool     `json:"hasBlinds" jsonschema:"description=Whether tilt and slat actions apply"`
	Actors          []string `json:"actors" jsonschema:"description=Member actor names"`
}

// ListGroupsOutput is the output for the list_groups tool
type ListGroupsOutput struct {
	Groups []GroupSummary `json:"groups" jsonschema:"description=Groups ordered by id"`
	Count  int            `json:"count" jsonschema:"description=Total number of groups"`
}

// ListActionsOutput is the output for the list_actions tool
type ListActionsOutput struct {
	Scope   string   `json:"scope"`
	Actions []string `json:"actions" jsonschema:"description=Action ids; N stands for an integer from 0 to 100"`
}

// --- Tap Tool ---

// TapOutput is the output for the tap tool
type TapOutput struct {
	Scope   string `json:"scope" jsonschema:"description=Scope the tap was registered in"`
	Action  string `json:"action" jsonschema:"description=Action id"`
	Outcome string `json:"outcome" jsonschema:"description=pending or executed"`
	Message string `json:"message" jsonschema:"description=Human readable result"`
}

// PendingOutput is the output for the pending and clear_pending tools
type PendingOutput struct {
	Pending map[string]string `json:"pending" jsonschema:"description=Armed action id by scope"`
}

// --- Safe Mode Tools ---

// SafeModeOutput is the output for the get_safe_mode and set_safe_mode tools
type SafeModeOutput struct {
	Enabled          bool  `json:"enabled" jsonschema:"description=Whether taps need confirmation"`
	ConfirmTimeoutMs int64 `json:"confirmTimeoutMs" jsonschema:"description=Confirmation window in milliseconds"`
}

func groupSummaries(groups []device.GroupInfo) []GroupSummary {
	out := make([]GroupSummary, 0, len(groups))
	for _, g := range groups {
		names := make([]string, 0, len(g.Actors))
		for _, a := range g.Actors {
			names = append(names, a.Name)
		}
		out = append(out, GroupSummary{
			GroupID:         g.GroupID,
			Name:            g.Name,
			ActorCount:      g.ActorCount,
			AveragePosition: g.AveragePosition(),
			HasBlinds:       g.HasBlinds(),
			Actors:          names,
		})
	}
	return out
}

package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/urmzd/shadepanel/pkg/confirm"
	"github.com/urmzd/shadepanel/pkg/panel"
)

func (s *Server) handleGetHealth(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	status := "ok"
	if !s.panel.Connected() {
		status = "degraded"
	}

	out := GetHealthOutput{
		Status:    status,
		Connected: s.panel.Connected(),
		Actors:    len(s.panel.Actors()),
		Busy:      s.panel.Busy(),
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
	return mcp.NewToolResultText(formatJSON(out)), nil
}

func (s *Server) handleListActors(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	actors := s.panel.Actors()
	out := ListActorsOutput{
		Actors: actors,
		Count:  len(actors),
	}
	return mcp.NewToolResultText(formatJSON(out)), nil
}

func (s *Server) handleListGroups(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	groups := groupSummaries(s.panel.Groups())
	out := ListGroupsOutput{
		Groups: groups,
		Count:  len(groups),
	}
	return mcp.NewToolResultText(formatJSON(out)), nil
}

func (s *Server) handleListActions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	kind := optionalString(request, "scope")
	scope, err := panel.ParseScope(kind, "-")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out := ListActionsOutput{
		Scope:   string(scope.Kind),
		Actions: panel.Actions(scope),
	}
	if scope == panel.Global() {
		out.Scope = "global"
	}
	return mcp.NewToolResultText(formatJSON(out)), nil
}

func (s *Server) handleTap(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	kind, err := requiredString(request, "scope")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	action, err := requiredString(request, "action")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	scope, err := panel.ParseScope(kind, optionalString(request, "id"))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	outcome, err := s.panel.Tap(ctx, scope, action)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("tap %s in %s failed: %s", action, scope, err)), nil
	}

	out := TapOutput{
		Scope:   scope.String(),
		Action:  action,
		Outcome: outcome.String(),
	}
	switch outcome {
	case confirm.Pending:
		out.Message = fmt.Sprintf("Tap %s again within %s to confirm", action, s.panel.Timeout())
	default:
		out.Message = fmt.Sprintf("Sent %s", action)
	}
	return mcp.NewToolResultText(formatJSON(out)), nil
}

func (s *Server) handlePending(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(formatJSON(PendingOutput{Pending: s.panel.PendingAll()})), nil
}

func (s *Server) handleClearPending(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	kind := optionalString(request, "scope")
	if kind == "" {
		s.panel.ClearAll()
	} else {
		scope, err := panel.ParseScope(kind, optionalString(request, "id"))
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		s.panel.Clear(scope)
	}
	return mcp.NewToolResultText(formatJSON(PendingOutput{Pending: s.panel.PendingAll()})), nil
}

func (s *Server) handleGetSafeMode(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(formatJSON(s.safeModeOutput())), nil
}

func (s *Server) handleSetSafeMode(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	v, ok := request.GetArguments()["enabled"]
	if !ok {
		return mcp.NewToolResultError(`required parameter "enabled" is missing`), nil
	}
	enabled, ok := v.(bool)
	if !ok {
		return mcp.NewToolResultError(`parameter "enabled" must be a boolean`), nil
	}

	s.panel.SetSafeMode(enabled)
	return mcp.NewToolResultText(formatJSON(s.safeModeOutput())), nil
}

func (s *Server) safeModeOutput() SafeModeOutput {
	return SafeModeOutput{
		Enabled:          s.panel.SafeMode(),
		ConfirmTimeoutMs: s.panel.Timeout().Milliseconds(),
	}
}

// --- helpers ---

func requiredString(request mcp.CallToolRequest, key string) (string, error) {
	args := request.GetArguments()
	v, ok := args[key]
	if !ok || v == nil {
		return "", fmt.Errorf("required parameter %q is missing", key)
	}
	s, ok := v.(string)
	if !ok || s == "" {
		return "", fmt.Errorf("parameter %q must be a non-empty string", key)
	}
	return s, nil
}

func optionalString(request mcp.CallToolRequest, key string) string {
	s, _ := request.GetArguments()[key].(string)
	return s
}

func formatJSON(v any) string {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Sprintf(`{"error":"failed to marshal response: %s"}`, err)
	}
	return string(b)
}

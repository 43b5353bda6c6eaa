package mcp

import "github.com/mark3labs/mcp-go/mcp"

// registerTools registers all MCP tools with the server
func (s *Server) registerTools() {
	s.mcpServer.AddTool(
		mcp.NewTool("get_health",
			mcp.WithDescription("Check whether the panel is receiving live state from the control service"),
		),
		s.handleGetHealth,
	)

	s.mcpServer.AddTool(
		mcp.NewTool("list_actors",
			mcp.WithDescription("List all blinds and roller shutters with their position (0 closed, 100 open) and tilt state"),
		),
		s.handleListActors,
	)

	s.mcpServer.AddTool(
		mcp.NewTool("list_groups",
			mcp.WithDescription("List actor groups with their member count and average position"),
		),
		s.handleListGroups,
	)

	s.mcpServer.AddTool(
		mcp.NewTool("list_actions",
			mcp.WithDescription("List the action ids accepted by the tap tool for a scope"),
			mcp.WithString("scope",
				mcp.Description("global, group or actor (default global)"),
				mcp.Enum("global", "group", "actor"),
			),
		),
		s.handleListActions,
	)

	s.mcpServer.AddTool(
		mcp.NewTool("tap",
			mcp.WithDescription("Tap a panel button. With safe mode on, the first tap arms the action and a second tap on the same action within the confirmation window executes it; tapping a different action in the same scope discards the armed one."),
			mcp.WithString("scope",
				mcp.Required(),
				mcp.Description("Panel region: global, group or actor"),
				mcp.Enum("global", "group", "actor"),
			),
			mcp.WithString("id",
				mcp.Description("Group id or actor name (not used for the global scope)"),
			),
			mcp.WithString("action",
				mcp.Required(),
				mcp.Description("Action id, e.g. close-all, open-all, tilt-all-half, pos-all-50 (global) or pos-20, tilt-on, slat-50 (group/actor)"),
			),
		),
		s.handleTap,
	)

	s.mcpServer.AddTool(
		mcp.NewTool("pending",
			mcp.WithDescription("Show the actions awaiting a confirming tap, by scope"),
		),
		s.handlePending,
	)

	s.mcpServer.AddTool(
		mcp.NewTool("clear_pending",
			mcp.WithDescription("Drop armed actions without executing them. Without a scope every armed action is dropped."),
			mcp.WithString("scope",
				mcp.Description("global, group or actor"),
				mcp.Enum("global", "group", "actor"),
			),
			mcp.WithString("id",
				mcp.Description("Group id or actor name"),
			),
		),
		s.handleClearPending,
	)

	s.mcpServer.AddTool(
		mcp.NewTool("get_safe_mode",
			mcp.WithDescription("Report whether taps need confirmation, and the confirmation window"),
		),
		s.handleGetSafeMode,
	)

	s.mcpServer.AddTool(
		mcp.NewTool("set_safe_mode",
			mcp.WithDescription("Turn safe mode on or off. Any change drops every armed action."),
			mcp.WithBoolean("enabled",
				mcp.Required(),
				mcp.Description("true to require a confirming tap"),
			),
		),
		s.handleSetSafeMode,
	)
}

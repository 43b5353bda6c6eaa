package mcp

import (
	"github.com/mark3labs/mcp-go/server"
	"github.com/urmzd/shadepanel/pkg/panel"
)

// Server exposes the headless panel as MCP tools. Taps go through the same
// safe-mode confirmation a person at the wall panel would see.
type Server struct {
	mcpServer *server.MCPServer
	panel     *panel.Panel
}

// NewServer creates a new MCP server for p
func NewServer(p *panel.Panel) *Server {
	s := &Server{panel: p}

	s.mcpServer = server.NewMCPServer(
		"shadepanel",
		"1.0.0",
		server.WithToolCapabilities(true),
	)

	s.registerTools()

	return s
}

// ServeStdio starts the MCP server using stdio transport
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

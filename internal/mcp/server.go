// Package mcp exposes the knowledge store over the Model Context Protocol.
// Only three meta-tools are registered; the actual store operations are
// reached through execute_tool, keeping the advertised surface constant as
// tools are added.
package mcp

import (
	"github.com/mark3labs/mcp-go/server"

	"github.com/ziadkadry99/knowstore/internal/dispatch"
)

// Version is set via ldflags at build time.
var Version = "dev"

// Server wraps an MCP server fronting the tool dispatcher.
type Server struct {
	dispatcher *dispatch.Dispatcher
	mcp        *server.MCPServer
}

// NewServer creates a new MCP server over the given dispatcher.
func NewServer(d *dispatch.Dispatcher) *Server {
	s := &Server{dispatcher: d}

	s.mcp = server.NewMCPServer(
		"knowstore",
		Version,
		server.WithToolCapabilities(false),
	)

	s.registerTools()

	return s
}

// registerTools adds the three meta-tools and their handlers.
func (s *Server) registerTools() {
	s.mcp.AddTool(discoverToolsTool, s.handleDiscoverTools)
	s.mcp.AddTool(getToolSpecTool, s.handleGetToolSpec)
	s.mcp.AddTool(executeToolTool, s.handleExecuteTool)
}

// Serve starts the MCP server on stdio. Stdout is used for MCP protocol
// messages; all logging must go to stderr.
func (s *Server) Serve() error {
	return server.ServeStdio(s.mcp)
}

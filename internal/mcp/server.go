// Package mcp exposes one user's measurements to AI agents over the Model
// Context Protocol.
package mcp

import (
	"context"
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/tomislavmiksik/phoenix-be/internal/model"
	"github.com/tomislavmiksik/phoenix-be/internal/service"
)

// ProfileSource looks up the account the server acts for.
type ProfileSource interface {
	FindUserByUsername(ctx context.Context, username string) (*model.User, error)
}

// MCPServer wraps the mcp-go server with phoenix tool and resource
// registrations. Every tool acts on behalf of a single user fixed at
// construction.
type MCPServer struct {
	measurements service.MeasurementManager
	users        ProfileSource
	username     string
	logger       *slog.Logger
	server       *server.MCPServer
}

// NewMCPServer creates an MCPServer for username, pre-loaded with all tools
// and resources. The returned server is ready to serve over stdio or HTTP.
func NewMCPServer(measurements service.MeasurementManager, users ProfileSource, username, version string, logger *slog.Logger) *MCPServer {
	s := &MCPServer{
		measurements: measurements,
		users:        users,
		username:     username,
		logger:       logger,
	}

	mcpServer := server.NewMCPServer(
		"Phoenix Measurements",
		version,
		server.WithResourceCapabilities(true, false),
		server.WithToolCapabilities(true),
	)

	s.registerTools(mcpServer)
	s.registerResources(mcpServer)

	s.server = mcpServer
	return s
}

// Server returns the underlying mcp-go MCPServer instance.
func (s *MCPServer) Server() *server.MCPServer {
	return s.server
}

// ServeStdio starts the MCP server in stdio mode, the usual integration path
// for desktop MCP clients that launch the server as a subprocess.
func (s *MCPServer) ServeStdio() error {
	s.logger.Info("starting MCP server in stdio mode", "user", s.username)
	return server.ServeStdio(s.server)
}

// ServeHTTP starts the MCP server in Streamable HTTP mode, listening on
// the given address (e.g. ":3001").
func (s *MCPServer) ServeHTTP(addr string) error {
	httpServer := server.NewStreamableHTTPServer(s.server)
	s.logger.Info("MCP HTTP server starting", "addr", addr, "user", s.username)
	return httpServer.Start(addr)
}

func readOnlyAnnotation() mcp.ToolAnnotation {
	return mcp.ToolAnnotation{
		ReadOnlyHint: boolPtr(true),
	}
}

func mutatingAnnotation() mcp.ToolAnnotation {
	return mcp.ToolAnnotation{
		ReadOnlyHint:    boolPtr(false),
		DestructiveHint: boolPtr(false),
	}
}

func destructiveAnnotation() mcp.ToolAnnotation {
	return mcp.ToolAnnotation{
		ReadOnlyHint:    boolPtr(false),
		DestructiveHint: boolPtr(true),
	}
}

func boolPtr(b bool) *bool {
	return &b
}

package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"jsonload/internal/logging"
	"jsonload/internal/service"
)

// notificationPrefix namespaces load events sent to MCP clients.
const notificationPrefix = "notifications/jsonload/"

// Server is the MCP server for jsonload.
// It exposes the loader as tools so AI agents can load JSON into tables.
type Server struct {
	mcp    *server.MCPServer
	loads  *service.LoadService
	logger logging.Logger
}

// Deps holds the optional dependencies of the MCP server.
type Deps struct {
	Logger  logging.Logger
	Connect service.ConnectorFactory // nil uses dbclient.NewConnector
	Version string
}

// New creates and configures a new MCP server with all tools and resources.
func New(deps Deps) *Server {
	logger := deps.Logger
	if logger == nil {
		logger = logging.NullLogger{}
	}
	version := deps.Version
	if version == "" {
		version = "dev"
	}

	s := &Server{logger: logger}
	s.loads = service.NewLoadService(logger, s)
	if deps.Connect != nil {
		s.loads.WithConnectorFactory(deps.Connect)
	}

	s.mcp = server.NewMCPServer(
		"jsonload",
		version,
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(true, false),
	)

	s.registerLoadTools()
	s.registerResources()

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	s.logger.Verbose("mcp: starting stdio server")
	return server.ServeStdio(s.mcp)
}

// Emit forwards load events to every connected client.
func (s *Server) Emit(_ context.Context, event string, data any) {
	params := map[string]any{}
	if raw, err := json.Marshal(data); err == nil {
		_ = json.Unmarshal(raw, &params)
	}
	s.mcp.SendNotificationToAllClients(notificationPrefix+event, params)
}

// ── Helpers ────────────────────────────────────────────────

// textResult creates a simple text tool result.
func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: text},
		},
	}
}

// jsonResult serializes v to JSON and wraps it in a text tool result.
func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal result: %w", err)
	}
	return textResult(string(data)), nil
}

// errorResult reports a failed operation to the agent as a tool error
// rather than a protocol error.
func errorResult(err error) *mcp.CallToolResult {
	res := textResult(err.Error())
	res.IsError = true
	return res
}

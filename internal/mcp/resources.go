package mcpserver

import (
	"context"
	"encoding/json"

	"github.com/mark3labs/mcp-go/mcp"

	"jsonload/internal/etl"
)

const sourcesURI = "jsonload://sources"

func (s *Server) registerResources() {
	// ── jsonload://sources ─────────────────────────────
	s.mcp.AddResource(mcp.NewResource(
		sourcesURI,
		"Input formats",
		mcp.WithResourceDescription("Registered JSON input formats and their options"),
		mcp.WithMIMEType("application/json"),
	), s.handleSourcesResource)
}

func (s *Server) handleSourcesResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	data, err := json.MarshalIndent(etl.ListSources(), "", "  ")
	if err != nil {
		return nil, err
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      sourcesURI,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}

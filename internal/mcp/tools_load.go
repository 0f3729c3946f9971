package mcpserver

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"jsonload/internal/service"
)

const previewRows = 10

func (s *Server) registerLoadTools() {
	s.mcp.AddTool(mcp.NewTool("load_json",
		mcp.WithDescription("Load a JSON file of records into a database table, creating the table if absent. Appends by default; mode=replace drops and recreates the table."),
		mcp.WithString("jsonPath", mcp.Description("Path to the JSON file"), mcp.Required()),
		mcp.WithString("db", mcp.Description("SQLite file path, or a postgres://, mysql:// or mongodb:// URL"), mcp.Required()),
		mcp.WithString("table", mcp.Description("Target table (collection for MongoDB)"), mcp.Required()),
		mcp.WithString("format", mcp.Description("object (default): {key: {col: value}}; array: [{col: value}]")),
		mcp.WithString("nested", mcp.Description("reject (default) or json: store nested objects/arrays as JSON text")),
		mcp.WithString("mode", mcp.Description("append (default) or replace")),
		mcp.WithString("keyColumn", mcp.Description("Store the outer key under this column (optional)")),
		mcp.WithString("columns", mcp.Description("Comma-separated columns to keep (optional)")),
		mcp.WithString("renames", mcp.Description("Comma-separated old=new column renames (optional)")),
		mcp.WithToolAnnotation(mcp.ToolAnnotation{DestructiveHint: boolPtr(true)}),
	), s.handleLoadJSON)

	s.mcp.AddTool(mcp.NewTool("preview_json",
		mcp.WithDescription("Validate a JSON file and show the inferred columns and the first rows, without touching any database"),
		mcp.WithString("jsonPath", mcp.Description("Path to the JSON file"), mcp.Required()),
		mcp.WithString("format", mcp.Description("object (default) or array")),
		mcp.WithString("nested", mcp.Description("reject (default) or json")),
		mcp.WithString("keyColumn", mcp.Description("Store the outer key under this column (optional)")),
		mcp.WithToolAnnotation(mcp.ToolAnnotation{ReadOnlyHint: boolPtr(true)}),
	), s.handlePreviewJSON)

	s.mcp.AddTool(mcp.NewTool("describe_table",
		mcp.WithDescription("Show the declared columns of a table"),
		mcp.WithString("db", mcp.Description("SQLite file path, or a postgres://, mysql:// or mongodb:// URL"), mcp.Required()),
		mcp.WithString("table", mcp.Description("Table name"), mcp.Required()),
		mcp.WithToolAnnotation(mcp.ToolAnnotation{ReadOnlyHint: boolPtr(true)}),
	), s.handleDescribeTable)

	s.mcp.AddTool(mcp.NewTool("list_tables",
		mcp.WithDescription("List the tables of a database with their columns"),
		mcp.WithString("db", mcp.Description("SQLite file path, or a postgres://, mysql:// or mongodb:// URL"), mcp.Required()),
		mcp.WithToolAnnotation(mcp.ToolAnnotation{ReadOnlyHint: boolPtr(true)}),
	), s.handleListTables)
}

func loadInputFromRequest(req mcp.CallToolRequest) service.LoadInput {
	return service.LoadInput{
		JSONPath:  req.GetString("jsonPath", ""),
		DB:        req.GetString("db", ""),
		Table:     req.GetString("table", ""),
		Format:    req.GetString("format", ""),
		Nested:    req.GetString("nested", ""),
		Mode:      req.GetString("mode", ""),
		KeyColumn: req.GetString("keyColumn", ""),
		Columns:   splitList(req.GetString("columns", "")),
		Renames:   splitList(req.GetString("renames", "")),
	}
}

func (s *Server) handleLoadJSON(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	in := loadInputFromRequest(req)
	if in.JSONPath == "" || in.DB == "" || in.Table == "" {
		return nil, fmt.Errorf("jsonPath, db and table are required")
	}

	result, err := s.loads.Run(ctx, in)
	if err != nil {
		return errorResult(err), nil
	}
	return jsonResult(result)
}

func (s *Server) handlePreviewJSON(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	in := loadInputFromRequest(req)
	if in.JSONPath == "" {
		return nil, fmt.Errorf("jsonPath is required")
	}

	preview, err := s.loads.Preview(ctx, in, previewRows)
	if err != nil {
		return errorResult(err), nil
	}
	return jsonResult(preview)
}

func (s *Server) handleDescribeTable(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	db := req.GetString("db", "")
	table := req.GetString("table", "")
	if db == "" || table == "" {
		return nil, fmt.Errorf("db and table are required")
	}

	info, err := s.loads.Describe(ctx, db, table)
	if err != nil {
		return errorResult(err), nil
	}
	if info == nil {
		return textResult(fmt.Sprintf("table %q does not exist", table)), nil
	}
	return jsonResult(info)
}

func (s *Server) handleListTables(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	db := req.GetString("db", "")
	if db == "" {
		return nil, fmt.Errorf("db is required")
	}

	schema, err := s.loads.Tables(ctx, db)
	if err != nil {
		return errorResult(err), nil
	}
	return jsonResult(schema)
}

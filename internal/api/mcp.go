package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/deidexdd-hash/numBase/internal/corpus"
	"github.com/deidexdd-hash/numBase/internal/kb"
)

// NewMCPServer exposes the knowledge base as MCP tools and resources so
// chat clients can calculate and search without the HTTP layer.
func NewMCPServer(base *kb.KnowledgeBase) *server.MCPServer {
	s := server.NewMCPServer(
		"numbase",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(false, true),
		server.WithInstructions("numbase: numerology calculation engine and document knowledge base."),
		server.WithRecovery(),
	)

	s.AddTool(
		mcp.NewTool("calculate",
			mcp.WithDescription("Run the full numerology calculation bundle for a birth date and optional name."),
			mcp.WithNumber("day", mcp.Description("Day of birth (1-31)"), mcp.Required()),
			mcp.WithNumber("month", mcp.Description("Month of birth (1-12)"), mcp.Required()),
			mcp.WithNumber("year", mcp.Description("Year of birth (1900-2100)"), mcp.Required()),
			mcp.WithString("name", mcp.Description("Full name for the destiny number, optional")),
		),
		mcpCalculate(base),
	)

	s.AddTool(
		mcp.NewTool("search_knowledge",
			mcp.WithDescription("Full-text search over the ingested document corpus."),
			mcp.WithString("query", mcp.Description("Search query"), mcp.Required()),
			mcp.WithNumber("limit", mcp.Description("Maximum number of results (default 5)")),
			mcp.WithString("category", mcp.Description("Restrict results to one category, optional")),
		),
		mcpSearch(base),
	)

	s.AddTool(
		mcp.NewTool("get_document",
			mcp.WithDescription("Fetch the full text of a document by its id."),
			mcp.WithNumber("id", mcp.Description("Document id"), mcp.Required()),
		),
		mcpGetDocument(base),
	)

	s.AddResource(
		mcp.NewResource(
			"catalogue://formulas",
			"Formula Catalogue",
			mcp.WithResourceDescription("All numerology formulas as JSON"),
			mcp.WithMIMEType("application/json"),
		),
		mcpResourceFormulas(base),
	)

	s.AddResource(
		mcp.NewResource(
			"kb://stats",
			"Knowledge Base Stats",
			mcp.WithResourceDescription("Catalogue and corpus counts as JSON"),
			mcp.WithMIMEType("application/json"),
		),
		mcpResourceStats(base),
	)

	return s
}

func mcpCalculate(base *kb.KnowledgeBase) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		day, err := req.RequireInt("day")
		if err != nil {
			return mcpError("day is required"), nil
		}
		month, err := req.RequireInt("month")
		if err != nil {
			return mcpError("month is required"), nil
		}
		year, err := req.RequireInt("year")
		if err != nil {
			return mcpError("year is required"), nil
		}
		name := req.GetString("name", "")

		bundle, err := base.CalculateAll(day, month, year, name)
		if err != nil {
			return mcpError(fmt.Sprintf("calculation failed: %v", err)), nil
		}

		b, err := json.Marshal(bundle)
		if err != nil {
			return mcpError(fmt.Sprintf("failed to marshal result: %v", err)), nil
		}
		return mcpText(string(b)), nil
	}
}

func mcpSearch(base *kb.KnowledgeBase) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		query, err := req.RequireString("query")
		if err != nil {
			return mcpError("query is required"), nil
		}

		limit := req.GetInt("limit", 5)
		if limit <= 0 {
			limit = 5
		}
		if limit > 50 {
			limit = 50
		}
		category := req.GetString("category", "")

		resp := base.Search(ctx, query, limit, category)
		b, err := json.Marshal(resp)
		if err != nil {
			return mcpError(fmt.Sprintf("failed to marshal results: %v", err)), nil
		}
		return mcpText(string(b)), nil
	}
}

func mcpGetDocument(base *kb.KnowledgeBase) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id, err := req.RequireInt("id")
		if err != nil {
			return mcpError("id is required"), nil
		}

		content, err := base.DocumentContent(int64(id))
		if errors.Is(err, corpus.ErrNotFound) {
			return mcpError(fmt.Sprintf("document %d not found", id)), nil
		}
		if errors.Is(err, kb.ErrStoreUnavailable) {
			return mcpError("document store unavailable"), nil
		}
		if err != nil {
			return mcpError(fmt.Sprintf("failed to load document: %v", err)), nil
		}
		return mcpText(content), nil
	}
}

func mcpResourceFormulas(base *kb.KnowledgeBase) server.ResourceHandlerFunc {
	return func(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		b, err := json.Marshal(base.Catalogue().Formulas())
		if err != nil {
			return nil, fmt.Errorf("failed to marshal formulas: %w", err)
		}
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      req.Params.URI,
				MIMEType: "application/json",
				Text:     string(b),
			},
		}, nil
	}
}

func mcpResourceStats(base *kb.KnowledgeBase) server.ResourceHandlerFunc {
	return func(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		b, err := json.Marshal(base.Stats())
		if err != nil {
			return nil, fmt.Errorf("failed to marshal stats: %w", err)
		}
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      req.Params.URI,
				MIMEType: "application/json",
				Text:     string(b),
			},
		}, nil
	}
}

func mcpText(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: text},
		},
	}
}

func mcpError(msg string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: msg},
		},
		IsError: true,
	}
}

package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/openchamber/hive/internal/hive"
	"github.com/openchamber/hive/internal/index"
)

// SearchTool handles the hive_search MCP tool: full-text search over
// plans, task specs/reports, and context files.
type SearchTool struct {
	store *hive.Store
	idx   *index.Index
}

// NewSearchTool creates a SearchTool. The index may be nil when the
// search subsystem failed to initialize; the tool then reports search
// as unavailable instead of failing registration.
func NewSearchTool(store *hive.Store, idx *index.Index) *SearchTool {
	return &SearchTool{store: store, idx: idx}
}

// Definition returns the MCP tool definition for registration.
func (t *SearchTool) Definition() mcp.Tool {
	return mcp.NewTool("hive_search",
		mcp.WithDescription(
			"Full-text search across all hive documents: plans, task specs, task "+
				"reports, and context files. Returns ranked snippets.",
		),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("Search terms."),
		),
		mcp.WithNumber("limit",
			mcp.Description("Maximum number of results (default 10)."),
		),
		mcp.WithString("directory",
			mcp.Description("Project directory. Defaults to the current working directory."),
		),
	)
}

// Handle processes the hive_search tool call.
func (t *SearchTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if t.idx == nil {
		return mcp.NewToolResultError("Search is unavailable: the index failed to initialize."), nil
	}

	query := req.GetString("query", "")
	if strings.TrimSpace(query) == "" {
		return mcp.NewToolResultError("query is required"), nil
	}
	limit := intArg(req, "limit", 10)

	root, found, err := requireRoot(req)
	if err != nil {
		return nil, err
	}
	if !found {
		return noHiveResult(), nil
	}

	if err := t.idx.Rebuild(root, t.store); err != nil {
		return nil, fmt.Errorf("rebuilding index: %w", err)
	}
	results, err := t.idx.Search(query, limit)
	if err != nil {
		return nil, fmt.Errorf("searching: %w", err)
	}

	if len(results) == 0 {
		return mcp.NewToolResultText(fmt.Sprintf("No matches for %q.", query)), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# Search Results for %q\n\n", query)
	for _, r := range results {
		location := r.Kind
		if r.Name != "" {
			location = fmt.Sprintf("%s `%s`", r.Kind, r.Name)
		}
		fmt.Fprintf(&b, "- **%s** (%s): %s\n", r.Feature, location, r.Snippet)
	}
	return mcp.NewToolResultText(b.String()), nil
}

package tools

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/openchamber/hive/internal/hive"
)

// ContextWriteTool handles the hive_context_write MCP tool. Context
// files are free-form Markdown notes attached to a feature.
type ContextWriteTool struct {
	store *hive.Store
}

// NewContextWriteTool creates a ContextWriteTool with the given store.
func NewContextWriteTool(store *hive.Store) *ContextWriteTool {
	return &ContextWriteTool{store: store}
}

// Definition returns the MCP tool definition for registration.
func (t *ContextWriteTool) Definition() mcp.Tool {
	return mcp.NewTool("hive_context_write",
		mcp.WithDescription(
			"Write (or overwrite) a context file for a feature. Context files hold "+
				"research notes, constraints, and discoveries that inform the plan "+
				"and the tasks. Use Markdown filenames like research.md.",
		),
		mcp.WithString("feature",
			mcp.Required(),
			mcp.Description("Feature folder name (the slug)."),
		),
		mcp.WithString("name",
			mcp.Required(),
			mcp.Description("Context file name, e.g. research.md."),
		),
		mcp.WithString("content",
			mcp.Required(),
			mcp.Description("Full Markdown content of the context file."),
		),
		mcp.WithString("directory",
			mcp.Description("Project directory. Defaults to the current working directory."),
		),
	)
}

// Handle processes the hive_context_write tool call.
func (t *ContextWriteTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	feature := req.GetString("feature", "")
	name := req.GetString("name", "")
	if feature == "" || name == "" {
		return mcp.NewToolResultError("feature and name are required"), nil
	}
	content, err := req.RequireString("content")
	if err != nil {
		return mcp.NewToolResultError("content is required"), nil
	}

	root, found, err := requireRoot(req)
	if err != nil {
		return nil, err
	}
	if !found {
		return noHiveResult(), nil
	}

	if _, err := t.store.GetFeature(root, feature); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Feature %q not found: %v", feature, err)), nil
	}
	if err := t.store.WriteContextFile(root, feature, name, content); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Could not write context file: %v", err)), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf("Context file `%s` saved for feature `%s`.", name, feature)), nil
}

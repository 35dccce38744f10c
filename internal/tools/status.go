package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/openchamber/hive/internal/hive"
)

// StatusTool handles the hive_status MCP tool. It reports whether a
// hive exists, which feature is active, and a per-feature progress
// table.
type StatusTool struct {
	store *hive.Store
}

// NewStatusTool creates a StatusTool backed by the given store.
func NewStatusTool(store *hive.Store) *StatusTool {
	return &StatusTool{store: store}
}

// Definition returns the MCP tool definition for registration.
func (t *StatusTool) Definition() mcp.Tool {
	return mcp.NewTool("hive_status",
		mcp.WithDescription(
			"Show the state of the hive: whether one exists, the active feature, "+
				"and per-feature status with plan and task progress.",
		),
		mcp.WithString("directory",
			mcp.Description("Project directory to inspect. Defaults to the current working directory."),
		),
	)
}

// Handle processes the hive_status tool call.
func (t *StatusTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	dir, err := resolveDirectory(req)
	if err != nil {
		return nil, err
	}

	status := t.store.GetStatus(dir)
	if !status.Exists {
		return mcp.NewToolResultText(
			"No hive exists in this directory yet. Create the first feature with `hive_feature_create`."), nil
	}

	root, _ := hive.FindRoot(dir)
	summaries := t.store.ListFeatureSummaries(root)

	var b strings.Builder
	b.WriteString("# Hive Status\n\n")
	if status.ActiveFeature != "" {
		fmt.Fprintf(&b, "**Active feature:** `%s`\n\n", status.ActiveFeature)
	} else {
		b.WriteString("**Active feature:** none\n\n")
	}

	if len(summaries) == 0 {
		b.WriteString("No features yet.\n")
		return mcp.NewToolResultText(b.String()), nil
	}

	b.WriteString("| Feature | Status | Plan | Tasks | Comments |\n")
	b.WriteString("|---------|--------|------|-------|----------|\n")
	for _, s := range summaries {
		fmt.Fprintf(&b, "| %s | %s | %s | %d/%d done | %d |\n",
			s.Name, s.Status, s.PlanStatus,
			s.TaskCounts.Done, s.TaskCounts.Total, s.CommentCount)
	}

	return mcp.NewToolResultText(b.String()), nil
}

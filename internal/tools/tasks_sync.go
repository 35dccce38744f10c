package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/openchamber/hive/internal/hive"
)

// TasksSyncTool handles the hive_tasks_sync MCP tool, which
// materializes plan headings into task folders.
type TasksSyncTool struct {
	store *hive.Store
}

// NewTasksSyncTool creates a TasksSyncTool with the given store.
func NewTasksSyncTool(store *hive.Store) *TasksSyncTool {
	return &TasksSyncTool{store: store}
}

// Definition returns the MCP tool definition for registration.
func (t *TasksSyncTool) Definition() mcp.Tool {
	return mcp.NewTool("hive_tasks_sync",
		mcp.WithDescription(
			"Parse a feature's plan and create a task folder for every `### N. Title` "+
				"heading that does not have one yet. Existing task folders are never "+
				"touched, so syncing is safe to repeat after plan edits.",
		),
		mcp.WithString("feature",
			mcp.Required(),
			mcp.Description("Feature folder name (the slug)."),
		),
		mcp.WithString("directory",
			mcp.Description("Project directory. Defaults to the current working directory."),
		),
	)
}

// Handle processes the hive_tasks_sync tool call.
func (t *TasksSyncTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	feature := req.GetString("feature", "")
	if feature == "" {
		return mcp.NewToolResultError("feature is required"), nil
	}

	root, found, err := requireRoot(req)
	if err != nil {
		return nil, err
	}
	if !found {
		return noHiveResult(), nil
	}

	result, err := t.store.SyncTasks(root, feature)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Could not sync tasks: %v", err)), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Synced plan for `%s`: %d new task(s), %d total.\n", feature, result.Created, result.Total)
	if result.Total > 0 {
		b.WriteString("\n| Task | Status |\n|------|--------|\n")
		for _, task := range t.store.ListTasks(root, feature) {
			fmt.Fprintf(&b, "| %s | %s |\n", task.Folder, task.Status)
		}
	}
	return mcp.NewToolResultText(b.String()), nil
}

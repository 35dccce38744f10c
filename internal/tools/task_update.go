package tools

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/openchamber/hive/internal/hive"
)

// TaskUpdateTool handles the hive_task_update MCP tool, used by worker
// agents to report task progress.
type TaskUpdateTool struct {
	store *hive.Store
}

// NewTaskUpdateTool creates a TaskUpdateTool with the given store.
func NewTaskUpdateTool(store *hive.Store) *TaskUpdateTool {
	return &TaskUpdateTool{store: store}
}

// Definition returns the MCP tool definition for registration.
func (t *TaskUpdateTool) Definition() mcp.Tool {
	return mcp.NewTool("hive_task_update",
		mcp.WithDescription(
			"Update a task's status or summary. Statuses: pending, in_progress, done, "+
				"cancelled, blocked, failed, partial. The first move to in_progress "+
				"stamps startedAt; the first move to done stamps completedAt. "+
				"Timestamps are never overwritten by later updates.",
		),
		mcp.WithString("feature",
			mcp.Required(),
			mcp.Description("Feature folder name (the slug)."),
		),
		mcp.WithString("task",
			mcp.Required(),
			mcp.Description("Task folder name, e.g. 01-setup."),
		),
		mcp.WithString("status",
			mcp.Description("New task status."),
		),
		mcp.WithString("summary",
			mcp.Description("One-line summary of what the task did."),
		),
		mcp.WithString("directory",
			mcp.Description("Project directory. Defaults to the current working directory."),
		),
	)
}

// Handle processes the hive_task_update tool call.
func (t *TaskUpdateTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	feature := req.GetString("feature", "")
	folder := req.GetString("task", "")
	if feature == "" || folder == "" {
		return mcp.NewToolResultError("feature and task are required"), nil
	}

	var updates hive.TaskUpdate
	if status := req.GetString("status", ""); status != "" {
		s := hive.TaskStatus(status)
		updates.Status = &s
	}
	if summary := req.GetString("summary", ""); summary != "" {
		updates.Summary = &summary
	}
	if updates.Status == nil && updates.Summary == nil {
		return mcp.NewToolResultError("nothing to update: provide status and/or summary"), nil
	}

	root, found, err := requireRoot(req)
	if err != nil {
		return nil, err
	}
	if !found {
		return noHiveResult(), nil
	}

	rec, err := t.store.UpdateTask(root, feature, folder, updates)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Could not update task: %v", err)), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf("Task `%s/%s` is now %s.", feature, folder, rec.Status)), nil
}

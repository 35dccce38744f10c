package tools

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/openchamber/hive/internal/hive"
)

// PlanApproveTool handles the hive_plan_approve MCP tool.
type PlanApproveTool struct {
	store *hive.Store
}

// NewPlanApproveTool creates a PlanApproveTool with the given store.
func NewPlanApproveTool(store *hive.Store) *PlanApproveTool {
	return &PlanApproveTool{store: store}
}

// Definition returns the MCP tool definition for registration.
func (t *PlanApproveTool) Definition() mcp.Tool {
	return mcp.NewTool("hive_plan_approve",
		mcp.WithDescription(
			"Approve a feature's plan. Fails if no plan document exists or if review "+
				"comments are still open — resolve them first. Approval moves the "+
				"feature to the approved status.",
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

// Handle processes the hive_plan_approve tool call.
func (t *PlanApproveTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
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

	if comments := t.store.ListComments(root, feature); len(comments) > 0 {
		return mcp.NewToolResultError(fmt.Sprintf(
			"Plan for %q has %d unresolved review comments. Resolve them before approving.",
			feature, len(comments))), nil
	}

	if err := t.store.ApprovePlan(root, feature); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Could not approve plan: %v", err)), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf(
		"Plan for `%s` approved. Materialize its tasks with `hive_tasks_sync`.", feature)), nil
}

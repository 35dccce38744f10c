package tools

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/openchamber/hive/internal/hive"
)

// PlanWriteTool handles the hive_plan_write MCP tool.
type PlanWriteTool struct {
	store *hive.Store
}

// NewPlanWriteTool creates a PlanWriteTool with the given store.
func NewPlanWriteTool(store *hive.Store) *PlanWriteTool {
	return &PlanWriteTool{store: store}
}

// Definition returns the MCP tool definition for registration.
func (t *PlanWriteTool) Definition() mcp.Tool {
	return mcp.NewTool("hive_plan_write",
		mcp.WithDescription(
			"Write (or overwrite) a feature's plan document. Tasks are declared as "+
				"`### N. Title` headings; a task may declare dependencies with a "+
				"`**Depends on**: 1, 2` line under its heading. Editing the plan of an "+
				"approved feature revokes the approval and moves it back to planning.",
		),
		mcp.WithString("feature",
			mcp.Required(),
			mcp.Description("Feature folder name (the slug)."),
		),
		mcp.WithString("content",
			mcp.Required(),
			mcp.Description("Full Markdown content of the plan."),
		),
		mcp.WithString("directory",
			mcp.Description("Project directory. Defaults to the current working directory."),
		),
	)
}

// Handle processes the hive_plan_write tool call.
func (t *PlanWriteTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	feature := req.GetString("feature", "")
	if feature == "" {
		return mcp.NewToolResultError("feature is required"), nil
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

	if err := t.store.WritePlan(root, feature, content); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Could not write plan: %v", err)), nil
	}

	tasks := hive.ParsePlan(content)
	response := fmt.Sprintf(
		"Plan saved for `%s` (%d task headings found).\n\n"+
			"When the plan is ready, approve it with `hive_plan_approve` and "+
			"materialize tasks with `hive_tasks_sync`.",
		feature, len(tasks),
	)
	return mcp.NewToolResultText(response), nil
}

// Package prompts implements the MCP prompts exposed by hived. Prompts
// are canned instructions the host can offer the user; they carry no
// state of their own.
package prompts

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
)

// WorkflowPrompt handles the hive-workflow MCP prompt. It walks the AI
// through the plan, approve, sync, execute loop for a feature.
type WorkflowPrompt struct{}

// NewWorkflowPrompt creates a WorkflowPrompt.
func NewWorkflowPrompt() *WorkflowPrompt {
	return &WorkflowPrompt{}
}

// Definition returns the MCP prompt definition for registration.
func (p *WorkflowPrompt) Definition() mcp.Prompt {
	return mcp.NewPrompt("hive-workflow",
		mcp.WithPromptDescription(
			"Work a feature through the hive lifecycle: plan it, get the plan "+
				"approved, sync tasks, and execute them one by one.",
		),
		mcp.WithArgument("feature",
			mcp.ArgumentDescription("Feature to work on. If omitted, use the active feature."),
		),
	)
}

// Handle processes the hive-workflow prompt request.
func (p *WorkflowPrompt) Handle(ctx context.Context, req mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	feature := req.Params.Arguments["feature"]
	target := "the active feature"
	if feature != "" {
		target = "feature `" + feature + "`"
	}

	return &mcp.GetPromptResult{
		Description: "Hive Feature Workflow",
		Messages: []mcp.PromptMessage{
			{
				Role: mcp.RoleUser,
				Content: mcp.NewTextContent(
					"Please run `hive_status` to see the state of " + target + ".\n\n" +
						"Then work the feature through its lifecycle:\n" +
						"1. If there is no plan yet, discuss the feature with me and write one " +
						"with `hive_plan_write`. Declare each unit of work as a `### N. Title` " +
						"heading and express ordering with `**Depends on**:` lines.\n" +
						"2. Present the plan and ask me to review it. Address any comments I " +
						"leave before approving with `hive_plan_approve`.\n" +
						"3. Materialize tasks with `hive_tasks_sync`.\n" +
						"4. Execute tasks in dependency order. Mark each one in_progress with " +
						"`hive_task_update` before starting, and done (with a summary) when " +
						"finished.\n" +
						"5. When every task is done, set the feature to completed with " +
						"`hive_feature_status`.",
				),
			},
		},
	}, nil
}

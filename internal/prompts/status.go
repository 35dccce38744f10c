package prompts

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
)

// StatusPrompt handles the hive-status MCP prompt. It instructs the AI
// to read and present the current hive state.
type StatusPrompt struct{}

// NewStatusPrompt creates a StatusPrompt.
func NewStatusPrompt() *StatusPrompt {
	return &StatusPrompt{}
}

// Definition returns the MCP prompt definition for registration.
func (p *StatusPrompt) Definition() mcp.Prompt {
	return mcp.NewPrompt("hive-status",
		mcp.WithPromptDescription(
			"Check the current state of the hive: features, plans, task "+
				"progress, and what to do next.",
		),
	)
}

// Handle processes the hive-status prompt request.
func (p *StatusPrompt) Handle(ctx context.Context, req mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	return &mcp.GetPromptResult{
		Description: "Hive Status",
		Messages: []mcp.PromptMessage{
			{
				Role: mcp.RoleUser,
				Content: mcp.NewTextContent(
					"Please run `hive_status` to check the state of this project's hive.\n\n" +
						"Then:\n" +
						"1. Show me the features and their progress in a clear format\n" +
						"2. Point out features with unapproved plans or stalled tasks\n" +
						"3. Tell me exactly what I should do next",
				),
			},
		},
	}, nil
}

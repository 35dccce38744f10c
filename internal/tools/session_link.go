package tools

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/openchamber/hive/internal/hive"
)

// SessionLinkTool handles the hive_session_link MCP tool, which ties a
// worker session to a feature (and optionally one of its tasks).
type SessionLinkTool struct {
	store *hive.Store
}

// NewSessionLinkTool creates a SessionLinkTool with the given store.
func NewSessionLinkTool(store *hive.Store) *SessionLinkTool {
	return &SessionLinkTool{store: store}
}

// Definition returns the MCP tool definition for registration.
func (t *SessionLinkTool) Definition() mcp.Tool {
	return mcp.NewTool("hive_session_link",
		mcp.WithDescription(
			"Link the current agent session to a feature. Re-linking the same "+
				"session updates its task binding and last-active time instead of "+
				"creating a duplicate entry.",
		),
		mcp.WithString("feature",
			mcp.Required(),
			mcp.Description("Feature folder name (the slug)."),
		),
		mcp.WithString("session_id",
			mcp.Required(),
			mcp.Description("Identifier of the agent session."),
		),
		mcp.WithString("task",
			mcp.Description("Task folder the session is working on, e.g. 01-setup."),
		),
		mcp.WithString("directory",
			mcp.Description("Project directory. Defaults to the current working directory."),
		),
	)
}

// Handle processes the hive_session_link tool call.
func (t *SessionLinkTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	feature := req.GetString("feature", "")
	sessionID := req.GetString("session_id", "")
	if feature == "" || sessionID == "" {
		return mcp.NewToolResultError("feature and session_id are required"), nil
	}
	taskFolder := req.GetString("task", "")

	root, found, err := requireRoot(req)
	if err != nil {
		return nil, err
	}
	if !found {
		return noHiveResult(), nil
	}

	if err := t.store.LinkSession(root, feature, sessionID, taskFolder); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Could not link session: %v", err)), nil
	}

	if taskFolder != "" {
		return mcp.NewToolResultText(fmt.Sprintf(
			"Session `%s` linked to `%s` (task %s).", sessionID, feature, taskFolder)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Session `%s` linked to `%s`.", sessionID, feature)), nil
}

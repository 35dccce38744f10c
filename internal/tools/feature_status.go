package tools

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/openchamber/hive/internal/hive"
)

// FeatureStatusTool handles the hive_feature_status MCP tool, which
// moves a feature through its lifecycle.
type FeatureStatusTool struct {
	store *hive.Store
}

// NewFeatureStatusTool creates a FeatureStatusTool with the given store.
func NewFeatureStatusTool(store *hive.Store) *FeatureStatusTool {
	return &FeatureStatusTool{store: store}
}

// Definition returns the MCP tool definition for registration.
func (t *FeatureStatusTool) Definition() mcp.Tool {
	return mcp.NewTool("hive_feature_status",
		mcp.WithDescription(
			"Set a feature's lifecycle status. Valid statuses: planning, approved, "+
				"executing, completed. Completing a feature stamps completedAt and "+
				"clears the active-feature pointer if it pointed there.",
		),
		mcp.WithString("feature",
			mcp.Required(),
			mcp.Description("Feature folder name (the slug)."),
		),
		mcp.WithString("status",
			mcp.Required(),
			mcp.Description("New status: planning | approved | executing | completed."),
		),
		mcp.WithString("directory",
			mcp.Description("Project directory. Defaults to the current working directory."),
		),
	)
}

// Handle processes the hive_feature_status tool call.
func (t *FeatureStatusTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	feature := req.GetString("feature", "")
	status := req.GetString("status", "")
	if feature == "" || status == "" {
		return mcp.NewToolResultError("feature and status are required"), nil
	}

	root, found, err := requireRoot(req)
	if err != nil {
		return nil, err
	}
	if !found {
		return noHiveResult(), nil
	}

	updated, err := t.store.UpdateFeatureStatus(root, feature, hive.FeatureStatus(status))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Could not update feature: %v", err)), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf("Feature `%s` is now %s.", updated.Name, updated.Status)), nil
}

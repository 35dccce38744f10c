package tools

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/openchamber/hive/internal/hive"
)

// FeatureCreateTool handles the hive_feature_create MCP tool. It is
// the one tool allowed to provision a hive when none exists yet.
type FeatureCreateTool struct {
	store *hive.Store
}

// NewFeatureCreateTool creates a FeatureCreateTool with the given store.
func NewFeatureCreateTool(store *hive.Store) *FeatureCreateTool {
	return &FeatureCreateTool{store: store}
}

// Definition returns the MCP tool definition for registration.
func (t *FeatureCreateTool) Definition() mcp.Tool {
	return mcp.NewTool("hive_feature_create",
		mcp.WithDescription(
			"Create a new feature in the hive and make it the active feature. "+
				"The name is slugified (lowercase, hyphens) to become the feature folder. "+
				"Creates the hive itself if this is the first feature.",
		),
		mcp.WithString("name",
			mcp.Required(),
			mcp.Description("Human-readable feature name, e.g. \"User Auth\"."),
		),
		mcp.WithString("ticket",
			mcp.Description("Optional issue tracker reference, e.g. PROJ-123."),
		),
		mcp.WithString("directory",
			mcp.Description("Project directory. Defaults to the current working directory."),
		),
	)
}

// Handle processes the hive_feature_create tool call.
func (t *FeatureCreateTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name := req.GetString("name", "")
	if name == "" {
		return mcp.NewToolResultError("name is required"), nil
	}
	ticket := req.GetString("ticket", "")

	dir, err := resolveDirectory(req)
	if err != nil {
		return nil, err
	}

	root, found := hive.FindRoot(dir)
	if !found {
		root = dir
		if err := t.store.EnsureRoot(root); err != nil {
			return nil, fmt.Errorf("provisioning hive: %w", err)
		}
	}

	feature, err := t.store.CreateFeature(root, name, ticket)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Could not create feature: %v", err)), nil
	}

	response := fmt.Sprintf(
		"Created feature `%s` (status: %s) and set it active.\n\n"+
			"Next: write a plan with `hive_plan_write`, then approve it and sync tasks.",
		feature.Name, feature.Status,
	)
	return mcp.NewToolResultText(response), nil
}

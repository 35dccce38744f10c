// Package resources implements MCP resource handlers for the hive.
//
// Resources provide read-only data that the host can consume for
// context. They use URI-based addressing (hive://...) following MCP
// conventions.
package resources

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/openchamber/hive/internal/hive"
)

// Handler manages hive resource endpoints.
type Handler struct {
	store *hive.Store
}

// NewHandler creates a resource Handler with its dependencies.
func NewHandler(store *hive.Store) *Handler {
	return &Handler{store: store}
}

// StatusResource returns the MCP resource definition for hive status.
func (h *Handler) StatusResource() mcp.Resource {
	return mcp.NewResource(
		"hive://status",
		"Hive Status",
		mcp.WithResourceDescription("Hive existence, active feature, and per-feature summaries"),
		mcp.WithMIMEType("application/json"),
	)
}

// HandleStatus returns the current hive status as JSON.
func (h *Handler) HandleStatus(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	dir, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("getting working directory: %w", err)
	}

	status := h.store.GetStatus(dir)
	payload := struct {
		Exists        bool                  `json:"exists"`
		ActiveFeature string                `json:"activeFeature,omitempty"`
		Features      []hive.FeatureSummary `json:"features,omitempty"`
	}{
		Exists:        status.Exists,
		ActiveFeature: status.ActiveFeature,
	}
	if root, found := hive.FindRoot(dir); found {
		payload.Features = h.store.ListFeatureSummaries(root)
	}

	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshaling status: %w", err)
	}

	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      req.Params.URI,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}

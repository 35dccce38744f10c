// Package tools implements the MCP tool handlers for the hive.
//
// Each tool is a struct that receives its dependencies at construction
// and exposes a Definition for registration plus a Handle compatible
// with mcp-go's CallToolRequest signature. One file per tool.
package tools

import (
	"fmt"
	"os"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/openchamber/hive/internal/hive"
)

// resolveDirectory returns the working directory a tool call targets.
// An explicit directory parameter wins; otherwise the process cwd is
// used, so the tools work when the MCP host launches the server inside
// the project.
func resolveDirectory(req mcp.CallToolRequest) (string, error) {
	if dir := req.GetString("directory", ""); dir != "" {
		return dir, nil
	}
	dir, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("getting working directory: %w", err)
	}
	return dir, nil
}

// requireRoot resolves the directory and the hive root inside it.
// The bool reports whether a hive exists.
func requireRoot(req mcp.CallToolRequest) (string, bool, error) {
	dir, err := resolveDirectory(req)
	if err != nil {
		return "", false, err
	}
	root, found := hive.FindRoot(dir)
	return root, found, nil
}

// noHiveResult is the uniform error result for tools that need an
// existing hive.
func noHiveResult() *mcp.CallToolResult {
	return mcp.NewToolResultError(
		"No hive found in this directory. Create one with `hive_feature_create` first.")
}

// intArg extracts an integer argument; MCP numbers arrive as float64.
func intArg(req mcp.CallToolRequest, key string, def int) int {
	v, ok := req.GetArguments()[key].(float64)
	if !ok {
		return def
	}
	return int(v)
}

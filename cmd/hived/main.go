// hived: file-backed feature tracking for agent-driven development.
//
// Usage:
//
//	hived serve   # Start the HTTP API server
//	hived mcp     # Start the MCP server (stdio transport)
package main

import (
	"os"

	"github.com/openchamber/hive/internal/commands"
)

// version is set at build time via ldflags.
var version = "dev"

func main() {
	if err := commands.Execute(version); err != nil {
		os.Exit(1)
	}
}

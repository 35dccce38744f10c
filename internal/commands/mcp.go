package commands

import (
	"fmt"

	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	"github.com/openchamber/hive/internal/config"
	hiveserver "github.com/openchamber/hive/internal/server"
)

// NewMCPCmd creates the mcp command, which runs the MCP server over
// stdio for AI coding tools.
func NewMCPCmd(version string) *cobra.Command {
	var indexPath string

	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Start the MCP server (stdio transport)",
		Long: `Start the MCP server on stdio.

Add to your AI tool's MCP config:

  {
    "mcpServers": {
      "hive": {
        "command": "hived",
        "args": ["mcp"]
      }
    }
  }`,
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, err := config.Load()
			if err != nil {
				return err
			}
			if indexPath != "" {
				settings.IndexPath = indexPath
			}

			hiveserver.Version = version
			s, cleanup, err := hiveserver.New(settings.IndexPath)
			if err != nil {
				return fmt.Errorf("creating server: %w", err)
			}
			defer cleanup()

			return mcpserver.ServeStdio(s)
		},
	}

	cmd.Flags().StringVar(&indexPath, "index-path", "", "Search index location (overrides config)")

	return cmd
}

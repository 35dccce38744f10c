// Package commands implements the hived CLI.
package commands

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/openchamber/hive/internal/config"
)

// Execute runs the CLI application.
func Execute(version string) error {
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stderr, nil)))

	root := &cobra.Command{
		Use:           "hived",
		Short:         "File-backed feature tracking for agent-driven development",
		SilenceUsage:  true,
		SilenceErrors: true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			showVersion, _ := cmd.Flags().GetBool("version")
			if showVersion {
				fmt.Printf("hived v%s\n", version)
				return nil
			}
			return cmd.Help()
		},
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return config.EnsureConfigDir()
		},
	}

	root.Flags().BoolP("version", "v", false, "version for hived")

	root.AddCommand(NewServeCmd(version))
	root.AddCommand(NewMCPCmd(version))

	err := root.Execute()
	if err != nil {
		slog.Error("command failed", "error", err.Error())
	}
	return err
}

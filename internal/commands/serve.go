package commands

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/openchamber/hive/internal/config"
	"github.com/openchamber/hive/internal/hive"
	"github.com/openchamber/hive/internal/httpapi"
	"github.com/openchamber/hive/internal/index"
)

// NewServeCmd creates the serve command, which runs the HTTP API
// consumed by desktop and web frontends.
func NewServeCmd(version string) *cobra.Command {
	var (
		addr      string
		indexPath string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the hive HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, err := config.Load()
			if err != nil {
				return err
			}
			if addr != "" {
				settings.Addr = addr
			}
			if indexPath != "" {
				settings.IndexPath = indexPath
			}

			store := hive.NewStore()
			opts := []httpapi.Option{httpapi.WithDefaultAuthor(settings.Author)}

			// Search is optional: a broken index disables the endpoint,
			// nothing else.
			if ix, err := index.Open(settings.IndexPath); err != nil {
				slog.Warn("search index disabled", "path", settings.IndexPath, "error", err)
			} else {
				defer func() { _ = ix.Close() }()
				opts = append(opts, httpapi.WithIndex(ix))
			}

			server := httpapi.New(store, opts...)
			slog.Info("hive api listening", "addr", settings.Addr, "version", version)
			return server.Run(settings.Addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (overrides config)")
	cmd.Flags().StringVar(&indexPath, "index-path", "", "Search index location (overrides config)")

	return cmd
}

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/JakeFAU/marketing-site/internal/server"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Starts the HTTP API",
		Long: `Connects to Postgres (retrying with a fixed delay), optionally applies
the schema, and serves the API until SIGINT or SIGTERM. Queued lead events
are drained before exit.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := configFromFlags(cmd)
			if err != nil {
				return err
			}
			app, err := server.Build(cmd.Context(), cfg)
			if err != nil {
				return fmt.Errorf("build app: %w", err)
			}
			return app.Run(cmd.Context())
		},
	}
}

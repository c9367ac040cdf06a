package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/JakeFAU/marketing-site/internal/server"
)

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Creates the contacts and subscribers tables",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := configFromFlags(cmd)
			if err != nil {
				return err
			}
			if cfg.Database.Driver != "postgres" {
				return errors.New("migrate requires database.driver=postgres")
			}
			logger, err := server.NewLogger(cfg)
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			db := server.NewDatabase(cfg, logger)
			defer db.Close()
			if err := db.ConnectWithRetry(cmd.Context(), cfg.Database.RetryAttempts, cfg.Database.RetryDelay()); err != nil {
				return fmt.Errorf("connect: %w", err)
			}
			if err := db.Migrate(cmd.Context()); err != nil {
				return fmt.Errorf("migrate: %w", err)
			}
			return nil
		},
	}
}

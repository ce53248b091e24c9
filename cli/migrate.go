package cli

import (
	"github.com/spf13/cobra"

	"github.com/stafflow/stafflow/engine/infra/postgres"
	"github.com/stafflow/stafflow/pkg/logger"
)

func MigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cfg, err := setup(cmd)
			if err != nil {
				return err
			}
			if err := postgres.ApplyMigrations(ctx, cfg.Database.DSN()); err != nil {
				return err
			}
			logger.FromContext(ctx).Info("migrations applied", "database", cfg.Database.Name)
			return nil
		},
	}
}

package cli

import (
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/stafflow/stafflow/engine/infra/postgres"
	"github.com/stafflow/stafflow/engine/infra/server/router"
	"github.com/stafflow/stafflow/pkg/logger"
)

func ServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the rule administration API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cfg, err := setup(cmd)
			if err != nil {
				return err
			}
			if cfg.Database.AutoMigrate {
				if err := postgres.ApplyMigrations(ctx, cfg.Database.DSN()); err != nil {
					return err
				}
			}
			store, err := postgres.NewStore(ctx, &cfg.Database)
			if err != nil {
				return err
			}
			defer store.Close()
			engine := router.New(postgres.NewRuleRepo(store.DB()), postgres.NewTemplateRepo(store.DB()))
			srv := &http.Server{
				Addr:              cfg.Server.Addr(),
				Handler:           engine,
				ReadHeaderTimeout: 10 * time.Second,
			}
			logger.FromContext(ctx).Info("serving admin API", "addr", cfg.Server.Addr())
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				return fmt.Errorf("serving: %w", err)
			}
			return nil
		},
	}
}

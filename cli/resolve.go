package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/stafflow/stafflow/engine/classification"
	"github.com/stafflow/stafflow/engine/core"
	"github.com/stafflow/stafflow/engine/infra/postgres"
	"github.com/stafflow/stafflow/engine/routing"
	"github.com/stafflow/stafflow/pkg/logger"
)

func ResolveCmd() *cobra.Command {
	var (
		classificationFlag string
		processFlag        string
		departmentFlag     string
	)
	cmd := &cobra.Command{
		Use:   "resolve",
		Short: "Print the routing decision for a classification",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cfg, err := setup(cmd)
			if err != nil {
				return err
			}
			cls, err := classification.Parse(classificationFlag)
			if err != nil {
				return err
			}
			rctx := routing.Context{Department: departmentFlag}
			if processFlag != "" {
				pt, err := core.ParseProcessType(processFlag)
				if err != nil {
					return err
				}
				rctx.ProcessType = pt
			}
			var resolved *routing.ResolvedRouting
			store, err := postgres.NewStore(ctx, &cfg.Database)
			if err != nil {
				// The engine is fail-open: without a reachable store the
				// default policy still yields a routing.
				logger.FromContext(ctx).Warn("rule store unreachable, using default policy", "error", err)
				policy, ok := routing.Default(cls)
				if !ok {
					return fmt.Errorf("default policy missing for classification %q", cls)
				}
				resolved = routing.MaterializeDefault(cls, policy, nil)
			} else {
				defer store.Close()
				resolver := routing.NewResolver(postgres.NewRuleRepo(store.DB()))
				resolved, err = resolver.ResolveRouting(ctx, cls, rctx)
				if err != nil {
					return err
				}
			}
			out, err := json.MarshalIndent(resolved, "", "  ")
			if err != nil {
				return fmt.Errorf("encoding routing: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(out))
			return nil
		},
	}
	cmd.Flags().StringVar(&classificationFlag, "classification", "", "task classification (required)")
	cmd.Flags().StringVar(&processFlag, "process", "", "process type scope")
	cmd.Flags().StringVar(&departmentFlag, "department", "", "department scope")
	_ = cmd.MarkFlagRequired("classification")
	return cmd
}

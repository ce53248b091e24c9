package cli

import (
	"fmt"
	"os"

	"github.com/goccy/go-yaml"
	"github.com/spf13/cobra"

	"github.com/stafflow/stafflow/engine/core"
	"github.com/stafflow/stafflow/engine/infra/postgres"
	"github.com/stafflow/stafflow/engine/rule"
	"github.com/stafflow/stafflow/engine/template"
	"github.com/stafflow/stafflow/pkg/logger"
)

// fixtureFile is the YAML shape accepted by `stafflow import`.
type fixtureFile struct {
	Rules     []*rule.Rule         `yaml:"rules"`
	Templates []*template.Template `yaml:"templates"`
}

func ImportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Bulk-load rules and templates from a YAML file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cfg, err := setup(cmd)
			if err != nil {
				return err
			}
			raw, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("reading fixture file: %w", err)
			}
			var fixtures fixtureFile
			if err := yaml.Unmarshal(raw, &fixtures); err != nil {
				return fmt.Errorf("parsing fixture file: %w", err)
			}
			// Validate the whole file before writing anything.
			for _, r := range fixtures.Rules {
				if r.ID.IsZero() {
					r.ID = core.MustNewID()
				}
				if err := r.Validate(); err != nil {
					return err
				}
			}
			for _, t := range fixtures.Templates {
				if t.ID.IsZero() {
					t.ID = core.MustNewID()
				}
				if err := t.Validate(); err != nil {
					return err
				}
			}
			store, err := postgres.NewStore(ctx, &cfg.Database)
			if err != nil {
				return err
			}
			defer store.Close()
			ruleRepo := postgres.NewRuleRepo(store.DB())
			for _, r := range fixtures.Rules {
				if err := ruleRepo.Create(ctx, r); err != nil {
					return err
				}
			}
			templateRepo := postgres.NewTemplateRepo(store.DB())
			for _, t := range fixtures.Templates {
				if err := templateRepo.Create(ctx, t); err != nil {
					return err
				}
			}
			logger.FromContext(ctx).Info("fixtures imported",
				"rules", len(fixtures.Rules), "templates", len(fixtures.Templates))
			return nil
		},
	}
}

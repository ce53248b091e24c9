package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/stafflow/stafflow/engine/routing"
	"github.com/stafflow/stafflow/pkg/config"
	"github.com/stafflow/stafflow/pkg/logger"
)

// setup runs the shared command preamble: logging, configuration and the
// default-policy completeness check. A hole in the default policy table is a
// configuration bug and fails the process before any work starts.
func setup(cmd *cobra.Command) (context.Context, *config.Config, error) {
	logLevel, logJSON, logSource, err := logger.GetLoggerConfig(cmd.Flags())
	if err != nil {
		return nil, nil, err
	}
	logger.SetupLogger(logLevel, logJSON, logSource)
	if err := routing.ValidateDefaults(); err != nil {
		return nil, nil, fmt.Errorf("default policy table: %w", err)
	}
	configFile, err := cmd.Flags().GetString("config")
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get config flag: %w", err)
	}
	ctx := cmd.Context()
	cfg, err := config.Load(ctx, configFile)
	if err != nil {
		return nil, nil, fmt.Errorf("loading configuration: %w", err)
	}
	return config.ContextWithConfig(ctx, cfg), cfg, nil
}

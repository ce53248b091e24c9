package cmd

import (
	"github.com/spf13/cobra"

	"github.com/stafflow/stafflow/cli"
)

func RootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "stafflow",
		Short: "HR process checklist routing engine",
	}

	root.PersistentFlags().String("config", "", "path to a YAML config file")
	root.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	root.PersistentFlags().Bool("log-json", false, "emit JSON logs")
	root.PersistentFlags().Bool("log-source", false, "include source locations in logs")

	root.AddCommand(
		cli.ServeCmd(),
		cli.MigrateCmd(),
		cli.ImportCmd(),
		cli.ResolveCmd(),
	)

	return root
}

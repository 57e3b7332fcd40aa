// Package commands implements the dapsql CLI commands.
package commands

import (
	"github.com/fatih/color"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/dapsql/dapsql/cli/internal/config"
	"github.com/dapsql/dapsql/internal/logging"
	"github.com/dapsql/dapsql/internal/version"
)

// cliConfig holds the loaded CLI defaults. Populated by the root
// command before any subcommand runs.
var cliConfig = &config.Config{
	Format:   "table",
	RowLimit: 500,
	LogLevel: "warn",
}

// NewRootCommand creates the root dapsql command.
func NewRootCommand() *cobra.Command {
	var logLevel string
	var noColor bool

	cmd := &cobra.Command{
		Use:   "dapsql",
		Short: "Serve database tables as constraint-queryable sequence datasets",
		Long: `dapsql exposes relational database tables as sequence datasets. A small
YAML config maps dataset variables to table columns; constraint
expressions project, filter, and slice the sequence, and each traversal
streams rows from a single generated SELECT.`,
		Version:       version.Get().String(),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			config.LoadEnvFiles()

			cfg, err := config.LoadConfig()
			if err != nil {
				return err
			}
			cliConfig = cfg

			if !cmd.Flags().Changed("log-level") && cfg.LogLevel != "" {
				logLevel = cfg.LogLevel
			}
			if noColor || cfg.NoColor {
				color.NoColor = true
				pterm.DisableColor()
			}
			return logging.SetupConsole(cmd.ErrOrStderr(), logLevel)
		},
	}

	cmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "log level (trace, debug, info, warn, error)")
	cmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")

	cmd.AddCommand(
		NewDescribeCommand(),
		NewQueryCommand(),
		NewValidateCommand(),
		NewInitCommand(),
		NewDocsCommand(),
		NewVersionCommand(),
	)

	return cmd
}

package commands

import (
	_ "embed"

	"github.com/spf13/cobra"

	"github.com/dapsql/dapsql/cli/internal/ui"
)

//go:embed docs.md
var usageDoc string

// NewDocsCommand creates the docs command.
func NewDocsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "docs",
		Short: "Show the config format and constraint expression reference",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ui.PrintMarkdown(usageDoc)
		},
	}
}

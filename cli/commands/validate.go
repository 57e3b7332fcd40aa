package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dapsql/dapsql/cli/internal/ui"
	"github.com/dapsql/dapsql/dap"
	"github.com/dapsql/dapsql/handler"
)

// NewValidateCommand creates the validate command.
func NewValidateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <config>...",
		Short: "Check dataset configs and their database connectivity",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			failed := 0
			for _, path := range args {
				if err := validateOne(ctx, path); err != nil {
					ui.PrintError("%s: %v", path, describeFailure(err))
					failed++
				}
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d configs failed validation", failed, len(args))
			}
			return nil
		},
	}
	return cmd
}

func validateOne(ctx context.Context, path string) error {
	h, err := handler.Open(ctx, path)
	if err != nil {
		return err
	}
	cfg := h.Config()

	ui.PrintSuccess("%s: %d variables (%s)", path, len(cfg.VariableNames()), h.Dialect().Name)

	// The order column may be any table column, exposed or not; an
	// unexposed one is usually a typo.
	if order := cfg.Database.Order; order != "" && !hasColumn(cfg.Mapping(), order) {
		ui.PrintWarning("%s: order column %q is not an exposed variable", path, order)
	}

	ds, err := h.Dataset()
	if err != nil {
		return err
	}
	unknown := 0
	for _, v := range ds.Sequence.Columns() {
		if v.Type() == dap.Unknown {
			unknown++
		}
	}
	if n := len(ds.Sequence.Columns()); n > 0 && unknown == n {
		ui.PrintWarning("%s: table is empty, column types could not be probed", path)
	}

	return nil
}

func hasColumn(mapping map[string]string, col string) bool {
	for _, c := range mapping {
		if c == col {
			return true
		}
	}
	return false
}

// describeFailure classifies an open failure for the validation report.
func describeFailure(err error) string {
	switch {
	case dap.IsSchemaError(err):
		return fmt.Sprintf("schema check failed: %v", err)
	case dap.IsQueryExecutionError(err):
		return fmt.Sprintf("attribute query failed: %v", err)
	case dap.IsOpenError(err):
		return err.Error()
	default:
		return err.Error()
	}
}

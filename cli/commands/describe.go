package commands

import (
	"fmt"
	"time"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/dapsql/dapsql/cli/internal/ui"
	"github.com/dapsql/dapsql/handler"
)

// NewDescribeCommand creates the describe command.
func NewDescribeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "describe <config>",
		Short: "Show a dataset's structure, attributes, and variable types",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			h, err := handler.Open(ctx, args[0])
			if err != nil {
				return err
			}
			ds, err := h.Dataset()
			if err != nil {
				return err
			}
			cfg := h.Config()
			seq := ds.Sequence

			ui.PrintHeader(ds.Name, fmt.Sprintf("%s table %q", h.Dialect().Name, cfg.Database.Table))
			if lm, ok := h.LastModified(); ok {
				ui.PrintDetail("last modified %s", lm.Format(time.RFC1123))
			}
			if order := cfg.Database.Order; order != "" {
				ui.PrintDetail("ordered by %s", order)
			}

			fmt.Println()
			ui.PrintSection("Structure")
			ui.PrintTree(datasetTree(ds))

			fmt.Println()
			ui.PrintSection("Variables")
			rows := make([][]string, 0, len(seq.Columns()))
			for _, v := range seq.Columns() {
				dv, _ := cfg.Variable(v.Name())
				rows = append(rows, []string{
					v.Name(),
					v.Type().String(),
					dv.Col,
					summarizeAttrs(v.Attributes()),
				})
			}
			ui.PrintTable([]string{"VARIABLE", "TYPE", "COLUMN", "ATTRIBUTES"}, rows)

			return nil
		},
	}
	return cmd
}

// datasetTree builds the dataset structure tree: dataset attributes,
// then the sequence with its attributes and variables.
func datasetTree(ds *handler.Dataset) pterm.TreeNode {
	root := pterm.TreeNode{Text: ds.Name}
	root.Children = attrNodes(ds.Attributes)

	seq := ds.Sequence
	seqNode := pterm.TreeNode{Text: seq.Name()}
	seqNode.Children = attrNodes(seq.Attributes())
	for _, v := range seq.Columns() {
		varNode := pterm.TreeNode{Text: fmt.Sprintf("%s (%s)", v.Name(), v.Type())}
		varNode.Children = attrNodes(v.Attributes())
		seqNode.Children = append(seqNode.Children, varNode)
	}
	root.Children = append(root.Children, seqNode)

	return root
}

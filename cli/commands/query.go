package commands

import (
	"encoding/csv"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dapsql/dapsql/cli/internal/ui"
	"github.com/dapsql/dapsql/cli/internal/watch"
	"github.com/dapsql/dapsql/handler"
	"github.com/dapsql/dapsql/request"
)

const (
	formatTable = "table"
	formatCSV   = "csv"
)

// NewQueryCommand creates the query command.
func NewQueryCommand() *cobra.Command {
	var format string
	var limit int
	var explain bool
	var watchMode bool

	cmd := &cobra.Command{
		Use:   "query <config> [constraint]",
		Short: "Evaluate a constraint expression and print the matching rows",
		Long: `Evaluate a constraint expression against a dataset and print the rows.

The constraint selects variables, filters rows, and slices the sequence:

  dapsql query stations.yaml
  dapsql query stations.yaml 'seq.temperature,seq.station'
  dapsql query stations.yaml 'seq[0:9]&seq.temperature>13'
  dapsql query stations.yaml 'seq.station&seq.station=~"^Diamond.*"'`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			ce := ""
			if len(args) == 2 {
				ce = args[1]
			}

			if !cmd.Flags().Changed("format") && cliConfig.Format != "" {
				format = cliConfig.Format
			}
			if format != formatTable && format != formatCSV {
				return fmt.Errorf("unknown format %q (expected %q or %q)", format, formatTable, formatCSV)
			}
			// The table format buffers rows, so it gets the configured
			// cap; csv streams and stays unlimited unless asked.
			if !cmd.Flags().Changed("limit") && format == formatTable {
				limit = cliConfig.RowLimit
			}

			run := func() error {
				return runQuery(cmd, path, ce, format, limit, explain)
			}

			if watchMode {
				w, err := watch.NewWatcher(path, run)
				if err != nil {
					return err
				}
				if err := w.Start(); err != nil {
					return err
				}
				defer w.Stop()
				ui.PrintInfo("watching %s, press ctrl-c to stop", path)
				<-cmd.Context().Done()
				return nil
			}
			return run()
		},
	}

	cmd.Flags().StringVarP(&format, "format", "o", formatTable, "output format (table, csv)")
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "stop after this many rows (0 = config row_limit for tables, unlimited for csv)")
	cmd.Flags().BoolVar(&explain, "explain", false, "print the generated SQL and its arguments instead of running it")
	cmd.Flags().BoolVarP(&watchMode, "watch", "w", false, "re-run the query when the config file changes")

	return cmd
}

func runQuery(cmd *cobra.Command, path, ce, format string, limit int, explain bool) error {
	ctx := cmd.Context()

	h, err := handler.Open(ctx, path)
	if err != nil {
		return err
	}
	projection, selection, err := request.Parse(ce)
	if err != nil {
		return err
	}
	ds, err := h.Parse(projection, selection)
	if err != nil {
		return err
	}
	seq := ds.Sequence

	if explain {
		sqlText, sqlArgs, err := seq.Query()
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), sqlText)
		for i, a := range sqlArgs {
			ui.PrintDetail("  arg %d = %v", i+1, a)
		}
		return nil
	}

	headers := make([]string, 0, len(seq.Columns()))
	for _, v := range seq.Columns() {
		headers = append(headers, v.Name())
	}

	switch format {
	case formatCSV:
		w := csv.NewWriter(cmd.OutOrStdout())
		if err := w.Write(headers); err != nil {
			return err
		}
		count := 0
		for row, err := range seq.Rows(ctx) {
			if err != nil {
				return err
			}
			record := make([]string, len(row))
			for i, v := range row {
				record[i] = formatValue(v)
			}
			if err := w.Write(record); err != nil {
				return err
			}
			count++
			if limit > 0 && count >= limit {
				break
			}
		}
		w.Flush()
		return w.Error()

	default:
		rows := make([][]string, 0, 64)
		truncated := false
		for row, err := range seq.Rows(ctx) {
			if err != nil {
				return err
			}
			record := make([]string, len(row))
			for i, v := range row {
				record[i] = formatValue(v)
			}
			rows = append(rows, record)
			if limit > 0 && len(rows) >= limit {
				truncated = true
				break
			}
		}
		ui.PrintTable(headers, rows)
		ui.PrintDetail("%d rows", len(rows))
		if truncated {
			ui.PrintWarning("output truncated at %d rows, raise --limit to see more", limit)
		}
		return nil
	}
}

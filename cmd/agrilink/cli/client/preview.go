package client

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/mwantia/agrilink/pkg/tabular"
	"github.com/spf13/cobra"
)

func NewPreviewCommand() *cobra.Command {
	var rows int

	cmd := &cobra.Command{
		Use:   "preview <file>",
		Short: "Preview a local CSV or XLSX file",
		Long:  "Parse a local CSV or XLSX file and print its first rows together with the inferred column types.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			table, format, err := parseLocal(args[0])
			if err != nil {
				return err
			}
			return writePreview(cmd.OutOrStdout(), table, format, rows)
		},
	}

	cmd.Flags().IntVarP(&rows, "rows", "n", 5, "number of rows to print")

	return cmd
}

func parseLocal(path string) (*tabular.Table, tabular.Format, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, tabular.FormatUnknown, fmt.Errorf("failed to read %s: %w", path, err)
	}

	if filepath.Ext(path) == "" {
		return tabular.ParseAuto(data)
	}
	format, err := tabular.FormatFromFilename(path)
	if err != nil {
		return nil, tabular.FormatUnknown, err
	}
	table, err := tabular.Parse(data, format)
	return table, format, err
}

func writePreview(w io.Writer, table *tabular.Table, format tabular.Format, rows int) error {
	types := tabular.InferColumnTypes(table)
	head := table.Head(rows)

	fmt.Fprintf(w, "%s, %d rows, %d columns\n\n", format, table.Len(), len(table.Columns))

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for i, column := range table.Columns {
		if i > 0 {
			fmt.Fprint(tw, "\t")
		}
		fmt.Fprintf(tw, "%s (%s)", column, types[column])
	}
	fmt.Fprintln(tw)

	for _, row := range head.Rows {
		for i, column := range table.Columns {
			if i > 0 {
				fmt.Fprint(tw, "\t")
			}
			fmt.Fprint(tw, row.Get(column).String())
		}
		fmt.Fprintln(tw)
	}
	return tw.Flush()
}

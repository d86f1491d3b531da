package cli

import (
	"context"
	"fmt"
	"strconv"

	"github.com/JonMunkholm/csvedit/internal/core"
	"github.com/JonMunkholm/csvedit/internal/tui"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

func newShowCmd(env *Env) *cobra.Command {
	return &cobra.Command{
		Use:   "show FILE",
		Short: "Print the file as a table with row numbers",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := env.load(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			doc := sess.Document

			table := tablewriter.NewWriter(env.Stdout)
			table.Header(append([]string{"#"}, doc.Headers...))
			for i, row := range doc.Rows {
				cells := make([]string, 0, len(doc.Headers)+1)
				cells = append(cells, strconv.Itoa(i+1))
				for _, h := range doc.Headers {
					cells = append(cells, row.Get(h))
				}
				if err := table.Append(cells); err != nil {
					return err
				}
			}
			return table.Render()
		},
	}
}

func newAddCmd(env *Env) *cobra.Command {
	var (
		sets []string
		out  string
	)
	cmd := &cobra.Command{
		Use:   "add FILE",
		Short: "Append a row",
		Long:  "Append a row built from --set column=value pairs. Columns not set stay empty.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			sess, err := env.load(ctx, args[0])
			if err != nil {
				return err
			}
			draft, err := parseAssignments(sets, sess.Document.Headers)
			if err != nil {
				return err
			}
			if _, err := env.service.AddRow(ctx, sess.ID, draft); err != nil {
				return err
			}
			return env.writeCSV(ctx, sess.ID, out)
		},
	}
	cmd.Flags().StringArrayVar(&sets, "set", nil, "column=value (repeatable)")
	cmd.Flags().StringVarP(&out, "output", "o", StdioPath, "Output location")
	return cmd
}

func newEditCmd(env *Env) *cobra.Command {
	var (
		row  int
		sets []string
		out  string
	)
	cmd := &cobra.Command{
		Use:   "edit FILE",
		Short: "Change values in one row",
		Long:  "Merge --set column=value pairs into row N. Columns not set keep their value.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			sess, err := env.load(ctx, args[0])
			if err != nil {
				return err
			}
			rec, err := rowAt(sess.Document, row)
			if err != nil {
				return err
			}
			draft, err := parseAssignments(sets, sess.Document.Headers)
			if err != nil {
				return err
			}

			if _, err := env.service.BeginEdit(ctx, sess.ID, rec.ID); err != nil {
				return err
			}
			if _, err := env.service.CommitEdit(ctx, sess.ID, draft); err != nil {
				return err
			}
			return env.writeCSV(ctx, sess.ID, out)
		},
	}
	cmd.Flags().IntVar(&row, "row", 0, "Row number, starting at 1 (required)")
	cmd.Flags().StringArrayVar(&sets, "set", nil, "column=value (repeatable)")
	cmd.Flags().StringVarP(&out, "output", "o", StdioPath, "Output location")
	_ = cmd.MarkFlagRequired("row")
	return cmd
}

func newDeleteCmd(env *Env) *cobra.Command {
	var (
		row int
		out string
	)
	cmd := &cobra.Command{
		Use:   "delete FILE",
		Short: "Remove one row",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			sess, err := env.load(ctx, args[0])
			if err != nil {
				return err
			}
			rec, err := rowAt(sess.Document, row)
			if err != nil {
				return err
			}
			if _, err := env.service.DeleteRow(ctx, sess.ID, rec.ID); err != nil {
				return err
			}
			return env.writeCSV(ctx, sess.ID, out)
		},
	}
	cmd.Flags().IntVar(&row, "row", 0, "Row number, starting at 1 (required)")
	cmd.Flags().StringVarP(&out, "output", "o", StdioPath, "Output location")
	_ = cmd.MarkFlagRequired("row")
	return cmd
}

func newDescribeCmd(env *Env) *cobra.Command {
	return &cobra.Command{
		Use:   "describe FILE",
		Short: "Summarize each column",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			sess, err := env.load(ctx, args[0])
			if err != nil {
				return err
			}
			cols, err := env.service.Summary(ctx, sess.ID)
			if err != nil {
				return err
			}

			table := tablewriter.NewWriter(env.Stdout)
			table.Header([]string{"Column", "Filled", "Empty", "Numeric", "Min", "Max", "Mean", "Median"})
			for _, c := range cols {
				err := table.Append([]string{
					c.Column,
					strconv.Itoa(c.Filled),
					strconv.Itoa(c.Empty),
					strconv.Itoa(c.Numeric),
					formatStat(c.Min),
					formatStat(c.Max),
					formatStat(c.Mean),
					formatStat(c.Median),
				})
				if err != nil {
					return err
				}
			}
			return table.Render()
		},
	}
}

func formatStat(v *float64) string {
	if v == nil {
		return "-"
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}

func newExportCmd(env *Env) *cobra.Command {
	var (
		format string
		out    string
	)
	cmd := &cobra.Command{
		Use:   "export FILE",
		Short: "Write the file as CSV or XLSX",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if format != "csv" && format != "xlsx" {
				return fmt.Errorf("invalid --format %q: want csv or xlsx", format)
			}
			sess, err := env.load(ctx, args[0])
			if err != nil {
				return err
			}
			if format == "xlsx" {
				return env.writeXLSX(ctx, sess.ID, out)
			}
			return env.writeCSV(ctx, sess.ID, out)
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "csv", "Output format: csv or xlsx")
	cmd.Flags().StringVarP(&out, "output", "o", StdioPath, "Output location")
	return cmd
}

func newTUICmd(env *Env) *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "tui FILE",
		Short: "Edit the file interactively",
		Long: `Open the file in a terminal editor.

Keys: e edit row, d delete row, a add row, s save, q quit.
In the form, enter confirms and esc cancels.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if args[0] == StdioPath {
				return fmt.Errorf("tui needs a file or s3 location, not stdin")
			}
			ctx := cmd.Context()
			sess, err := env.load(ctx, args[0])
			if err != nil {
				return err
			}

			return env.RunTUI(ctx, tui.Options{
				Service:   env.service,
				SessionID: sess.ID,
				Save: func(ctx context.Context) (string, error) {
					return out, env.writeCSV(ctx, sess.ID, out)
				},
			})
		},
	}
	cmd.Flags().StringVarP(&out, "output", "o", core.ExportFileName, "Where s saves the edited file")
	return cmd
}

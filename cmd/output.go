package cmd

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/KaramelBytes/edaloom-cli/internal/analysis"
	"github.com/KaramelBytes/edaloom-cli/internal/cleaning"
	"github.com/KaramelBytes/edaloom-cli/internal/dataset"
	"github.com/KaramelBytes/edaloom-cli/internal/utils"
	"github.com/spf13/cobra"
)

func writeJSON(cmd *cobra.Command, v any) error {
	b, err := utils.PrettyJSON(v)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), string(b))
	return err
}

func printHead(w io.Writer, ds *dataset.Dataset, n int) {
	head := ds.Head(n)
	if head.Rows() == 0 {
		fmt.Fprintln(w, "(no rows)")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 2, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(head.Names(), "\t"))
	for i := 0; i < head.Rows(); i++ {
		cells := make([]string, head.Width())
		for j, c := range head.Columns {
			cells[j] = c.Values[i].Format(c.Kind)
			if cells[j] == "" {
				cells[j] = "NaN"
			}
		}
		fmt.Fprintln(tw, strings.Join(cells, "\t"))
	}
	tw.Flush()
}

func printInfo(w io.Writer, s *analysis.Summary) {
	fmt.Fprintf(w, "Rows: %d, Columns: %d, Missing cells: %d\n", s.Rows, s.Columns, s.TotalMissing)
	tw := tabwriter.NewWriter(w, 0, 2, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tColumn\tKind\tNon-Null\tMissing")
	for i, c := range s.Cols {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%d\t%d\n", i, c.Name, c.Kind, c.NonNull, c.Missing)
	}
	tw.Flush()
}

func printDescribe(w io.Writer, s *analysis.Summary) {
	tw := tabwriter.NewWriter(w, 0, 2, 2, ' ', 0)
	fmt.Fprintln(tw, "Column\tcount\tunique\ttop\tfreq\tmean\tstd\tmin\t25%\t50%\t75%\tmax")
	for _, c := range s.Cols {
		top, freq := "", ""
		if c.Kind == dataset.KindText && c.Freq > 0 {
			top, freq = c.Top, fmt.Sprint(c.Freq)
		}
		fmt.Fprintf(tw, "%s\t%d\t%d\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			c.Name, c.NonNull, c.Unique, top, freq,
			cell(c.Mean), cell(c.Std), cell(c.Min), cell(c.Q1), cell(c.Median), cell(c.Q3), cell(c.Max))
	}
	tw.Flush()
}

func cell(f analysis.Float) string {
	if !f.Defined() {
		return "-"
	}
	return f.String()
}

func printDiagnostics(w io.Writer, steps []cleaning.Diagnostics) {
	if len(steps) == 0 {
		fmt.Fprintln(w, "No cleaning steps selected.")
		return
	}
	for _, d := range steps {
		fmt.Fprintf(w, "✓ %s\n", d.Message())
		for _, warn := range d.Warnings {
			fmt.Fprintf(w, "  ⚠ %s\n", warn)
		}
	}
}

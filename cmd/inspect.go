package cmd

import (
	"fmt"

	"github.com/KaramelBytes/edaloom-cli/internal/analysis"
	"github.com/spf13/cobra"
)

var (
	insJSON       bool
	insSampleRows int
	insCorr       bool
)

var inspectCmd = &cobra.Command{
	Use:   "inspect <file>",
	Short: "Show preview, schema, missing counts and descriptive statistics",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ds, err := loadDataset(args[0])
		if err != nil {
			return err
		}
		sum, err := analysis.Summarize(ds)
		if err != nil {
			return err
		}
		rows := cfg.SampleRows
		if cmd.Flags().Changed("sample-rows") {
			rows = insSampleRows
		}
		var corr *analysis.CorrMatrix
		if insCorr && len(ds.NumericColumns()) >= 2 {
			if corr, err = analysis.Correlations(ds); err != nil {
				return err
			}
		}

		if insJSON {
			payload := struct {
				Summary      *analysis.Summary    `json:"summary"`
				Head         [][]string           `json:"head"`
				Correlations *analysis.CorrMatrix `json:"correlations,omitempty"`
			}{Summary: sum, Correlations: corr}
			head := ds.Head(rows)
			for i := 0; i < head.Rows(); i++ {
				row := make([]string, head.Width())
				for j, c := range head.Columns {
					row[j] = c.Values[i].Format(c.Kind)
				}
				payload.Head = append(payload.Head, row)
			}
			return writeJSON(cmd, payload)
		}

		w := cmd.OutOrStdout()
		fmt.Fprintf(w, "Dataset: %s\n\n", ds.Name)
		if rows > 0 {
			fmt.Fprintln(w, "Preview:")
			printHead(w, ds, rows)
			fmt.Fprintln(w)
		}
		fmt.Fprintln(w, "Info:")
		printInfo(w, sum)
		fmt.Fprintln(w, "\nMissing values per column:")
		for _, c := range sum.Cols {
			fmt.Fprintf(w, "  %s: %d\n", c.Name, c.Missing)
		}
		fmt.Fprintln(w, "\nSummary statistics:")
		printDescribe(w, sum)
		if corr != nil {
			fmt.Fprintln(w, "\nCorrelations:")
			for _, p := range corr.TopPairs(10) {
				fmt.Fprintf(w, "  %s ~ %s: r=%.3f\n", p.A, p.B, float64(p.R))
			}
		}
		for _, warn := range sum.Warnings {
			fmt.Fprintf(w, "⚠ %s\n", warn)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(inspectCmd)
	inspectCmd.Flags().BoolVar(&insJSON, "json", false, "print the summary as JSON")
	inspectCmd.Flags().IntVar(&insSampleRows, "sample-rows", 5, "number of preview rows (default from config)")
	inspectCmd.Flags().BoolVar(&insCorr, "correlations", false, "include Pearson correlations among numeric columns")
}

package cmd

import (
	"fmt"
	"strings"

	"github.com/KaramelBytes/edaloom-cli/internal/analysis"
	"github.com/spf13/cobra"
)

var (
	distColumn string
	distBins   int
	distJSON   bool
)

const barWidth = 40

var distributionCmd = &cobra.Command{
	Use:   "distribution [file]",
	Short: "Show a histogram (numeric) or value counts (text) for one column",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if distColumn == "" {
			return fmt.Errorf("--column is required")
		}
		ds, err := loadInput(cmd, args)
		if err != nil {
			return err
		}
		bins := cfg.HistogramBins
		if cmd.Flags().Changed("bins") {
			bins = distBins
		}
		d, err := analysis.ColumnDistribution(ds, distColumn, bins)
		if err != nil {
			return err
		}
		if distJSON {
			return writeJSON(cmd, d)
		}

		w := cmd.OutOrStdout()
		fmt.Fprintf(w, "%s (%s): %d values, %d missing\n", d.Column, d.Kind, d.NonNull, d.Missing)
		peak := 0
		for _, b := range d.Bins {
			peak = max(peak, b.Count)
		}
		for _, c := range d.Categories {
			peak = max(peak, c.Count)
		}
		for _, b := range d.Bins {
			fmt.Fprintf(w, "[%10s, %10s] %6d %s\n", b.Lower, b.Upper, b.Count, bar(b.Count, peak))
		}
		for _, c := range d.Categories {
			fmt.Fprintf(w, "%-20s %6d %s\n", c.Value, c.Count, bar(c.Count, peak))
		}
		return nil
	},
}

func bar(n, peak int) string {
	if peak == 0 {
		return ""
	}
	return strings.Repeat("#", n*barWidth/peak)
}

func init() {
	rootCmd.AddCommand(distributionCmd)
	distributionCmd.Flags().StringVar(&distColumn, "column", "", "column to describe (required)")
	distributionCmd.Flags().IntVar(&distBins, "bins", 0, "histogram bins (0 = Sturges rule, default from config)")
	distributionCmd.Flags().BoolVar(&distJSON, "json", false, "print the distribution as JSON")
	addSessionFlag(distributionCmd)
}

package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/KaramelBytes/edaloom-cli/internal/analysis"
	"github.com/spf13/cobra"
)

var (
	outColumn     string
	outMultiplier float64
	outJSON       bool
	outShowValues bool
)

var outliersCmd = &cobra.Command{
	Use:   "outliers [file]",
	Short: "Count IQR outliers and show box statistics for numeric columns",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ds, err := loadInput(cmd, args)
		if err != nil {
			return err
		}
		opt := analysis.OutlierOptions{Multiplier: cfg.IQRMultiplier}
		if cmd.Flags().Changed("multiplier") {
			if outMultiplier <= 0 {
				return fmt.Errorf("--multiplier must be > 0")
			}
			opt.Multiplier = outMultiplier
		}
		rep, err := analysis.DetectOutliers(ds, opt)
		if err != nil {
			return err
		}
		if outColumn != "" {
			co, ok := rep.Column(outColumn)
			if !ok {
				if _, exists := ds.Column(outColumn); exists {
					return fmt.Errorf("column %q is not numeric", outColumn)
				}
				return fmt.Errorf("column %q not found", outColumn)
			}
			rep.Columns = []analysis.ColumnOutliers{*co}
		}
		if outJSON {
			return writeJSON(cmd, rep)
		}

		w := cmd.OutOrStdout()
		if len(rep.Columns) == 0 {
			fmt.Fprintln(w, "No numeric columns.")
			return nil
		}
		fmt.Fprintf(w, "Outliers (values outside Q1-%[1]g*IQR .. Q3+%[1]g*IQR):\n", rep.Multiplier)
		tw := tabwriter.NewWriter(w, 0, 2, 2, ' ', 0)
		fmt.Fprintln(tw, "Column\toutliers\tlower\tupper\tmin\twhisker_low\tQ1\tmedian\tQ3\twhisker_high\tmax")
		for _, c := range rep.Columns {
			fmt.Fprintf(tw, "%s\t%d\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
				c.Column, c.Count, cell(c.Lower), cell(c.Upper), cell(c.Min), cell(c.WhiskerLow),
				cell(c.Q1), cell(c.Median), cell(c.Q3), cell(c.WhiskerHigh), cell(c.Max))
		}
		tw.Flush()
		if outShowValues {
			for _, c := range rep.Columns {
				for i, row := range c.Rows {
					fmt.Fprintf(w, "  %s row %d: %g\n", c.Column, row, c.Values[i])
				}
			}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(outliersCmd)
	outliersCmd.Flags().StringVar(&outColumn, "column", "", "only report this column")
	outliersCmd.Flags().Float64Var(&outMultiplier, "multiplier", 1.5, "IQR multiplier for the bounds (default from config)")
	outliersCmd.Flags().BoolVar(&outJSON, "json", false, "print the report as JSON")
	addSessionFlag(outliersCmd)
	outliersCmd.Flags().BoolVar(&outShowValues, "values", false, "list every outlier with its row index")
}

package cmd

import (
	"fmt"

	"github.com/KaramelBytes/edaloom-cli/internal/cleaning"
	"github.com/KaramelBytes/edaloom-cli/internal/dataset"
	"github.com/spf13/cobra"
)

var (
	clMissing  string
	clDedupe   bool
	clPrune    bool
	clPruneThr float64
	clOutput   string
	clOutDelim string
	clJSON     bool
)

var cleanCmd = &cobra.Command{
	Use:   "clean <file>",
	Short: "Handle missing values, remove duplicates and prune sparse columns",
	Long: `Apply cleaning steps in a fixed order: missing-value handling, duplicate
removal, then pruning of columns with too few values. The input file is never
modified; use --output to write the cleaned dataset.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := pipelineFromFlags(cmd, clMissing, clDedupe, clPrune, clPruneThr)
		if err != nil {
			return err
		}
		ds, err := loadDataset(args[0])
		if err != nil {
			return err
		}
		res, err := p.Run(ds)
		if err != nil {
			return err
		}
		log.WithField("steps", len(res.Steps)).Debug("pipeline finished")

		if clOutput != "" {
			delim, err := dataset.ParseDelimiter(clOutDelim)
			if err != nil {
				return err
			}
			if err := dataset.SaveFile(clOutput, res.Dataset, delim); err != nil {
				return fmt.Errorf("write output: %w", err)
			}
		}
		if clJSON {
			return writeJSON(cmd, res)
		}
		w := cmd.OutOrStdout()
		printDiagnostics(w, res.Steps)
		_, missing := res.Dataset.MissingCount()
		fmt.Fprintf(w, "Result: %d rows, %d columns, %d missing cells\n", res.Dataset.Rows(), res.Dataset.Width(), missing)
		if clOutput != "" {
			fmt.Fprintf(w, "✓ Wrote cleaned dataset to %s\n", clOutput)
		}
		return nil
	},
}

// pipelineFromFlags maps the shared cleaning flags to a Pipeline.
func pipelineFromFlags(cmd *cobra.Command, missing string, dedupe, prune bool, threshold float64) (cleaning.Pipeline, error) {
	frac := cfg.PruneThreshold
	p := cleaning.Pipeline{DropDuplicates: dedupe, PruneSparse: prune, PruneFraction: &frac}
	if missing != "" {
		d, err := cleaning.ParseDirective(missing)
		if err != nil {
			return p, err
		}
		p.Missing = d
	}
	if cmd.Flags().Changed("prune-threshold") {
		if threshold < 0 || threshold > 1 {
			return p, fmt.Errorf("--prune-threshold must be within [0,1], got %v", threshold)
		}
		frac = threshold
	}
	return p, nil
}

func init() {
	rootCmd.AddCommand(cleanCmd)
	cleanCmd.Flags().StringVar(&clMissing, "missing", "", "missing values: none|mode|median|drop|ffill|bfill")
	cleanCmd.Flags().BoolVar(&clDedupe, "dedupe", false, "remove duplicate rows (first occurrence kept)")
	cleanCmd.Flags().BoolVar(&clPrune, "prune", false, "drop columns with too few non-missing values")
	cleanCmd.Flags().Float64Var(&clPruneThr, "prune-threshold", 0.3, "minimum non-missing fraction a column needs to be kept")
	cleanCmd.Flags().StringVarP(&clOutput, "output", "o", "", "write the cleaned dataset to this CSV/TSV path")
	cleanCmd.Flags().StringVar(&clOutDelim, "output-delimiter", "", "delimiter for --output (default: by extension)")
	cleanCmd.Flags().BoolVar(&clJSON, "json", false, "print diagnostics as JSON")
}

package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/KaramelBytes/edaloom-cli/internal/analysis"
	"github.com/KaramelBytes/edaloom-cli/internal/dataset"
	"github.com/KaramelBytes/edaloom-cli/internal/utils"
	"github.com/spf13/cobra"
)

var (
	repOutDir     string
	repSampleRows int
	repQuiet      bool
)

var reportCmd = &cobra.Command{
	Use:   "report [files...]",
	Short: "Write a Markdown profiling report for CSV/TSV files or a session's working copy",
	RunE: func(cmd *cobra.Command, args []string) error {
		inputs, err := reportInputs(cmd, args)
		if err != nil {
			return err
		}
		opt := analysis.DefaultReportOptions()
		opt.SampleRows = cfg.SampleRows
		opt.IQRMultiplier = cfg.IQRMultiplier
		opt.HistogramBins = cfg.HistogramBins
		if cmd.Flags().Changed("sample-rows") {
			opt.SampleRows = repSampleRows
		}
		if repOutDir != "" {
			if err := utils.EnsureDir(repOutDir); err != nil {
				return fmt.Errorf("create output dir: %w", err)
			}
		}

		w := cmd.OutOrStdout()
		written := map[string]bool{}
		total := len(inputs)
		for i, in := range inputs {
			if repOutDir != "" && !repQuiet {
				fmt.Fprintf(w, "[%d/%d] Processing %s...\n", i+1, total, in.label)
			}
			ds, err := in.load()
			if err != nil {
				return err
			}
			rep, err := analysis.BuildReport(ds, opt)
			if err != nil {
				return fmt.Errorf("%s: %w", in.label, err)
			}
			md := rep.Markdown()
			if repOutDir == "" {
				if total > 1 && i > 0 {
					fmt.Fprintln(w)
				}
				fmt.Fprint(w, md)
				continue
			}
			outFile := utils.UniquePath(filepath.Join(repOutDir, in.base+".report.md"), func(p string) bool {
				if written[p] {
					return true
				}
				_, err := os.Stat(p)
				return err == nil
			})
			if err := os.WriteFile(outFile, []byte(md), 0o644); err != nil {
				return fmt.Errorf("write report: %w", err)
			}
			written[outFile] = true
			log.WithField("file", outFile).Debug("report written")
			if !repQuiet {
				fmt.Fprintf(w, "✓ Wrote %s\n", outFile)
			}
		}
		return nil
	},
}

type reportInput struct {
	label string // progress and error prefix
	base  string // report file stem
	load  func() (*dataset.Dataset, error)
}

// reportInputs returns the session working copy when --session is given,
// otherwise the expanded file arguments.
func reportInputs(cmd *cobra.Command, args []string) ([]reportInput, error) {
	if cmd.Flags().Changed("session") {
		if len(args) > 0 {
			return nil, fmt.Errorf("pass either files or --session, not both")
		}
		name := anSession
		if name == "" {
			name = "session"
		}
		return []reportInput{{
			label: "session " + name,
			base:  name,
			load:  func() (*dataset.Dataset, error) { return loadInput(cmd, nil) },
		}}, nil
	}
	if len(args) == 0 {
		return nil, fmt.Errorf("expected input files or --session")
	}
	files, err := expandInputs(args)
	if err != nil {
		return nil, err
	}
	out := make([]reportInput, 0, len(files))
	for _, path := range files {
		path := path
		out = append(out, reportInput{
			label: filepath.Base(path),
			base:  strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)),
			load:  func() (*dataset.Dataset, error) { return loadDataset(path) },
		})
	}
	return out, nil
}

// expandInputs resolves globs, keeps literal paths that exist, drops
// duplicates and sorts the result.
func expandInputs(args []string) ([]string, error) {
	var files []string
	seen := map[string]struct{}{}
	for _, arg := range args {
		matches, _ := filepath.Glob(arg)
		if len(matches) == 0 {
			if _, err := os.Stat(arg); err == nil {
				matches = []string{arg}
			}
		}
		for _, m := range matches {
			if _, ok := seen[m]; ok {
				continue
			}
			seen[m] = struct{}{}
			files = append(files, m)
		}
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no input files matched")
	}
	sort.Strings(files)
	return files, nil
}

func init() {
	rootCmd.AddCommand(reportCmd)
	reportCmd.Flags().StringVar(&repOutDir, "out-dir", "", "write one <name>.report.md per input into this directory")
	reportCmd.Flags().IntVar(&repSampleRows, "sample-rows", 5, "rows in the [HEAD] section, 0 to omit (default from config)")
	reportCmd.Flags().BoolVarP(&repQuiet, "quiet", "q", false, "suppress progress output")
	addSessionFlag(reportCmd)
}

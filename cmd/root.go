package cmd

import (
	"fmt"
	"os"
	"strings"

	cfgpkg "github.com/KaramelBytes/edaloom-cli/internal/config"
	"github.com/KaramelBytes/edaloom-cli/internal/dataset"
	"github.com/KaramelBytes/edaloom-cli/internal/logger"
	"github.com/spf13/cobra"
)

var (
	// Global flags
	cfgFile       string
	debug         bool
	flagLogLevel  string
	flagLogFormat string
	flagDelimiter string

	// Loaded configuration and logger, refreshed before every command
	cfg *cfgpkg.Global
	log = logger.Nop()
)

var rootCmd = &cobra.Command{
	Use:   "edaloom",
	Short: "edaloom: explore and clean tabular datasets from the terminal",
	Long: `edaloom profiles CSV/TSV files (schema, missing values, descriptive statistics,
IQR outliers, correlations, distributions) and applies cleaning steps
(missing-value handling, duplicate removal, sparse column pruning).`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute is the entry point called by main.main()
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "✗ Error:", err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(loadConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ~/.edaloom/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging (same as --log-level debug)")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "log level: debug|info|warn|error|off (overrides config)")
	rootCmd.PersistentFlags().StringVar(&flagLogFormat, "log-format", "", "log format: console|json (overrides config)")
	rootCmd.PersistentFlags().StringVar(&flagDelimiter, "delimiter", "", "CSV delimiter: ',' | ';' | 'tab' | '|' (default: by extension)")
}

func loadConfig() {
	c, err := cfgpkg.Load(cfgFile)
	if err != nil {
		// Non-fatal: fall back to defaults so read-only commands still work
		fmt.Fprintf(os.Stderr, "⚠ Warning: failed to load config: %v\n", err)
		c = &cfgpkg.Global{LogLevel: "warn", PruneThreshold: 0.3, IQRMultiplier: 1.5, SampleRows: 5}
	}
	cfg = c

	f := rootCmd.PersistentFlags()
	if f.Changed("log-level") {
		cfg.LogLevel = flagLogLevel
	}
	if f.Changed("log-format") {
		cfg.LogFormat = flagLogFormat
	}
	if debug {
		cfg.LogLevel = "debug"
	}
	if f.Changed("delimiter") {
		cfg.Delimiter = flagDelimiter
	}
	if !logger.ValidLevel(cfg.LogLevel) {
		fmt.Fprintf(os.Stderr, "⚠ Warning: unknown log level %q, using warn\n", cfg.LogLevel)
	}
	log = logger.New(logger.Options{Level: cfg.LogLevel, Format: cfg.LogFormat})
	log.WithField("config", cfgFile).Debug("configuration loaded")
}

// readOptions builds CSV parsing options from the effective configuration.
func readOptions() (dataset.ReadOptions, error) {
	opt := dataset.ReadOptions{MaxRows: cfg.MaxRows}
	if len(cfg.NAValues) > 0 {
		opt.NAValues = cfg.NAValues
	}
	d, err := dataset.ParseDelimiter(strings.ToLower(cfg.Delimiter))
	if err != nil {
		return opt, err
	}
	opt.Delimiter = d
	if opt.DecimalSeparator, err = separator("decimal_separator", cfg.DecimalSeparator); err != nil {
		return opt, err
	}
	if opt.ThousandsSeparator, err = separator("thousands_separator", cfg.ThousandsSeparator); err != nil {
		return opt, err
	}
	return opt, nil
}

func separator(key, s string) (rune, error) {
	switch strings.ToLower(s) {
	case "":
		return 0, nil
	case "comma":
		return ',', nil
	case "dot":
		return '.', nil
	case "space":
		return ' ', nil
	}
	r := []rune(s)
	if len(r) != 1 {
		return 0, fmt.Errorf("unsupported %s: %q", key, s)
	}
	return r[0], nil
}

// loadDataset reads a file with the effective read options.
func loadDataset(path string) (*dataset.Dataset, error) {
	opt, err := readOptions()
	if err != nil {
		return nil, err
	}
	ds, err := dataset.LoadFile(path, opt)
	if err != nil {
		return nil, err
	}
	log.WithFields(map[string]interface{}{
		"file":    path,
		"rows":    ds.Rows(),
		"columns": ds.Width(),
	}).Debug("dataset loaded")
	for _, w := range ds.Warnings {
		log.WithField("file", path).Warn(w)
	}
	return ds, nil
}

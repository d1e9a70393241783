package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Global configuration structure.
type Global struct {
	LogLevel  string `mapstructure:"log_level" yaml:"log_level"`
	LogFormat string `mapstructure:"log_format" yaml:"log_format"`

	SessionsDir string `mapstructure:"sessions_dir" yaml:"sessions_dir"`

	// CSV intake
	Delimiter          string   `mapstructure:"delimiter" yaml:"delimiter"`
	NAValues           []string `mapstructure:"na_values" yaml:"na_values,omitempty"`
	DecimalSeparator   string   `mapstructure:"decimal_separator" yaml:"decimal_separator"`
	ThousandsSeparator string   `mapstructure:"thousands_separator" yaml:"thousands_separator"`
	MaxRows            int      `mapstructure:"max_rows" yaml:"max_rows"`

	// Analysis and cleaning
	SampleRows     int     `mapstructure:"sample_rows" yaml:"sample_rows"`
	PruneThreshold float64 `mapstructure:"prune_threshold" yaml:"prune_threshold"`
	IQRMultiplier  float64 `mapstructure:"iqr_multiplier" yaml:"iqr_multiplier"`
	HistogramBins  int     `mapstructure:"histogram_bins" yaml:"histogram_bins"`
}

const envPrefix = "EDALOOM"

// Keys lists every settable key in display order.
var Keys = []string{
	"log_level", "log_format", "sessions_dir",
	"delimiter", "na_values", "decimal_separator", "thousands_separator", "max_rows",
	"sample_rows", "prune_threshold", "iqr_multiplier", "histogram_bins",
}

func homeDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(home, ".edaloom"), nil
}

// Save writes the given configuration to the cfgFile path. If cfgFile is empty,
// it writes to ~/.edaloom/config.yaml, creating the directory if necessary.
func Save(c *Global, cfgFile string) error {
	path := cfgFile
	if path == "" {
		dir, err := homeDir()
		if err != nil {
			return err
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("mkdir config dir: %w", err)
		}
		path = filepath.Join(dir, "config.yaml")
	}
	b, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Load loads configuration from file, env, and defaults.
// Precedence: env > config file > defaults; command flags are applied by the caller.
// A .env file in the working directory is loaded first without overriding
// variables already set.
func Load(cfgFile string) (*Global, error) {
	loadEnvFile()

	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()

	v.SetDefault("log_level", "warn")
	v.SetDefault("log_format", "console")
	v.SetDefault("sessions_dir", "")
	v.SetDefault("delimiter", "")
	v.SetDefault("na_values", []string{})
	v.SetDefault("decimal_separator", "")
	v.SetDefault("thousands_separator", "")
	v.SetDefault("max_rows", 0)
	v.SetDefault("sample_rows", 5)
	v.SetDefault("prune_threshold", 0.3)
	v.SetDefault("iqr_multiplier", 1.5)
	v.SetDefault("histogram_bins", 0)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		dir, err := homeDir()
		if err != nil {
			return nil, err
		}
		v.AddConfigPath(dir)
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var c Global
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if c.SessionsDir == "" {
		dir, err := homeDir()
		if err != nil {
			return nil, err
		}
		c.SessionsDir = filepath.Join(dir, "sessions")
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

func loadEnvFile() {
	if _, err := os.Stat(".env"); err == nil {
		_ = godotenv.Load(".env")
	}
}

// Validate checks value ranges.
func (c *Global) Validate() error {
	if c.PruneThreshold < 0 || c.PruneThreshold > 1 {
		return fmt.Errorf("prune_threshold must be within [0,1], got %v", c.PruneThreshold)
	}
	if c.IQRMultiplier <= 0 {
		return fmt.Errorf("iqr_multiplier must be > 0, got %v", c.IQRMultiplier)
	}
	if c.MaxRows < 0 || c.SampleRows < 0 || c.HistogramBins < 0 {
		return fmt.Errorf("max_rows, sample_rows and histogram_bins must be >= 0")
	}
	switch strings.ToLower(c.LogFormat) {
	case "", "console", "json":
	default:
		return fmt.Errorf("log_format must be console or json, got %q", c.LogFormat)
	}
	return nil
}

// Set assigns a key from its string form.
func (c *Global) Set(key, val string) error {
	switch key {
	case "log_level":
		c.LogLevel = strings.ToLower(val)
	case "log_format":
		c.LogFormat = strings.ToLower(val)
	case "sessions_dir":
		c.SessionsDir = val
	case "delimiter":
		c.Delimiter = val
	case "na_values":
		c.NAValues = nil
		for _, s := range strings.Split(val, ",") {
			c.NAValues = append(c.NAValues, strings.TrimSpace(s))
		}
	case "decimal_separator":
		c.DecimalSeparator = val
	case "thousands_separator":
		c.ThousandsSeparator = val
	case "max_rows", "sample_rows", "histogram_bins":
		i, err := strconv.Atoi(val)
		if err != nil || i < 0 {
			return fmt.Errorf("invalid int for %s: %v", key, val)
		}
		switch key {
		case "max_rows":
			c.MaxRows = i
		case "sample_rows":
			c.SampleRows = i
		default:
			c.HistogramBins = i
		}
	case "prune_threshold", "iqr_multiplier":
		f, err := strconv.ParseFloat(val, 64)
		if err != nil {
			return fmt.Errorf("invalid float for %s: %w", key, err)
		}
		if key == "prune_threshold" {
			c.PruneThreshold = f
		} else {
			c.IQRMultiplier = f
		}
	default:
		return fmt.Errorf("unknown key: %s (known: %s)", key, strings.Join(sortedKeys(), ", "))
	}
	return c.Validate()
}

// Values returns key/value display pairs in Keys order.
func (c *Global) Values() [][2]string {
	na := "(pandas defaults)"
	if len(c.NAValues) > 0 {
		na = strings.Join(c.NAValues, ",")
	}
	delim := c.Delimiter
	if delim == "" {
		delim = "(auto)"
	}
	return [][2]string{
		{"log_level", c.LogLevel},
		{"log_format", c.LogFormat},
		{"sessions_dir", c.SessionsDir},
		{"delimiter", delim},
		{"na_values", na},
		{"decimal_separator", c.DecimalSeparator},
		{"thousands_separator", c.ThousandsSeparator},
		{"max_rows", strconv.Itoa(c.MaxRows)},
		{"sample_rows", strconv.Itoa(c.SampleRows)},
		{"prune_threshold", strconv.FormatFloat(c.PruneThreshold, 'g', -1, 64)},
		{"iqr_multiplier", strconv.FormatFloat(c.IQRMultiplier, 'g', -1, 64)},
		{"histogram_bins", strconv.Itoa(c.HistogramBins)},
	}
}

func sortedKeys() []string {
	out := append([]string(nil), Keys...)
	sort.Strings(out)
	return out
}

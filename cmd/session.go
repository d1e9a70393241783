package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/KaramelBytes/edaloom-cli/internal/analysis"
	"github.com/KaramelBytes/edaloom-cli/internal/cleaning"
	"github.com/KaramelBytes/edaloom-cli/internal/dataset"
	"github.com/KaramelBytes/edaloom-cli/internal/session"
	"github.com/KaramelBytes/edaloom-cli/internal/utils"
	"github.com/spf13/cobra"
)

var (
	sesName       string
	sesMissing    string
	sesDedupe     bool
	sesPrune      bool
	sesPruneThr   float64
	sesOutput     string
	sesOutDelim   string
	sesJSON       bool
	sesSampleRows int
)

var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Keep a cleaned working copy of a dataset across commands",
}

var sessionInitCmd = &cobra.Command{
	Use:   "init <name> <file>",
	Short: "Start a session from a CSV/TSV file",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		root, err := sessionsRoot()
		if err != nil {
			return err
		}
		ro, err := readOptions()
		if err != nil {
			return err
		}
		src := session.SourceOptions{
			Delimiter: cfg.Delimiter,
			NAValues:  cfg.NAValues,
			MaxRows:   cfg.MaxRows,
		}
		if ro.DecimalSeparator != 0 {
			src.DecimalSeparator = string(ro.DecimalSeparator)
		}
		if ro.ThousandsSeparator != 0 {
			src.ThousandsSeparator = string(ro.ThousandsSeparator)
		}
		s, err := session.New(root, args[0], args[1], src)
		if err != nil {
			return err
		}
		ds, err := s.Dataset()
		if err != nil {
			return err
		}
		log.WithField("session", s.ID).Debug("session created")
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Created session '%s' (%d rows, %d columns) at %s\n", s.Name, ds.Rows(), ds.Width(), s.RootDir())
		return nil
	},
}

var sessionApplyCmd = &cobra.Command{
	Use:   "apply",
	Short: "Apply cleaning steps to the session's working copy",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSession()
		if err != nil {
			return err
		}
		p, err := pipelineFromFlags(cmd, sesMissing, sesDedupe, sesPrune, sesPruneThr)
		if err != nil {
			return err
		}
		if (p.Missing == "" || p.Missing == cleaning.None) && !p.DropDuplicates && !p.PruneSparse {
			return fmt.Errorf("nothing to apply: use --missing, --dedupe or --prune")
		}
		ds, err := s.Dataset()
		if err != nil {
			return err
		}
		res, err := p.Run(ds)
		if err != nil {
			// working copy stays at its last committed state
			log.WithError(err).WithField("session", s.Name).Debug("apply failed")
			return err
		}
		if err := s.CommitSteps(res.Dataset, res.Steps...); err != nil {
			return fmt.Errorf("commit session: %w", err)
		}
		w := cmd.OutOrStdout()
		printDiagnostics(w, res.Steps)
		fmt.Fprintf(w, "Session '%s': %d rows, %d columns, %d steps applied\n", s.Name, res.Dataset.Rows(), res.Dataset.Width(), len(s.History))
		return nil
	},
}

var sessionShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show session metadata, history and the working copy summary",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSession()
		if err != nil {
			return err
		}
		if sesJSON {
			return writeJSON(cmd, s)
		}
		ds, err := s.Dataset()
		if err != nil {
			return err
		}
		w := cmd.OutOrStdout()
		fmt.Fprintf(w, "Session: %s (%s)\n", s.Name, s.ID)
		fmt.Fprintf(w, "Source: %s\n", s.Source)
		fmt.Fprintf(w, "Created: %s, updated: %s\n", s.CreatedAt.Format("2006-01-02 15:04:05"), s.UpdatedAt.Format("2006-01-02 15:04:05"))
		if len(s.History) == 0 {
			fmt.Fprintln(w, "History: (none)")
		} else {
			fmt.Fprintln(w, "History:")
			for i, st := range s.History {
				fmt.Fprintf(w, "  %d. %s: %s\n", i+1, st.Diagnostics.Operation, st.Diagnostics.Message())
			}
		}
		fmt.Fprintln(w)
		if ds.Empty() {
			fmt.Fprintln(w, "Working copy is empty.")
			return nil
		}
		sum, err := analysis.Summarize(ds)
		if err != nil {
			return err
		}
		printInfo(w, sum)
		rows := cfg.SampleRows
		if cmd.Flags().Changed("sample-rows") {
			rows = sesSampleRows
		}
		if rows > 0 {
			fmt.Fprintln(w)
			printHead(w, ds, rows)
		}
		return nil
	},
}

var sessionExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write the session's working copy to a CSV/TSV file",
	RunE: func(cmd *cobra.Command, args []string) error {
		if sesOutput == "" {
			return fmt.Errorf("--output is required")
		}
		s, err := openSession()
		if err != nil {
			return err
		}
		delim, err := dataset.ParseDelimiter(sesOutDelim)
		if err != nil {
			return err
		}
		if err := s.Export(sesOutput, delim); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Exported session '%s' to %s\n", s.Name, sesOutput)
		return nil
	},
}

var sessionResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Reload the source file and clear the session history",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSession()
		if err != nil {
			return err
		}
		if err := s.Reset(); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Reset session '%s' from %s\n", s.Name, s.Source)
		return nil
	},
}

var sessionListCmd = &cobra.Command{
	Use:   "list",
	Short: "List sessions",
	RunE: func(cmd *cobra.Command, args []string) error {
		root, err := sessionsRoot()
		if err != nil {
			return err
		}
		list, err := session.List(root)
		if err != nil {
			return err
		}
		w := cmd.OutOrStdout()
		if len(list) == 0 {
			fmt.Fprintln(w, "(no sessions)")
			return nil
		}
		for _, s := range list {
			fmt.Fprintf(w, "- %s: %s (%d steps, updated %s)\n", s.Name, filepath.Base(s.Source), len(s.History), s.UpdatedAt.Format("2006-01-02 15:04"))
		}
		return nil
	},
}

// sessionsRoot resolves sessions_dir, expanding a leading ~.
func sessionsRoot() (string, error) {
	dir := ""
	if cfg != nil {
		dir = cfg.SessionsDir
	}
	if dir == "" || strings.HasPrefix(dir, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		if dir == "" {
			dir = filepath.Join(home, ".edaloom", "sessions")
		} else {
			dir = strings.TrimPrefix(dir, "~")
			dir = strings.TrimPrefix(dir, string(os.PathSeparator))
			dir = strings.TrimPrefix(dir, "/")
			dir = filepath.Join(home, dir)
		}
	}
	return filepath.Clean(dir), nil
}

// openSession loads the session named by --session, or the one enclosing the
// working directory when the flag is omitted.
func openSession() (*session.Session, error) {
	return openNamedSession(sesName)
}

func openNamedSession(name string) (*session.Session, error) {
	if name == "" {
		dir, err := utils.FindRoot("", session.MetaFileName)
		if err != nil {
			if errors.Is(err, utils.ErrNotFound) {
				return nil, fmt.Errorf("--session is required outside a session directory")
			}
			return nil, err
		}
		return session.Load(dir)
	}
	if !session.ValidName(name) {
		return nil, fmt.Errorf("invalid session name %q", name)
	}
	root, err := sessionsRoot()
	if err != nil {
		return nil, err
	}
	return session.Load(session.Dir(root, name))
}

// anSession names the session whose working copy an analysis command reads.
var anSession string

func addSessionFlag(c *cobra.Command) {
	c.Flags().StringVarP(&anSession, "session", "s", "", "analyse this session's working copy instead of a file")
}

// loadInput reads the file argument, or the working copy of the session
// given with --session.
func loadInput(cmd *cobra.Command, args []string) (*dataset.Dataset, error) {
	if !cmd.Flags().Changed("session") {
		if len(args) != 1 {
			return nil, fmt.Errorf("expected one input file or --session")
		}
		return loadDataset(args[0])
	}
	if len(args) > 0 {
		return nil, fmt.Errorf("pass either a file or --session, not both")
	}
	s, err := openNamedSession(anSession)
	if err != nil {
		return nil, err
	}
	ds, err := s.Dataset()
	if err != nil {
		return nil, err
	}
	log.WithField("session", s.Name).WithField("steps", len(s.History)).Debug("working copy loaded")
	return ds, nil
}

func init() {
	rootCmd.AddCommand(sessionCmd)
	sessionCmd.AddCommand(sessionInitCmd, sessionApplyCmd, sessionShowCmd, sessionExportCmd, sessionResetCmd, sessionListCmd)

	for _, c := range []*cobra.Command{sessionApplyCmd, sessionShowCmd, sessionExportCmd, sessionResetCmd} {
		c.Flags().StringVarP(&sesName, "session", "s", "", "session name (default: the session enclosing the working directory)")
	}
	sessionApplyCmd.Flags().StringVar(&sesMissing, "missing", "", "missing values: none|mode|median|drop|ffill|bfill")
	sessionApplyCmd.Flags().BoolVar(&sesDedupe, "dedupe", false, "remove duplicate rows")
	sessionApplyCmd.Flags().BoolVar(&sesPrune, "prune", false, "drop columns with too few non-missing values")
	sessionApplyCmd.Flags().Float64Var(&sesPruneThr, "prune-threshold", 0.3, "minimum non-missing fraction a column needs to be kept")
	sessionShowCmd.Flags().BoolVar(&sesJSON, "json", false, "print session metadata as JSON")
	sessionShowCmd.Flags().IntVar(&sesSampleRows, "sample-rows", 5, "preview rows (default from config)")
	sessionExportCmd.Flags().StringVarP(&sesOutput, "output", "o", "", "destination CSV/TSV path (required)")
	sessionExportCmd.Flags().StringVar(&sesOutDelim, "output-delimiter", "", "delimiter for the export (default: by extension)")
}

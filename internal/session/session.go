package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"time"

	"github.com/KaramelBytes/edaloom-cli/internal/cleaning"
	"github.com/KaramelBytes/edaloom-cli/internal/dataset"
	"github.com/KaramelBytes/edaloom-cli/internal/utils"
	"github.com/google/uuid"
)

const (
	// MetaFileName marks a session directory.
	MetaFileName = "session.json"
	// legacyWorking is the working copy of sessions written before
	// working files were versioned.
	legacyWorking = "working.csv"
)

// ErrNotFound is returned when a session directory has no session.json.
var ErrNotFound = errors.New("session not found")

var validName = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]*$`)

// Session is a named working copy of a dataset plus the steps applied to it.
// Each commit writes a new working file; session.json names the current one,
// so the metadata write is the commit point and a failed step or a failed
// write leaves the last good state in place.
type Session struct {
	ID        string        `json:"id"`
	Name      string        `json:"name"`
	Source    string        `json:"source"`
	Read      SourceOptions `json:"read"`
	Working   string        `json:"working,omitempty"`
	Schema    []ColumnKind  `json:"schema"`
	History   []Step        `json:"history"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`

	rootDir string
	data    *dataset.Dataset
}

// SourceOptions records how the source file was parsed so Reset can reload it.
type SourceOptions struct {
	Delimiter          string   `json:"delimiter,omitempty"`
	NAValues           []string `json:"na_values,omitempty"`
	DecimalSeparator   string   `json:"decimal_separator,omitempty"`
	ThousandsSeparator string   `json:"thousands_separator,omitempty"`
	MaxRows            int      `json:"max_rows,omitempty"`
}

// ColumnKind pins a working column's kind across reloads.
type ColumnKind struct {
	Name string       `json:"name"`
	Kind dataset.Kind `json:"kind"`
}

// Step is one committed operation.
type Step struct {
	ID          string               `json:"id"`
	At          time.Time            `json:"at"`
	Diagnostics cleaning.Diagnostics `json:"diagnostics"`
}

// ValidName reports whether name can be used as a session directory name.
func ValidName(name string) bool { return validName.MatchString(name) }

// Dir returns the directory of a named session under root.
func Dir(root, name string) string { return filepath.Join(root, name) }

// New loads source, writes the initial working copy and metadata under
// root/name and returns the session. An existing session is an error.
func New(root, name, source string, opt SourceOptions) (*Session, error) {
	if !ValidName(name) {
		return nil, fmt.Errorf("invalid session name %q", name)
	}
	dir := Dir(root, name)
	if _, err := os.Stat(filepath.Join(dir, MetaFileName)); err == nil {
		return nil, fmt.Errorf("session %q already exists at %s", name, dir)
	}
	abs, err := filepath.Abs(source)
	if err != nil {
		return nil, fmt.Errorf("resolve source: %w", err)
	}
	ro, err := opt.readOptions()
	if err != nil {
		return nil, err
	}
	ds, err := dataset.LoadFile(abs, ro)
	if err != nil {
		return nil, err
	}
	now := time.Now()
	s := &Session{
		ID:        uuid.NewString(),
		Name:      name,
		Source:    abs,
		Read:      opt,
		History:   []Step{},
		CreatedAt: now,
		UpdatedAt: now,
		rootDir:   dir,
	}
	if err := s.store(ds); err != nil {
		return nil, err
	}
	return s, nil
}

// Load reads session metadata from dir. The working dataset is read lazily.
func Load(dir string) (*Session, error) {
	path := filepath.Join(dir, MetaFileName)
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%s: %w", dir, ErrNotFound)
		}
		return nil, fmt.Errorf("read session: %w", err)
	}
	var s Session
	if err := json.Unmarshal(b, &s); err != nil {
		return nil, fmt.Errorf("parse session: %w", err)
	}
	s.rootDir = dir
	return &s, nil
}

// List returns the sessions found directly under root, sorted by name.
// A missing root yields an empty list.
func List(root string) ([]*Session, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read sessions dir: %w", err)
	}
	var out []*Session
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		s, err := Load(filepath.Join(root, e.Name()))
		if err != nil {
			continue
		}
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// RootDir returns the on-disk session directory.
func (s *Session) RootDir() string { return s.rootDir }

// WorkingPath is the path of the current working CSV.
func (s *Session) WorkingPath() string {
	name := s.Working
	if name == "" {
		name = legacyWorking
	}
	return filepath.Join(s.rootDir, name)
}

// Dataset returns a copy of the current working dataset.
func (s *Session) Dataset() (*dataset.Dataset, error) {
	if s.data == nil {
		ro := dataset.ReadOptions{Delimiter: ',', NAValues: []string{""}, Kinds: map[string]dataset.Kind{}}
		for _, c := range s.Schema {
			ro.Kinds[c.Name] = c.Kind
		}
		ds, err := dataset.LoadFile(s.WorkingPath(), ro)
		if err != nil {
			return nil, fmt.Errorf("load working copy: %w", err)
		}
		ds.Name = filepath.Base(s.Source)
		s.data = ds
	}
	return s.data.Clone(), nil
}

// Commit records a successful result as the new working copy.
func (s *Session) Commit(res *cleaning.Result) error {
	if res == nil || res.Dataset == nil {
		return errors.New("nothing to commit")
	}
	return s.CommitSteps(res.Dataset, res.Diagnostics)
}

// CommitSteps records a pipeline run: the final dataset and one history
// entry per step.
func (s *Session) CommitSteps(ds *dataset.Dataset, steps ...cleaning.Diagnostics) error {
	now := time.Now()
	history := append([]Step(nil), s.History...)
	for _, d := range steps {
		history = append(history, Step{ID: uuid.NewString(), At: now, Diagnostics: d})
	}
	prev := s.History
	s.History = history
	if err := s.store(ds); err != nil {
		s.History = prev
		return err
	}
	return nil
}

// Reset reloads the source file and clears history.
func (s *Session) Reset() error {
	ro, err := s.Read.readOptions()
	if err != nil {
		return err
	}
	ds, err := dataset.LoadFile(s.Source, ro)
	if err != nil {
		return fmt.Errorf("reload source: %w", err)
	}
	prev := s.History
	s.History = []Step{}
	if err := s.store(ds); err != nil {
		s.History = prev
		return err
	}
	return nil
}

// Export writes the working copy to path.
func (s *Session) Export(path string, delim rune) error {
	ds, err := s.Dataset()
	if err != nil {
		return err
	}
	return dataset.SaveFile(path, ds, delim)
}

// store writes ds to a fresh working file, then points session.json at it.
// The previous working file is removed only after the metadata is written.
func (s *Session) store(ds *dataset.Dataset) error {
	if s.rootDir == "" {
		return errors.New("session root directory not set")
	}
	if err := utils.EnsureDir(s.rootDir); err != nil {
		return fmt.Errorf("ensure dir: %w", err)
	}
	oldPath := s.WorkingPath()
	prevWorking, prevSchema, prevUpdated := s.Working, s.Schema, s.UpdatedAt
	next := "working-" + uuid.NewString()[:8] + ".csv"
	nextPath := filepath.Join(s.rootDir, next)
	if err := dataset.SaveFile(nextPath, ds, ','); err != nil {
		return fmt.Errorf("write working copy: %w", err)
	}
	schema := make([]ColumnKind, 0, ds.Width())
	for _, c := range ds.Columns {
		schema = append(schema, ColumnKind{Name: c.Name, Kind: c.Kind})
	}
	s.Working, s.Schema, s.UpdatedAt = next, schema, time.Now()
	data, err := utils.PrettyJSON(s)
	if err == nil {
		err = utils.SafeWriteFile(filepath.Join(s.rootDir, MetaFileName), data)
	}
	if err != nil {
		s.Working, s.Schema, s.UpdatedAt = prevWorking, prevSchema, prevUpdated
		_ = os.Remove(nextPath)
		return fmt.Errorf("write session metadata: %w", err)
	}
	if oldPath != nextPath {
		_ = os.Remove(oldPath)
	}
	s.data = ds.Clone()
	s.data.Name = filepath.Base(s.Source)
	return nil
}

func (o SourceOptions) readOptions() (dataset.ReadOptions, error) {
	ro := dataset.ReadOptions{NAValues: o.NAValues, MaxRows: o.MaxRows}
	d, err := dataset.ParseDelimiter(o.Delimiter)
	if err != nil {
		return ro, err
	}
	ro.Delimiter = d
	ro.DecimalSeparator, err = singleRune("decimal_separator", o.DecimalSeparator)
	if err != nil {
		return ro, err
	}
	ro.ThousandsSeparator, err = singleRune("thousands_separator", o.ThousandsSeparator)
	return ro, err
}

func singleRune(key, s string) (rune, error) {
	r := []rune(s)
	switch len(r) {
	case 0:
		return 0, nil
	case 1:
		return r[0], nil
	}
	return 0, fmt.Errorf("%s must be a single character, got %q", key, s)
}

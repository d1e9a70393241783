package dataset

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/KaramelBytes/edaloom-cli/internal/utils"
)

// DefaultNAValues mirrors the tokens pandas treats as missing by default.
var DefaultNAValues = []string{
	"", "#N/A", "#N/A N/A", "#NA", "-1.#IND", "-1.#QNAN", "-NaN", "-nan",
	"1.#IND", "1.#QNAN", "<NA>", "N/A", "NA", "NULL", "NaN", "None", "n/a",
	"nan", "null",
}

// ReadOptions controls CSV parsing.
type ReadOptions struct {
	// Delimiter for CSV. If 0, picked from the file extension ('\t' for .tsv, ',' otherwise).
	Delimiter rune
	// NAValues are the tokens read as missing. Nil means DefaultNAValues.
	NAValues []string
	// DecimalSeparator for numbers; 0 means '.'.
	DecimalSeparator rune
	// ThousandsSeparator is stripped from numbers when set.
	ThousandsSeparator rune
	// MaxRows limits rows kept; 0 means unlimited.
	MaxRows int
	// Kinds pins the kind of named columns instead of inferring it.
	Kinds map[string]Kind
}

// DefaultReadOptions returns comma-separated parsing with the pandas NA set.
func DefaultReadOptions() ReadOptions {
	return ReadOptions{Delimiter: ',', NAValues: DefaultNAValues}
}

// LoadFile reads a CSV/TSV file from disk.
func LoadFile(path string, opt ReadOptions) (*Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open csv: %w", err)
	}
	defer f.Close()
	if opt.Delimiter == 0 {
		opt.Delimiter = SniffDelimiter(path)
	}
	d, err := ReadCSV(f, opt)
	if err != nil {
		return nil, err
	}
	d.Name = filepath.Base(path)
	return d, nil
}

// SniffDelimiter picks a delimiter from the file name.
func SniffDelimiter(path string) rune {
	if strings.HasSuffix(strings.ToLower(path), ".tsv") {
		return '\t'
	}
	return ','
}

// ParseDelimiter maps a user-facing delimiter name to a rune. Empty means auto.
func ParseDelimiter(s string) (rune, error) {
	switch s {
	case "":
		return 0, nil
	case ",", "comma":
		return ',', nil
	case "\t", "tab":
		return '\t', nil
	case ";", "semicolon":
		return ';', nil
	case "|", "pipe":
		return '|', nil
	default:
		return 0, fmt.Errorf("unsupported delimiter: %q (use ',' | ';' | 'tab' | '|')", s)
	}
}

// ReadCSV parses a header row followed by data rows and infers column kinds.
func ReadCSV(r io.Reader, opt ReadOptions) (*Dataset, error) {
	delim := opt.Delimiter
	if delim == 0 {
		delim = ','
	}
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	cr.Comma = delim

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return &Dataset{}, nil
		}
		return nil, fmt.Errorf("read header: %w", err)
	}
	names := headerNames(header)
	ncol := len(names)

	na := opt.NAValues
	if na == nil {
		na = DefaultNAValues
	}
	naSet := make(map[string]struct{}, len(na))
	for _, t := range na {
		naSet[t] = struct{}{}
	}

	raw := make([][]string, ncol)
	var warnings []string
	total := 0
	for {
		rec, err := cr.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("read row %d: %w", total+1, err)
		}
		total++
		if len(rec) > ncol {
			return nil, fmt.Errorf("read row %d: %d fields, header has %d", total, len(rec), ncol)
		}
		if opt.MaxRows > 0 && total > opt.MaxRows {
			continue
		}
		for j := 0; j < ncol; j++ {
			v := ""
			if j < len(rec) {
				v = strings.TrimSpace(rec[j])
			}
			raw[j] = append(raw[j], v)
		}
	}
	if opt.MaxRows > 0 && total > opt.MaxRows {
		warnings = append(warnings, fmt.Sprintf("processed only %d/%d rows due to MaxRows", opt.MaxRows, total))
	}

	cols := make([]Column, ncol)
	for j := range names {
		c, err := inferColumn(names[j], raw[j], naSet, opt)
		if err != nil {
			return nil, err
		}
		cols[j] = c
	}
	d, err := New("", cols)
	if err != nil {
		return nil, err
	}
	d.Warnings = warnings
	return d, nil
}

// headerNames fills blank names and de-duplicates repeats the way pandas does
// ("Unnamed: 3", "a.1").
func headerNames(header []string) []string {
	out := make([]string, len(header))
	seen := make(map[string]int, len(header))
	for i, h := range header {
		name := strings.TrimSpace(h)
		if i == 0 {
			name = strings.TrimPrefix(name, "\ufeff")
		}
		if name == "" {
			name = fmt.Sprintf("Unnamed: %d", i)
		}
		base := name
		if _, dup := seen[name]; dup {
			for k := seen[base] + 1; ; k++ {
				cand := fmt.Sprintf("%s.%d", base, k)
				if _, taken := seen[cand]; !taken {
					seen[base] = k
					name = cand
					break
				}
			}
		}
		seen[name] = 0
		out[i] = name
	}
	return out
}

func inferColumn(name string, raw []string, na map[string]struct{}, opt ReadOptions) (Column, error) {
	forced, pinned := opt.Kinds[name]
	vals := make([]Value, len(raw))
	numeric := !pinned || forced == KindNumeric
	for i, s := range raw {
		if !numeric {
			break
		}
		if _, ok := na[s]; ok {
			continue
		}
		f, ok := parseNumeric(s, opt)
		if !ok {
			if pinned {
				return Column{}, fmt.Errorf("column %q row %d: %q is not numeric", name, i+1, s)
			}
			numeric = false
			break
		}
		vals[i] = Number(f)
	}
	if numeric {
		return Column{Name: name, Kind: KindNumeric, Values: vals}, nil
	}
	for i, s := range raw {
		if _, ok := na[s]; ok {
			vals[i] = Missing()
			continue
		}
		vals[i] = String(s)
	}
	return Column{Name: name, Kind: KindText, Values: vals}, nil
}

func parseNumeric(s string, opt ReadOptions) (float64, bool) {
	raw := strings.TrimSpace(s)
	if raw == "" {
		return 0, false
	}
	if opt.ThousandsSeparator != 0 {
		raw = strings.ReplaceAll(raw, string(opt.ThousandsSeparator), "")
	}
	if opt.DecimalSeparator != 0 && opt.DecimalSeparator != '.' {
		if strings.Contains(raw, ".") {
			return 0, false
		}
		raw = strings.ReplaceAll(raw, string(opt.DecimalSeparator), ".")
	}
	// hex floats and digit separators are valid Go syntax but not CSV numbers
	lower := strings.ToLower(raw)
	if strings.Contains(lower, "0x") || strings.Contains(raw, "_") {
		return 0, false
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(f) {
		return 0, false
	}
	return f, true
}

// WriteCSV writes the header and rows. Missing cells are written empty.
func WriteCSV(w io.Writer, d *Dataset, delim rune) error {
	if delim == 0 {
		delim = ','
	}
	cw := csv.NewWriter(w)
	cw.Comma = delim
	if err := cw.Write(d.Names()); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	rec := make([]string, d.Width())
	for i := 0; i < d.Rows(); i++ {
		for j, c := range d.Columns {
			rec[j] = c.Values[i].Format(c.Kind)
		}
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("write row %d: %w", i+1, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// SaveFile atomically writes the dataset as CSV to path.
func SaveFile(path string, d *Dataset, delim rune) error {
	if delim == 0 {
		delim = SniffDelimiter(path)
	}
	var buf bytes.Buffer
	if err := WriteCSV(&buf, d, delim); err != nil {
		return err
	}
	return utils.SafeWriteFile(path, buf.Bytes())
}

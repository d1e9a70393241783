package dataset

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Kind is the inferred type of a column.
type Kind string

const (
	KindNumeric Kind = "numeric"
	KindText    Kind = "text"
)

// Value is a single cell. Valid is false for missing cells.
type Value struct {
	Num   float64
	Text  string
	Valid bool
}

// Missing returns a missing cell.
func Missing() Value { return Value{} }

// Number returns a present numeric cell.
func Number(f float64) Value { return Value{Num: f, Valid: true} }

// String returns a present text cell.
func String(s string) Value { return Value{Text: s, Valid: true} }

// Key returns a canonical identity for the cell. Missing cells share one key
// so that two rows with gaps in the same places compare equal.
func (v Value) Key(k Kind) string {
	if !v.Valid {
		return "\x00NA"
	}
	if k == KindNumeric {
		return "n:" + formatFloat(v.Num)
	}
	return "s:" + v.Text
}

// Format renders the cell for CSV output and previews.
func (v Value) Format(k Kind) string {
	if !v.Valid {
		return ""
	}
	if k == KindNumeric {
		return formatFloat(v.Num)
	}
	return v.Text
}

func formatFloat(f float64) string {
	if f == 0 {
		// -0 and 0 are the same value
		return "0"
	}
	if math.IsInf(f, 1) {
		return "inf"
	}
	if math.IsInf(f, -1) {
		return "-inf"
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// Column is a named, typed sequence of cells.
type Column struct {
	Name   string
	Kind   Kind
	Values []Value
}

// NonMissing counts present cells.
func (c *Column) NonMissing() int {
	n := 0
	for _, v := range c.Values {
		if v.Valid {
			n++
		}
	}
	return n
}

// Missing counts absent cells.
func (c *Column) Missing() int { return len(c.Values) - c.NonMissing() }

// Numbers returns the present numeric cells in row order.
func (c *Column) Numbers() []float64 {
	out := make([]float64, 0, len(c.Values))
	for _, v := range c.Values {
		if v.Valid {
			out = append(out, v.Num)
		}
	}
	return out
}

func (c Column) clone() Column {
	vals := make([]Value, len(c.Values))
	copy(vals, c.Values)
	return Column{Name: c.Name, Kind: c.Kind, Values: vals}
}

// Dataset is an ordered set of equal-length columns. Operations in this
// module never modify a Dataset in place; they return a new one.
type Dataset struct {
	Name     string
	Columns  []Column
	Warnings []string
}

// New validates that all columns have the same length and distinct names.
func New(name string, cols []Column) (*Dataset, error) {
	seen := make(map[string]struct{}, len(cols))
	for i, c := range cols {
		if _, dup := seen[c.Name]; dup {
			return nil, fmt.Errorf("duplicate column name %q", c.Name)
		}
		seen[c.Name] = struct{}{}
		if i > 0 && len(c.Values) != len(cols[0].Values) {
			return nil, fmt.Errorf("column %q has %d rows, want %d", c.Name, len(c.Values), len(cols[0].Values))
		}
		if c.Kind != KindNumeric && c.Kind != KindText {
			return nil, fmt.Errorf("column %q has unknown kind %q", c.Name, c.Kind)
		}
	}
	return &Dataset{Name: name, Columns: cols}, nil
}

// Rows returns the row count.
func (d *Dataset) Rows() int {
	if d == nil || len(d.Columns) == 0 {
		return 0
	}
	return len(d.Columns[0].Values)
}

// Width returns the column count.
func (d *Dataset) Width() int {
	if d == nil {
		return 0
	}
	return len(d.Columns)
}

// Empty reports whether the dataset has no rows or no columns.
func (d *Dataset) Empty() bool { return d.Rows() == 0 || d.Width() == 0 }

// Column looks up a column by name.
func (d *Dataset) Column(name string) (*Column, bool) {
	for i := range d.Columns {
		if d.Columns[i].Name == name {
			return &d.Columns[i], true
		}
	}
	return nil, false
}

// Names returns column names in order.
func (d *Dataset) Names() []string {
	out := make([]string, len(d.Columns))
	for i, c := range d.Columns {
		out[i] = c.Name
	}
	return out
}

// NumericColumns returns the names of numeric columns in order.
func (d *Dataset) NumericColumns() []string {
	var out []string
	for _, c := range d.Columns {
		if c.Kind == KindNumeric {
			out = append(out, c.Name)
		}
	}
	return out
}

// Row returns the cells of row i.
func (d *Dataset) Row(i int) []Value {
	out := make([]Value, len(d.Columns))
	for j, c := range d.Columns {
		out[j] = c.Values[i]
	}
	return out
}

// RowKey returns the canonical identity of row i across all columns.
func (d *Dataset) RowKey(i int) string {
	var b strings.Builder
	for j, c := range d.Columns {
		if j > 0 {
			b.WriteByte('\x1f')
		}
		b.WriteString(c.Values[i].Key(c.Kind))
	}
	return b.String()
}

// MissingCount returns per-column missing counts and the total.
func (d *Dataset) MissingCount() (map[string]int, int) {
	per := make(map[string]int, len(d.Columns))
	total := 0
	for i := range d.Columns {
		m := d.Columns[i].Missing()
		per[d.Columns[i].Name] = m
		total += m
	}
	return per, total
}

// Clone deep-copies the dataset.
func (d *Dataset) Clone() *Dataset {
	cols := make([]Column, len(d.Columns))
	for i, c := range d.Columns {
		cols[i] = c.clone()
	}
	var warns []string
	if len(d.Warnings) > 0 {
		warns = append(warns, d.Warnings...)
	}
	return &Dataset{Name: d.Name, Columns: cols, Warnings: warns}
}

// SelectRows builds a dataset containing only the given rows, in order.
func (d *Dataset) SelectRows(idx []int) *Dataset {
	cols := make([]Column, len(d.Columns))
	for j, c := range d.Columns {
		vals := make([]Value, len(idx))
		for k, i := range idx {
			vals[k] = c.Values[i]
		}
		cols[j] = Column{Name: c.Name, Kind: c.Kind, Values: vals}
	}
	out := &Dataset{Name: d.Name, Columns: cols}
	if len(d.Warnings) > 0 {
		out.Warnings = append(out.Warnings, d.Warnings...)
	}
	return out
}

// DropColumns returns a copy without the named columns.
func (d *Dataset) DropColumns(names ...string) *Dataset {
	drop := make(map[string]struct{}, len(names))
	for _, n := range names {
		drop[n] = struct{}{}
	}
	out := &Dataset{Name: d.Name}
	for _, c := range d.Columns {
		if _, ok := drop[c.Name]; ok {
			continue
		}
		out.Columns = append(out.Columns, c.clone())
	}
	if len(d.Warnings) > 0 {
		out.Warnings = append(out.Warnings, d.Warnings...)
	}
	return out
}

// Head returns a copy limited to the first n rows.
func (d *Dataset) Head(n int) *Dataset {
	if n < 0 || n > d.Rows() {
		n = d.Rows()
	}
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	return d.SelectRows(idx)
}

// Equal compares structure and cell values. Warnings and Name are ignored.
func (d *Dataset) Equal(o *Dataset) bool {
	if d.Width() != o.Width() || d.Rows() != o.Rows() {
		return false
	}
	for j := range d.Columns {
		a, b := d.Columns[j], o.Columns[j]
		if a.Name != b.Name || a.Kind != b.Kind {
			return false
		}
		for i := range a.Values {
			if a.Values[i].Key(a.Kind) != b.Values[i].Key(b.Kind) {
				return false
			}
		}
	}
	return true
}

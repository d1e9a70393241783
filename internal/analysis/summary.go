package analysis

import (
	"math"
	"sort"

	"github.com/KaramelBytes/edaloom-cli/internal/dataset"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// maxTopValues caps the category list kept per text column.
const maxTopValues = 8

// Summary is the descriptive overview of a dataset.
type Summary struct {
	Name         string          `json:"name,omitempty"`
	Rows         int             `json:"rows"`
	Columns      int             `json:"columns"`
	Missing      map[string]int  `json:"missing"`
	TotalMissing int             `json:"total_missing"`
	Cols         []ColumnSummary `json:"column_stats"`
	Warnings     []string        `json:"warnings,omitempty"`
}

// ColumnSummary captures inferred type and statistics per column.
type ColumnSummary struct {
	Name    string       `json:"name"`
	Kind    dataset.Kind `json:"kind"`
	NonNull int          `json:"count"`
	Missing int          `json:"missing"`
	Unique  int          `json:"unique"`
	// Numeric stats
	Mean   Float `json:"mean"`
	Std    Float `json:"std"`
	Min    Float `json:"min"`
	Q1     Float `json:"q1"`
	Median Float `json:"median"`
	Q3     Float `json:"q3"`
	Max    Float `json:"max"`
	// Text stats
	Top       string          `json:"top,omitempty"`
	Freq      int             `json:"freq,omitempty"`
	TopValues []CategoryCount `json:"top_values,omitempty"`
}

// MissingPct is the share of missing cells in percent.
func (c ColumnSummary) MissingPct() float64 {
	total := c.NonNull + c.Missing
	if total == 0 {
		return 0
	}
	return float64(c.Missing) * 100.0 / float64(total)
}

// CategoryCount is a value with its frequency.
type CategoryCount struct {
	Value string `json:"value"`
	Count int    `json:"count"`
}

// Summarize computes row/column counts, missingness and per-column
// descriptive statistics.
func Summarize(ds *dataset.Dataset) (*Summary, error) {
	if err := dataset.RequireData(ds, "summarize"); err != nil {
		return nil, err
	}
	per, total := ds.MissingCount()
	s := &Summary{
		Name:         ds.Name,
		Rows:         ds.Rows(),
		Columns:      ds.Width(),
		Missing:      per,
		TotalMissing: total,
		Cols:         make([]ColumnSummary, 0, ds.Width()),
	}
	if len(ds.Warnings) > 0 {
		s.Warnings = append(s.Warnings, ds.Warnings...)
	}
	for i := range ds.Columns {
		s.Cols = append(s.Cols, describeColumn(&ds.Columns[i]))
	}
	return s, nil
}

// Column returns the summary for the named column.
func (s *Summary) Column(name string) (ColumnSummary, bool) {
	for _, c := range s.Cols {
		if c.Name == name {
			return c, true
		}
	}
	return ColumnSummary{}, false
}

func describeColumn(c *dataset.Column) ColumnSummary {
	cs := ColumnSummary{Name: c.Name, Kind: c.Kind, NonNull: c.NonMissing(), Missing: c.Missing()}
	tops := countValues(c)
	cs.Unique = len(tops)
	if c.Kind == dataset.KindNumeric {
		describeNumeric(&cs, c)
		return cs
	}
	cs.Mean, cs.Std, cs.Min, cs.Q1, cs.Median, cs.Q3, cs.Max = nan, nan, nan, nan, nan, nan, nan
	if len(tops) > 0 {
		cs.Top = tops[0].Value
		cs.Freq = tops[0].Count
	}
	if len(tops) > maxTopValues {
		tops = tops[:maxTopValues]
	}
	cs.TopValues = tops
	return cs
}

func describeNumeric(cs *ColumnSummary, c *dataset.Column) {
	vals := sortedNumbers(c)
	if len(vals) == 0 {
		cs.Mean, cs.Std, cs.Min, cs.Q1, cs.Median, cs.Q3, cs.Max = nan, nan, nan, nan, nan, nan, nan
		return
	}
	mean, std := stat.MeanStdDev(vals, nil)
	if len(vals) < 2 {
		std = math.NaN()
	}
	cs.Mean = Float(mean)
	cs.Std = Float(std)
	cs.Min = Float(floats.Min(vals))
	cs.Max = Float(floats.Max(vals))
	cs.Q1 = Float(quantile(vals, 0.25))
	cs.Median = Float(quantile(vals, 0.5))
	cs.Q3 = Float(quantile(vals, 0.75))
}

// countValues returns present values with counts, most frequent first and
// ties in order of first appearance.
func countValues(c *dataset.Column) []CategoryCount {
	index := make(map[string]int)
	var out []CategoryCount
	for _, v := range c.Values {
		if !v.Valid {
			continue
		}
		k := v.Format(c.Kind)
		if i, ok := index[k]; ok {
			out[i].Count++
			continue
		}
		index[k] = len(out)
		out = append(out, CategoryCount{Value: k, Count: 1})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Count > out[j].Count })
	return out
}

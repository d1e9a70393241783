package analysis

import (
	"fmt"

	"github.com/KaramelBytes/edaloom-cli/internal/dataset"
	"github.com/montanaflynn/stats"
)

// DefaultIQRMultiplier is the Tukey fence factor.
const DefaultIQRMultiplier = 1.5

// OutlierOptions controls IQR fences. Multiplier 0 means DefaultIQRMultiplier.
type OutlierOptions struct {
	Multiplier float64
}

func (o OutlierOptions) multiplier() float64 {
	if o.Multiplier <= 0 {
		return DefaultIQRMultiplier
	}
	return o.Multiplier
}

// ColumnOutliers holds IQR bounds, box statistics and the values outside
// the bounds for one numeric column.
type ColumnOutliers struct {
	Column  string `json:"column"`
	NonNull int    `json:"count"`
	Count   int    `json:"outliers"`

	Q1    Float `json:"q1"`
	Q3    Float `json:"q3"`
	IQR   Float `json:"iqr"`
	Lower Float `json:"lower"`
	Upper Float `json:"upper"`

	// Box plot statistics; whiskers end at the most extreme values inside the bounds.
	Min         Float `json:"min"`
	WhiskerLow  Float `json:"whisker_low"`
	Median      Float `json:"median"`
	WhiskerHigh Float `json:"whisker_high"`
	Max         Float `json:"max"`

	Rows   []int     `json:"rows,omitempty"`
	Values []float64 `json:"values,omitempty"`
}

// OutlierReport lists per-column outlier diagnostics in column order.
type OutlierReport struct {
	Multiplier float64          `json:"multiplier"`
	Columns    []ColumnOutliers `json:"columns"`
}

// Counts maps column name to the number of outliers.
func (r *OutlierReport) Counts() map[string]int {
	out := make(map[string]int, len(r.Columns))
	for _, c := range r.Columns {
		out[c.Column] = c.Count
	}
	return out
}

// Total sums outliers over all columns.
func (r *OutlierReport) Total() int {
	n := 0
	for _, c := range r.Columns {
		n += c.Count
	}
	return n
}

// Column returns the entry for a column name.
func (r *OutlierReport) Column(name string) (*ColumnOutliers, bool) {
	for i := range r.Columns {
		if r.Columns[i].Column == name {
			return &r.Columns[i], true
		}
	}
	return nil, false
}

// DetectOutliers counts, for every numeric column, the values strictly below
// Q1-k*IQR or strictly above Q3+k*IQR. The dataset is not modified. A zero
// IQR collapses the bounds onto Q1/Q3, so every value off the constant counts.
func DetectOutliers(ds *dataset.Dataset, opt OutlierOptions) (*OutlierReport, error) {
	if err := dataset.RequireData(ds, "outliers"); err != nil {
		return nil, err
	}
	rep := &OutlierReport{Multiplier: opt.multiplier()}
	for i := range ds.Columns {
		c := &ds.Columns[i]
		if c.Kind != dataset.KindNumeric {
			continue
		}
		co, err := ColumnOutlierStats(c, opt)
		if err != nil {
			return nil, err
		}
		rep.Columns = append(rep.Columns, *co)
	}
	return rep, nil
}

// ColumnOutlierStats computes bounds and box statistics for one column.
// An all-missing column reports zero outliers and undefined bounds.
func ColumnOutlierStats(c *dataset.Column, opt OutlierOptions) (*ColumnOutliers, error) {
	if c.Kind != dataset.KindNumeric {
		return nil, &dataset.TypeMismatchError{Column: c.Name, Op: "outliers", Kind: c.Kind}
	}
	co := &ColumnOutliers{Column: c.Name, NonNull: c.NonMissing()}
	sorted := sortedNumbers(c)
	if len(sorted) == 0 {
		co.Q1, co.Q3, co.IQR, co.Lower, co.Upper = nan, nan, nan, nan, nan
		co.Min, co.WhiskerLow, co.Median, co.WhiskerHigh, co.Max = nan, nan, nan, nan, nan
		return co, nil
	}
	q1, q3 := quantile(sorted, 0.25), quantile(sorted, 0.75)
	iqr := q3 - q1
	k := opt.multiplier()
	lower, upper := q1-k*iqr, q3+k*iqr
	med, err := stats.Median(sorted)
	if err != nil {
		return nil, fmt.Errorf("median of %q: %w", c.Name, err)
	}
	co.Q1, co.Q3, co.IQR = Float(q1), Float(q3), Float(iqr)
	co.Lower, co.Upper = Float(lower), Float(upper)
	co.Min, co.Max, co.Median = Float(sorted[0]), Float(sorted[len(sorted)-1]), Float(med)

	co.WhiskerLow, co.WhiskerHigh = nan, nan
	for _, v := range sorted {
		if v >= lower {
			co.WhiskerLow = Float(v)
			break
		}
	}
	for i := len(sorted) - 1; i >= 0; i-- {
		if sorted[i] <= upper {
			co.WhiskerHigh = Float(sorted[i])
			break
		}
	}

	for row, v := range c.Values {
		if !v.Valid {
			continue
		}
		if v.Num < lower || v.Num > upper {
			co.Count++
			co.Rows = append(co.Rows, row)
			co.Values = append(co.Values, v.Num)
		}
	}
	return co, nil
}

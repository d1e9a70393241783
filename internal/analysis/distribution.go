package analysis

import (
	"fmt"
	"math"

	"github.com/KaramelBytes/edaloom-cli/internal/dataset"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Bin is one equal-width histogram bucket, [Lower, Upper).
// The last bin also includes its upper edge.
type Bin struct {
	Lower Float `json:"lower"`
	Upper Float `json:"upper"`
	Count int   `json:"count"`
}

// Distribution is histogram data for a numeric column or category
// frequencies for a text column.
type Distribution struct {
	Column     string          `json:"column"`
	Kind       dataset.Kind    `json:"kind"`
	NonNull    int             `json:"count"`
	Missing    int             `json:"missing"`
	Bins       []Bin           `json:"bins,omitempty"`
	Categories []CategoryCount `json:"categories,omitempty"`
}

// ColumnDistribution builds the distribution of the named column. For numeric
// columns bins <= 0 picks the bin count with Sturges' rule.
func ColumnDistribution(ds *dataset.Dataset, column string, bins int) (*Distribution, error) {
	if err := dataset.RequireData(ds, "distribution"); err != nil {
		return nil, err
	}
	c, ok := ds.Column(column)
	if !ok {
		return nil, fmt.Errorf("column %q not found", column)
	}
	return distributionOf(c, bins), nil
}

func distributionOf(c *dataset.Column, bins int) *Distribution {
	d := &Distribution{Column: c.Name, Kind: c.Kind, NonNull: c.NonMissing(), Missing: c.Missing()}
	if c.Kind != dataset.KindNumeric {
		d.Categories = countValues(c)
		return d
	}
	d.Bins = histogram(sortedNumbers(c), bins)
	return d
}

// SturgesBins returns ceil(log2 n) + 1, at least 1.
func SturgesBins(n int) int {
	if n <= 1 {
		return 1
	}
	return int(math.Ceil(math.Log2(float64(n)))) + 1
}

func histogram(sorted []float64, bins int) []Bin {
	finite := sorted[:0:0]
	for _, v := range sorted {
		if !math.IsInf(v, 0) {
			finite = append(finite, v)
		}
	}
	if len(finite) == 0 {
		return nil
	}
	if bins <= 0 {
		bins = SturgesBins(len(finite))
	}
	lo, hi := finite[0], finite[len(finite)-1]
	if lo == hi {
		return []Bin{{Lower: Float(lo - 0.5), Upper: Float(hi + 0.5), Count: len(finite)}}
	}
	dividers := edges(lo, hi, bins)
	if dividers == nil {
		// the range is too narrow to split; keep every value in one bin
		return []Bin{{Lower: Float(lo), Upper: Float(hi), Count: len(finite)}}
	}
	counts := stat.Histogram(nil, dividers, finite, nil)
	out := make([]Bin, bins)
	for i := range out {
		out[i] = Bin{Lower: Float(dividers[i]), Upper: Float(dividers[i+1]), Count: int(counts[i])}
	}
	out[bins-1].Upper = Float(hi)
	return out
}

// edges returns bins+1 strictly increasing dividers over [lo, hi], or nil
// when the range cannot hold that many distinct edges.
func edges(lo, hi float64, bins int) []float64 {
	dividers := make([]float64, bins+1)
	if math.IsInf(hi-lo, 0) {
		// hi-lo overflows; interpolate on halves
		for i := range dividers {
			dividers[i] = 2 * (lo/2 + (hi/2-lo/2)*float64(i)/float64(bins))
		}
		dividers[0] = lo
	} else {
		floats.Span(dividers, lo, hi)
	}
	// stat.Histogram bins are half-open; nudge the last edge so max is counted.
	dividers[bins] = math.Nextafter(hi, math.Inf(1))
	for i := 1; i < len(dividers); i++ {
		if !(dividers[i] > dividers[i-1]) {
			return nil
		}
	}
	return dividers
}

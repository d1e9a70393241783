package analysis

import (
	"encoding/json"
	"math"
	"sort"
	"strconv"

	"github.com/KaramelBytes/edaloom-cli/internal/dataset"
)

// Float is a float64 that encodes NaN and ±Inf as JSON null.
type Float float64

func (f Float) MarshalJSON() ([]byte, error) {
	v := float64(f)
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return []byte("null"), nil
	}
	return json.Marshal(v)
}

// Defined reports whether the value is a finite number.
func (f Float) Defined() bool {
	return !math.IsNaN(float64(f)) && !math.IsInf(float64(f), 0)
}

func (f Float) String() string {
	if math.IsNaN(float64(f)) {
		return "NaN"
	}
	return strconv.FormatFloat(float64(f), 'g', 4, 64)
}

var nan = Float(math.NaN())

// Quartiles returns Q1 and Q3 of the column's present values.
func Quartiles(c *dataset.Column) (q1, q3 float64, err error) {
	if c.Kind != dataset.KindNumeric {
		return 0, 0, &dataset.TypeMismatchError{Column: c.Name, Op: "quartiles", Kind: c.Kind}
	}
	vals := sortedNumbers(c)
	if len(vals) == 0 {
		return 0, 0, &dataset.EmptyColumnError{Column: c.Name, Op: "quartiles"}
	}
	return quantile(vals, 0.25), quantile(vals, 0.75), nil
}

func sortedNumbers(c *dataset.Column) []float64 {
	vals := c.Numbers()
	sort.Float64s(vals)
	return vals
}

// quantile interpolates linearly between the closest ranks of a sorted slice.
func quantile(sorted []float64, q float64) float64 {
	if len(sorted) == 0 {
		return math.NaN()
	}
	if q <= 0 {
		return sorted[0]
	}
	if q >= 1 {
		return sorted[len(sorted)-1]
	}
	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	w := pos - float64(lo)
	return sorted[lo]*(1-w) + sorted[hi]*w
}

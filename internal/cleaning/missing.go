package cleaning

import (
	"fmt"
	"sort"

	"github.com/KaramelBytes/edaloom-cli/internal/dataset"
	"github.com/montanaflynn/stats"
)

// Operation names recorded in Diagnostics.
const (
	OpNone         = "missing-none"
	OpFillMode     = "fill-mode"
	OpFillMedian   = "fill-median"
	OpDropRows     = "drop-rows"
	OpForwardFill  = "forward-fill"
	OpBackwardFill = "backward-fill"
	OpDedupe       = "drop-duplicates"
	OpPrune        = "prune-columns"
)

func opFor(d Directive) string {
	switch d {
	case FillMode:
		return OpFillMode
	case FillMedian:
		return OpFillMedian
	case DropRows:
		return OpDropRows
	case ForwardFill:
		return OpForwardFill
	case BackwardFill:
		return OpBackwardFill
	default:
		return OpNone
	}
}

// ResolveMissing applies one directive to every column (or row) and returns
// a new dataset. The input is never modified; on error no result is returned.
func ResolveMissing(ds *dataset.Dataset, d Directive) (*Result, error) {
	op := opFor(d)
	if err := dataset.RequireData(ds, op); err != nil {
		return nil, err
	}
	var (
		out   *dataset.Dataset
		warns []string
		err   error
	)
	switch d {
	case None, "":
		out = ds.Clone()
	case FillMode:
		out, err = fillMode(ds)
	case FillMedian:
		out, warns, err = fillMedian(ds)
	case DropRows:
		out = dropIncompleteRows(ds)
	case ForwardFill:
		out = propagate(ds, true)
	case BackwardFill:
		out = propagate(ds, false)
	default:
		return nil, fmt.Errorf("unknown missing-value directive %q", d)
	}
	if err != nil {
		return nil, err
	}
	res := newResult(op, ds, out)
	res.Diagnostics.Warnings = warns
	return res, nil
}

func fillMode(ds *dataset.Dataset) (*dataset.Dataset, error) {
	out := ds.Clone()
	for j := range out.Columns {
		c := &out.Columns[j]
		if c.Missing() == 0 {
			continue
		}
		m, ok := Mode(c)
		if !ok {
			return nil, &dataset.EmptyColumnError{Column: c.Name, Op: OpFillMode}
		}
		fill(c, m)
	}
	return out, nil
}

func fillMedian(ds *dataset.Dataset) (*dataset.Dataset, []string, error) {
	for _, c := range ds.Columns {
		if c.Kind != dataset.KindNumeric {
			return nil, nil, &dataset.TypeMismatchError{Column: c.Name, Op: OpFillMedian, Kind: c.Kind}
		}
	}
	out := ds.Clone()
	var warns []string
	for j := range out.Columns {
		c := &out.Columns[j]
		if c.Missing() == 0 {
			continue
		}
		nums := c.Numbers()
		if len(nums) == 0 {
			warns = append(warns, fmt.Sprintf("column %q has no values; median undefined, left missing", c.Name))
			continue
		}
		med, err := stats.Median(nums)
		if err != nil {
			return nil, nil, fmt.Errorf("median of %q: %w", c.Name, err)
		}
		fill(c, dataset.Number(med))
	}
	return out, warns, nil
}

func fill(c *dataset.Column, v dataset.Value) {
	for i := range c.Values {
		if !c.Values[i].Valid {
			c.Values[i] = v
		}
	}
}

// Mode returns the most frequent non-missing value of the column. Ties go to
// the smallest value (numeric order for numbers, byte order for text).
func Mode(c *dataset.Column) (dataset.Value, bool) {
	counts := make(map[string]int)
	first := make(map[string]dataset.Value)
	for _, v := range c.Values {
		if !v.Valid {
			continue
		}
		k := v.Key(c.Kind)
		if _, ok := first[k]; !ok {
			first[k] = v
		}
		counts[k]++
	}
	if len(counts) == 0 {
		return dataset.Value{}, false
	}
	best := 0
	var cands []dataset.Value
	for k, n := range counts {
		switch {
		case n > best:
			best = n
			cands = append(cands[:0], first[k])
		case n == best:
			cands = append(cands, first[k])
		}
	}
	sort.Slice(cands, func(i, j int) bool {
		if c.Kind == dataset.KindNumeric {
			return cands[i].Num < cands[j].Num
		}
		return cands[i].Text < cands[j].Text
	})
	return cands[0], true
}

func dropIncompleteRows(ds *dataset.Dataset) *dataset.Dataset {
	keep := make([]int, 0, ds.Rows())
	for i := 0; i < ds.Rows(); i++ {
		complete := true
		for _, c := range ds.Columns {
			if !c.Values[i].Valid {
				complete = false
				break
			}
		}
		if complete {
			keep = append(keep, i)
		}
	}
	return ds.SelectRows(keep)
}

// propagate carries the nearest present value forward (or backward) within
// each column. Gaps with no value on the source side stay missing.
func propagate(ds *dataset.Dataset, forward bool) *dataset.Dataset {
	out := ds.Clone()
	n := out.Rows()
	for j := range out.Columns {
		vals := out.Columns[j].Values
		var last dataset.Value
		for k := 0; k < n; k++ {
			i := k
			if !forward {
				i = n - 1 - k
			}
			if vals[i].Valid {
				last = vals[i]
				continue
			}
			if last.Valid {
				vals[i] = last
			}
		}
	}
	return out
}

package analysis

import (
	"math"
	"sort"

	"github.com/KaramelBytes/edaloom-cli/internal/dataset"
	"gonum.org/v1/gonum/stat"
)

// CorrMatrix holds a symmetric Pearson correlation matrix across numeric columns.
type CorrMatrix struct {
	Columns []string  `json:"columns"`
	Values  [][]Float `json:"values"` // row-major, Values[i][j]
}

// PairCorr is a simple correlation pair summary.
type PairCorr struct {
	A string `json:"a"`
	B string `json:"b"`
	R Float  `json:"r"`
}

// Correlations computes Pearson r for every pair of numeric columns using
// only rows where both values are present. Pairs with fewer than two such
// rows or no variance are NaN.
func Correlations(ds *dataset.Dataset) (*CorrMatrix, error) {
	if err := dataset.RequireData(ds, "correlations"); err != nil {
		return nil, err
	}
	var cols []*dataset.Column
	for i := range ds.Columns {
		if ds.Columns[i].Kind == dataset.KindNumeric {
			cols = append(cols, &ds.Columns[i])
		}
	}
	n := len(cols)
	m := &CorrMatrix{Columns: make([]string, n), Values: make([][]Float, n)}
	for i, c := range cols {
		m.Columns[i] = c.Name
		m.Values[i] = make([]Float, n)
	}
	for a := 0; a < n; a++ {
		for b := a; b < n; b++ {
			r := pairwise(cols[a], cols[b])
			m.Values[a][b] = r
			m.Values[b][a] = r
		}
	}
	return m, nil
}

func pairwise(a, b *dataset.Column) Float {
	var xs, ys []float64
	for i := range a.Values {
		if a.Values[i].Valid && b.Values[i].Valid {
			xs = append(xs, a.Values[i].Num)
			ys = append(ys, b.Values[i].Num)
		}
	}
	if len(xs) < 2 {
		return nan
	}
	r := stat.Correlation(xs, ys, nil)
	if math.IsNaN(r) || math.IsInf(r, 0) {
		return nan
	}
	if r > 1 {
		r = 1
	} else if r < -1 {
		r = -1
	}
	return Float(r)
}

// TopPairs lists off-diagonal pairs ordered by |r|, skipping undefined ones.
func (m *CorrMatrix) TopPairs(limit int) []PairCorr {
	var pairs []PairCorr
	n := len(m.Columns)
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			r := m.Values[i][j]
			if !r.Defined() {
				continue
			}
			pairs = append(pairs, PairCorr{A: m.Columns[i], B: m.Columns[j], R: r})
		}
	}
	sort.Slice(pairs, func(i, j int) bool {
		ai := math.Abs(float64(pairs[i].R))
		aj := math.Abs(float64(pairs[j].R))
		if ai == aj {
			return pairs[i].A+pairs[i].B < pairs[j].A+pairs[j].B
		}
		return ai > aj
	})
	if limit > 0 && len(pairs) > limit {
		pairs = pairs[:limit]
	}
	return pairs
}

// Get returns r for two column names.
func (m *CorrMatrix) Get(a, b string) (Float, bool) {
	ia, ib := -1, -1
	for i, c := range m.Columns {
		if c == a {
			ia = i
		}
		if c == b {
			ib = i
		}
	}
	if ia < 0 || ib < 0 {
		return nan, false
	}
	return m.Values[ia][ib], true
}

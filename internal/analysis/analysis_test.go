package analysis

import (
	"encoding/json"
	"errors"
	"math"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/KaramelBytes/edaloom-cli/internal/dataset"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func load(t *testing.T, csv string) *dataset.Dataset {
	t.Helper()
	d, err := dataset.ReadCSV(strings.NewReader(csv), dataset.DefaultReadOptions())
	require.NoError(t, err)
	return d
}

func TestDetectOutliersIQRBounds(t *testing.T) {
	d := load(t, "x,label\n1,a\n2,b\n3,c\n4,d\n100,e\n")
	rep, err := DetectOutliers(d, OutlierOptions{})
	require.NoError(t, err)
	require.Len(t, rep.Columns, 1, "text columns are skipped")

	x, ok := rep.Column("x")
	require.True(t, ok)
	assert.Equal(t, Float(2), x.Q1)
	assert.Equal(t, Float(4), x.Q3)
	assert.Equal(t, Float(2), x.IQR)
	assert.Equal(t, Float(-1), x.Lower)
	assert.Equal(t, Float(7), x.Upper)
	assert.Equal(t, 1, x.Count)
	assert.Equal(t, []int{4}, x.Rows)
	assert.Equal(t, []float64{100}, x.Values)
	assert.Equal(t, map[string]int{"x": 1}, rep.Counts())
	assert.Equal(t, 1, rep.Total())

	assert.Equal(t, Float(1), x.Min)
	assert.Equal(t, Float(1), x.WhiskerLow)
	assert.Equal(t, Float(3), x.Median)
	assert.Equal(t, Float(4), x.WhiskerHigh)
	assert.Equal(t, Float(100), x.Max)
}

func TestDetectOutliersNoneFound(t *testing.T) {
	d := load(t, "x\n1\n2\n3\n4\n5\n")
	rep, err := DetectOutliers(d, OutlierOptions{})
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"x": 0}, rep.Counts())
}

func TestDetectOutliersZeroIQR(t *testing.T) {
	d := load(t, "x\n5\n5\n5\n5\n9\n")
	rep, err := DetectOutliers(d, OutlierOptions{})
	require.NoError(t, err)
	x, _ := rep.Column("x")
	assert.Equal(t, Float(0), x.IQR)
	assert.Equal(t, Float(5), x.Lower)
	assert.Equal(t, Float(5), x.Upper)
	assert.Equal(t, 1, x.Count)
}

func TestDetectOutliersMultiplier(t *testing.T) {
	d := load(t, "x\n1\n2\n3\n4\n10\n")
	def, err := DetectOutliers(d, OutlierOptions{})
	require.NoError(t, err)
	wide, err := DetectOutliers(d, OutlierOptions{Multiplier: 3})
	require.NoError(t, err)
	assert.Equal(t, 1, def.Counts()["x"])
	assert.Equal(t, 0, wide.Counts()["x"])
	assert.Equal(t, 3.0, wide.Multiplier)
}

func TestDetectOutliersAllMissingColumn(t *testing.T) {
	d := load(t, "x,y\n1,\n2,\n")
	rep, err := DetectOutliers(d, OutlierOptions{})
	require.NoError(t, err)
	y, ok := rep.Column("y")
	require.True(t, ok)
	assert.Zero(t, y.Count)
	assert.False(t, y.Lower.Defined())
	assert.False(t, y.Upper.Defined())

	raw, err := json.Marshal(y)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"lower":null`)
}

func TestDetectOutliersIsReadOnly(t *testing.T) {
	d := load(t, "x,y\n1,a\n2,\n,c\n400,d\n")
	before := d.Clone()
	_, err := DetectOutliers(d, OutlierOptions{})
	require.NoError(t, err)
	assert.True(t, d.Equal(before))
}

func TestQuartiles(t *testing.T) {
	d := load(t, "x,s,e\n1,a,\n2,b,\n3,c,\n4,d,\n")
	x, _ := d.Column("x")
	q1, q3, err := Quartiles(x)
	require.NoError(t, err)
	assert.Equal(t, 1.75, q1)
	assert.Equal(t, 3.25, q3)

	s, _ := d.Column("s")
	_, _, err = Quartiles(s)
	assert.True(t, errors.Is(err, dataset.ErrTypeMismatch))

	e, _ := d.Column("e")
	_, _, err = Quartiles(e)
	assert.True(t, errors.Is(err, dataset.ErrEmptyColumn))
}

func TestSummarize(t *testing.T) {
	d := load(t, "a,b\n1,x\n2,y\n3,x\n,\n")
	s, err := Summarize(d)
	require.NoError(t, err)
	assert.Equal(t, 4, s.Rows)
	assert.Equal(t, 2, s.Columns)
	assert.Equal(t, map[string]int{"a": 1, "b": 1}, s.Missing)
	assert.Equal(t, 2, s.TotalMissing)

	a, ok := s.Column("a")
	require.True(t, ok)
	assert.Equal(t, dataset.KindNumeric, a.Kind)
	assert.Equal(t, 3, a.NonNull)
	assert.Equal(t, 3, a.Unique)
	assert.InDelta(t, 2.0, float64(a.Mean), 1e-12)
	assert.InDelta(t, 1.0, float64(a.Std), 1e-12)
	assert.Equal(t, Float(1), a.Min)
	assert.Equal(t, Float(1.5), a.Q1)
	assert.Equal(t, Float(2), a.Median)
	assert.Equal(t, Float(2.5), a.Q3)
	assert.Equal(t, Float(3), a.Max)
	assert.Equal(t, 25.0, a.MissingPct())

	b, _ := s.Column("b")
	assert.Equal(t, dataset.KindText, b.Kind)
	assert.Equal(t, 2, b.Unique)
	assert.Equal(t, "x", b.Top)
	assert.Equal(t, 2, b.Freq)
	assert.False(t, b.Mean.Defined())
}

func TestSummarizeTopTiesKeepFirstSeen(t *testing.T) {
	d := load(t, "s\nz\na\na\nz\n")
	s, err := Summarize(d)
	require.NoError(t, err)
	c, _ := s.Column("s")
	assert.Equal(t, "z", c.Top)
	assert.Equal(t, 2, c.Freq)
}

func TestSummarizeSingleValueHasNoStd(t *testing.T) {
	d := load(t, "a\n7\n")
	s, err := Summarize(d)
	require.NoError(t, err)
	a, _ := s.Column("a")
	assert.Equal(t, Float(7), a.Mean)
	assert.True(t, math.IsNaN(float64(a.Std)))
}

func TestSummarizeEmptyDataset(t *testing.T) {
	_, err := Summarize(load(t, "a,b\n"))
	assert.True(t, errors.Is(err, dataset.ErrEmptyDataset))
}

func TestCorrelations(t *testing.T) {
	d := load(t, "x,y,z,c,s\n1,2,4,1,a\n2,4,3,1,b\n3,6,2,1,c\n4,8,1,1,d\n")
	m, err := Correlations(d)
	require.NoError(t, err)
	assert.Equal(t, []string{"x", "y", "z", "c"}, m.Columns)

	r, ok := m.Get("x", "y")
	require.True(t, ok)
	assert.InDelta(t, 1.0, float64(r), 1e-9)
	r, _ = m.Get("x", "z")
	assert.InDelta(t, -1.0, float64(r), 1e-9)
	r, _ = m.Get("x", "c")
	assert.False(t, r.Defined(), "zero variance gives NaN")
	r, _ = m.Get("z", "x")
	assert.InDelta(t, -1.0, float64(r), 1e-9)

	pairs := m.TopPairs(0)
	assert.Len(t, pairs, 3)
	for _, p := range pairs {
		assert.NotEqual(t, "c", p.A)
		assert.NotEqual(t, "c", p.B)
	}
	assert.Len(t, m.TopPairs(2), 2)
}

func TestCorrelationsPairwiseComplete(t *testing.T) {
	d := load(t, "x,y\n1,\n2,2\n3,3\n,4\n")
	m, err := Correlations(d)
	require.NoError(t, err)
	r, _ := m.Get("x", "y")
	assert.InDelta(t, 1.0, float64(r), 1e-9)

	d = load(t, "x,y\n1,\n,2\n3,3\n")
	m, err = Correlations(d)
	require.NoError(t, err)
	r, _ = m.Get("x", "y")
	assert.False(t, r.Defined(), "one complete row is not enough")
}

func TestColumnDistributionNumeric(t *testing.T) {
	d := load(t, "x\n1\n2\n3\n4\n5\n6\n7\n8\n9\n10\n")
	dist, err := ColumnDistribution(d, "x", 3)
	require.NoError(t, err)
	require.Len(t, dist.Bins, 3)
	assert.Equal(t, []int{3, 3, 4}, []int{dist.Bins[0].Count, dist.Bins[1].Count, dist.Bins[2].Count})
	assert.Equal(t, Float(1), dist.Bins[0].Lower)
	assert.Equal(t, Float(10), dist.Bins[2].Upper)

	auto, err := ColumnDistribution(d, "x", 0)
	require.NoError(t, err)
	assert.Len(t, auto.Bins, SturgesBins(10))
	total := 0
	for _, b := range auto.Bins {
		total += b.Count
	}
	assert.Equal(t, 10, total)
}

func TestColumnDistributionConstantAndText(t *testing.T) {
	d := load(t, "k,s\n2,b\n2,a\n2,b\n,c\n")
	dist, err := ColumnDistribution(d, "k", 4)
	require.NoError(t, err)
	require.Len(t, dist.Bins, 1)
	assert.Equal(t, 3, dist.Bins[0].Count)
	assert.Equal(t, 1, dist.Missing)

	dist, err = ColumnDistribution(d, "s", 0)
	require.NoError(t, err)
	assert.Empty(t, dist.Bins)
	assert.Equal(t, []CategoryCount{{"b", 2}, {"a", 1}, {"c", 1}}, dist.Categories)

	_, err = ColumnDistribution(d, "missing", 0)
	assert.Error(t, err)
}

func TestColumnDistributionExtremeRange(t *testing.T) {
	d := load(t, "x\n-1.7e308\n0\n1.7e308\n")
	dist, err := ColumnDistribution(d, "x", 0)
	require.NoError(t, err)
	require.Len(t, dist.Bins, 3)
	for i, b := range dist.Bins {
		assert.Equal(t, 1, b.Count, "bin %d", i)
		assert.False(t, math.IsInf(float64(b.Lower), 0), "bin %d lower", i)
		assert.Less(t, float64(b.Lower), float64(b.Upper), "bin %d", i)
	}
	assert.Equal(t, Float(-1.7e308), dist.Bins[0].Lower)
	assert.Equal(t, Float(1.7e308), dist.Bins[2].Upper)

	rep, err := BuildReport(d, DefaultReportOptions())
	require.NoError(t, err)
	assert.Contains(t, rep.Markdown(), "[DISTRIBUTIONS]")
}

func TestColumnDistributionNarrowRangeUsesOneBin(t *testing.T) {
	d := load(t, "x\n1\n1.0000000000000002\n1\n")
	dist, err := ColumnDistribution(d, "x", 10)
	require.NoError(t, err)
	require.Len(t, dist.Bins, 1)
	assert.Equal(t, 3, dist.Bins[0].Count)
	assert.Equal(t, Float(1), dist.Bins[0].Lower)
	assert.Equal(t, Float(math.Nextafter(1, 2)), dist.Bins[0].Upper)
}

func TestSturgesBins(t *testing.T) {
	assert.Equal(t, 1, SturgesBins(0))
	assert.Equal(t, 1, SturgesBins(1))
	assert.Equal(t, 2, SturgesBins(2))
	assert.Equal(t, 5, SturgesBins(10))
	assert.Equal(t, 8, SturgesBins(100))
}

func TestBuildReportMarkdown(t *testing.T) {
	d := load(t, "id,x,y,label,note\n"+
		"1,1,2,a,\n"+
		"2,2,4,b,\n"+
		"3,3,6,a,\n"+
		"4,4,8,,\n"+
		"5,100,10,b,\n")
	d.Name = "sample.csv"
	before := d.Clone()

	r, err := BuildReport(d, DefaultReportOptions())
	require.NoError(t, err)
	assert.True(t, d.Equal(before))
	require.NotNil(t, r.Corr)
	assert.Len(t, r.Head, 5)

	md := r.Markdown()
	for _, sec := range []string{
		"[DATASET SUMMARY]", "[SCHEMA]", "[MISSING VALUES]", "[STATISTICS]",
		"[OUTLIERS]", "[CORRELATIONS]", "[DISTRIBUTIONS]", "[HEAD]", "[NOTES]",
	} {
		assert.Contains(t, md, sec)
	}
	assert.Contains(t, md, "File: sample.csv")
	assert.Contains(t, md, "Rows: 5")
	assert.Contains(t, md, "- x: 1 outside [-1, 7]")
	assert.Contains(t, md, "- note: 5")
	assert.Contains(t, md, `column "note" has no values`)
	assert.Contains(t, md, "| id | x | y | label | note |")
	assert.Less(t, strings.Index(md, "[SCHEMA]"), strings.Index(md, "[OUTLIERS]"))
}

func TestBuildReportSkipsCorrelationsForSingleNumeric(t *testing.T) {
	d := load(t, "x,s\n1,a\n2,b\n")
	r, err := BuildReport(d, ReportOptions{})
	require.NoError(t, err)
	assert.Nil(t, r.Corr)
	assert.Empty(t, r.Head)
	md := r.Markdown()
	assert.NotContains(t, md, "[CORRELATIONS]")
	assert.NotContains(t, md, "[HEAD]")
}

func TestMarkdownTruncatesCellsOnRuneBoundary(t *testing.T) {
	d := load(t, "city\nZürichÄÖÜé\n")
	r, err := BuildReport(d, ReportOptions{SampleRows: 1, MaxCellWidth: 5})
	require.NoError(t, err)
	md := r.Markdown()
	assert.True(t, utf8.ValidString(md))
	assert.Contains(t, md, "| Zü... |")
}

func TestFloatJSON(t *testing.T) {
	raw, err := json.Marshal([]Float{1.5, nan, Float(math.Inf(1))})
	require.NoError(t, err)
	assert.Equal(t, "[1.5,null,null]", string(raw))
}

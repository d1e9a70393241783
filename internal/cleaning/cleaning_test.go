package cleaning

import (
	"errors"
	"strings"
	"testing"

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

func nums(t *testing.T, d *dataset.Dataset, name string) []any {
	t.Helper()
	c, ok := d.Column(name)
	require.True(t, ok, "column %q", name)
	out := make([]any, len(c.Values))
	for i, v := range c.Values {
		if !v.Valid {
			out[i] = nil
			continue
		}
		if c.Kind == dataset.KindNumeric {
			out[i] = v.Num
		} else {
			out[i] = v.Text
		}
	}
	return out
}

const mixed = "x,y,label\n" +
	"1,NaN,a\n" +
	"2,NaN,b\n" +
	",5,\n" +
	"4,6,b\n"

func TestForwardAndBackwardFill(t *testing.T) {
	d := load(t, "y\nNaN\nNaN\n5\n6\n")

	res, err := ResolveMissing(d, ForwardFill)
	require.NoError(t, err)
	assert.Equal(t, []any{nil, nil, 5.0, 6.0}, nums(t, res.Dataset, "y"))

	res, err = ResolveMissing(d, BackwardFill)
	require.NoError(t, err)
	assert.Equal(t, []any{5.0, 5.0, 5.0, 6.0}, nums(t, res.Dataset, "y"))
}

func TestFillsPreserveRowCount(t *testing.T) {
	d := load(t, mixed)
	for _, dir := range []Directive{None, FillMode, ForwardFill, BackwardFill} {
		t.Run(string(dir), func(t *testing.T) {
			res, err := ResolveMissing(d, dir)
			require.NoError(t, err)
			assert.Equal(t, d.Rows(), res.Dataset.Rows())
			assert.Equal(t, d.Rows(), res.Diagnostics.RowsBefore)
			assert.Equal(t, d.Rows(), res.Diagnostics.RowsAfter)
			assert.Equal(t, d.Names(), res.Dataset.Names())
		})
	}
}

func TestFillModeTiesPickSmallest(t *testing.T) {
	d := load(t, mixed)
	res, err := ResolveMissing(d, FillMode)
	require.NoError(t, err)
	// x: 1,2,4 all once -> 1
	assert.Equal(t, []any{1.0, 2.0, 1.0, 4.0}, nums(t, res.Dataset, "x"))
	// y: 5,6 once each -> 5
	assert.Equal(t, []any{5.0, 5.0, 5.0, 6.0}, nums(t, res.Dataset, "y"))
	assert.Equal(t, []any{"a", "b", "b", "b"}, nums(t, res.Dataset, "label"))
	_, total := res.Dataset.MissingCount()
	assert.Zero(t, total)
	assert.Equal(t, 4, res.Diagnostics.MissingBefore)
}

func TestFillModeEmptyColumnFails(t *testing.T) {
	d := load(t, "a,b\n1,\n,\n1,\n")
	before := d.Clone()
	res, err := ResolveMissing(d, FillMode)
	require.Error(t, err)
	assert.Nil(t, res)
	var ece *dataset.EmptyColumnError
	require.True(t, errors.As(err, &ece))
	assert.Equal(t, "b", ece.Column)
	assert.True(t, d.Equal(before), "input must be untouched")
}

func TestFillMedian(t *testing.T) {
	d := load(t, "a,b\n1,10\n,20\n3,\n100,40\n")
	res, err := ResolveMissing(d, FillMedian)
	require.NoError(t, err)
	assert.Equal(t, []any{1.0, 3.0, 3.0, 100.0}, nums(t, res.Dataset, "a"))
	assert.Equal(t, []any{10.0, 20.0, 20.0, 40.0}, nums(t, res.Dataset, "b"))
}

func TestFillMedianOnTextFails(t *testing.T) {
	d := load(t, mixed)
	_, err := ResolveMissing(d, FillMedian)
	require.Error(t, err)
	assert.True(t, errors.Is(err, dataset.ErrTypeMismatch))
	var tm *dataset.TypeMismatchError
	require.True(t, errors.As(err, &tm))
	assert.Equal(t, "label", tm.Column)
}

func TestFillMedianAllMissingNumericWarns(t *testing.T) {
	d := load(t, "a,b\n1,\n,\n")
	res, err := ResolveMissing(d, FillMedian)
	require.NoError(t, err)
	assert.Equal(t, []any{1.0, 1.0}, nums(t, res.Dataset, "a"))
	assert.Equal(t, []any{nil, nil}, nums(t, res.Dataset, "b"))
	require.Len(t, res.Diagnostics.Warnings, 1)
}

func TestDropRowsLeavesNoMissing(t *testing.T) {
	d := load(t, mixed)
	res, err := ResolveMissing(d, DropRows)
	require.NoError(t, err)
	_, total := res.Dataset.MissingCount()
	assert.Zero(t, total)
	assert.LessOrEqual(t, res.Dataset.Rows(), d.Rows())
	assert.Equal(t, 1, res.Dataset.Rows())
	assert.Equal(t, 3, res.Diagnostics.RowsRemoved)
	assert.Equal(t, "Missing values handled. Rows before: 4, after: 1.", res.Diagnostics.Message())
}

func TestRemoveDuplicates(t *testing.T) {
	d := load(t, "n,s\n1,a\n2,b\n1,a\n,\n,\n")
	res, err := RemoveDuplicates(d)
	require.NoError(t, err)
	assert.Equal(t, 3, res.Dataset.Rows())
	assert.Equal(t, 2, res.Diagnostics.RowsRemoved)
	assert.Equal(t, []any{1.0, 2.0, nil}, nums(t, res.Dataset, "n"))
	assert.Equal(t, "Duplicates removed: 2", res.Diagnostics.Message())

	again, err := RemoveDuplicates(res.Dataset)
	require.NoError(t, err)
	assert.Zero(t, again.Diagnostics.RowsRemoved)
	assert.True(t, again.Dataset.Equal(res.Dataset))
}

func TestRemoveDuplicatesAppendedPair(t *testing.T) {
	d := load(t, "n,s\n5,z\n6,y\n1,a\n1,a\n")
	res, err := RemoveDuplicates(d)
	require.NoError(t, err)
	assert.Equal(t, d.Rows()-1, res.Dataset.Rows())
}

func TestPruneSparseColumns(t *testing.T) {
	var b strings.Builder
	b.WriteString("keep,z,edge\n")
	for i := 0; i < 10; i++ {
		z, edge := "", ""
		if i < 2 {
			z = "1"
		}
		if i < 3 {
			edge = "x"
		}
		b.WriteString("1," + z + "," + edge + "\n")
	}
	d := load(t, b.String())
	res, err := PruneSparseColumns(d, DefaultPruneFraction)
	require.NoError(t, err)
	assert.Equal(t, []string{"keep", "edge"}, res.Dataset.Names())
	assert.Equal(t, []string{"z"}, res.Diagnostics.DroppedColumns)
	assert.Equal(t, d.Rows(), res.Dataset.Rows())
	assert.Equal(t, "Columns with more than 70% missing values dropped: 1", res.Diagnostics.Message())
	assert.Equal(t, 3, d.Width(), "input keeps its columns")
}

func TestOperationsRejectEmptyDataset(t *testing.T) {
	d := load(t, "a,b\n")
	_, err := ResolveMissing(d, FillMode)
	assert.True(t, errors.Is(err, dataset.ErrEmptyDataset))
	_, err = RemoveDuplicates(d)
	assert.True(t, errors.Is(err, dataset.ErrEmptyDataset))
	_, err = PruneSparseColumns(&dataset.Dataset{}, 0.3)
	assert.True(t, errors.Is(err, dataset.ErrEmptyDataset))
}

func TestParseDirective(t *testing.T) {
	cases := map[string]Directive{
		"Fill with Mode":  FillMode,
		"median":          FillMedian,
		"drop-rows":       DropRows,
		"Fill with ffill": ForwardFill,
		"backward-fill":   BackwardFill,
		"Do nothing":      None,
		"no-op":           None,
	}
	for in, want := range cases {
		got, err := ParseDirective(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseDirective("interpolate")
	assert.Error(t, err)
}

func TestPipelineRunsInOrder(t *testing.T) {
	d := load(t, "a,b,c\n1,x,\n1,x,\n,y,\n2,y,\n")
	p := Pipeline{Missing: ForwardFill, DropDuplicates: true, PruneSparse: true}
	res, err := p.Run(d)
	require.NoError(t, err)
	require.Len(t, res.Steps, 3)
	assert.Equal(t, OpForwardFill, res.Steps[0].Operation)
	assert.Equal(t, OpDedupe, res.Steps[1].Operation)
	assert.Equal(t, OpPrune, res.Steps[2].Operation)
	// ffill turns row 3 into (1,y) which is distinct from (1,x)
	assert.Equal(t, 1, res.Steps[1].RowsRemoved)
	assert.Equal(t, []string{"c"}, res.Steps[2].DroppedColumns)
	assert.Equal(t, []string{"a", "b"}, res.Dataset.Names())
	assert.Equal(t, 3, res.Dataset.Rows())
}

func TestPipelineIsAtomic(t *testing.T) {
	d := load(t, mixed)
	before := d.Clone()
	res, err := Pipeline{Missing: FillMedian, DropDuplicates: true}.Run(d)
	require.Error(t, err)
	assert.Nil(t, res)
	assert.True(t, errors.Is(err, dataset.ErrTypeMismatch))
	assert.True(t, d.Equal(before))
}

func TestPipelineStopsWhenDatasetEmpties(t *testing.T) {
	d := load(t, "a,b\n1,\n,2\n")
	res, err := Pipeline{Missing: DropRows, DropDuplicates: true, PruneSparse: true}.Run(d)
	require.NoError(t, err)
	require.Len(t, res.Steps, 1)
	assert.Zero(t, res.Dataset.Rows())
	assert.Contains(t, res.Steps[0].Warnings, "dataset is empty; remaining steps skipped")
}

func TestPipelineHonoursZeroPruneFraction(t *testing.T) {
	d := load(t, "a,b\n1,1\n2,\n3,\n4,\n")
	direct, err := PruneSparseColumns(d, 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, direct.Dataset.Names())

	zero := 0.0
	res, err := Pipeline{PruneSparse: true, PruneFraction: &zero}.Run(d)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, res.Dataset.Names())
	assert.Empty(t, res.Steps[0].DroppedColumns)

	res, err = Pipeline{PruneSparse: true}.Run(d)
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, res.Dataset.Names(), "nil fraction uses the default")
}

func TestPipelineNoopReturnsCopy(t *testing.T) {
	d := load(t, mixed)
	res, err := Pipeline{}.Run(d)
	require.NoError(t, err)
	assert.Empty(t, res.Steps)
	assert.True(t, res.Dataset.Equal(d))
	assert.NotSame(t, d, res.Dataset)
}

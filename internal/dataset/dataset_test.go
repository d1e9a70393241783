package dataset

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadCSVInfersKindsAndMissing(t *testing.T) {
	in := "id,name,score,empty\n" +
		"1,alpha,10.5,\n" +
		"2,NA,,\n" +
		"3,gamma,7,NaN\n"
	d, err := ReadCSV(strings.NewReader(in), DefaultReadOptions())
	require.NoError(t, err)

	assert.Equal(t, 3, d.Rows())
	assert.Equal(t, []string{"id", "name", "score", "empty"}, d.Names())

	name, ok := d.Column("name")
	require.True(t, ok)
	assert.Equal(t, KindText, name.Kind)
	assert.Equal(t, 1, name.Missing())

	score, _ := d.Column("score")
	assert.Equal(t, KindNumeric, score.Kind)
	assert.Equal(t, []float64{10.5, 7}, score.Numbers())

	empty, _ := d.Column("empty")
	assert.Equal(t, KindNumeric, empty.Kind, "all-missing columns are numeric")
	assert.Equal(t, 3, empty.Missing())

	per, total := d.MissingCount()
	assert.Equal(t, 5, total)
	assert.Equal(t, 0, per["id"])
	assert.Equal(t, 1, per["score"])
}

func TestReadCSVShortRowsArePadded(t *testing.T) {
	d, err := ReadCSV(strings.NewReader("a,b,c\n1,2\n3,4,5\n"), DefaultReadOptions())
	require.NoError(t, err)
	c, _ := d.Column("c")
	assert.False(t, c.Values[0].Valid)
	assert.Equal(t, 5.0, c.Values[1].Num)
}

func TestReadCSVRejectsLongRows(t *testing.T) {
	_, err := ReadCSV(strings.NewReader("a,b\n1,2,3\n"), DefaultReadOptions())
	require.Error(t, err)
}

func TestReadCSVPinnedKinds(t *testing.T) {
	opt := DefaultReadOptions()
	opt.Kinds = map[string]Kind{"code": KindText, "n": KindNumeric}
	d, err := ReadCSV(strings.NewReader("code,n\n007,1\n010,\n"), opt)
	require.NoError(t, err)
	code, _ := d.Column("code")
	assert.Equal(t, KindText, code.Kind)
	assert.Equal(t, "007", code.Values[0].Text)

	_, err = ReadCSV(strings.NewReader("code,n\n1,x\n"), opt)
	require.Error(t, err)
}

func TestReadCSVHeaderNames(t *testing.T) {
	d, err := ReadCSV(strings.NewReader("a,,a,a\n1,2,3,4\n"), DefaultReadOptions())
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "Unnamed: 1", "a.1", "a.2"}, d.Names())
}

func TestReadCSVLocaleSeparators(t *testing.T) {
	opt := DefaultReadOptions()
	opt.Delimiter = ';'
	opt.DecimalSeparator = ','
	opt.ThousandsSeparator = '.'
	d, err := ReadCSV(strings.NewReader("v;w\n1.000,5;x\n2,25;y\n"), opt)
	require.NoError(t, err)
	v, _ := d.Column("v")
	require.Equal(t, KindNumeric, v.Kind)
	assert.Equal(t, []float64{1000.5, 2.25}, v.Numbers())
}

func TestReadCSVMaxRowsWarns(t *testing.T) {
	opt := DefaultReadOptions()
	opt.MaxRows = 2
	d, err := ReadCSV(strings.NewReader("x\n1\n2\n3\n"), opt)
	require.NoError(t, err)
	assert.Equal(t, 2, d.Rows())
	assert.Equal(t, []string{"processed only 2/3 rows due to MaxRows"}, d.Warnings)
}

func TestWriteCSVRoundTrip(t *testing.T) {
	in := "a,b\n1,x\n,y\n2.5,\n"
	d, err := ReadCSV(strings.NewReader(in), DefaultReadOptions())
	require.NoError(t, err)
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, d, ','))
	assert.Equal(t, in, buf.String())
}

func TestLoadAndSaveFile(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "data.tsv")
	require.NoError(t, os.WriteFile(p, []byte("a\tb\n1\tx\n2\ty\n"), 0o644))
	d, err := LoadFile(p, ReadOptions{})
	require.NoError(t, err)
	assert.Equal(t, "data.tsv", d.Name)
	assert.Equal(t, 2, d.Width())

	out := filepath.Join(dir, "out.csv")
	require.NoError(t, SaveFile(out, d, 0))
	b, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "a,b\n1,x\n2,y\n", string(b))
}

func TestCloneIsIndependent(t *testing.T) {
	d, err := ReadCSV(strings.NewReader("a\n1\n2\n"), DefaultReadOptions())
	require.NoError(t, err)
	c := d.Clone()
	c.Columns[0].Values[0] = Number(99)
	col, _ := d.Column("a")
	assert.Equal(t, 1.0, col.Values[0].Num)
	assert.False(t, d.Equal(c))
}

func TestRowKeyTreatsMissingAndSignedZeroAsEqual(t *testing.T) {
	d, err := New("t", []Column{
		{Name: "n", Kind: KindNumeric, Values: []Value{Number(0), Number(negZero()), Missing(), Missing()}},
	})
	require.NoError(t, err)
	assert.Equal(t, d.RowKey(0), d.RowKey(1))
	assert.Equal(t, d.RowKey(2), d.RowKey(3))
	assert.NotEqual(t, d.RowKey(0), d.RowKey(2))
}

func TestNewValidatesShape(t *testing.T) {
	_, err := New("t", []Column{
		{Name: "a", Kind: KindNumeric, Values: []Value{Number(1)}},
		{Name: "b", Kind: KindNumeric, Values: []Value{Number(1), Number(2)}},
	})
	require.Error(t, err)
	_, err = New("t", []Column{
		{Name: "a", Kind: KindNumeric},
		{Name: "a", Kind: KindText},
	})
	require.Error(t, err)
}

func TestErrorKindsMatchSentinels(t *testing.T) {
	var err error = &TypeMismatchError{Column: "x", Op: "median fill", Kind: KindText}
	assert.True(t, errors.Is(err, ErrTypeMismatch))
	assert.Contains(t, err.Error(), `column "x" is text`)

	err = RequireData(&Dataset{}, "describe")
	assert.True(t, errors.Is(err, ErrEmptyDataset))

	err = &EmptyColumnError{Column: "y", Op: "mode fill"}
	assert.True(t, errors.Is(err, ErrEmptyColumn))
	assert.False(t, errors.Is(err, ErrTypeMismatch))
}

func negZero() float64 {
	z := 0.0
	return -z
}

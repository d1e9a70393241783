package cleaning

import (
	"fmt"

	"github.com/KaramelBytes/edaloom-cli/internal/dataset"
)

// DefaultPruneFraction keeps columns with at least 30% of rows present.
const DefaultPruneFraction = 0.3

// PruneSparseColumns drops every column whose non-missing count is below
// fraction*rows.
func PruneSparseColumns(ds *dataset.Dataset, fraction float64) (*Result, error) {
	if err := dataset.RequireData(ds, OpPrune); err != nil {
		return nil, err
	}
	if fraction < 0 || fraction > 1 {
		return nil, fmt.Errorf("%s: fraction %.3f outside [0,1]", OpPrune, fraction)
	}
	thresh := float64(ds.Rows()) * fraction
	var drop []string
	for i := range ds.Columns {
		if float64(ds.Columns[i].NonMissing()) < thresh {
			drop = append(drop, ds.Columns[i].Name)
		}
	}
	res := newResult(OpPrune, ds, ds.DropColumns(drop...))
	res.Diagnostics.DroppedColumns = drop
	res.Diagnostics.Threshold = fraction
	return res, nil
}

package cleaning

import "github.com/KaramelBytes/edaloom-cli/internal/dataset"

// RemoveDuplicates drops rows identical to an earlier row across all
// columns, keeping the first occurrence and the original order.
func RemoveDuplicates(ds *dataset.Dataset) (*Result, error) {
	if err := dataset.RequireData(ds, OpDedupe); err != nil {
		return nil, err
	}
	seen := make(map[string]struct{}, ds.Rows())
	keep := make([]int, 0, ds.Rows())
	for i := 0; i < ds.Rows(); i++ {
		k := ds.RowKey(i)
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		keep = append(keep, i)
	}
	return newResult(OpDedupe, ds, ds.SelectRows(keep)), nil
}

package cleaning

import (
	"fmt"
	"math"

	"github.com/KaramelBytes/edaloom-cli/internal/dataset"
)

// Diagnostics describes what one operation did to the dataset.
type Diagnostics struct {
	Operation      string   `json:"operation"`
	RowsBefore     int      `json:"rows_before"`
	RowsAfter      int      `json:"rows_after"`
	ColumnsBefore  int      `json:"columns_before"`
	ColumnsAfter   int      `json:"columns_after"`
	MissingBefore  int      `json:"missing_before"`
	MissingAfter   int      `json:"missing_after"`
	RowsRemoved    int      `json:"rows_removed"`
	DroppedColumns []string `json:"dropped_columns,omitempty"`
	Warnings       []string `json:"warnings,omitempty"`
	// Threshold is the pruning presence fraction, zero for other operations.
	Threshold float64 `json:"threshold,omitempty"`
}

// Result is the uniform envelope returned by every cleaning operation.
type Result struct {
	Dataset     *dataset.Dataset `json:"-"`
	Diagnostics Diagnostics      `json:"diagnostics"`
}

func newResult(op string, before, after *dataset.Dataset) *Result {
	_, mb := before.MissingCount()
	_, ma := after.MissingCount()
	return &Result{
		Dataset: after,
		Diagnostics: Diagnostics{
			Operation:     op,
			RowsBefore:    before.Rows(),
			RowsAfter:     after.Rows(),
			ColumnsBefore: before.Width(),
			ColumnsAfter:  after.Width(),
			MissingBefore: mb,
			MissingAfter:  ma,
			RowsRemoved:   before.Rows() - after.Rows(),
		},
	}
}

// Message is the one-line confirmation shown to the user.
func (d Diagnostics) Message() string {
	switch d.Operation {
	case OpDedupe:
		return fmt.Sprintf("Duplicates removed: %d", d.RowsRemoved)
	case OpPrune:
		pct := math.Round((1 - d.Threshold) * 100)
		if len(d.DroppedColumns) == 0 {
			return fmt.Sprintf("No columns with more than %.0f%% missing values.", pct)
		}
		return fmt.Sprintf("Columns with more than %.0f%% missing values dropped: %d", pct, len(d.DroppedColumns))
	case OpNone:
		return fmt.Sprintf("Missing values left as-is. Rows: %d.", d.RowsAfter)
	default:
		return fmt.Sprintf("Missing values handled. Rows before: %d, after: %d.", d.RowsBefore, d.RowsAfter)
	}
}

package cleaning

import (
	"fmt"

	"github.com/KaramelBytes/edaloom-cli/internal/dataset"
)

// Pipeline is a set of cleaning steps applied in a fixed order:
// missing-value directive, duplicate removal, sparse-column pruning.
type Pipeline struct {
	Missing        Directive
	DropDuplicates bool
	PruneSparse    bool
	// PruneFraction is the presence threshold; nil means DefaultPruneFraction.
	PruneFraction *float64
}

// PipelineResult holds the final dataset and one Diagnostics per step run.
type PipelineResult struct {
	Dataset *dataset.Dataset `json:"-"`
	Steps   []Diagnostics    `json:"steps"`
}

// Run applies the enabled steps. If any step fails the whole run fails and
// the caller keeps its input dataset.
func (p Pipeline) Run(ds *dataset.Dataset) (*PipelineResult, error) {
	if err := dataset.RequireData(ds, "pipeline"); err != nil {
		return nil, err
	}
	cur := ds
	out := &PipelineResult{}
	apply := func(res *Result, err error) error {
		if err != nil {
			return err
		}
		cur = res.Dataset
		out.Steps = append(out.Steps, res.Diagnostics)
		return nil
	}

	if p.Missing != "" && p.Missing != None {
		if err := apply(ResolveMissing(cur, p.Missing)); err != nil {
			return nil, fmt.Errorf("missing values: %w", err)
		}
	}
	if p.DropDuplicates && !p.exhausted(cur, out) {
		if err := apply(RemoveDuplicates(cur)); err != nil {
			return nil, fmt.Errorf("duplicates: %w", err)
		}
	}
	if p.PruneSparse && !p.exhausted(cur, out) {
		frac := DefaultPruneFraction
		if p.PruneFraction != nil {
			frac = *p.PruneFraction
		}
		if err := apply(PruneSparseColumns(cur, frac)); err != nil {
			return nil, fmt.Errorf("prune: %w", err)
		}
	}
	if cur == ds {
		cur = ds.Clone()
	}
	out.Dataset = cur
	return out, nil
}

// exhausted reports whether an earlier step left no rows; later steps are
// skipped rather than failing on an empty dataset.
func (p Pipeline) exhausted(cur *dataset.Dataset, out *PipelineResult) bool {
	if !cur.Empty() || len(out.Steps) == 0 {
		return false
	}
	last := &out.Steps[len(out.Steps)-1]
	const note = "dataset is empty; remaining steps skipped"
	for _, w := range last.Warnings {
		if w == note {
			return true
		}
	}
	last.Warnings = append(last.Warnings, note)
	return true
}

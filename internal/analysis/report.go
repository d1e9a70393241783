package analysis

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/KaramelBytes/edaloom-cli/internal/dataset"
)

// ReportOptions controls what BuildReport gathers.
type ReportOptions struct {
	SampleRows      int     // head preview rows
	IQRMultiplier   float64 // 0 -> DefaultIQRMultiplier
	HistogramBins   int     // <=0 -> Sturges
	MaxCorrelations int     // pairs listed in Markdown
	MaxCellWidth    int     // truncate preview cells
}

// DefaultReportOptions returns sensible defaults.
func DefaultReportOptions() ReportOptions {
	return ReportOptions{
		SampleRows:      5,
		IQRMultiplier:   DefaultIQRMultiplier,
		MaxCorrelations: 10,
		MaxCellWidth:    80,
	}
}

// Report bundles every profile of a dataset.
type Report struct {
	Name          string          `json:"name,omitempty"`
	Summary       *Summary        `json:"summary"`
	Outliers      *OutlierReport  `json:"outliers"`
	Corr          *CorrMatrix     `json:"correlations,omitempty"`
	Distributions []*Distribution `json:"distributions,omitempty"`
	Head          [][]string      `json:"head,omitempty"`
	Warnings      []string        `json:"warnings,omitempty"`

	opt ReportOptions
}

// BuildReport profiles the dataset without modifying it.
func BuildReport(ds *dataset.Dataset, opt ReportOptions) (*Report, error) {
	if opt.MaxCorrelations <= 0 {
		opt.MaxCorrelations = 10
	}
	if opt.MaxCellWidth <= 0 {
		opt.MaxCellWidth = 80
	}
	sum, err := Summarize(ds)
	if err != nil {
		return nil, err
	}
	out, err := DetectOutliers(ds, OutlierOptions{Multiplier: opt.IQRMultiplier})
	if err != nil {
		return nil, err
	}
	r := &Report{Name: ds.Name, Summary: sum, Outliers: out, opt: opt}
	r.Warnings = append(r.Warnings, sum.Warnings...)
	if len(ds.NumericColumns()) >= 2 {
		r.Corr, err = Correlations(ds)
		if err != nil {
			return nil, err
		}
	}
	for i := range ds.Columns {
		r.Distributions = append(r.Distributions, distributionOf(&ds.Columns[i], opt.HistogramBins))
	}
	head := ds.Head(opt.SampleRows)
	for i := 0; i < head.Rows(); i++ {
		row := make([]string, head.Width())
		for j, c := range head.Columns {
			row[j] = c.Values[i].Format(c.Kind)
		}
		r.Head = append(r.Head, row)
	}
	for _, c := range sum.Cols {
		if c.NonNull == 0 {
			r.Warnings = append(r.Warnings, fmt.Sprintf("column %q has no values", c.Name))
		} else if c.Kind == dataset.KindText && c.Unique == c.NonNull && c.NonNull > 1 {
			r.Warnings = append(r.Warnings, fmt.Sprintf("column %q has all distinct values (identifier?)", c.Name))
		}
	}
	return r, nil
}

// Markdown renders a compact report suitable for terminals or standalone docs.
func (r *Report) Markdown() string {
	var b strings.Builder
	s := r.Summary
	b.WriteString("[DATASET SUMMARY]\n")
	if r.Name != "" {
		b.WriteString(fmt.Sprintf("File: %s\n", r.Name))
	}
	b.WriteString(fmt.Sprintf("Rows: %d\n", s.Rows))
	b.WriteString(fmt.Sprintf("Columns: %d\n", s.Columns))
	b.WriteString(fmt.Sprintf("Missing cells: %d\n\n", s.TotalMissing))

	b.WriteString("[SCHEMA]\n")
	for _, c := range s.Cols {
		b.WriteString(fmt.Sprintf("- %s: %s (non-null %d, missing %.1f%%)\n", safeName(c.Name), c.Kind, c.NonNull, c.MissingPct()))
	}

	b.WriteString("\n[MISSING VALUES]\n")
	if s.TotalMissing == 0 {
		b.WriteString("No missing values.\n")
	} else {
		for _, c := range s.Cols {
			if c.Missing > 0 {
				b.WriteString(fmt.Sprintf("- %s: %d\n", safeName(c.Name), c.Missing))
			}
		}
	}

	b.WriteString("\n[STATISTICS]\n")
	for _, c := range s.Cols {
		name := safeName(c.Name)
		switch c.Kind {
		case dataset.KindNumeric:
			if c.NonNull == 0 {
				b.WriteString(fmt.Sprintf("- %s: no values\n", name))
				continue
			}
			b.WriteString(fmt.Sprintf("- %s: mean %s, std %s, min %s, 25%% %s, 50%% %s, 75%% %s, max %s\n",
				name, c.Mean, c.Std, c.Min, c.Q1, c.Median, c.Q3, c.Max))
		default:
			b.WriteString(fmt.Sprintf("- %s: unique %d", name, c.Unique))
			if c.Freq > 0 {
				b.WriteString(fmt.Sprintf(", top %s (%d)", safeVal(c.Top), c.Freq))
			}
			b.WriteString("\n")
		}
	}

	if r.Outliers != nil && len(r.Outliers.Columns) > 0 {
		b.WriteString(fmt.Sprintf("\n[OUTLIERS]\nIQR multiplier: %g\n", r.Outliers.Multiplier))
		for _, o := range r.Outliers.Columns {
			if !o.Lower.Defined() {
				b.WriteString(fmt.Sprintf("- %s: no values\n", safeName(o.Column)))
				continue
			}
			b.WriteString(fmt.Sprintf("- %s: %d outside [%s, %s]", safeName(o.Column), o.Count, o.Lower, o.Upper))
			b.WriteString(fmt.Sprintf("; box min %s, whiskers %s..%s, median %s, max %s\n", o.Min, o.WhiskerLow, o.WhiskerHigh, o.Median, o.Max))
		}
	}

	if r.Corr != nil && len(r.Corr.Columns) >= 2 {
		b.WriteString("\n[CORRELATIONS]\n")
		pairs := r.Corr.TopPairs(r.opt.MaxCorrelations)
		if len(pairs) == 0 {
			b.WriteString("No defined correlations.\n")
		}
		for _, p := range pairs {
			b.WriteString(fmt.Sprintf("- %s ~ %s: r=%.3f\n", p.A, p.B, float64(p.R)))
		}
	}

	if len(r.Distributions) > 0 {
		b.WriteString("\n[DISTRIBUTIONS]\n")
		for _, d := range r.Distributions {
			b.WriteString(fmt.Sprintf("- %s:", safeName(d.Column)))
			switch {
			case len(d.Bins) > 0:
				for i, bin := range d.Bins {
					if i > 0 {
						b.WriteString(",")
					}
					b.WriteString(fmt.Sprintf(" [%s, %s] %d", bin.Lower, bin.Upper, bin.Count))
				}
			case len(d.Categories) > 0:
				lim := len(d.Categories)
				if lim > maxTopValues {
					lim = maxTopValues
				}
				for i, kv := range d.Categories[:lim] {
					if i > 0 {
						b.WriteString(",")
					}
					b.WriteString(fmt.Sprintf(" %s(%d)", safeVal(kv.Value), kv.Count))
				}
				if len(d.Categories) > lim {
					b.WriteString(fmt.Sprintf("; unique=%d", len(d.Categories)))
				}
			default:
				b.WriteString(" no values")
			}
			b.WriteString("\n")
		}
	}

	if len(r.Head) > 0 {
		b.WriteString("\n[HEAD]\n")
		b.WriteString("| ")
		for i, c := range s.Cols {
			if i > 0 {
				b.WriteString(" | ")
			}
			b.WriteString(safeName(c.Name))
		}
		b.WriteString(" |\n| ")
		for i := range s.Cols {
			if i > 0 {
				b.WriteString(" | ")
			}
			b.WriteString("---")
		}
		b.WriteString(" |\n")
		for _, row := range r.Head {
			b.WriteString("| ")
			for i, val := range row {
				if i > 0 {
					b.WriteString(" | ")
				}
				if w := r.opt.MaxCellWidth; w > 3 && utf8.RuneCountInString(val) > w {
					val = string([]rune(val)[:w-3]) + "..."
				}
				b.WriteString(safeVal(val))
			}
			b.WriteString(" |\n")
		}
	}

	if len(r.Warnings) > 0 {
		b.WriteString("\n[NOTES]\n")
		for _, w := range r.Warnings {
			b.WriteString("- ")
			b.WriteString(w)
			b.WriteString("\n")
		}
	}
	return b.String()
}

func safeName(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "(unnamed)"
	}
	return s
}

func safeVal(s string) string { return strings.ReplaceAll(strings.ReplaceAll(s, "\n", " "), "|", "/") }

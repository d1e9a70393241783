package cleaning

import (
	"fmt"
	"strings"
)

// Directive selects how missing values are resolved.
type Directive string

const (
	None         Directive = "none"
	FillMode     Directive = "mode"
	FillMedian   Directive = "median"
	DropRows     Directive = "drop"
	ForwardFill  Directive = "ffill"
	BackwardFill Directive = "bfill"
)

// Directives lists every directive in menu order.
var Directives = []Directive{None, FillMode, FillMedian, DropRows, ForwardFill, BackwardFill}

var directiveAliases = map[string]Directive{
	"":                       None,
	"none":                   None,
	"no-op":                  None,
	"noop":                   None,
	"do nothing":             None,
	"mode":                   FillMode,
	"fill-with-mode":         FillMode,
	"fill with mode":         FillMode,
	"median":                 FillMedian,
	"fill-with-median":       FillMedian,
	"fill with median":       FillMedian,
	"drop":                   DropRows,
	"drop-rows":              DropRows,
	"drop rows":              DropRows,
	"drop-rows-with-missing": DropRows,
	"ffill":                  ForwardFill,
	"forward-fill":           ForwardFill,
	"fill with ffill":        ForwardFill,
	"bfill":                  BackwardFill,
	"backward-fill":          BackwardFill,
	"fill with bfill":        BackwardFill,
}

// ParseDirective accepts short names, long names and the menu labels.
func ParseDirective(s string) (Directive, error) {
	if d, ok := directiveAliases[strings.ToLower(strings.TrimSpace(s))]; ok {
		return d, nil
	}
	return "", fmt.Errorf("unknown missing-value directive %q (use none|mode|median|drop|ffill|bfill)", s)
}

// Label is the human-readable menu entry.
func (d Directive) Label() string {
	switch d {
	case FillMode:
		return "Fill with Mode"
	case FillMedian:
		return "Fill with Median"
	case DropRows:
		return "Drop Rows"
	case ForwardFill:
		return "Fill with ffill"
	case BackwardFill:
		return "Fill with bfill"
	default:
		return "Do nothing"
	}
}

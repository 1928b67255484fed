package result

import (
	"strconv"
	"strings"

	"psycdata/domain/analysis"
	"psycdata/domain/table"
)

// PValueSentinel marks the row that separates coefficients from p-values
const PValueSentinel = "p-value"

// BelowThreshold replaces p-values smaller than 0.001
const BelowThreshold = "<.001"

// ViewKind selects how a result is laid out
type ViewKind string

const (
	ViewTable       ViewKind = "table"
	ViewCorrelation ViewKind = "correlation"
	ViewReliability ViewKind = "reliability"
)

// Grid is a display-ready table: headers synthesized, cells normalized
type Grid struct {
	Headers []string   `json:"headers"`
	Rows    [][]string `json:"rows"`
}

// View is the rendered form of a result table
type View struct {
	Kind         ViewKind `json:"kind"`
	Table        *Grid    `json:"table,omitempty"`
	Coefficients *Grid    `json:"coefficients,omitempty"`
	PValues      *Grid    `json:"p_values,omitempty"`
	Summary      string   `json:"summary,omitempty"`
}

// NewGrid normalizes t for display
func NewGrid(t table.Table) *Grid {
	return &Grid{Headers: t.DisplayHeaders(), Rows: t.DisplayRows()}
}

// Render lays out t according to the analysis that produced it
func Render(kind analysis.Kind, t table.Table) View {
	switch kind {
	case analysis.KindCorrelation:
		coef, pvals, ok := SplitCorrelation(t)
		if !ok {
			return View{Kind: ViewCorrelation, Coefficients: NewGrid(t)}
		}
		grid := NewGrid(pvals)
		for _, row := range grid.Rows {
			for i, cell := range row {
				row[i] = FormatPValue(cell)
			}
		}
		return View{Kind: ViewCorrelation, Coefficients: NewGrid(coef), PValues: grid}

	case analysis.KindReliability:
		view := View{Kind: ViewReliability, Table: NewGrid(t)}
		if summary, ok := ReliabilitySummary(t); ok {
			view.Summary = summary
		}
		return view
	}
	return View{Kind: ViewTable, Table: NewGrid(t)}
}

// SplitCorrelation splits t on the first row whose first cell is the
// p-value sentinel. Both halves share t's headers; the sentinel row
// itself belongs to neither.
func SplitCorrelation(t table.Table) (coefficients, pValues table.Table, ok bool) {
	for i, row := range t.Rows {
		if len(row) == 0 || row[0].String() != PValueSentinel {
			continue
		}
		coefficients = table.Table{Headers: t.Headers, Rows: t.Rows[:i]}
		pValues = table.Table{Headers: t.Headers, Rows: t.Rows[i+1:]}
		return coefficients, pValues, true
	}
	return t, table.Table{}, false
}

// FormatPValue rewrites a displayed p-value below 0.001 as "<.001".
// Blank, NA and non-numeric cells pass through unchanged.
func FormatPValue(display string) string {
	s := strings.TrimSpace(display)
	if s == "" || s == table.NASentinel || s == table.NullSentinel {
		return display
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return display
	}
	if v < 0.001 {
		return BelowThreshold
	}
	return display
}

// ReliabilitySummary reads the first data row as a (label, value) pair
func ReliabilitySummary(t table.Table) (string, bool) {
	if len(t.Rows) == 0 || len(t.Rows[0]) < 2 {
		return "", false
	}
	row := t.Rows[0]
	return row[0].String() + ": " + row[1].String(), true
}

// Package table holds the canonical tabular model shared by every window
// and by the backend wire format.
package table

import "fmt"

// Table is an ordered set of headers plus rows of cells.
// Rows may be ragged; display width is derived, never stored.
type Table struct {
	Headers []string `json:"headers"`
	Rows    [][]Cell `json:"rows"`
}

// SyntheticHeader returns the placeholder name for column index i (0-based)
func SyntheticHeader(i int) string {
	return fmt.Sprintf("列%d", i+1)
}

// ColumnCount is max(len(headers), longest row)
func (t Table) ColumnCount() int {
	n := len(t.Headers)
	for _, row := range t.Rows {
		if len(row) > n {
			n = len(row)
		}
	}
	return n
}

// RowCount returns the number of data rows
func (t Table) RowCount() int { return len(t.Rows) }

// IsEmpty reports whether the table has neither headers nor rows
func (t Table) IsEmpty() bool { return len(t.Headers) == 0 && len(t.Rows) == 0 }

// DisplayHeaders pads the header list to ColumnCount with synthesized names
func (t Table) DisplayHeaders() []string {
	n := t.ColumnCount()
	out := make([]string, n)
	for i := 0; i < n; i++ {
		if i < len(t.Headers) {
			out[i] = t.Headers[i]
		} else {
			out[i] = SyntheticHeader(i)
		}
	}
	return out
}

// Cell returns the cell at (row, col); positions past the end of a row are NA
func (t Table) Cell(row, col int) Cell {
	if row < 0 || row >= len(t.Rows) || col < 0 || col >= len(t.Rows[row]) {
		return NA()
	}
	return t.Rows[row][col]
}

// PaddedRow returns row r widened to width cells, padding with NA
func (t Table) PaddedRow(r, width int) []Cell {
	out := make([]Cell, width)
	for c := 0; c < width; c++ {
		out[c] = t.Cell(r, c)
	}
	return out
}

// DisplayRows renders every row as display strings padded to ColumnCount
func (t Table) DisplayRows() [][]string {
	width := t.ColumnCount()
	out := make([][]string, len(t.Rows))
	for r := range t.Rows {
		line := make([]string, width)
		for c := 0; c < width; c++ {
			line[c] = t.Cell(r, c).String()
		}
		out[r] = line
	}
	return out
}

// HeaderIndex returns the position of name among the headers, or -1
func (t Table) HeaderIndex(name string) int {
	for i, h := range t.Headers {
		if h == name {
			return i
		}
	}
	return -1
}

// Clone returns a deep copy so callers can hand tables across goroutines
func (t Table) Clone() Table {
	out := Table{Headers: append([]string(nil), t.Headers...)}
	if t.Rows != nil {
		out.Rows = make([][]Cell, len(t.Rows))
		for i, row := range t.Rows {
			out.Rows[i] = append([]Cell(nil), row...)
		}
	}
	return out
}

// Row builds a row from loosely-typed values (nil → Null)
func Row(values ...interface{}) []Cell {
	out := make([]Cell, len(values))
	for i, v := range values {
		out[i] = Of(v)
	}
	return out
}

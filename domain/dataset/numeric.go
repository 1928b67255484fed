// Package dataset holds the numeric matrix statistics run on. Missing
// observations are kept positionally so rows stay aligned across columns.
package dataset

import (
	"math"
	"strconv"
	"strings"

	"psycdata/domain/table"
)

// Column is one numeric variable; Present[i] is false for a missing value
type Column struct {
	Name    string
	Values  []float64
	Present []bool
}

// Observed counts non-missing values
func (c Column) Observed() int {
	n := 0
	for _, ok := range c.Present {
		if ok {
			n++
		}
	}
	return n
}

// Complete returns the non-missing values in row order
func (c Column) Complete() []float64 {
	out := make([]float64, 0, len(c.Values))
	for i, v := range c.Values {
		if c.Present[i] {
			out = append(out, v)
		}
	}
	return out
}

// Numeric is a set of equally long columns in sheet column order
type Numeric struct {
	Columns []Column
}

// Names lists the column names
func (d Numeric) Names() []string {
	names := make([]string, len(d.Columns))
	for i, c := range d.Columns {
		names[i] = c.Name
	}
	return names
}

// Rows is the number of observations per column
func (d Numeric) Rows() int {
	if len(d.Columns) == 0 {
		return 0
	}
	return len(d.Columns[0].Values)
}

// Pairwise returns the observations where both columns i and j are present
func (d Numeric) Pairwise(i, j int) (x, y []float64) {
	a, b := d.Columns[i], d.Columns[j]
	for r := range a.Values {
		if a.Present[r] && b.Present[r] {
			x = append(x, a.Values[r])
			y = append(y, b.Values[r])
		}
	}
	return x, y
}

// Listwise returns the rows in which every column is present, as a
// row-major matrix
func (d Numeric) Listwise() [][]float64 {
	var out [][]float64
	for r := 0; r < d.Rows(); r++ {
		row := make([]float64, len(d.Columns))
		complete := true
		for c, col := range d.Columns {
			if !col.Present[r] {
				complete = false
				break
			}
			row[c] = col.Values[r]
		}
		if complete {
			out = append(out, row)
		}
	}
	return out
}

// ParseNumber reads a cell as a number. Numbers are taken as is and text
// is parsed after trimming; booleans and missing cells are not numeric.
func ParseNumber(c table.Cell) (float64, bool) {
	switch c.Kind() {
	case table.KindNumber:
		v, _ := c.Float()
		return v, !math.IsNaN(v) && !math.IsInf(v, 0)
	case table.KindText:
		v, err := strconv.ParseFloat(strings.TrimSpace(c.String()), 64)
		if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
			return 0, false
		}
		return v, true
	}
	return 0, false
}

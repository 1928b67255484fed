package excel

import (
	"context"
	"sort"

	"psycdata/domain/core"
	"psycdata/domain/dataset"
	"psycdata/domain/table"
)

// NumericDataset reads the selected variables from a sheet as numbers.
// Columns come back in sheet order, not selection order. A selected column
// with no numeric value at all is dropped; if none remain the call fails.
func (r *Reader) NumericDataset(ctx context.Context, path, sheet string, variables []string) (dataset.Numeric, error) {
	if len(variables) == 0 {
		return dataset.Numeric{}, core.ErrNoVariables
	}
	rows, err := r.readCells(ctx, path, sheet)
	if err != nil {
		return dataset.Numeric{}, err
	}
	if len(rows) == 0 {
		return dataset.Numeric{}, core.ErrEmptySheetData
	}
	return BuildNumeric(HeadersFromRow(rows[0]), rows[1:], variables)
}

// BuildNumeric extracts numeric columns for variables from headers and rows
func BuildNumeric(headers []string, rows [][]table.Cell, variables []string) (dataset.Numeric, error) {
	if len(variables) == 0 {
		return dataset.Numeric{}, core.ErrNoVariables
	}
	if dups := duplicates(headers); len(dups) > 0 {
		return dataset.Numeric{}, core.NewDuplicateHeaderError(dups)
	}

	index := make(map[string]int, len(headers))
	for i, h := range headers {
		index[h] = i
	}
	selected := make([]int, 0, len(variables))
	seen := make(map[int]bool, len(variables))
	for _, v := range variables {
		i, ok := index[v]
		if !ok {
			return dataset.Numeric{}, core.NewVariableNotFoundError(v)
		}
		if !seen[i] {
			seen[i] = true
			selected = append(selected, i)
		}
	}
	sort.Ints(selected)

	var out dataset.Numeric
	for _, c := range selected {
		col := dataset.Column{
			Name:    headers[c],
			Values:  make([]float64, len(rows)),
			Present: make([]bool, len(rows)),
		}
		found := false
		for r, row := range rows {
			var cell table.Cell
			if c < len(row) {
				cell = row[c]
			}
			if v, ok := dataset.ParseNumber(cell); ok {
				col.Values[r] = v
				col.Present[r] = true
				found = true
			}
		}
		if found {
			out.Columns = append(out.Columns, col)
		}
	}
	if len(out.Columns) == 0 {
		return dataset.Numeric{}, core.ErrNoNumericData
	}
	return out, nil
}

func duplicates(headers []string) []string {
	seen := make(map[string]bool, len(headers))
	reported := make(map[string]bool)
	var dups []string
	for _, h := range headers {
		if seen[h] && !reported[h] {
			reported[h] = true
			dups = append(dups, h)
		}
		seen[h] = true
	}
	return dups
}

package excel

import (
	"psycdata/domain/dataset"
	"psycdata/domain/table"
)

// Column type names reported by InferColumnTypes
const (
	TypeNumeric = "numeric"
	TypeText    = "text"
	TypeBoolean = "boolean"
	TypeEmpty   = "empty"
)

// InferColumnTypes classifies each display column by its non-missing
// cells. A column is numeric when every present value parses as a number.
func InferColumnTypes(t table.Table) map[string]string {
	headers := t.DisplayHeaders()
	types := make(map[string]string, len(headers))
	for c, h := range headers {
		numeric, boolean, present := 0, 0, 0
		for r := range t.Rows {
			cell := t.Cell(r, c)
			if cell.IsMissing() {
				continue
			}
			present++
			if cell.Kind() == table.KindBool {
				boolean++
			} else if _, ok := dataset.ParseNumber(cell); ok {
				numeric++
			}
		}
		switch {
		case present == 0:
			types[h] = TypeEmpty
		case numeric == present:
			types[h] = TypeNumeric
		case boolean == present:
			types[h] = TypeBoolean
		default:
			types[h] = TypeText
		}
	}
	return types
}

package testkit

import (
	"github.com/xuri/excelize/v2"
)

// Sheet is one worksheet to write: the first row is usually the header.
// nil values leave the cell unset.
type Sheet struct {
	Name string
	Rows [][]interface{}
}

// WriteWorkbook writes sheets, in order, to an .xlsx file at path
func WriteWorkbook(path string, sheets ...Sheet) error {
	f := excelize.NewFile()
	defer f.Close()

	const defaultSheet = "Sheet1"
	for i, sheet := range sheets {
		if i == 0 {
			if sheet.Name != defaultSheet {
				if err := f.SetSheetName(defaultSheet, sheet.Name); err != nil {
					return err
				}
			}
		} else if _, err := f.NewSheet(sheet.Name); err != nil {
			return err
		}

		for r, row := range sheet.Rows {
			for c, value := range row {
				if value == nil {
					continue
				}
				cell, err := excelize.CoordinatesToCellName(c+1, r+1)
				if err != nil {
					return err
				}
				if err := f.SetCellValue(sheet.Name, cell, value); err != nil {
					return err
				}
			}
		}
	}
	return f.SaveAs(path)
}

// SurveySheet builds a sheet from a generator's headers and rows
func SurveySheet(name string, g *SurveyGenerator) Sheet {
	headers := g.Headers()
	header := make([]interface{}, len(headers))
	for i, h := range headers {
		header[i] = h
	}
	return Sheet{Name: name, Rows: append([][]interface{}{header}, g.Rows()...)}
}

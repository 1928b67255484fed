package excel

import (
	"context"
	"encoding/csv"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"psycdata/domain/core"
	"psycdata/domain/table"

	"github.com/xuri/excelize/v2"
)

// Reader reads workbooks into tables. It handles .xlsx/.xlsm/.xltx files
// through excelize and .csv files as a single sheet named after the file.
type Reader struct{}

// NewReader creates a workbook reader
func NewReader() *Reader {
	return &Reader{}
}

func isCSV(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".csv")
}

func csvSheetName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func checkFile(path string) error {
	if strings.TrimSpace(path) == "" {
		return core.ErrEmptyPath
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return fmt.Errorf("%w: %s", core.ErrFileNotFound, path)
	}
	return nil
}

// ListSheets returns the sheet names in workbook order
func (r *Reader) ListSheets(ctx context.Context, path string) ([]string, error) {
	if err := checkFile(path); err != nil {
		return nil, err
	}
	if isCSV(path) {
		return []string{csvSheetName(path)}, nil
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, core.ErrNoSheets
	}
	return sheets, nil
}

// ValidateSheet checks that path and sheet are given and that the sheet
// exists in the workbook
func (r *Reader) ValidateSheet(ctx context.Context, path, sheet string) error {
	if strings.TrimSpace(path) == "" {
		return core.ErrEmptyPath
	}
	if strings.TrimSpace(sheet) == "" {
		return core.ErrEmptySheet
	}
	sheets, err := r.ListSheets(ctx, path)
	if err != nil {
		return err
	}
	for _, s := range sheets {
		if s == sheet {
			return nil
		}
	}
	return core.NewSheetNotFoundError(sheet)
}

// ReadSheet reads a whole sheet. The first row becomes the headers and the
// remaining rows are padded to the sheet width with NULL cells.
func (r *Reader) ReadSheet(ctx context.Context, path, sheet string) (table.Table, error) {
	rows, err := r.readCells(ctx, path, sheet)
	if err != nil {
		return table.Table{}, err
	}
	return toTable(rows), nil
}

func (r *Reader) readCells(ctx context.Context, path, sheet string) ([][]table.Cell, error) {
	if err := r.ValidateSheet(ctx, path, sheet); err != nil {
		return nil, err
	}
	if isCSV(path) {
		return readCSV(path)
	}

	start := time.Now()
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	raw, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %s: %w", sheet, err)
	}

	rows := make([][]table.Cell, len(raw))
	for r, values := range raw {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		row := make([]table.Cell, len(values))
		for c, value := range values {
			if value == "" {
				row[c] = table.Null()
				continue
			}
			name, err := excelize.CoordinatesToCellName(c+1, r+1)
			if err != nil {
				return nil, err
			}
			cellType, err := f.GetCellType(sheet, name)
			if err != nil {
				return nil, fmt.Errorf("failed to read cell %s: %w", name, err)
			}
			row[c] = convertCell(cellType, value)
		}
		rows[r] = row
	}

	log.Printf("[ExcelReader] %s/%s read in %.2fms (%d rows)",
		filepath.Base(path), sheet, float64(time.Since(start).Nanoseconds())/1e6, len(rows))
	return padRows(rows), nil
}

func convertCell(cellType excelize.CellType, value string) table.Cell {
	switch cellType {
	case excelize.CellTypeBool:
		return table.Bool(value == "1" || strings.EqualFold(value, "true"))
	case excelize.CellTypeSharedString, excelize.CellTypeInlineString, excelize.CellTypeFormula,
		excelize.CellTypeDate, excelize.CellTypeError:
		return table.Text(value)
	default:
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return table.Number(f)
		}
		return table.Text(value)
	}
}

func readCSV(path string) ([][]table.Cell, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open CSV file: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV file: %w", err)
	}

	rows := make([][]table.Cell, len(records))
	for r, record := range records {
		row := make([]table.Cell, len(record))
		for c, value := range record {
			if r == 0 && c == 0 {
				value = strings.TrimPrefix(value, "\ufeff")
			}
			switch {
			case value == "":
				row[c] = table.Null()
			default:
				if f, err := strconv.ParseFloat(strings.TrimSpace(value), 64); err == nil {
					row[c] = table.Number(f)
				} else {
					row[c] = table.Text(value)
				}
			}
		}
		rows[r] = row
	}
	return padRows(rows), nil
}

// padRows makes the sheet rectangular: cells inside the used range are
// empty (NULL), not absent
func padRows(rows [][]table.Cell) [][]table.Cell {
	width := 0
	for _, row := range rows {
		if len(row) > width {
			width = len(row)
		}
	}
	for i, row := range rows {
		for len(row) < width {
			row = append(row, table.Null())
		}
		rows[i] = row
	}
	return rows
}

func toTable(rows [][]table.Cell) table.Table {
	if len(rows) == 0 {
		return table.Table{Headers: []string{}, Rows: [][]table.Cell{}}
	}
	return table.Table{Headers: HeadersFromRow(rows[0]), Rows: rows[1:]}
}

// HeadersFromRow names columns from the first row: text is trimmed,
// numbers use their display form, booleans become TRUE/FALSE and empty
// cells get a synthesized name.
func HeadersFromRow(row []table.Cell) []string {
	headers := make([]string, len(row))
	for i, cell := range row {
		var name string
		switch cell.Kind() {
		case table.KindBool:
			name = strings.ToUpper(cell.String())
		case table.KindNumber:
			v, _ := cell.Float()
			name = table.FormatNumber(v)
		case table.KindText:
			name = strings.TrimSpace(cell.String())
		}
		if name == "" {
			name = table.SyntheticHeader(i)
		}
		headers[i] = name
	}
	return headers
}

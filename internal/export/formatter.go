// Package export renders tables as CSV and JSON text. Nothing here
// touches the filesystem; see app.ExportService for persistence.
package export

import (
	"bytes"
	"encoding/json"
	"strings"
	"time"

	"psycdata/domain/core"
	"psycdata/domain/table"
)

// BOM is the UTF-8 byte-order mark spreadsheet applications expect
const BOM = "\ufeff"

// Line endings
const (
	CRLF = "\r\n"
	LF   = "\n"
)

// Rounding documents how displayed statistics were rounded
type Rounding struct {
	PValue      string `json:"pValue"`
	Correlation string `json:"correlation"`
}

// DefaultRounding is recorded in every JSON export
var DefaultRounding = Rounding{
	PValue:      "3 decimals, half-up; show <.001 only when rounds to 0.000",
	Correlation: "displayed to 3 decimals",
}

// NormalizeCell is the display string of c: "NULL", "NA", or its value
func NormalizeCell(c table.Cell) string {
	return c.String()
}

// CSVOptions control CSV output. A nil BOM means true; an empty Newline
// means CRLF.
type CSVOptions struct {
	BOM     *bool
	Newline string
}

// Bool is a helper for CSVOptions.BOM
func Bool(b bool) *bool { return &b }

// ToCSV renders t with a header row. Every line has the table's display
// width: missing headers are synthesized and short rows padded with NA.
func ToCSV(t table.Table, opts CSVOptions) string {
	bom := opts.BOM == nil || *opts.BOM
	nl := opts.Newline
	if nl == "" {
		nl = CRLF
	}

	lines := make([]string, 0, len(t.Rows)+1)
	lines = append(lines, joinFields(t.DisplayHeaders()))
	for _, row := range t.DisplayRows() {
		lines = append(lines, joinFields(row))
	}

	var b strings.Builder
	if bom {
		b.WriteString(BOM)
	}
	b.WriteString(strings.Join(lines, nl))
	b.WriteString(nl)
	return b.String()
}

func joinFields(fields []string) string {
	escaped := make([]string, len(fields))
	for i, f := range fields {
		escaped[i] = EscapeField(f)
	}
	return strings.Join(escaped, ",")
}

// EscapeField quotes f when it contains a comma, a double quote or a line
// break, doubling embedded quotes. Other fields are returned as is.
func EscapeField(f string) string {
	if !strings.ContainsAny(f, ",\"\n\r") {
		return f
	}
	return `"` + strings.ReplaceAll(f, `"`, `""`) + `"`
}

// Payload is the input to ToJSON
type Payload struct {
	Analysis    string
	Sheet       string
	Variables   []string
	Table       table.Table
	Meta        map[string]interface{}
	GeneratedAt time.Time // zero means now
}

type document struct {
	Analysis  string                 `json:"analysis"`
	Sheet     string                 `json:"sheet"`
	Variables []string               `json:"variables"`
	Meta      map[string]interface{} `json:"meta"`
	Table     documentTable          `json:"table"`
}

type documentTable struct {
	Headers []string   `json:"headers"`
	Rows    [][]string `json:"rows"`
}

// ToJSON renders p as a single JSON object. Rows are normalized to
// display strings and padded to the display width; caller meta keys
// override generatedAt and rounding.
func ToJSON(p Payload) (string, error) {
	generatedAt := p.GeneratedAt
	if generatedAt.IsZero() {
		generatedAt = time.Now()
	}

	meta := map[string]interface{}{
		"generatedAt": core.NewTimestamp(generatedAt).ISO8601(),
		"rounding":    DefaultRounding,
	}
	for k, v := range p.Meta {
		meta[k] = v
	}

	doc := document{
		Analysis:  p.Analysis,
		Sheet:     p.Sheet,
		Variables: p.Variables,
		Meta:      meta,
		Table: documentTable{
			Headers: p.Table.Headers,
			Rows:    p.Table.DisplayRows(),
		},
	}
	if doc.Variables == nil {
		doc.Variables = []string{}
	}
	if doc.Table.Headers == nil {
		doc.Table.Headers = []string{}
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(doc); err != nil {
		return "", err
	}
	return strings.TrimSuffix(buf.String(), "\n"), nil
}

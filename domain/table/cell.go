package table

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// CellKind discriminates the variants a Cell can hold
type CellKind uint8

const (
	// KindNA is a structurally absent value (e.g. the row is shorter than
	// the header). It is the zero value so out-of-range lookups yield NA.
	KindNA CellKind = iota
	// KindNull is a value the source marked as empty
	KindNull
	KindText
	KindNumber
	KindBool
)

// Display sentinels for the two missing states
const (
	NullSentinel = "NULL"
	NASentinel   = "NA"
)

// Cell is one table value: text, number, boolean, or one of two missing states
type Cell struct {
	kind CellKind
	text string
	num  float64
	flag bool
}

// Text creates a text cell
func Text(s string) Cell { return Cell{kind: KindText, text: s} }

// Number creates a numeric cell
func Number(f float64) Cell { return Cell{kind: KindNumber, num: f} }

// Bool creates a boolean cell
func Bool(b bool) Cell { return Cell{kind: KindBool, flag: b} }

// Null creates a cell whose value was intentionally left empty
func Null() Cell { return Cell{kind: KindNull} }

// NA creates a structurally absent cell
func NA() Cell { return Cell{} }

// Of converts a loosely-typed value into a Cell. nil becomes Null.
func Of(v interface{}) Cell {
	switch t := v.(type) {
	case nil:
		return Null()
	case Cell:
		return t
	case string:
		return Text(t)
	case bool:
		return Bool(t)
	case float64:
		return Number(t)
	case float32:
		return Number(float64(t))
	case int:
		return Number(float64(t))
	case int64:
		return Number(float64(t))
	case int32:
		return Number(float64(t))
	case json.Number:
		if f, err := t.Float64(); err == nil {
			return Number(f)
		}
		return Text(t.String())
	default:
		return Text(fmt.Sprint(t))
	}
}

// Kind returns the variant held by the cell
func (c Cell) Kind() CellKind { return c.kind }

// IsMissing reports whether the cell is Null or NA
func (c Cell) IsMissing() bool { return c.kind == KindNull || c.kind == KindNA }

// Float returns the numeric value and whether the cell holds a number
func (c Cell) Float() (float64, bool) {
	if c.kind != KindNumber {
		return 0, false
	}
	return c.num, true
}

// String is the display normalization: every cell maps to exactly one string
func (c Cell) String() string {
	switch c.kind {
	case KindNull:
		return NullSentinel
	case KindText:
		return c.text
	case KindNumber:
		return FormatNumber(c.num)
	case KindBool:
		return strconv.FormatBool(c.flag)
	default:
		return NASentinel
	}
}

// FormatNumber renders a float in its shortest decimal form without
// exponent or locale grouping (0 → "0", 1.5 → "1.5", 12 → "12").
func FormatNumber(f float64) string {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	}
	if f == 0 {
		// collapse -0
		return "0"
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// MarshalJSON writes the wire form. Both missing states become null.
func (c Cell) MarshalJSON() ([]byte, error) {
	switch c.kind {
	case KindText:
		return json.Marshal(c.text)
	case KindNumber:
		if math.IsNaN(c.num) || math.IsInf(c.num, 0) {
			return []byte("null"), nil
		}
		return json.Marshal(c.num)
	case KindBool:
		return json.Marshal(c.flag)
	default:
		return []byte("null"), nil
	}
}

// UnmarshalJSON reads the wire form; null becomes Null
func (c *Cell) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || string(trimmed) == "null" {
		*c = Null()
		return nil
	}

	dec := json.NewDecoder(bytes.NewReader(trimmed))
	dec.UseNumber()
	var v interface{}
	if err := dec.Decode(&v); err != nil {
		return fmt.Errorf("decode cell: %w", err)
	}
	switch v.(type) {
	case map[string]interface{}, []interface{}:
		return fmt.Errorf("decode cell: unsupported value %s", strings.TrimSpace(string(trimmed)))
	}
	*c = Of(v)
	return nil
}

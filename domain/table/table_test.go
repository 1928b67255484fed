package table

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCellDisplayNormalization(t *testing.T) {
	tests := []struct {
		name string
		cell Cell
		want string
	}{
		{"null sentinel", Null(), "NULL"},
		{"na sentinel", NA(), "NA"},
		{"zero value is NA", Cell{}, "NA"},
		{"zero number", Number(0), "0"},
		{"negative zero", Number(-0.0), "0"},
		{"integer valued float", Number(12), "12"},
		{"fraction", Number(0.0003), "0.0003"},
		{"large value has no grouping", Number(1234567), "1234567"},
		{"false", Bool(false), "false"},
		{"true", Bool(true), "true"},
		{"text", Text("平均"), "平均"},
		{"empty text stays empty", Text(""), ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.cell.String())
		})
	}
}

func TestTableDisplayWidthAndSynthesizedHeaders(t *testing.T) {
	tbl := Table{
		Headers: []string{"a"},
		Rows:    [][]Cell{Row(1, 2)},
	}

	assert.Equal(t, 2, tbl.ColumnCount())
	assert.Equal(t, []string{"a", "列2"}, tbl.DisplayHeaders())
	assert.Equal(t, [][]string{{"1", "2"}}, tbl.DisplayRows())
}

func TestTableShortRowsRenderNA(t *testing.T) {
	tbl := Table{
		Headers: []string{"a", "b", "c"},
		Rows:    [][]Cell{Row(1, nil), Row("x")},
	}

	assert.Equal(t, [][]string{
		{"1", "NULL", "NA"},
		{"x", "NA", "NA"},
	}, tbl.DisplayRows())
	assert.Equal(t, NA(), tbl.Cell(5, 0))
}

func TestCellJSONWireForm(t *testing.T) {
	var tbl Table
	raw := `{"headers":["a","b","c","d"],"rows":[[1.5,"x",true,null]]}`
	require.NoError(t, json.Unmarshal([]byte(raw), &tbl))

	require.Len(t, tbl.Rows, 1)
	assert.Equal(t, KindNumber, tbl.Rows[0][0].Kind())
	assert.Equal(t, KindText, tbl.Rows[0][1].Kind())
	assert.Equal(t, KindBool, tbl.Rows[0][2].Kind())
	assert.Equal(t, KindNull, tbl.Rows[0][3].Kind())

	out, err := json.Marshal(Table{Headers: []string{"a"}, Rows: [][]Cell{{Number(2), NA(), Null()}}})
	require.NoError(t, err)
	assert.JSONEq(t, `{"headers":["a"],"rows":[[2,null,null]]}`, string(out))
}

func TestCellRejectsNestedJSON(t *testing.T) {
	var c Cell
	assert.Error(t, json.Unmarshal([]byte(`{"a":1}`), &c))
	assert.Error(t, json.Unmarshal([]byte(`[1]`), &c))
}

func TestTableCloneIsIndependent(t *testing.T) {
	orig := Table{Headers: []string{"a"}, Rows: [][]Cell{Row(1)}}
	cp := orig.Clone()
	cp.Headers[0] = "z"
	cp.Rows[0][0] = Text("changed")

	assert.Equal(t, "a", orig.Headers[0])
	assert.Equal(t, "1", orig.Rows[0][0].String())
}

package result

import (
	"testing"

	"psycdata/domain/analysis"
	"psycdata/domain/table"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func correlationResult() table.Table {
	return table.Table{
		Headers: []string{"Variable", "x", "y"},
		Rows: [][]table.Cell{
			table.Row("x", "1.000", "0.523"),
			table.Row("y", "", "1.000"),
			table.Row("p-value", "", ""),
			table.Row("x", "", 0.0003),
			table.Row("y", "", "NA"),
		},
	}
}

func TestSplitCorrelation(t *testing.T) {
	coef, pvals, ok := SplitCorrelation(correlationResult())
	require.True(t, ok)
	assert.Len(t, coef.Rows, 2)
	assert.Len(t, pvals.Rows, 2)
	assert.Equal(t, coef.Headers, pvals.Headers)
	assert.Equal(t, "x", pvals.Rows[0][0].String())
}

func TestRenderCorrelation(t *testing.T) {
	view := Render(analysis.KindCorrelation, correlationResult())
	assert.Equal(t, ViewCorrelation, view.Kind)
	require.NotNil(t, view.Coefficients)
	require.NotNil(t, view.PValues)

	assert.Equal(t, []string{"x", "1.000", "0.523"}, view.Coefficients.Rows[0])
	assert.Equal(t, []string{"x", "", "<.001"}, view.PValues.Rows[0])
	assert.Equal(t, []string{"y", "", "NA"}, view.PValues.Rows[1])
}

func TestRenderCorrelationWithoutSentinel(t *testing.T) {
	tbl := table.Table{Headers: []string{"Variable", "x"}, Rows: [][]table.Cell{table.Row("x", "1.000")}}
	view := Render(analysis.KindCorrelation, tbl)
	assert.NotNil(t, view.Coefficients)
	assert.Nil(t, view.PValues)
}

func TestFormatPValue(t *testing.T) {
	cases := map[string]string{
		"0.0003": "<.001",
		"0.000":  "<.001",
		"0":      "<.001",
		"0.001":  "0.001",
		"0.049":  "0.049",
		"":       "",
		"NA":     "NA",
		"NULL":   "NULL",
		"x":      "x",
		"**":     "**",
	}
	for in, want := range cases {
		assert.Equal(t, want, FormatPValue(in), in)
	}
}

func TestRenderReliability(t *testing.T) {
	tbl := table.Table{
		Headers: []string{"Statistic", "Value"},
		Rows:    [][]table.Cell{table.Row("Cronbach's alpha", 0.812), table.Row("Items", 5)},
	}
	view := Render(analysis.KindReliability, tbl)
	assert.Equal(t, ViewReliability, view.Kind)
	assert.Equal(t, "Cronbach's alpha: 0.812", view.Summary)
	assert.Len(t, view.Table.Rows, 2)

	empty := Render(analysis.KindReliability, table.Table{Headers: []string{"Statistic", "Value"}})
	assert.Empty(t, empty.Summary)
}

func TestRenderPreviewPadsShortRows(t *testing.T) {
	view := Render(analysis.Kind("raw"), table.Table{Headers: []string{"a"}, Rows: [][]table.Cell{table.Row(1, 2)}})
	assert.Equal(t, ViewTable, view.Kind)
	assert.Equal(t, []string{"a", "列2"}, view.Table.Headers)
	assert.Equal(t, [][]string{{"1", "2"}}, view.Table.Rows)
}

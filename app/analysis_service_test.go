package app

import (
	"context"
	"path/filepath"
	"testing"

	"psycdata/adapters/excel"
	"psycdata/adapters/stats"
	"psycdata/domain/analysis"
	"psycdata/internal/errors"
	"psycdata/internal/testkit"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSurveyService(t *testing.T) (*AnalysisService, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "survey.xlsx")
	g := testkit.NewSurveyGenerator(testkit.DefaultSurveyConfig())
	require.NoError(t, testkit.WriteWorkbook(path,
		testkit.SurveySheet("Responses", g),
		testkit.Sheet{Name: "Labels", Rows: [][]interface{}{{"code", "label"}, {"q1", "Enjoys work"}}},
	))
	return NewAnalysisService(excel.NewReader(), stats.NewEngine(2)), path
}

func TestAnalysisServiceListAndParse(t *testing.T) {
	svc, path := newSurveyService(t)
	ctx := context.Background()

	sheets, err := svc.ListSheets(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, []string{"Responses", "Labels"}, sheets)

	tbl, err := svc.ParseExcel(ctx, path, "Responses")
	require.NoError(t, err)
	assert.Equal(t, []string{"id", "age", "score", "q1", "q2", "q3", "q4", "q5"}, tbl.Headers)
	assert.Len(t, tbl.Rows, testkit.DefaultSurveyConfig().Respondents)
}

func TestAnalysisServiceRunsEachAnalysis(t *testing.T) {
	svc, path := newSurveyService(t)
	ctx := context.Background()

	desc, err := svc.RunDescriptiveStats(ctx, path, "Responses", []string{"q1", "age", "score"}, analysis.SortMeanDesc)
	require.NoError(t, err)
	assert.Equal(t, stats.DescriptiveHeaders, desc.Headers)
	assert.Len(t, desc.Rows, 3)

	corr, err := svc.RunCorrelation(ctx, path, "Responses", []string{"q1", "q2", "q3"})
	require.NoError(t, err)
	assert.Equal(t, []string{"Variable", "q1", "q2", "q3"}, corr.Headers)
	assert.Equal(t, stats.PValueRow, corr.Rows[3][0].String())

	rel, err := svc.RunReliability(ctx, path, "Responses", []string{"q1", "q2", "q3", "q4", "q5"}, "")
	require.NoError(t, err)
	assert.Equal(t, "Cronbach's alpha", rel.Rows[0][0].String())
}

func TestAnalysisServiceErrorCodes(t *testing.T) {
	svc, path := newSurveyService(t)
	ctx := context.Background()

	_, err := svc.ParseExcel(ctx, path, "Missing")
	assert.Equal(t, errors.CodeNotFound, errors.GetCode(err))

	_, err = svc.RunCorrelation(ctx, path, "Responses", []string{"q1", "nope"})
	assert.Equal(t, errors.CodeNotFound, errors.GetCode(err))

	_, err = svc.RunCorrelation(ctx, path, "", []string{"q1"})
	assert.Equal(t, errors.CodeInvalidInput, errors.GetCode(err))

	_, err = svc.RunDescriptiveStats(ctx, path, "Responses", []string{"q1"}, analysis.SortOrder("median"))
	assert.Equal(t, errors.CodeInvalidInput, errors.GetCode(err))

	_, err = svc.ListSheets(ctx, filepath.Join(t.TempDir(), "none.xlsx"))
	assert.Equal(t, errors.CodeNotFound, errors.GetCode(err))
}

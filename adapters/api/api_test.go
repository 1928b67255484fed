package api

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"psycdata/domain/analysis"
	"psycdata/domain/core"
	"psycdata/domain/table"
	"psycdata/internal/errors"
	"psycdata/internal/testkit"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockStore struct {
	mock.Mock
}

func (m *mockStore) SaveTextFile(ctx context.Context, path, content string) error {
	return m.Called(path, content).Error(0)
}

func newTestClient(t *testing.T, backend *testkit.MockBackend, store *mockStore) *Client {
	t.Helper()
	var srv *Server
	if store != nil {
		srv = NewServer(backend, store, 2, 0)
	} else {
		srv = NewServer(backend, nil, 2, 0)
	}
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return NewClient(ts.URL+"/", ts.Client())
}

func TestClientRoundTripsTables(t *testing.T) {
	backend := new(testkit.MockBackend)
	result := table.Table{
		Headers: []string{"Variable", "N", "Mean"},
		Rows:    [][]table.Cell{table.Row("q1", 10, 3.5), table.Row("q2", 9, nil)},
	}
	backend.On("RunDescriptiveStats", mock.Anything, "/data/s.xlsx", "Data", []string{"q1", "q2"}, analysis.SortMeanDesc).
		Return(result, nil)
	backend.On("ListSheets", mock.Anything, "/data/s.xlsx").Return([]string{"Data", "Notes"}, nil)

	client := newTestClient(t, backend, nil)

	sheets, err := client.ListSheets(context.Background(), "/data/s.xlsx")
	require.NoError(t, err)
	assert.Equal(t, []string{"Data", "Notes"}, sheets)

	got, err := client.RunDescriptiveStats(context.Background(), "/data/s.xlsx", "Data", []string{"q1", "q2"}, analysis.SortMeanDesc)
	require.NoError(t, err)
	assert.Equal(t, result.Headers, got.Headers)
	assert.Equal(t, result.DisplayRows(), got.DisplayRows())
	backend.AssertExpectations(t)
}

func TestClientForwardsModelAndVariables(t *testing.T) {
	backend := new(testkit.MockBackend)
	backend.On("RunReliability", mock.Anything, "p", "s", []string{"a", "b"}, analysis.ModelOmega).
		Return(table.Table{Headers: []string{"Statistic", "Value"}}, nil)
	backend.On("RunCorrelation", mock.Anything, "p", "s", []string{"a", "b"}).
		Return(table.Table{Headers: []string{"Variable", "a", "b"}}, nil)
	backend.On("ParseExcel", mock.Anything, "p", "s").Return(table.Table{Headers: []string{"a"}}, nil)

	client := newTestClient(t, backend, nil)
	ctx := context.Background()

	_, err := client.RunReliability(ctx, "p", "s", []string{"a", "b"}, analysis.ModelOmega)
	require.NoError(t, err)
	_, err = client.RunCorrelation(ctx, "p", "s", []string{"a", "b"})
	require.NoError(t, err)
	_, err = client.ParseExcel(ctx, "p", "s")
	require.NoError(t, err)
	backend.AssertExpectations(t)
}

func TestClientPreservesErrorCodes(t *testing.T) {
	backend := new(testkit.MockBackend)
	backend.On("ParseExcel", mock.Anything, "p", "Missing").
		Return(table.Table{}, &errors.AppError{Code: errors.CodeNotFound, Message: "failed to read sheet", Cause: core.NewSheetNotFoundError("Missing")})
	backend.On("RunCorrelation", mock.Anything, "p", "s", []string{"a"}).
		Return(table.Table{}, fmt.Errorf("R crashed"))

	client := newTestClient(t, backend, nil)

	_, err := client.ParseExcel(context.Background(), "p", "Missing")
	assert.Equal(t, errors.CodeNotFound, errors.GetCode(err))
	assert.Contains(t, err.Error(), "Missing")

	_, err = client.RunCorrelation(context.Background(), "p", "s", []string{"a"})
	assert.Equal(t, errors.CodeIO, errors.GetCode(err))
	assert.Contains(t, err.Error(), "R crashed")
}

func TestSaveTextFile(t *testing.T) {
	store := new(mockStore)
	store.On("SaveTextFile", "out.csv", "a,b\r\n").Return(nil)

	client := newTestClient(t, new(testkit.MockBackend), store)
	require.NoError(t, client.SaveTextFile(context.Background(), "out.csv", "a,b\r\n"))
	store.AssertExpectations(t)

	disabled := newTestClient(t, new(testkit.MockBackend), nil)
	err := disabled.SaveTextFile(context.Background(), "out.csv", "x")
	assert.Equal(t, errors.CodeNotFound, errors.GetCode(err))
}

func TestMalformedBodyIsBadRequest(t *testing.T) {
	srv := NewServer(new(testkit.MockBackend), nil, 1, 0)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, RouteSheets, strings.NewReader("{"))

	srv.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), errors.CodeParse)
}

func TestAnalysesShareBoundedSlots(t *testing.T) {
	backend := new(testkit.MockBackend)
	release := make(chan struct{})
	started := make(chan struct{}, 2)
	backend.On("RunCorrelation", mock.Anything, "p", "s", mock.Anything).
		Run(func(mock.Arguments) {
			started <- struct{}{}
			<-release
		}).
		Return(table.Table{}, nil)

	ts := httptest.NewServer(NewServer(backend, nil, 1, 0).Handler())
	defer ts.Close()
	client := NewClient(ts.URL, ts.Client())

	done := make(chan error, 2)
	for i := 0; i < 2; i++ {
		go func() {
			_, err := client.RunCorrelation(context.Background(), "p", "s", []string{"a", "b"})
			done <- err
		}()
	}

	<-started
	select {
	case <-started:
		t.Fatal("second analysis started while the only slot was taken")
	case <-time.After(100 * time.Millisecond):
	}
	close(release)
	require.NoError(t, <-done)
	require.NoError(t, <-done)
}

func TestHealth(t *testing.T) {
	client := newTestClient(t, new(testkit.MockBackend), nil)
	assert.NoError(t, client.Health(context.Background()))

	unreachable := NewClient("http://127.0.0.1:1", nil)
	assert.Equal(t, errors.CodeIO, errors.GetCode(unreachable.Health(context.Background())))
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, http.StatusNotFound, StatusFor(errors.NotFound("sheet")))
	assert.Equal(t, http.StatusBadRequest, StatusFor(errors.InvalidInput("x")))
	assert.Equal(t, http.StatusGatewayTimeout, StatusFor(errors.IOError("x", context.DeadlineExceeded)))
	assert.Equal(t, http.StatusInternalServerError, StatusFor(fmt.Errorf("plain")))
}

package tableview

import (
	"context"
	"fmt"
	"testing"

	"psycdata/domain/analysis"
	"psycdata/domain/core"
	"psycdata/domain/table"
	"psycdata/internal/codec"
	"psycdata/internal/errors"
	"psycdata/internal/testkit"
	"psycdata/internal/window"
	"psycdata/ports"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockWindows struct {
	mock.Mock
}

func (m *mockWindows) OpenOrReuse(ctx context.Context, label, url string, payload interface{}) (ports.WindowHandle, window.Outcome, error) {
	args := m.Called(ctx, label, url, payload)
	return args.Get(0).(ports.WindowHandle), args.Get(1).(window.Outcome), args.Error(2)
}

var preview = table.Table{
	Headers: []string{"name", "列2", "score"},
	Rows:    [][]table.Cell{table.Row("Ann", nil, 4.5)},
}

func TestListSheetsThenPreview(t *testing.T) {
	backend := new(testkit.MockBackend)
	backend.On("ListSheets", mock.Anything, "/data/survey.xlsx").Return([]string{"Sheet1", "Notes"}, nil)
	backend.On("ParseExcel", mock.Anything, "/data/survey.xlsx", "Sheet1").Return(preview, nil)
	c := NewController(backend, new(mockWindows), "")

	var snapshots []State
	sub := c.Observe(func(s State) { snapshots = append(snapshots, s) })
	defer sub.Unsubscribe()

	require.NoError(t, c.SelectFile(context.Background(), " /data/survey.xlsx "))
	assert.Equal(t, []string{"Sheet1", "Notes"}, c.State().Sheets)

	assert.Error(t, c.SelectSheet("Other"))
	require.NoError(t, c.SelectSheet("Sheet1"))
	require.NoError(t, c.Load(context.Background()))

	s := c.State()
	require.NotNil(t, s.Table)
	assert.Equal(t, []string{"name", "列2", "score"}, s.Table.Headers)
	assert.False(t, s.Loading)
	assert.NotEmpty(t, snapshots)
	assert.True(t, snapshots[0].Loading)
}

func TestLoadFailureClearsPreview(t *testing.T) {
	backend := new(testkit.MockBackend)
	backend.On("ListSheets", mock.Anything, "p.xlsx").Return([]string{"A"}, nil)
	backend.On("ParseExcel", mock.Anything, "p.xlsx", "A").Return(table.Table{}, fmt.Errorf("%w: corrupt", core.ErrEmptySheetData))
	c := NewController(backend, new(mockWindows), "")

	require.NoError(t, c.SelectFile(context.Background(), "p.xlsx"))
	require.NoError(t, c.SelectSheet("A"))
	err := c.Load(context.Background())

	assert.Equal(t, errors.CodeIO, errors.GetCode(err))
	s := c.State()
	assert.Nil(t, s.Table)
	assert.Contains(t, s.Error, "corrupt")
}

func TestLoadAndOpenPanelRequireSheet(t *testing.T) {
	c := NewController(new(testkit.MockBackend), new(mockWindows), "")

	assert.Equal(t, errors.CodeValidation, errors.GetCode(c.Load(context.Background())))
	_, err := c.OpenPanel(context.Background(), analysis.KindDescriptive)
	assert.Equal(t, errors.CodeValidation, errors.GetCode(err))
	assert.Equal(t, errors.CodeInvalidInput, errors.GetCode(c.SelectFile(context.Background(), "")))
}

func TestOpenPanelSendsPayload(t *testing.T) {
	backend := new(testkit.MockBackend)
	backend.On("ListSheets", mock.Anything, "/d/s.xlsx").Return([]string{"Data"}, nil)
	windows := new(mockWindows)
	want := codec.Payload{Path: "/d/s.xlsx", Sheet: "Data", Analysis: "correlation"}
	windows.On("OpenOrReuse", mock.Anything, ports.LabelPanel,
		"http://localhost:8080/w/panel?analysis=correlation&path=%2Fd%2Fs.xlsx&sheet=Data", want).
		Return(ports.WindowHandle{ID: "w1", Label: ports.LabelPanel}, window.Reused, nil)

	c := NewController(backend, windows, "http://localhost:8080")
	require.NoError(t, c.SelectFile(context.Background(), "/d/s.xlsx"))
	require.NoError(t, c.SelectSheet("Data"))

	handle, err := c.OpenPanel(context.Background(), analysis.KindCorrelation)
	require.NoError(t, err)
	assert.Equal(t, core.WindowID("w1"), handle.ID)
	windows.AssertExpectations(t)
}

func TestClearDropsLateResponses(t *testing.T) {
	backend := new(testkit.MockBackend)
	c := NewController(backend, new(mockWindows), "")
	backend.On("ListSheets", mock.Anything, "late.xlsx").
		Run(func(mock.Arguments) { c.Clear() }).
		Return([]string{"Sheet1"}, nil)

	require.NoError(t, c.SelectFile(context.Background(), "late.xlsx"))

	s := c.State()
	assert.Empty(t, s.Path)
	assert.Empty(t, s.Sheets)
	assert.False(t, s.Loading)
}

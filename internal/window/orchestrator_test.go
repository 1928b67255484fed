package window

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"psycdata/domain/core"
	"psycdata/internal/errors"
	"psycdata/internal/events"
	"psycdata/ports"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockHost struct {
	mock.Mock
}

func (m *mockHost) Create(ctx context.Context, label, url string) (ports.WindowHandle, error) {
	args := m.Called(ctx, label, url)
	return args.Get(0).(ports.WindowHandle), args.Error(1)
}

func (m *mockHost) Focus(ctx context.Context, handle ports.WindowHandle) error {
	return m.Called(ctx, handle).Error(0)
}

func (m *mockHost) Close(ctx context.Context, handle ports.WindowHandle) error {
	return m.Called(ctx, handle).Error(0)
}

func TestOpenOrReuseKeepsOneWindowPerLabel(t *testing.T) {
	ctx := context.Background()
	host := new(mockHost)
	bus := events.NewBus()
	orch := NewOrchestrator(host, bus)

	handle := ports.WindowHandle{ID: core.NewWindowID(), Label: ports.LabelResult, URL: "/w/result?a=1"}
	host.On("Create", ctx, ports.LabelResult, "/w/result?a=1").Return(handle, nil).Once()
	host.On("Focus", ctx, handle).Return(nil).Once()

	var delivered []interface{}
	sub := bus.Subscribe(events.ResultLoad, func(p interface{}) { delivered = append(delivered, p) })
	defer sub.Unsubscribe()

	_, outcome, err := orch.OpenOrReuse(ctx, ports.LabelResult, "/w/result?a=1", "p1")
	require.NoError(t, err)
	assert.Equal(t, Created, outcome)
	assert.Empty(t, delivered, "a new window bootstraps from its URL")

	got, outcome, err := orch.OpenOrReuse(ctx, ports.LabelResult, "/w/result?a=2", "p2")
	require.NoError(t, err)
	assert.Equal(t, Reused, outcome)
	assert.Equal(t, handle, got)
	assert.Equal(t, []interface{}{"p2"}, delivered)

	assert.Len(t, orch.Live(), 1)
	host.AssertExpectations(t)
	host.AssertNumberOfCalls(t, "Create", 1)
}

func TestReuseWithoutPayloadDoesNotPublish(t *testing.T) {
	ctx := context.Background()
	host := new(mockHost)
	bus := events.NewBus()
	orch := NewOrchestrator(host, bus)

	handle := ports.WindowHandle{ID: core.NewWindowID(), Label: ports.LabelPanel}
	host.On("Create", ctx, ports.LabelPanel, "/w/panel").Return(handle, nil)
	host.On("Focus", ctx, mock.Anything).Return(nil)

	calls := 0
	sub := bus.Subscribe(events.PanelLoad, func(interface{}) { calls++ })
	defer sub.Unsubscribe()

	_, _, err := orch.OpenOrReuse(ctx, ports.LabelPanel, "/w/panel", nil)
	require.NoError(t, err)
	_, _, err = orch.OpenOrReuse(ctx, ports.LabelPanel, "/w/panel", nil)
	require.NoError(t, err)
	assert.Equal(t, 0, calls)
}

func TestCreateFailureLeavesNoEntry(t *testing.T) {
	ctx := context.Background()
	host := new(mockHost)
	orch := NewOrchestrator(host, events.NewBus())

	host.On("Create", ctx, ports.LabelResult, "/w/result").
		Return(ports.WindowHandle{}, fmt.Errorf("too many windows")).Once()

	_, _, err := orch.OpenOrReuse(ctx, ports.LabelResult, "/w/result", "p")
	require.Error(t, err)
	assert.Equal(t, errors.CodeOrchestration, errors.GetCode(err))
	assert.Contains(t, err.Error(), "too many windows")

	_, ok := orch.Lookup(ports.LabelResult)
	assert.False(t, ok)
	assert.Empty(t, orch.Live())
}

func TestHandleClosedIgnoresStaleHandles(t *testing.T) {
	ctx := context.Background()
	host := new(mockHost)
	orch := NewOrchestrator(host, events.NewBus())

	first := ports.WindowHandle{ID: core.NewWindowID(), Label: ports.LabelResult}
	second := ports.WindowHandle{ID: core.NewWindowID(), Label: ports.LabelResult}
	host.On("Create", ctx, ports.LabelResult, "/w/result").Return(first, nil).Once()
	host.On("Create", ctx, ports.LabelResult, "/w/result").Return(second, nil).Once()

	_, _, err := orch.OpenOrReuse(ctx, ports.LabelResult, "/w/result", nil)
	require.NoError(t, err)
	assert.True(t, orch.HandleClosed(first))

	_, outcome, err := orch.OpenOrReuse(ctx, ports.LabelResult, "/w/result", nil)
	require.NoError(t, err)
	assert.Equal(t, Created, outcome)

	assert.False(t, orch.HandleClosed(first), "late close report for the old window")
	current, ok := orch.Lookup(ports.LabelResult)
	assert.True(t, ok)
	assert.Equal(t, second.ID, current.ID)
}

func TestCloseRemovesEntry(t *testing.T) {
	ctx := context.Background()
	host := new(mockHost)
	orch := NewOrchestrator(host, events.NewBus())

	handle := ports.WindowHandle{ID: core.NewWindowID(), Label: ports.LabelPanel, URL: "/w/panel"}
	host.On("Create", ctx, ports.LabelPanel, "/w/panel").Return(handle, nil)
	host.On("Close", ctx, handle).Return(nil).Once()

	_, _, err := orch.OpenOrReuse(ctx, ports.LabelPanel, "/w/panel", nil)
	require.NoError(t, err)
	require.NoError(t, orch.Close(ctx, ports.LabelPanel))

	_, ok := orch.Lookup(ports.LabelPanel)
	assert.False(t, ok)
	assert.NoError(t, orch.Close(ctx, ports.LabelPanel), "closing an absent label is a no-op")
	host.AssertExpectations(t)
}

func TestConcurrentOpenCreatesOnce(t *testing.T) {
	ctx := context.Background()
	host := new(mockHost)
	orch := NewOrchestrator(host, events.NewBus())

	handle := ports.WindowHandle{ID: core.NewWindowID(), Label: ports.LabelResult}
	host.On("Create", ctx, ports.LabelResult, mock.Anything).Return(handle, nil).Once()
	host.On("Focus", ctx, mock.Anything).Return(nil)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, _, err := orch.OpenOrReuse(ctx, ports.LabelResult, fmt.Sprintf("/w/result?n=%d", i), i)
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	host.AssertNumberOfCalls(t, "Create", 1)
	assert.Len(t, orch.Live(), 1)
}

func TestReuseOfStaleWindowCreatesReplacement(t *testing.T) {
	ctx := context.Background()
	host := new(mockHost)
	bus := events.NewBus()
	orch := NewOrchestrator(host, bus)

	stale := ports.WindowHandle{ID: core.NewWindowID(), Label: ports.LabelResult, URL: "/w/result?a=1"}
	fresh := ports.WindowHandle{ID: core.NewWindowID(), Label: ports.LabelResult, URL: "/w/result?a=2"}
	host.On("Create", ctx, ports.LabelResult, "/w/result?a=1").Return(stale, nil).Once()
	host.On("Focus", ctx, stale).Return(fmt.Errorf("%w: %s", core.ErrWindowNotFound, stale.ID)).Once()
	host.On("Create", ctx, ports.LabelResult, "/w/result?a=2").Return(fresh, nil).Once()

	published := 0
	sub := bus.Subscribe(events.ResultLoad, func(interface{}) { published++ })
	defer sub.Unsubscribe()

	_, _, err := orch.OpenOrReuse(ctx, ports.LabelResult, "/w/result?a=1", "p1")
	require.NoError(t, err)

	got, outcome, err := orch.OpenOrReuse(ctx, ports.LabelResult, "/w/result?a=2", "p2")
	require.NoError(t, err)
	assert.Equal(t, Created, outcome)
	assert.Equal(t, fresh.ID, got.ID)
	assert.Zero(t, published, "the replacement bootstraps from its URL")

	current, ok := orch.Lookup(ports.LabelResult)
	require.True(t, ok)
	assert.Equal(t, fresh.ID, current.ID)
	assert.False(t, orch.HandleClosed(stale))
	host.AssertExpectations(t)
}

func TestReuseOfStaleWindowReportsCreateFailure(t *testing.T) {
	ctx := context.Background()
	host := new(mockHost)
	orch := NewOrchestrator(host, events.NewBus())

	stale := ports.WindowHandle{ID: core.NewWindowID(), Label: ports.LabelPanel, URL: "/w/panel"}
	host.On("Create", ctx, ports.LabelPanel, "/w/panel").Return(stale, nil).Once()
	host.On("Focus", ctx, stale).Return(core.ErrWindowNotFound).Once()
	host.On("Create", ctx, ports.LabelPanel, "/w/panel").Return(ports.WindowHandle{}, fmt.Errorf("host gone")).Once()

	_, _, err := orch.OpenOrReuse(ctx, ports.LabelPanel, "/w/panel", nil)
	require.NoError(t, err)

	_, _, err = orch.OpenOrReuse(ctx, ports.LabelPanel, "/w/panel", "p")
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.CodeOrchestration))
	_, ok := orch.Lookup(ports.LabelPanel)
	assert.False(t, ok, "no entry is left for a window that does not exist")
}

package events

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPublishReachesOnlyItsChannel(t *testing.T) {
	bus := NewBus()

	var got []interface{}
	sub := bus.Subscribe(ResultLoad, func(p interface{}) { got = append(got, p) })
	defer sub.Unsubscribe()

	assert.Equal(t, 1, bus.Publish(ResultLoad, "first"))
	assert.Equal(t, 0, bus.Publish(PanelLoad, "ignored"))
	assert.Equal(t, []interface{}{"first"}, got)
}

func TestUnsubscribeIsIdempotent(t *testing.T) {
	bus := NewBus()

	calls := 0
	a := bus.Subscribe(PanelLoad, func(interface{}) { calls++ })
	b := bus.Subscribe(PanelLoad, func(interface{}) { calls += 10 })
	assert.Equal(t, 2, bus.Subscribers(PanelLoad))

	a.Unsubscribe()
	a.Unsubscribe()
	assert.Equal(t, 1, bus.Subscribers(PanelLoad))

	bus.Publish(PanelLoad, nil)
	assert.Equal(t, 10, calls)

	b.Unsubscribe()
	assert.Equal(t, 0, bus.Subscribers(PanelLoad))
	assert.Equal(t, 0, bus.Publish(PanelLoad, nil))
}

func TestHandlerMayUnsubscribeDuringPublish(t *testing.T) {
	bus := NewBus()

	var sub Subscription
	calls := 0
	sub = bus.Subscribe(ResultLoad, func(interface{}) {
		calls++
		sub.Unsubscribe()
	})

	bus.Publish(ResultLoad, 1)
	bus.Publish(ResultLoad, 2)
	assert.Equal(t, 1, calls)
}

func TestConcurrentPublishAndSubscribe(t *testing.T) {
	bus := NewBus()
	var wg sync.WaitGroup
	var mu sync.Mutex
	received := 0

	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			s := bus.Subscribe(ResultLoad, func(interface{}) {
				mu.Lock()
				received++
				mu.Unlock()
			})
			s.Unsubscribe()
		}()
		go func() {
			defer wg.Done()
			bus.Publish(ResultLoad, "x")
		}()
	}
	wg.Wait()
	assert.Equal(t, 0, bus.Subscribers(ResultLoad))
}

func TestLoadChannel(t *testing.T) {
	assert.Equal(t, ResultLoad, LoadChannel("result"))
	assert.Equal(t, PanelLoad, LoadChannel("panel"))
}

package events

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"dashboard/backend/internal/model"
)

func TestBusDeliversInOrder(t *testing.T) {
	bus := NewBus()
	var got []string

	bus.Subscribe(func(ev Completion) { got = append(got, "first:"+ev.Timer.ID) })
	bus.Subscribe(func(ev Completion) { got = append(got, "second:"+ev.Timer.ID) })

	bus.Publish(Completion{Timer: model.Timer{ID: "a"}, Source: SourceCountdown})

	assert.Equal(t, []string{"first:a", "second:a"}, got)
}

func TestBusUnsubscribe(t *testing.T) {
	bus := NewBus()
	calls := 0
	unsubscribe := bus.Subscribe(func(Completion) { calls++ })

	bus.Publish(Completion{})
	unsubscribe()
	unsubscribe()
	bus.Publish(Completion{})

	assert.Equal(t, 1, calls)
	assert.Equal(t, 0, bus.Len())
}

func TestBusHandlerMaySubscribeDuringPublish(t *testing.T) {
	bus := NewBus()
	bus.Subscribe(func(Completion) {
		bus.Subscribe(func(Completion) {})
	})

	assert.NotPanics(t, func() { bus.Publish(Completion{}) })
	assert.Equal(t, 2, bus.Len())
}

// Package events carries timer completion notifications between the views that
// observe a timer finishing and the consumers that react to it. A Bus is
// created by the binary and injected; there is no package-level instance.
package events

import (
	"sync"
	"time"

	"dashboard/backend/internal/model"
)

type Source string

const (
	// SourceCountdown marks a completion observed by a live countdown view.
	SourceCountdown Source = "countdown"
	// SourceReconcile marks a completion discovered when a stale row was read.
	SourceReconcile Source = "reconcile"
	// SourceUpdate marks a completion written through a timer update.
	SourceUpdate Source = "update"
)

type Completion struct {
	Timer  model.Timer
	Source Source
	// RunEnd is the end time of the run that finished, nil when unknown. Two
	// completions of one timer with the same RunEnd describe the same finish.
	RunEnd *time.Time
	At     time.Time
}

// Emitter is the publishing side handed to producers.
type Emitter interface {
	Publish(Completion)
}

// Bus fans each published completion out to every subscriber, synchronously
// and in subscription order. Handlers that do slow work must hand it off.
type Bus struct {
	mu     sync.RWMutex
	nextID int
	subs   map[int]func(Completion)
	order  []int
}

func NewBus() *Bus {
	return &Bus{subs: make(map[int]func(Completion))}
}

// Subscribe registers fn and returns a function that removes it.
func (b *Bus) Subscribe(fn func(Completion)) func() {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.nextID
	b.nextID++
	b.subs[id] = fn
	b.order = append(b.order, id)

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			delete(b.subs, id)
			for i, v := range b.order {
				if v == id {
					b.order = append(b.order[:i], b.order[i+1:]...)
					break
				}
			}
		})
	}
}

func (b *Bus) Publish(ev Completion) {
	b.mu.RLock()
	handlers := make([]func(Completion), 0, len(b.order))
	for _, id := range b.order {
		handlers = append(handlers, b.subs[id])
	}
	b.mu.RUnlock()

	for _, fn := range handlers {
		fn(ev)
	}
}

// Len reports the number of live subscriptions.
func (b *Bus) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}

// Discard drops every completion.
type Discard struct{}

func (Discard) Publish(Completion) {}

// Package widget keeps a sorted overview of all of an owner's timers. Its
// remaining-time map is recomputed from each running timer's end time on every
// tick and never shares state with a countdown view of the same timer.
package widget

import (
	"context"
	"sync"
	"time"

	"github.com/jmhodges/clock"
	"go.uber.org/zap"

	"dashboard/backend/internal/model"
)

const (
	DefaultTickInterval    = time.Second
	DefaultRefreshInterval = 30 * time.Second
)

// Source loads the authoritative timer list.
type Source interface {
	ListTimers(ctx context.Context) ([]model.Timer, error)
}

type Widget struct {
	source  Source
	clock   clock.Clock
	maxRows int
	logger  *zap.Logger

	mu        sync.Mutex
	timers    []model.Timer
	remaining map[string]int
	loaded    bool
}

func New(source Source, clk clock.Clock, maxRows int, logger *zap.Logger) *Widget {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Widget{
		source:    source,
		clock:     clk,
		maxRows:   maxRows,
		logger:    logger,
		remaining: map[string]int{},
	}
}

// Refresh reloads the list. On failure the previous list is kept.
func (w *Widget) Refresh(ctx context.Context) error {
	timers, err := w.source.ListTimers(ctx)
	if err != nil {
		w.logger.Warn("refresh timer overview", zap.Error(err))
		return err
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	w.timers = timers
	w.remaining = Remaining(timers, w.clock.Now())
	w.loaded = true
	return nil
}

// Tick recomputes the remaining map from end times.
func (w *Widget) Tick() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.remaining = Remaining(w.timers, w.clock.Now())
}

func (w *Widget) Loaded() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.loaded
}

func (w *Widget) Summary() Summary {
	w.mu.Lock()
	defer w.mu.Unlock()
	return summarize(w.timers, w.remaining, w.maxRows)
}

// Run refreshes once, then ticks and refreshes on their intervals until ctx is
// done.
func (w *Widget) Run(ctx context.Context, tickInterval, refreshInterval time.Duration) {
	if tickInterval <= 0 {
		tickInterval = DefaultTickInterval
	}
	if refreshInterval <= 0 {
		refreshInterval = DefaultRefreshInterval
	}

	_ = w.Refresh(ctx)

	tick := time.NewTicker(tickInterval)
	defer tick.Stop()
	refresh := time.NewTicker(refreshInterval)
	defer refresh.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-tick.C:
			w.Tick()
		case <-refresh.C:
			_ = w.Refresh(ctx)
		}
	}
}

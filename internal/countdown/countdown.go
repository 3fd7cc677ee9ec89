// Package countdown drives the live display of a single timer. It keeps a
// local one-second mirror of the remaining time, seeded from the latest
// snapshot, and is the view that observes a running timer reaching zero.
//
// The mirror is decremented per tick rather than derived from the end time, so
// it may trail the wall clock slightly; the next snapshot corrects it.
package countdown

import (
	"context"
	"sync"
	"time"

	"github.com/jmhodges/clock"
	"go.uber.org/zap"

	"dashboard/backend/internal/events"
	"dashboard/backend/internal/model"
)

const DefaultInterval = time.Second

// TimerAPI is the mutation surface a countdown needs, already bound to the
// timer's owner.
type TimerAPI interface {
	StartTimer(ctx context.Context, id string) error
	PauseTimer(ctx context.Context, id string, remainingSeconds int) error
	ResetTimer(ctx context.Context, id string) error
	UpdateTimer(ctx context.Context, id string, patch model.TimerPatch) error
	DeleteTimer(ctx context.Context, id string) error
}

type Countdown struct {
	api     TimerAPI
	emitter events.Emitter
	clock   clock.Clock
	refresh func()
	logger  *zap.Logger

	mu        sync.Mutex
	timer     model.Timer
	remaining int
	fired     bool
	firedEnd  *time.Time
	editing   bool
	draft     string
	deleting  bool
}

// New mounts a countdown on snapshot. refresh is called after every
// successful mutation so the owner can fetch a new snapshot; it may be nil.
func New(
	snapshot model.Timer,
	api TimerAPI,
	emitter events.Emitter,
	clk clock.Clock,
	refresh func(),
	logger *zap.Logger,
) *Countdown {
	if emitter == nil {
		emitter = events.Discard{}
	}
	if refresh == nil {
		refresh = func() {}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &Countdown{
		api:     api,
		emitter: emitter,
		clock:   clk,
		refresh: refresh,
		logger:  logger.With(zap.String("timer_id", snapshot.ID)),
	}
	c.SetSnapshot(snapshot)
	return c
}

// SetSnapshot re-seeds the mirror. A snapshot of the run that already
// completed here does not re-arm completion.
func (c *Countdown) SetSnapshot(t model.Timer) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.timer = t
	c.remaining = t.RemainingSeconds
	switch t.State {
	case model.StateCompleted:
	case model.StateRunning:
		if !sameInstant(t.EndTime, c.firedEnd) {
			c.fired = false
			c.firedEnd = nil
		}
	default:
		c.fired = false
		c.firedEnd = nil
	}
	if t.State == model.StateRunning {
		c.editing = false
	}
}

func (c *Countdown) ID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.timer.ID
}

func (c *Countdown) Remaining() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.remaining
}

// Tick advances the mirror by one second while running. The tick that reaches
// zero persists completion, publishes it and requests a refresh, once per run.
func (c *Countdown) Tick(ctx context.Context) {
	c.mu.Lock()
	if c.timer.State != model.StateRunning || c.fired {
		c.mu.Unlock()
		return
	}
	if c.remaining > 0 {
		c.remaining--
	}
	if c.remaining > 0 {
		c.mu.Unlock()
		return
	}

	c.fired = true
	c.firedEnd = c.timer.EndTime
	runEnd := c.timer.EndTime
	done := c.timer
	done.State = model.StateCompleted
	done.RemainingSeconds = 0
	done.EndTime = nil
	c.timer = done
	c.mu.Unlock()

	c.complete(ctx, done, runEnd)
}

func (c *Countdown) complete(ctx context.Context, done model.Timer, runEnd *time.Time) {
	state := model.StateCompleted
	zero := 0
	err := c.api.UpdateTimer(ctx, done.ID, model.TimerPatch{
		State:            &state,
		RemainingSeconds: &zero,
		ClearEndTime:     true,
	})
	if err != nil {
		c.logger.Warn("persist completion", zap.Error(err))
	}

	c.emitter.Publish(events.Completion{
		Timer:  done,
		Source: events.SourceCountdown,
		RunEnd: runEnd,
		At:     c.clock.Now(),
	})
	c.refresh()
}

// Run ticks every interval until ctx is done. Calls already issued when ctx
// ends are allowed to finish.
func (c *Countdown) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = DefaultInterval
	}
	detached := context.WithoutCancel(ctx)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.Tick(detached)
		}
	}
}

func (c *Countdown) Start(ctx context.Context) error {
	id := c.ID()
	if err := c.api.StartTimer(ctx, id); err != nil {
		c.logger.Warn("start timer", zap.Error(err))
		return err
	}
	c.refresh()
	return nil
}

// Pause sends the mirror's current value, not a server-side recomputation.
func (c *Countdown) Pause(ctx context.Context) error {
	c.mu.Lock()
	id, remaining := c.timer.ID, c.remaining
	c.mu.Unlock()

	if err := c.api.PauseTimer(ctx, id, remaining); err != nil {
		c.logger.Warn("pause timer", zap.Error(err))
		return err
	}
	c.refresh()
	return nil
}

func (c *Countdown) Reset(ctx context.Context) error {
	id := c.ID()
	if err := c.api.ResetTimer(ctx, id); err != nil {
		c.logger.Warn("reset timer", zap.Error(err))
		return err
	}
	c.refresh()
	return nil
}

// Delete asks confirm first; a nil confirm never confirms. The control stays
// disabled while the call runs and a failed delete re-enables it.
func (c *Countdown) Delete(ctx context.Context, confirm func() bool) bool {
	c.mu.Lock()
	if c.deleting {
		c.mu.Unlock()
		return false
	}
	c.mu.Unlock()

	if confirm == nil || !confirm() {
		return false
	}

	c.mu.Lock()
	if c.deleting {
		c.mu.Unlock()
		return false
	}
	c.deleting = true
	id := c.timer.ID
	c.mu.Unlock()

	if err := c.api.DeleteTimer(ctx, id); err != nil {
		c.logger.Warn("delete timer", zap.Error(err))
		c.mu.Lock()
		c.deleting = false
		c.mu.Unlock()
		return false
	}
	c.refresh()
	return true
}

func sameInstant(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Equal(*b)
}

// Package alert reacts to timer completions with an audible alarm and a
// notification. It holds no timer state.
package alert

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"dashboard/backend/internal/events"
	"dashboard/backend/internal/metrics"
)

type Dispatcher struct {
	player     Player
	notifier   Notifier
	permission PermissionProvider
	metrics    *metrics.Recorder
	logger     *zap.Logger

	wg sync.WaitGroup

	mu      sync.Mutex
	handled map[string]time.Time
}

// NewDispatcher builds a dispatcher. A nil player or notifier disables that
// effect; a nil permission provider is treated as not granted.
func NewDispatcher(
	player Player,
	notifier Notifier,
	permission PermissionProvider,
	rec *metrics.Recorder,
	logger *zap.Logger,
) *Dispatcher {
	if player == nil {
		player = NopPlayer{}
	}
	if permission == nil {
		permission = StaticPermission(PermissionDefault)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Dispatcher{
		player:     player,
		notifier:   notifier,
		permission: permission,
		metrics:    rec,
		logger:     logger,
		handled:    make(map[string]time.Time),
	}
}

// Attach subscribes to bus. Each completion is handled on its own goroutine so
// the publisher never waits for a tone to finish.
func (d *Dispatcher) Attach(bus *events.Bus) func() {
	return bus.Subscribe(func(ev events.Completion) {
		d.wg.Add(1)
		go func() {
			defer d.wg.Done()
			d.Handle(context.Background(), ev)
		}()
	})
}

// Wait blocks until every handled completion has finished.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

// Handle runs both effects. The alarm follows the timer's enableAlarm flag and
// the notification follows the permission; neither gates the other. A run
// already handled under another source is skipped.
func (d *Dispatcher) Handle(ctx context.Context, ev events.Completion) {
	t := ev.Timer
	log := d.logger.With(zap.String("timer_id", t.ID), zap.String("source", string(ev.Source)))
	if !d.firstOfRun(ev) {
		log.Debug("skip repeated completion")
		return
	}

	if t.EnableAlarm {
		err := d.player.Play(ctx, Synthesize(t.AlarmSound))
		d.metrics.Alert("alarm", err == nil)
		if err != nil {
			log.Warn("play alarm", zap.String("sound", t.AlarmSound), zap.Error(err))
		}
	}

	if d.notifier != nil && d.permission.Permission() == PermissionGranted {
		err := d.notifier.Notify(ctx, Notification{
			Title: "Timer complete",
			Body:  fmt.Sprintf("%q has finished.", t.Name),
		})
		d.metrics.Alert("notification", err == nil)
		if err != nil {
			log.Warn("send notification", zap.Error(err))
		}
	}
}

func (d *Dispatcher) firstOfRun(ev events.Completion) bool {
	if ev.RunEnd == nil {
		return true
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if last, ok := d.handled[ev.Timer.ID]; ok && last.Equal(*ev.RunEnd) {
		return false
	}
	d.handled[ev.Timer.ID] = *ev.RunEnd
	return true
}

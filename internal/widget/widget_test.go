package widget

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/jmhodges/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dashboard/backend/internal/model"
)

type stubSource struct {
	timers []model.Timer
	err    error
	calls  int
}

func (s *stubSource) ListTimers(context.Context) ([]model.Timer, error) {
	s.calls++
	return s.timers, s.err
}

func stopped(id string, remaining int) model.Timer {
	return model.Timer{ID: id, Name: id, DurationSeconds: 600, RemainingSeconds: remaining, State: model.StateStopped}
}

func running(id string, now time.Time, remaining int) model.Timer {
	end := now.Add(time.Duration(remaining) * time.Second)
	return model.Timer{ID: id, Name: id, DurationSeconds: 600, RemainingSeconds: 600, State: model.StateRunning, EndTime: &end}
}

func ids(s Summary) []string {
	out := make([]string, 0, len(s.Rows))
	for _, r := range s.Rows {
		out = append(out, r.ID)
	}
	return out
}

func TestSummarizeOrdersByStatePriority(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	paused := stopped("paused", 200)
	paused.State = model.StatePaused

	s := Summarize([]model.Timer{stopped("stopped", 100), running("running", now, 400), paused}, now, 4)
	assert.Equal(t, []string{"running", "paused", "stopped"}, ids(s))
	assert.Equal(t, 0, s.More)
	assert.Empty(t, s.MoreLabel)
}

func TestSummarizeBreaksTiesByRemaining(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	s := Summarize([]model.Timer{
		running("slow", now, 500),
		running("fast", now, 20),
		stopped("b", 90),
		stopped("a", 30),
	}, now, 4)
	assert.Equal(t, []string{"fast", "slow", "a", "b"}, ids(s))
	assert.Equal(t, "0:20", s.Rows[0].Display)
}

func TestSummarizeCollapsesOverflow(t *testing.T) {
	now := time.Now()
	timers := make([]model.Timer, 0, 7)
	for i := 0; i < 7; i++ {
		timers = append(timers, stopped(fmt.Sprintf("t%d", i), 10+i))
	}
	s := Summarize(timers, now, 4)
	assert.Len(t, s.Rows, 4)
	assert.Equal(t, 3, s.More)
	assert.Equal(t, "+3 more", s.MoreLabel)
	assert.Equal(t, 7, s.Total)
}

func TestSummarizeDimsCompleted(t *testing.T) {
	done := model.Timer{
		ID: "done", DurationSeconds: 60, State: model.StateCompleted,
		EnableCompletionColor: true, CompletionColor: "#22c55e",
	}
	s := Summarize([]model.Timer{done, stopped("next", 60)}, time.Now(), 4)
	require.Len(t, s.Rows, 2)
	assert.Equal(t, "done", s.Rows[1].ID)
	assert.True(t, s.Rows[1].Dimmed)
	assert.Equal(t, "#22c55e", s.Rows[1].Color)
	assert.Equal(t, float64(100), s.Rows[1].Progress)
	assert.False(t, s.Rows[0].Dimmed)
}

func TestWidgetTicksFromEndTime(t *testing.T) {
	clk := clock.NewFake()
	src := &stubSource{timers: []model.Timer{running("r", clk.Now(), 90)}}
	w := New(src, clk, 4, nil)
	require.NoError(t, w.Refresh(context.Background()))
	assert.Equal(t, 90, w.Summary().Rows[0].RemainingSeconds)

	clk.Add(30 * time.Second)
	w.Tick()
	assert.Equal(t, 60, w.Summary().Rows[0].RemainingSeconds)

	clk.Add(2 * time.Minute)
	w.Tick()
	row := w.Summary().Rows[0]
	assert.Equal(t, 0, row.RemainingSeconds)
	assert.Equal(t, model.StateRunning, row.State)
}

func TestWidgetKeepsListWhenRefreshFails(t *testing.T) {
	clk := clock.NewFake()
	src := &stubSource{timers: []model.Timer{stopped("a", 10)}}
	w := New(src, clk, 4, nil)
	require.NoError(t, w.Refresh(context.Background()))

	src.err = errors.New("offline")
	src.timers = nil
	assert.Error(t, w.Refresh(context.Background()))
	assert.True(t, w.Loaded())
	assert.Equal(t, []string{"a"}, ids(w.Summary()))
}

func TestWidgetRunStopsOnCancel(t *testing.T) {
	src := &stubSource{}
	w := New(src, clock.New(), 4, nil)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		w.Run(ctx, time.Millisecond, time.Millisecond)
		close(done)
	}()
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

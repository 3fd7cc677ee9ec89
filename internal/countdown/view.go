package countdown

import (
	"dashboard/backend/internal/model"
	"dashboard/backend/internal/timer"
)

type View struct {
	ID       string
	Name     string
	State    model.TimerState
	Display  string
	Progress float64
	EndLabel string
	Color    string
	Editing  bool
	Draft    string

	CanEdit   bool
	CanStart  bool
	CanPause  bool
	CanReset  bool
	CanDelete bool
}

func (c *Countdown) View() View {
	c.mu.Lock()
	defer c.mu.Unlock()

	t := c.timer
	live := t
	live.RemainingSeconds = c.remaining

	v := View{
		ID:       t.ID,
		Name:     t.Name,
		State:    t.State,
		Display:  timer.FormatTime(c.remaining),
		Progress: timer.GetProgress(live),
		Editing:  c.editing,
		Draft:    c.draft,

		CanEdit:   t.State != model.StateRunning,
		CanStart:  t.State != model.StateRunning && timer.CanTransition(t.State, timer.EventStart) && c.remaining > 0,
		CanPause:  timer.CanTransition(t.State, timer.EventPause),
		CanReset:  t.State != model.StateStopped || c.remaining != t.DurationSeconds,
		CanDelete: !c.deleting,
	}
	if label, ok := timer.FormatEndTime(t.EndTime, t.State, c.clock.Now()); ok {
		v.EndLabel = label
	}
	if t.State == model.StateCompleted && t.EnableCompletionColor {
		v.Color = t.CompletionColor
	}
	return v
}

package countdown

import (
	"context"

	"go.uber.org/zap"

	"dashboard/backend/internal/model"
	"dashboard/backend/internal/timer"
)

type Key string

const (
	KeyEnter  Key = "Enter"
	KeySpace  Key = " "
	KeyEscape Key = "Escape"
)

// Activate opens the inline editor, as a click on the time display does. It
// reports false while the timer is running.
func (c *Countdown) Activate() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.openLocked()
}

func (c *Countdown) openLocked() bool {
	if c.timer.State == model.StateRunning {
		return false
	}
	if !c.editing {
		c.editing = true
		c.draft = timer.FormatTime(c.remaining)
	}
	return true
}

// SetDraft replaces the editor text.
func (c *Countdown) SetDraft(text string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.editing {
		c.draft = text
	}
}

// HandleKey applies a key press to the time display or the open editor.
// Enter and Space open the editor; with it open, Enter commits and Escape
// cancels.
func (c *Countdown) HandleKey(ctx context.Context, key Key) error {
	c.mu.Lock()
	if !c.editing {
		if key == KeyEnter || key == KeySpace {
			c.openLocked()
		}
		c.mu.Unlock()
		return nil
	}
	switch key {
	case KeyEscape:
		c.editing = false
		c.draft = ""
		c.mu.Unlock()
		return nil
	case KeyEnter:
		c.mu.Unlock()
		return c.commit(ctx)
	}
	c.mu.Unlock()
	return nil
}

// Blur commits the open editor.
func (c *Countdown) Blur(ctx context.Context) error {
	return c.commit(ctx)
}

// commit closes the editor and, when the draft parses to an in-range value
// different from the mirror, redefines the timer's full duration.
func (c *Countdown) commit(ctx context.Context) error {
	c.mu.Lock()
	if !c.editing {
		c.mu.Unlock()
		return nil
	}
	c.editing = false
	draft := c.draft
	c.draft = ""
	current := c.timer
	mirror := c.remaining
	c.mu.Unlock()

	parsed, ok := timer.ParseTime(draft)
	if !ok || timer.ValidDuration(parsed) != nil || parsed == mirror {
		return nil
	}
	state, err := timer.Transition(current.State, timer.EventEdit)
	if err != nil {
		return nil
	}

	patch := model.TimerPatch{
		DurationSeconds:  &parsed,
		RemainingSeconds: &parsed,
		State:            &state,
		ClearEndTime:     true,
	}
	if err := c.api.UpdateTimer(ctx, current.ID, patch); err != nil {
		c.logger.Warn("edit timer duration", zap.Int("seconds", parsed), zap.Error(err))
		return err
	}

	c.mu.Lock()
	c.timer = patch.Apply(c.timer)
	c.remaining = parsed
	c.mu.Unlock()
	c.refresh()
	return nil
}

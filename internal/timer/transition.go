package timer

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"dashboard/backend/internal/model"
)

type Event string

const (
	EventStart    Event = "start"
	EventPause    Event = "pause"
	EventReset    Event = "reset"
	EventComplete Event = "complete"
	EventEdit     Event = "edit"
)

var ErrInvalidTransition = errors.New("invalid timer transition")

var transitions = map[model.TimerState]map[Event]model.TimerState{
	model.StateStopped: {
		EventStart: model.StateRunning,
		EventReset: model.StateStopped,
		EventEdit:  model.StateStopped,
	},
	model.StateRunning: {
		EventStart:    model.StateRunning,
		EventPause:    model.StatePaused,
		EventReset:    model.StateStopped,
		EventComplete: model.StateCompleted,
	},
	model.StatePaused: {
		EventStart: model.StateRunning,
		EventReset: model.StateStopped,
		EventEdit:  model.StateStopped,
	},
	model.StateCompleted: {
		EventReset: model.StateStopped,
		EventEdit:  model.StateStopped,
	},
}

// Transition looks up the state reached from `from` on event e.
func Transition(from model.TimerState, e Event) (model.TimerState, error) {
	to, ok := transitions[from][e]
	if !ok {
		return from, fmt.Errorf("%w: %s from %s", ErrInvalidTransition, e, from)
	}
	return to, nil
}

func CanTransition(from model.TimerState, e Event) bool {
	_, err := Transition(from, e)
	return err == nil
}

var hexColor = regexp.MustCompile(`^#(?:[0-9a-fA-F]{3}|[0-9a-fA-F]{6})$`)

func ValidName(name string) error {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return errors.New("Name is required")
	}
	if utf8.RuneCountInString(trimmed) > model.MaxNameLength {
		return fmt.Errorf("Name must be %d characters or less", model.MaxNameLength)
	}
	return nil
}

func ValidDuration(seconds int) error {
	if seconds < model.MinDurationSeconds || seconds > model.MaxDurationSeconds {
		return fmt.Errorf("Duration must be between %d and %d seconds", model.MinDurationSeconds, model.MaxDurationSeconds)
	}
	return nil
}

func ValidColor(color string) error {
	if !hexColor.MatchString(color) {
		return errors.New("Completion color must be a hex color like #22c55e")
	}
	return nil
}

// Validate checks the entity invariants and returns the first violation.
func Validate(t model.Timer) error {
	if err := ValidName(t.Name); err != nil {
		return err
	}
	if err := ValidDuration(t.DurationSeconds); err != nil {
		return err
	}
	if !t.State.Valid() {
		return errors.New("State must be one of stopped, running, paused, completed")
	}
	if t.RemainingSeconds < 0 || t.RemainingSeconds > t.DurationSeconds {
		return errors.New("Remaining seconds must be between 0 and the duration")
	}
	if t.State == model.StateRunning && t.EndTime == nil {
		return errors.New("A running timer must have an end time")
	}
	if t.State != model.StateRunning && t.EndTime != nil {
		return errors.New("Only a running timer can have an end time")
	}
	if t.DisplayOrder < 0 {
		return errors.New("Display order must be non-negative")
	}
	return nil
}

package timer

import (
	"time"

	"dashboard/backend/internal/model"
)

// CalculateRemainingSeconds derives the live remaining time of a running timer.
// The boolean is false when the timer is not running or has no end time.
func CalculateRemainingSeconds(endTime *time.Time, state model.TimerState, now time.Time) (int, bool) {
	if state != model.StateRunning || endTime == nil || endTime.IsZero() {
		return 0, false
	}
	remaining := int(endTime.Sub(now) / time.Second)
	if remaining < 0 {
		return 0, true
	}
	return remaining, true
}

// SyncTimerState returns t reconciled against now. Only running timers with an
// end time change: they either get a refreshed RemainingSeconds or, once the
// deadline has passed, become completed with no end time.
func SyncTimerState(t model.Timer, now time.Time) model.Timer {
	remaining, ok := CalculateRemainingSeconds(t.EndTime, t.State, now)
	if !ok {
		return t
	}

	out := t
	if remaining == 0 {
		out.State = model.StateCompleted
		out.RemainingSeconds = 0
		out.EndTime = nil
		return out
	}
	out.RemainingSeconds = remaining
	return out
}

// GetProgress reports elapsed time as a percentage of the full duration.
func GetProgress(t model.Timer) float64 {
	if t.DurationSeconds <= 0 {
		return 0
	}
	return float64(t.DurationSeconds-t.RemainingSeconds) / float64(t.DurationSeconds) * 100
}

func CalculateEndTime(remainingSeconds int, now time.Time) time.Time {
	return now.Add(time.Duration(remainingSeconds) * time.Second)
}

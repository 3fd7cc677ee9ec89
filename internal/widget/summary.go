package widget

import (
	"fmt"
	"sort"
	"time"

	"dashboard/backend/internal/model"
	"dashboard/backend/internal/timer"
)

const DefaultMaxRows = 4

var statePriority = map[model.TimerState]int{
	model.StateRunning:   0,
	model.StatePaused:    1,
	model.StateStopped:   2,
	model.StateCompleted: 3,
}

type Row struct {
	ID               string           `json:"id"`
	Name             string           `json:"name"`
	State            model.TimerState `json:"state"`
	RemainingSeconds int              `json:"remainingSeconds"`
	Display          string           `json:"display"`
	Progress         float64          `json:"progress"`
	Dimmed           bool             `json:"dimmed"`
	Color            string           `json:"color,omitempty"`
}

type Summary struct {
	Rows      []Row  `json:"rows"`
	More      int    `json:"more"`
	MoreLabel string `json:"moreLabel,omitempty"`
	Total     int    `json:"total"`
}

// Remaining returns the live remaining seconds for every timer. Running timers
// are derived from their end time; everything else uses the stored value.
func Remaining(timers []model.Timer, now time.Time) map[string]int {
	out := make(map[string]int, len(timers))
	for _, t := range timers {
		if live, ok := timer.CalculateRemainingSeconds(t.EndTime, t.State, now); ok {
			out[t.ID] = live
			continue
		}
		out[t.ID] = t.RemainingSeconds
	}
	return out
}

// Summarize sorts timers by state priority then ascending remaining time and
// keeps at most maxRows of them.
func Summarize(timers []model.Timer, now time.Time, maxRows int) Summary {
	return summarize(timers, Remaining(timers, now), maxRows)
}

func summarize(timers []model.Timer, remaining map[string]int, maxRows int) Summary {
	if maxRows <= 0 {
		maxRows = DefaultMaxRows
	}

	sorted := make([]model.Timer, len(timers))
	copy(sorted, timers)
	sort.SliceStable(sorted, func(i, j int) bool {
		pi, pj := priority(sorted[i].State), priority(sorted[j].State)
		if pi != pj {
			return pi < pj
		}
		return remaining[sorted[i].ID] < remaining[sorted[j].ID]
	})

	summary := Summary{Rows: make([]Row, 0, maxRows), Total: len(sorted)}
	for i, t := range sorted {
		if i == maxRows {
			summary.More = len(sorted) - maxRows
			summary.MoreLabel = fmt.Sprintf("+%d more", summary.More)
			break
		}
		secs := remaining[t.ID]
		row := Row{
			ID:               t.ID,
			Name:             t.Name,
			State:            t.State,
			RemainingSeconds: secs,
			Display:          timer.FormatTime(secs),
			Dimmed:           t.State == model.StateCompleted,
		}
		live := t
		live.RemainingSeconds = secs
		row.Progress = timer.GetProgress(live)
		if t.State == model.StateCompleted && t.EnableCompletionColor {
			row.Color = t.CompletionColor
		}
		summary.Rows = append(summary.Rows, row)
	}
	return summary
}

func priority(s model.TimerState) int {
	if p, ok := statePriority[s]; ok {
		return p
	}
	return len(statePriority)
}

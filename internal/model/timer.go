package model

import "time"

type TimerState string

const (
	StateStopped   TimerState = "stopped"
	StateRunning   TimerState = "running"
	StatePaused    TimerState = "paused"
	StateCompleted TimerState = "completed"
)

func (s TimerState) Valid() bool {
	switch s {
	case StateStopped, StateRunning, StatePaused, StateCompleted:
		return true
	}
	return false
}

const (
	MinDurationSeconds = 1
	MaxDurationSeconds = 24 * 60 * 60
	MaxNameLength      = 100

	DefaultCompletionColor = "#22c55e"
	DefaultAlarmSound      = "beep"
)

// AlarmSounds lists the sound names the alert dispatcher can synthesize.
var AlarmSounds = []string{"beep", "chime", "bell", "digital"}

func IsAlarmSound(name string) bool {
	for _, s := range AlarmSounds {
		if s == name {
			return true
		}
	}
	return false
}

// Timer is one countdown row. For a running timer RemainingSeconds is only the
// value at its last write; EndTime is authoritative.
type Timer struct {
	ID                    string     `json:"id"`
	UserID                string     `json:"userId"`
	Name                  string     `json:"name"`
	DurationSeconds       int        `json:"durationSeconds"`
	RemainingSeconds      int        `json:"remainingSeconds"`
	State                 TimerState `json:"state"`
	EndTime               *time.Time `json:"endTime"`
	EnableCompletionColor bool       `json:"enableCompletionColor"`
	CompletionColor       string     `json:"completionColor"`
	EnableAlarm           bool       `json:"enableAlarm"`
	AlarmSound            string     `json:"alarmSound"`
	DisplayOrder          int        `json:"displayOrder"`
	CreatedAt             time.Time  `json:"createdAt"`
	UpdatedAt             time.Time  `json:"updatedAt"`
}

// TimerPatch is a partial update. Nil fields are left untouched. ClearEndTime
// writes NULL to end_time and wins over EndTime.
type TimerPatch struct {
	Name                  *string     `json:"name,omitempty"`
	DurationSeconds       *int        `json:"durationSeconds,omitempty"`
	RemainingSeconds      *int        `json:"remainingSeconds,omitempty"`
	State                 *TimerState `json:"state,omitempty"`
	EndTime               *time.Time  `json:"endTime,omitempty"`
	ClearEndTime          bool        `json:"clearEndTime,omitempty"`
	EnableCompletionColor *bool       `json:"enableCompletionColor,omitempty"`
	CompletionColor       *string     `json:"completionColor,omitempty"`
	EnableAlarm           *bool       `json:"enableAlarm,omitempty"`
	AlarmSound            *string     `json:"alarmSound,omitempty"`
	DisplayOrder          *int        `json:"displayOrder,omitempty"`
}

func (p TimerPatch) Empty() bool {
	return p.Name == nil && p.DurationSeconds == nil && p.RemainingSeconds == nil &&
		p.State == nil && p.EndTime == nil && !p.ClearEndTime &&
		p.EnableCompletionColor == nil && p.CompletionColor == nil &&
		p.EnableAlarm == nil && p.AlarmSound == nil && p.DisplayOrder == nil
}

// Apply returns a copy of t with the patch merged in.
func (p TimerPatch) Apply(t Timer) Timer {
	out := t
	if p.Name != nil {
		out.Name = *p.Name
	}
	if p.DurationSeconds != nil {
		out.DurationSeconds = *p.DurationSeconds
	}
	if p.RemainingSeconds != nil {
		out.RemainingSeconds = *p.RemainingSeconds
	}
	if p.State != nil {
		out.State = *p.State
	}
	if p.EndTime != nil {
		end := *p.EndTime
		out.EndTime = &end
	}
	if p.ClearEndTime {
		out.EndTime = nil
	}
	if p.EnableCompletionColor != nil {
		out.EnableCompletionColor = *p.EnableCompletionColor
	}
	if p.CompletionColor != nil {
		out.CompletionColor = *p.CompletionColor
	}
	if p.EnableAlarm != nil {
		out.EnableAlarm = *p.EnableAlarm
	}
	if p.AlarmSound != nil {
		out.AlarmSound = *p.AlarmSound
	}
	if p.DisplayOrder != nil {
		out.DisplayOrder = *p.DisplayOrder
	}
	return out
}

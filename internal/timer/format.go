package timer

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"dashboard/backend/internal/model"
)

// FormatTime renders seconds as "M:SS" below one hour and "H:MM:SS" above.
func FormatTime(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	h := seconds / 3600
	m := (seconds % 3600) / 60
	s := seconds % 60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}

// ParseTime is the inverse of FormatTime. It accepts "M:SS" or "H:MM:SS" with
// surrounding whitespace and rejects signs, fractions, minutes or seconds of 60
// or more, and any other number of parts.
func ParseTime(raw string) (int, bool) {
	parts := strings.Split(strings.TrimSpace(raw), ":")
	if len(parts) != 2 && len(parts) != 3 {
		return 0, false
	}

	values := make([]int, len(parts))
	for i, part := range parts {
		v, ok := parseUnsigned(part)
		if !ok {
			return 0, false
		}
		values[i] = v
	}

	var h, m, s int
	if len(values) == 3 {
		h, m, s = values[0], values[1], values[2]
	} else {
		m, s = values[0], values[1]
	}
	if m >= 60 || s >= 60 || h > (math.MaxInt-3599)/3600 {
		return 0, false
	}
	return h*3600 + m*60 + s, true
}

func parseUnsigned(part string) (int, bool) {
	if part == "" {
		return 0, false
	}
	for _, r := range part {
		if r < '0' || r > '9' {
			return 0, false
		}
	}
	v, err := strconv.Atoi(part)
	if err != nil {
		return 0, false
	}
	return v, true
}

// FriendlyDayPrefix labels at relative to now's calendar day, in now's location.
// Weeks start on Sunday.
func FriendlyDayPrefix(at, now time.Time) string {
	at = at.In(now.Location())
	days := calendarDaysBetween(now, at)

	switch {
	case days == 0:
		return "Today"
	case days == 1:
		return "Tomorrow"
	case days >= 2 && days <= 6 && int(now.Weekday())+days <= 6:
		return at.Weekday().String()
	case days >= 2 && days <= 13:
		return at.Weekday().String() + " Next Week"
	default:
		return at.Format("Jan 2, 2006")
	}
}

func calendarDaysBetween(from, to time.Time) int {
	loc := from.Location()
	fy, fm, fd := from.Date()
	ty, tm, td := to.In(loc).Date()
	start := time.Date(fy, fm, fd, 0, 0, 0, 0, loc)
	end := time.Date(ty, tm, td, 0, 0, 0, 0, loc)
	// Round absorbs 23h/25h days around DST switches.
	return int(math.Round(end.Sub(start).Hours() / 24))
}

// FormatEndTime describes when a running timer will finish, e.g.
// "Tomorrow at 7:05 AM". It reports false for any other timer.
func FormatEndTime(endTime *time.Time, state model.TimerState, now time.Time) (string, bool) {
	if state != model.StateRunning || endTime == nil {
		return "", false
	}
	at := endTime.In(now.Location())
	return FriendlyDayPrefix(at, now) + " at " + at.Format("3:04 PM"), true
}

package agenda

import (
	"time"

	"github.com/stern1978/calendar/internal/model"
)

// Mode selects how event start times are labeled.
type Mode int

const (
	// ModeCategorical buckets events by calendar day: Today, Tomorrow,
	// weekday name within a week, month-day beyond.
	ModeCategorical Mode = iota
	// ModeCountdown decomposes the time until start into months, days,
	// hours and minutes.
	ModeCountdown
)

// ModeFromString maps a config value to a Mode; unknown values fall back
// to categorical.
func ModeFromString(s string) Mode {
	if s == "countdown" {
		return ModeCountdown
	}
	return ModeCategorical
}

// Label computes the relative-time label for an event. Callers must filter
// stale events first; an already-started event is labeled Now only in
// countdown mode (categorical mode still buckets it on its start day).
func Label(ev model.Event, now time.Time, loc *time.Location, mode Mode) model.Label {
	if mode == ModeCountdown {
		return countdown(ev.Start, now, loc)
	}
	return dayBucket(ev.Start, now, loc)
}

func dayBucket(start, now time.Time, loc *time.Location) model.Label {
	days := int(calendarDay(start, loc).Sub(calendarDay(now, loc)).Hours() / 24)

	var text string
	switch {
	case days <= 0:
		text = "Today"
	case days == 1:
		text = "Tomorrow"
	case days < 8:
		text = start.In(loc).Format("Mon")
	default:
		text = start.In(loc).Format("Jan 02")
	}
	return model.Label{Kind: model.LabelDay, Day: text}
}

// countdown splits start-now into whole months, days, hours and minutes.
// Months are consumed by walking forward from now's month and subtracting
// each month's actual length (leap February included) while enough whole
// days remain. A zero or negative delta is always Now, never a negative
// countdown.
func countdown(start, now time.Time, loc *time.Location) model.Label {
	delta := start.Sub(now)
	if delta <= 0 {
		return model.Label{Kind: model.LabelNow}
	}

	total := int(delta / time.Minute)
	days := total / (24 * 60)
	hours := total % (24 * 60) / 60
	minutes := total % 60

	months := 0
	cursor := now.In(loc)
	for {
		dim := daysInMonth(cursor.Year(), cursor.Month())
		if days < dim {
			break
		}
		days -= dim
		months++
		// Advance via the first of the month so a 31st never rolls over.
		cursor = time.Date(cursor.Year(), cursor.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, 1, 0)
	}

	return model.Label{
		Kind:    model.LabelCountdown,
		Months:  months,
		Days:    days,
		Hours:   hours,
		Minutes: minutes,
	}
}

func daysInMonth(year int, month time.Month) int {
	// Day 0 of the next month is the last day of this one.
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

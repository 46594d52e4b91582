package agenda

import (
	"time"

	"github.com/stern1978/calendar/internal/model"
)

// Stale reports whether the event has already finished: its end instant is
// strictly before now. All-day events carry a synthesized end at the
// midnight after their final day (see Normalize), so they turn stale only
// once that day is over.
func Stale(ev model.Event, now time.Time) bool {
	return ev.End.Before(now)
}

// StartedBeforeToday reports whether the event's start falls on a calendar
// day before now's day in loc. Such events are still running (not stale by
// the end rule) and are hidden from the dashboard without being purged.
func StartedBeforeToday(ev model.Event, now time.Time, loc *time.Location) bool {
	return calendarDay(ev.Start, loc).Before(calendarDay(now, loc))
}

// calendarDay truncates an instant to its date in loc. The result is built
// in UTC so day arithmetic is immune to DST transitions.
func calendarDay(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

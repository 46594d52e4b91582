package agenda

import (
	"time"

	"google.golang.org/api/calendar/v3"

	"github.com/stern1978/calendar/internal/model"
)

// NoTitle is the title given to events whose summary is empty.
const NoTitle = "No title"

// Accepted start/end layouts. Values without an offset are interpreted in
// the display location.
const (
	layoutDateTimeNaive = "2006-01-02T15:04:05"
	layoutDate          = "2006-01-02"
)

// Normalize converts one provider event into a canonical model.Event.
//
// A start/end carrying dateTime is a timed event; one carrying only a date
// is all-day. For all-day events the start becomes midnight of the named
// day and a date-only end is advanced to the midnight after its day, so the
// event stays current through its final day. Mixing the two shapes between
// start and end, a missing end, unparsable text, or an end before the start
// all yield a NormalizationError.
func Normalize(calendarID string, raw *calendar.Event, loc *time.Location) (model.Event, error) {
	var ev model.Event

	if raw == nil {
		return ev, normErr("", "nil event")
	}
	if raw.Start == nil {
		return ev, normErr(raw.Id, "missing start")
	}
	if raw.End == nil {
		return ev, normErr(raw.Id, "missing end")
	}

	startTimed := raw.Start.DateTime != ""
	endTimed := raw.End.DateTime != ""
	if startTimed != endTimed {
		return ev, normErr(raw.Id, "start and end disagree on date vs dateTime")
	}

	var start, end time.Time
	var err error
	if startTimed {
		if start, err = parseDateTime(raw.Start.DateTime, loc); err != nil {
			return ev, normErr(raw.Id, "bad start %q: %v", raw.Start.DateTime, err)
		}
		if end, err = parseDateTime(raw.End.DateTime, loc); err != nil {
			return ev, normErr(raw.Id, "bad end %q: %v", raw.End.DateTime, err)
		}
	} else {
		if start, err = time.ParseInLocation(layoutDate, raw.Start.Date, loc); err != nil {
			return ev, normErr(raw.Id, "bad start date %q: %v", raw.Start.Date, err)
		}
		if end, err = time.ParseInLocation(layoutDate, raw.End.Date, loc); err != nil {
			return ev, normErr(raw.Id, "bad end date %q: %v", raw.End.Date, err)
		}
		// Date-only end means "through the end of that day".
		end = end.AddDate(0, 0, 1)
	}

	if end.Before(start) {
		return ev, normErr(raw.Id, "end precedes start")
	}

	title := raw.Summary
	if title == "" {
		title = NoTitle
	}

	ev = model.Event{
		CalendarID: calendarID,
		ID:         raw.Id,
		Title:      title,
		Location:   raw.Location,
		AllDay:     !startTimed,
		Start:      start,
		End:        end,
	}
	return ev, nil
}

// parseDateTime parses a combined date-and-time string, with or without an
// offset suffix. Anything else is an error; no positional slicing.
func parseDateTime(s string, loc *time.Location) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.ParseInLocation(layoutDateTimeNaive, s, loc)
}

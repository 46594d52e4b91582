// Package model holds the display-facing types shared by the agenda engine,
// the exporters, and the web UI.
package model

import (
	"fmt"
	"strings"
	"time"
)

// Event is the canonical form of a provider event after normalization.
// Start and End are always zone-aware instants; conversion to the display
// timezone happens only when text is produced.
type Event struct {
	CalendarID string
	ID         string // provider event id, needed for upstream deletion

	Title    string
	Location string

	AllDay bool

	Start time.Time
	End   time.Time
}

// LabelKind selects which variant of a Label is populated.
type LabelKind int

const (
	// LabelNow marks an event that has started but not yet ended.
	LabelNow LabelKind = iota
	// LabelDay carries a day bucket: "Today", "Tomorrow", a weekday name,
	// or a month-day string for events further out.
	LabelDay
	// LabelCountdown carries a decomposed months/days/hours/minutes
	// countdown until the event starts.
	LabelCountdown
)

// Label is the relative-time tag attached to a display row. Exactly one
// variant is populated, chosen by Kind.
type Label struct {
	Kind LabelKind

	Day string

	Months  int
	Days    int
	Hours   int
	Minutes int
}

// String renders the label for display: "Now", the day bucket text, or
// "in 1mo 3d 4h 5m" with zero components omitted.
func (l Label) String() string {
	switch l.Kind {
	case LabelNow:
		return "Now"
	case LabelDay:
		return l.Day
	default:
		var parts []string
		if l.Months > 0 {
			parts = append(parts, fmt.Sprintf("%dmo", l.Months))
		}
		if l.Days > 0 {
			parts = append(parts, fmt.Sprintf("%dd", l.Days))
		}
		if l.Hours > 0 {
			parts = append(parts, fmt.Sprintf("%dh", l.Hours))
		}
		if l.Minutes > 0 {
			parts = append(parts, fmt.Sprintf("%dm", l.Minutes))
		}
		if len(parts) == 0 {
			return "in <1m"
		}
		return "in " + strings.Join(parts, " ")
	}
}

// Row is one rendered line of the dashboard. It is built once per request
// and handed to the renderer; nothing holds on to it afterwards.
type Row struct {
	Title     string
	Location  string
	StartTime string // clock text, or "All Day"
	StartDate string // month-day text, e.g. "Mar 14"
	Label     Label
}

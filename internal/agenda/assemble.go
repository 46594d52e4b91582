package agenda

import (
	"context"
	"time"

	"google.golang.org/api/calendar/v3"

	appLog "github.com/stern1978/calendar/internal/log"
	"github.com/stern1978/calendar/internal/metrics"
	"github.com/stern1978/calendar/internal/model"
)

// Fetcher returns upcoming raw events for one calendar, already ordered by
// start time. Retry policy lives behind this interface, not here.
type Fetcher interface {
	FetchEvents(ctx context.Context, calendarID string, timeMin time.Time) ([]*calendar.Event, error)
}

// Deleter removes one event from the upstream store.
type Deleter interface {
	DeleteEvent(ctx context.Context, calendarID, eventID string) error
}

// Options control an assembly pass.
type Options struct {
	Mode     Mode
	Location *time.Location
	// PurgePast requests upstream deletion of stale events. When false,
	// stale events are still excluded from display but left in the store.
	PurgePast bool
}

// Result is the outcome of one pass: rows for the HTML view and the
// surviving canonical events for the ICS export, in the same order.
type Result struct {
	Rows   []model.Row
	Events []model.Event
}

// Assembler walks calendars in order and turns provider events into
// display rows. It knows nothing about how events were fetched or how the
// result is rendered.
type Assembler struct {
	fetcher Fetcher
	deleter Deleter
	opts    Options
}

func New(fetcher Fetcher, deleter Deleter, opts Options) *Assembler {
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	return &Assembler{fetcher: fetcher, deleter: deleter, opts: opts}
}

// Assemble produces rows for the given calendars at the given instant.
// Per-event failures are logged and skipped; a calendar whose fetch fails
// contributes nothing but does not stop the remaining calendars. Output
// stays grouped by calendar in input order and keeps the provider's
// per-calendar ordering.
func (a *Assembler) Assemble(ctx context.Context, calendarIDs []string, now time.Time) Result {
	started := time.Now()
	defer func() {
		metrics.AssembleDuration.Observe(time.Since(started).Seconds())
	}()

	var res Result
	for _, calID := range calendarIDs {
		raws, err := a.fetcher.FetchEvents(ctx, calID, now)
		if err != nil {
			appLog.Error("event fetch failed, skipping calendar", err, "calendar", calID)
			metrics.FetchErrors.Inc()
			continue
		}
		metrics.EventsFetched.Add(float64(len(raws)))

		for _, raw := range raws {
			ev, err := Normalize(calID, raw, a.opts.Location)
			if err != nil {
				appLog.Error("skipping malformed event", err, "calendar", calID)
				metrics.NormalizeErrors.Inc()
				continue
			}

			if Stale(ev, now) {
				a.purge(ctx, ev)
				continue
			}
			if StartedBeforeToday(ev, now, a.opts.Location) {
				// Still-running multi-day event; hide it but never
				// delete something that has not ended.
				continue
			}

			res.Rows = append(res.Rows, a.row(ev, now))
			res.Events = append(res.Events, ev)
		}
	}

	metrics.RowsDisplayed.Add(float64(len(res.Rows)))
	appLog.Info("assemble finished", "calendars", len(calendarIDs), "rows", len(res.Rows))
	return res
}

// purge requests upstream deletion of a stale event. Failures are logged
// and counted; the event is excluded from display either way.
func (a *Assembler) purge(ctx context.Context, ev model.Event) {
	if !a.opts.PurgePast || a.deleter == nil {
		return
	}
	if err := a.deleter.DeleteEvent(ctx, ev.CalendarID, ev.ID); err != nil {
		appLog.Error("stale event delete failed", err, "calendar", ev.CalendarID, "event", ev.ID)
		metrics.DeleteErrors.Inc()
		return
	}
	metrics.EventsPurged.Inc()
	appLog.Debug("purged stale event", "calendar", ev.CalendarID, "event", ev.ID)
}

func (a *Assembler) row(ev model.Event, now time.Time) model.Row {
	loc := a.opts.Location

	startTime := "All Day"
	if !ev.AllDay {
		startTime = ev.Start.In(loc).Format("03:04 PM")
	}

	return model.Row{
		Title:     ev.Title,
		Location:  ev.Location,
		StartTime: startTime,
		StartDate: ev.Start.In(loc).Format("Jan 02"),
		Label:     Label(ev, now, loc, a.opts.Mode),
	}
}

package agenda

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"testing"
	"time"

	"google.golang.org/api/calendar/v3"
)

type fakeProvider struct {
	events    map[string][]*calendar.Event
	fetchErr  map[string]error
	deleteErr error
	deleted   []string // "calendarID/eventID"
}

func (f *fakeProvider) FetchEvents(_ context.Context, calendarID string, _ time.Time) ([]*calendar.Event, error) {
	if err := f.fetchErr[calendarID]; err != nil {
		return nil, err
	}
	return f.events[calendarID], nil
}

func (f *fakeProvider) DeleteEvent(_ context.Context, calendarID, eventID string) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.deleted = append(f.deleted, calendarID+"/"+eventID)
	return nil
}

func timed(id, summary string, start, end time.Time) *calendar.Event {
	return &calendar.Event{
		Id:      id,
		Summary: summary,
		Start:   &calendar.EventDateTime{DateTime: start.Format(time.RFC3339)},
		End:     &calendar.EventDateTime{DateTime: end.Format(time.RFC3339)},
	}
}

func allDay(id, summary, startDate, endDate string) *calendar.Event {
	return &calendar.Event{
		Id:      id,
		Summary: summary,
		Start:   &calendar.EventDateTime{Date: startDate},
		End:     &calendar.EventDateTime{Date: endDate},
	}
}

var assembleNow = time.Date(2024, 3, 14, 9, 0, 0, 0, time.UTC)

func TestAssembleScenarioStandup(t *testing.T) {
	f := &fakeProvider{events: map[string][]*calendar.Event{
		"cal1": {allDay("s1", "Standup", "2024-03-14", "2024-03-14")},
	}}
	a := New(f, f, Options{Mode: ModeCategorical})

	res := a.Assemble(context.Background(), []string{"cal1"}, assembleNow)
	if len(res.Rows) != 1 {
		t.Fatalf("rows = %d, want 1", len(res.Rows))
	}
	row := res.Rows[0]
	if row.Title != "Standup" || row.StartTime != "All Day" || row.Label.String() != "Today" {
		t.Errorf("row = %+v, want Standup / All Day / Today", row)
	}
	if len(f.deleted) != 0 {
		t.Errorf("unexpected deletions: %v", f.deleted)
	}
}

func TestAssemblePurgesStaleEvents(t *testing.T) {
	stale := timed("old1", "Yesterday meeting",
		time.Date(2024, 3, 10, 15, 0, 0, 0, time.UTC),
		time.Date(2024, 3, 10, 16, 0, 0, 0, time.UTC))
	current := timed("cur1", "Lunch", assembleNow.Add(3*time.Hour), assembleNow.Add(4*time.Hour))

	f := &fakeProvider{events: map[string][]*calendar.Event{
		"cal1": {stale, current},
	}}
	a := New(f, f, Options{Mode: ModeCategorical, PurgePast: true})

	res := a.Assemble(context.Background(), []string{"cal1"}, assembleNow)
	if len(res.Rows) != 1 || res.Rows[0].Title != "Lunch" {
		t.Fatalf("rows = %+v, want only Lunch", res.Rows)
	}
	if want := []string{"cal1/old1"}; !reflect.DeepEqual(f.deleted, want) {
		t.Errorf("deleted = %v, want %v (exactly one delete per stale event)", f.deleted, want)
	}
}

func TestAssemblePurgeDisabled(t *testing.T) {
	stale := timed("old1", "Done", assembleNow.Add(-3*time.Hour), assembleNow.Add(-2*time.Hour))
	f := &fakeProvider{events: map[string][]*calendar.Event{"cal1": {stale}}}
	a := New(f, f, Options{Mode: ModeCategorical, PurgePast: false})

	res := a.Assemble(context.Background(), []string{"cal1"}, assembleNow)
	if len(res.Rows) != 0 {
		t.Errorf("stale event displayed: %+v", res.Rows)
	}
	if len(f.deleted) != 0 {
		t.Errorf("deletion requested with purging disabled: %v", f.deleted)
	}
}

func TestAssembleDeleteFailureStillExcludes(t *testing.T) {
	stale := timed("old1", "Done", assembleNow.Add(-3*time.Hour), assembleNow.Add(-2*time.Hour))
	f := &fakeProvider{
		events:    map[string][]*calendar.Event{"cal1": {stale}},
		deleteErr: errors.New("boom"),
	}
	a := New(f, f, Options{Mode: ModeCategorical, PurgePast: true})

	res := a.Assemble(context.Background(), []string{"cal1"}, assembleNow)
	if len(res.Rows) != 0 {
		t.Errorf("stale event displayed despite failed delete: %+v", res.Rows)
	}
}

func TestAssembleSkipsMalformed(t *testing.T) {
	bad := &calendar.Event{Id: "bad1", Summary: "No end"}
	bad.Start = &calendar.EventDateTime{DateTime: assembleNow.Add(time.Hour).Format(time.RFC3339)}
	good := timed("good1", "Kept", assembleNow.Add(2*time.Hour), assembleNow.Add(3*time.Hour))

	f := &fakeProvider{events: map[string][]*calendar.Event{"cal1": {bad, good}}}
	a := New(f, f, Options{Mode: ModeCategorical})

	res := a.Assemble(context.Background(), []string{"cal1"}, assembleNow)
	if len(res.Rows) != 1 || res.Rows[0].Title != "Kept" {
		t.Errorf("rows = %+v, want only the well-formed event", res.Rows)
	}
}

func TestAssembleHidesRunningMultiDayWithoutDeleting(t *testing.T) {
	running := timed("md1", "Conference",
		time.Date(2024, 3, 13, 10, 0, 0, 0, time.UTC),
		time.Date(2024, 3, 16, 18, 0, 0, 0, time.UTC))
	f := &fakeProvider{events: map[string][]*calendar.Event{"cal1": {running}}}
	a := New(f, f, Options{Mode: ModeCategorical, PurgePast: true})

	res := a.Assemble(context.Background(), []string{"cal1"}, assembleNow)
	if len(res.Rows) != 0 {
		t.Errorf("running multi-day event displayed: %+v", res.Rows)
	}
	if len(f.deleted) != 0 {
		t.Errorf("running multi-day event deleted: %v", f.deleted)
	}
}

func TestAssembleOrderAndFetchFailure(t *testing.T) {
	f := &fakeProvider{
		events: map[string][]*calendar.Event{
			"cal1": {
				timed("a1", "First", assembleNow.Add(1*time.Hour), assembleNow.Add(2*time.Hour)),
				timed("a2", "Second", assembleNow.Add(2*time.Hour), assembleNow.Add(3*time.Hour)),
			},
			"cal3": {
				timed("c1", "Third", assembleNow.Add(30*time.Minute), assembleNow.Add(time.Hour)),
			},
		},
		fetchErr: map[string]error{"cal2": fmt.Errorf("upstream down")},
	}
	a := New(f, f, Options{Mode: ModeCategorical})

	res := a.Assemble(context.Background(), []string{"cal1", "cal2", "cal3"}, assembleNow)

	var titles []string
	for _, r := range res.Rows {
		titles = append(titles, r.Title)
	}
	// Calendar grouping in input order, provider order within a calendar;
	// cal3's earlier start does not move it ahead of cal1.
	want := []string{"First", "Second", "Third"}
	if !reflect.DeepEqual(titles, want) {
		t.Errorf("titles = %v, want %v", titles, want)
	}
}

func TestAssembleIdempotent(t *testing.T) {
	f := &fakeProvider{events: map[string][]*calendar.Event{
		"cal1": {
			timed("a1", "Repeat", assembleNow.Add(time.Hour), assembleNow.Add(2*time.Hour)),
			allDay("a2", "Holiday", "2024-03-20", "2024-03-21"),
		},
	}}
	a := New(f, f, Options{Mode: ModeCountdown})

	first := a.Assemble(context.Background(), []string{"cal1"}, assembleNow)
	second := a.Assemble(context.Background(), []string{"cal1"}, assembleNow)
	if !reflect.DeepEqual(first, second) {
		t.Errorf("same inputs produced different results:\n%+v\n%+v", first, second)
	}
}

func TestAssembleStaleTimedScenario(t *testing.T) {
	// Raw event 2024-03-10 15:00-16:00Z evaluated at 2024-03-11T00:00Z:
	// excluded from output, deletion requested.
	now := time.Date(2024, 3, 11, 0, 0, 0, 0, time.UTC)
	stale := timed("s1", "Past",
		time.Date(2024, 3, 10, 15, 0, 0, 0, time.UTC),
		time.Date(2024, 3, 10, 16, 0, 0, 0, time.UTC))

	f := &fakeProvider{events: map[string][]*calendar.Event{"cal1": {stale}}}
	a := New(f, f, Options{Mode: ModeCategorical, PurgePast: true})

	res := a.Assemble(context.Background(), []string{"cal1"}, now)
	if len(res.Rows) != 0 {
		t.Errorf("stale event displayed: %+v", res.Rows)
	}
	if want := []string{"cal1/s1"}; !reflect.DeepEqual(f.deleted, want) {
		t.Errorf("deleted = %v, want %v", f.deleted, want)
	}
}

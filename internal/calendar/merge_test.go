package calendar

import (
	"reflect"
	"testing"

	"jarvis/internal/source"
)

func timedEvent(title, start, end string) source.CalendarEvent {
	return source.CalendarEvent{ID: title, Title: title, Start: start, End: end}
}

func TestMergeTagsByArgumentPosition(t *testing.T) {
	t.Parallel()
	personal := source.CalendarPayload{
		Date:   "2025-06-02",
		Source: "google_calendar",
		Events: []source.CalendarEvent{timedEvent("Dentist", "2025-06-02T08:00:00+02:00", "2025-06-02T09:00:00+02:00")},
	}
	work := source.CalendarPayload{
		Date:   "2025-06-02",
		Source: "outlook_calendar",
		Events: []source.CalendarEvent{timedEvent("Standup", "2025-06-02T09:30:00+02:00", "2025-06-02T09:45:00+02:00")},
	}

	got := Merge(personal, work)

	if !reflect.DeepEqual(got.Sources, []string{"google_calendar", "outlook_calendar"}) {
		t.Errorf("sources = %v", got.Sources)
	}
	for _, ev := range got.Events {
		switch ev.Title {
		case "Dentist":
			if ev.CalendarType != TypePersonal {
				t.Errorf("Dentist tagged %q, want personal", ev.CalendarType)
			}
		case "Standup":
			if ev.CalendarType != TypeWork {
				t.Errorf("Standup tagged %q, want work", ev.CalendarType)
			}
		}
	}
}

func TestMergeSortsByRawStartString(t *testing.T) {
	t.Parallel()
	personal := source.CalendarPayload{
		Source: "google_calendar",
		Events: []source.CalendarEvent{
			timedEvent("Late", "2025-06-02T15:00:00+02:00", "2025-06-02T16:00:00+02:00"),
			timedEvent("Early", "2025-06-02T08:00:00+02:00", "2025-06-02T08:30:00+02:00"),
		},
	}

	got := Merge(personal, source.CalendarPayload{})

	if got.Events[0].Title != "Early" || got.Events[1].Title != "Late" {
		t.Errorf("order = [%s %s], want [Early Late]", got.Events[0].Title, got.Events[1].Title)
	}
}

func TestMergeDetectsOverlapOncePerPair(t *testing.T) {
	t.Parallel()
	personal := source.CalendarPayload{
		Source: "google_calendar",
		Events: []source.CalendarEvent{timedEvent("A", "2025-06-02T10:00:00+02:00", "2025-06-02T11:00:00+02:00")},
	}
	work := source.CalendarPayload{
		Source: "outlook_calendar",
		Events: []source.CalendarEvent{timedEvent("B", "2025-06-02T10:30:00+02:00", "2025-06-02T11:30:00+02:00")},
	}

	got := Merge(personal, work)

	if len(got.Conflicts) != 1 {
		t.Fatalf("conflicts = %d, want 1", len(got.Conflicts))
	}
	c := got.Conflicts[0]
	if c.Event1Title != "A" || c.Event2Title != "B" {
		t.Errorf("conflict pair = (%s, %s), want (A, B)", c.Event1Title, c.Event2Title)
	}
	if c.OverlapStart != "2025-06-02T10:00:00+02:00" {
		t.Errorf("overlap start = %q, want the first event's raw start", c.OverlapStart)
	}
}

func TestMergeTouchingEventsDoNotConflict(t *testing.T) {
	t.Parallel()
	personal := source.CalendarPayload{
		Source: "google_calendar",
		Events: []source.CalendarEvent{
			timedEvent("A", "2025-06-02T10:00:00+02:00", "2025-06-02T11:00:00+02:00"),
			timedEvent("B", "2025-06-02T11:00:00+02:00", "2025-06-02T12:00:00+02:00"),
		},
	}

	got := Merge(personal, source.CalendarPayload{})

	if len(got.Conflicts) != 0 {
		t.Errorf("conflicts = %v, want none for back-to-back events", got.Conflicts)
	}
}

func TestMergeAllDayAndUnparseableSkipConflicts(t *testing.T) {
	t.Parallel()
	personal := source.CalendarPayload{
		Source: "google_calendar",
		Events: []source.CalendarEvent{
			{ID: "holiday", Title: "Holiday", Start: "2025-06-02", End: "2025-06-03", AllDay: true},
			timedEvent("Broken", "whenever", "later"),
			timedEvent("A", "2025-06-02T10:00:00+02:00", "2025-06-02T11:00:00+02:00"),
		},
	}

	got := Merge(personal, source.CalendarPayload{})

	if len(got.Conflicts) != 0 {
		t.Errorf("conflicts = %v, want none", got.Conflicts)
	}
	if got.Summary.AllDayEvents != 1 {
		t.Errorf("all-day count = %d, want 1", got.Summary.AllDayEvents)
	}
}

func TestMergeCounts(t *testing.T) {
	t.Parallel()
	personal := source.CalendarPayload{
		Source: "google_calendar",
		Events: []source.CalendarEvent{
			{ID: "holiday", Title: "Holiday", Start: "2025-06-02", End: "2025-06-03", AllDay: true},
		},
	}
	work := source.CalendarPayload{
		Source: "outlook_calendar",
		Events: []source.CalendarEvent{
			{
				ID: "standup", Title: "Standup",
				Start: "2025-06-02T09:30:00+02:00", End: "2025-06-02T09:45:00+02:00",
				MeetingLink: "https://meet.google.com/abc-defg-hij", IsOnline: true,
			},
			timedEvent("Review", "2025-06-02T14:00:00+02:00", "2025-06-02T15:00:00+02:00"),
		},
	}

	got := Merge(personal, work)

	want := Counts{TotalEvents: 3, WorkEvents: 2, PersonalEvents: 1, AllDayEvents: 1, OnlineMeetings: 1}
	if got.Summary != want {
		t.Errorf("summary = %+v, want %+v", got.Summary, want)
	}
}

func TestMergeIsIdempotent(t *testing.T) {
	t.Parallel()
	personal := source.CalendarPayload{
		Source: "google_calendar",
		Events: []source.CalendarEvent{
			timedEvent("A", "2025-06-02T10:00:00+02:00", "2025-06-02T11:00:00+02:00"),
			timedEvent("B", "2025-06-02T10:30:00+02:00", "2025-06-02T11:30:00+02:00"),
		},
	}
	work := source.CalendarPayload{Source: "outlook_calendar"}

	first := Merge(personal, work)
	second := Merge(personal, work)

	if !reflect.DeepEqual(first, second) {
		t.Error("merging identical inputs twice must produce identical output")
	}
}

func TestMergeEmptyPayloads(t *testing.T) {
	t.Parallel()
	got := Merge(source.CalendarPayload{}, source.CalendarPayload{})

	if len(got.Events) != 0 || len(got.Conflicts) != 0 || len(got.Sources) != 0 {
		t.Errorf("merge of empty payloads = %+v, want empty collections", got)
	}
	if got.Summary.TotalEvents != 0 {
		t.Errorf("total events = %d, want 0", got.Summary.TotalEvents)
	}
}

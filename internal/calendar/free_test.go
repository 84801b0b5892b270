package calendar

import (
	"testing"
	"time"

	"jarvis/internal/source"
)

var testDay = time.Date(2025, 6, 2, 0, 0, 0, 0, time.Local)

func naiveEvent(title, start, end string) source.CalendarEvent {
	return source.CalendarEvent{ID: title, Title: title, Start: start, End: end}
}

func TestFreeSlotsEmptyCalendar(t *testing.T) {
	t.Parallel()
	got := FreeSlots(nil, testDay, DefaultWindow)

	if len(got) != 1 {
		t.Fatalf("slots = %d, want 1", len(got))
	}
	if got[0].Start != "2025-06-02T09:00:00" || got[0].End != "2025-06-02T17:00:00" {
		t.Errorf("slot = %+v, want the whole window", got[0])
	}
}

func TestFreeSlotsSplitAroundEvents(t *testing.T) {
	t.Parallel()
	events := []source.CalendarEvent{
		naiveEvent("A", "2025-06-02T10:00:00", "2025-06-02T11:00:00"),
		naiveEvent("B", "2025-06-02T13:00:00", "2025-06-02T14:30:00"),
	}

	got := FreeSlots(events, testDay, DefaultWindow)

	want := []FreeSlot{
		{Start: "2025-06-02T09:00:00", End: "2025-06-02T10:00:00"},
		{Start: "2025-06-02T11:00:00", End: "2025-06-02T13:00:00"},
		{Start: "2025-06-02T14:30:00", End: "2025-06-02T17:00:00"},
	}
	if len(got) != len(want) {
		t.Fatalf("slots = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("slot[%d] = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestFreeSlotsClipToWindow(t *testing.T) {
	t.Parallel()
	events := []source.CalendarEvent{
		naiveEvent("Breakfast", "2025-06-02T07:00:00", "2025-06-02T09:30:00"),
		naiveEvent("Dinner", "2025-06-02T16:30:00", "2025-06-02T19:00:00"),
	}

	got := FreeSlots(events, testDay, DefaultWindow)

	if len(got) != 1 {
		t.Fatalf("slots = %v, want exactly one", got)
	}
	if got[0].Start != "2025-06-02T09:30:00" || got[0].End != "2025-06-02T16:30:00" {
		t.Errorf("slot = %+v", got[0])
	}
}

func TestFreeSlotsFullyBooked(t *testing.T) {
	t.Parallel()
	events := []source.CalendarEvent{
		naiveEvent("Offsite", "2025-06-02T08:00:00", "2025-06-02T18:00:00"),
	}

	got := FreeSlots(events, testDay, DefaultWindow)

	if len(got) != 0 {
		t.Errorf("slots = %v, want none when the window is fully booked", got)
	}
}

func TestFreeSlotsOverlappingEvents(t *testing.T) {
	t.Parallel()
	events := []source.CalendarEvent{
		naiveEvent("A", "2025-06-02T09:00:00", "2025-06-02T12:00:00"),
		naiveEvent("B", "2025-06-02T10:00:00", "2025-06-02T11:00:00"),
	}

	got := FreeSlots(events, testDay, DefaultWindow)

	if len(got) != 1 {
		t.Fatalf("slots = %v, want one", got)
	}
	if got[0].Start != "2025-06-02T12:00:00" || got[0].End != "2025-06-02T17:00:00" {
		t.Errorf("slot = %+v, nested event must not split the afternoon", got[0])
	}
}

func TestFreeSlotsIgnoreAllDayAndUnparseable(t *testing.T) {
	t.Parallel()
	events := []source.CalendarEvent{
		{ID: "holiday", Title: "Holiday", Start: "2025-06-02", End: "2025-06-03", AllDay: true},
		naiveEvent("Broken", "???", "!!!"),
	}

	got := FreeSlots(events, testDay, DefaultWindow)

	if len(got) != 1 {
		t.Fatalf("slots = %v, want the whole window", got)
	}
}

func TestFreeSlotsAlwaysWellFormed(t *testing.T) {
	t.Parallel()
	events := []source.CalendarEvent{
		naiveEvent("A", "2025-06-02T06:00:00", "2025-06-02T10:00:00"),
		naiveEvent("B", "2025-06-02T09:30:00", "2025-06-02T09:45:00"),
		naiveEvent("C", "2025-06-02T16:00:00", "2025-06-02T23:00:00"),
	}

	got := FreeSlots(events, testDay, Window{StartHour: 8, EndHour: 18})

	for _, slot := range got {
		if slot.Start >= slot.End {
			t.Errorf("slot %+v has start >= end", slot)
		}
		if slot.Start < "2025-06-02T08:00:00" || slot.End > "2025-06-02T18:00:00" {
			t.Errorf("slot %+v escapes the window", slot)
		}
	}
}

package calendar

import (
	"sort"
	"time"

	"jarvis/internal/source"
)

// freeSlotLayout is the naive local wall-clock form free-slot endpoints
// are rendered in.
const freeSlotLayout = "2006-01-02T15:04:05"

// Window is a work-hour window expressed as whole hours of the day.
type Window struct {
	StartHour int
	EndHour   int
}

// DefaultWindow is the 9-to-17 work day.
var DefaultWindow = Window{StartHour: 9, EndHour: 17}

// FreeSlot is one contiguous unoccupied interval inside the window.
type FreeSlot struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

type interval struct {
	start time.Time
	end   time.Time
}

// FreeSlots computes the unoccupied intervals of the given day's
// work-hour window. All-day events do not occupy time; events with
// unparseable endpoints are discarded. The result is a pure function of
// the event list and the window: slots never overlap occupied time,
// never extend outside the window, and always have start < end.
func FreeSlots(events []source.CalendarEvent, day time.Time, window Window) []FreeSlot {
	occupied := make([]interval, 0, len(events))
	for _, ev := range events {
		if ev.AllDay {
			continue
		}
		start, ok1 := parseTimestamp(ev.Start)
		end, ok2 := parseTimestamp(ev.End)
		if !ok1 || !ok2 {
			continue
		}
		occupied = append(occupied, interval{start: start, end: end})
	}

	sort.Slice(occupied, func(i, j int) bool {
		return occupied[i].start.Before(occupied[j].start)
	})

	dayStart := time.Date(day.Year(), day.Month(), day.Day(), window.StartHour, 0, 0, 0, day.Location())
	dayEnd := time.Date(day.Year(), day.Month(), day.Day(), window.EndHour, 0, 0, 0, day.Location())

	slots := []FreeSlot{}
	cursor := dayStart

	for _, iv := range occupied {
		if iv.start.After(cursor) {
			slotEnd := minTime(iv.start, dayEnd)
			if cursor.Before(slotEnd) && cursor.Before(dayEnd) {
				slots = append(slots, FreeSlot{
					Start: cursor.Format(freeSlotLayout),
					End:   slotEnd.Format(freeSlotLayout),
				})
			}
		}
		cursor = maxTime(cursor, iv.end)
	}

	if cursor.Before(dayEnd) {
		slots = append(slots, FreeSlot{
			Start: cursor.Format(freeSlotLayout),
			End:   dayEnd.Format(freeSlotLayout),
		})
	}

	return slots
}

func minTime(a, b time.Time) time.Time {
	if a.Before(b) {
		return a
	}
	return b
}

func maxTime(a, b time.Time) time.Time {
	if a.After(b) {
		return a
	}
	return b
}

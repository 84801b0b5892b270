// Package calendar merges event lists from two calendar sources into
// one timeline, tags each event with a category, detects overlapping
// pairs, and computes free slots inside a work-hour window.
package calendar

import (
	"sort"
	"time"

	"jarvis/internal/source"
)

// Category tags are fixed by source identity, not event content: the
// first payload is always the personal calendar, the second the work
// calendar.
const (
	TypePersonal = "personal"
	TypeWork     = "work"
)

// Conflict records one overlapping pair of timed events.
type Conflict struct {
	Event1Title  string `json:"event1_title"`
	Event2Title  string `json:"event2_title"`
	OverlapStart string `json:"overlap_start"`
}

// Counts summarizes a merged timeline.
type Counts struct {
	TotalEvents    int `json:"total_events"`
	WorkEvents     int `json:"work_events"`
	PersonalEvents int `json:"personal_events"`
	AllDayEvents   int `json:"all_day_events"`
	OnlineMeetings int `json:"online_meetings"`
}

// Merged is the combined calendar view for one day.
type Merged struct {
	Date      string                 `json:"date"`
	Sources   []string               `json:"sources"`
	Events    []source.CalendarEvent `json:"events"`
	Conflicts []Conflict             `json:"conflicts"`
	Summary   Counts                 `json:"summary"`
}

// timeLayouts is the prioritized list of timestamp forms accepted when
// parsing event endpoints. First successful parse wins. Naive forms are
// interpreted as local wall-clock time.
var timeLayouts = []string{
	time.RFC3339,          // offset or Z suffix, optional fractional seconds
	"2006-01-02T15:04:05", // naive timestamp
	"2006-01-02",          // bare calendar date
}

func parseTimestamp(v string) (time.Time, bool) {
	if v == "" {
		return time.Time{}, false
	}
	for _, layout := range timeLayouts {
		if t, err := time.ParseInLocation(layout, v, time.Local); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// Merge combines the personal and work calendar payloads. Either
// payload may be the zero value when its source was unavailable; the
// merge proceeds with whatever is present. The result is a pure
// function of its inputs.
func Merge(personal, work source.CalendarPayload) Merged {
	out := Merged{
		Date:      firstNonEmpty(personal.Date, work.Date),
		Sources:   []string{},
		Events:    []source.CalendarEvent{},
		Conflicts: []Conflict{},
	}

	if personal.Source != "" {
		out.Sources = append(out.Sources, personal.Source)
	}
	for _, ev := range personal.Events {
		ev.CalendarType = TypePersonal
		out.Events = append(out.Events, ev)
	}

	if work.Source != "" {
		out.Sources = append(out.Sources, work.Source)
	}
	for _, ev := range work.Events {
		ev.CalendarType = TypeWork
		out.Events = append(out.Events, ev)
	}

	// Lexicographic sort of the raw start strings. This matches the
	// upstream behavior and is only correct while all sources emit a
	// uniform format and offset; mixed all-day/timed or mixed-offset
	// inputs may order wrong. Inherited, kept deliberately.
	sort.SliceStable(out.Events, func(i, j int) bool {
		return out.Events[i].Start < out.Events[j].Start
	})

	out.Conflicts = detectConflicts(out.Events)
	out.Summary = countEvents(out.Events)

	return out
}

// detectConflicts reports every overlapping pair of timed events, once
// per pair, in outer-loop order. Events with unparseable endpoints are
// silently treated as non-overlapping.
func detectConflicts(events []source.CalendarEvent) []Conflict {
	conflicts := []Conflict{}

	timed := make([]source.CalendarEvent, 0, len(events))
	for _, ev := range events {
		if !ev.AllDay {
			timed = append(timed, ev)
		}
	}

	for i := 0; i < len(timed); i++ {
		for j := i + 1; j < len(timed); j++ {
			if eventsOverlap(timed[i], timed[j]) {
				conflicts = append(conflicts, Conflict{
					Event1Title:  timed[i].Title,
					Event2Title:  timed[j].Title,
					OverlapStart: timed[i].Start,
				})
			}
		}
	}

	return conflicts
}

// eventsOverlap checks half-open interval intersection: touching
// endpoints do not count as overlap.
func eventsOverlap(e1, e2 source.CalendarEvent) bool {
	start1, ok1 := parseTimestamp(e1.Start)
	end1, ok2 := parseTimestamp(e1.End)
	start2, ok3 := parseTimestamp(e2.Start)
	end2, ok4 := parseTimestamp(e2.End)
	if !ok1 || !ok2 || !ok3 || !ok4 {
		return false
	}
	return start1.Before(end2) && start2.Before(end1)
}

func countEvents(events []source.CalendarEvent) Counts {
	var c Counts
	c.TotalEvents = len(events)
	for _, ev := range events {
		switch ev.CalendarType {
		case TypeWork:
			c.WorkEvents++
		case TypePersonal:
			c.PersonalEvents++
		}
		if ev.AllDay {
			c.AllDayEvents++
		}
		if ev.IsOnline || ev.MeetingLink != "" {
			c.OnlineMeetings++
		}
	}
	return c
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

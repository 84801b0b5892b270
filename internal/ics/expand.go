package ics

import (
	"time"

	"github.com/teambition/rrule-go"

	appLog "jarvis/internal/log"
)

const maxOccurrencesPerEvent = 1000

// occurrence is one concrete event instance within the requested range.
type occurrence struct {
	event parsedEvent
	start time.Time
	end   time.Time
}

// expandOccurrences turns parsed events into concrete instances within
// [rangeStart, rangeEnd]. It handles single events, RRULE recurrence,
// EXDATE exceptions, and RECURRENCE-ID overrides.
func expandOccurrences(events []parsedEvent, rangeStart, rangeEnd time.Time) []occurrence {
	baseByUID := make(map[string][]parsedEvent)
	overridesByUID := make(map[string][]parsedEvent)
	order := make([]string, 0, len(events))

	for _, ev := range events {
		if ev.IsOverride && ev.Recurrence != nil {
			overridesByUID[ev.UID] = append(overridesByUID[ev.UID], ev)
			continue
		}
		if _, seen := baseByUID[ev.UID]; !seen {
			order = append(order, ev.UID)
		}
		baseByUID[ev.UID] = append(baseByUID[ev.UID], ev)
	}

	out := make([]occurrence, 0, len(events))
	for _, uid := range order {
		overrides := overridesByUID[uid]
		for _, ev := range baseByUID[uid] {
			if ev.RawRRule == "" {
				out = append(out, expandSingle(ev, overrides, rangeStart, rangeEnd)...)
			} else {
				out = append(out, expandRecurring(ev, overrides, rangeStart, rangeEnd)...)
			}
		}
	}
	return out
}

func expandSingle(ev parsedEvent, overrides []parsedEvent, rangeStart, rangeEnd time.Time) []occurrence {
	if ev.End.Before(rangeStart) || ev.Start.After(rangeEnd) {
		return nil
	}

	start, end := ev.Start, ev.End
	if o, ok := findOverride(overrides, start); ok {
		ev, start, end = o, o.Start, o.End
	}
	return []occurrence{{event: ev, start: start, end: end}}
}

func expandRecurring(ev parsedEvent, overrides []parsedEvent, rangeStart, rangeEnd time.Time) []occurrence {
	r, err := rrule.StrToRRule(ev.RawRRule)
	if err != nil {
		appLog.Warn("ics rrule parse failed", err, "uid", ev.UID, "rrule", ev.RawRRule)
		return nil
	}
	r.DTStart(ev.Start)

	var set rrule.Set
	set.RRule(r)
	for _, ex := range ev.ExDates {
		set.ExDate(ex.In(ev.Start.Location()))
	}

	occTimes := set.Between(rangeStart.In(ev.Start.Location()), rangeEnd.In(ev.Start.Location()), true)
	if len(occTimes) > maxOccurrencesPerEvent {
		appLog.Warn("ics recurrence truncated", nil, "uid", ev.UID, "cap", maxOccurrencesPerEvent)
		occTimes = occTimes[:maxOccurrencesPerEvent]
	}

	out := make([]occurrence, 0, len(occTimes))
	duration := ev.End.Sub(ev.Start)

	for _, occStart := range occTimes {
		var occEnd time.Time
		if ev.AllDay {
			// All-day instances snap to [date 00:00, next day 00:00).
			occStart = time.Date(occStart.Year(), occStart.Month(), occStart.Day(), 0, 0, 0, 0, occStart.Location())
			occEnd = occStart.Add(24 * time.Hour)
		} else {
			occEnd = occStart.Add(duration)
		}

		instEv, instStart, instEnd := ev, occStart, occEnd
		if o, ok := findOverride(overrides, occStart); ok {
			instEv, instStart, instEnd = o, o.Start, o.End
		}
		out = append(out, occurrence{event: instEv, start: instStart, end: instEnd})
	}
	return out
}

// findOverride locates an override whose RECURRENCE-ID equals the given
// instance start.
func findOverride(overrides []parsedEvent, instanceStart time.Time) (parsedEvent, bool) {
	for _, ov := range overrides {
		if ov.Recurrence == nil {
			continue
		}
		if ov.Recurrence.In(instanceStart.Location()).Equal(instanceStart) {
			return ov, true
		}
	}
	return parsedEvent{}, false
}

package ics

import (
	"bytes"
	"errors"
	"regexp"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"

	appLog "jarvis/internal/log"
	"jarvis/internal/source"
)

// parsedEvent is a VEVENT as produced by the parser, before recurrence
// expansion.
type parsedEvent struct {
	UID string

	Summary     string
	Description string
	Location    string
	Status      string
	URL         string

	Start  time.Time
	End    time.Time
	AllDay bool

	Attendees []source.Attendee

	RawRRule   string
	ExDates    []time.Time
	Recurrence *time.Time // RECURRENCE-ID, in the event's own timezone
	IsOverride bool
}

// parseICS parses one ICS payload into parsedEvents. Individual broken
// VEVENTs are skipped, not fatal.
func parseICS(feedID string, body []byte) ([]parsedEvent, error) {
	if len(body) == 0 {
		return nil, errors.New("empty ICS body")
	}

	cal, err := ical.ParseCalendar(bytes.NewReader(body))
	if err != nil {
		return nil, err
	}

	events := make([]parsedEvent, 0)
	for _, comp := range cal.Events() {
		ev, perr := parseVEvent(comp)
		if perr != nil {
			appLog.Warn("ics vevent parse failed", perr, "id", feedID)
			continue
		}
		events = append(events, ev)
	}

	appLog.Debug("ics parse completed", "id", feedID, "event_count", len(events))
	return events, nil
}

func parseVEvent(ve *ical.VEvent) (parsedEvent, error) {
	var out parsedEvent

	uidProp := ve.GetProperty(ical.ComponentPropertyUniqueId)
	if uidProp == nil || uidProp.Value == "" {
		return out, errors.New("missing UID")
	}
	out.UID = uidProp.Value

	if p := ve.GetProperty(ical.ComponentPropertySummary); p != nil {
		out.Summary = p.Value
	}
	if p := ve.GetProperty(ical.ComponentPropertyDescription); p != nil {
		out.Description = p.Value
	}
	if p := ve.GetProperty(ical.ComponentPropertyLocation); p != nil {
		out.Location = p.Value
	}
	if p := ve.GetProperty(ical.ComponentPropertyStatus); p != nil {
		out.Status = strings.ToLower(p.Value)
	}
	if p := ve.GetProperty(ical.ComponentPropertyUrl); p != nil {
		out.URL = p.Value
	}

	// DTSTART / DTEND via the library's timezone-aware helpers.
	start, _ := ve.GetStartAt()
	end, _ := ve.GetEndAt()
	out.Start = start
	out.End = end

	// All-day when DTSTART carries VALUE=DATE or has no time component.
	if dtStart := ve.GetProperty(ical.ComponentPropertyDtStart); dtStart != nil {
		if params := dtStart.ICalParameters; params != nil {
			if vs, ok := params["VALUE"]; ok && len(vs) > 0 && strings.EqualFold(vs[0], "DATE") {
				out.AllDay = true
			}
		}
		if !strings.Contains(dtStart.Value, "T") {
			out.AllDay = true
		}
	}

	for _, p := range ve.GetProperties(ical.ComponentPropertyAttendee) {
		att := source.Attendee{Email: strings.TrimPrefix(strings.ToLower(p.Value), "mailto:")}
		if params := p.ICalParameters; params != nil {
			if ps, ok := params["PARTSTAT"]; ok && len(ps) > 0 {
				att.Response = strings.ToLower(ps[0])
			}
		}
		out.Attendees = append(out.Attendees, att)
	}

	if p := ve.GetProperty(ical.ComponentPropertyRrule); p != nil {
		out.RawRRule = p.Value
	}

	// EXDATE may appear multiple times, each with a comma list.
	for _, p := range ve.GetProperties(ical.ComponentPropertyExdate) {
		for _, part := range strings.Split(p.Value, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			if t, err := parseICSTime(part); err == nil {
				out.ExDates = append(out.ExDates, t)
			}
		}
	}

	if p := ve.GetProperty("RECURRENCE-ID"); p != nil {
		if t, err := parseICSTime(p.Value); err == nil {
			out.Recurrence = &t
			out.IsOverride = true
		}
	}

	return out, nil
}

// parseICSTime parses a basic ICS date/date-time string.
func parseICSTime(v string) (time.Time, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return time.Time{}, errors.New("empty time value")
	}

	if strings.HasSuffix(v, "Z") {
		return time.Parse("20060102T150405Z", v)
	}
	if strings.Contains(v, "T") {
		return time.ParseInLocation("20060102T150405", v, time.Local)
	}
	return time.ParseInLocation("20060102", v, time.Local)
}

// meetingLinkRe matches the common online-meeting URL hosts inside a
// description, location, or URL property.
var meetingLinkRe = regexp.MustCompile(`https://(?:[\w.-]*\.)?(?:meet\.google\.com|zoom\.us|teams\.microsoft\.com|webex\.com)[^\s<>"']*`)

// findMeetingLink scans the given fields for an online-meeting URL.
func findMeetingLink(fields ...string) string {
	for _, f := range fields {
		if m := meetingLinkRe.FindString(f); m != "" {
			return m
		}
	}
	return ""
}

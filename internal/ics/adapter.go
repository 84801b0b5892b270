// Package ics is a calendar source backed by an ICS feed subscription.
// One adapter instance serves one feed; the hub runs one for the
// personal calendar and one for the work calendar.
package ics

import (
	"context"
	"time"

	appLog "jarvis/internal/log"
	"jarvis/internal/source"
)

// Adapter implements source.CalendarSource over a single ICS feed.
type Adapter struct {
	feed      Feed
	fetcher   *Fetcher
	loc       *time.Location
	connected bool
}

// NewAdapter builds a feed-backed calendar source. loc is the timezone
// timed events are rendered in; nil means local time.
func NewAdapter(id, feedURL, cacheDir string, loc *time.Location) *Adapter {
	if loc == nil {
		loc = time.Local
	}
	return &Adapter{
		feed:    Feed{ID: id, URL: feedURL},
		fetcher: NewFetcher(cacheDir),
		loc:     loc,
	}
}

func (a *Adapter) Name() string    { return a.feed.ID }
func (a *Adapter) Connected() bool { return a.connected }

// Connect only validates configuration; the feed itself is fetched
// lazily so a temporarily unreachable feed does not keep the source
// disconnected for the whole process lifetime.
func (a *Adapter) Connect(ctx context.Context) error {
	if a.feed.URL == "" {
		return source.ConnectionError(a.feed.ID, "feed URL not configured", nil)
	}
	a.connected = true
	appLog.Info("calendar feed configured", "id", a.feed.ID, "url", redactURL(a.feed.URL))
	return nil
}

func (a *Adapter) Disconnect(ctx context.Context) error {
	a.connected = false
	return nil
}

func (a *Adapter) HealthCheck(ctx context.Context) bool {
	if !a.connected {
		return false
	}
	_, err := a.fetcher.FetchOne(ctx, a.feed)
	return err == nil
}

// Fetch retrieves the feed and expands it into normalized events within
// the date range. Timed events carry RFC 3339 timestamps in the
// configured zone; all-day events carry bare calendar dates.
func (a *Adapter) Fetch(ctx context.Context, start, end time.Time) (source.CalendarPayload, error) {
	if !a.connected {
		return source.CalendarPayload{}, source.FetchError(a.feed.ID, "not connected", nil)
	}

	res, err := a.fetcher.FetchOne(ctx, a.feed)
	if err != nil {
		return source.CalendarPayload{}, source.FetchError(a.feed.ID, "feed fetch failed", err)
	}

	parsed, err := parseICS(a.feed.ID, res.Body)
	if err != nil {
		return source.CalendarPayload{}, source.FetchError(a.feed.ID, "feed parse failed", err)
	}

	rangeStart := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, a.loc)
	rangeEnd := time.Date(end.Year(), end.Month(), end.Day(), 0, 0, 0, 0, a.loc).Add(24 * time.Hour)

	payload := source.CalendarPayload{
		Date:   source.FormatDate(start),
		Source: a.feed.ID,
		Events: []source.CalendarEvent{},
	}

	for _, occ := range expandOccurrences(parsed, rangeStart, rangeEnd) {
		payload.Events = append(payload.Events, a.toEvent(occ))
	}

	appLog.Info("fetched calendar feed", "id", a.feed.ID, "event_count", len(payload.Events), "from_cache", res.FromCache)
	return payload, nil
}

func (a *Adapter) toEvent(occ occurrence) source.CalendarEvent {
	ev := occ.event
	startLocal := occ.start.In(a.loc)
	endLocal := occ.end.In(a.loc)

	out := source.CalendarEvent{
		ID:          ev.UID + "/" + startLocal.Format(time.RFC3339),
		Title:       ev.Summary,
		AllDay:      ev.AllDay,
		Location:    ev.Location,
		Description: ev.Description,
		Status:      ev.Status,
		Attendees:   ev.Attendees,
		Source:      a.feed.ID,
	}

	if ev.AllDay {
		out.Start = source.FormatDate(startLocal)
		out.End = source.FormatDate(endLocal)
	} else {
		out.Start = startLocal.Format(time.RFC3339)
		out.End = endLocal.Format(time.RFC3339)
	}

	if link := findMeetingLink(ev.URL, ev.Location, ev.Description); link != "" {
		out.MeetingLink = link
		out.IsOnline = true
	}

	return out
}

package calendar

import (
	"context"
	"sync"
	"time"

	appLog "jarvis/internal/log"
	"jarvis/internal/source"
)

// Aggregator owns the personal and work calendar sources and produces
// merged daily timelines. Which source is which is fixed at
// construction; event category tags follow from that identity.
type Aggregator struct {
	personal source.CalendarSource
	work     source.CalendarSource
}

func NewAggregator(personal, work source.CalendarSource) *Aggregator {
	return &Aggregator{personal: personal, work: work}
}

// Connect brings up both sources; a source that fails to connect is
// logged and contributes nothing to later merges.
func (a *Aggregator) Connect(ctx context.Context) {
	for _, src := range []source.CalendarSource{a.personal, a.work} {
		if src == nil {
			continue
		}
		if err := src.Connect(ctx); err != nil {
			appLog.Warn("calendar source connect failed", err, "source", src.Name())
		}
	}
}

// Disconnect tears down both sources.
func (a *Aggregator) Disconnect(ctx context.Context) {
	for _, src := range []source.CalendarSource{a.personal, a.work} {
		if src == nil {
			continue
		}
		if err := src.Disconnect(ctx); err != nil {
			appLog.Warn("calendar source disconnect failed", err, "source", src.Name())
		}
	}
}

// MergedEvents fetches both calendars concurrently for the given day
// and merges them. Partial failure is tolerated: a failed fetch is
// logged and the merge proceeds with the other side.
func (a *Aggregator) MergedEvents(ctx context.Context, day time.Time) (Merged, error) {
	return a.MergedRange(ctx, day, day)
}

// MergedRange is MergedEvents over an explicit date range.
func (a *Aggregator) MergedRange(ctx context.Context, start, end time.Time) (Merged, error) {
	var (
		wg              sync.WaitGroup
		personalPayload source.CalendarPayload
		workPayload     source.CalendarPayload
	)

	fetch := func(src source.CalendarSource, dst *source.CalendarPayload) {
		defer wg.Done()
		if src == nil || !src.Connected() {
			return
		}
		payload, err := src.Fetch(ctx, start, end)
		if err != nil {
			appLog.Warn("calendar fetch failed", err, "source", src.Name())
			return
		}
		*dst = payload
	}

	wg.Add(2)
	go fetch(a.personal, &personalPayload)
	go fetch(a.work, &workPayload)
	wg.Wait()

	merged := Merge(personalPayload, workPayload)
	if merged.Date == "" {
		merged.Date = source.FormatDate(start)
	}
	return merged, nil
}

// NextEvent returns the next upcoming timed event relative to now, or
// nil when nothing further is scheduled today.
func (a *Aggregator) NextEvent(ctx context.Context) (*source.CalendarEvent, error) {
	merged, err := a.MergedEvents(ctx, time.Now())
	if err != nil {
		return nil, err
	}

	now := time.Now()
	for i := range merged.Events {
		ev := merged.Events[i]
		if ev.AllDay {
			continue
		}
		start, ok := parseTimestamp(ev.Start)
		if ok && start.After(now) {
			return &ev, nil
		}
	}
	return nil, nil
}

// FreeSlotsFor fetches the merged timeline for the day and computes the
// free slots of the given work-hour window.
func (a *Aggregator) FreeSlotsFor(ctx context.Context, day time.Time, window Window) ([]FreeSlot, error) {
	merged, err := a.MergedEvents(ctx, day)
	if err != nil {
		return nil, err
	}
	return FreeSlots(merged.Events, day, window), nil
}

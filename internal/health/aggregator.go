package health

import (
	"context"
	"sync"
	"time"

	appLog "jarvis/internal/log"
	"jarvis/internal/source"
)

// Aggregator owns the two health sources and produces merged daily
// summaries. The primary source is the recovery-focused tracker, the
// secondary the activity-focused one; the distinction drives every
// precedence rule in Merge.
type Aggregator struct {
	primary   source.HealthSource
	secondary source.HealthSource
}

func NewAggregator(primary, secondary source.HealthSource) *Aggregator {
	return &Aggregator{primary: primary, secondary: secondary}
}

// Connect brings up both sources. A source that fails to connect is
// logged and simply contributes nothing to later summaries.
func (a *Aggregator) Connect(ctx context.Context) {
	for _, src := range []source.HealthSource{a.primary, a.secondary} {
		if src == nil {
			continue
		}
		if err := src.Connect(ctx); err != nil {
			appLog.Warn("health source connect failed", err, "source", src.Name())
		}
	}
}

// Disconnect tears down both sources.
func (a *Aggregator) Disconnect(ctx context.Context) {
	for _, src := range []source.HealthSource{a.primary, a.secondary} {
		if src == nil {
			continue
		}
		if err := src.Disconnect(ctx); err != nil {
			appLog.Warn("health source disconnect failed", err, "source", src.Name())
		}
	}
}

// Summary fetches both sources concurrently and merges the results. A
// failed or disconnected source degrades to an empty payload; the
// summary is always produced.
func (a *Aggregator) Summary(ctx context.Context, day time.Time) (Summary, error) {
	var (
		wg               sync.WaitGroup
		primaryPayload   source.HealthPayload
		secondaryPayload source.HealthPayload
	)

	fetch := func(src source.HealthSource, dst *source.HealthPayload) {
		defer wg.Done()
		if src == nil || !src.Connected() {
			return
		}
		payload, err := src.Fetch(ctx, day, day)
		if err != nil {
			appLog.Warn("health fetch failed", err, "source", src.Name())
			return
		}
		*dst = payload
	}

	wg.Add(2)
	go fetch(a.primary, &primaryPayload)
	go fetch(a.secondary, &secondaryPayload)
	wg.Wait()

	summary := Merge(primaryPayload, secondaryPayload)
	if summary.Date == "" {
		summary.Date = source.FormatDate(day)
	}
	return summary, nil
}

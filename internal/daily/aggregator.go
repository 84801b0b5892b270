package daily

import (
	"context"
	"strconv"
	"sync"
	"time"

	"jarvis/internal/calendar"
	"jarvis/internal/hass"
	"jarvis/internal/health"
	appLog "jarvis/internal/log"
	"jarvis/internal/source"
	"jarvis/internal/vault"
)

// HealthProvider is the slice of the health aggregator the documents
// need.
type HealthProvider interface {
	Summary(ctx context.Context, day time.Time) (health.Summary, error)
}

// CalendarProvider is the slice of the calendar aggregator the
// documents need.
type CalendarProvider interface {
	MergedEvents(ctx context.Context, day time.Time) (calendar.Merged, error)
}

// NotesProvider reads daily notes and training plans from the vault.
type NotesProvider interface {
	Connected() bool
	FetchDaily(ctx context.Context, date string) (vault.DailyNote, error)
	TrainingPlan(ctx context.Context, planName string) (vault.Note, error)
}

// StateProvider reads entity states from the smart-home hub.
type StateProvider interface {
	Connected() bool
	FetchEntityState(ctx context.Context, entityID string) (hass.EntityState, error)
}

// Options tunes the optional parts of the documents.
type Options struct {
	// WeatherEntities is probed in order; the first entity that resolves
	// wins. Empty means DefaultWeatherEntities.
	WeatherEntities []string
	// TrainingPlan names the fallback plan note consulted when the daily
	// note has no Training section.
	TrainingPlan string
}

// DefaultWeatherEntities is the probe order used when none is
// configured.
var DefaultWeatherEntities = []string{
	"weather.home",
	"weather.forecast_home",
	"weather.openweathermap",
}

// Aggregator builds the morning briefing and evening reflection. Any
// provider may be nil; its sections are simply skipped.
type Aggregator struct {
	health   HealthProvider
	calendar CalendarProvider
	notes    NotesProvider
	home     StateProvider
	opts     Options
}

func NewAggregator(h HealthProvider, c CalendarProvider, n NotesProvider, s StateProvider, opts Options) *Aggregator {
	if len(opts.WeatherEntities) == 0 {
		opts.WeatherEntities = DefaultWeatherEntities
	}
	return &Aggregator{health: h, calendar: c, notes: n, home: s, opts: opts}
}

// MorningBriefing builds the morning document for the given day. Each
// section is fetched concurrently and fails independently: a section
// whose source errors carries the error text while its siblings
// populate normally.
func (a *Aggregator) MorningBriefing(ctx context.Context, day time.Time) Document {
	doc := Document{Date: source.FormatDate(day), Kind: KindMorning}

	var wg sync.WaitGroup

	if a.health != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			doc.Sections.Health = a.healthSection(ctx, day)
		}()
	}

	if a.calendar != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			doc.Sections.Calendar = a.calendarSection(ctx, day)
		}()
	}

	if a.notes != nil && a.notes.Connected() {
		wg.Add(1)
		go func() {
			defer wg.Done()
			doc.Sections.Training = a.trainingSection(ctx, doc.Date)
		}()
	}

	if a.home != nil && a.home.Connected() {
		wg.Add(1)
		go func() {
			defer wg.Done()
			doc.Sections.Weather = a.weatherSection(ctx)
		}()
	}

	wg.Wait()
	doc.Summary = renderMorning(doc.Sections)
	return doc
}

// EveningReflection builds the evening document: today's activity and
// completed events, the food log, and a preview of tomorrow.
func (a *Aggregator) EveningReflection(ctx context.Context, day time.Time) Document {
	doc := Document{Date: source.FormatDate(day), Kind: KindEvening}

	var wg sync.WaitGroup

	if a.health != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			doc.Sections.Activity = a.activitySection(ctx, day)
		}()
	}

	if a.calendar != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			doc.Sections.Completed = a.completedSection(ctx, day)
		}()

		wg.Add(1)
		go func() {
			defer wg.Done()
			doc.Sections.Tomorrow = a.tomorrowSection(ctx, day.AddDate(0, 0, 1))
		}()
	}

	if a.notes != nil && a.notes.Connected() {
		wg.Add(1)
		go func() {
			defer wg.Done()
			doc.Sections.Nutrition = a.nutritionSection(ctx, doc.Date)
		}()
	}

	wg.Wait()
	doc.Summary = renderEvening(doc.Sections)
	return doc
}

func (a *Aggregator) healthSection(ctx context.Context, day time.Time) *HealthSection {
	summary, err := a.health.Summary(ctx, day)
	if err != nil {
		appLog.Warn("briefing health section failed", err)
		return &HealthSection{Error: err.Error()}
	}
	return &HealthSection{
		Sleep:             summary.Sleep,
		Recovery:          summary.Recovery,
		YesterdayActivity: summary.Activity,
	}
}

func (a *Aggregator) calendarSection(ctx context.Context, day time.Time) *CalendarSection {
	merged, err := a.calendar.MergedEvents(ctx, day)
	if err != nil {
		appLog.Warn("briefing calendar section failed", err)
		return &CalendarSection{Error: err.Error()}
	}
	return &CalendarSection{
		Events:    merged.Events,
		Summary:   merged.Summary,
		Conflicts: merged.Conflicts,
	}
}

// trainingSection prefers the daily note's own Training section and
// falls back to the configured plan note.
func (a *Aggregator) trainingSection(ctx context.Context, date string) *TrainingSection {
	note, err := a.notes.FetchDaily(ctx, date)
	if err != nil {
		appLog.Warn("briefing training section failed", err)
		return &TrainingSection{Error: err.Error()}
	}
	if note.Training != "" {
		return &TrainingSection{Plan: note.Training}
	}
	if a.opts.TrainingPlan == "" {
		return nil
	}

	plan, err := a.notes.TrainingPlan(ctx, a.opts.TrainingPlan)
	if err != nil {
		appLog.Debug("training plan lookup failed", "plan", a.opts.TrainingPlan, "error", err.Error())
		return nil
	}
	return &TrainingSection{
		Plan:     plan.Content,
		PlanName: plan.Name,
		Note:     plan.Path,
	}
}

// weatherSection probes the configured weather entities in order and
// reports the first one that resolves. No entity resolving is not an
// error; the section is simply absent.
func (a *Aggregator) weatherSection(ctx context.Context) *WeatherSection {
	for _, entityID := range a.opts.WeatherEntities {
		state, err := a.home.FetchEntityState(ctx, entityID)
		if err != nil {
			appLog.Debug("weather entity probe failed", "entity", entityID, "error", err.Error())
			continue
		}
		if state.State == "" || state.State == "unavailable" || state.State == "unknown" {
			continue
		}

		section := &WeatherSection{Condition: state.State}
		section.Temperature = numericAttr(state, "temperature")
		section.Humidity = numericAttr(state, "humidity")
		section.WindSpeed = numericAttr(state, "wind_speed")
		return section
	}
	return nil
}

func (a *Aggregator) activitySection(ctx context.Context, day time.Time) *ActivitySection {
	summary, err := a.health.Summary(ctx, day)
	if err != nil {
		appLog.Warn("reflection activity section failed", err)
		return &ActivitySection{Error: err.Error()}
	}
	return &ActivitySection{
		Stats:    summary.Activity,
		Workouts: summary.Workouts,
	}
}

func (a *Aggregator) completedSection(ctx context.Context, day time.Time) *CompletedSection {
	merged, err := a.calendar.MergedEvents(ctx, day)
	if err != nil {
		appLog.Warn("reflection completed section failed", err)
		return &CompletedSection{Error: err.Error()}
	}
	return &CompletedSection{
		EventsCount: merged.Summary.TotalEvents,
		Meetings:    merged.Summary.OnlineMeetings,
	}
}

func (a *Aggregator) nutritionSection(ctx context.Context, date string) *NutritionSection {
	note, err := a.notes.FetchDaily(ctx, date)
	if err != nil {
		appLog.Warn("reflection nutrition section failed", err)
		return &NutritionSection{Error: err.Error()}
	}
	if len(note.Food) == 0 {
		return nil
	}
	return &NutritionSection{Meals: note.Food}
}

func (a *Aggregator) tomorrowSection(ctx context.Context, day time.Time) *TomorrowSection {
	merged, err := a.calendar.MergedEvents(ctx, day)
	if err != nil {
		appLog.Warn("reflection tomorrow section failed", err)
		return &TomorrowSection{Error: err.Error()}
	}

	section := &TomorrowSection{EventsCount: len(merged.Events)}
	if len(merged.Events) > 0 {
		first := merged.Events[0]
		section.FirstEvent = &first
	}
	return section
}

// numericAttr reads an entity attribute as a float, tolerating the
// numeric and string encodings the hub emits.
func numericAttr(state hass.EntityState, name string) *float64 {
	switch v := state.Attr(name).(type) {
	case float64:
		return &v
	case int:
		f := float64(v)
		return &f
	case string:
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return &f
		}
	}
	return nil
}

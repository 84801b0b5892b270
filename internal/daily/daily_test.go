package daily

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"jarvis/internal/calendar"
	"jarvis/internal/hass"
	"jarvis/internal/health"
	"jarvis/internal/source"
	"jarvis/internal/vault"
)

type fakeHealth struct {
	summary health.Summary
	err     error
}

func (f *fakeHealth) Summary(ctx context.Context, day time.Time) (health.Summary, error) {
	return f.summary, f.err
}

type fakeCalendar struct {
	merged calendar.Merged
	err    error
}

func (f *fakeCalendar) MergedEvents(ctx context.Context, day time.Time) (calendar.Merged, error) {
	return f.merged, f.err
}

type fakeNotes struct {
	note     vault.DailyNote
	plan     vault.Note
	fetchErr error
	planErr  error
}

func (f *fakeNotes) Connected() bool { return true }
func (f *fakeNotes) FetchDaily(ctx context.Context, date string) (vault.DailyNote, error) {
	return f.note, f.fetchErr
}
func (f *fakeNotes) TrainingPlan(ctx context.Context, name string) (vault.Note, error) {
	return f.plan, f.planErr
}

type fakeHome struct {
	states map[string]hass.EntityState
}

func (f *fakeHome) Connected() bool { return true }
func (f *fakeHome) FetchEntityState(ctx context.Context, entityID string) (hass.EntityState, error) {
	st, ok := f.states[entityID]
	if !ok {
		return hass.EntityState{}, errors.New("entity not found")
	}
	return st, nil
}

func score(v float64) *float64 { return &v }

func healthyFake() *fakeHealth {
	steps := int64(11250)
	return &fakeHealth{summary: health.Summary{
		Date:     "2025-06-02",
		Sleep:    &health.SleepSummary{TotalHours: 7.3, QualityScore: score(85), Source: "whoop"},
		Recovery: &health.RecoverySummary{Score: score(85), Source: "whoop"},
		Activity: &health.ActivitySummary{Steps: &steps, Source: "garmin"},
		Workouts: []source.Workout{{Type: "running", Source: "whoop"}},
	}}
}

func busyCalendar() *fakeCalendar {
	return &fakeCalendar{merged: calendar.Merged{
		Date: "2025-06-02",
		Events: []source.CalendarEvent{
			{Title: "Standup", Start: "2025-06-02T09:30:00+02:00", IsOnline: true},
			{Title: "Review", Start: "2025-06-02T14:00:00+02:00"},
		},
		Summary: calendar.Counts{TotalEvents: 2, OnlineMeetings: 1},
	}}
}

var day = time.Date(2025, 6, 2, 7, 0, 0, 0, time.UTC)

func TestMorningBriefingAllSections(t *testing.T) {
	agg := NewAggregator(
		healthyFake(),
		busyCalendar(),
		&fakeNotes{note: vault.DailyNote{Exists: true, Training: "5k easy run"}},
		&fakeHome{states: map[string]hass.EntityState{
			"weather.home": {State: "sunny", Attributes: map[string]any{"temperature": 21.5}},
		}},
		Options{},
	)

	doc := agg.MorningBriefing(context.Background(), day)

	if doc.Kind != KindMorning || doc.Date != "2025-06-02" {
		t.Errorf("doc header = %s %s", doc.Kind, doc.Date)
	}
	if doc.Sections.Health == nil || doc.Sections.Health.Error != "" {
		t.Errorf("health section = %+v", doc.Sections.Health)
	}
	if doc.Sections.Calendar == nil || doc.Sections.Calendar.Summary.TotalEvents != 2 {
		t.Errorf("calendar section = %+v", doc.Sections.Calendar)
	}
	if doc.Sections.Training == nil || doc.Sections.Training.Plan != "5k easy run" {
		t.Errorf("training section = %+v", doc.Sections.Training)
	}
	if doc.Sections.Weather == nil || doc.Sections.Weather.Condition != "sunny" {
		t.Errorf("weather section = %+v", doc.Sections.Weather)
	}

	for _, clause := range []string{
		"Good morning!",
		"You slept 7.3 hours with 85% quality.",
		"Recovery is excellent at 85%.",
		"You have 2 events today including 1 meetings.",
		"Training today: 5k easy run",
		"Weather is sunny, 21.5°.",
	} {
		if !strings.Contains(doc.Summary, clause) {
			t.Errorf("summary missing %q\nsummary: %s", clause, doc.Summary)
		}
	}
}

func TestMorningBriefingIsolatesNotesFailure(t *testing.T) {
	agg := NewAggregator(
		healthyFake(),
		busyCalendar(),
		&fakeNotes{fetchErr: errors.New("vault exploded")},
		nil,
		Options{},
	)

	doc := agg.MorningBriefing(context.Background(), day)

	if doc.Sections.Training == nil || doc.Sections.Training.Error == "" {
		t.Errorf("training section = %+v, want error marker", doc.Sections.Training)
	}
	if doc.Sections.Health == nil || doc.Sections.Health.Sleep == nil {
		t.Error("health section must populate despite the notes failure")
	}
	if doc.Sections.Calendar == nil || doc.Sections.Calendar.Error != "" {
		t.Error("calendar section must populate despite the notes failure")
	}
	if doc.Summary == "" {
		t.Error("summary must still render")
	}
}

func TestMorningBriefingHealthFailureMarksSection(t *testing.T) {
	agg := NewAggregator(
		&fakeHealth{err: errors.New("tracker down")},
		busyCalendar(),
		nil, nil,
		Options{},
	)

	doc := agg.MorningBriefing(context.Background(), day)

	if doc.Sections.Health == nil || doc.Sections.Health.Error != "tracker down" {
		t.Errorf("health section = %+v", doc.Sections.Health)
	}
	if !strings.Contains(doc.Summary, "You have 2 events today") {
		t.Errorf("calendar clause missing: %s", doc.Summary)
	}
	if strings.Contains(doc.Summary, "slept") {
		t.Errorf("sleep clause must not render on failure: %s", doc.Summary)
	}
}

func TestWeatherProbeOrder(t *testing.T) {
	agg := NewAggregator(nil, nil, nil,
		&fakeHome{states: map[string]hass.EntityState{
			"weather.forecast_home":  {State: "rainy", Attributes: map[string]any{"temperature": 14.0}},
			"weather.openweathermap": {State: "cloudy"},
		}},
		Options{},
	)

	doc := agg.MorningBriefing(context.Background(), day)

	if doc.Sections.Weather == nil || doc.Sections.Weather.Condition != "rainy" {
		t.Errorf("weather = %+v, want the first resolving entity in probe order", doc.Sections.Weather)
	}
}

func TestWeatherProbeSkipsUnavailableStates(t *testing.T) {
	agg := NewAggregator(nil, nil, nil,
		&fakeHome{states: map[string]hass.EntityState{
			"weather.home":          {State: "unavailable"},
			"weather.forecast_home": {State: "clear-night"},
		}},
		Options{},
	)

	doc := agg.MorningBriefing(context.Background(), day)

	if doc.Sections.Weather == nil || doc.Sections.Weather.Condition != "clear-night" {
		t.Errorf("weather = %+v, want the unavailable entity skipped", doc.Sections.Weather)
	}
}

func TestEveningReflection(t *testing.T) {
	agg := NewAggregator(
		healthyFake(),
		busyCalendar(),
		&fakeNotes{note: vault.DailyNote{Exists: true, Food: []vault.FoodEntry{{Meal: "Lunch", Food: "ramen"}}}},
		nil,
		Options{},
	)

	doc := agg.EveningReflection(context.Background(), day)

	if doc.Kind != KindEvening {
		t.Errorf("kind = %s", doc.Kind)
	}
	if doc.Sections.Activity == nil || doc.Sections.Activity.Stats == nil {
		t.Fatalf("activity section = %+v", doc.Sections.Activity)
	}
	if doc.Sections.Completed == nil || doc.Sections.Completed.EventsCount != 2 {
		t.Errorf("completed section = %+v", doc.Sections.Completed)
	}
	if doc.Sections.Nutrition == nil || len(doc.Sections.Nutrition.Meals) != 1 {
		t.Errorf("nutrition section = %+v", doc.Sections.Nutrition)
	}
	if doc.Sections.Tomorrow == nil || doc.Sections.Tomorrow.EventsCount != 2 {
		t.Errorf("tomorrow section = %+v", doc.Sections.Tomorrow)
	}

	for _, clause := range []string{
		"Good evening!",
		"Today you walked 11,250 steps.",
		"You completed 1 workout(s).",
		"You had 2 calendar events.",
		"Tomorrow you have 2 events.",
		"First event: Standup.",
		"Get some rest!",
	} {
		if !strings.Contains(doc.Summary, clause) {
			t.Errorf("summary missing %q\nsummary: %s", clause, doc.Summary)
		}
	}
}

func TestRecoveryStatusBuckets(t *testing.T) {
	cases := []struct {
		score float64
		want  string
	}{
		{95, "excellent"},
		{80, "excellent"},
		{79.9, "good"},
		{65, "good"},
		{60, "good"},
		{59.9, "low"},
		{20, "low"},
	}
	for _, tc := range cases {
		if got := recoveryStatus(tc.score); got != tc.want {
			t.Errorf("recoveryStatus(%v) = %q, want %q", tc.score, got, tc.want)
		}
	}
}

func TestTrainingPlanFallback(t *testing.T) {
	agg := NewAggregator(nil, nil,
		&fakeNotes{
			note: vault.DailyNote{Exists: true},
			plan: vault.Note{Name: "Marathon Plan", Path: "Training/Marathon Plan.md", Content: "Week 4: intervals"},
		},
		nil,
		Options{TrainingPlan: "marathon"},
	)

	doc := agg.MorningBriefing(context.Background(), day)

	tr := doc.Sections.Training
	if tr == nil || tr.PlanName != "Marathon Plan" || tr.Plan != "Week 4: intervals" {
		t.Errorf("training section = %+v, want plan-note fallback", tr)
	}
}

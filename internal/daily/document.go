// Package daily builds the two composite documents of the hub: the
// morning briefing and the evening reflection. It orchestrates the
// health and calendar aggregators, the notes vault, and the smart-home
// hub, isolating each section's failure so a partial document is always
// produced.
package daily

import (
	"jarvis/internal/calendar"
	"jarvis/internal/health"
	"jarvis/internal/source"
	"jarvis/internal/vault"
)

// Kind distinguishes the two document types.
type Kind string

const (
	KindMorning Kind = "morning"
	KindEvening Kind = "evening"
)

// Document is one briefing or reflection. Sections are created fresh
// per request; nothing is cached across calls.
type Document struct {
	Date     string   `json:"date"`
	Kind     Kind     `json:"kind"`
	Sections Sections `json:"sections"`
	Summary  string   `json:"summary"`
}

// Sections holds every section either document kind can carry. A nil
// section was not requested or had nothing to report; a section with
// Error set failed to fetch while its siblings populated normally.
type Sections struct {
	Health    *HealthSection    `json:"health,omitempty"`
	Calendar  *CalendarSection  `json:"calendar,omitempty"`
	Training  *TrainingSection  `json:"training,omitempty"`
	Weather   *WeatherSection   `json:"weather,omitempty"`
	Activity  *ActivitySection  `json:"activity,omitempty"`
	Completed *CompletedSection `json:"completed,omitempty"`
	Nutrition *NutritionSection `json:"nutrition,omitempty"`
	Tomorrow  *TomorrowSection  `json:"tomorrow,omitempty"`
}

// HealthSection carries the morning view of sleep, recovery, and
// yesterday's activity.
type HealthSection struct {
	Sleep             *health.SleepSummary    `json:"sleep,omitempty"`
	Recovery          *health.RecoverySummary `json:"recovery,omitempty"`
	YesterdayActivity *health.ActivitySummary `json:"yesterday_activity,omitempty"`
	Error             string                  `json:"error,omitempty"`
}

// CalendarSection carries the day's merged timeline.
type CalendarSection struct {
	Events    []source.CalendarEvent `json:"events"`
	Summary   calendar.Counts        `json:"summary"`
	Conflicts []calendar.Conflict    `json:"conflicts"`
	Error     string                 `json:"error,omitempty"`
}

// TrainingSection carries today's training plan, either inline from the
// daily note or as a pointer at a dedicated plan note.
type TrainingSection struct {
	Plan     string `json:"plan,omitempty"`
	PlanName string `json:"plan_name,omitempty"`
	Note     string `json:"note,omitempty"`
	Error    string `json:"error,omitempty"`
}

// WeatherSection carries the probed environmental state.
type WeatherSection struct {
	Condition   string   `json:"condition"`
	Temperature *float64 `json:"temperature,omitempty"`
	Humidity    *float64 `json:"humidity,omitempty"`
	WindSpeed   *float64 `json:"wind_speed,omitempty"`
}

// ActivitySection carries the evening view of today's movement.
type ActivitySection struct {
	Stats    *health.ActivitySummary `json:"stats,omitempty"`
	Workouts []source.Workout        `json:"workouts"`
	Error    string                  `json:"error,omitempty"`
}

// CompletedSection counts what happened on today's calendar.
type CompletedSection struct {
	EventsCount int    `json:"events_count"`
	Meetings    int    `json:"meetings"`
	Error       string `json:"error,omitempty"`
}

// NutritionSection carries the day's food log.
type NutritionSection struct {
	Meals []vault.FoodEntry `json:"meals"`
	Error string            `json:"error,omitempty"`
}

// TomorrowSection previews the next day's calendar.
type TomorrowSection struct {
	EventsCount int                   `json:"events_count"`
	FirstEvent  *source.CalendarEvent `json:"first_event,omitempty"`
	Error       string                `json:"error,omitempty"`
}

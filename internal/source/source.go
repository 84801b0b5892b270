// Package source defines the contract between the aggregation core and
// the external data-source adapters, plus the normalized payload types
// every adapter emits. Payloads use nullable fields so "present vs.
// absent" is visible to the merge rules instead of hiding behind map
// lookups.
package source

import (
	"context"
	"time"
)

// DateFormat is the ISO calendar-date form used for payload dates and
// all-day event boundaries.
const DateFormat = "2006-01-02"

// FormatDate renders a time as an ISO calendar date.
func FormatDate(t time.Time) string {
	return t.Format(DateFormat)
}

// Adapter is the lifecycle contract every external data source implements.
type Adapter interface {
	Name() string
	Connect(ctx context.Context) error
	Disconnect(ctx context.Context) error
	HealthCheck(ctx context.Context) bool
	Connected() bool
}

// HealthSource fetches normalized health data for a date range.
type HealthSource interface {
	Adapter
	Fetch(ctx context.Context, start, end time.Time) (HealthPayload, error)
}

// CalendarSource fetches normalized calendar events for a date range.
type CalendarSource interface {
	Adapter
	Fetch(ctx context.Context, start, end time.Time) (CalendarPayload, error)
}

// SleepStages is a stage breakdown in hours.
type SleepStages struct {
	DeepHours  float64 `json:"deep_hours"`
	LightHours float64 `json:"light_hours"`
	RemHours   float64 `json:"rem_hours"`
	AwakeHours float64 `json:"awake_hours"`
}

// SleepHours is the sleep block reported by recovery-focused trackers:
// already in hours, with a stage breakdown and quality scoring.
type SleepHours struct {
	TotalHours   float64     `json:"total_hours"`
	QualityScore *float64    `json:"quality_score,omitempty"`
	Efficiency   *float64    `json:"efficiency,omitempty"`
	Stages       SleepStages `json:"stages"`
}

// SleepSeconds is the sleep block reported by activity-focused trackers:
// raw stage durations in seconds.
type SleepSeconds struct {
	TotalSeconds int64 `json:"total_sleep_seconds"`
	DeepSeconds  int64 `json:"deep_sleep_seconds"`
	LightSeconds int64 `json:"light_sleep_seconds"`
	RemSeconds   int64 `json:"rem_sleep_seconds"`
	AwakeSeconds int64 `json:"awake_seconds"`
}

// Recovery holds readiness metrics from a recovery tracker.
type Recovery struct {
	Score     *float64 `json:"score,omitempty"`
	HRVms     *float64 `json:"hrv_ms,omitempty"`
	RestingHR *int     `json:"resting_hr,omitempty"`
}

// BodyBattery is the activity tracker's energy proxy, used as a
// recovery fallback when no recovery tracker reported.
type BodyBattery struct {
	Charged int `json:"charged"`
	Drained int `json:"drained"`
}

// Strain holds exertion metrics from a recovery tracker.
type Strain struct {
	Score    *float64 `json:"score,omitempty"`
	Calories *float64 `json:"calories,omitempty"`
	MaxHR    *int     `json:"max_hr,omitempty"`
	AvgHR    *int     `json:"avg_hr,omitempty"`
}

// DailyStats holds day-level activity totals.
type DailyStats struct {
	Steps         int64   `json:"steps"`
	DistanceKM    float64 `json:"distance_km"`
	Calories      int64   `json:"calories"`
	ActiveMinutes int64   `json:"active_minutes"`
	FloorsClimbed int64   `json:"floors_climbed"`
}

// HeartRate holds day-level heart-rate readings.
type HeartRate struct {
	Resting *int `json:"resting,omitempty"`
	Max     *int `json:"max,omitempty"`
	Min     *int `json:"min,omitempty"`
}

// Workout is one recorded training session.
type Workout struct {
	Name            string  `json:"name"`
	Type            string  `json:"type"`
	DurationMinutes float64 `json:"duration_minutes"`
	DistanceKM      float64 `json:"distance_km"`
	Calories        float64 `json:"calories"`
	AvgHR           *int    `json:"avg_hr,omitempty"`
	MaxHR           *int    `json:"max_hr,omitempty"`
	Source          string  `json:"source,omitempty"`
}

// HealthPayload is the normalized output of one health source fetch.
// Every block is optional; a nil block means the source did not report
// that domain. A zero-value payload stands for an unavailable source.
type HealthPayload struct {
	Date   string `json:"date"`
	Source string `json:"source"`

	Sleep       *SleepHours   `json:"sleep,omitempty"`
	SleepRaw    *SleepSeconds `json:"sleep_raw,omitempty"`
	Recovery    *Recovery     `json:"recovery,omitempty"`
	BodyBattery *BodyBattery  `json:"body_battery,omitempty"`
	Strain      *Strain       `json:"strain,omitempty"`
	DailyStats  *DailyStats   `json:"daily_stats,omitempty"`
	HeartRate   *HeartRate    `json:"heart_rate,omitempty"`
	Workouts    []Workout     `json:"workouts,omitempty"`
}

// Empty reports whether the payload carries no data at all.
func (p HealthPayload) Empty() bool {
	return p.Source == "" && p.Sleep == nil && p.SleepRaw == nil &&
		p.Recovery == nil && p.BodyBattery == nil && p.Strain == nil &&
		p.DailyStats == nil && p.HeartRate == nil && len(p.Workouts) == 0
}

// Attendee is one calendar event participant.
type Attendee struct {
	Email    string `json:"email"`
	Response string `json:"response,omitempty"`
}

// CalendarEvent is a normalized calendar entry. Start and End carry the
// source's timestamp representation verbatim: an RFC 3339 timestamp for
// timed events, a bare calendar date for all-day events. No timezone
// normalization happens anywhere downstream.
type CalendarEvent struct {
	ID           string     `json:"id"`
	Title        string     `json:"title"`
	Start        string     `json:"start"`
	End          string     `json:"end"`
	AllDay       bool       `json:"all_day"`
	Location     string     `json:"location,omitempty"`
	Description  string     `json:"description,omitempty"`
	Status       string     `json:"status,omitempty"`
	Attendees    []Attendee `json:"attendees,omitempty"`
	MeetingLink  string     `json:"meeting_link,omitempty"`
	IsOnline     bool       `json:"is_online,omitempty"`
	CalendarType string     `json:"calendar_type,omitempty"`
	Source       string     `json:"source,omitempty"`
}

// CalendarPayload is the normalized output of one calendar source fetch.
// A zero-value payload stands for an unavailable source.
type CalendarPayload struct {
	Date   string          `json:"date"`
	Source string          `json:"source"`
	Events []CalendarEvent `json:"events"`
}

// Empty reports whether the payload carries no data at all.
func (p CalendarPayload) Empty() bool {
	return p.Source == "" && len(p.Events) == 0
}

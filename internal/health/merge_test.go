package health

import (
	"testing"

	"jarvis/internal/source"
)

func f64(v float64) *float64 { return &v }
func i(v int) *int           { return &v }

func whoopPayload() source.HealthPayload {
	return source.HealthPayload{
		Date:   "2025-06-01",
		Source: "whoop",
		Sleep: &source.SleepHours{
			TotalHours:   7.5,
			QualityScore: f64(88),
			Efficiency:   f64(92),
			Stages:       source.SleepStages{DeepHours: 1.5, LightHours: 4, RemHours: 2},
		},
		Recovery: &source.Recovery{Score: f64(70), HRVms: f64(55), RestingHR: i(48)},
		Strain:   &source.Strain{Score: f64(12.4), Calories: f64(1850)},
		Workouts: []source.Workout{{Type: "running", DurationMinutes: 40}},
	}
}

func garminPayload() source.HealthPayload {
	return source.HealthPayload{
		Date:   "2025-06-01",
		Source: "garmin",
		SleepRaw: &source.SleepSeconds{
			TotalSeconds: 28800,
			DeepSeconds:  7200,
			LightSeconds: 14400,
			RemSeconds:   5400,
			AwakeSeconds: 1800,
		},
		BodyBattery: &source.BodyBattery{Charged: 85, Drained: 60},
		DailyStats: &source.DailyStats{
			Steps:         12345,
			DistanceKM:    9.2,
			Calories:      2400,
			ActiveMinutes: 75,
			FloorsClimbed: 12,
		},
		HeartRate: &source.HeartRate{Resting: i(52), Max: i(165), Min: i(44)},
		Workouts:  []source.Workout{{Type: "cycling", DurationMinutes: 60}},
	}
}

func TestMergeSleepPrefersPrimary(t *testing.T) {
	t.Parallel()
	got := Merge(whoopPayload(), garminPayload())

	if got.Sleep == nil {
		t.Fatal("sleep block missing")
	}
	if got.Sleep.TotalHours != 7.5 {
		t.Errorf("total hours = %v, want 7.5", got.Sleep.TotalHours)
	}
	if got.Sleep.Source != "whoop" {
		t.Errorf("sleep source = %q, want whoop", got.Sleep.Source)
	}
	if got.Sleep.QualityScore == nil || *got.Sleep.QualityScore != 88 {
		t.Errorf("quality score = %v, want 88", got.Sleep.QualityScore)
	}
}

func TestMergeSleepFallsBackToSecondsConversion(t *testing.T) {
	t.Parallel()
	got := Merge(source.HealthPayload{Source: "whoop"}, garminPayload())

	if got.Sleep == nil {
		t.Fatal("sleep block missing")
	}
	if got.Sleep.TotalHours != 8.0 {
		t.Errorf("total hours = %v, want 8.0", got.Sleep.TotalHours)
	}
	if got.Sleep.Stages.DeepHours != 2.0 {
		t.Errorf("deep hours = %v, want 2.0", got.Sleep.Stages.DeepHours)
	}
	if got.Sleep.Source != "garmin" {
		t.Errorf("sleep source = %q, want garmin", got.Sleep.Source)
	}
	if got.Sleep.QualityScore != nil {
		t.Errorf("quality score should be absent in the fallback, got %v", *got.Sleep.QualityScore)
	}
}

func TestMergeRecoveryScoreWinsOverBodyBattery(t *testing.T) {
	t.Parallel()
	got := Merge(whoopPayload(), garminPayload())

	if got.Recovery == nil {
		t.Fatal("recovery block missing")
	}
	if got.Recovery.Score == nil || *got.Recovery.Score != 70 {
		t.Errorf("score = %v, want 70", got.Recovery.Score)
	}
	if got.Recovery.BodyBatteryCharged != nil {
		t.Error("body battery must not populate when the score block is present")
	}
	if got.Recovery.Source != "whoop" {
		t.Errorf("recovery source = %q, want whoop", got.Recovery.Source)
	}
}

func TestMergeRecoveryBodyBatteryFallback(t *testing.T) {
	t.Parallel()
	got := Merge(source.HealthPayload{Source: "whoop"}, garminPayload())

	if got.Recovery == nil {
		t.Fatal("recovery block missing")
	}
	if got.Recovery.Score != nil {
		t.Error("score must be absent in body-battery fallback")
	}
	if got.Recovery.BodyBatteryCharged == nil || *got.Recovery.BodyBatteryCharged != 85 {
		t.Errorf("charged = %v, want 85", got.Recovery.BodyBatteryCharged)
	}
	if got.Recovery.Source != "garmin" {
		t.Errorf("recovery source = %q, want garmin", got.Recovery.Source)
	}
}

func TestMergeActivityStrainOverlay(t *testing.T) {
	t.Parallel()
	got := Merge(whoopPayload(), garminPayload())

	if got.Activity == nil {
		t.Fatal("activity block missing")
	}
	if got.Activity.Steps == nil || *got.Activity.Steps != 12345 {
		t.Errorf("steps = %v, want 12345", got.Activity.Steps)
	}
	if got.Activity.StrainScore == nil || *got.Activity.StrainScore != 12.4 {
		t.Errorf("strain score = %v, want 12.4", got.Activity.StrainScore)
	}
	if got.Activity.Source != "garmin" {
		t.Errorf("activity source = %q, want garmin", got.Activity.Source)
	}
}

func TestMergeActivityStrainOnly(t *testing.T) {
	t.Parallel()
	got := Merge(whoopPayload(), source.HealthPayload{Source: "garmin"})

	if got.Activity == nil {
		t.Fatal("activity block missing")
	}
	if got.Activity.Steps != nil {
		t.Error("steps must be absent without the daily totals")
	}
	if got.Activity.StrainScore == nil || *got.Activity.StrainScore != 12.4 {
		t.Errorf("strain score = %v, want 12.4", got.Activity.StrainScore)
	}
	if got.Activity.Source != "" {
		t.Errorf("activity source = %q, want empty when only strain contributed", got.Activity.Source)
	}
}

func TestMergeHeartRateRestingOverride(t *testing.T) {
	t.Parallel()
	got := Merge(whoopPayload(), garminPayload())

	if got.HeartRate == nil {
		t.Fatal("heart rate block missing")
	}
	if got.HeartRate.Resting == nil || *got.HeartRate.Resting != 48 {
		t.Errorf("resting = %v, want 48 from the recovery tracker", got.HeartRate.Resting)
	}
	if got.HeartRate.Max == nil || *got.HeartRate.Max != 165 {
		t.Errorf("max = %v, want 165", got.HeartRate.Max)
	}
	if got.HeartRate.Source != "garmin" {
		t.Errorf("heart rate source = %q, want garmin", got.HeartRate.Source)
	}
}

func TestMergeWorkoutsConcatenatedAndTagged(t *testing.T) {
	t.Parallel()
	got := Merge(whoopPayload(), garminPayload())

	if len(got.Workouts) != 2 {
		t.Fatalf("workouts = %d, want 2", len(got.Workouts))
	}
	if got.Workouts[0].Type != "cycling" || got.Workouts[0].Source != "garmin" {
		t.Errorf("first workout = %+v, want garmin cycling first", got.Workouts[0])
	}
	if got.Workouts[1].Type != "running" || got.Workouts[1].Source != "whoop" {
		t.Errorf("second workout = %+v, want whoop running second", got.Workouts[1])
	}
}

func TestMergeBothEmpty(t *testing.T) {
	t.Parallel()
	got := Merge(source.HealthPayload{}, source.HealthPayload{})

	if got.Sleep != nil || got.Recovery != nil || got.Activity != nil || got.HeartRate != nil {
		t.Error("empty payloads must produce no blocks")
	}
	if len(got.Sources) != 0 {
		t.Errorf("sources = %v, want empty", got.Sources)
	}
	if got.Workouts == nil || len(got.Workouts) != 0 {
		t.Errorf("workouts = %v, want empty non-nil slice", got.Workouts)
	}
}

func TestMergeSourcesListsContributors(t *testing.T) {
	t.Parallel()
	got := Merge(whoopPayload(), garminPayload())

	if len(got.Sources) != 2 || got.Sources[0] != "whoop" || got.Sources[1] != "garmin" {
		t.Errorf("sources = %v, want [whoop garmin]", got.Sources)
	}
	if got.Date != "2025-06-01" {
		t.Errorf("date = %q, want 2025-06-01", got.Date)
	}
}

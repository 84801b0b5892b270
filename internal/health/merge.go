// Package health merges the payloads of a recovery-focused tracker and
// an activity-focused tracker into one summary, applying field-group
// precedence. The merge is a pure function: absent data is a valid
// input, never an error.
package health

import (
	"jarvis/internal/source"
)

// SleepSummary is the merged sleep field-group. Source names the payload
// that won precedence.
type SleepSummary struct {
	TotalHours   float64            `json:"total_hours"`
	QualityScore *float64           `json:"quality_score,omitempty"`
	Efficiency   *float64           `json:"efficiency,omitempty"`
	Stages       source.SleepStages `json:"stages"`
	Source       string             `json:"source"`
}

// RecoverySummary is the merged recovery field-group. Either the score
// fields (recovery tracker) or the body-battery fields (activity
// tracker fallback) are populated, never both.
type RecoverySummary struct {
	Score              *float64 `json:"score,omitempty"`
	HRVms              *float64 `json:"hrv_ms,omitempty"`
	RestingHR          *int     `json:"resting_hr,omitempty"`
	BodyBatteryCharged *int     `json:"body_battery_charged,omitempty"`
	BodyBatteryDrained *int     `json:"body_battery_drained,omitempty"`
	Source             string   `json:"source"`
}

// ActivitySummary is the merged activity field-group. The daily totals
// come from the activity tracker; strain fields overlay from the
// recovery tracker and are additive, so Source only names the daily
// totals' origin and stays empty when only strain contributed.
type ActivitySummary struct {
	Steps          *int64   `json:"steps,omitempty"`
	DistanceKM     *float64 `json:"distance_km,omitempty"`
	Calories       *int64   `json:"calories,omitempty"`
	ActiveMinutes  *int64   `json:"active_minutes,omitempty"`
	FloorsClimbed  *int64   `json:"floors_climbed,omitempty"`
	StrainScore    *float64 `json:"strain_score,omitempty"`
	StrainCalories *float64 `json:"strain_calories,omitempty"`
	Source         string   `json:"source,omitempty"`
}

// HeartRateSummary is the merged heart-rate field-group. Source names
// the payload that contributed the base readings; the resting rate is
// overridden by the recovery tracker when it reported one.
type HeartRateSummary struct {
	Resting *int   `json:"resting,omitempty"`
	Max     *int   `json:"max,omitempty"`
	Min     *int   `json:"min,omitempty"`
	Source  string `json:"source"`
}

// Summary is the merged health view for one day.
type Summary struct {
	Date      string            `json:"date"`
	Sources   []string          `json:"sources"`
	Sleep     *SleepSummary     `json:"sleep,omitempty"`
	Recovery  *RecoverySummary  `json:"recovery,omitempty"`
	Activity  *ActivitySummary  `json:"activity,omitempty"`
	HeartRate *HeartRateSummary `json:"heart_rate,omitempty"`
	Workouts  []source.Workout  `json:"workouts"`
}

// Merge combines the two health payloads under fixed precedence rules:
//
//   - sleep: primary verbatim, else secondary's raw seconds converted
//     to hours
//   - recovery: primary's score block, else secondary's body battery;
//     HRV always copied from primary when present
//   - activity: secondary's daily totals, with primary's strain fields
//     overlaid additively
//   - heart rate: secondary's readings, resting overridden by primary
//   - workouts: concatenation of both lists, origin-tagged, no dedup
//
// Either payload may be the zero value; the merge never fails.
func Merge(primary, secondary source.HealthPayload) Summary {
	out := Summary{
		Date:     firstNonEmpty(primary.Date, secondary.Date),
		Sources:  contributingSources(primary, secondary),
		Workouts: []source.Workout{},
	}

	out.Sleep = mergeSleep(primary, secondary)
	out.Recovery = mergeRecovery(primary, secondary)
	out.Activity = mergeActivity(primary, secondary)
	out.HeartRate = mergeHeartRate(primary, secondary)
	out.Workouts = mergeWorkouts(primary, secondary)

	return out
}

func mergeSleep(primary, secondary source.HealthPayload) *SleepSummary {
	if primary.Sleep != nil {
		s := primary.Sleep
		return &SleepSummary{
			TotalHours:   s.TotalHours,
			QualityScore: s.QualityScore,
			Efficiency:   s.Efficiency,
			Stages:       s.Stages,
			Source:       primary.Source,
		}
	}
	if secondary.SleepRaw != nil {
		s := secondary.SleepRaw
		return &SleepSummary{
			TotalHours: float64(s.TotalSeconds) / 3600,
			Stages: source.SleepStages{
				DeepHours:  float64(s.DeepSeconds) / 3600,
				LightHours: float64(s.LightSeconds) / 3600,
				RemHours:   float64(s.RemSeconds) / 3600,
				AwakeHours: float64(s.AwakeSeconds) / 3600,
			},
			Source: secondary.Source,
		}
	}
	return nil
}

func mergeRecovery(primary, secondary source.HealthPayload) *RecoverySummary {
	var out *RecoverySummary

	if primary.Recovery != nil {
		r := primary.Recovery
		out = &RecoverySummary{
			Score:     r.Score,
			HRVms:     r.HRVms,
			RestingHR: r.RestingHR,
			Source:    primary.Source,
		}
	} else if secondary.BodyBattery != nil {
		bb := secondary.BodyBattery
		charged, drained := bb.Charged, bb.Drained
		out = &RecoverySummary{
			BodyBatteryCharged: &charged,
			BodyBatteryDrained: &drained,
			Source:             secondary.Source,
		}
	}

	// HRV always prefers the primary tracker when it reported one, even
	// though the rest of the block may have come from the fallback. This
	// asymmetry is inherited behavior; keep it as is.
	if primary.Recovery != nil && primary.Recovery.HRVms != nil {
		out.HRVms = primary.Recovery.HRVms
	}

	return out
}

func mergeActivity(primary, secondary source.HealthPayload) *ActivitySummary {
	var out *ActivitySummary

	if secondary.DailyStats != nil {
		ds := secondary.DailyStats
		steps := ds.Steps
		distance := ds.DistanceKM
		calories := ds.Calories
		active := ds.ActiveMinutes
		floors := ds.FloorsClimbed
		out = &ActivitySummary{
			Steps:         &steps,
			DistanceKM:    &distance,
			Calories:      &calories,
			ActiveMinutes: &active,
			FloorsClimbed: &floors,
			Source:        secondary.Source,
		}
	}

	// Strain overlays from the recovery tracker; additive with the daily
	// totals, not exclusive.
	if primary.Strain != nil {
		if out == nil {
			out = &ActivitySummary{}
		}
		out.StrainScore = primary.Strain.Score
		out.StrainCalories = primary.Strain.Calories
	}

	return out
}

func mergeHeartRate(primary, secondary source.HealthPayload) *HeartRateSummary {
	var out *HeartRateSummary

	if secondary.HeartRate != nil {
		hr := secondary.HeartRate
		out = &HeartRateSummary{
			Resting: hr.Resting,
			Max:     hr.Max,
			Min:     hr.Min,
			Source:  secondary.Source,
		}
	}

	// The recovery tracker's resting rate is the more accurate reading
	// and wins whenever present.
	if primary.Recovery != nil && primary.Recovery.RestingHR != nil {
		if out == nil {
			out = &HeartRateSummary{Source: primary.Source}
		}
		out.Resting = primary.Recovery.RestingHR
	}

	return out
}

func mergeWorkouts(primary, secondary source.HealthPayload) []source.Workout {
	out := make([]source.Workout, 0, len(primary.Workouts)+len(secondary.Workouts))

	for _, w := range secondary.Workouts {
		w.Source = secondary.Source
		out = append(out, w)
	}
	for _, w := range primary.Workouts {
		w.Source = primary.Source
		out = append(out, w)
	}

	return out
}

func contributingSources(payloads ...source.HealthPayload) []string {
	out := make([]string, 0, len(payloads))
	for _, p := range payloads {
		if p.Source != "" {
			out = append(out, p.Source)
		}
	}
	return out
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

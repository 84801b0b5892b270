// Package whoop is the recovery-tracker adapter. It reads the Whoop
// developer API (cycles, sleeps, recoveries, workouts) and normalizes
// the result into a health payload.
package whoop

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	appLog "jarvis/internal/log"
	"jarvis/internal/source"
)

const (
	sourceName     = "whoop"
	defaultBaseURL = "https://api.prod.whoop.com/developer/v1"
)

// Adapter is the Whoop REST client. It requires a pre-acquired OAuth
// access token; token acquisition and refresh live outside this
// process.
type Adapter struct {
	baseURL     string
	accessToken string
	client      *http.Client
	connected   bool
}

func New(accessToken string) *Adapter {
	return &Adapter{
		baseURL:     defaultBaseURL,
		accessToken: accessToken,
		client:      &http.Client{Timeout: 15 * time.Second},
	}
}

func (a *Adapter) Name() string    { return sourceName }
func (a *Adapter) Connected() bool { return a.connected }

// Connect validates the access token against the profile endpoint.
func (a *Adapter) Connect(ctx context.Context) error {
	if a.accessToken == "" {
		return source.ConnectionError(sourceName, "access token not configured", nil)
	}

	status, _, err := a.get(ctx, "/user/profile/basic", nil)
	if err != nil {
		return source.ConnectionError(sourceName, "unreachable", err)
	}
	switch status {
	case http.StatusOK:
		a.connected = true
		appLog.Info("connected to whoop")
		return nil
	case http.StatusUnauthorized, http.StatusForbidden:
		return source.AuthError(sourceName, "access token rejected", nil)
	default:
		return source.ConnectionError(sourceName, fmt.Sprintf("unexpected status %d", status), nil)
	}
}

func (a *Adapter) Disconnect(ctx context.Context) error {
	a.connected = false
	return nil
}

func (a *Adapter) HealthCheck(ctx context.Context) bool {
	if !a.connected {
		return false
	}
	status, _, err := a.get(ctx, "/user/profile/basic", nil)
	return err == nil && status == http.StatusOK
}

type cycleRecord struct {
	Score *struct {
		Strain           *float64 `json:"strain"`
		Kilojoule        *float64 `json:"kilojoule"`
		AverageHeartRate *int     `json:"average_heart_rate"`
		MaxHeartRate     *int     `json:"max_heart_rate"`
	} `json:"score"`
}

type sleepRecord struct {
	Nap   bool `json:"nap"`
	Score *struct {
		StageSummary *struct {
			LightMilli    int64 `json:"total_light_sleep_time_milli"`
			SlowWaveMilli int64 `json:"total_slow_wave_sleep_time_milli"`
			RemMilli      int64 `json:"total_rem_sleep_time_milli"`
			AwakeMilli    int64 `json:"total_awake_time_milli"`
		} `json:"stage_summary"`
		PerformancePct *float64 `json:"sleep_performance_percentage"`
		EfficiencyPct  *float64 `json:"sleep_efficiency_percentage"`
	} `json:"score"`
}

type recoveryRecord struct {
	Score *struct {
		RecoveryScore    *float64 `json:"recovery_score"`
		RestingHeartRate *int     `json:"resting_heart_rate"`
		HRVRmssdMilli    *float64 `json:"hrv_rmssd_milli"`
	} `json:"score"`
}

type workoutRecord struct {
	SportName string `json:"sport_name"`
	Start     string `json:"start"`
	End       string `json:"end"`
	Score     *struct {
		Strain           *float64 `json:"strain"`
		AverageHeartRate *int     `json:"average_heart_rate"`
		MaxHeartRate     *int     `json:"max_heart_rate"`
		Kilojoule        *float64 `json:"kilojoule"`
		DistanceMeter    *float64 `json:"distance_meter"`
	} `json:"score"`
}

// Fetch builds the normalized payload for a date range. The strain
// block comes from the latest cycle, sleep from the latest non-nap
// sleep, and recovery from the dedicated endpoint when readable, with
// sleep performance as a proxy score otherwise. Optional
// sub-fetches degrade to absent blocks instead of failing the whole
// fetch.
func (a *Adapter) Fetch(ctx context.Context, start, end time.Time) (source.HealthPayload, error) {
	if !a.connected {
		return source.HealthPayload{}, source.FetchError(sourceName, "not connected", nil)
	}

	payload := source.HealthPayload{
		Date:   source.FormatDate(start),
		Source: sourceName,
	}

	rangeQuery := url.Values{
		"start": {start.Format(time.RFC3339)},
		"end":   {end.Add(24 * time.Hour).Format(time.RFC3339)},
	}

	// Strain from the most recent cycle.
	var cycles struct {
		Records []cycleRecord `json:"records"`
	}
	if err := a.getCollection(ctx, "/cycle", rangeQuery, &cycles); err != nil {
		return source.HealthPayload{}, err
	}
	if n := len(cycles.Records); n > 0 && cycles.Records[n-1].Score != nil {
		score := cycles.Records[n-1].Score
		payload.Strain = &source.Strain{
			Score:    score.Strain,
			Calories: kilojoulesToKcal(score.Kilojoule),
			MaxHR:    score.MaxHeartRate,
			AvgHR:    score.AverageHeartRate,
		}
	}

	// Sleep; also seeds a recovery proxy from sleep performance.
	var sleeps struct {
		Records []sleepRecord `json:"records"`
	}
	if err := a.getCollection(ctx, "/activity/sleep", rangeQuery, &sleeps); err != nil {
		appLog.Warn("whoop sleep fetch failed", err)
	} else if rec := latestMainSleep(sleeps.Records); rec != nil && rec.Score != nil {
		score := rec.Score
		sleep := &source.SleepHours{
			QualityScore: score.PerformancePct,
			Efficiency:   score.EfficiencyPct,
		}
		if ss := score.StageSummary; ss != nil {
			sleep.Stages = source.SleepStages{
				DeepHours:  millisToHours(ss.SlowWaveMilli),
				LightHours: millisToHours(ss.LightMilli),
				RemHours:   millisToHours(ss.RemMilli),
				AwakeHours: millisToHours(ss.AwakeMilli),
			}
			sleep.TotalHours = sleep.Stages.DeepHours + sleep.Stages.LightHours + sleep.Stages.RemHours
		}
		payload.Sleep = sleep

		if score.PerformancePct != nil {
			payload.Recovery = &source.Recovery{Score: score.PerformancePct}
		}
	}

	// Dedicated recovery endpoint; may be unreadable depending on the
	// granted OAuth scope, in which case the sleep proxy stands.
	var recoveries struct {
		Records []recoveryRecord `json:"records"`
	}
	if err := a.getCollection(ctx, "/recovery", rangeQuery, &recoveries); err != nil {
		appLog.Debug("whoop recovery endpoint unavailable", "err", err)
	} else if n := len(recoveries.Records); n > 0 && recoveries.Records[n-1].Score != nil {
		score := recoveries.Records[n-1].Score
		payload.Recovery = &source.Recovery{
			Score:     score.RecoveryScore,
			HRVms:     score.HRVRmssdMilli,
			RestingHR: score.RestingHeartRate,
		}
	}

	// Workouts.
	var workouts struct {
		Records []workoutRecord `json:"records"`
	}
	if err := a.getCollection(ctx, "/activity/workout", rangeQuery, &workouts); err != nil {
		appLog.Warn("whoop workout fetch failed", err)
	} else {
		for _, rec := range workouts.Records {
			w := source.Workout{Name: rec.SportName, Type: rec.SportName}
			if rec.Score != nil {
				if kcal := kilojoulesToKcal(rec.Score.Kilojoule); kcal != nil {
					w.Calories = *kcal
				}
				if rec.Score.DistanceMeter != nil {
					w.DistanceKM = *rec.Score.DistanceMeter / 1000
				}
				w.AvgHR = rec.Score.AverageHeartRate
				w.MaxHR = rec.Score.MaxHeartRate
			}
			if dur, ok := workoutDuration(rec.Start, rec.End); ok {
				w.DurationMinutes = dur
			}
			payload.Workouts = append(payload.Workouts, w)
		}
	}

	appLog.Info("fetched whoop data", "date", payload.Date)
	return payload, nil
}

// latestMainSleep picks the most recent non-nap sleep record.
func latestMainSleep(records []sleepRecord) *sleepRecord {
	for i := len(records) - 1; i >= 0; i-- {
		if !records[i].Nap {
			return &records[i]
		}
	}
	return nil
}

func millisToHours(ms int64) float64 {
	return float64(ms) / 3600000
}

func kilojoulesToKcal(kj *float64) *float64 {
	if kj == nil {
		return nil
	}
	kcal := *kj / 4.184
	return &kcal
}

func workoutDuration(start, end string) (float64, bool) {
	s, err1 := time.Parse(time.RFC3339, start)
	e, err2 := time.Parse(time.RFC3339, end)
	if err1 != nil || err2 != nil {
		return 0, false
	}
	return e.Sub(s).Minutes(), true
}

func (a *Adapter) getCollection(ctx context.Context, path string, query url.Values, dst any) error {
	status, body, err := a.get(ctx, path, query)
	if err != nil {
		return source.FetchError(sourceName, "request failed", err)
	}
	if status != http.StatusOK {
		return source.FetchError(sourceName, fmt.Sprintf("%s: status %d", path, status), nil)
	}
	if err := json.Unmarshal(body, dst); err != nil {
		return source.FetchError(sourceName, "decode response", err)
	}
	return nil
}

func (a *Adapter) get(ctx context.Context, path string, query url.Values) (int, []byte, error) {
	endpoint := a.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return 0, nil, err
	}
	req.Header.Set("Authorization", "Bearer "+a.accessToken)

	resp, err := a.client.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, err
	}
	return resp.StatusCode, body, nil
}

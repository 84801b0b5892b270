// Package garmin is the activity-tracker adapter. It reads the Garmin
// Connect API (daily stats, heart rate, sleep, body battery,
// activities) and normalizes the result into a health payload. The
// responses are deep and partially populated depending on the device,
// so fields are picked out with gjson instead of full struct decoding.
package garmin

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/tidwall/gjson"

	appLog "jarvis/internal/log"
	"jarvis/internal/source"
)

const (
	sourceName     = "garmin"
	defaultBaseURL = "https://connectapi.garmin.com"
)

// Adapter is the Garmin Connect REST client. It requires a pre-acquired
// OAuth access token; token acquisition lives outside this process.
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

// Connect validates the token against the user settings endpoint.
func (a *Adapter) Connect(ctx context.Context) error {
	if a.accessToken == "" {
		return source.ConnectionError(sourceName, "access token not configured", nil)
	}

	status, _, err := a.get(ctx, "/userprofile-service/userprofile/user-settings", nil)
	if err != nil {
		return source.ConnectionError(sourceName, "unreachable", err)
	}
	switch status {
	case http.StatusOK:
		a.connected = true
		appLog.Info("connected to garmin")
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
	status, _, err := a.get(ctx, "/userprofile-service/userprofile/user-settings", nil)
	return err == nil && status == http.StatusOK
}

// Fetch builds the normalized payload for a date range. Daily stats are
// mandatory; heart rate, sleep, body battery, and activities degrade to
// absent blocks when their endpoints fail (body battery in particular
// is absent on many devices).
func (a *Adapter) Fetch(ctx context.Context, start, end time.Time) (source.HealthPayload, error) {
	if !a.connected {
		return source.HealthPayload{}, source.FetchError(sourceName, "not connected", nil)
	}

	day := source.FormatDate(start)
	payload := source.HealthPayload{Date: day, Source: sourceName}

	dateQuery := url.Values{"calendarDate": {day}}

	stats, err := a.getJSON(ctx, "/usersummary-service/usersummary/daily", dateQuery)
	if err != nil {
		return source.HealthPayload{}, err
	}
	payload.DailyStats = &source.DailyStats{
		Steps:         stats.Get("totalSteps").Int(),
		DistanceKM:    stats.Get("totalDistanceMeters").Float() / 1000,
		Calories:      stats.Get("totalKilocalories").Int(),
		ActiveMinutes: stats.Get("moderateIntensityMinutes").Int() + stats.Get("vigorousIntensityMinutes").Int(),
		FloorsClimbed: stats.Get("floorsAscended").Int(),
	}

	if hr, err := a.getJSON(ctx, "/wellness-service/wellness/dailyHeartRate", dateQuery); err != nil {
		appLog.Warn("garmin heart rate fetch failed", err)
	} else {
		payload.HeartRate = &source.HeartRate{
			Resting: intField(hr, "restingHeartRate"),
			Max:     intField(hr, "maxHeartRate"),
			Min:     intField(hr, "minHeartRate"),
		}
	}

	if sleep, err := a.getJSON(ctx, "/wellness-service/wellness/dailySleepData", dateQuery); err != nil {
		appLog.Warn("garmin sleep fetch failed", err)
	} else if dto := sleep.Get("dailySleepDTO"); dto.Exists() {
		payload.SleepRaw = &source.SleepSeconds{
			TotalSeconds: dto.Get("sleepTimeSeconds").Int(),
			DeepSeconds:  dto.Get("deepSleepSeconds").Int(),
			LightSeconds: dto.Get("lightSleepSeconds").Int(),
			RemSeconds:   dto.Get("remSleepSeconds").Int(),
			AwakeSeconds: dto.Get("awakeSleepSeconds").Int(),
		}
	}

	// Body battery is best effort: not all devices report it, and its
	// absence must never abort the fetch.
	if bb, err := a.fetchBodyBattery(ctx, day); err != nil {
		appLog.Debug("garmin body battery unavailable", "err", err)
	} else if bb != nil {
		payload.BodyBattery = bb
	}

	activityQuery := url.Values{
		"startDate": {day},
		"endDate":   {source.FormatDate(end)},
	}
	if acts, err := a.getJSON(ctx, "/activitylist-service/activities/search/activities", activityQuery); err != nil {
		appLog.Warn("garmin activities fetch failed", err)
	} else {
		acts.ForEach(func(_, act gjson.Result) bool {
			payload.Workouts = append(payload.Workouts, source.Workout{
				Name:            act.Get("activityName").String(),
				Type:            act.Get("activityType.typeKey").String(),
				DurationMinutes: act.Get("duration").Float() / 60,
				DistanceKM:      act.Get("distance").Float() / 1000,
				Calories:        act.Get("calories").Float(),
				AvgHR:           intField(act, "averageHR"),
				MaxHR:           intField(act, "maxHR"),
			})
			return true
		})
	}

	appLog.Info("fetched garmin data", "date", day)
	return payload, nil
}

func (a *Adapter) fetchBodyBattery(ctx context.Context, day string) (*source.BodyBattery, error) {
	query := url.Values{"startDate": {day}, "endDate": {day}}
	reports, err := a.getJSON(ctx, "/wellness-service/wellness/bodyBattery/reports/daily", query)
	if err != nil {
		return nil, err
	}
	first := reports.Get("0")
	if !first.Exists() {
		return nil, nil
	}
	return &source.BodyBattery{
		Charged: int(first.Get("charged").Int()),
		Drained: int(first.Get("drained").Int()),
	}, nil
}

func intField(r gjson.Result, path string) *int {
	v := r.Get(path)
	if !v.Exists() || v.Type == gjson.Null {
		return nil
	}
	n := int(v.Int())
	return &n
}

func (a *Adapter) getJSON(ctx context.Context, path string, query url.Values) (gjson.Result, error) {
	status, body, err := a.get(ctx, path, query)
	if err != nil {
		return gjson.Result{}, source.FetchError(sourceName, "request failed", err)
	}
	if status != http.StatusOK {
		return gjson.Result{}, source.FetchError(sourceName, fmt.Sprintf("%s: status %d", path, status), nil)
	}
	return gjson.ParseBytes(body), nil
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

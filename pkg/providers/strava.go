package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"

	"github.com/fitsync/gateway/pkg/logger"
)

const (
	stravaBaseURL  = "https://www.strava.com/api/v3"
	stravaPerPage  = 30
	stravaMaxRetry = 3
)

// StravaAdapter implements Provider against the Strava v3 REST API.
type StravaAdapter struct {
	httpClient *http.Client
	creds      Credentials
}

// NewStravaAdapter returns an unauthenticated Strava adapter.
func NewStravaAdapter() *StravaAdapter {
	return &StravaAdapter{httpClient: &http.Client{Timeout: 10 * time.Second}}
}

func (a *StravaAdapter) Name() string { return "strava" }

func (a *StravaAdapter) Authenticate(_ context.Context, creds Credentials) error {
	if creds.AccessToken == "" {
		return fmt.Errorf("strava: %w: no access token supplied", ErrUnauthorized)
	}
	a.creds = creds
	return nil
}

type stravaAthlete struct {
	ID        int64  `json:"id"`
	Username  string `json:"username"`
	Firstname string `json:"firstname"`
	Lastname  string `json:"lastname"`
	Profile   string `json:"profile"`
}

func (a *StravaAdapter) GetAthlete(ctx context.Context) (*Athlete, error) {
	var raw stravaAthlete
	if err := a.get(ctx, "/athlete", &raw); err != nil {
		return nil, err
	}
	return &Athlete{
		ID:             fmt.Sprintf("%d", raw.ID),
		Username:       raw.Username,
		FirstName:      ptrOrNil(raw.Firstname),
		LastName:       ptrOrNil(raw.Lastname),
		ProfilePicture: ptrOrNil(raw.Profile),
		Provider:       "strava",
	}, nil
}

type stravaActivity struct {
	ID               int64   `json:"id"`
	Name             string  `json:"name"`
	Type             string  `json:"type"`
	StartDate        string  `json:"start_date"`
	MovingTime       uint64  `json:"moving_time"`
	Distance         float64 `json:"distance"`
	TotalElevation   float64 `json:"total_elevation_gain"`
	AverageHeartrate float64 `json:"average_heartrate"`
	MaxHeartrate     float64 `json:"max_heartrate"`
	AverageSpeed     float64 `json:"average_speed"`
	MaxSpeed         float64 `json:"max_speed"`
	Calories         float64 `json:"calories"`
	StartLatlng      []float64 `json:"start_latlng"`
}

func (a *StravaAdapter) GetActivities(ctx context.Context, limit, offset int) ([]Activity, error) {
	if limit <= 0 {
		limit = stravaPerPage
	}
	page := offset/limit + 1

	var raw []stravaActivity
	path := fmt.Sprintf("/athlete/activities?page=%d&per_page=%d", page, limit)
	if err := a.get(ctx, path, &raw); err != nil {
		return nil, err
	}

	out := make([]Activity, 0, len(raw))
	for _, r := range raw {
		out = append(out, stravaActivityToModel(r))
	}
	return out, nil
}

func stravaActivityToModel(r stravaActivity) Activity {
	start, _ := time.Parse(time.RFC3339, r.StartDate)
	act := Activity{
		ID:              fmt.Sprintf("%d", r.ID),
		Name:            r.Name,
		SportType:       SportTypeFromStrava(r.Type),
		StartTime:       start.UTC(),
		DurationSeconds: r.MovingTime,
		DistanceMeters:  floatPtrOrNil(r.Distance),
		ElevationGainM:  floatPtrOrNil(r.TotalElevation),
		AverageSpeedMS:  floatPtrOrNil(r.AverageSpeed),
		MaxSpeedMS:      floatPtrOrNil(r.MaxSpeed),
		Provider:        "strava",
	}
	if r.AverageHeartrate > 0 {
		v := uint32(r.AverageHeartrate)
		act.AverageHeartRate = &v
	}
	if r.MaxHeartrate > 0 {
		v := uint32(r.MaxHeartrate)
		act.MaxHeartRate = &v
	}
	if r.Calories > 0 {
		v := uint32(r.Calories)
		act.Calories = &v
	}
	if len(r.StartLatlng) == 2 {
		act.StartLatitude = &r.StartLatlng[0]
		act.StartLongitude = &r.StartLatlng[1]
	}
	return act
}

type stravaStats struct {
	AllRunTotals struct {
		Count    uint64  `json:"count"`
		Distance float64 `json:"distance"`
		Moving   uint64  `json:"moving_time"`
		Elev     float64 `json:"elevation_gain"`
	} `json:"all_run_totals"`
	AllRideTotals struct {
		Count    uint64  `json:"count"`
		Distance float64 `json:"distance"`
		Moving   uint64  `json:"moving_time"`
		Elev     float64 `json:"elevation_gain"`
	} `json:"all_ride_totals"`
	AllSwimTotals struct {
		Count    uint64  `json:"count"`
		Distance float64 `json:"distance"`
		Moving   uint64  `json:"moving_time"`
		Elev     float64 `json:"elevation_gain"`
	} `json:"all_swim_totals"`
}

func (a *StravaAdapter) GetStats(ctx context.Context) (*Stats, error) {
	athlete, err := a.GetAthlete(ctx)
	if err != nil {
		return nil, err
	}

	var raw stravaStats
	path := fmt.Sprintf("/athletes/%s/stats", athlete.ID)
	if err := a.get(ctx, path, &raw); err != nil {
		return nil, err
	}

	// Strava's stats endpoint reports lifetime totals but no per-activity
	// bests, so personal records are derived from a bounded recent scan.
	recent, err := a.GetActivities(ctx, stravaPerPage, 0)
	if err != nil {
		return nil, err
	}

	return &Stats{
		TotalActivities:     raw.AllRunTotals.Count + raw.AllRideTotals.Count + raw.AllSwimTotals.Count,
		TotalDistanceM:      raw.AllRunTotals.Distance + raw.AllRideTotals.Distance + raw.AllSwimTotals.Distance,
		TotalDurationSec:    raw.AllRunTotals.Moving + raw.AllRideTotals.Moving + raw.AllSwimTotals.Moving,
		TotalElevationGainM: raw.AllRunTotals.Elev + raw.AllRideTotals.Elev + raw.AllSwimTotals.Elev,
		PersonalRecords:     personalRecordsFromActivities(recent),
	}, nil
}

// get performs an authenticated GET against the Strava API, retrying
// transient failures (5xx, 429) a bounded number of times via backoff/v5.
func (a *StravaAdapter) get(ctx context.Context, path string, out interface{}) error {
	op := func() (*http.Response, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, stravaBaseURL+path, nil)
		if err != nil {
			return nil, backoff.Permanent(err)
		}
		req.Header.Set("Authorization", "Bearer "+a.creds.AccessToken)

		resp, err := a.httpClient.Do(req)
		if err != nil {
			return nil, err
		}

		switch {
		case resp.StatusCode == http.StatusUnauthorized:
			resp.Body.Close()
			return nil, backoff.Permanent(fmt.Errorf("strava: %w", ErrUnauthorized))
		case resp.StatusCode == http.StatusTooManyRequests, resp.StatusCode >= 500:
			body, _ := io.ReadAll(resp.Body)
			resp.Body.Close()
			return nil, fmt.Errorf("strava: transient status %d: %s", resp.StatusCode, string(body))
		case resp.StatusCode != http.StatusOK:
			body, _ := io.ReadAll(resp.Body)
			resp.Body.Close()
			return nil, backoff.Permanent(fmt.Errorf("strava: status %d: %s", resp.StatusCode, string(body)))
		}
		return resp, nil
	}

	resp, err := backoff.Retry(ctx, op, backoff.WithMaxTries(stravaMaxRetry))
	if err != nil {
		logger.Warnf("strava request failed: path=%s err=%v", path, err)
		return err
	}
	defer resp.Body.Close()

	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func ptrOrNil(s string) *string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return &s
}

func floatPtrOrNil(f float64) *float64 {
	if f == 0 {
		return nil
	}
	return &f
}

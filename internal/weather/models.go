package weather

import (
	"encoding/json"
	"errors"
	"time"
)

// ErrSnapshotUnavailable is returned when the cache holds no reading for a region.
var ErrSnapshotUnavailable = errors.New("no cached weather for region")

// Snapshot is the most recent cached reading for one region.
// The refresh job overwrites it in place on every cycle.
type Snapshot struct {
	RegionID    string    `json:"regionId"`
	Temperature int       `json:"temperature"`
	Condition   string    `json:"condition"` // Uzbek label
	Humidity    int       `json:"humidity"`
	WindSpeed   int       `json:"windSpeed"`
	Pressure    int       `json:"pressure"` // mmHg
	Forecast    Forecast  `json:"forecast"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// HourlyPoint is one entry of the next-24-hours temperature curve.
// Time is local wall clock "HH:MM".
type HourlyPoint struct {
	Time string `json:"time"`
	Temp int    `json:"temp"`
}

// DailyPoint is one day of the multi-day forecast.
type DailyPoint struct {
	Date    string `json:"date"`
	Max     int    `json:"max"`
	Min     int    `json:"min"`
	Code    int    `json:"code"`
	Sunrise string `json:"sunrise,omitempty"`
	Sunset  string `json:"sunset,omitempty"`
}

// Forecast is the optional structured detail attached to a snapshot.
// The zero value is a valid, empty forecast.
type Forecast struct {
	Hourly      []HourlyPoint `json:"hourly,omitempty"`
	Daily       []DailyPoint  `json:"daily,omitempty"`
	ConditionAr string        `json:"condition_ar,omitempty"`
}

// Today returns the daily entry dated on local's calendar day. A forecast
// left over from an earlier day has no entry for today.
func (f Forecast) Today(local time.Time) (DailyPoint, bool) {
	date := local.Format(time.DateOnly)
	for _, d := range f.Daily {
		if d.Date == date {
			return d, true
		}
	}
	return DailyPoint{}, false
}

// TempAt returns the hourly temperature recorded for the given "HH:MM" slot.
func (f Forecast) TempAt(slot string) (int, bool) {
	for _, h := range f.Hourly {
		if h.Time == slot {
			return h.Temp, true
		}
	}
	return 0, false
}

// IsEmpty reports whether the forecast carries no detail at all.
func (f Forecast) IsEmpty() bool {
	return len(f.Hourly) == 0 && len(f.Daily) == 0 && f.ConditionAr == ""
}

// EncodeForecast serializes a forecast for storage.
func EncodeForecast(f Forecast) (string, error) {
	b, err := json.Marshal(f)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// DecodeForecast parses a stored forecast blob. Blobs written by older
// producers may be truncated or not JSON at all; those decode to an empty
// forecast together with the parse error so the caller can log it.
func DecodeForecast(raw string) (Forecast, error) {
	if raw == "" {
		return Forecast{}, nil
	}
	var f Forecast
	if err := json.Unmarshal([]byte(raw), &f); err != nil {
		return Forecast{}, err
	}
	return f, nil
}

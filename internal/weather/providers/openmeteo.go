package providers

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sony/gobreaker"
	"github.com/zsefvlol/timezonemapper"

	"github.com/i474232898/obhavo-bot/internal/weather"
)

const (
	openMeteoURL = "https://api.open-meteo.com/v1/forecast"
	hpaToMmHg    = 0.75
	hourlyWindow = 24
)

// OpenMeteoProvider implements weather.Provider for Open-Meteo.
// No API key is required.
type OpenMeteoProvider struct {
	name    string
	baseURL string
	client  *http.Client
	backoff BackoffConfig
	circuit *gobreaker.CircuitBreaker
}

func NewOpenMeteoProvider(client *http.Client) *OpenMeteoProvider {
	return &OpenMeteoProvider{
		name:    "openmeteo",
		baseURL: openMeteoURL,
		client:  client,
		backoff: DefaultBackoff,
		circuit: newBreaker("openmeteo"),
	}
}

// WithBaseURL points the provider at another endpoint (tests, mirrors).
func (p *OpenMeteoProvider) WithBaseURL(u string) *OpenMeteoProvider {
	p.baseURL = u
	return p
}

// WithBackoff overrides the retry policy.
func (p *OpenMeteoProvider) WithBackoff(b BackoffConfig) *OpenMeteoProvider {
	p.backoff = b
	return p
}

func (p *OpenMeteoProvider) Name() string {
	return p.name
}

type openMeteoPayload struct {
	CurrentWeather struct {
		Temperature float64 `json:"temperature"`
		WindSpeed   float64 `json:"windspeed"`
		WeatherCode int     `json:"weathercode"`
		Time        string  `json:"time"`
	} `json:"current_weather"`
	Hourly struct {
		Time             []string  `json:"time"`
		Temperature      []float64 `json:"temperature_2m"`
		RelativeHumidity []float64 `json:"relativehumidity_2m"`
		SurfacePressure  []float64 `json:"surface_pressure"`
	} `json:"hourly"`
	Daily struct {
		Time        []string  `json:"time"`
		TempMax     []float64 `json:"temperature_2m_max"`
		TempMin     []float64 `json:"temperature_2m_min"`
		WeatherCode []int     `json:"weathercode"`
		Sunrise     []string  `json:"sunrise"`
		Sunset      []string  `json:"sunset"`
	} `json:"daily"`
}

func (p *OpenMeteoProvider) Fetch(ctx context.Context, region weather.Region) (weather.Snapshot, error) {
	values := url.Values{}
	values.Set("latitude", fmt.Sprintf("%f", region.Lat))
	values.Set("longitude", fmt.Sprintf("%f", region.Lon))
	values.Set("current_weather", "true")
	values.Set("windspeed_unit", "ms")
	values.Set("hourly", "temperature_2m,relativehumidity_2m,surface_pressure")
	values.Set("daily", "temperature_2m_max,temperature_2m_min,weathercode,sunrise,sunset")
	values.Set("timezone", regionTimezone(region))

	var payload openMeteoPayload
	if err := getJSON(ctx, p.client, p.backoff, p.circuit, p.baseURL+"?"+values.Encode(), &payload); err != nil {
		return weather.Snapshot{}, fmt.Errorf("openmeteo %s: %w", region.ID, err)
	}

	return payload.toSnapshot(region.ID), nil
}

func regionTimezone(region weather.Region) string {
	if tz := timezonemapper.LatLngToTimezoneString(region.Lat, region.Lon); tz != "" {
		return tz
	}
	return "auto"
}

func (p openMeteoPayload) toSnapshot(regionID string) weather.Snapshot {
	cond := weather.ConditionFromCode(p.CurrentWeather.WeatherCode)
	idx := p.currentHourIndex()

	humidity := 60
	if idx < len(p.Hourly.RelativeHumidity) {
		humidity = round(p.Hourly.RelativeHumidity[idx])
	}
	pressure := 1013.0
	if idx < len(p.Hourly.SurfacePressure) {
		pressure = p.Hourly.SurfacePressure[idx]
	}

	var hourly []weather.HourlyPoint
	for i := idx; i < len(p.Hourly.Time) && i < idx+hourlyWindow && i < len(p.Hourly.Temperature); i++ {
		hourly = append(hourly, weather.HourlyPoint{
			Time: clockOf(p.Hourly.Time[i]),
			Temp: round(p.Hourly.Temperature[i]),
		})
	}

	var daily []weather.DailyPoint
	for i, date := range p.Daily.Time {
		d := weather.DailyPoint{Date: date}
		if i < len(p.Daily.TempMax) {
			d.Max = round(p.Daily.TempMax[i])
		}
		if i < len(p.Daily.TempMin) {
			d.Min = round(p.Daily.TempMin[i])
		}
		if i < len(p.Daily.WeatherCode) {
			d.Code = p.Daily.WeatherCode[i]
		}
		if i < len(p.Daily.Sunrise) {
			d.Sunrise = clockOf(p.Daily.Sunrise[i])
		}
		if i < len(p.Daily.Sunset) {
			d.Sunset = clockOf(p.Daily.Sunset[i])
		}
		daily = append(daily, d)
	}

	return weather.Snapshot{
		RegionID:    regionID,
		Temperature: round(p.CurrentWeather.Temperature),
		Condition:   cond.Uz,
		Humidity:    humidity,
		WindSpeed:   round(p.CurrentWeather.WindSpeed),
		Pressure:    round(pressure * hpaToMmHg),
		Forecast: weather.Forecast{
			Hourly:      hourly,
			Daily:       daily,
			ConditionAr: cond.Ar,
		},
		UpdatedAt: time.Now().UTC(),
	}
}

// currentHourIndex locates the hourly slot matching the current reading.
// Times are local ISO8601 without seconds, e.g. "2026-10-17T13:00".
func (p openMeteoPayload) currentHourIndex() int {
	cur := p.CurrentWeather.Time
	if len(cur) < 13 {
		return 0
	}
	prefix := cur[:13]
	for i, t := range p.Hourly.Time {
		if strings.HasPrefix(t, prefix) {
			return i
		}
	}
	return 0
}

// clockOf extracts "HH:MM" from a local ISO8601 timestamp.
func clockOf(ts string) string {
	if i := strings.IndexByte(ts, 'T'); i >= 0 && len(ts) >= i+6 {
		return ts[i+1 : i+6]
	}
	return ts
}

func round(v float64) int {
	return int(math.Round(v))
}

package providers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/i474232898/obhavo-bot/internal/weather"
)

const sampleOpenMeteo = `{
  "current_weather": {"temperature": 17.6, "windspeed": 3.2, "weathercode": 2, "time": "2026-10-17T13:15"},
  "hourly": {
    "time": ["2026-10-17T12:00", "2026-10-17T13:00", "2026-10-17T14:00"],
    "temperature_2m": [16.4, 17.5, 18.1],
    "relativehumidity_2m": [50, 44, 40],
    "surface_pressure": [950.0, 960.0, 961.0]
  },
  "daily": {
    "time": ["2026-10-17", "2026-10-18"],
    "temperature_2m_max": [19.4, 21.0],
    "temperature_2m_min": [7.6, 8.2],
    "weathercode": [2, 0],
    "sunrise": ["2026-10-17T06:41", "2026-10-18T06:42"],
    "sunset": ["2026-10-17T17:59", "2026-10-18T17:57"]
  }
}`

func fastBackoff() BackoffConfig {
	return BackoffConfig{MaxRetries: 2, InitialInterval: time.Millisecond, MaxInterval: 5 * time.Millisecond}
}

func TestOpenMeteoFetch(t *testing.T) {
	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(sampleOpenMeteo))
	}))
	defer srv.Close()

	p := NewOpenMeteoProvider(srv.Client()).WithBaseURL(srv.URL).WithBackoff(fastBackoff())
	region, _ := weather.LookupRegion("toshkent")

	snap, err := p.Fetch(context.Background(), region)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if gotQuery == "" {
		t.Fatal("expected query parameters to be sent")
	}

	if snap.RegionID != "toshkent" {
		t.Errorf("RegionID = %q", snap.RegionID)
	}
	if snap.Temperature != 18 {
		t.Errorf("Temperature = %d, want 18", snap.Temperature)
	}
	if snap.Condition != "Biroz bulutli" {
		t.Errorf("Condition = %q", snap.Condition)
	}
	if snap.Humidity != 44 {
		t.Errorf("Humidity = %d, want 44 (current hour)", snap.Humidity)
	}
	if snap.Pressure != 720 {
		t.Errorf("Pressure = %d, want 720 mmHg", snap.Pressure)
	}
	if len(snap.Forecast.Hourly) != 2 || snap.Forecast.Hourly[0].Time != "13:00" {
		t.Errorf("Hourly = %+v, want window starting at 13:00", snap.Forecast.Hourly)
	}
	today, ok := snap.Forecast.Today(time.Date(2026, 10, 17, 13, 15, 0, 0, time.UTC))
	if !ok || today.Max != 19 || today.Min != 8 || today.Sunrise != "06:41" {
		t.Errorf("Today = %+v", today)
	}
	if snap.Forecast.ConditionAr == "" {
		t.Error("ConditionAr should be set")
	}
}

func TestOpenMeteoRetriesServerErrors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(sampleOpenMeteo))
	}))
	defer srv.Close()

	p := NewOpenMeteoProvider(srv.Client()).WithBaseURL(srv.URL).WithBackoff(fastBackoff())
	region, _ := weather.LookupRegion("nukus")

	if _, err := p.Fetch(context.Background(), region); err != nil {
		t.Fatalf("Fetch after retry: %v", err)
	}
	if atomic.LoadInt32(&calls) != 2 {
		t.Fatalf("calls = %d, want 2", calls)
	}
}

func TestOpenMeteoClientError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	p := NewOpenMeteoProvider(srv.Client()).WithBaseURL(srv.URL).WithBackoff(fastBackoff())
	region, _ := weather.LookupRegion("termiz")

	if _, err := p.Fetch(context.Background(), region); err == nil {
		t.Fatal("expected error for 400 response")
	}
}

func TestClockOf(t *testing.T) {
	if got := clockOf("2026-10-17T06:41"); got != "06:41" {
		t.Errorf("clockOf = %q", got)
	}
	if got := clockOf("garbage"); got != "garbage" {
		t.Errorf("clockOf passthrough = %q", got)
	}
}

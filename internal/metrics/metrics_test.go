package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func gather(t *testing.T, reg *prometheus.Registry, name string) []*dto.Metric {
	t.Helper()
	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("failed to gather metrics: %v", err)
	}
	for _, mf := range families {
		if mf.GetName() == name {
			return mf.GetMetric()
		}
	}
	t.Fatalf("metric %s not found", name)
	return nil
}

func TestRecordTick(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordTick(10 * time.Millisecond)
	c.RecordTick(20 * time.Millisecond)
	c.RecordTickSkipped()

	if v := gather(t, reg, "obhavo_scheduler_ticks_total")[0].GetCounter().GetValue(); v != 2 {
		t.Errorf("ticks_total = %v, want 2", v)
	}
	if v := gather(t, reg, "obhavo_scheduler_ticks_skipped_total")[0].GetCounter().GetValue(); v != 1 {
		t.Errorf("ticks_skipped_total = %v, want 1", v)
	}
	if n := gather(t, reg, "obhavo_scheduler_tick_duration_seconds")[0].GetHistogram().GetSampleCount(); n != 2 {
		t.Errorf("tick duration samples = %d, want 2", n)
	}
}

func TestRecordDeliveryByResult(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordDelivery(true)
	c.RecordDelivery(true)
	c.RecordDelivery(false)

	got := map[string]float64{}
	for _, m := range gather(t, reg, "obhavo_digest_deliveries_total") {
		got[m.GetLabel()[0].GetValue()] = m.GetCounter().GetValue()
	}
	if got[ResultSuccess] != 2 || got[ResultFailure] != 1 {
		t.Errorf("unexpected deliveries: %v", got)
	}
}

func TestRecordRefresh(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordRefresh("toshkent", true)
	c.RecordRefresh("nukus", false)
	c.RecordMalformedSchedule()
	c.RecordMarkSentFailure()

	if n := len(gather(t, reg, "obhavo_weather_refresh_total")); n != 2 {
		t.Errorf("expected 2 label sets, got %d", n)
	}
	if v := gather(t, reg, "obhavo_scheduler_malformed_schedules_total")[0].GetCounter().GetValue(); v != 1 {
		t.Errorf("malformed = %v, want 1", v)
	}
}

func TestHandlerServesMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)
	c.RecordDelivery(true)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w := httptest.NewRecorder()
	Handler(reg).ServeHTTP(w, req)

	resp := w.Result()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}
	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), `obhavo_digest_deliveries_total{result="success"} 1`) {
		t.Errorf("expected delivery counter in body:\n%s", body)
	}
}

// Package metrics exposes Prometheus counters for the scheduler, delivery
// and weather refresh paths.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Delivery results.
const (
	ResultSuccess = "success"
	ResultFailure = "failure"
)

// Collector implements the scheduler and refresher recorder interfaces.
type Collector struct {
	ticks            prometheus.Counter
	ticksSkipped     prometheus.Counter
	tickDuration     prometheus.Histogram
	deliveries       *prometheus.CounterVec
	malformed        prometheus.Counter
	markFailures     prometheus.Counter
	weatherRefreshes *prometheus.CounterVec
}

// NewCollector creates a Collector and registers it with reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		ticks: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "obhavo_scheduler_ticks_total",
			Help: "Scheduler ticks evaluated.",
		}),
		ticksSkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "obhavo_scheduler_ticks_skipped_total",
			Help: "Ticks skipped because the previous tick was still running.",
		}),
		tickDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "obhavo_scheduler_tick_duration_seconds",
			Help:    "Wall time of one scheduler tick.",
			Buckets: prometheus.DefBuckets,
		}),
		deliveries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "obhavo_digest_deliveries_total",
			Help: "Digest delivery attempts by result.",
		}, []string{"result"}),
		malformed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "obhavo_scheduler_malformed_schedules_total",
			Help: "Destinations whose scheduled time could not be parsed.",
		}),
		markFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "obhavo_scheduler_mark_sent_failures_total",
			Help: "Failed writes of the last-sent marker.",
		}),
		weatherRefreshes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "obhavo_weather_refresh_total",
			Help: "Weather refresh attempts per region by result.",
		}, []string{"region", "ok"}),
	}

	reg.MustRegister(
		c.ticks,
		c.ticksSkipped,
		c.tickDuration,
		c.deliveries,
		c.malformed,
		c.markFailures,
		c.weatherRefreshes,
	)

	return c
}

func (c *Collector) RecordTick(duration time.Duration) {
	c.ticks.Inc()
	c.tickDuration.Observe(duration.Seconds())
}

func (c *Collector) RecordTickSkipped() {
	c.ticksSkipped.Inc()
}

func (c *Collector) RecordDelivery(ok bool) {
	result := ResultSuccess
	if !ok {
		result = ResultFailure
	}
	c.deliveries.WithLabelValues(result).Inc()
}

func (c *Collector) RecordMalformedSchedule() {
	c.malformed.Inc()
}

func (c *Collector) RecordMarkSentFailure() {
	c.markFailures.Inc()
}

func (c *Collector) RecordRefresh(regionID string, ok bool) {
	c.weatherRefreshes.WithLabelValues(regionID, strconv.FormatBool(ok)).Inc()
}

// Handler returns the scrape handler for gatherer.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// Package metrics records backend request counts and latencies in a private
// Prometheus registry. A CLI run has no scrape endpoint, so the collected values
// are written to the debug log when the run ends.
package metrics

import (
	"context"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"todocli/internal/logging"
)

// Metrics holds the collectors of one client instance.
type Metrics struct {
	Registry *prometheus.Registry

	Requests *prometheus.CounterVec
	Duration *prometheus.HistogramVec
	Failures *prometheus.CounterVec
}

// New creates and registers the collectors on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		Requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "todo_api_requests_total",
			Help: "Backend requests by method and status code.",
		}, []string{"method", "status"}),
		Duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "todo_api_request_duration_seconds",
			Help:    "Backend request latency.",
			Buckets: []float64{.005, .01, .05, .1, .25, .5, 1, 2.5, 5, 10},
		}, []string{"method"}),
		Failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "todo_api_failures_total",
			Help: "Failed backend requests by kind.",
		}, []string{"kind"}),
	}
	m.Registry.MustRegister(m.Requests, m.Duration, m.Failures)
	return m
}

// ObserveRequest records one completed round trip. status 0 means the request
// never produced a response.
func (m *Metrics) ObserveRequest(method string, status int, d time.Duration) {
	if m == nil {
		return
	}
	code := "none"
	if status > 0 {
		code = strconv.Itoa(status)
	}
	m.Requests.WithLabelValues(method, code).Inc()
	m.Duration.WithLabelValues(method).Observe(d.Seconds())
}

// ObserveFailure counts a failed request by kind (transport, unauthorized, status).
func (m *Metrics) ObserveFailure(kind string) {
	if m == nil {
		return
	}
	m.Failures.WithLabelValues(kind).Inc()
}

// LogSummary writes every counter and histogram sample to the debug log.
func (m *Metrics) LogSummary(ctx context.Context) {
	if m == nil {
		return
	}
	families, err := m.Registry.Gather()
	if err != nil {
		logging.Ctx(ctx).Debug().Err(err).Msg("gather metrics")
		return
	}
	for _, mf := range families {
		for _, metric := range mf.GetMetric() {
			ev := logging.Ctx(ctx).Debug().Str("metric", mf.GetName())
			for _, lp := range metric.GetLabel() {
				ev = ev.Str(lp.GetName(), lp.GetValue())
			}
			switch {
			case metric.GetCounter() != nil:
				ev = ev.Float64("value", metric.GetCounter().GetValue())
			case metric.GetHistogram() != nil:
				h := metric.GetHistogram()
				ev = ev.Uint64("count", h.GetSampleCount()).Float64("sum", h.GetSampleSum())
			}
			ev.Msg("metric")
		}
	}
}

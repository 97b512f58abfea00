package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "laundry"

// Metrics holds the collectors of the service. A nil *Metrics is valid and records nothing.
type Metrics struct {
	RateRefreshes      *prometheus.CounterVec
	RateLastSuccess    prometheus.Gauge
	CascadeOutcomes    *prometheus.CounterVec
	StatusTransitions  *prometheus.CounterVec
	HTTPRequests       *prometheus.CounterVec
	HTTPLatencySeconds *prometheus.HistogramVec
}

func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		RateRefreshes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "rates",
			Name:      "refresh_total",
			Help:      "Exchange rate refresh attempts by result.",
		}, []string{"result"}),
		RateLastSuccess: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "rates",
			Name:      "last_success_timestamp_seconds",
			Help:      "Unix time of the last successful rate refresh.",
		}),
		CascadeOutcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "prices",
			Name:      "cascade_total",
			Help:      "Derived price writes by target currency and result.",
		}, []string{"currency", "result"}),
		StatusTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "orders",
			Name:      "transitions_total",
			Help:      "Order status and payment status transitions.",
		}, []string{"kind", "to"}),
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests.",
		}, []string{"route", "status"}),
		HTTPLatencySeconds: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),
	}
	reg.MustRegister(m.RateRefreshes, m.RateLastSuccess, m.CascadeOutcomes, m.StatusTransitions, m.HTTPRequests, m.HTTPLatencySeconds)
	return m
}

func (m *Metrics) RefreshSucceeded(at time.Time) {
	if m == nil {
		return
	}
	m.RateRefreshes.WithLabelValues("success").Inc()
	m.RateLastSuccess.Set(float64(at.Unix()))
}

func (m *Metrics) RefreshFailed() {
	if m == nil {
		return
	}
	m.RateRefreshes.WithLabelValues("failure").Inc()
}

func (m *Metrics) Cascade(currency string, ok bool) {
	if m == nil {
		return
	}
	result := "synced"
	if !ok {
		result = "failed"
	}
	m.CascadeOutcomes.WithLabelValues(currency, result).Inc()
}

func (m *Metrics) Transition(kind, to string) {
	if m == nil {
		return
	}
	m.StatusTransitions.WithLabelValues(kind, to).Inc()
}

func (m *Metrics) ObserveHTTP(route string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequests.WithLabelValues(route, strconv.Itoa(status)).Inc()
	m.HTTPLatencySeconds.WithLabelValues(route).Observe(elapsed.Seconds())
}

func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

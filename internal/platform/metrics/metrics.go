// Package metrics exposes the process's Prometheus instrumentation: HTTP
// server metrics plus domain counters for the electoral operations.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	registry *prometheus.Registry

	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec

	BallotsCast     prometheus.Counter
	BallotsVoided   prometheus.Counter
	CasesFiled      prometheus.Counter
	JudgmentsClosed prometheus.Counter
	TalliesComputed *prometheus.CounterVec
}

func New(serviceName string) *Metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	labels := prometheus.Labels{"service": serviceName}
	m := &Metrics{
		registry: registry,
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "http_requests_total",
			Help:        "HTTP requests by method, route and status code.",
			ConstLabels: labels,
		}, []string{"method", "route", "status"}),
		HTTPDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:        "http_request_duration_seconds",
			Help:        "HTTP request latency by route.",
			ConstLabels: labels,
			Buckets:     prometheus.DefBuckets,
		}, []string{"route"}),
		BallotsCast: prometheus.NewCounter(prometheus.CounterOpts{
			Name:        "ballots_cast_total",
			Help:        "Ballots admitted to the ledger.",
			ConstLabels: labels,
		}),
		BallotsVoided: prometheus.NewCounter(prometheus.CounterOpts{
			Name:        "ballots_voided_total",
			Help:        "Ballots voided by adjudication outcomes.",
			ConstLabels: labels,
		}),
		CasesFiled: prometheus.NewCounter(prometheus.CounterOpts{
			Name:        "adjudication_cases_filed_total",
			Help:        "Complaints and impugnations filed.",
			ConstLabels: labels,
		}),
		JudgmentsClosed: prometheus.NewCounter(prometheus.CounterOpts{
			Name:        "judgments_closed_total",
			Help:        "Committee judgment sessions closed with a decision.",
			ConstLabels: labels,
		}),
		TalliesComputed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "tally_results_computed_total",
			Help:        "Tally results computed, by kind.",
			ConstLabels: labels,
		}, []string{"kind"}),
	}
	registry.MustRegister(
		m.HTTPRequests,
		m.HTTPDuration,
		m.BallotsCast,
		m.BallotsVoided,
		m.CasesFiled,
		m.JudgmentsClosed,
		m.TalliesComputed,
	)
	return m
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Instrument wraps an HTTP handler with request counting and latency
// observation under a stable route label.
func (m *Metrics) Instrument(route string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next(recorder, r)
		m.HTTPRequests.WithLabelValues(r.Method, route, strconv.Itoa(recorder.status)).Inc()
		m.HTTPDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

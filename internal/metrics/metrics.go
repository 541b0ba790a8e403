// Package metrics exposes Prometheus collectors for the job lifecycle and
// the HTTP API.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/zulandar/spindle/internal/models"
)

const namespace = "spindle"

// Metrics holds the collectors on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	jobsCreated     *prometheus.CounterVec
	jobsFinished    *prometheus.CounterVec
	jobsPromoted    *prometheus.CounterVec
	achievement     *prometheus.HistogramVec
	archiveCleared  prometheus.Counter
	requests        *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
}

// New registers every collector on a fresh registry, along with the Go and
// process collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		jobsCreated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "jobs_created_total",
			Help:      "Jobs created, by machine and stage.",
		}, []string{"machine", "stage"}),
		jobsFinished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "jobs_finished_total",
			Help:      "Jobs finished and archived, by machine.",
		}, []string{"machine"}),
		jobsPromoted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "jobs_promoted_total",
			Help:      "Queued jobs promoted to current, by machine.",
		}, []string{"machine"}),
		achievement: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "job_achievement_percent",
			Help:      "Achievement of finished jobs.",
			Buckets:   []float64{0, 25, 50, 75, 90, 100},
		}, []string{"machine"}),
		archiveCleared: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "archive_cleared_rows_total",
			Help:      "Archived rows removed by bulk clears.",
		}),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests, by method, route and status.",
		}, []string{"method", "route", "status"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency, by method and route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}
	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.jobsCreated,
		m.jobsFinished,
		m.jobsPromoted,
		m.achievement,
		m.archiveCleared,
		m.requests,
		m.requestDuration,
	)
	return m
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) JobCreated(machine string, stage models.Stage) {
	m.jobsCreated.WithLabelValues(machine, string(stage)).Inc()
}

func (m *Metrics) JobFinished(machine string, achievement float64) {
	m.jobsFinished.WithLabelValues(machine).Inc()
	m.achievement.WithLabelValues(machine).Observe(achievement)
}

func (m *Metrics) JobPromoted(machine string) {
	m.jobsPromoted.WithLabelValues(machine).Inc()
}

func (m *Metrics) ArchiveCleared(n int64) {
	m.archiveCleared.Add(float64(n))
}

// ObserveRequest records one served HTTP request. route is the matched
// pattern, not the raw path.
func (m *Metrics) ObserveRequest(method, route string, status int, elapsed time.Duration) {
	m.requests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.requestDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

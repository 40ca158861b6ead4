// Package metrics provides Prometheus observability for the poll cycle.
// Metrics are registered automatically via promauto; components record into
// the shared vectors using their source name as the label.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// PollsTotal counts completed poll cycles.
	// Labels: source, outcome (success/skip/failure)
	PollsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "siphon_polls_total",
			Help: "Total number of poll cycles",
		},
		[]string{"source", "outcome"},
	)

	// RecordsPolled counts records produced by poll cycles.
	// Labels: source, topic
	RecordsPolled = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "siphon_records_polled_total",
			Help: "Total number of records produced",
		},
		[]string{"source", "topic"},
	)

	// PollDuration tracks the distribution of poll cycle durations.
	// Labels: source
	PollDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "siphon_poll_duration_seconds",
			Help:    "Poll cycle duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"source"},
	)

	// HTTPRequestDuration tracks the HTTP round trip duration.
	// Labels: method, host, status
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "siphon_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "host", "status"},
	)

	// HTTPRequestsFailed counts failed HTTP round trips.
	// Labels: method, host
	HTTPRequestsFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "siphon_http_requests_failed_total",
			Help: "Total number of failed HTTP requests",
		},
		[]string{"method", "host"},
	)

	// OffsetCommits counts offset checkpoint writes by the runner.
	// Labels: source
	OffsetCommits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "siphon_offset_commits_total",
			Help: "Total number of offset checkpoint writes",
		},
		[]string{"source"},
	)
)

// Timer measures one operation duration into a histogram observer
type Timer struct {
	start    time.Time
	observer prometheus.Observer
}

// NewTimer starts timing against the given observer
func NewTimer(observer prometheus.Observer) *Timer {
	return &Timer{start: time.Now(), observer: observer}
}

// Stop records the elapsed time and returns it
func (t *Timer) Stop() time.Duration {
	d := time.Since(t.start)
	t.observer.Observe(d.Seconds())
	return d
}

// Package metrics exposes Prometheus instrumentation for the job
// supervisor and the log broadcaster. All Metrics methods are nil-receiver
// safe so instrumentation stays optional for tests and the CLI path.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the dlnode collectors on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	jobsStarted    prometheus.Counter
	jobsFinished   prometheus.Counter
	stopRequests   prometheus.Counter
	jobRunning     prometheus.Gauge
	linesBroadcast prometheus.Counter
	logSubscribers prometheus.Gauge
}

// New creates the collectors and registers them on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		jobsStarted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "dlnode_jobs_started_total",
			Help: "Number of jobs successfully spawned.",
		}),
		jobsFinished: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "dlnode_jobs_finished_total",
			Help: "Number of jobs that exited and were reaped.",
		}),
		stopRequests: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "dlnode_stop_requests_total",
			Help: "Number of stop requests that signalled a running job.",
		}),
		jobRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "dlnode_job_running",
			Help: "1 while a job occupies the slot, 0 when idle.",
		}),
		linesBroadcast: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "dlnode_log_lines_total",
			Help: "Output lines broadcast to the log bus.",
		}),
		logSubscribers: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "dlnode_log_subscribers",
			Help: "Currently connected log stream subscribers.",
		}),
	}

	m.registry.MustRegister(
		m.jobsStarted,
		m.jobsFinished,
		m.stopRequests,
		m.jobRunning,
		m.linesBroadcast,
		m.logSubscribers,
	)

	return m
}

// Handler returns the HTTP handler serving the registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// JobStarted records a successful spawn and marks the slot busy.
func (m *Metrics) JobStarted() {
	if m == nil {
		return
	}
	m.jobsStarted.Inc()
	m.jobRunning.Set(1)
}

// JobFinished records a reaped job and marks the slot idle.
func (m *Metrics) JobFinished() {
	if m == nil {
		return
	}
	m.jobsFinished.Inc()
	m.jobRunning.Set(0)
}

// StopRequested records a stop request delivered to a running job.
func (m *Metrics) StopRequested() {
	if m == nil {
		return
	}
	m.stopRequests.Inc()
}

// LineBroadcast records one line pushed to the log bus.
func (m *Metrics) LineBroadcast() {
	if m == nil {
		return
	}
	m.linesBroadcast.Inc()
}

// SubscriberConnected tracks a log stream viewer attaching.
func (m *Metrics) SubscriberConnected() {
	if m == nil {
		return
	}
	m.logSubscribers.Inc()
}

// SubscriberDisconnected tracks a log stream viewer detaching.
func (m *Metrics) SubscriberDisconnected() {
	if m == nil {
		return
	}
	m.logSubscribers.Dec()
}

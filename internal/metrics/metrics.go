package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics groups all Prometheus instruments used across the pipeline.
// Registered once at startup via New(); passed by pointer wherever needed.
type Metrics struct {
	QueueDepth            *prometheus.GaugeVec
	AssignmentsSent       *prometheus.CounterVec
	AssignmentFailures    *prometheus.CounterVec
	AssignmentLatency     prometheus.Histogram
	ComplaintsDiscarded   *prometheus.CounterVec
	DeadLettered          *prometheus.CounterVec
	ComplaintsPromoted    prometheus.Counter
	RegistrationsEnqueued *prometheus.CounterVec
}

// New registers all instruments with the given Prometheus registerer.
// Using a custom registry keeps tests isolated and avoids global state.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		QueueDepth: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "grievance_queue_depth",
			Help: "Current number of items in each queue.",
		}, []string{"queue"}),

		AssignmentsSent: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "grievance_assignments_sent_total",
			Help: "Complaints acknowledged by the assignment service.",
		}, []string{"municipality"}),

		AssignmentFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "grievance_assignment_failures_total",
			Help: "Failed assignment calls (the complaint stays queued).",
		}, []string{"municipality"}),

		AssignmentLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "grievance_assignment_call_seconds",
			Help:    "Latency of the assignment HTTP call.",
			Buckets: prometheus.DefBuckets,
		}),

		ComplaintsDiscarded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "grievance_complaints_discarded_total",
			Help: "Complaints removed from the processed queue without assignment.",
		}, []string{"reason"}),

		DeadLettered: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "grievance_dead_lettered_total",
			Help: "Entries relocated to a dead-letter or redirect list.",
		}, []string{"queue"}),

		ComplaintsPromoted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "grievance_complaints_promoted_total",
			Help: "Complaints moved from registration to the processed queue.",
		}),

		RegistrationsEnqueued: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "grievance_registrations_enqueued_total",
			Help: "Records pushed onto a registration queue by the intake API.",
		}, []string{"queue"}),
	}

	reg.MustRegister(
		m.QueueDepth,
		m.AssignmentsSent,
		m.AssignmentFailures,
		m.AssignmentLatency,
		m.ComplaintsDiscarded,
		m.DeadLettered,
		m.ComplaintsPromoted,
		m.RegistrationsEnqueued,
	)

	return m
}

// AssignmentHooks returns the metric callbacks expected by worker.Hooks.
// Centralises the prometheus calls so the worker stays metrics-agnostic.
func (m *Metrics) AssignmentHooks() (
	onSent func(municipality string, latency time.Duration),
	onFailed func(municipality string, latency time.Duration),
	onDiscarded func(reason string),
	onDeadLettered func(queue string),
) {
	onSent = func(municipality string, latency time.Duration) {
		m.AssignmentsSent.WithLabelValues(municipality).Inc()
		m.AssignmentLatency.Observe(latency.Seconds())
	}
	onFailed = func(municipality string, latency time.Duration) {
		m.AssignmentFailures.WithLabelValues(municipality).Inc()
		m.AssignmentLatency.Observe(latency.Seconds())
	}
	onDiscarded = func(reason string) {
		m.ComplaintsDiscarded.WithLabelValues(reason).Inc()
	}
	onDeadLettered = func(queue string) {
		m.DeadLettered.WithLabelValues(queue).Inc()
	}
	return
}

// SetQueueDepth records a sampled queue length.
func (m *Metrics) SetQueueDepth(queue string, n int64) {
	m.QueueDepth.WithLabelValues(queue).Set(float64(n))
}

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics groups all Prometheus instruments used across the application.
// Registered once at startup via New(); passed by pointer wherever needed.
type Metrics struct {
	JobsProcessed     *prometheus.CounterVec
	JobsFailed        *prometheus.CounterVec
	JobLatency        *prometheus.HistogramVec
	QueueDepth        *prometheus.GaugeVec
	ChannelDeliveries *prometheus.CounterVec
	EmailSendSeconds  prometheus.Histogram
}

// New registers all instruments with the given Prometheus registerer and
// returns the populated Metrics struct.
// Using a custom registry (instead of prometheus.DefaultRegisterer) keeps
// tests isolated and avoids global state.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		JobsProcessed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "jobs_processed_total",
			Help: "Total number of successfully processed jobs.",
		}, []string{"queue"}),

		JobsFailed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "jobs_failed_total",
			Help: "Total number of failed processing attempts (including retried ones).",
		}, []string{"queue"}),

		JobLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "job_processing_seconds",
			Help:    "Processing latency from claim to acknowledge.",
			Buckets: prometheus.DefBuckets,
		}, []string{"queue"}),

		QueueDepth: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "queue_depth",
			Help: "Current number of pending jobs per queue.",
		}, []string{"queue"}),

		ChannelDeliveries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "notification_channel_deliveries_total",
			Help: "Deliveries per notification channel (in_app, email, sms).",
		}, []string{"channel"}),

		EmailSendSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "email_send_seconds",
			Help:    "Latency of outbound email transport sends.",
			Buckets: prometheus.DefBuckets,
		}),
	}

	reg.MustRegister(
		m.JobsProcessed,
		m.JobsFailed,
		m.JobLatency,
		m.QueueDepth,
		m.ChannelDeliveries,
		m.EmailSendSeconds,
	)

	return m
}

// PoolHooks returns the callbacks expected by worker.MetricHooks.
// Centralises the prometheus observation calls so the worker pool stays
// metrics-agnostic.
func (m *Metrics) PoolHooks() (
	onProcessed func(queueName string, latency time.Duration),
	onFailed func(queueName string),
) {
	onProcessed = func(queueName string, latency time.Duration) {
		m.JobsProcessed.WithLabelValues(queueName).Inc()
		m.JobLatency.WithLabelValues(queueName).Observe(latency.Seconds())
	}
	onFailed = func(queueName string) {
		m.JobsFailed.WithLabelValues(queueName).Inc()
	}
	return
}

// ChannelHook returns the per-channel delivery callback for the
// notification handler.
func (m *Metrics) ChannelHook() func(channel string) {
	return func(channel string) {
		m.ChannelDeliveries.WithLabelValues(channel).Inc()
	}
}

// EmailSentHook returns the latency observer for the email handler.
func (m *Metrics) EmailSentHook() func(latency time.Duration) {
	return func(latency time.Duration) {
		m.EmailSendSeconds.Observe(latency.Seconds())
	}
}

// SetQueueDepths records a depth snapshot, typically on a periodic tick.
func (m *Metrics) SetQueueDepths(depths map[string]int) {
	for queueName, n := range depths {
		m.QueueDepth.WithLabelValues(queueName).Set(float64(n))
	}
}

package prometheus

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/giellatekno/fstq-go/core/lookup"
	"github.com/giellatekno/fstq-go/core/metrics"
)

// lookupMetrics implements lookup.Metrics using Prometheus.
type lookupMetrics struct {
	queueDepth     prometheus.Gauge
	entryWait      prometheus.Histogram
	queueWait      prometheus.Histogram
	lookupDuration prometheus.Histogram
	requestsTotal  prometheus.Counter
	abandonedTotal prometheus.Counter
}

// NewLookupMetrics creates a Prometheus implementation of lookup.Metrics and
// registers its collectors on reg.
func NewLookupMetrics(reg prometheus.Registerer) lookup.Metrics {
	m := &lookupMetrics{
		queueDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "fstq_lookup_queue_depth",
			Help: "Current mailbox depth of the lookup actor",
		}),

		entryWait: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "fstq_lookup_entry_wait_seconds",
			Help:    "Time submissions spent blocked on a full mailbox",
			Buckets: defaultBuckets,
		}),

		queueWait: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "fstq_lookup_queue_wait_seconds",
			Help:    "Derived time requests spent queued before processing",
			Buckets: defaultBuckets,
		}),

		lookupDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "fstq_lookup_duration_seconds",
			Help:    "Engine lookup call duration",
			Buckets: defaultBuckets,
		}),

		requestsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "fstq_lookup_requests_total",
			Help: "Total number of requests whose reply reached the caller",
		}),

		abandonedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "fstq_lookup_replies_abandoned_total",
			Help: "Total number of replies whose caller had given up waiting",
		}),
	}

	reg.MustRegister(
		m.queueDepth,
		m.entryWait,
		m.queueWait,
		m.lookupDuration,
		m.requestsTotal,
		m.abandonedTotal,
	)

	return m
}

func (m *lookupMetrics) QueueDepth(depth int) {
	m.queueDepth.Set(float64(depth))
}

func (m *lookupMetrics) EntryWait(d time.Duration) {
	m.entryWait.Observe(d.Seconds())
}

func (m *lookupMetrics) QueueWait(d time.Duration) {
	m.queueWait.Observe(d.Seconds())
}

func (m *lookupMetrics) LookupDuration() metrics.Timer {
	return newTimer(m.lookupDuration)
}

func (m *lookupMetrics) RequestDone() {
	m.requestsTotal.Inc()
}

func (m *lookupMetrics) ReplyAbandoned() {
	m.abandonedTotal.Inc()
}

var _ lookup.Metrics = (*lookupMetrics)(nil)

// Package metrics holds the small instrumentation interfaces the core
// packages emit against, so that a Prometheus (or any other) backend can be
// plugged in from adapters/ without the core importing it.
package metrics

// Counter is a monotonically increasing metric.
type Counter interface {
	// Inc increments the counter by 1.
	Inc()
}

// Gauge is a metric that can go up and down.
type Gauge interface {
	// Set sets the gauge to value.
	Set(value float64)
}

// Histogram samples observations, e.g. wait durations in seconds.
type Histogram interface {
	// Observe adds a single observation.
	Observe(value float64)
}

// Timer measures the duration of one operation. Call ObserveDuration when
// the operation completes to record the elapsed time:
//
//	defer m.LookupDuration().ObserveDuration()
type Timer interface {
	ObserveDuration()
}

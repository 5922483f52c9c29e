package metrics

type nopCounter struct{}

func (nopCounter) Inc() {}

type nopGauge struct{}

func (nopGauge) Set(float64) {}

type nopHistogram struct{}

func (nopHistogram) Observe(float64) {}

type nopTimer struct{}

func (nopTimer) ObserveDuration() {}

// NopCounter returns a no-op Counter.
func NopCounter() Counter { return nopCounter{} }

// NopGauge returns a no-op Gauge.
func NopGauge() Gauge { return nopGauge{} }

// NopHistogram returns a no-op Histogram.
func NopHistogram() Histogram { return nopHistogram{} }

// NopTimer returns a no-op Timer.
func NopTimer() Timer { return nopTimer{} }

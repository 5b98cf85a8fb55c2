package embedding

import "github.com/prometheus/client_golang/prometheus"

// Metrics holds the Prometheus collectors updated by a Service.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	CacheTotal        *prometheus.CounterVec
	LoadsTotal        *prometheus.CounterVec
	InferenceFailures prometheus.Counter
	InferenceDuration prometheus.Histogram
}

// NewMetrics creates unregistered collectors under the given namespace.
func NewMetrics(namespace string) *Metrics {
	return &Metrics{
		CacheTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "embedding_cache_total",
				Help:      "Embedding cache hits and misses",
			},
			[]string{"result"}, // "hit" / "miss"
		),
		LoadsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "embedding_encoder_loads_total",
				Help:      "Encoder load attempts",
			},
			[]string{"status"}, // "success" / "failure"
		),
		InferenceFailures: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "embedding_inference_failures_total",
				Help:      "Texts that degraded to a zero vector",
			},
		),
		InferenceDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "embedding_inference_duration_seconds",
				Help:      "Encoder call duration in seconds",
				Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
			},
		),
	}
}

// Collectors returns every collector, for registration.
func (m *Metrics) Collectors() []prometheus.Collector {
	return []prometheus.Collector{m.CacheTotal, m.LoadsTotal, m.InferenceFailures, m.InferenceDuration}
}

// Register registers every collector with reg.
func (m *Metrics) Register(reg prometheus.Registerer) error {
	for _, c := range m.Collectors() {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}

func (m *Metrics) cache(result string) {
	if m != nil {
		m.CacheTotal.WithLabelValues(result).Inc()
	}
}

func (m *Metrics) load(status string) {
	if m != nil {
		m.LoadsTotal.WithLabelValues(status).Inc()
	}
}

func (m *Metrics) failure(n int) {
	if m != nil && n > 0 {
		m.InferenceFailures.Add(float64(n))
	}
}

func (m *Metrics) observe(seconds float64) {
	if m != nil {
		m.InferenceDuration.Observe(seconds)
	}
}

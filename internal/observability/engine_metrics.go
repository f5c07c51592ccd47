package observability

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// EngineMetrics tracks answer composition. It satisfies empathy.Recorder.
type EngineMetrics struct {
	answers     *prometheus.CounterVec
	violations  *prometheus.CounterVec
	unresolved  prometheus.Counter
	buildTime   prometheus.Histogram
	cacheLookup *prometheus.CounterVec
}

var (
	defaultEngineMetrics     *EngineMetrics
	defaultEngineMetricsOnce sync.Once
)

// NewEngineMetrics builds an EngineMetrics recorder using the default registry.
func NewEngineMetrics() *EngineMetrics {
	defaultEngineMetricsOnce.Do(func() {
		defaultEngineMetrics = newEngineMetrics(prometheus.DefaultRegisterer)
	})
	return defaultEngineMetrics
}

// NewEngineMetricsWithRegisterer allows tests to provide a dedicated registry.
func NewEngineMetricsWithRegisterer(reg prometheus.Registerer) *EngineMetrics {
	return newEngineMetrics(reg)
}

func newEngineMetrics(reg prometheus.Registerer) *EngineMetrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)
	return &EngineMetrics{
		answers: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "soullab",
			Subsystem: "empathy",
			Name:      "answers_total",
			Help:      "Answers composed, by inferred topic, need and tempo",
		}, []string{"topic", "need", "tempo"}),
		violations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "soullab",
			Subsystem: "empathy",
			Name:      "belief_violations_total",
			Help:      "Disallowed belief-system terms detected, by where they were found",
		}, []string{"source"}),
		unresolved: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "soullab",
			Subsystem: "empathy",
			Name:      "unresolved_placeholders_total",
			Help:      "Placeholders left verbatim because no value or default existed",
		}),
		buildTime: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "soullab",
			Subsystem: "empathy",
			Name:      "build_seconds",
			Help:      "Time spent composing a single answer",
			Buckets:   []float64{0.0001, 0.00025, 0.0005, 0.001, 0.0025, 0.005, 0.01, 0.05},
		}),
		cacheLookup: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "soullab",
			Name:      "answer_cache_total",
			Help:      "Answer cache lookups by result",
		}, []string{"result"}),
	}
}

// RecordAnswer counts one composed answer and observes its build time.
func (m *EngineMetrics) RecordAnswer(topic, need, tempo string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.answers.WithLabelValues(topic, need, tempo).Inc()
	m.buildTime.Observe(elapsed.Seconds())
}

// RecordBeliefViolations adds count violations found in source.
func (m *EngineMetrics) RecordBeliefViolations(source string, count int) {
	if m == nil || count <= 0 {
		return
	}
	m.violations.WithLabelValues(source).Add(float64(count))
}

// RecordUnresolvedPlaceholders adds count unresolved placeholders.
func (m *EngineMetrics) RecordUnresolvedPlaceholders(count int) {
	if m == nil || count <= 0 {
		return
	}
	m.unresolved.Add(float64(count))
}

// CacheLookups exposes the cache counter for result ("hit" or "miss").
func (m *EngineMetrics) CacheLookups(result string) prometheus.Counter {
	return m.cacheLookup.WithLabelValues(result)
}

// RecordCacheLookup counts an answer cache hit or miss.
func (m *EngineMetrics) RecordCacheLookup(hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.cacheLookup.WithLabelValues(result).Inc()
}

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Option configures a Manager.
type Option func(*Manager)

// WithNamespace sets the metric namespace. Empty keeps "bingo".
func WithNamespace(namespace string) Option {
	return func(m *Manager) {
		if namespace != "" {
			m.namespace = namespace
		}
	}
}

// WithSubsystem sets the metric subsystem. Empty keeps "boards".
func WithSubsystem(subsystem string) Option {
	return func(m *Manager) {
		if subsystem != "" {
			m.subsystem = subsystem
		}
	}
}

// WithLatencyBuckets sets the millisecond buckets shared by the generation,
// history and HTTP latency histograms.
func WithLatencyBuckets(buckets []float64) Option {
	return func(m *Manager) {
		if len(buckets) > 0 {
			m.latencyBuckets = buckets
		}
	}
}

// WithDrawBuckets sets the buckets of the per-board draw attempts histogram.
func WithDrawBuckets(buckets []float64) Option {
	return func(m *Manager) {
		if len(buckets) > 0 {
			m.drawBuckets = buckets
		}
	}
}

// WithEnabled switches event recording on or off. Gauges are always set.
func WithEnabled(enabled bool) Option {
	return func(m *Manager) {
		m.enabled = enabled
	}
}

// WithSystemInterval sets how often StartSystemCollector samples the runtime.
func WithSystemInterval(interval time.Duration) Option {
	return func(m *Manager) {
		if interval > 0 {
			m.systemInterval = interval
		}
	}
}

// WithConstLabels attaches constant labels, such as an instance name, to
// every metric.
func WithConstLabels(labels map[string]string) Option {
	return func(m *Manager) {
		if labels != nil {
			m.constLabels = labels
		}
	}
}

// WithNamePrefix prefixes every metric name after the subsystem.
func WithNamePrefix(prefix string) Option {
	return func(m *Manager) {
		if prefix != "" {
			m.namePrefix = prefix
		}
	}
}

// WithRegisterer registers metrics on reg instead of the default registerer.
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(m *Manager) {
		if reg != nil {
			m.registry = reg
		}
	}
}

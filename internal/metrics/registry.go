package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	// Default is the process-wide metrics instance, shared by every
	// orchestrator that is not given an explicit registry.
	Default *Metrics
	once    sync.Once
)

// InitDefault registers the pipeline metrics on the global Prometheus
// registerer. Call once at startup.
func InitDefault() *Metrics {
	once.Do(func() {
		Default = NewMetrics(prometheus.DefaultRegisterer)
	})
	return Default
}

// GetDefault returns the default metrics instance, initializing it on first
// use.
func GetDefault() *Metrics {
	if Default == nil {
		return InitDefault()
	}
	return Default
}

// NewRegistry creates an isolated registry with its own pipeline metrics.
// Tests use this to assert on counters without touching global state.
func NewRegistry() (*prometheus.Registry, *Metrics) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)
	return reg, m
}

// Reset clears the default metrics instance so a test can re-register.
func Reset() {
	Default = nil
	once = sync.Once{}
}

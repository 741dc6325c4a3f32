// Package metrics provides the dependency-free public surface for
// instrumentation. Concrete Prometheus collectors live in pkg/metrics/prometheus
// and register themselves into this package via constructor indirection, so
// that pkg/upload never imports prometheus directly.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	mu       sync.RWMutex
	registry *prometheus.Registry
)

// InitRegistry enables metrics collection and creates the process-wide
// registry. Calling this before constructing any store wires instrumentation
// through; skipping it keeps every component at zero overhead.
func InitRegistry() *prometheus.Registry {
	mu.Lock()
	defer mu.Unlock()
	if registry == nil {
		registry = prometheus.NewRegistry()
	}
	return registry
}

// IsEnabled reports whether InitRegistry has been called.
func IsEnabled() bool {
	mu.RLock()
	defer mu.RUnlock()
	return registry != nil
}

// GetRegistry returns the active registry, or nil if metrics are disabled.
func GetRegistry() *prometheus.Registry {
	mu.RLock()
	defer mu.RUnlock()
	return registry
}

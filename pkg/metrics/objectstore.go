package metrics

import (
	"time"

	"github.com/reelverse/upload-service/pkg/upload/objectstore"
)

// NewObjectStoreMetrics returns a Prometheus-backed objectstore.Metrics
// instance, or nil when InitRegistry has not been called. A nil Metrics
// results in zero overhead at every call site.
func NewObjectStoreMetrics() objectstore.Metrics {
	if !IsEnabled() {
		return nil
	}
	return newPrometheusObjectStoreMetrics()
}

// newPrometheusObjectStoreMetrics is implemented in
// pkg/metrics/prometheus/objectstore.go. The indirection avoids an import
// cycle: prometheus registration needs this package's registry, and this
// package must stay free of a direct prometheus import.
var newPrometheusObjectStoreMetrics func() objectstore.Metrics

// RegisterObjectStoreMetricsConstructor is called by
// pkg/metrics/prometheus/objectstore.go during package initialization.
func RegisterObjectStoreMetricsConstructor(constructor func() objectstore.Metrics) {
	newPrometheusObjectStoreMetrics = constructor
}

// ObserveOperation is a nil-safe convenience wrapper for callers that hold an
// objectstore.Metrics by interface value.
func ObserveOperation(m objectstore.Metrics, operation string, duration time.Duration, err error) {
	if m != nil {
		m.ObserveOperation(operation, duration, err)
	}
}

// RecordBytes is a nil-safe convenience wrapper mirroring ObserveOperation.
func RecordBytes(m objectstore.Metrics, operation string, bytes int64) {
	if m != nil {
		m.RecordBytes(operation, bytes)
	}
}

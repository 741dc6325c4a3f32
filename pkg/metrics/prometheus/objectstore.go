package prometheus

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/reelverse/upload-service/pkg/metrics"
	"github.com/reelverse/upload-service/pkg/upload/objectstore"
)

// objectStoreMetrics is the Prometheus implementation of objectstore.Metrics.
type objectStoreMetrics struct {
	operationsTotal   *prometheus.CounterVec
	operationDuration *prometheus.HistogramVec
	bytesTransferred  *prometheus.CounterVec
}

func init() {
	metrics.RegisterObjectStoreMetricsConstructor(newObjectStoreMetrics)
}

// newObjectStoreMetrics creates a new Prometheus-backed objectstore.Metrics
// instance. Returns nil if metrics are not enabled.
func newObjectStoreMetrics() objectstore.Metrics {
	if !metrics.IsEnabled() {
		return nil
	}

	reg := metrics.GetRegistry()

	return &objectStoreMetrics{
		operationsTotal: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "upload_objectstore_operations_total",
				Help: "Total number of object store operations by operation type and status",
			},
			[]string{"operation", "status"},
		),
		operationDuration: promauto.With(reg).NewHistogramVec(
			prometheus.HistogramOpts{
				Name: "upload_objectstore_operation_duration_milliseconds",
				Help: "Duration of object store operations in milliseconds",
				Buckets: []float64{
					10, 50, 100, 500, 1000, 5000, 10000, 30000,
				},
			},
			[]string{"operation"},
		),
		bytesTransferred: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "upload_objectstore_bytes_transferred_total",
				Help: "Total bytes transferred via object store operations",
			},
			[]string{"operation"},
		),
	}
}

func (m *objectStoreMetrics) ObserveOperation(operation string, duration time.Duration, err error) {
	if m == nil {
		return
	}
	status := "success"
	if err != nil {
		status = "error"
	}
	m.operationsTotal.WithLabelValues(operation, status).Inc()
	m.operationDuration.WithLabelValues(operation).Observe(duration.Seconds() * 1000)
}

func (m *objectStoreMetrics) RecordBytes(operation string, bytes int64) {
	if m == nil || bytes <= 0 {
		return
	}
	m.bytesTransferred.WithLabelValues(operation).Add(float64(bytes))
}

// Package telemetry exposes the prometheus/client_golang counters, gauges,
// and histograms the façade updates as it serves requests: storage,
// operation, and bucket gauges and histograms, plus replication and event
// dispatch counters. There is no HTTP layer in this module, so there are
// no request-size histograms to record.
package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Storage metrics.
var (
	StorageBytesStored = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "storagecore_storage_bytes_stored",
		Help: "Total bytes stored across all buckets",
	})

	StorageObjectsTotal = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "storagecore_storage_objects_total",
		Help: "Total number of object versions stored",
	})

	StorageBucketsTotal = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "storagecore_storage_buckets_total",
		Help: "Total number of buckets",
	})
)

// Operation metrics.
var (
	OperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "storagecore_operation_duration_seconds",
			Help:    "Façade operation duration in seconds",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"operation", "status"},
	)

	OperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storagecore_operations_total",
			Help: "Total number of façade operations",
		},
		[]string{"operation", "status"},
	)
)

// Bucket metrics.
var (
	BucketObjects = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "storagecore_bucket_objects",
			Help: "Number of current objects in a bucket",
		},
		[]string{"bucket"},
	)

	BucketBytes = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "storagecore_bucket_bytes",
			Help: "Bytes stored in a bucket",
		},
		[]string{"bucket"},
	)
)

// Replication metrics.
var (
	ReplicationQueueDepth = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "storagecore_replication_queue_depth",
		Help: "Number of replication tasks waiting to be drained",
	})

	ReplicationTasksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storagecore_replication_tasks_total",
			Help: "Total replication tasks processed by outcome",
		},
		[]string{"status"},
	)
)

// Event dispatch metrics.
var (
	EventsDispatchedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storagecore_events_dispatched_total",
			Help: "Total events handed off to a notification sink",
		},
		[]string{"sinkKind", "status"},
	)

	EventsQueueDropsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "storagecore_events_queue_drops_total",
			Help: "Total events dropped from a full queue sink",
		},
	)
)

// IncStorageBytes increments total bytes stored.
func IncStorageBytes(bytes int64) { StorageBytesStored.Add(float64(bytes)) }

// DecStorageBytes decrements total bytes stored.
func DecStorageBytes(bytes int64) { StorageBytesStored.Sub(float64(bytes)) }

// IncStorageObjects increments the total object-version count.
func IncStorageObjects() { StorageObjectsTotal.Inc() }

// DecStorageObjects decrements the total object-version count.
func DecStorageObjects() { StorageObjectsTotal.Dec() }

// SetStorageBuckets sets the total bucket count.
func SetStorageBuckets(count int64) { StorageBucketsTotal.Set(float64(count)) }

// IncBucketObjects increments a bucket's current object count.
func IncBucketObjects(bucket string) { BucketObjects.WithLabelValues(bucket).Inc() }

// DecBucketObjects decrements a bucket's current object count.
func DecBucketObjects(bucket string) { BucketObjects.WithLabelValues(bucket).Dec() }

// IncBucketBytes adds to a bucket's byte total.
func IncBucketBytes(bucket string, bytes int64) { BucketBytes.WithLabelValues(bucket).Add(float64(bytes)) }

// DecBucketBytes subtracts from a bucket's byte total.
func DecBucketBytes(bucket string, bytes int64) { BucketBytes.WithLabelValues(bucket).Sub(float64(bytes)) }

// DeleteBucketMetrics removes a deleted bucket's per-bucket label series.
func DeleteBucketMetrics(bucket string) {
	BucketObjects.DeleteLabelValues(bucket)
	BucketBytes.DeleteLabelValues(bucket)
}

// ObserveOperation records an operation's outcome and duration in one call.
func ObserveOperation(operation, status string, seconds float64) {
	OperationsTotal.WithLabelValues(operation, status).Inc()
	OperationDuration.WithLabelValues(operation, status).Observe(seconds)
}

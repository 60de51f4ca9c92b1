package s3

import (
	"sync"
	"time"
)

// BackendMetrics is a snapshot of one driver's request statistics.
type BackendMetrics struct {
	Requests        int64         `json:"requests"`
	Errors          int64         `json:"errors"`
	BytesUploaded   int64         `json:"bytes_uploaded"`
	BytesDownloaded int64         `json:"bytes_downloaded"`
	AverageLatency  time.Duration `json:"average_latency"`
	LastError       string        `json:"last_error"`
	LastErrorTime   time.Time     `json:"last_error_time"`

	// Accelerated (CargoShip) uploads
	AcceleratedUploads int64 `json:"accelerated_uploads"`
	AcceleratedBytes   int64 `json:"accelerated_bytes"`

	// Objects removed by Clear, and those S3 refused to remove
	ClearedObjects int64 `json:"cleared_objects"`
	FailedDeletes  int64 `json:"failed_deletes"`
}

// MetricsCollector aggregates BackendMetrics for a driver.
type MetricsCollector struct {
	mu      sync.RWMutex
	metrics BackendMetrics
}

// NewMetricsCollector creates a new metrics collector
func NewMetricsCollector() *MetricsCollector {
	return &MetricsCollector{}
}

// RecordMetrics records operation metrics with duration and error status
func (mc *MetricsCollector) RecordMetrics(duration time.Duration, isError bool) {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	mc.metrics.Requests++
	if isError {
		mc.metrics.Errors++
	}

	if mc.metrics.Requests == 1 {
		mc.metrics.AverageLatency = duration
	} else {
		mc.metrics.AverageLatency = time.Duration(
			(int64(mc.metrics.AverageLatency)*9 + int64(duration)) / 10,
		)
	}
}

// RecordError records an error occurrence
func (mc *MetricsCollector) RecordError(err error) {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	mc.metrics.LastError = err.Error()
	mc.metrics.LastErrorTime = time.Now()
}

// RecordBytesUploaded records uploaded bytes
func (mc *MetricsCollector) RecordBytesUploaded(bytes int64) {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	mc.metrics.BytesUploaded += bytes
}

// RecordBytesDownloaded records downloaded bytes
func (mc *MetricsCollector) RecordBytesDownloaded(bytes int64) {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	mc.metrics.BytesDownloaded += bytes
}

// RecordAcceleratedUpload records a value written through the CargoShip transporter.
func (mc *MetricsCollector) RecordAcceleratedUpload(bytes int64) {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	mc.metrics.AcceleratedUploads++
	mc.metrics.AcceleratedBytes += bytes
}

// RecordClear records the outcome of one DeleteObjects batch.
func (mc *MetricsCollector) RecordClear(deleted, failed int) {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	mc.metrics.ClearedObjects += int64(deleted)
	mc.metrics.FailedDeletes += int64(failed)
}

// GetMetrics returns current backend metrics
func (mc *MetricsCollector) GetMetrics() BackendMetrics {
	mc.mu.RLock()
	defer mc.mu.RUnlock()
	return mc.metrics
}

// GetErrorRate calculates the current error rate
func (mc *MetricsCollector) GetErrorRate() float64 {
	mc.mu.RLock()
	defer mc.mu.RUnlock()

	if mc.metrics.Requests == 0 {
		return 0
	}

	return float64(mc.metrics.Errors) / float64(mc.metrics.Requests)
}

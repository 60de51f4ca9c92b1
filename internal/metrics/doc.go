/*
Package metrics exports s3kv driver activity as Prometheus metrics.

# Overview

Collector implements types.OperationRecorder. The S3 driver reports every
operation to it (name, duration, value size, outcome) and every failure with
its error. The collector keeps a private Prometheus registry, so several
drivers in one process never collide on registration.

	┌─────────────┐
	│  Collector  │
	└──────┬──────┘
	       │
	   ┌───┴────────────────────────────┐
	   │                                │
	┌──▼───────────┐         ┌──────────▼──────────┐
	│  Prometheus  │         │  HTTP Endpoints     │
	│   Registry   │         │  /metrics           │
	│              │         │  /health            │
	│ - Counters   │         │  /debug/operations  │
	│ - Histograms │         └─────────────────────┘
	└──────────────┘

# Metrics

	<ns>_operations_total{operation,status}       counter
	<ns>_operation_duration_seconds{operation}    histogram, 1ms to ~16s
	<ns>_operation_size_bytes{operation}          histogram, 1KB to ~512MB
	<ns>_errors_total{operation,type}             counter

The error type label is the lower-cased error code (for example
"access_denied" or "partial_delete") when the error carries one, and a coarse
class derived from the message otherwise.

# Usage

	collector, err := metrics.NewCollector(&metrics.Config{
		Enabled:   true,
		Port:      9100,
		Path:      "/metrics",
		Namespace: "s3kv",
	})
	driver, err := s3.New(ctx, opts, s3.WithRecorder(collector))
	_ = collector.Start(ctx)
	defer collector.Stop(ctx)

A disabled collector accepts every call and records nothing.
*/
package metrics

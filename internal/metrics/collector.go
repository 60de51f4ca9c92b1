package metrics

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/objectfs/s3kv/pkg/errors"
	"github.com/objectfs/s3kv/pkg/types"
)

var _ types.OperationRecorder = (*Collector)(nil)

// Collector exports driver operations as Prometheus metrics.
type Collector struct {
	mu       sync.RWMutex
	config   *Config
	registry *prometheus.Registry
	logger   *slog.Logger

	// Prometheus metrics
	operationCounter  *prometheus.CounterVec
	operationDuration *prometheus.HistogramVec
	operationSize     *prometheus.HistogramVec
	errorCounter      *prometheus.CounterVec

	// Internal tracking
	operations map[string]*OperationMetrics
	lastReset  time.Time

	// HTTP server for metrics endpoint
	server *http.Server
}

// Config represents metrics configuration
type Config struct {
	Enabled   bool              `yaml:"enabled"`
	Port      int               `yaml:"port"`
	Path      string            `yaml:"path"`
	Labels    map[string]string `yaml:"labels"`
	Namespace string            `yaml:"namespace"`
	Subsystem string            `yaml:"subsystem"`
}

// NewDefaultConfig returns the configuration used when none is supplied.
func NewDefaultConfig() *Config {
	return &Config{
		Enabled:   true,
		Port:      8080,
		Path:      "/metrics",
		Namespace: "s3kv",
		Labels:    make(map[string]string),
	}
}

// OperationMetrics tracks metrics for a specific operation type
type OperationMetrics struct {
	Count         int64         `json:"count"`
	TotalDuration time.Duration `json:"total_duration"`
	TotalSize     int64         `json:"total_size"`
	Errors        int64         `json:"errors"`
	LastOperation time.Time     `json:"last_operation"`
	AvgDuration   time.Duration `json:"avg_duration"`
	AvgSize       float64       `json:"avg_size"`
}

// NewCollector creates a new metrics collector
func NewCollector(config *Config) (*Collector, error) {
	if config == nil {
		config = NewDefaultConfig()
	}

	collector := &Collector{
		config:     config,
		logger:     slog.Default().With("component", "metrics"),
		operations: make(map[string]*OperationMetrics),
		lastReset:  time.Now(),
	}
	if !config.Enabled {
		return collector, nil
	}

	collector.registry = prometheus.NewRegistry()
	collector.initMetrics()

	if err := collector.registerMetrics(); err != nil {
		return nil, fmt.Errorf("failed to register metrics: %w", err)
	}

	return collector, nil
}

// Handler serves the collector's registry in the Prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	if !c.config.Enabled {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	})
}

// Start starts the metrics HTTP server in the background.
func (c *Collector) Start(ctx context.Context) error {
	if !c.config.Enabled {
		return nil
	}

	mux := http.NewServeMux()
	mux.Handle(c.config.Path, c.Handler())
	mux.HandleFunc("/health", c.healthHandler)
	mux.HandleFunc("/debug/operations", c.debugOperationsHandler)

	c.mu.Lock()
	c.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", c.config.Port),
		Handler:           mux,
		ReadHeaderTimeout: 30 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	server := c.server
	c.mu.Unlock()

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			c.logger.Error("Metrics server error", "addr", server.Addr, "error", err)
		}
	}()

	c.logger.Info("Metrics server started", "addr", server.Addr, "path", c.config.Path)
	return nil
}

// Stop stops the metrics HTTP server.
func (c *Collector) Stop(ctx context.Context) error {
	c.mu.Lock()
	server := c.server
	c.server = nil
	c.mu.Unlock()

	if server != nil {
		return server.Shutdown(ctx)
	}
	return nil
}

// RecordOperation records an operation with its metrics
func (c *Collector) RecordOperation(operation string, duration time.Duration, size int64, success bool) {
	if !c.config.Enabled {
		return
	}

	c.mu.Lock()
	metrics, exists := c.operations[operation]
	if !exists {
		metrics = &OperationMetrics{}
		c.operations[operation] = metrics
	}
	metrics.Count++
	metrics.TotalDuration += duration
	metrics.TotalSize += size
	if !success {
		metrics.Errors++
	}
	metrics.LastOperation = time.Now()
	metrics.AvgDuration = time.Duration(int64(metrics.TotalDuration) / metrics.Count)
	metrics.AvgSize = float64(metrics.TotalSize) / float64(metrics.Count)
	c.mu.Unlock()

	status := "success"
	if !success {
		status = "error"
	}
	c.operationCounter.With(prometheus.Labels{
		"operation": operation,
		"status":    status,
	}).Inc()
	c.operationDuration.With(prometheus.Labels{
		"operation": operation,
	}).Observe(duration.Seconds())

	if size > 0 {
		c.operationSize.With(prometheus.Labels{
			"operation": operation,
		}).Observe(float64(size))
	}
}

// RecordError records an error
func (c *Collector) RecordError(operation string, err error) {
	if !c.config.Enabled || err == nil {
		return
	}

	c.errorCounter.With(prometheus.Labels{
		"operation": operation,
		"type":      classifyError(err),
	}).Inc()
}

// GetOperations returns a copy of the per-operation statistics.
func (c *Collector) GetOperations() map[string]OperationMetrics {
	c.mu.RLock()
	defer c.mu.RUnlock()

	operations := make(map[string]OperationMetrics, len(c.operations))
	for k, v := range c.operations {
		operations[k] = *v
	}
	return operations
}

// ResetMetrics resets the per-operation statistics. Prometheus counters are untouched.
func (c *Collector) ResetMetrics() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.operations = make(map[string]*OperationMetrics)
	c.lastReset = time.Now()
}

func (c *Collector) initMetrics() {
	labels := prometheus.Labels(c.config.Labels)

	c.operationCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace:   c.config.Namespace,
			Subsystem:   c.config.Subsystem,
			Name:        "operations_total",
			Help:        "Total number of driver operations",
			ConstLabels: labels,
		},
		[]string{"operation", "status"},
	)

	c.operationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace:   c.config.Namespace,
			Subsystem:   c.config.Subsystem,
			Name:        "operation_duration_seconds",
			Help:        "Duration of driver operations in seconds",
			Buckets:     prometheus.ExponentialBuckets(0.001, 2, 15), // 1ms to ~16s
			ConstLabels: labels,
		},
		[]string{"operation"},
	)

	c.operationSize = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace:   c.config.Namespace,
			Subsystem:   c.config.Subsystem,
			Name:        "operation_size_bytes",
			Help:        "Size of values read or written in bytes",
			Buckets:     prometheus.ExponentialBuckets(1024, 2, 20), // 1KB to ~512MB
			ConstLabels: labels,
		},
		[]string{"operation"},
	)

	c.errorCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace:   c.config.Namespace,
			Subsystem:   c.config.Subsystem,
			Name:        "errors_total",
			Help:        "Total number of driver errors by type",
			ConstLabels: labels,
		},
		[]string{"operation", "type"},
	)
}

func (c *Collector) registerMetrics() error {
	metrics := []prometheus.Collector{
		c.operationCounter,
		c.operationDuration,
		c.operationSize,
		c.errorCounter,
	}

	for _, metric := range metrics {
		if err := c.registry.Register(metric); err != nil {
			return err
		}
	}

	return nil
}

// classifyError labels an error by its code, falling back to message heuristics
// for errors that did not come through the driver.
func classifyError(err error) string {
	if code := errors.CodeOf(err); code != errors.ErrCodeUnknownError {
		return strings.ToLower(string(code))
	}

	errStr := strings.ToLower(err.Error())
	switch {
	case strings.Contains(errStr, "timeout"):
		return "timeout"
	case strings.Contains(errStr, "connection"):
		return "connection"
	case strings.Contains(errStr, "not found"):
		return "not_found"
	case strings.Contains(errStr, "denied"), strings.Contains(errStr, "permission"):
		return "permission"
	case strings.Contains(errStr, "throttl"), strings.Contains(errStr, "slow down"):
		return "throttling"
	default:
		return "other"
	}
}

// HTTP handlers

func (c *Collector) healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"healthy","service":"s3kv-metrics"}`))
}

func (c *Collector) debugOperationsHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodDelete {
		c.ResetMetrics()
		w.WriteHeader(http.StatusNoContent)
		return
	}

	operations := c.GetOperations()

	c.mu.RLock()
	lastReset := c.lastReset
	c.mu.RUnlock()

	if r.URL.Query().Get("format") == "json" {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"uptime":     time.Since(lastReset).String(),
			"last_reset": lastReset,
			"operations": operations,
		})
		return
	}

	w.Header().Set("Content-Type", "text/plain")
	writef := func(format string, args ...interface{}) { _, _ = fmt.Fprintf(w, format, args...) }

	writef("s3kv Operations Summary\n")
	writef("=======================\n\n")
	writef("Uptime: %v\n", time.Since(lastReset))
	writef("Last Reset: %v\n\n", lastReset)

	if len(operations) == 0 {
		writef("No operations recorded.\n")
		return
	}

	names := make([]string, 0, len(operations))
	for name := range operations {
		names = append(names, name)
	}
	sort.Strings(names)

	writef("%-20s %10s %10s %12s %12s %10s\n",
		"Operation", "Count", "Errors", "Avg Duration", "Avg Size", "Last Op")
	writef("%-20s %10s %10s %12s %12s %10s\n",
		"----------", "-----", "------", "------------", "--------", "-------")

	for _, name := range names {
		op := operations[name]
		writef("%-20s %10d %10d %12v %12.0f %10s\n",
			name, op.Count, op.Errors, op.AvgDuration,
			op.AvgSize, op.LastOperation.Format("15:04:05"))
	}
}

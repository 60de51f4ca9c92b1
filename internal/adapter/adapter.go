package adapter

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"strconv"
	"strings"

	"go.uber.org/multierr"

	"github.com/objectfs/s3kv/internal/config"
	"github.com/objectfs/s3kv/internal/metrics"
	"github.com/objectfs/s3kv/internal/storage/s3"
	"github.com/objectfs/s3kv/pkg/errors"
	"github.com/objectfs/s3kv/pkg/utils"
)

const componentName = "adapter"

// Location is the part of the storage configuration carried by a storage URI.
type Location struct {
	Bucket         string
	Prefix         string
	Region         string
	Endpoint       string
	ForcePathStyle *bool
}

// Adapter owns a driver together with the logger and metrics collector it reports to.
type Adapter struct {
	storageURI string
	config     *config.Configuration

	logger    *slog.Logger
	logCloser io.Closer
	collector *metrics.Collector
	driver    *s3.Driver
}

// New creates a driver for storageURI, with cfg supplying everything the URI does not.
// Extra driver options are applied after the adapter's own.
func New(ctx context.Context, storageURI string, cfg *config.Configuration, options ...s3.Option) (*Adapter, error) {
	if cfg == nil {
		cfg = config.NewDefault()
	}

	loc, err := ParseStorageURI(storageURI)
	if err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	merged := *cfg
	merged.Storage = loc.apply(cfg.Storage)

	driverOpts, err := merged.DriverOptions()
	if err != nil {
		return nil, err
	}

	logger, closer, err := utils.OpenLogger(merged.Global.LogLevel, merged.Global.LogFormat, merged.Global.LogFile)
	if err != nil {
		return nil, errors.NewError(errors.ErrCodeInvalidConfig, "failed to set up logging").
			WithComponent(componentName).
			WithOperation("New").
			WithCause(err)
	}

	collector, err := metrics.NewCollector(merged.MetricsConfig())
	if err != nil {
		_ = closer.Close()
		return nil, errors.NewError(errors.ErrCodeInternalError, "failed to create metrics collector").
			WithComponent(componentName).
			WithOperation("New").
			WithCause(err)
	}

	all := append([]s3.Option{s3.WithLogger(logger), s3.WithRecorder(collector)}, options...)
	driver, err := s3.New(ctx, driverOpts, all...)
	if err != nil {
		_ = closer.Close()
		return nil, err
	}

	return &Adapter{
		storageURI: storageURI,
		config:     &merged,
		logger:     logger.With("component", componentName),
		logCloser:  closer,
		collector:  collector,
		driver:     driver,
	}, nil
}

// Driver returns the storage driver.
func (a *Adapter) Driver() *s3.Driver {
	return a.driver
}

// Collector returns the metrics collector the driver reports to.
func (a *Adapter) Collector() *metrics.Collector {
	return a.collector
}

// Config returns the effective configuration, storage URI applied.
func (a *Adapter) Config() *config.Configuration {
	return a.config
}

// Start checks that the bucket is reachable and starts the metrics server when enabled.
func (a *Adapter) Start(ctx context.Context) error {
	a.logger.Info("Starting s3kv adapter",
		"storage_uri", a.storageURI,
		"prefix", a.config.Storage.Prefix,
		"metrics", a.config.Monitoring.Metrics.Enabled)

	if err := a.driver.Ping(ctx); err != nil {
		a.logFailure("s3kv adapter failed to reach bucket", err)
		return err
	}

	if err := a.collector.Start(ctx); err != nil {
		startErr := errors.NewError(errors.ErrCodeInternalError, "failed to start metrics server").
			WithComponent(componentName).
			WithOperation("Start").
			WithCause(err)
		a.logFailure("s3kv adapter failed to start", startErr)
		return startErr
	}

	a.logger.Info("s3kv adapter started")
	return nil
}

// Stop disposes the driver, stops the metrics server and closes the log file.
// All three steps run; their errors are combined.
func (a *Adapter) Stop(ctx context.Context) error {
	a.logger.Info("Stopping s3kv adapter")

	err := multierr.Combine(
		a.driver.Dispose(ctx),
		a.collector.Stop(ctx),
	)
	if err == nil {
		a.logger.Info("s3kv adapter stopped")
	} else {
		for _, e := range multierr.Errors(err) {
			a.logFailure("s3kv adapter stopped with errors", e)
		}
	}

	return multierr.Append(err, a.logCloser.Close())
}

// logFailure logs err with its structured form and a recommendation when it carries a code.
func (a *Adapter) logFailure(msg string, err error) {
	var coded *errors.Error
	if !stderrors.As(err, &coded) {
		a.logger.Error(msg, "error", err)
		return
	}
	a.logger.Error(msg,
		"error", coded.String(),
		"recommendation", coded.GetRecommendation())
}

// ParseStorageURI parses s3://bucket[/prefix][?region=..&endpoint=..&force_path_style=..].
func ParseStorageURI(uri string) (Location, error) {
	parsed, err := url.Parse(uri)
	if err != nil {
		return Location{}, uriError(uri, "failed to parse URI", err)
	}

	if parsed.Scheme != "s3" {
		return Location{}, uriError(uri,
			fmt.Sprintf("unsupported storage scheme: %q (only s3:// supported)", parsed.Scheme), nil)
	}
	if parsed.Host == "" {
		return Location{}, uriError(uri, "S3 URI must include bucket name", nil)
	}

	query := parsed.Query()
	loc := Location{
		Bucket:   parsed.Host,
		Prefix:   strings.Trim(parsed.Path, "/"),
		Region:   query.Get("region"),
		Endpoint: query.Get("endpoint"),
	}

	if v := query.Get("force_path_style"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return Location{}, uriError(uri, "force_path_style must be a boolean", err)
		}
		loc.ForcePathStyle = &b
	}

	return loc, nil
}

// apply overlays the URI's values on storage settings.
func (l Location) apply(s config.StorageConfig) config.StorageConfig {
	s.Bucket = l.Bucket
	if l.Prefix != "" {
		s.Prefix = l.Prefix
	}
	if l.Region != "" {
		s.Region = l.Region
	}
	if l.Endpoint != "" {
		s.Endpoint = l.Endpoint
	}
	if l.ForcePathStyle != nil {
		s.ForcePathStyle = *l.ForcePathStyle
	}
	return s
}

func uriError(uri, msg string, cause error) *errors.Error {
	e := errors.NewError(errors.ErrCodeInvalidConfig, msg).
		WithComponent(componentName).
		WithOperation("ParseStorageURI").
		WithContext("uri", uri)
	if cause != nil {
		e = e.WithCause(cause)
	}
	return e
}

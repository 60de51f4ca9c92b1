package s3

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/objectfs/s3kv/pkg/errors"
	"github.com/objectfs/s3kv/pkg/types"
	"github.com/objectfs/s3kv/pkg/utils"
)

const (
	// DriverName is the backend kind reported by Name.
	DriverName = "s3"

	componentName = "s3-driver"
)

// Driver stores key-value items as objects in one S3 bucket.
type Driver struct {
	opts Options

	client    API
	transport *http.Transport // set only when the driver built its own client
	uploader  Uploader
	recorder  types.OperationRecorder

	logger  *slog.Logger
	metrics *MetricsCollector
	stopped atomic.Bool
}

var (
	_ types.Driver        = (*Driver)(nil)
	_ types.HealthChecker = (*Driver)(nil)
)

// Option customises a Driver at construction.
type Option func(*Driver)

// WithClient injects the API the driver sends requests through instead of
// building an SDK client. The driver does not close an injected client.
func WithClient(client API) Option {
	return func(d *Driver) { d.client = client }
}

// WithLogger sets the base logger; the driver adds its component and bucket.
func WithLogger(logger *slog.Logger) Option {
	return func(d *Driver) {
		if logger != nil {
			d.logger = logger
		}
	}
}

// WithRecorder reports every operation to r in addition to the driver's own metrics.
func WithRecorder(r types.OperationRecorder) Option {
	return func(d *Driver) { d.recorder = r }
}

// WithUploader replaces the accelerated upload path used when transfers are enabled.
func WithUploader(u Uploader) Option {
	return func(d *Driver) { d.uploader = u }
}

// New validates opts and creates a driver. Validation runs before any
// network access; the SDK client is built only when none was injected.
func New(ctx context.Context, opts Options, options ...Option) (*Driver, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	opts = opts.withDefaults()

	d := &Driver{
		opts:    opts,
		logger:  slog.Default(),
		metrics: NewMetricsCollector(),
	}
	for _, o := range options {
		o(d)
	}
	d.logger = d.logger.With("component", componentName, "bucket", opts.Bucket)

	if d.client == nil {
		client, transport, err := NewClient(ctx, opts)
		if err != nil {
			return nil, err
		}
		d.client = client
		d.transport = transport
	}

	if opts.Transfer.Enabled && d.uploader == nil {
		if client, ok := d.client.(*s3.Client); ok {
			d.uploader = newCargoUploader(client, opts, d.logger)
		} else {
			d.logger.Warn("Accelerated transfers need an SDK client, large values use PutObject")
		}
	}

	d.logger.Info("S3 driver initialized",
		"prefix", opts.Prefix,
		"region", opts.Region,
		"endpoint", opts.Endpoint,
		"list_all", opts.ListAll,
		"transfer", d.uploader != nil)

	return d, nil
}

// Name returns the backend kind.
func (d *Driver) Name() string {
	return DriverName
}

// Options returns the options in effect, with secrets redacted.
func (d *Driver) Options() Options {
	return d.opts.Redacted()
}

// Metrics returns a snapshot of the driver's request statistics.
func (d *Driver) Metrics() BackendMetrics {
	return d.metrics.GetMetrics()
}

// HasItem reports whether an object exists for key. Delete markers count as absent.
func (d *Driver) HasItem(ctx context.Context, key string) (found bool, err error) {
	if err = d.checkStopped("HasItem"); err != nil {
		return false, err
	}
	start := time.Now()
	defer func() { d.observe("HasItem", start, 0, err) }()

	physical := NormalizeKey(d.opts.Prefix, key)
	out, err := d.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(d.opts.Bucket),
		Key:    aws.String(physical),
	})
	if err != nil {
		if isNotFound(err) {
			return false, nil
		}
		return false, d.translateError(err, "HasItem", physical, errors.ErrCodeStorageRead)
	}

	return !aws.ToBool(out.DeleteMarker), nil
}

// GetItem returns the value for key decoded as text.
func (d *Driver) GetItem(ctx context.Context, key string) (string, bool, error) {
	data, ok, err := d.GetItemRaw(ctx, key)
	if err != nil || !ok {
		return "", false, err
	}
	return string(data), true, nil
}

// GetItemRaw returns the stored bytes for key. A missing object and an
// empty body both report ok == false.
func (d *Driver) GetItemRaw(ctx context.Context, key string) (data []byte, ok bool, err error) {
	if err = d.checkStopped("GetItemRaw"); err != nil {
		return nil, false, err
	}
	start := time.Now()
	defer func() { d.observe("GetItemRaw", start, int64(len(data)), err) }()

	physical := NormalizeKey(d.opts.Prefix, key)
	out, err := d.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(d.opts.Bucket),
		Key:    aws.String(physical),
	})
	if err != nil {
		if isNotFound(err) {
			return nil, false, nil
		}
		return nil, false, d.translateError(err, "GetItemRaw", physical, errors.ErrCodeStorageRead)
	}
	defer out.Body.Close()

	body, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, false, d.translateError(err, "GetItemRaw", physical, errors.ErrCodeStorageRead)
	}
	d.metrics.RecordBytesDownloaded(int64(len(body)))

	if len(body) == 0 {
		return nil, false, nil
	}

	d.logger.Debug("Read item", "key", physical, "size", len(body))
	return body, true, nil
}

// SetItem stores a text value under key.
func (d *Driver) SetItem(ctx context.Context, key, value string, opts types.SetOptions) error {
	return d.SetItemRaw(ctx, key, []byte(value), opts)
}

// SetItemRaw stores value under key, replacing any existing object.
func (d *Driver) SetItemRaw(ctx context.Context, key string, value []byte, opts types.SetOptions) (err error) {
	if err = d.checkStopped("SetItemRaw"); err != nil {
		return err
	}

	var body []byte
	if opts.SendsBody() {
		body = value
	}
	size := int64(len(body))

	start := time.Now()
	defer func() { d.observe("SetItemRaw", start, size, err) }()

	physical := NormalizeKey(d.opts.Prefix, key)
	meta := sdkMetadata(NormalizeMetadata(opts.Meta))

	if d.uploader != nil && size >= d.opts.Transfer.Threshold {
		if err = d.uploader.Upload(ctx, physical, body, meta); err != nil {
			return d.translateError(err, "SetItemRaw", physical, errors.ErrCodeStorageWrite)
		}
		d.metrics.RecordAcceleratedUpload(size)
		d.metrics.RecordBytesUploaded(size)
		return nil
	}

	input := &s3.PutObjectInput{
		Bucket:        aws.String(d.opts.Bucket),
		Key:           aws.String(physical),
		ContentLength: aws.Int64(size),
		Metadata:      meta,
		StorageClass:  sdkStorageClass(d.opts.StorageClass),
	}
	if opts.SendsBody() {
		input.Body = bytes.NewReader(body)
	}

	if _, err = d.client.PutObject(ctx, input); err != nil {
		return d.translateError(err, "SetItemRaw", physical, errors.ErrCodeStorageWrite)
	}
	d.metrics.RecordBytesUploaded(size)

	d.logger.Debug("Stored item", "key", physical, "size", size, "metadata", len(meta))
	return nil
}

// RemoveItem deletes key, or one version of it when opts.VersionID is set.
// Removing a missing key succeeds.
func (d *Driver) RemoveItem(ctx context.Context, key string, opts types.RemoveOptions) (err error) {
	if err = d.checkStopped("RemoveItem"); err != nil {
		return err
	}
	start := time.Now()
	defer func() { d.observe("RemoveItem", start, 0, err) }()

	physical := NormalizeKey(d.opts.Prefix, key)
	input := &s3.DeleteObjectInput{
		Bucket: aws.String(d.opts.Bucket),
		Key:    aws.String(physical),
	}
	if opts.VersionID != "" {
		input.VersionId = aws.String(opts.VersionID)
	}

	if _, err = d.client.DeleteObject(ctx, input); err != nil {
		if isNotFound(err) {
			return nil
		}
		return d.translateError(err, "RemoveItem", physical, errors.ErrCodeStorageDelete)
	}

	d.logger.Debug("Removed item", "key", physical, "version_id", opts.VersionID)
	return nil
}

// GetMeta returns the metadata of key without its body.
func (d *Driver) GetMeta(ctx context.Context, key string) (meta types.Meta, ok bool, err error) {
	if err = d.checkStopped("GetMeta"); err != nil {
		return types.Meta{}, false, err
	}
	start := time.Now()
	defer func() { d.observe("GetMeta", start, 0, err) }()

	physical := NormalizeKey(d.opts.Prefix, key)
	out, err := d.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(d.opts.Bucket),
		Key:    aws.String(physical),
	})
	if err != nil {
		if isNotFound(err) {
			return types.Meta{}, false, nil
		}
		return types.Meta{}, false, d.translateError(err, "GetMeta", physical, errors.ErrCodeStorageRead)
	}
	if aws.ToBool(out.DeleteMarker) {
		return types.Meta{}, false, nil
	}

	return types.Meta{
		MTime:       aws.ToTime(out.LastModified),
		Size:        aws.ToInt64(out.ContentLength),
		ETag:        aws.ToString(out.ETag),
		ContentType: aws.ToString(out.ContentType),
		User:        userMetadata(out.Metadata),
	}, true, nil
}

// Ping checks that the bucket is reachable with the configured credentials.
func (d *Driver) Ping(ctx context.Context) (err error) {
	if err = d.checkStopped("Ping"); err != nil {
		return err
	}
	start := time.Now()
	defer func() { d.observe("Ping", start, 0, err) }()

	if _, err = d.client.HeadBucket(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(d.opts.Bucket),
	}); err != nil {
		// HeadBucket has no body, so a missing bucket is a bare 404.
		if isNotFound(err) {
			return d.wrapError(err, errors.ErrCodeBucketNotFound, "Ping", "")
		}
		return d.translateError(err, "Ping", "", errors.ErrCodeConnectionFailed)
	}
	return nil
}

// Dispose releases the client. Later calls are no-ops; every other
// operation fails with COMPONENT_STOPPED afterwards.
func (d *Driver) Dispose(ctx context.Context) error {
	if !d.stopped.CompareAndSwap(false, true) {
		return nil
	}
	if d.transport != nil {
		d.transport.CloseIdleConnections()
	}

	m := d.metrics.GetMetrics()
	d.logger.Info("S3 driver disposed",
		"requests", m.Requests,
		"errors", m.Errors,
		"error_rate", d.metrics.GetErrorRate(),
		"uploaded", utils.FormatBytes(m.BytesUploaded),
		"downloaded", utils.FormatBytes(m.BytesDownloaded))
	return nil
}

func (d *Driver) checkStopped(operation string) error {
	if !d.stopped.Load() {
		return nil
	}
	return errors.NewError(errors.ErrCodeComponentStopped, "driver has been disposed").
		WithComponent(componentName).
		WithOperation(operation).
		WithContext("bucket", d.opts.Bucket)
}

// observe records one finished operation in the driver metrics and the optional recorder.
func (d *Driver) observe(operation string, start time.Time, size int64, err error) {
	duration := time.Since(start)

	d.metrics.RecordMetrics(duration, err != nil)
	if err != nil {
		d.metrics.RecordError(err)
		d.logger.Debug("Operation failed", "operation", operation, "error", err)
	}

	if d.recorder != nil {
		d.recorder.RecordOperation(operation, duration, size, err == nil)
		if err != nil {
			d.recorder.RecordError(operation, err)
		}
	}
}

package adapter

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	smithyhttp "github.com/aws/smithy-go/transport/http"

	"github.com/objectfs/s3kv/internal/config"
	"github.com/objectfs/s3kv/internal/storage/s3"
	"github.com/objectfs/s3kv/pkg/errors"
	"github.com/objectfs/s3kv/pkg/types"
)

// stubAPI serves the calls the adapter tests make; any other call panics
// through the nil embedded interface.
type stubAPI struct {
	s3.API

	mu      sync.Mutex
	bucket  string
	objects map[string][]byte
}

func newStubAPI(bucket string) *stubAPI {
	return &stubAPI{bucket: bucket, objects: make(map[string][]byte)}
}

func (s *stubAPI) HeadBucket(_ context.Context, in *awss3.HeadBucketInput, _ ...func(*awss3.Options)) (*awss3.HeadBucketOutput, error) {
	if aws.ToString(in.Bucket) != s.bucket {
		// HEAD on a missing bucket is a bodiless 404.
		return nil, &smithy.OperationError{
			ServiceID:     "S3",
			OperationName: "HeadBucket",
			Err: &awshttp.ResponseError{
				ResponseError: &smithyhttp.ResponseError{
					Response: &smithyhttp.Response{Response: &http.Response{StatusCode: http.StatusNotFound}},
					Err:      &s3types.NotFound{},
				},
			},
		}
	}
	return &awss3.HeadBucketOutput{}, nil
}

func (s *stubAPI) PutObject(_ context.Context, in *awss3.PutObjectInput, _ ...func(*awss3.Options)) (*awss3.PutObjectOutput, error) {
	var body []byte
	if in.Body != nil {
		data, err := io.ReadAll(in.Body)
		if err != nil {
			return nil, err
		}
		body = data
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[aws.ToString(in.Key)] = body
	return &awss3.PutObjectOutput{}, nil
}

func (s *stubAPI) GetObject(_ context.Context, in *awss3.GetObjectInput, _ ...func(*awss3.Options)) (*awss3.GetObjectOutput, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	body, ok := s.objects[aws.ToString(in.Key)]
	if !ok {
		return nil, &s3types.NoSuchKey{}
	}
	return &awss3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(body))}, nil
}

func (s *stubAPI) stored() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	keys := make([]string, 0, len(s.objects))
	for k := range s.objects {
		keys = append(keys, k)
	}
	return keys
}

func TestParseStorageURI(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		uri         string
		want        Location
		wantErr     bool
		errContains string
	}{
		{
			name: "bucket only",
			uri:  "s3://my-bucket",
			want: Location{Bucket: "my-bucket"},
		},
		{
			name: "bucket with prefix",
			uri:  "s3://my-bucket/path/to/prefix/",
			want: Location{Bucket: "my-bucket", Prefix: "path/to/prefix"},
		},
		{
			name: "region and endpoint",
			uri:  "s3://my-bucket/app?region=eu-west-1&endpoint=http://localhost:9000",
			want: Location{Bucket: "my-bucket", Prefix: "app", Region: "eu-west-1", Endpoint: "http://localhost:9000"},
		},
		{
			name: "dots in bucket name",
			uri:  "s3://my.bucket.with.dots",
			want: Location{Bucket: "my.bucket.with.dots"},
		},
		{
			name:        "missing bucket",
			uri:         "s3://",
			wantErr:     true,
			errContains: "bucket name",
		},
		{
			name:        "unsupported scheme",
			uri:         "gcs://my-bucket",
			wantErr:     true,
			errContains: "unsupported storage scheme",
		},
		{
			name:        "empty URI",
			uri:         "",
			wantErr:     true,
			errContains: "unsupported storage scheme",
		},
		{
			name:        "invalid URI",
			uri:         "://invalid",
			wantErr:     true,
			errContains: "failed to parse URI",
		},
		{
			name:        "bad force_path_style",
			uri:         "s3://my-bucket?force_path_style=maybe",
			wantErr:     true,
			errContains: "force_path_style",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseStorageURI(tt.uri)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseStorageURI() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				if !errors.IsCode(err, errors.ErrCodeInvalidConfig) {
					t.Errorf("ParseStorageURI() error code = %s, want INVALID_CONFIG", errors.CodeOf(err))
				}
				if !strings.Contains(err.Error(), tt.errContains) {
					t.Errorf("ParseStorageURI() error = %v, should contain %q", err, tt.errContains)
				}
				return
			}
			if got.Bucket != tt.want.Bucket || got.Prefix != tt.want.Prefix ||
				got.Region != tt.want.Region || got.Endpoint != tt.want.Endpoint {
				t.Errorf("ParseStorageURI() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestParseStorageURIPathStyle(t *testing.T) {
	t.Parallel()

	loc, err := ParseStorageURI("s3://bucket?force_path_style=true")
	if err != nil {
		t.Fatalf("ParseStorageURI() error = %v", err)
	}
	if loc.ForcePathStyle == nil || !*loc.ForcePathStyle {
		t.Errorf("ForcePathStyle = %v, want true", loc.ForcePathStyle)
	}

	storage := loc.apply(config.StorageConfig{Prefix: "kept", Region: "us-east-2"})
	if storage.Bucket != "bucket" || storage.Prefix != "kept" || storage.Region != "us-east-2" || !storage.ForcePathStyle {
		t.Errorf("apply() = %+v", storage)
	}
}

func TestNew(t *testing.T) {
	ctx := context.Background()

	cfg := config.NewDefault()
	cfg.Storage.Prefix = "from-config"
	stub := newStubAPI("kv-bucket")
	previous := slog.Default()

	a, err := New(ctx, "s3://kv-bucket/from-uri?region=us-west-2", cfg, s3.WithClient(stub))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if slog.Default() != previous {
		t.Error("New() must not replace the process default logger")
	}

	if a.Driver().Name() != s3.DriverName {
		t.Errorf("Driver().Name() = %q", a.Driver().Name())
	}
	opts := a.Driver().Options()
	if opts.Bucket != "kv-bucket" || opts.Prefix != "from-uri" || opts.Region != "us-west-2" {
		t.Errorf("driver options = %+v", opts)
	}
	// The caller's configuration is not modified.
	if cfg.Storage.Bucket != "" || cfg.Storage.Prefix != "from-config" {
		t.Errorf("input configuration was modified: %+v", cfg.Storage)
	}
	if a.Config().Storage.Bucket != "kv-bucket" {
		t.Errorf("Config().Storage.Bucket = %q", a.Config().Storage.Bucket)
	}

	if err := a.Start(ctx); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	d := a.Driver()
	if err := d.SetItem(ctx, "greeting", "hello", types.SetOptions{}); err != nil {
		t.Fatalf("SetItem() error = %v", err)
	}
	value, ok, err := d.GetItem(ctx, "greeting")
	if err != nil || !ok || value != "hello" {
		t.Errorf("GetItem() = %q, %v, %v", value, ok, err)
	}
	if keys := stub.stored(); len(keys) != 1 || keys[0] != "from-uri/greeting" {
		t.Errorf("stored keys = %v", keys)
	}

	if err := a.Stop(ctx); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}
	if _, _, err := d.GetItem(ctx, "greeting"); !errors.IsCode(err, errors.ErrCodeComponentStopped) {
		t.Errorf("GetItem() after Stop error = %v, want COMPONENT_STOPPED", err)
	}
}

func TestNewMetricsWiring(t *testing.T) {
	ctx := context.Background()

	cfg := config.NewDefault()
	cfg.Monitoring.Metrics.Enabled = true
	cfg.Monitoring.Metrics.Namespace = "adaptertest"

	a, err := New(ctx, "s3://kv-bucket", cfg, s3.WithClient(newStubAPI("kv-bucket")))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer a.Driver().Dispose(ctx)

	if err := a.Driver().SetItemRaw(ctx, "k", []byte("v"), types.SetOptions{}); err != nil {
		t.Fatalf("SetItemRaw() error = %v", err)
	}

	op, ok := a.Collector().GetOperations()["SetItemRaw"]
	if !ok || op.Count != 1 {
		t.Errorf("collector operations = %+v", a.Collector().GetOperations())
	}
}

func TestNewErrors(t *testing.T) {
	ctx := context.Background()

	t.Run("invalid URI", func(t *testing.T) {
		_, err := New(ctx, "ftp://bucket", config.NewDefault())
		if !errors.IsCode(err, errors.ErrCodeInvalidConfig) {
			t.Errorf("New() error = %v, want INVALID_CONFIG", err)
		}
	})

	t.Run("invalid configuration", func(t *testing.T) {
		cfg := config.NewDefault()
		cfg.Global.LogLevel = "CHATTY"
		_, err := New(ctx, "s3://bucket", cfg)
		if !errors.IsCode(err, errors.ErrCodeInvalidConfig) {
			t.Errorf("New() error = %v, want INVALID_CONFIG", err)
		}
	})

	t.Run("unwritable log file", func(t *testing.T) {
		cfg := config.NewDefault()
		cfg.Global.LogFile = filepath.Join(t.TempDir(), "missing", "s3kv.log")
		_, err := New(ctx, "s3://bucket", cfg, s3.WithClient(newStubAPI("bucket")))
		if err == nil {
			t.Error("New() should fail when the log file cannot be opened")
		}
	})

	t.Run("unreachable bucket", func(t *testing.T) {
		cfg := config.NewDefault()
		cfg.Global.LogFile = filepath.Join(t.TempDir(), "s3kv.log")
		a, err := New(ctx, "s3://other", cfg, s3.WithClient(newStubAPI("bucket")))
		if err != nil {
			t.Fatalf("New() error = %v", err)
		}
		defer a.Stop(ctx)

		if err := a.Start(ctx); !errors.IsCode(err, errors.ErrCodeBucketNotFound) {
			t.Errorf("Start() error = %v, want BUCKET_NOT_FOUND", err)
		}

		logged, err := os.ReadFile(cfg.Global.LogFile)
		if err != nil {
			t.Fatalf("ReadFile() error = %v", err)
		}
		for _, want := range []string{"Code=BUCKET_NOT_FOUND", "recommendation=", "Verify the bucket name"} {
			if !strings.Contains(string(logged), want) {
				t.Errorf("log output missing %q:\n%s", want, logged)
			}
		}
	})
}

package s3

import (
	"fmt"
	"time"

	"github.com/objectfs/s3kv/pkg/errors"
)

const (
	// DefaultDeleteBatchSize is the number of keys sent per DeleteObjects request.
	DefaultDeleteBatchSize = 999

	// MaxDeleteBatchSize is the most keys S3 accepts in one DeleteObjects request.
	MaxDeleteBatchSize = 1000

	// MaxListPageSize is the most keys S3 returns in one ListObjectsV2 page.
	MaxListPageSize = 1000

	redacted = "REDACTED"
)

// Options configures a Driver. It is copied on construction and never mutated afterwards.
type Options struct {
	Bucket string `yaml:"bucket"`
	Prefix string `yaml:"prefix"`

	Region         string `yaml:"region"`
	Endpoint       string `yaml:"endpoint"`
	ForcePathStyle bool   `yaml:"force_path_style"`

	// Static credentials; either both keys or neither.
	AccessKeyID     string `yaml:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key"`
	SessionToken    string `yaml:"session_token"`

	MaxAttempts    int           `yaml:"max_attempts"`
	RequestTimeout time.Duration `yaml:"request_timeout"`

	DeleteBatchSize int  `yaml:"delete_batch_size"`
	ListPageSize    int  `yaml:"list_page_size"`
	ListAll         bool `yaml:"list_all"`

	// StorageClass applied to writes; empty leaves the bucket default.
	StorageClass string `yaml:"storage_class"`

	Transfer TransferOptions `yaml:"transfer"`
}

// TransferOptions controls CargoShip accelerated uploads for large values.
type TransferOptions struct {
	Enabled     bool  `yaml:"enabled"`
	Threshold   int64 `yaml:"threshold"`
	ChunkSize   int64 `yaml:"chunk_size"`
	Concurrency int   `yaml:"concurrency"`
}

// NewDefaultTransferOptions returns the transfer settings used when none are given.
func NewDefaultTransferOptions() TransferOptions {
	return TransferOptions{
		Enabled:     false,
		Threshold:   32 * 1024 * 1024,
		ChunkSize:   16 * 1024 * 1024,
		Concurrency: 8,
	}
}

// Validate checks the options without touching the network.
func (o Options) Validate() error {
	if o.Bucket == "" {
		return configError(errors.ErrCodeMissingConfig, "bucket name is required", "bucket")
	}
	if (o.AccessKeyID == "") != (o.SecretAccessKey == "") {
		return configError(errors.ErrCodeInvalidConfig,
			"access key ID and secret access key must be supplied together", "credentials")
	}
	if o.SessionToken != "" && o.AccessKeyID == "" {
		return configError(errors.ErrCodeInvalidConfig,
			"session token requires static credentials", "session_token")
	}
	if o.DeleteBatchSize < 0 || o.DeleteBatchSize > MaxDeleteBatchSize {
		return configError(errors.ErrCodeInvalidConfig,
			fmt.Sprintf("delete batch size must be between 1 and %d", MaxDeleteBatchSize), "delete_batch_size")
	}
	if o.ListPageSize < 0 || o.ListPageSize > MaxListPageSize {
		return configError(errors.ErrCodeInvalidConfig,
			fmt.Sprintf("list page size must be between 0 and %d", MaxListPageSize), "list_page_size")
	}
	if o.MaxAttempts < 0 {
		return configError(errors.ErrCodeInvalidConfig, "max attempts cannot be negative", "max_attempts")
	}
	if o.RequestTimeout < 0 {
		return configError(errors.ErrCodeInvalidConfig, "request timeout cannot be negative", "request_timeout")
	}
	if o.StorageClass != "" {
		if _, ok := storageClasses[o.StorageClass]; !ok {
			return configError(errors.ErrCodeInvalidConfig,
				fmt.Sprintf("unsupported storage class %q", o.StorageClass), "storage_class")
		}
	}
	if o.Transfer.Enabled {
		if o.Transfer.Threshold <= 0 || o.Transfer.ChunkSize <= 0 || o.Transfer.Concurrency <= 0 {
			return configError(errors.ErrCodeInvalidConfig,
				"transfer threshold, chunk size and concurrency must be positive", "transfer")
		}
		if _, ok := cargoStorageClass(o.StorageClass); !ok {
			return configError(errors.ErrCodeInvalidConfig,
				fmt.Sprintf("storage class %q is not supported for accelerated transfers", o.StorageClass),
				"storage_class")
		}
	}
	return nil
}

func (o Options) withDefaults() Options {
	if o.DeleteBatchSize == 0 {
		o.DeleteBatchSize = DefaultDeleteBatchSize
	}
	return o
}

// Redacted returns a copy safe to log or expose.
func (o Options) Redacted() Options {
	if o.SecretAccessKey != "" {
		o.SecretAccessKey = redacted
	}
	if o.SessionToken != "" {
		o.SessionToken = redacted
	}
	return o
}

func configError(code errors.ErrorCode, msg, field string) error {
	return errors.NewError(code, msg).
		WithComponent(componentName).
		WithOperation("New").
		WithContext("field", field)
}

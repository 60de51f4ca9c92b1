package types

import (
	"context"
	"time"
)

// Driver is the key-value contract a storage abstraction consumes.
// Every backend (memory, filesystem, database, object storage) exposes the same operations.
type Driver interface {
	// Name identifies the backend kind (e.g. "s3").
	Name() string

	// Existence and reads
	HasItem(ctx context.Context, key string) (bool, error)
	GetItem(ctx context.Context, key string) (string, bool, error)
	GetItemRaw(ctx context.Context, key string) ([]byte, bool, error)

	// Writes
	SetItem(ctx context.Context, key, value string, opts SetOptions) error
	SetItemRaw(ctx context.Context, key string, value []byte, opts SetOptions) error
	RemoveItem(ctx context.Context, key string, opts RemoveOptions) error

	// Metadata and enumeration
	GetMeta(ctx context.Context, key string) (Meta, bool, error)
	GetKeys(ctx context.Context) ([]string, error)
	Clear(ctx context.Context) error

	// Dispose releases the backend client. The driver is unusable afterwards.
	Dispose(ctx context.Context) error
}

// HealthChecker is implemented by drivers that can verify backend reachability.
type HealthChecker interface {
	Ping(ctx context.Context) error
}

// OperationRecorder receives one observation per driver operation.
type OperationRecorder interface {
	RecordOperation(operation string, duration time.Duration, size int64, success bool)
	RecordError(operation string, err error)
}

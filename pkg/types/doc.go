/*
Package types defines the contract between s3kv and the storage abstraction that consumes it.

The abstraction treats every backend as a flat key-value namespace. A backend implements
Driver; callers never see backend-specific request or response types.

# Driver Contract

	HasItem     existence check, false for missing keys
	GetItem     read decoded as text, ok=false when absent
	GetItemRaw  read raw bytes, ok=false when absent
	SetItem     write text with optional metadata
	SetItemRaw  write bytes with optional metadata and marker (bodyless) writes
	RemoveItem  idempotent delete, optionally of a specific version
	GetMeta     modification time and metadata, ok=false when absent
	GetKeys     every key in the driver's namespace, in backend order
	Clear       remove every key in the driver's namespace
	Dispose     release the backend client

Absent values are reported through the boolean result, never as an error. Every other
backend failure is returned as an error.

# Optional Capabilities

Drivers may additionally implement HealthChecker. Operation observations are pushed to an
OperationRecorder when one is configured.

# Usage

	drv, err := s3.New(ctx, s3.Options{Bucket: "assets", Prefix: "cache"})
	if err != nil {
	    return err
	}
	defer drv.Dispose(ctx)

	if err := drv.SetItem(ctx, "a/b", "hello", types.SetOptions{}); err != nil {
	    return err
	}
	v, ok, err := drv.GetItem(ctx, "a/b")
*/
package types

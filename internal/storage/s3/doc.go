/*
Package s3 implements the s3kv key-value driver on top of an Amazon S3 bucket
(or any S3-compatible endpoint) using aws-sdk-go-v2.

Each item is one object. Logical keys are mapped to object keys under an
optional prefix by NormalizeKey:

	NormalizeKey("cache", "/a/b")  == "cache/a/b"
	NormalizeKey("/cache/", "a/b") == "cache/a/b"
	NormalizeKey("", "/a/b")       == "a/b"

# Operations

	HasItem     HeadObject, delete markers count as absent
	GetItemRaw  GetObject, missing object or empty body is absent
	SetItemRaw  PutObject (or a CargoShip transfer above Transfer.Threshold)
	RemoveItem  DeleteObject, optionally one version
	GetMeta     HeadObject
	GetKeys     ListObjectsV2 following continuation tokens
	Clear       GetKeys scope, then DeleteObjects in batches of DeleteBatchSize
	Ping        HeadBucket

User metadata passed to SetItemRaw is normalised to the x-amz-meta- form by
NormalizeMetadata and returned by GetMeta without the prefix.

# Listing scope

With a prefix and ListAll unset, GetKeys and Clear only touch objects under
"prefix/" and GetKeys returns logical keys. Without a prefix, or with ListAll
set, the whole bucket is listed and physical keys are returned.

# Errors

Failures are returned as *errors.Error from pkg/errors with a code such as
OBJECT_NOT_FOUND, ACCESS_DENIED, QUOTA_EXCEEDED or STORAGE_WRITE. The SDK
error is kept as the cause and can be inspected with errors.As. A Clear that
removes some objects but not others returns PARTIAL_DELETE wrapping a
*PartialDeleteError.

The driver never retries; retries come from the SDK (Options.MaxAttempts) and
deadlines from the caller's context or Options.RequestTimeout.

# Concurrency

A Driver is safe for concurrent use. Requests share one client and take no
driver-level locks.
*/
package s3

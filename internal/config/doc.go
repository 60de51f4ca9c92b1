/*
Package config loads and validates s3kv configuration.

Settings come from three layers, later layers overriding earlier ones:

	┌─────────────────────────────────────────────┐
	│        Environment Variables                │ ← Highest Priority
	│              (S3KV_*)                       │
	└─────────────────────────────────────────────┘
	                      │
	┌─────────────────────────────────────────────┐
	│         Configuration File                  │
	│            (YAML format)                    │
	└─────────────────────────────────────────────┘
	                      │
	┌─────────────────────────────────────────────┐
	│           Default Values                    │ ← Lowest Priority
	└─────────────────────────────────────────────┘

A storage URI passed to the adapter (s3://bucket/prefix) is applied on top of
all three.

# Sections

	global:      log_level, log_format, log_file
	storage:     bucket, prefix, region, endpoint, force_path_style,
	             credentials, storage_class, delete_batch_size,
	             list_page_size, list_all, transfer
	network:     timeouts.request, retry.max_attempts
	monitoring:  metrics (enabled, port, path, namespace, custom_labels)

Transfer sizes are human-readable strings ("32MB", "1GB") parsed with
utils.ParseBytes.

# Usage

	cfg := config.NewDefault()
	if err := cfg.LoadFromFile("s3kv.yaml"); err != nil {
		return err
	}
	if err := cfg.LoadFromEnv(); err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	opts, err := cfg.DriverOptions()

Validate does not require a bucket; the driver rejects a missing bucket with
MISSING_CONFIG when it is constructed, after the storage URI has been applied.

# Errors

Read and parse failures carry CONFIG_LOAD, write failures CONFIG_SAVE, and
invalid values INVALID_CONFIG with the offending field in the error context.
*/
package config

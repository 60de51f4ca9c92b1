/*
Package adapter turns a storage URI and a configuration into a running S3
key-value driver.

# Storage URI

	s3://bucket[/prefix][?region=REGION&endpoint=URL&force_path_style=BOOL]

The bucket is always taken from the URI. Prefix, region, endpoint and path
style override the configuration's storage section only when present.

# Lifecycle

	a, err := adapter.New(ctx, "s3://kv-store/sessions?region=us-west-2", cfg)
	if err != nil {
		return err
	}
	if err := a.Start(ctx); err != nil { // HeadBucket, then metrics server
		return err
	}
	defer a.Stop(ctx)

	d := a.Driver()
	err = d.SetItem(ctx, "user:42", payload, types.SetOptions{})

New sets up slog from the global section, builds the Prometheus collector from
the monitoring section and creates the driver with both attached. Stop
disposes the driver, shuts the metrics server down and closes the log file;
every step runs and their errors are combined with multierr.

Extra s3.Option values passed to New are applied last, so tests and embedding
programs can inject their own API client or uploader.
*/
package adapter

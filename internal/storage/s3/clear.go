package s3

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/objectfs/s3kv/pkg/errors"
)

// DeleteFailure is one object S3 refused to delete during Clear.
type DeleteFailure struct {
	Key       string `json:"key"`
	VersionID string `json:"version_id,omitempty"`
	Code      string `json:"code"`
	Message   string `json:"message"`
}

// ID identifies the failure as "key:versionId".
func (f DeleteFailure) ID() string {
	return f.Key + ":" + f.VersionID
}

// PartialDeleteError lists the objects a Clear could not remove.
type PartialDeleteError struct {
	Failures []DeleteFailure
}

func (e *PartialDeleteError) Error() string {
	const shown = 5

	parts := make([]string, 0, shown)
	for i, f := range e.Failures {
		if i == shown {
			parts = append(parts, fmt.Sprintf("and %d more", len(e.Failures)-shown))
			break
		}
		parts = append(parts, fmt.Sprintf("%s (%s: %s)", f.ID(), f.Code, f.Message))
	}
	return fmt.Sprintf("%d objects not deleted: %s", len(e.Failures), strings.Join(parts, ", "))
}

// ByID indexes the failures by "key:versionId".
func (e *PartialDeleteError) ByID() map[string]DeleteFailure {
	out := make(map[string]DeleteFailure, len(e.Failures))
	for _, f := range e.Failures {
		out[f.ID()] = f
	}
	return out
}

// Clear deletes every object in listing scope, DeleteBatchSize keys per
// request, in listing order. A failed request stops the clear. Objects S3
// reports as not deleted are collected across all batches and returned as
// a PARTIAL_DELETE error wrapping a *PartialDeleteError.
func (d *Driver) Clear(ctx context.Context) (err error) {
	if err = d.checkStopped("Clear"); err != nil {
		return err
	}
	start := time.Now()
	defer func() { d.observe("Clear", start, 0, err) }()

	keys, err := d.listPhysical(ctx, "Clear")
	if err != nil {
		return err
	}

	var failures []DeleteFailure
	batches := 0
	for lo := 0; lo < len(keys); lo += d.opts.DeleteBatchSize {
		hi := min(lo+d.opts.DeleteBatchSize, len(keys))

		failed, err := d.deleteBatch(ctx, keys[lo:hi])
		if err != nil {
			return err
		}
		failures = append(failures, failed...)
		batches++
	}

	if len(failures) > 0 {
		err := errors.NewError(errors.ErrCodePartialDelete,
			fmt.Sprintf("%d of %d objects were not deleted", len(failures), len(keys))).
			WithComponent(componentName).
			WithOperation("Clear").
			WithContext("bucket", d.opts.Bucket).
			WithDetail("failed", len(failures)).
			WithDetail("listed", len(keys)).
			WithCause(&PartialDeleteError{Failures: failures})
		d.logger.Warn("Clear left objects behind",
			"batches", batches,
			"error", err.String(),
			"recommendation", err.GetRecommendation())
		return err
	}

	d.logger.Debug("Cleared objects", "deleted", len(keys), "batches", batches)
	return nil
}

func (d *Driver) deleteBatch(ctx context.Context, keys []string) ([]DeleteFailure, error) {
	objects := make([]s3types.ObjectIdentifier, len(keys))
	for i, k := range keys {
		objects[i] = s3types.ObjectIdentifier{Key: aws.String(k)}
	}

	out, err := d.client.DeleteObjects(ctx, &s3.DeleteObjectsInput{
		Bucket: aws.String(d.opts.Bucket),
		Delete: &s3types.Delete{
			Objects: objects,
			Quiet:   aws.Bool(true),
		},
	})
	if err != nil {
		return nil, d.translateError(err, "Clear", "", errors.ErrCodeStorageDelete)
	}

	failures := make([]DeleteFailure, 0, len(out.Errors))
	for _, e := range out.Errors {
		failures = append(failures, DeleteFailure{
			Key:       aws.ToString(e.Key),
			VersionID: aws.ToString(e.VersionId),
			Code:      aws.ToString(e.Code),
			Message:   aws.ToString(e.Message),
		})
	}
	d.metrics.RecordClear(len(keys)-len(failures), len(failures))

	return failures, nil
}

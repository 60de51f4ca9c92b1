package s3

import (
	"context"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/objectfs/s3kv/pkg/errors"
)

// GetKeys lists every key in scope, in the order S3 returns them.
// With a prefix configured (and ListAll unset) only keys under the prefix are
// listed and they come back as logical keys; otherwise the whole bucket is
// listed and physical keys are returned. A failed page returns no keys.
func (d *Driver) GetKeys(ctx context.Context) (keys []string, err error) {
	if err = d.checkStopped("GetKeys"); err != nil {
		return nil, err
	}
	start := time.Now()
	defer func() { d.observe("GetKeys", start, 0, err) }()

	physical, err := d.listPhysical(ctx, "GetKeys")
	if err != nil {
		return nil, err
	}
	if !d.scoped() {
		return physical, nil
	}

	keys = make([]string, 0, len(physical))
	for _, p := range physical {
		if logical, ok := LogicalKey(d.opts.Prefix, p); ok {
			keys = append(keys, logical)
		}
	}
	return keys, nil
}

// scoped reports whether listings are restricted to the configured prefix.
func (d *Driver) scoped() bool {
	return cleanPrefix(d.opts.Prefix) != "" && !d.opts.ListAll
}

// listPhysical follows ListObjectsV2 continuation tokens until the listing
// is no longer truncated.
func (d *Driver) listPhysical(ctx context.Context, operation string) ([]string, error) {
	input := &s3.ListObjectsV2Input{
		Bucket: aws.String(d.opts.Bucket),
	}
	if d.scoped() {
		input.Prefix = aws.String(listPrefix(d.opts.Prefix))
	}
	if d.opts.ListPageSize > 0 {
		input.MaxKeys = aws.Int32(int32(d.opts.ListPageSize))
	}

	keys := make([]string, 0)
	pages := 0

	paginator := s3.NewListObjectsV2Paginator(d.client, input)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, d.translateError(err, operation, aws.ToString(input.Prefix), errors.ErrCodeStorageList)
		}
		pages++

		for _, obj := range page.Contents {
			keys = append(keys, aws.ToString(obj.Key))
		}
	}

	d.logger.Debug("Listed keys",
		"prefix", aws.ToString(input.Prefix),
		"keys", len(keys),
		"pages", pages)
	return keys, nil
}

package s3

import (
	"bytes"
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	smithyhttp "github.com/aws/smithy-go/transport/http"
)

type fakeObject struct {
	body         []byte
	meta         map[string]string
	modified     time.Time
	etag         string
	deleteMarker bool
}

// fakeS3 is an in-memory stand-in for one S3 bucket.
type fakeS3 struct {
	mu sync.Mutex

	bucket   string
	objects  map[string]*fakeObject
	pageSize int

	calls          map[string]int
	puts           []*s3.PutObjectInput
	deleteBatches  [][]string
	deleteVersions []string
	listInputs     []*s3.ListObjectsV2Input

	failures     map[string]error
	failListPage int
	failDeletes  map[string]string
}

var _ API = (*fakeS3)(nil)

func newFakeS3(bucket string) *fakeS3 {
	return &fakeS3{
		bucket:      bucket,
		objects:     make(map[string]*fakeObject),
		pageSize:    1000,
		calls:       make(map[string]int),
		failures:    make(map[string]error),
		failDeletes: make(map[string]string),
	}
}

// failOn makes every call of operation return err.
func (f *fakeS3) failOn(operation string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failures[operation] = err
}

// failDelete makes DeleteObjects report key as not deleted with version.
func (f *fakeS3) failDelete(key, version string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failDeletes[key] = version
}

func (f *fakeS3) put(key string, body []byte) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[key] = newFakeObject(body, nil)
}

func (f *fakeS3) keys() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sortedKeys()
}

func (f *fakeS3) callCount(operation string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[operation]
}

func (f *fakeS3) totalCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	total := 0
	for _, n := range f.calls {
		total += n
	}
	return total
}

func (f *fakeS3) lastPut() *s3.PutObjectInput {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.puts) == 0 {
		return nil
	}
	return f.puts[len(f.puts)-1]
}

func newFakeObject(body []byte, meta map[string]string) *fakeObject {
	sum := md5.Sum(body)
	return &fakeObject{
		body:     body,
		meta:     meta,
		modified: time.Now().UTC(),
		etag:     `"` + hex.EncodeToString(sum[:]) + `"`,
	}
}

func (f *fakeS3) sortedKeys() []string {
	keys := make([]string, 0, len(f.objects))
	for k := range f.objects {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (f *fakeS3) enter(operation string, bucket *string) error {
	f.calls[operation]++
	if err := f.failures[operation]; err != nil {
		return err
	}
	if aws.ToString(bucket) != f.bucket {
		// HEAD responses have no body, so S3 cannot name the missing bucket.
		if strings.HasPrefix(operation, "Head") {
			return sdkError(operation, http.StatusNotFound, &s3types.NotFound{Message: aws.String("Not Found")})
		}
		return sdkError(operation, http.StatusNotFound,
			&smithy.GenericAPIError{Code: "NoSuchBucket", Message: "The specified bucket does not exist"})
	}
	return nil
}

// sdkError wraps apiErr the way the SDK returns failed calls: an operation
// error around an HTTP response error carrying the status.
func sdkError(operation string, status int, apiErr error) error {
	return &smithy.OperationError{
		ServiceID:     "S3",
		OperationName: operation,
		Err: &awshttp.ResponseError{
			ResponseError: &smithyhttp.ResponseError{
				Response: &smithyhttp.Response{Response: &http.Response{StatusCode: status}},
				Err:      apiErr,
			},
			RequestID: "fake-request",
		},
	}
}

func (f *fakeS3) HeadBucket(_ context.Context, in *s3.HeadBucketInput, _ ...func(*s3.Options)) (*s3.HeadBucketOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("HeadBucket", in.Bucket); err != nil {
		return nil, err
	}
	return &s3.HeadBucketOutput{}, nil
}

func (f *fakeS3) HeadObject(_ context.Context, in *s3.HeadObjectInput, _ ...func(*s3.Options)) (*s3.HeadObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("HeadObject", in.Bucket); err != nil {
		return nil, err
	}
	obj, ok := f.objects[aws.ToString(in.Key)]
	if !ok {
		return nil, &s3types.NotFound{}
	}
	return &s3.HeadObjectOutput{
		ContentLength: aws.Int64(int64(len(obj.body))),
		ContentType:   aws.String("binary/octet-stream"),
		DeleteMarker:  aws.Bool(obj.deleteMarker),
		ETag:          aws.String(obj.etag),
		LastModified:  aws.Time(obj.modified),
		Metadata:      obj.meta,
	}, nil
}

func (f *fakeS3) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("GetObject", in.Bucket); err != nil {
		return nil, err
	}
	obj, ok := f.objects[aws.ToString(in.Key)]
	if !ok || obj.deleteMarker {
		return nil, &s3types.NoSuchKey{}
	}
	body := append([]byte(nil), obj.body...)
	return &s3.GetObjectOutput{
		Body:          io.NopCloser(bytes.NewReader(body)),
		ContentLength: aws.Int64(int64(len(body))),
		ETag:          aws.String(obj.etag),
		LastModified:  aws.Time(obj.modified),
		Metadata:      obj.meta,
	}, nil
}

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("PutObject", in.Bucket); err != nil {
		return nil, err
	}

	var body []byte
	if in.Body != nil {
		data, err := io.ReadAll(in.Body)
		if err != nil {
			return nil, err
		}
		body = data
	}

	var meta map[string]string
	if len(in.Metadata) > 0 {
		meta = make(map[string]string, len(in.Metadata))
		for k, v := range in.Metadata {
			meta[strings.ToLower(k)] = v
		}
	}

	f.puts = append(f.puts, in)
	obj := newFakeObject(body, meta)
	f.objects[aws.ToString(in.Key)] = obj
	return &s3.PutObjectOutput{ETag: aws.String(obj.etag)}, nil
}

func (f *fakeS3) DeleteObject(_ context.Context, in *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("DeleteObject", in.Bucket); err != nil {
		return nil, err
	}
	if in.VersionId != nil {
		f.deleteVersions = append(f.deleteVersions, aws.ToString(in.VersionId))
	}
	delete(f.objects, aws.ToString(in.Key))
	return &s3.DeleteObjectOutput{}, nil
}

func (f *fakeS3) DeleteObjects(_ context.Context, in *s3.DeleteObjectsInput, _ ...func(*s3.Options)) (*s3.DeleteObjectsOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("DeleteObjects", in.Bucket); err != nil {
		return nil, err
	}
	if len(in.Delete.Objects) > MaxDeleteBatchSize {
		return nil, &smithy.GenericAPIError{Code: "MalformedXML", Message: "too many keys"}
	}

	batch := make([]string, 0, len(in.Delete.Objects))
	out := &s3.DeleteObjectsOutput{}
	for _, id := range in.Delete.Objects {
		key := aws.ToString(id.Key)
		batch = append(batch, key)
		if version, failed := f.failDeletes[key]; failed {
			out.Errors = append(out.Errors, s3types.Error{
				Key:       aws.String(key),
				VersionId: aws.String(version),
				Code:      aws.String("AccessDenied"),
				Message:   aws.String("Access Denied"),
			})
			continue
		}
		delete(f.objects, key)
		if !aws.ToBool(in.Delete.Quiet) {
			out.Deleted = append(out.Deleted, s3types.DeletedObject{Key: aws.String(key)})
		}
	}
	f.deleteBatches = append(f.deleteBatches, batch)
	return out, nil
}

func (f *fakeS3) ListObjectsV2(_ context.Context, in *s3.ListObjectsV2Input, _ ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("ListObjectsV2", in.Bucket); err != nil {
		return nil, err
	}
	f.listInputs = append(f.listInputs, in)
	if f.failListPage > 0 && len(f.listInputs) == f.failListPage {
		return nil, &smithy.GenericAPIError{Code: "InternalError", Message: "We encountered an internal error"}
	}

	limit := f.pageSize
	if in.MaxKeys != nil && int(*in.MaxKeys) < limit {
		limit = int(*in.MaxKeys)
	}
	after := aws.ToString(in.ContinuationToken)
	prefix := aws.ToString(in.Prefix)

	out := &s3.ListObjectsV2Output{IsTruncated: aws.Bool(false)}
	for _, k := range f.sortedKeys() {
		if !strings.HasPrefix(k, prefix) || (after != "" && k <= after) {
			continue
		}
		if len(out.Contents) == limit {
			out.IsTruncated = aws.Bool(true)
			out.NextContinuationToken = out.Contents[len(out.Contents)-1].Key
			break
		}
		out.Contents = append(out.Contents, s3types.Object{
			Key:  aws.String(k),
			Size: aws.Int64(int64(len(f.objects[k].body))),
		})
	}
	out.KeyCount = aws.Int32(int32(len(out.Contents)))
	return out, nil
}

// fakeUploader records accelerated uploads instead of sending them.
type fakeUploader struct {
	mu      sync.Mutex
	uploads map[string][]byte
	meta    map[string]map[string]string
	err     error
}

func newFakeUploader() *fakeUploader {
	return &fakeUploader{
		uploads: make(map[string][]byte),
		meta:    make(map[string]map[string]string),
	}
}

func (u *fakeUploader) Upload(_ context.Context, key string, body []byte, meta map[string]string) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.err != nil {
		return u.err
	}
	u.uploads[key] = append([]byte(nil), body...)
	u.meta[key] = meta
	return nil
}

// fakeRecorder captures what the driver reports to an OperationRecorder.
type fakeRecorder struct {
	mu         sync.Mutex
	operations map[string]int
	failures   map[string]int
	bytes      map[string]int64
}

func newFakeRecorder() *fakeRecorder {
	return &fakeRecorder{
		operations: make(map[string]int),
		failures:   make(map[string]int),
		bytes:      make(map[string]int64),
	}
}

func (r *fakeRecorder) RecordOperation(operation string, _ time.Duration, size int64, success bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.operations[operation]++
	r.bytes[operation] += size
	if !success {
		r.failures[operation]++
	}
}

func (r *fakeRecorder) RecordError(operation string, _ error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failures[operation+":error"]++
}

func fillBucket(f *fakeS3, prefix string, n int) []string {
	keys := make([]string, n)
	for i := 0; i < n; i++ {
		keys[i] = fmt.Sprintf("%sitem-%05d", prefix, i)
		f.put(keys[i], []byte("v"))
	}
	return keys
}

// markDeleted turns key into a delete marker, as a versioned bucket does on delete.
func (f *fakeS3) markDeleted(key string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if obj, ok := f.objects[key]; ok {
		obj.deleteMarker = true
		obj.body = nil
	}
}

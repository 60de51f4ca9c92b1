package s3

import (
	"context"
	stderrors "errors"
	"fmt"
	"net/http"

	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	smithyhttp "github.com/aws/smithy-go/transport/http"

	"github.com/objectfs/s3kv/pkg/errors"
)

// isNotFound reports whether err means the object (or its current version) is absent.
// An API error code decides on its own; a bare 404 counts only when the
// response carried no code, as with HEAD requests.
func isNotFound(err error) bool {
	if isErrorType[*s3types.NoSuchKey](err) || isErrorType[*s3types.NotFound](err) {
		return true
	}
	if code := apiErrorCode(err); code != "" {
		return code == "NotFound" || code == "NoSuchKey"
	}
	return httpStatus(err) == http.StatusNotFound
}

func isNoSuchBucket(err error) bool {
	return isErrorType[*s3types.NoSuchBucket](err) || apiErrorCode(err) == "NoSuchBucket"
}

func apiErrorCode(err error) string {
	var apiErr smithy.APIError
	if stderrors.As(err, &apiErr) {
		return apiErr.ErrorCode()
	}
	return ""
}

func httpStatus(err error) int {
	var respErr *awshttp.ResponseError
	if stderrors.As(err, &respErr) {
		return respErr.HTTPStatusCode()
	}
	return 0
}

func isErrorType[T error](err error) bool {
	var target T
	return stderrors.As(err, &target)
}

// translateError wraps an SDK failure into a coded error. The SDK error stays
// reachable through errors.As.
func (d *Driver) translateError(err error, operation, key string, fallback errors.ErrorCode) error {
	return d.wrapError(err, classify(err, fallback), operation, key)
}

func (d *Driver) wrapError(err error, code errors.ErrorCode, operation, key string) *errors.Error {
	msg := fmt.Sprintf("%s failed", operation)
	if key != "" {
		msg = fmt.Sprintf("%s failed for %s", operation, key)
	}

	e := errors.NewError(code, msg).
		WithComponent(componentName).
		WithOperation(operation).
		WithContext("bucket", d.opts.Bucket).
		WithCause(err)
	if key != "" {
		e.WithContext("key", key)
	}
	if status := httpStatus(err); status != 0 {
		e.WithDetail("http_status", status)
	}
	return e
}

func classify(err error, fallback errors.ErrorCode) errors.ErrorCode {
	switch {
	case stderrors.Is(err, context.DeadlineExceeded):
		return errors.ErrCodeOperationTimeout
	case stderrors.Is(err, context.Canceled):
		return errors.ErrCodeOperationCanceled
	case isErrorType[*smithyhttp.RequestSendError](err):
		return errors.ErrCodeNetworkError
	case isNoSuchBucket(err):
		return errors.ErrCodeBucketNotFound
	case isNotFound(err):
		return errors.ErrCodeObjectNotFound
	}

	switch apiErrorCode(err) {
	case "AccessDenied", "AllAccessDisabled", "AccountProblem":
		return errors.ErrCodeAccessDenied
	case "InvalidAccessKeyId", "SignatureDoesNotMatch", "ExpiredToken", "InvalidToken":
		return errors.ErrCodeAuthenticationFailed
	case "SlowDown", "Throttling", "ThrottlingException", "RequestLimitExceeded", "TooManyRequestsException":
		return errors.ErrCodeQuotaExceeded
	case "RequestTimeout", "RequestTimeoutException":
		return errors.ErrCodeOperationTimeout
	}

	switch httpStatus(err) {
	case http.StatusForbidden:
		return errors.ErrCodeAccessDenied
	case http.StatusUnauthorized:
		return errors.ErrCodeAuthenticationFailed
	case http.StatusTooManyRequests, http.StatusServiceUnavailable:
		return errors.ErrCodeQuotaExceeded
	}
	return fallback
}

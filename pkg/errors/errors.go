// Package errors provides a structured error system for s3kv with error codes, categories, and context.
package errors

import (
	"encoding/json"
	stderr "errors"
	"fmt"
	"strings"
	"time"
)

// ErrorCode represents a structured error code for driver operations.
type ErrorCode string

// Error code constants grouped by category.
const (
	// Configuration errors
	ErrCodeInvalidConfig ErrorCode = "INVALID_CONFIG"
	ErrCodeMissingConfig ErrorCode = "MISSING_CONFIG"
	ErrCodeConfigLoad    ErrorCode = "CONFIG_LOAD"
	ErrCodeConfigSave    ErrorCode = "CONFIG_SAVE"

	// Connection errors
	ErrCodeConnectionFailed ErrorCode = "CONNECTION_FAILED"
	ErrCodeNetworkError     ErrorCode = "NETWORK_ERROR"

	// Storage backend errors
	ErrCodeObjectNotFound ErrorCode = "OBJECT_NOT_FOUND"
	ErrCodeBucketNotFound ErrorCode = "BUCKET_NOT_FOUND"
	ErrCodeStorageRead    ErrorCode = "STORAGE_READ"
	ErrCodeStorageWrite   ErrorCode = "STORAGE_WRITE"
	ErrCodeStorageDelete  ErrorCode = "STORAGE_DELETE"
	ErrCodeStorageList    ErrorCode = "STORAGE_LIST"
	ErrCodePartialDelete  ErrorCode = "PARTIAL_DELETE"
	ErrCodeAccessDenied   ErrorCode = "ACCESS_DENIED"
	ErrCodeQuotaExceeded  ErrorCode = "QUOTA_EXCEEDED"

	// State errors
	ErrCodeComponentStopped ErrorCode = "COMPONENT_STOPPED"

	// Operation errors
	ErrCodeOperationTimeout  ErrorCode = "OPERATION_TIMEOUT"
	ErrCodeOperationCanceled ErrorCode = "OPERATION_CANCELED"

	// Authentication errors
	ErrCodeAuthenticationFailed ErrorCode = "AUTHENTICATION_FAILED"

	// Internal errors
	ErrCodeInternalError ErrorCode = "INTERNAL_ERROR"
	ErrCodeUnknownError  ErrorCode = "UNKNOWN_ERROR"
)

// ErrorCategory represents the general category of an error.
type ErrorCategory string

const (
	CategoryConfiguration ErrorCategory = "configuration"
	CategoryConnection    ErrorCategory = "connection"
	CategoryStorage       ErrorCategory = "storage"
	CategoryState         ErrorCategory = "state"
	CategoryOperation     ErrorCategory = "operation"
	CategoryAuth          ErrorCategory = "auth"
	CategoryInternal      ErrorCategory = "internal"
)

// Error represents a structured error with context and metadata.
type Error struct {
	Code     ErrorCode              `json:"code"`
	Category ErrorCategory          `json:"category"`
	Message  string                 `json:"message"`
	Details  map[string]interface{} `json:"details,omitempty"`

	Context   map[string]string `json:"context,omitempty"`
	Cause     error             `json:"-"`
	Timestamp time.Time         `json:"timestamp"`

	Component string `json:"component"`
	Operation string `json:"operation,omitempty"`

	Retryable bool `json:"retryable"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := e.Message
	if e.Cause != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	if e.Component != "" {
		if e.Operation != "" {
			return fmt.Sprintf("[%s:%s] %s: %s", e.Component, e.Operation, e.Code, msg)
		}
		return fmt.Sprintf("[%s] %s: %s", e.Component, e.Code, msg)
	}
	return fmt.Sprintf("%s: %s", e.Code, msg)
}

// Unwrap returns the underlying cause error for error wrapping compatibility.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target is an *Error carrying the same code.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Code == t.Code
	}
	return false
}

// String returns a detailed string representation for logging.
func (e *Error) String() string {
	var parts []string

	parts = append(parts, fmt.Sprintf("Code=%s", e.Code))
	parts = append(parts, fmt.Sprintf("Category=%s", e.Category))
	parts = append(parts, fmt.Sprintf("Message=%q", e.Message))

	if e.Component != "" {
		parts = append(parts, fmt.Sprintf("Component=%s", e.Component))
	}
	if e.Operation != "" {
		parts = append(parts, fmt.Sprintf("Operation=%s", e.Operation))
	}
	if e.Retryable {
		parts = append(parts, "Retryable=true")
	}
	if len(e.Details) > 0 {
		details, _ := json.Marshal(e.Details)
		parts = append(parts, fmt.Sprintf("Details=%s", details))
	}
	if e.Cause != nil {
		parts = append(parts, fmt.Sprintf("Cause=%q", e.Cause.Error()))
	}

	return fmt.Sprintf("Error{%s}", strings.Join(parts, ", "))
}

// NewError creates a new error with defaults derived from the code.
func NewError(code ErrorCode, message string) *Error {
	return &Error{
		Code:      code,
		Category:  GetCategory(code),
		Message:   message,
		Timestamp: time.Now(),
		Details:   make(map[string]interface{}),
		Context:   make(map[string]string),
		Retryable: IsRetryableByDefault(code),
	}
}

// GetCategory determines the category based on the error code.
func GetCategory(code ErrorCode) ErrorCategory {
	codeStr := string(code)
	switch {
	case strings.HasPrefix(codeStr, "INVALID_CONFIG") || strings.HasPrefix(codeStr, "MISSING_CONFIG") ||
		strings.HasPrefix(codeStr, "CONFIG_"):
		return CategoryConfiguration
	case strings.HasPrefix(codeStr, "CONNECTION_") || strings.HasPrefix(codeStr, "NETWORK_"):
		return CategoryConnection
	case strings.HasPrefix(codeStr, "OBJECT_") || strings.HasPrefix(codeStr, "BUCKET_") ||
		strings.HasPrefix(codeStr, "STORAGE_") || strings.HasPrefix(codeStr, "PARTIAL_") ||
		strings.HasPrefix(codeStr, "ACCESS_") || strings.HasPrefix(codeStr, "QUOTA_"):
		return CategoryStorage
	case strings.HasPrefix(codeStr, "COMPONENT_"):
		return CategoryState
	case strings.HasPrefix(codeStr, "OPERATION_"):
		return CategoryOperation
	case strings.HasPrefix(codeStr, "AUTHENTICATION_"):
		return CategoryAuth
	default:
		return CategoryInternal
	}
}

// IsRetryableByDefault reports whether callers may reasonably retry an error with this code.
// The driver itself never retries.
func IsRetryableByDefault(code ErrorCode) bool {
	switch code {
	case ErrCodeConnectionFailed, ErrCodeNetworkError, ErrCodeOperationTimeout,
		ErrCodeQuotaExceeded, ErrCodeInternalError:
		return true
	}
	return false
}

// WithContext adds contextual information to an error
func (e *Error) WithContext(key, value string) *Error {
	if e.Context == nil {
		e.Context = make(map[string]string)
	}
	e.Context[key] = value
	return e
}

// WithDetail adds detailed information to an error
func (e *Error) WithDetail(key string, value interface{}) *Error {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// WithComponent sets the component for an error
func (e *Error) WithComponent(component string) *Error {
	e.Component = component
	return e
}

// WithOperation sets the operation for an error
func (e *Error) WithOperation(operation string) *Error {
	e.Operation = operation
	return e
}

// WithCause sets the underlying cause
func (e *Error) WithCause(cause error) *Error {
	e.Cause = cause
	return e
}

// CodeOf returns the code of the first *Error in err's chain, or ErrCodeUnknownError.
func CodeOf(err error) ErrorCode {
	var e *Error
	if stderr.As(err, &e) {
		return e.Code
	}
	return ErrCodeUnknownError
}

// IsCode reports whether err carries the given code anywhere in its chain.
func IsCode(err error, code ErrorCode) bool {
	if err == nil {
		return false
	}
	return stderr.Is(err, &Error{Code: code})
}

// GetRecommendation returns a user-friendly recommendation for fixing the error
func (e *Error) GetRecommendation() string {
	recommendations := map[ErrorCode]string{
		ErrCodeMissingConfig: "A required setting is missing. " +
			"The bucket name must always be configured.",
		ErrCodeInvalidConfig: "Configuration validation failed. " +
			"Supply both access key ID and secret access key, or neither.",
		ErrCodeObjectNotFound: "The requested object does not exist in the bucket. " +
			"Verify the key and the configured prefix.",
		ErrCodeBucketNotFound: "The specified bucket does not exist or is not accessible. " +
			"Verify the bucket name and region.",
		ErrCodeAccessDenied: "Credentials lack necessary permissions. " +
			"Check your IAM policy grants s3:GetObject, s3:PutObject, s3:DeleteObject and s3:ListBucket.",
		ErrCodeAuthenticationFailed: "Authentication failed. " +
			"Verify your access key ID and secret access key are correct.",
		ErrCodeQuotaExceeded: "The backend is throttling requests. " +
			"Reduce request rate or retry later.",
		ErrCodePartialDelete: "Some objects could not be deleted. " +
			"Inspect the failed keys and their reasons, then clear again.",
		ErrCodeComponentStopped: "The driver has been disposed. " +
			"Create a new driver instance.",
		ErrCodeNetworkError: "The request never reached the endpoint. " +
			"Check the endpoint URL, DNS and proxy settings.",
		ErrCodeOperationTimeout: "Operation took too long to complete. " +
			"Increase the request timeout or the caller's context deadline.",
	}

	if rec, exists := recommendations[e.Code]; exists {
		return rec
	}

	return "Please check the error message for details."
}

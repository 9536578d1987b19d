package sterr

import (
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/pkg/errors"
)

const (
	CodeNotFound       = "NOT_FOUND"
	CodeInvalidRequest = "INVALID_REQUEST"
	CodeInternalError  = "INTERNAL_ERROR"
	CodeOffline        = "OFFLINE"
	CodePermission     = "PERMISSION_DENIED"
	CodeSyncFailed     = "SYNC_FAILED"
)

// Kind partitions errors by how callers are expected to react to them.
type Kind int

const (
	// KindValidation covers bad resolution choices, unknown conflict ids and
	// merge-of-dissimilar rejections. Reported synchronously, never retried.
	KindValidation Kind = iota

	// KindNotFound covers lookups of unknown ids.
	KindNotFound

	// KindRetryable covers transient sync failures (network, timeout,
	// platform unavailable) that are driven through the backoff engine.
	KindRetryable

	// KindPermission covers consent/permission failures. Never retried and
	// never queued.
	KindPermission

	// KindStorage covers persistence failures, propagated to the caller of
	// the operation that triggered them.
	KindStorage
)

var (
	// ErrNotFound is returned when a resource is not found.
	ErrNotFound = New(fiber.StatusNotFound, CodeNotFound, KindNotFound, "resource not found with given parameters")

	// ErrInvalidReq is returned when a request is invalid.
	ErrInvalidReq = New(fiber.StatusBadRequest, CodeInvalidRequest, KindValidation, "invalid request: some or all request parameters are invalid")

	// ErrInternalError is returned when an internal error occurs.
	ErrInternalError = New(fiber.StatusInternalServerError, CodeInternalError, KindStorage, "internal server error occurred")

	// ErrOffline is returned when a sync attempt is rejected because the device is offline.
	ErrOffline = New(fiber.StatusServiceUnavailable, CodeOffline, KindValidation, "device is offline: operation has been queued")

	// ErrPermission is returned when a platform adapter reports missing consent.
	ErrPermission = New(fiber.StatusForbidden, CodePermission, KindPermission, "health platform permission denied")
)

type Extras map[string]any

type Error struct {
	StatusCode int    `example:"400"`
	ErrorCode  string `example:"INVALID_REQUEST"`
	Message    string `example:"invalid request: some or all request parameters are invalid"`
	Kind       Kind   `json:"-"`
	Extras     *Extras
}

func New(statusCode int, errorCode string, kind Kind, message string) *Error {
	return &Error{
		StatusCode: statusCode,
		ErrorCode:  errorCode,
		Kind:       kind,
		Message:    message,
	}
}

func (e Error) Msg(format string, parts ...any) *Error {
	e.Message = fmt.Sprintf(format, parts...)
	return &e
}

func (e Error) WithExtras(extras Extras) *Error {
	e.Extras = &extras
	return &e
}

func NewInvalidViolations(violations any) *Error {
	e := *ErrInvalidReq
	e.Extras = &Extras{
		"violations": violations,
	}
	return &e
}

// NewRetryable wraps a transient sync failure so the retry engine picks it up.
func NewRetryable(message string) *Error {
	return New(fiber.StatusServiceUnavailable, CodeSyncFailed, KindRetryable, message)
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.ErrorCode, e.Message)
}

// IsRetryable reports whether err is a transient failure worth retrying.
// Non-sterr errors are treated as non-retryable.
func IsRetryable(err error) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == KindRetryable
	}
	return false
}

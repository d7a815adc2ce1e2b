package asset

import (
	"errors"
	"fmt"
)

// Error kinds. Every failure returned by the application layer wraps exactly one of these.
var (
	// ErrValidation is returned for malformed input (missing fields, empty lists)
	ErrValidation = errors.New("validation error")

	// ErrNotFound is returned when a referenced asset or link does not exist
	ErrNotFound = errors.New("not found")

	// ErrRange is returned for trim bounds or durations outside the allowed window
	ErrRange = errors.New("range error")

	// ErrLimitExceeded is returned when a requested share duration is too long
	ErrLimitExceeded = errors.New("limit exceeded")

	// ErrLinkExpired is returned when a share link existed but has lapsed
	ErrLinkExpired = errors.New("link expired")

	// ErrMediaUnreadable is returned when the engine cannot probe a file
	ErrMediaUnreadable = errors.New("media unreadable")

	// ErrTranscodeFailed is returned when the engine fails or times out
	ErrTranscodeFailed = errors.New("transcode failed")

	// ErrStorage is returned for file or store I/O failures
	ErrStorage = errors.New("storage failure")

	// ErrUnauthorized is returned when a caller identity cannot be established
	ErrUnauthorized = errors.New("unauthorized")
)

// ErrTokenCollision is returned by a Store when a share token is already taken
var ErrTokenCollision = errors.New("share token already exists")

var kinds = []error{
	ErrValidation,
	ErrNotFound,
	ErrRange,
	ErrLimitExceeded,
	ErrLinkExpired,
	ErrMediaUnreadable,
	ErrTranscodeFailed,
	ErrStorage,
	ErrUnauthorized,
}

// Error is a classified failure carrying a human-readable message
type Error struct {
	Kind    error
	Message string
	Err     error
}

// Errorf creates a classified error with a formatted message
func Errorf(kind error, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap classifies err under kind with a formatted message
func Wrap(kind, err error, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Err: err}
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap exposes both the kind and the cause to errors.Is and errors.As
func (e *Error) Unwrap() []error {
	errs := []error{e.Kind}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

// KindOf returns the kind sentinel err is classified under, or nil
func KindOf(err error) error {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	for _, k := range kinds {
		if errors.Is(err, k) {
			return k
		}
	}
	return nil
}

// Message returns the user-facing message of a classified error
func Message(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}

// Retryable reports whether the failure is server-side and may succeed on retry
func Retryable(err error) bool {
	switch KindOf(err) {
	case ErrTranscodeFailed, ErrStorage:
		return true
	default:
		return false
	}
}

// KindName returns a stable machine-readable name for a kind
func KindName(kind error) string {
	switch kind {
	case ErrValidation:
		return "validation"
	case ErrNotFound:
		return "not_found"
	case ErrRange:
		return "range"
	case ErrLimitExceeded:
		return "limit_exceeded"
	case ErrLinkExpired:
		return "link_expired"
	case ErrMediaUnreadable:
		return "media_unreadable"
	case ErrTranscodeFailed:
		return "transcode_failed"
	case ErrStorage:
		return "storage"
	case ErrUnauthorized:
		return "unauthorized"
	default:
		return "internal"
	}
}

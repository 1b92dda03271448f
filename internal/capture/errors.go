package capture

import (
	"errors"
	"fmt"
)

// ErrInvalidTransition is returned when an event is not legal in the
// session's current mode. The session state is left untouched.
var ErrInvalidTransition = errors.New("event not permitted in current mode")

// ErrResolutionInFlight is returned when a second resolution is requested
// while one is still outstanding.
var ErrResolutionInFlight = errors.New("subject resolution already in flight")

// DeviceReason classifies device acquisition failures.
type DeviceReason string

const (
	DevicePermissionDenied DeviceReason = "permission-denied"
	DeviceNotFound         DeviceReason = "not-found"
	DeviceReadError        DeviceReason = "read-error"
	DeviceUnknown          DeviceReason = "unknown"
)

// DeviceError reports a failure acquiring, sampling, or reading from an
// image source. Always recoverable by retrying or switching to file selection.
type DeviceError struct {
	Reason DeviceReason
	Err    error
}

func (e *DeviceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("device unavailable (%s): %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("device unavailable (%s)", e.Reason)
}

func (e *DeviceError) Unwrap() error { return e.Err }

// NotFoundError reports that the lookup endpoint knows no subject for the
// given identifier.
type NotFoundError struct {
	Identifier string
}

func (e *NotFoundError) Error() string { return "no subject for this identifier" }

// NetworkError reports a transport failure talking to the lookup endpoint.
type NetworkError struct {
	Status  int
	Message string
	Err     error
}

func (e *NetworkError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("subject lookup failed: status %d: %s", e.Status, e.Message)
	}
	return fmt.Sprintf("subject lookup failed: %v", e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// RenderError reports a failure rasterizing or assembling the packaged
// document artifact.
type RenderError struct {
	Err error
}

func (e *RenderError) Error() string { return fmt.Sprintf("document render failed: %v", e.Err) }

func (e *RenderError) Unwrap() error { return e.Err }

// ValidationError reports a missing or malformed field checked before any
// network I/O is attempted.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

// UploadError reports a submission transport failure. Message carries the
// human-readable message extracted from the remote error body when present.
type UploadError struct {
	Status  int
	Message string
	Err     error
}

func (e *UploadError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("upload failed: %s", e.Message)
	}
	return fmt.Sprintf("upload failed: %v", e.Err)
}

func (e *UploadError) Unwrap() error { return e.Err }

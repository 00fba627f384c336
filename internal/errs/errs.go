package errs

import "errors"

// Domain sentinel errors, mapped to HTTP status codes in handlers.
var (
	ErrMemorialNotFound = errors.New("memorial not found")
	ErrDeviceNotFound   = errors.New("device not found")
	ErrStreamNotFound   = errors.New("stream not found")

	// ErrForbidden covers role/ownership failures; handlers surface it as a
	// generic "access denied" without confirming whether the resource exists.
	ErrForbidden = errors.New("access denied")

	ErrInvalidDeviceStatus = errors.New("invalid device status")
	ErrInvalidSignalType   = errors.New("invalid signal type")
	ErrInvalidPayload      = errors.New("invalid signal payload")
	ErrInvalidAction       = errors.New("invalid broadcast action")

	// ErrStreamNotProvisioned: go-live requested before a stream key exists.
	ErrStreamNotProvisioned = errors.New("stream not provisioned")

	// ErrUpstream wraps live-provider failures so handlers can answer 500
	// without leaking provider internals.
	ErrUpstream = errors.New("live provider request failed")
)

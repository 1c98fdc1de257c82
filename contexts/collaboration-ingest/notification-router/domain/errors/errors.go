package errors

import "errors"

var (
	ErrInvalidEnvelope  = errors.New("notification envelope is not valid")
	ErrUnknownKind      = errors.New("unknown notification kind")
	ErrKindDisabled     = errors.New("notification kind is disabled")
	ErrResourceMismatch = errors.New("resource uri does not match expected pattern")
	ErrUpstreamFetch    = errors.New("failed to fetch resource from platform")
	ErrSinkWrite        = errors.New("failed to write payload to sink")
)

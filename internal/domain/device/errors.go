package device

import "errors"

// Discard reasons for raw device events. All of these are logged and dropped;
// none aborts the ingestion loop.
var (
	ErrUnverifiedEvent  = errors.New("device event is not verified")
	ErrMissingIdentity  = errors.New("device event is missing identity fields")
	ErrDenylistedDevice = errors.New("device address is denylisted")
	ErrUnknownDevice    = errors.New("device address has no assigned role")
)

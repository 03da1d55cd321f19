package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Caches and upstream clients return
// these (optionally wrapped) so services can translate them into domain errors.
//
//   - ErrNotFound: entry does not exist or has expired
//   - ErrUnavailable: backing service temporarily unavailable
//   - ErrNotConfigured: optional dependency was not configured
var (
	ErrNotFound      = errors.New("not found")
	ErrUnavailable   = errors.New("unavailable")
	ErrNotConfigured = errors.New("not configured")
)

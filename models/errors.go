package models

import "errors"

// Error taxonomy surfaced by the services. Callers classify failures with
// errors.Is; the message text carries the user-facing reason.
var (
	ErrValidation       = errors.New("validation failed")
	ErrPermissionDenied = errors.New("permission denied")
	ErrAccessDenied     = errors.New("access denied")
	ErrNotFound         = errors.New("not found")
	ErrStorage          = errors.New("storage failure")
)

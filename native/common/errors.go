package common

import "errors"

// Shared failure taxonomy. Engines wrap these with a descriptive reason so
// callers can branch with errors.Is while users still see why a call failed.
var (
	ErrAccessDenied      = errors.New("access denied")
	ErrModulePaused      = errors.New("module paused")
	ErrInvalidInput      = errors.New("invalid input")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrNotFound          = errors.New("not found")
	ErrUnauthorized      = errors.New("unauthorized")
	ErrTimeWindow        = errors.New("timestamp out of range")
)

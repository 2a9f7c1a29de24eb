package signal

import "errors"

// Precondition failures. The pipeline never returns partial output with these.
var (
	ErrLengthMismatch = errors.New("values and event flags differ in length")
	ErrNonFinite      = errors.New("non-finite value")
	ErrInvalidAlpha   = errors.New("alpha must be in (0, 1]")
	ErrInvalidWindow  = errors.New("window must be positive")
)

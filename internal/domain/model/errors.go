package model

import "errors"

// Sentinel kinds for model parsing errors.
var (
	ErrInvalidDomain   = errors.New("invalid domain")
	ErrInvalidTaskType = errors.New("invalid task type")
)

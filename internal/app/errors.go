package service

import "errors"

// Sentinel kinds for service errors.
var (
	ErrNotStarted    = errors.New("service not started")
	ErrInvalidSample = errors.New("invalid sample")
	ErrInvalidInput  = errors.New("invalid input")
)

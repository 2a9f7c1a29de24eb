package repository

import "errors"

// Sentinel kinds for store errors.
var (
	ErrNotFound      = errors.New("domain not found")
	ErrInvalidLimit  = errors.New("invalid leaderboard limit")
	ErrInvalidSample = errors.New("invalid sample")
)

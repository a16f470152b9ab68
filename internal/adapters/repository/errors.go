package repository

import "errors"

// Sentinel kinds for repository errors.
var (
	ErrNotFound     = errors.New("candidate not found")
	ErrInvalidLimit = errors.New("invalid list limit")
	ErrMissingID    = errors.New("candidate id is required")
	ErrStaleScore   = errors.New("candidate tier does not match its score")
)

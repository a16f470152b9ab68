package model

import "errors"

// Sentinel errors for model validation and parsing.
var (
	ErrInvalidCandidate = errors.New("invalid candidate")
	ErrUnknownTier      = errors.New("unknown tier")
	ErrUnknownPlatform  = errors.New("unknown platform")
)

package enrichment

import "errors"

// Sentinel errors for structurally absent anchors. Every other failure is
// absorbed into a partial or empty profile.
var (
	ErrEmptyAnchor         = errors.New("anchor handle is empty")
	ErrUnsupportedPlatform = errors.New("unsupported anchor platform")
)

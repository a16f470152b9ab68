package model

import (
	"fmt"
	"strings"
)

// Tier is the priority bucket derived from a total score.
type Tier int

// Tiers in ascending priority.
const (
	TierLow Tier = iota
	TierMedium
	TierHigh
	TierTop
)

// Tiers lists every tier from highest to lowest priority.
var Tiers = []Tier{TierTop, TierHigh, TierMedium, TierLow}

func (t Tier) String() string {
	switch t {
	case TierTop:
		return "top"
	case TierHigh:
		return "high"
	case TierMedium:
		return "medium"
	default:
		return "low"
	}
}

// ParseTier parses a tier name, case-insensitively.
func ParseTier(s string) (Tier, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "top":
		return TierTop, nil
	case "high":
		return TierHigh, nil
	case "medium":
		return TierMedium, nil
	case "low":
		return TierLow, nil
	}
	return TierLow, fmt.Errorf("%w: %q", ErrUnknownTier, s)
}

// MarshalText encodes the tier by name.
func (t Tier) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// UnmarshalText decodes a tier name. An empty value decodes to low.
func (t *Tier) UnmarshalText(b []byte) error {
	if len(b) == 0 {
		*t = TierLow
		return nil
	}
	v, err := ParseTier(string(b))
	if err != nil {
		return err
	}
	*t = v
	return nil
}

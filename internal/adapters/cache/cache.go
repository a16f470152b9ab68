// Package cache stores collaborator responses between enrichment runs.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// Cache is a byte cache with per-entry TTL. Get reports ok=false on a miss.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, val []byte, ttl time.Duration) error
	Close() error
}

// Key hashes a URL into a fixed-length cache key under prefix.
func Key(prefix, rawURL string) string {
	sum := sha256.Sum256([]byte(rawURL))
	return prefix + hex.EncodeToString(sum[:])
}

// Nop never stores anything.
type Nop struct{}

var _ Cache = Nop{}

func (Nop) Get(context.Context, string) ([]byte, bool, error)        { return nil, false, nil }
func (Nop) Set(context.Context, string, []byte, time.Duration) error { return nil }
func (Nop) Close() error                                             { return nil }

package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// Store is a byte-level cache for raw HTTP responses.
//
// Implementations must treat keys as opaque strings; callers are expected
// to namespace them (the transport layer uses the request URL). A TTL of 0
// stores the entry without expiry.
type Store interface {
	// Get retrieves a value by key. The second return value reports
	// whether a fresh entry was found; expired entries are misses.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores a value under key with the given TTL.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes a value. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases any resources held by the store.
	Close() error
}

// Hash computes the SHA-256 hash of data as a 64-character hex string.
// Stores use it to derive filesystem- and backend-safe names from keys.
func Hash(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}

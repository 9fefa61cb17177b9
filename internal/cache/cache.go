// Package cache stores classifier answers so a food term is only ever sent
// to an external provider once. Keys are hashed; values are small JSON
// blobs owned by the caller.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// Cache defines the interface for caching
type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte, ttl time.Duration) error
	Delete(key string) error
	Clear() error
}

// Key hashes an arbitrary cache identity into a stable, filesystem-safe
// key. The version prefix invalidates everything when the stored format
// changes.
func Key(identity string) string {
	hash := sha256.Sum256([]byte(identity))
	return "kursbot:v1:" + hex.EncodeToString(hash[:])
}

// Package idgen produces the opaque 32-byte identifiers used for bounties
// and submissions. Entropy comes from crypto/rand and is hashed so that IDs
// are unpredictable even if the underlying reader is ever biased.
package idgen

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Random generates collision-resistant 32-byte identifiers, hex-encoded.
type Random struct{}

// New creates a Random ID source.
func New() *Random {
	return &Random{}
}

// NewID returns a fresh 64-character hex identifier.
func (r *Random) NewID() (string, error) {
	var buf [32]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return "", fmt.Errorf("read entropy: %w", err)
	}
	sum := sha256.Sum256(buf[:])
	return hex.EncodeToString(sum[:]), nil
}

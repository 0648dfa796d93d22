package util

import (
	"crypto/sha256"
	"encoding/hex"
)

// GenerateNodeID creates a deterministic hash for a graph node key, usable
// where renderers need identifiers free of punctuation.
func GenerateNodeID(key string) string {
	hash := sha256.Sum256([]byte(key))
	return hex.EncodeToString(hash[:])
}

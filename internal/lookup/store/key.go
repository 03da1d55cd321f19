package store

import (
	"encoding/hex"

	"golang.org/x/crypto/blake2b"

	"dbservice/internal/lookup"
)

const keyPrefix = "lookup:v1:"

// Key derives the cache key for q. Queries are phone numbers and CNICs, so
// only their BLAKE2b-256 digest is ever stored.
func Key(q lookup.Query) string {
	sum := blake2b.Sum256([]byte(q.String()))
	return keyPrefix + hex.EncodeToString(sum[:])
}

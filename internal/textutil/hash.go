package textutil

import (
	"crypto/sha1"
	"crypto/sha256"
	"encoding/hex"
)

// SHA1Hex returns the hex sha1 digest of value. Used for URL-derived content ids.
func SHA1Hex(value string) string {
	sum := sha1.Sum([]byte(value))
	return hex.EncodeToString(sum[:])
}

// SHA256Hex returns the hex sha256 digest of value. Used for content hashes.
func SHA256Hex(value string) string {
	sum := sha256.Sum256([]byte(value))
	return hex.EncodeToString(sum[:])
}

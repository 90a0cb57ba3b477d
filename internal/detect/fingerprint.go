package detect

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// Fingerprint returns the lowercase hex SHA-256 of markup. Invalid UTF-8 sequences
// are dropped before hashing so that undecodable bytes never change the digest.
func Fingerprint(markup string) string {
	sum := sha256.Sum256([]byte(strings.ToValidUTF8(markup, "")))
	return hex.EncodeToString(sum[:])
}

package security

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
)

// NewConfirmationToken returns a cryptographically random single-use token for
// out-of-band email-change confirmation. The token is the secret: it is handed
// to the notifier once and must never be logged or stored; persist only its
// digest.
func NewConfirmationToken() (string, error) {
	return randomHex(16)
}

// DigestToken returns the SHA-256 digest of a confirmation token, hex-encoded.
// Used for storing and looking up tokens without storing the raw value.
func DigestToken(token string) string {
	h := sha256.Sum256([]byte(token))
	return hex.EncodeToString(h[:])
}

// TokenDigestEqual performs constant-time comparison of the provided token's
// digest with the stored digest.
func TokenDigestEqual(providedToken, storedDigest string) bool {
	providedDigest := DigestToken(providedToken)
	return subtle.ConstantTimeCompare([]byte(providedDigest), []byte(storedDigest)) == 1
}

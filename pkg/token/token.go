package token

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"fmt"
)

// DefaultLength is the default secret length in bytes.
const DefaultLength = 32

// FingerprintLength is the number of hex characters in a fingerprint.
const FingerprintLength = 12

// Generate returns a Base64 RawURL encoded random secret of DefaultLength bytes.
func Generate() (string, error) {
	b, err := GenerateBytes(DefaultLength)
	if err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// GenerateBytes returns length random bytes from crypto/rand.
func GenerateBytes(length int) ([]byte, error) {
	if length <= 0 {
		return nil, fmt.Errorf("token: invalid length %d", length)
	}
	b := make([]byte, length)
	if _, err := rand.Read(b); err != nil {
		return nil, fmt.Errorf("token: read random: %w", err)
	}
	return b, nil
}

// Fingerprint returns a short, stable, non-reversible identifier for a
// token. The empty token has the empty fingerprint.
func Fingerprint(tok string) string {
	if tok == "" {
		return ""
	}
	h := sha256.Sum256([]byte(tok))
	return hex.EncodeToString(h[:])[:FingerprintLength]
}

// Equal compares two tokens in constant time.
func Equal(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

package adaptive

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"
)

// DeriveKey stretches secret into a KeySize key with HKDF-SHA256. info
// separates keys derived from the same secret for different purposes.
func DeriveKey(secret, salt []byte, info string) ([]byte, error) {
	if len(secret) < 16 {
		return nil, errors.New("adaptive: secret must be at least 16 bytes")
	}

	key := make([]byte, KeySize)
	if _, err := io.ReadFull(hkdf.New(sha256.New, secret, salt, []byte(info)), key); err != nil {
		return nil, fmt.Errorf("adaptive: derive key: %w", err)
	}
	return key, nil
}

// Package adaptive seals small secrets (session tokens) at rest.
//
// A Box holds one 256-bit key and seals with AES-256-GCM when the platform
// has hardware AES, ChaCha20-Poly1305 otherwise. Every sealed blob starts
// with a one-byte cipher tag so a file written on one machine opens on
// another regardless of which cipher it preferred.
//
// Usage:
//
//	key, _ := adaptive.DeriveKey(secret, nil, "session-file")
//	box, _ := adaptive.New(key)
//	sealed, _ := box.Seal(plaintext, aad)
//	plaintext, _ = box.Open(sealed, aad)
package adaptive

package adaptive

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"runtime"

	"golang.org/x/crypto/chacha20poly1305"
)

// CipherType identifies the cipher algorithm.
type CipherType string

const (
	CipherAESGCM   CipherType = "aes-gcm"
	CipherChaCha20 CipherType = "chacha20-poly1305"
)

// KeySize is the only accepted key length.
const KeySize = 32

// Wire tags prefixed to every sealed blob.
const (
	tagAESGCM   byte = 0x01
	tagChaCha20 byte = 0x02
)

var (
	ErrKeySize       = errors.New("adaptive: key must be 32 bytes")
	ErrUnknownCipher = errors.New("adaptive: unknown cipher")
	ErrMalformed     = errors.New("adaptive: sealed data malformed")
	ErrOpen          = errors.New("adaptive: message authentication failed")
)

// Box seals and opens data with a single key.
// It is safe for concurrent use.
type Box struct {
	preferred CipherType
	aesgcm    cipher.AEAD
	chacha    cipher.AEAD
}

// New creates a Box that seals with the best cipher for this platform.
func New(key []byte) (*Box, error) {
	if hasAESNI() {
		return NewWithType(key, CipherAESGCM)
	}
	return NewWithType(key, CipherChaCha20)
}

// NewWithType creates a Box that seals with the given cipher. Open still
// accepts blobs sealed with either cipher.
func NewWithType(key []byte, preferred CipherType) (*Box, error) {
	if preferred != CipherAESGCM && preferred != CipherChaCha20 {
		return nil, fmt.Errorf("%w: %s", ErrUnknownCipher, preferred)
	}
	if len(key) != KeySize {
		return nil, ErrKeySize
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}
	cc, err := chacha20poly1305.New(key)
	if err != nil {
		return nil, err
	}

	return &Box{preferred: preferred, aesgcm: gcm, chacha: cc}, nil
}

// Type returns the cipher used by Seal.
func (b *Box) Type() CipherType {
	return b.preferred
}

// Seal encrypts plaintext bound to aad. The output layout is
// tag || nonce || ciphertext+mac.
func (b *Box) Seal(plaintext, aad []byte) ([]byte, error) {
	tag, aead := b.sealer()

	out := make([]byte, 1+aead.NonceSize(), 1+aead.NonceSize()+len(plaintext)+aead.Overhead())
	out[0] = tag
	nonce := out[1:]
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, fmt.Errorf("adaptive: nonce: %w", err)
	}

	return aead.Seal(out, nonce, plaintext, aad), nil
}

// Open decrypts data produced by Seal with the same key and aad.
func (b *Box) Open(sealed, aad []byte) ([]byte, error) {
	if len(sealed) < 1 {
		return nil, ErrMalformed
	}

	var aead cipher.AEAD
	switch sealed[0] {
	case tagAESGCM:
		aead = b.aesgcm
	case tagChaCha20:
		aead = b.chacha
	default:
		return nil, fmt.Errorf("%w: tag 0x%02x", ErrUnknownCipher, sealed[0])
	}

	body := sealed[1:]
	if len(body) < aead.NonceSize()+aead.Overhead() {
		return nil, ErrMalformed
	}

	plaintext, err := aead.Open(nil, body[:aead.NonceSize()], body[aead.NonceSize():], aad)
	if err != nil {
		return nil, ErrOpen
	}
	return plaintext, nil
}

// Overhead returns how many bytes Seal adds to a plaintext.
func (b *Box) Overhead() int {
	_, aead := b.sealer()
	return 1 + aead.NonceSize() + aead.Overhead()
}

func (b *Box) sealer() (byte, cipher.AEAD) {
	if b.preferred == CipherChaCha20 {
		return tagChaCha20, b.chacha
	}
	return tagAESGCM, b.aesgcm
}

// hasAESNI reports whether Go's crypto/aes runs hardware accelerated here.
func hasAESNI() bool {
	switch runtime.GOARCH {
	case "amd64", "arm64", "s390x", "ppc64le":
		return true
	default:
		return false
	}
}

package adaptive

import (
	"bytes"
	"errors"
	"testing"
)

func testKey(seed byte) []byte {
	k := make([]byte, KeySize)
	for i := range k {
		k[i] = seed + byte(i)
	}
	return k
}

func TestNew(t *testing.T) {
	box, err := New(testKey(0))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if ct := box.Type(); ct != CipherAESGCM && ct != CipherChaCha20 {
		t.Errorf("New() returned unknown cipher type: %s", ct)
	}
}

func TestNewWithType(t *testing.T) {
	tests := []struct {
		name    string
		key     []byte
		typ     CipherType
		wantErr error
	}{
		{"aes-gcm", testKey(0), CipherAESGCM, nil},
		{"chacha20", testKey(0), CipherChaCha20, nil},
		{"unknown cipher", testKey(0), "rot13", ErrUnknownCipher},
		{"short key", make([]byte, 16), CipherAESGCM, ErrKeySize},
		{"long key", make([]byte, 64), CipherChaCha20, ErrKeySize},
		{"nil key", nil, CipherAESGCM, ErrKeySize},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			box, err := NewWithType(tt.key, tt.typ)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("NewWithType() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("NewWithType() error = %v", err)
			}
			if box.Type() != tt.typ {
				t.Errorf("Type() = %s, want %s", box.Type(), tt.typ)
			}
		})
	}
}

func TestSealOpen(t *testing.T) {
	for _, typ := range []CipherType{CipherAESGCM, CipherChaCha20} {
		t.Run(string(typ), func(t *testing.T) {
			box, err := NewWithType(testKey(1), typ)
			if err != nil {
				t.Fatal(err)
			}

			plaintexts := [][]byte{
				[]byte(`{"accessToken":"a","refreshToken":"r"}`),
				{},
				bytes.Repeat([]byte("x"), 4096),
			}
			aad := []byte("session.json")

			for _, pt := range plaintexts {
				sealed, err := box.Seal(pt, aad)
				if err != nil {
					t.Fatalf("Seal() error = %v", err)
				}
				if len(sealed) != len(pt)+box.Overhead() {
					t.Errorf("sealed length = %d, want %d", len(sealed), len(pt)+box.Overhead())
				}

				got, err := box.Open(sealed, aad)
				if err != nil {
					t.Fatalf("Open() error = %v", err)
				}
				if !bytes.Equal(got, pt) {
					t.Errorf("Open() = %q, want %q", got, pt)
				}
			}
		})
	}
}

func TestOpen_CrossCipher(t *testing.T) {
	key := testKey(2)
	aesBox, _ := NewWithType(key, CipherAESGCM)
	chachaBox, _ := NewWithType(key, CipherChaCha20)

	sealed, err := aesBox.Seal([]byte("token"), nil)
	if err != nil {
		t.Fatal(err)
	}

	got, err := chachaBox.Open(sealed, nil)
	if err != nil {
		t.Fatalf("Open() across preferred ciphers failed: %v", err)
	}
	if string(got) != "token" {
		t.Errorf("Open() = %q", got)
	}
}

func TestOpen_Failures(t *testing.T) {
	box, _ := NewWithType(testKey(3), CipherChaCha20)
	sealed, err := box.Seal([]byte("secret"), []byte("aad"))
	if err != nil {
		t.Fatal(err)
	}

	tampered := append([]byte(nil), sealed...)
	tampered[len(tampered)-1] ^= 0xff

	badTag := append([]byte(nil), sealed...)
	badTag[0] = 0x7f

	other, _ := NewWithType(testKey(9), CipherChaCha20)

	tests := []struct {
		name    string
		box     *Box
		data    []byte
		aad     []byte
		wantErr error
	}{
		{"empty", box, nil, nil, ErrMalformed},
		{"tag only", box, sealed[:1], nil, ErrMalformed},
		{"truncated", box, sealed[:10], []byte("aad"), ErrMalformed},
		{"tampered", box, tampered, []byte("aad"), ErrOpen},
		{"wrong aad", box, sealed, []byte("other"), ErrOpen},
		{"wrong key", other, sealed, []byte("aad"), ErrOpen},
		{"unknown tag", box, badTag, []byte("aad"), ErrUnknownCipher},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.box.Open(tt.data, tt.aad)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Open() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestSeal_Uniqueness(t *testing.T) {
	box, _ := New(testKey(4))

	a, _ := box.Seal([]byte("same"), nil)
	b, _ := box.Seal([]byte("same"), nil)
	if bytes.Equal(a, b) {
		t.Error("two seals of the same plaintext should differ")
	}
}

func TestDeriveKey(t *testing.T) {
	secret := []byte("0123456789abcdef0123456789abcdef")

	k1, err := DeriveKey(secret, nil, "session-file")
	if err != nil {
		t.Fatal(err)
	}
	if len(k1) != KeySize {
		t.Errorf("len = %d, want %d", len(k1), KeySize)
	}

	k2, _ := DeriveKey(secret, nil, "session-file")
	if !bytes.Equal(k1, k2) {
		t.Error("DeriveKey should be deterministic")
	}

	k3, _ := DeriveKey(secret, nil, "other-purpose")
	if bytes.Equal(k1, k3) {
		t.Error("different info should yield different keys")
	}

	if _, err := DeriveKey([]byte("short"), nil, "x"); err == nil {
		t.Error("expected error for short secret")
	}
}

func BenchmarkSeal_1KB(b *testing.B) {
	box, _ := New(testKey(5))
	data := make([]byte, 1024)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = box.Seal(data, nil)
	}
}

func BenchmarkOpen_1KB(b *testing.B) {
	box, _ := New(testKey(5))
	sealed, _ := box.Seal(make([]byte, 1024), nil)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = box.Open(sealed, nil)
	}
}

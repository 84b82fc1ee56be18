package session

import (
	"context"
	"errors"

	"github.com/yndnr/littlesteps-go/internal/storage"
)

// badgerPrefix namespaces session keys inside the database.
const badgerPrefix = "session/"

// BadgerStore persists the token pair in an embedded KV engine.
type BadgerStore struct {
	kv   storage.KVEngine
	owns bool
}

var _ Store = (*BadgerStore)(nil)

// NewBadgerStore wraps kv. When owns is true, Close closes kv.
func NewBadgerStore(kv storage.KVEngine, owns bool) *BadgerStore {
	return &BadgerStore{kv: kv, owns: owns}
}

func (b *BadgerStore) Load(ctx context.Context) (Tokens, error) {
	var t Tokens
	err := b.kv.Scan(ctx, []byte(badgerPrefix), func(key, value []byte) bool {
		switch string(key[len(badgerPrefix):]) {
		case KeyAccessToken:
			t.AccessToken = string(value)
		case KeyRefreshToken:
			t.RefreshToken = string(value)
		}
		return true
	})
	return t, err
}

func (b *BadgerStore) Save(ctx context.Context, t Tokens) error {
	if err := b.put(ctx, KeyAccessToken, t.AccessToken); err != nil {
		return err
	}
	return b.put(ctx, KeyRefreshToken, t.RefreshToken)
}

// Clear deletes both keys. It uses a fresh context so a cancelled request
// cannot leave a half-cleared store behind.
func (b *BadgerStore) Clear(context.Context) error {
	ctx := context.Background()
	return errors.Join(
		b.kv.Delete(ctx, key(KeyAccessToken)),
		b.kv.Delete(ctx, key(KeyRefreshToken)),
	)
}

func (b *BadgerStore) Close() error {
	if !b.owns {
		return nil
	}
	return b.kv.Close()
}

func (b *BadgerStore) put(ctx context.Context, name, value string) error {
	if value == "" {
		return b.kv.Delete(ctx, key(name))
	}
	return b.kv.Set(ctx, key(name), []byte(value))
}

func key(name string) []byte {
	return []byte(badgerPrefix + name)
}

package connection

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/yndnr/littlesteps-go/internal/cli/config"
	"github.com/yndnr/littlesteps-go/internal/session"
	"github.com/yndnr/littlesteps-go/internal/telemetry/logger"
)

func storeConfig(t *testing.T, kind string, encrypt bool) *config.CLIConfig {
	t.Helper()
	dir := t.TempDir()
	cfg := config.Default()
	cfg.Session.Store = kind
	cfg.Session.Encrypt = encrypt
	cfg.Session.KeyFile = filepath.Join(dir, "session.key")
	switch kind {
	case config.StoreBadger:
		cfg.Session.Path = filepath.Join(dir, "session.db")
	default:
		cfg.Session.Path = filepath.Join(dir, "session.json")
	}
	return cfg
}

func TestOpenStore_Memory(t *testing.T) {
	store, err := OpenStore(storeConfig(t, config.StoreMemory, false), logger.Nop(), nil)
	if err != nil {
		t.Fatalf("OpenStore() error = %v", err)
	}
	if _, ok := store.(*session.MemoryStore); !ok {
		t.Errorf("store = %T, want *session.MemoryStore", store)
	}
}

func TestOpenStore_FileSealed(t *testing.T) {
	cfg := storeConfig(t, config.StoreFile, true)
	store, err := OpenStore(cfg, logger.Nop(), nil)
	if err != nil {
		t.Fatalf("OpenStore() error = %v", err)
	}
	fs, ok := store.(*session.FileStore)
	if !ok {
		t.Fatalf("store = %T, want *session.FileStore", store)
	}
	if !fs.Sealed() {
		t.Error("encrypted store should be sealed")
	}

	ctx := context.Background()
	want := session.Tokens{AccessToken: "access-abc", RefreshToken: "refresh-xyz"}
	if err := store.Save(ctx, want); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	raw, err := os.ReadFile(cfg.SessionPath())
	if err != nil {
		t.Fatal(err)
	}
	if bytes.Contains(raw, []byte("refresh-xyz")) {
		t.Error("sealed session file contains the plaintext refresh token")
	}
	if _, err := os.Stat(cfg.KeyPath()); err != nil {
		t.Errorf("key file not created: %v", err)
	}

	reopened, err := OpenStore(cfg, logger.Nop(), nil)
	if err != nil {
		t.Fatalf("OpenStore() again error = %v", err)
	}
	got, err := reopened.Load(ctx)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got != want {
		t.Errorf("Load() = %+v, want %+v", got, want)
	}
}

func TestOpenStore_FilePlain(t *testing.T) {
	cfg := storeConfig(t, config.StoreFile, false)
	store, err := OpenStore(cfg, logger.Nop(), nil)
	if err != nil {
		t.Fatalf("OpenStore() error = %v", err)
	}
	if store.(*session.FileStore).Sealed() {
		t.Error("store should not be sealed")
	}
	if _, err := os.Stat(cfg.KeyPath()); !os.IsNotExist(err) {
		t.Error("no key file should be created without encryption")
	}
}

func TestOpenStore_Badger(t *testing.T) {
	cfg := storeConfig(t, config.StoreBadger, false)
	reg := prometheus.NewRegistry()

	store, err := OpenStore(cfg, logger.Nop(), reg)
	if err != nil {
		t.Fatalf("OpenStore() error = %v", err)
	}

	ctx := context.Background()
	want := session.Tokens{AccessToken: "a", RefreshToken: "r"}
	if err := store.Save(ctx, want); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	reopened, err := OpenStore(cfg, logger.Nop(), nil)
	if err != nil {
		t.Fatalf("OpenStore() again error = %v", err)
	}
	defer reopened.Close()
	got, err := reopened.Load(ctx)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got != want {
		t.Errorf("Load() = %+v, want %+v", got, want)
	}
}

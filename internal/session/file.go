package session

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/yndnr/littlesteps-go/internal/infra/confloader"
	"github.com/yndnr/littlesteps-go/internal/telemetry/logger"
	"github.com/yndnr/littlesteps-go/pkg/crypto/adaptive"
	"github.com/yndnr/littlesteps-go/pkg/token"
)

// sealedMagic prefixes a sealed session file.
var sealedMagic = []byte("LSS1")

// keyInfo separates the session file key from other keys derived from the
// same secret.
const keyInfo = "littlesteps session file v1"

// FileStore persists the token pair in a JSON file.
type FileStore struct {
	path string
	box  *adaptive.Box
	mu   sync.Mutex
	log  logger.Logger
}

var _ Store = (*FileStore)(nil)

// FileOption configures a FileStore.
type FileOption func(*FileStore)

// WithSealing encrypts the file contents with box.
func WithSealing(box *adaptive.Box) FileOption {
	return func(f *FileStore) {
		f.box = box
	}
}

// WithFileLogger sets the logger used by Watch.
func WithFileLogger(l logger.Logger) FileOption {
	return func(f *FileStore) {
		f.log = l
	}
}

// NewFileStore creates a store at path. The parent directory is created
// with mode 0700 if missing.
func NewFileStore(path string, opts ...FileOption) (*FileStore, error) {
	if path == "" {
		return nil, errors.New("session: file store path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("session: create dir: %w", err)
	}

	f := &FileStore{path: filepath.Clean(path), log: logger.Default()}
	for _, opt := range opts {
		opt(f)
	}
	return f, nil
}

// Path returns the session file path.
func (f *FileStore) Path() string {
	return f.path
}

// Sealed reports whether the store encrypts its contents.
func (f *FileStore) Sealed() bool {
	return f.box != nil
}

func (f *FileStore) Load(ctx context.Context) (Tokens, error) {
	if err := ctx.Err(); err != nil {
		return Tokens{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	data, err := os.ReadFile(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		return Tokens{}, nil
	}
	if err != nil {
		return Tokens{}, fmt.Errorf("read session file: %w", err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return Tokens{}, nil
	}

	if bytes.HasPrefix(data, sealedMagic) {
		if f.box == nil {
			return Tokens{}, errors.New("session file is encrypted but no key is configured")
		}
		data, err = f.box.Open(data[len(sealedMagic):], f.aad())
		if err != nil {
			return Tokens{}, fmt.Errorf("open session file: %w", err)
		}
	}

	var t Tokens
	if err := json.Unmarshal(data, &t); err != nil {
		return Tokens{}, fmt.Errorf("decode session file: %w", err)
	}
	return t, nil
}

func (f *FileStore) Save(ctx context.Context, t Tokens) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if t.Empty() {
		return f.Clear(ctx)
	}

	data, err := json.Marshal(t)
	if err != nil {
		return err
	}
	if f.box != nil {
		sealed, err := f.box.Seal(data, f.aad())
		if err != nil {
			return fmt.Errorf("seal session file: %w", err)
		}
		data = append(append([]byte(nil), sealedMagic...), sealed...)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	return writeFileAtomic(f.path, data, 0o600)
}

// Clear removes the session file. A missing file is not an error.
func (f *FileStore) Clear(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := os.Remove(f.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove session file: %w", err)
	}
	return nil
}

func (f *FileStore) Close() error { return nil }

// Watch calls onChange whenever the session file is written, replaced or
// removed, until ctx is done. Changes made through this store are
// reported too; Session.Reload ignores them because nothing differs.
func (f *FileStore) Watch(ctx context.Context, onChange func()) error {
	w, err := confloader.NewWatcher(confloader.WithWatcherLogger(f.log.Slog()))
	if err != nil {
		return fmt.Errorf("session: watch: %w", err)
	}
	if err := w.Watch(f.path); err != nil {
		w.Stop()
		return fmt.Errorf("session: watch %s: %w", f.path, err)
	}
	w.OnChange(func(string) { onChange() })
	w.StartAsync()

	go func() {
		<-ctx.Done()
		w.Stop()
	}()
	return nil
}

// aad binds sealed contents to the file name, so a sealed file copied
// under another name does not open.
func (f *FileStore) aad() []byte {
	return []byte(filepath.Base(f.path))
}

// LoadOrCreateKey returns the sealing key derived from the secret in
// keyPath, generating the secret (mode 0600) on first use.
func LoadOrCreateKey(keyPath string) (*adaptive.Box, error) {
	secret, err := os.ReadFile(keyPath)
	if errors.Is(err, fs.ErrNotExist) {
		s, genErr := token.Generate()
		if genErr != nil {
			return nil, genErr
		}
		if err := os.MkdirAll(filepath.Dir(keyPath), 0o700); err != nil {
			return nil, fmt.Errorf("session: create key dir: %w", err)
		}
		if err := writeFileAtomic(keyPath, []byte(s+"\n"), 0o600); err != nil {
			return nil, fmt.Errorf("session: write key: %w", err)
		}
		secret = []byte(s)
	} else if err != nil {
		return nil, fmt.Errorf("session: read key: %w", err)
	}

	key, err := adaptive.DeriveKey([]byte(strings.TrimSpace(string(secret))), nil, keyInfo)
	if err != nil {
		return nil, fmt.Errorf("session: derive key: %w", err)
	}
	return adaptive.New(key)
}

// writeFileAtomic writes data to a temp file in the same directory and
// renames it over path.
func writeFileAtomic(path string, data []byte, perm os.FileMode) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if err := tmp.Chmod(perm); err != nil {
		tmp.Close()
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}

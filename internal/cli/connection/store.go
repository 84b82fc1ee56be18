package connection

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/yndnr/littlesteps-go/internal/cli/config"
	"github.com/yndnr/littlesteps-go/internal/session"
	"github.com/yndnr/littlesteps-go/internal/storage"
	"github.com/yndnr/littlesteps-go/internal/telemetry/logger"
)

// OpenStore opens the session store cfg selects. Badger metrics are
// registered on reg when it is non-nil.
func OpenStore(cfg *config.CLIConfig, log logger.Logger, reg prometheus.Registerer) (session.Store, error) {
	path := cfg.SessionPath()

	switch cfg.Session.Store {
	case config.StoreMemory:
		return session.NewMemoryStore(), nil

	case config.StoreBadger:
		if err := os.MkdirAll(path, 0o700); err != nil {
			return nil, fmt.Errorf("create session dir: %w", err)
		}
		kvCfg := storage.DefaultKVConfig(path)
		kvCfg.Badger.GCInterval = "0"
		kv, err := storage.NewBadgerEngine(kvCfg, log.Slog())
		if err != nil {
			return nil, fmt.Errorf("open session db: %w", err)
		}
		if reg != nil {
			if err := kv.RegisterMetrics(reg); err != nil {
				log.Debug("badger metrics not registered", "error", err)
			}
		}
		return session.NewBadgerStore(kv, true), nil

	default:
		if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
			return nil, fmt.Errorf("create session dir: %w", err)
		}
		opts := []session.FileOption{session.WithFileLogger(log)}
		if cfg.Session.Encrypt {
			box, err := session.LoadOrCreateKey(cfg.KeyPath())
			if err != nil {
				return nil, err
			}
			opts = append(opts, session.WithSealing(box))
		}
		return session.NewFileStore(path, opts...)
	}
}

package connection

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/yndnr/littlesteps-go/internal/cli/config"
	"github.com/yndnr/littlesteps-go/internal/gateway"
	"github.com/yndnr/littlesteps-go/internal/infra/buildinfo"
	"github.com/yndnr/littlesteps-go/internal/session"
	"github.com/yndnr/littlesteps-go/internal/telemetry/logger"
	"github.com/yndnr/littlesteps-go/internal/telemetry/metric"
)

// Manager owns the gateway client for one CLI process. The client, its
// session and the backing store are built on first use and shared by
// every command run in that process, including REPL lines.
type Manager struct {
	cfg     *config.CLIConfig
	log     logger.Logger
	metrics *metric.Registry

	mu     sync.Mutex
	client *gateway.Client
	store  session.Store
	ready  bool
	closed bool
}

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

// WithManagerLogger sets the logger handed to the client and store.
func WithManagerLogger(l logger.Logger) ManagerOption {
	return func(m *Manager) {
		m.log = l
	}
}

// WithMetrics shares a registry, for example with `system metrics`.
func WithMetrics(r *metric.Registry) ManagerOption {
	return func(m *Manager) {
		m.metrics = r
	}
}

// NewManager creates a manager for cfg. Nothing is opened yet.
func NewManager(cfg *config.CLIConfig, opts ...ManagerOption) *Manager {
	m := &Manager{
		cfg: cfg,
		log: logger.Default(),
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.metrics == nil {
		m.metrics = metric.NewRegistry()
	}
	return m
}

// Config returns the effective configuration.
func (m *Manager) Config() *config.CLIConfig {
	return m.cfg
}

// Metrics returns the registry the client records into.
func (m *Manager) Metrics() *metric.Registry {
	return m.metrics
}

// Client returns the gateway client, building it on first call. The
// persisted session is restored and the current user fetched before the
// client is returned.
func (m *Manager) Client(ctx context.Context) (*gateway.Client, error) {
	c, err := m.open()
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	ready := m.ready
	m.mu.Unlock()
	if ready {
		return c, nil
	}

	if err := c.Initialize(ctx); err != nil {
		return nil, err
	}
	m.mu.Lock()
	m.ready = true
	m.mu.Unlock()
	return c, nil
}

func (m *Manager) open() (*gateway.Client, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil, errors.New("connection manager is closed")
	}
	if m.client != nil {
		return m.client, nil
	}

	g := m.cfg.Gateway
	endpoints, err := gateway.DefaultEndpoints().Merge(g.Endpoints)
	if err != nil {
		return nil, err
	}
	hc, err := NewHTTPClient(g)
	if err != nil {
		return nil, err
	}

	store, err := OpenStore(m.cfg, m.log, m.metrics.Registerer())
	if err != nil {
		return nil, fmt.Errorf("open session store: %w", err)
	}
	sess := session.New(store, session.WithLogger(m.log))

	client, err := gateway.New(g.URL, sess,
		gateway.WithHTTPClient(hc),
		gateway.WithEndpoints(endpoints),
		gateway.WithRateLimit(g.RateLimit, g.RateBurst),
		gateway.WithRecorder(m.metrics),
		gateway.WithLogger(m.log),
		gateway.WithUserAgent(buildinfo.UserAgent()),
	)
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	m.log.Debug("gateway client ready",
		"url", client.BaseURL(),
		"store", m.cfg.Session.Store,
		"socket", g.Socket,
	)
	m.client = client
	m.store = store
	return client, nil
}

// Watch follows session changes made by other littlesteps-cli processes
// until ctx is done. Only the file store can be watched; other stores
// return nil without doing anything.
func (m *Manager) Watch(ctx context.Context) error {
	c, err := m.open()
	if err != nil {
		return err
	}
	fs, ok := m.store.(*session.FileStore)
	if !ok {
		return nil
	}

	sess := c.Session()
	return fs.Watch(ctx, func() {
		changed, err := sess.Reload(ctx)
		if err != nil {
			m.log.Warn("session reload failed", "error", err)
			return
		}
		if !changed {
			return
		}
		if tok := sess.AccessToken(); tok != "" && sess.Snapshot().User == nil {
			if err := c.FetchUserDetails(ctx, tok); err != nil {
				m.log.Debug("identity refresh after reload failed", "error", err)
			}
		}
	})
}

// Close releases the session store. It is safe to call more than once.
func (m *Manager) Close(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil
	}
	m.closed = true
	if m.store == nil {
		return nil
	}
	return m.store.Close()
}

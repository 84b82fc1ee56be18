package config

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"
)

// Session store kinds.
const (
	StoreFile   = "file"
	StoreBadger = "badger"
	StoreMemory = "memory"
)

// CLIConfig is the configuration for littlesteps-cli.
type CLIConfig struct {
	Gateway GatewayConfig `koanf:"gateway" json:"gateway" yaml:"gateway"`
	Session SessionConfig `koanf:"session" json:"session" yaml:"session"`
	Log     LogConfig     `koanf:"log" json:"log" yaml:"log"`

	// Output is the default output format: table, json or yaml.
	Output string `koanf:"output" json:"output" yaml:"output"`
	// HistoryFile stores REPL history. Empty disables it.
	HistoryFile string `koanf:"history_file" json:"history_file" yaml:"history_file"`

	// Profiles are named gateway settings selected with --profile.
	Profiles map[string]GatewayConfig `koanf:"profiles" json:"profiles,omitempty" yaml:"profiles,omitempty"`
	Profile  string                   `koanf:"profile" json:"profile,omitempty" yaml:"profile,omitempty"`
}

// GatewayConfig describes how to reach the API gateway.
type GatewayConfig struct {
	URL string `koanf:"url" json:"url,omitempty" yaml:"url,omitempty"`
	// Socket, when set, dials a unix socket instead of the URL's host.
	Socket  string        `koanf:"socket" json:"socket,omitempty" yaml:"socket,omitempty"`
	Timeout time.Duration `koanf:"timeout" json:"timeout,omitempty" yaml:"timeout,omitempty"`
	// CAFile adds PEM certificates to the system roots.
	CAFile             string `koanf:"ca_file" json:"ca_file,omitempty" yaml:"ca_file,omitempty"`
	InsecureSkipVerify bool   `koanf:"insecure_skip_verify" json:"insecure_skip_verify,omitempty" yaml:"insecure_skip_verify,omitempty"`
	// Endpoints overrides service base paths, keyed by service name.
	Endpoints map[string]string `koanf:"endpoints" json:"endpoints,omitempty" yaml:"endpoints,omitempty"`
	// RateLimit is requests per second; 0 disables throttling.
	RateLimit float64 `koanf:"rate_limit" json:"rate_limit,omitempty" yaml:"rate_limit,omitempty"`
	RateBurst int     `koanf:"rate_burst" json:"rate_burst,omitempty" yaml:"rate_burst,omitempty"`
}

// SessionConfig selects where the token pair is persisted.
type SessionConfig struct {
	Store string `koanf:"store" json:"store" yaml:"store"`
	// Path is the session file or badger directory. Empty picks a default
	// under Dir().
	Path    string `koanf:"path" json:"path,omitempty" yaml:"path,omitempty"`
	Encrypt bool   `koanf:"encrypt" json:"encrypt" yaml:"encrypt"`
	KeyFile string `koanf:"key_file" json:"key_file,omitempty" yaml:"key_file,omitempty"`
}

// LogConfig controls diagnostic logging on stderr.
type LogConfig struct {
	Level  string `koanf:"level" json:"level" yaml:"level"`
	Format string `koanf:"format" json:"format" yaml:"format"`
}

// Default returns the default CLI configuration.
func Default() *CLIConfig {
	return &CLIConfig{
		Gateway: GatewayConfig{
			URL:       "http://localhost:8080",
			Timeout:   30 * time.Second,
			RateBurst: 1,
		},
		Session: SessionConfig{
			Store:   StoreFile,
			Encrypt: true,
		},
		Log: LogConfig{
			Level:  "warn",
			Format: "text",
		},
		Output:      "table",
		HistoryFile: filepath.Join(Dir(), "history"),
		Profiles:    make(map[string]GatewayConfig),
	}
}

// Validate checks values that would otherwise fail later with a less
// helpful message.
func (c *CLIConfig) Validate() error {
	if strings.TrimSpace(c.Gateway.URL) == "" {
		return fmt.Errorf("gateway.url is required")
	}
	if c.Gateway.Timeout < 0 {
		return fmt.Errorf("gateway.timeout must not be negative")
	}
	if c.Gateway.RateLimit < 0 {
		return fmt.Errorf("gateway.rate_limit must not be negative")
	}
	switch c.Session.Store {
	case StoreFile, StoreBadger, StoreMemory:
	default:
		return fmt.Errorf("session.store must be file, badger or memory, got %q", c.Session.Store)
	}
	switch strings.ToLower(c.Output) {
	case "", "table", "json", "yaml":
	default:
		return fmt.Errorf("output must be table, json or yaml, got %q", c.Output)
	}
	if c.Profile != "" {
		if _, ok := c.Profiles[c.Profile]; !ok {
			return fmt.Errorf("profile %q is not defined", c.Profile)
		}
	}
	return nil
}

// ApplyProfile overlays the selected profile's non-zero fields onto
// Gateway.
func (c *CLIConfig) ApplyProfile() {
	p, ok := c.Profiles[c.Profile]
	if c.Profile == "" || !ok {
		return
	}
	g := &c.Gateway
	if p.URL != "" {
		g.URL = p.URL
	}
	if p.Socket != "" {
		g.Socket = p.Socket
	}
	if p.Timeout > 0 {
		g.Timeout = p.Timeout
	}
	if p.CAFile != "" {
		g.CAFile = p.CAFile
	}
	if p.InsecureSkipVerify {
		g.InsecureSkipVerify = true
	}
	if p.RateLimit > 0 {
		g.RateLimit = p.RateLimit
	}
	if p.RateBurst > 0 {
		g.RateBurst = p.RateBurst
	}
	if len(p.Endpoints) > 0 {
		merged := make(map[string]string, len(g.Endpoints)+len(p.Endpoints))
		for k, v := range g.Endpoints {
			merged[k] = v
		}
		for k, v := range p.Endpoints {
			merged[k] = v
		}
		g.Endpoints = merged
	}
}

// SessionPath returns the session file or directory for the configured
// store.
func (c *CLIConfig) SessionPath() string {
	if c.Session.Path != "" {
		return expandHome(c.Session.Path)
	}
	if c.Session.Store == StoreBadger {
		return filepath.Join(Dir(), "session.db")
	}
	return filepath.Join(Dir(), "session.json")
}

// KeyPath returns the sealing key file.
func (c *CLIConfig) KeyPath() string {
	if c.Session.KeyFile != "" {
		return expandHome(c.Session.KeyFile)
	}
	return filepath.Join(Dir(), "session.key")
}

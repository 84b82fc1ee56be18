package confloader

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

type testConfig struct {
	Gateway struct {
		URL            string        `koanf:"url"`
		RequestTimeout time.Duration `koanf:"request_timeout"`
	} `koanf:"gateway"`
	Session struct {
		Store   string `koanf:"store"`
		Encrypt bool   `koanf:"encrypt"`
	} `koanf:"session"`
	Output string `koanf:"output"`
}

func defaults() testConfig {
	var c testConfig
	c.Gateway.URL = "http://localhost:8080"
	c.Gateway.RequestTimeout = 30 * time.Second
	c.Session.Store = "file"
	c.Output = "table"
	return c
}

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}
	return path
}

func TestNewLoader(t *testing.T) {
	l := NewLoader()
	if l.envPrefix != DefaultEnvPrefix {
		t.Errorf("envPrefix = %q, want %q", l.envPrefix, DefaultEnvPrefix)
	}

	l = NewLoader(WithEnvPrefix("TEST_"), WithConfigFile("/path/to/config.yaml"))
	if l.envPrefix != "TEST_" {
		t.Errorf("envPrefix = %q, want %q", l.envPrefix, "TEST_")
	}
	if l.FilePath() != "/path/to/config.yaml" {
		t.Errorf("FilePath() = %q", l.FilePath())
	}
}

func TestLoader_LoadFile(t *testing.T) {
	path := writeFile(t, `
gateway:
  url: "https://gw.example.com"
session:
  encrypt: true
`)

	l := NewLoader()
	if err := l.LoadFile(path); err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}

	if got := l.GetString("gateway.url"); got != "https://gw.example.com" {
		t.Errorf("gateway.url = %q", got)
	}
	if !l.GetBool("session.encrypt") {
		t.Error("session.encrypt should be true")
	}
}

func TestLoader_LoadFile_NotFound(t *testing.T) {
	l := NewLoader()
	if err := l.LoadFile("/nonexistent/config.yaml"); err == nil {
		t.Error("LoadFile() should return error for nonexistent file")
	}
	if err := l.LoadFile(""); err != nil {
		t.Errorf("LoadFile(\"\") should not error, got: %v", err)
	}
}

func TestLoader_LoadEnv(t *testing.T) {
	t.Setenv("LITTLESTEPS_GATEWAY__URL", "http://env:9000")
	t.Setenv("LITTLESTEPS_GATEWAY__REQUEST_TIMEOUT", "5s")
	t.Setenv("LITTLESTEPS_OUTPUT", "json")

	l := NewLoader()
	if err := l.LoadEnv(); err != nil {
		t.Fatalf("LoadEnv() error = %v", err)
	}

	if got := l.GetString("gateway.url"); got != "http://env:9000" {
		t.Errorf("gateway.url = %q", got)
	}
	if got := l.GetString("gateway.request_timeout"); got != "5s" {
		t.Errorf("gateway.request_timeout = %q", got)
	}
	if got := l.GetString("output"); got != "json" {
		t.Errorf("output = %q", got)
	}
}

func TestLoader_Load_Priority(t *testing.T) {
	path := writeFile(t, `
gateway:
  url: "http://file:1"
  request_timeout: 10s
session:
  store: badger
output: yaml
`)
	t.Setenv("LITTLESTEPS_GATEWAY__URL", "http://env:2")

	cfg := defaults()
	l := NewLoader(WithConfigFile(path))
	err := l.Load(&cfg, map[string]any{"output": "json"})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Gateway.URL != "http://env:2" {
		t.Errorf("env should override file, got %q", cfg.Gateway.URL)
	}
	if cfg.Gateway.RequestTimeout != 10*time.Second {
		t.Errorf("request_timeout = %v, want 10s", cfg.Gateway.RequestTimeout)
	}
	if cfg.Session.Store != "badger" {
		t.Errorf("session.store = %q", cfg.Session.Store)
	}
	if cfg.Output != "json" {
		t.Errorf("overrides should win, got %q", cfg.Output)
	}
	if !l.IsLoaded() {
		t.Error("IsLoaded() should be true after Load")
	}
}

func TestLoader_Load_KeepsDefaults(t *testing.T) {
	cfg := defaults()
	l := NewLoader(WithEnvPrefix("LITTLESTEPS_TEST_UNUSED_"))
	if err := l.Load(&cfg, nil); err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg != defaults() {
		t.Errorf("Load() with no sources changed defaults: %+v", cfg)
	}
}

func TestLoader_Load_OptionalFile(t *testing.T) {
	cfg := defaults()
	missing := filepath.Join(t.TempDir(), "absent.yaml")

	if err := NewLoader(WithOptionalConfigFile(missing)).Load(&cfg, nil); err != nil {
		t.Errorf("optional missing file should not fail: %v", err)
	}
	if err := NewLoader(WithConfigFile(missing)).Load(&cfg, nil); err == nil {
		t.Error("required missing file should fail")
	}
}

func TestLoader_LoadMap_Nested(t *testing.T) {
	l := NewLoader()
	if err := l.LoadMap(map[string]any{"session.store": "memory"}); err != nil {
		t.Fatal(err)
	}
	if got := l.GetString("session.store"); got != "memory" {
		t.Errorf("session.store = %q", got)
	}
}

func TestLoader_InvalidYAML(t *testing.T) {
	path := writeFile(t, "gateway: [unclosed")
	cfg := defaults()
	if err := NewLoader(WithConfigFile(path)).Load(&cfg, nil); err == nil {
		t.Error("Load() should fail on invalid YAML")
	}
}

package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/yndnr/littlesteps-go/internal/infra/confloader"
)

// Dir returns the per-user state directory, ~/.littlesteps.
func Dir() string {
	homeDir, err := os.UserHomeDir()
	if err != nil || homeDir == "" {
		return ".littlesteps"
	}
	return filepath.Join(homeDir, ".littlesteps")
}

// DefaultConfigPath returns the default CLI config file path.
func DefaultConfigPath() string {
	return filepath.Join(Dir(), "cli.yaml")
}

// Load layers the file at path, the environment and overrides (dotted
// keys, usually from flags) over Default. An empty path means the
// default location, which may be absent; an explicit path must exist.
func Load(path string, overrides map[string]any) (*CLIConfig, error) {
	opt := confloader.WithConfigFile(expandHome(path))
	if path == "" {
		opt = confloader.WithOptionalConfigFile(DefaultConfigPath())
	}

	cfg := Default()
	loader := confloader.NewLoader(opt)
	if err := loader.Load(cfg, overrides); err != nil {
		return nil, err
	}
	cfg.ApplyProfile()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Save writes cfg as YAML with owner-only permissions.
func Save(cfg *CLIConfig, path string) error {
	if path == "" {
		path = DefaultConfigPath()
	}
	path = expandHome(path)

	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

func expandHome(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, strings.TrimPrefix(path, "~"))
		}
	}
	return path
}

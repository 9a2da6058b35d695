// Package config loads REDLINE_HOME configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// DiffConfig holds the visual diff span colors.
type DiffConfig struct {
	ProposedColor string `yaml:"proposed_color"`
	RemovedColor  string `yaml:"removed_color"`
}

// SearchConfig holds search resolver settings.
type SearchConfig struct {
	PreviewChars  int `yaml:"preview_chars"`
	ContextRadius int `yaml:"context_radius"`
}

// Config holds redline configuration.
type Config struct {
	Version string       `yaml:"version"`
	Diff    DiffConfig   `yaml:"diff,omitempty"`
	Search  SearchConfig `yaml:"search,omitempty"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Version: "1",
		Diff: DiffConfig{
			ProposedColor: "green",
			RemovedColor:  "red",
		},
		Search: SearchConfig{
			PreviewChars:  400,
			ContextRadius: 800,
		},
	}
}

// Home returns the REDLINE_HOME path, respecting the env var.
func Home() string {
	if h := os.Getenv("REDLINE_HOME"); h != "" {
		return h
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", ".redline")
	}
	return filepath.Join(home, ".redline")
}

// Init creates the REDLINE_HOME directory with a default config.
func Init(home string, force bool) error {
	if _, err := os.Stat(home); err == nil && !force {
		return fmt.Errorf("REDLINE_HOME already exists at %s (use --force to reinitialize)", home)
	}
	if err := os.MkdirAll(home, 0755); err != nil {
		return fmt.Errorf("failed to create %s: %w", home, err)
	}
	cfg := DefaultConfig()
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	if err := os.WriteFile(filepath.Join(home, "config.yaml"), data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// Load reads an existing REDLINE_HOME config. Missing fields are filled
// from defaults; a missing home falls back to defaults entirely.
func Load(home string) (Config, error) {
	cfgPath := filepath.Join(home, "config.yaml")
	data, err := os.ReadFile(cfgPath)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultConfig(), nil
		}
		return Config{}, fmt.Errorf("cannot read config at %s: %w", cfgPath, err)
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("invalid config.yaml: %w", err)
	}
	if cfg.Diff.ProposedColor == "" {
		cfg.Diff.ProposedColor = "green"
	}
	if cfg.Diff.RemovedColor == "" {
		cfg.Diff.RemovedColor = "red"
	}
	return cfg, nil
}

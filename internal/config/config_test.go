package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestHomeRespectsEnv(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("REDLINE_HOME", dir)
	if got := Home(); got != dir {
		t.Errorf("Home() = %q, want %q", got, dir)
	}
}

func TestInitAndLoad(t *testing.T) {
	home := filepath.Join(t.TempDir(), "redline-home")

	if err := Init(home, false); err != nil {
		t.Fatalf("Init: %v", err)
	}
	if _, err := os.Stat(filepath.Join(home, "config.yaml")); err != nil {
		t.Fatalf("config.yaml not written: %v", err)
	}

	cfg, err := Load(home)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg != DefaultConfig() {
		t.Errorf("loaded config = %+v, want defaults", cfg)
	}

	// Existing home refuses a second init unless forced.
	if err := Init(home, false); err == nil {
		t.Error("expected error for existing home")
	}
	if err := Init(home, true); err != nil {
		t.Errorf("forced init failed: %v", err)
	}
}

func TestLoadMissingHomeFallsBackToDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nowhere"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Diff.ProposedColor != "green" || cfg.Search.PreviewChars != 400 {
		t.Errorf("defaults not applied: %+v", cfg)
	}
}

func TestLoadFillsMissingFields(t *testing.T) {
	home := t.TempDir()
	partial := "version: \"1\"\ndiff:\n  proposed_color: cyan\n"
	if err := os.WriteFile(filepath.Join(home, "config.yaml"), []byte(partial), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(home)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Diff.ProposedColor != "cyan" {
		t.Errorf("explicit value lost: %q", cfg.Diff.ProposedColor)
	}
	if cfg.Diff.RemovedColor != "red" {
		t.Errorf("missing color not defaulted: %q", cfg.Diff.RemovedColor)
	}
}

func TestLoadInvalidYAML(t *testing.T) {
	home := t.TempDir()
	if err := os.WriteFile(filepath.Join(home, "config.yaml"), []byte("{{nope"), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := Load(home); err == nil {
		t.Error("expected error for invalid yaml")
	}
}

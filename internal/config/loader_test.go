package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad(t *testing.T) {
	content := `{
	// This is a JSONC comment
	"gateway": {
		"host": "0.0.0.0",
		"port": 9999
	},
	"sim": {
		"turn_interval": "250ms",
		"autosave_every": 5,
		"max_turns": 200
	},
	"journal": {
		"path": "${{ .Env.DRUDGE_JOURNAL }}"
	}
}`

	dir := t.TempDir()
	path := filepath.Join(dir, "config.jsonc")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	t.Setenv("DRUDGE_JOURNAL", "/tmp/journal-test.db")

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}

	if cfg.Gateway.Host != "0.0.0.0" {
		t.Errorf("expected host 0.0.0.0, got %s", cfg.Gateway.Host)
	}
	if cfg.Gateway.Port != 9999 {
		t.Errorf("expected port 9999, got %d", cfg.Gateway.Port)
	}
	if cfg.Sim.TurnInterval.Duration() != 250*time.Millisecond {
		t.Errorf("expected turn_interval 250ms, got %s", cfg.Sim.TurnInterval.Duration())
	}
	if cfg.Sim.AutosaveEvery != 5 {
		t.Errorf("expected autosave_every 5, got %d", cfg.Sim.AutosaveEvery)
	}
	if cfg.Sim.MaxTurns != 200 {
		t.Errorf("expected max_turns 200, got %d", cfg.Sim.MaxTurns)
	}
	if cfg.Journal.Path != "/tmp/journal-test.db" {
		t.Errorf("expected journal path /tmp/journal-test.db, got %s", cfg.Journal.Path)
	}
}

func TestLoadDefaults(t *testing.T) {
	content := `{}`
	dir := t.TempDir()
	path := filepath.Join(dir, "config.jsonc")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}

	if cfg.Gateway.Host != "127.0.0.1" {
		t.Errorf("expected default host 127.0.0.1, got %s", cfg.Gateway.Host)
	}
	if cfg.Gateway.Port != 18730 {
		t.Errorf("expected default port 18730, got %d", cfg.Gateway.Port)
	}
	if cfg.Events.BufferSize != 1024 {
		t.Errorf("expected default buffer 1024, got %d", cfg.Events.BufferSize)
	}
	if cfg.Sim.AutosaveEvery != 25 {
		t.Errorf("expected default autosave_every 25, got %d", cfg.Sim.AutosaveEvery)
	}
	if cfg.Sim.MaxTurns != 10000 {
		t.Errorf("expected default max_turns 10000, got %d", cfg.Sim.MaxTurns)
	}
	if cfg.Journal.Path == "" {
		t.Error("expected default journal path, got empty")
	}
	if len(cfg.Items.Dirs) != 1 {
		t.Errorf("expected one default item dir, got %d", len(cfg.Items.Dirs))
	}
}

func TestLoadOrDefault_MissingFile(t *testing.T) {
	cfg, err := LoadOrDefault(filepath.Join(t.TempDir(), "nope.jsonc"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Gateway.Port != 18730 {
		t.Errorf("expected default port 18730, got %d", cfg.Gateway.Port)
	}
}

func TestLoadOrDefault_BadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.jsonc")
	if err := os.WriteFile(path, []byte(`{not json`), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadOrDefault(path); err == nil {
		t.Fatal("expected error for malformed config")
	}
}

func TestExpandEnvTemplates(t *testing.T) {
	t.Setenv("TEST_KEY", "my-secret")
	result := expandEnvTemplates(`{"key": "${{ .Env.TEST_KEY }}"}`)
	expected := `{"key": "my-secret"}`
	if result != expected {
		t.Errorf("expected %s, got %s", expected, result)
	}
}

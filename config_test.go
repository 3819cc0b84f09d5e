package shaderbridge

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bridge.yaml")
	src := `socket_path: /tmp/sb-test.sock
output_dir: out
diagnostics_path: diag.json
poll_interval: 100ms
render:
  width: 1280
  height: 720
`
	if err := os.WriteFile(path, []byte(src), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfigFile(path)
	if err != nil {
		t.Fatalf("LoadConfigFile() error: %v", err)
	}
	if cfg.SocketPath != "/tmp/sb-test.sock" || cfg.OutputDir != "out" {
		t.Errorf("cfg = %+v", cfg)
	}
	if cfg.PollInterval != 100*time.Millisecond {
		t.Errorf("poll interval = %v, want 100ms", cfg.PollInterval)
	}
	if cfg.Render.Width != 1280 || cfg.Render.Height != 720 {
		t.Errorf("render = %+v", cfg.Render)
	}

	// Unset fields fall back to defaults.
	if cfg.SessionDir != "sessions" || cfg.BaselineDir != "baselines" {
		t.Errorf("defaults not applied: session %q, baseline %q", cfg.SessionDir, cfg.BaselineDir)
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.SocketPath == "" || cfg.PollInterval <= 0 {
		t.Errorf("DefaultConfig() = %+v", cfg)
	}
	if cfg.Render.Width != 800 || cfg.Render.Height != 600 {
		t.Errorf("default resolution = %dx%d, want 800x600", cfg.Render.Width, cfg.Render.Height)
	}
}

func TestLoadConfigFileBadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte(":\n  - ["), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadConfigFile(path); err == nil {
		t.Error("LoadConfigFile() accepted malformed YAML")
	}
}

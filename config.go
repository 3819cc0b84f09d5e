package shaderbridge

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all engine configuration.
type Config struct {
	// SocketPath is where the bridge server listens.
	SocketPath string `yaml:"socket_path"`

	// OutputDir receives exported frames and sequences.
	OutputDir string `yaml:"output_dir"`

	// SessionDir stores session snapshots.
	SessionDir string `yaml:"session_dir"`

	// BaselineDir stores baseline renders and diff images.
	BaselineDir string `yaml:"baseline_dir"`

	// LibraryDir holds reusable shader files surfaced by the library
	// listing.
	LibraryDir string `yaml:"library_dir"`

	// DiagnosticsPath is the JSON file rewritten after every compile;
	// empty disables the diagnostics channel.
	DiagnosticsPath string `yaml:"diagnostics_path"`

	// PollInterval is the mailbox poll cadence.
	PollInterval time.Duration `yaml:"poll_interval"`

	// Render sets the default frame resolution.
	Render RenderConfig `yaml:"render"`
}

// RenderConfig controls default render inputs.
type RenderConfig struct {
	Width  int `yaml:"width"`
	Height int `yaml:"height"`
}

func (c *Config) defaults() {
	if c.SocketPath == "" {
		c.SocketPath = filepath.Join(os.TempDir(), "shaderbridge.sock")
	}
	if c.OutputDir == "" {
		c.OutputDir = "renders"
	}
	if c.SessionDir == "" {
		c.SessionDir = "sessions"
	}
	if c.BaselineDir == "" {
		c.BaselineDir = "baselines"
	}
	if c.DiagnosticsPath == "" {
		c.DiagnosticsPath = filepath.Join(c.OutputDir, "diagnostics.json")
	}
	if c.PollInterval <= 0 {
		c.PollInterval = 250 * time.Millisecond
	}
	if c.Render.Width <= 0 {
		c.Render.Width = 800
	}
	if c.Render.Height <= 0 {
		c.Render.Height = 600
	}
}

// DefaultConfig returns a config with every field at its default.
func DefaultConfig() *Config {
	cfg := &Config{}
	cfg.defaults()
	return cfg
}

// LoadConfigFile reads a YAML config file and fills in defaults.
func LoadConfigFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("shaderbridge: read config: %w", err)
	}
	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("shaderbridge: parse config: %w", err)
	}
	cfg.defaults()
	return cfg, nil
}

package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"gopkg.in/yaml.v3"
)

// Load loads configuration with priority: defaults < file < flags.
func Load() (*Config, error) {
	// Start with defaults
	cfg := Default()

	// Try to load from file (explicit path takes priority)
	configPath := ConfigPath()
	if configPath == "" {
		configPath = findConfigFile()
	}

	if configPath != "" {
		if err := loadFromFile(cfg, configPath); err != nil {
			return nil, fmt.Errorf("loading config from %s: %w", configPath, err)
		}
	}

	// Apply CLI flags (highest priority)
	applyFlags(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// findConfigFile looks for config in standard locations.
func findConfigFile() string {
	candidates := []string{
		"./cellblock.yaml",
		filepath.Join(ConfigDir(), "cellblock.yaml"),
	}

	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// ConfigDir returns the OS-appropriate config directory.
func ConfigDir() string {
	switch runtime.GOOS {
	case "darwin":
		home, _ := os.UserHomeDir()
		return filepath.Join(home, "Library", "Application Support", "Cellblock")
	case "windows":
		return filepath.Join(os.Getenv("APPDATA"), "Cellblock")
	default: // Linux and others
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			return filepath.Join(xdg, "cellblock")
		}
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".config", "cellblock")
	}
}

// Validate checks values that cannot be defaulted.
func (c *Config) Validate() error {
	if c.Map.HalfWidth <= 0 || c.Map.HalfHeight <= 0 {
		return fmt.Errorf("map extent must be positive, got %gx%g", c.Map.HalfWidth, c.Map.HalfHeight)
	}
	switch c.Save.Format {
	case "yaml", "msgpack":
	default:
		return fmt.Errorf("unknown save format %q", c.Save.Format)
	}
	if c.Simulation.PawnSpeed < 0 {
		return fmt.Errorf("pawn speed must not be negative, got %g", c.Simulation.PawnSpeed)
	}
	return nil
}

// loadFromFile loads config from a YAML file, merging with existing values.
func loadFromFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

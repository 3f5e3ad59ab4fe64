// Package config handles configuration loading and management.
package config

import "runtime"

// Config holds all settings.
type Config struct {
	Map        MapConfig        `yaml:"map"`
	Navigation NavigationConfig `yaml:"navigation"`
	Simulation SimulationConfig `yaml:"simulation"`
	Save       SaveConfig       `yaml:"save"`
	Viewer     ViewerConfig     `yaml:"viewer"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// MapConfig holds the extent of new maps and edit checking.
type MapConfig struct {
	HalfWidth       float32 `yaml:"half_width"`  // Map spans [-HalfWidth, HalfWidth]
	HalfHeight      float32 `yaml:"half_height"` // Map spans [-HalfHeight, HalfHeight]
	CheckInvariants bool    `yaml:"check_invariants"`
}

// NavigationConfig holds path finding settings.
type NavigationConfig struct {
	Workers       int `yaml:"workers"`        // Goroutines for rebuilds and queries, 0 = NumCPU
	MaxExpansions int `yaml:"max_expansions"` // Door search budget, 0 = unbounded
}

// WorkerCount resolves Workers, mapping 0 to the number of CPUs.
func (n NavigationConfig) WorkerCount() int {
	if n.Workers > 0 {
		return n.Workers
	}
	return runtime.NumCPU()
}

// SimulationConfig holds tick settings.
type SimulationConfig struct {
	TickRate  int     `yaml:"tick_rate"`  // Ticks per second
	PawnSpeed float32 `yaml:"pawn_speed"` // Meters per second
}

// SaveConfig holds save file settings.
type SaveConfig struct {
	Format string `yaml:"format"` // "yaml" or "msgpack"
	Dir    string `yaml:"dir"`
}

// ViewerConfig holds map viewer window settings.
type ViewerConfig struct {
	Width      int  `yaml:"width"`
	Height     int  `yaml:"height"`
	Fullscreen bool `yaml:"fullscreen"`
	VSync      bool `yaml:"vsync"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Map: MapConfig{
			HalfWidth:       32,
			HalfHeight:      32,
			CheckInvariants: false,
		},
		Navigation: NavigationConfig{
			Workers:       0,
			MaxExpansions: 0,
		},
		Simulation: SimulationConfig{
			TickRate:  30,
			PawnSpeed: 1.4,
		},
		Save: SaveConfig{
			Format: "yaml",
			Dir:    "saves",
		},
		Viewer: ViewerConfig{
			Width:      1280,
			Height:     720,
			Fullscreen: false,
			VSync:      true,
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
	}
}

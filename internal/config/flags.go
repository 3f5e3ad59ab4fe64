package config

import "flag"

var (
	flagConfig     = flag.String("config", "", "Path to config file")
	flagDebug      = flag.Bool("debug", false, "Enable debug logging and invariant checks")
	flagWorkers    = flag.Int("workers", 0, "Worker goroutines for navigation")
	flagMapSize    = flag.Float64("map-size", 0, "Half extent of new maps")
	flagSaveFormat = flag.String("save-format", "", "Save format: yaml or msgpack")
)

// ParseFlags parses command-line flags. Call this early in main().
func ParseFlags() {
	flag.Parse()
}

// ConfigPath returns the explicit config path if provided via --config flag.
func ConfigPath() string {
	return *flagConfig
}

// applyFlags applies CLI flag overrides to the config.
func applyFlags(cfg *Config) {
	if *flagDebug {
		cfg.Logging.Level = "debug"
		cfg.Map.CheckInvariants = true
	}
	if *flagWorkers > 0 {
		cfg.Navigation.Workers = *flagWorkers
	}
	if *flagMapSize > 0 {
		cfg.Map.HalfWidth = float32(*flagMapSize)
		cfg.Map.HalfHeight = float32(*flagMapSize)
	}
	if *flagSaveFormat != "" {
		cfg.Save.Format = *flagSaveFormat
	}
}

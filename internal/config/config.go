package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
)

// DefaultMaxTicks bounds how many loop turns Drain runs before giving up on a reaction cycle.
const DefaultMaxTicks = 100000

// Config holds the process-wide flags of the runtime.
type Config struct {
	// Debug forces the verbose trace of mutate/subscribe/dispose events.
	Debug bool

	// TestSync runs view re-render requests inside the installed sync barrier,
	// so assertions can run right after a flush.
	TestSync bool

	// MaxTicks caps the number of loop turns a single Drain call runs.
	MaxTicks int
}

// Default returns the production configuration.
func Default() Config {
	return Config{MaxTicks: DefaultMaxTicks}
}

// Load parses a TOML config file, falling back to defaults when it is missing.
func Load(path string) (Config, error) {
	cfg := Default()

	if strings.TrimSpace(path) == "" {
		return cfg, nil
	}

	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	bytes, err := io.ReadAll(file)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	var raw struct {
		Debug    *bool `toml:"debug"`
		TestSync *bool `toml:"test_sync"`
		MaxTicks *int  `toml:"max_ticks"`
	}
	if err := toml.Unmarshal(bytes, &raw); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}

	if raw.Debug != nil {
		cfg.Debug = *raw.Debug
	}
	if raw.TestSync != nil {
		cfg.TestSync = *raw.TestSync
	}
	if raw.MaxTicks != nil {
		if *raw.MaxTicks <= 0 {
			return Config{}, fmt.Errorf("parse config: max_ticks must be positive, got %d", *raw.MaxTicks)
		}
		cfg.MaxTicks = *raw.MaxTicks
	}

	return cfg, nil
}

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/caarlos0/env/v11"
)

type Config struct {
	Playback PlaybackConfig `toml:"playback"`
	Scenario ScenarioConfig `toml:"scenario"`
	Monitor  MonitorConfig  `toml:"monitor"`
	Path     string         `toml:"-"`
}

type PlaybackConfig struct {
	TickIntervalMS int       `toml:"tick_interval_ms" env:"INCIDENT_COMMANDER_TICK_INTERVAL_MS"`
	Speed          float64   `toml:"speed" env:"INCIDENT_COMMANDER_SPEED"`
	SpeedSteps     []float64 `toml:"speed_steps" env:"INCIDENT_COMMANDER_SPEED_STEPS" envSeparator:","`
	Autoplay       bool      `toml:"autoplay" env:"INCIDENT_COMMANDER_AUTOPLAY"`
}

type ScenarioConfig struct {
	Name string `toml:"name" env:"INCIDENT_COMMANDER_SCENARIO"`
	Path string `toml:"path" env:"INCIDENT_COMMANDER_SCENARIO_PATH"`
}

type MonitorConfig struct {
	LogPath string `toml:"log_path" env:"INCIDENT_COMMANDER_LOG_PATH"`
	Buffer  int    `toml:"buffer" env:"INCIDENT_COMMANDER_MONITOR_BUFFER"`
}

func Default() Config {
	return Config{
		Playback: PlaybackConfig{
			TickIntervalMS: 100,
			Speed:          1,
			SpeedSteps:     []float64{0.5, 1, 2, 4},
		},
		Monitor: MonitorConfig{
			Buffer: 256,
		},
	}
}

// Load reads path (or the default location when empty) over the defaults and
// then applies environment overrides. A missing file at the default location
// is not an error; a missing explicit path is.
func Load(path string) (Config, error) {
	explicit := path != ""
	resolved := path
	if resolved == "" {
		resolved = defaultConfigPath()
	}
	if strings.HasPrefix(resolved, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return Config{}, fmt.Errorf("resolve home directory: %w", err)
		}
		trimmed := strings.TrimPrefix(resolved, "~")
		trimmed = strings.TrimPrefix(trimmed, "\\")
		trimmed = strings.TrimPrefix(trimmed, "/")
		resolved = filepath.Join(home, trimmed)
	}
	resolved = filepath.Clean(resolved)

	cfg := Default()
	bytes, err := os.ReadFile(resolved)
	switch {
	case err == nil:
		// Decoding over the defaults replaces arrays wholesale.
		if _, err := toml.Decode(string(bytes), &cfg); err != nil {
			return Config{}, fmt.Errorf("decode config file: %w", err)
		}
		cfg.Path = resolved
	case errors.Is(err, fs.ErrNotExist) && !explicit:
	default:
		return Config{}, fmt.Errorf("read config file %s: %w", resolved, err)
	}

	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if c.Playback.TickIntervalMS < 0 {
		return fmt.Errorf("playback.tick_interval_ms must not be negative, got %d", c.Playback.TickIntervalMS)
	}
	if c.Playback.Speed < 0 {
		return fmt.Errorf("playback.speed must not be negative, got %v", c.Playback.Speed)
	}
	for _, s := range c.Playback.SpeedSteps {
		if s <= 0 {
			return fmt.Errorf("playback.speed_steps must be positive, got %v", s)
		}
	}
	return nil
}

func (c Config) TickInterval() time.Duration {
	return durationMS(c.Playback.TickIntervalMS, 100*time.Millisecond)
}

func defaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".incident-commander/config.toml"
	}
	return filepath.Join(home, ".incident-commander", "config.toml")
}

func durationMS(ms int, fallback time.Duration) time.Duration {
	if ms <= 0 {
		return fallback
	}
	return time.Duration(ms) * time.Millisecond
}

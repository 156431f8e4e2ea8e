package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the application configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	DB       DBConfig       `yaml:"db"`
	Log      LogConfig      `yaml:"log"`
	Location LocationConfig `yaml:"location"`
	Recorder RecorderConfig `yaml:"recorder"`
	Export   ExportConfig   `yaml:"export"`
	Photos   PhotosConfig   `yaml:"photos"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Address string `yaml:"address"`
}

// DBConfig holds database settings.
type DBConfig struct {
	Path string `yaml:"path"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Server   LogSettings `yaml:"server"`
	Requests LogSettings `yaml:"requests"`
}

// LogSettings holds settings for a specific logger.
type LogSettings struct {
	Path  string `yaml:"path"`
	Level string `yaml:"level"`
}

// LocationConfig holds settings for the location source.
type LocationConfig struct {
	Provider string          `yaml:"provider"` // "mock", "replay"
	Mock     MockLocConfig   `yaml:"mock"`
	Replay   ReplayLocConfig `yaml:"replay"`
}

// MockLocConfig holds settings for the simulated walker source.
type MockLocConfig struct {
	StartLat   float64 `yaml:"start_lat"`
	StartLng   float64 `yaml:"start_lng"`
	SpeedKmh   float64 `yaml:"speed_kmh"`
	HeadingDeg float64 `yaml:"heading_deg"`
}

// ReplayLocConfig holds settings for the GPX replay source.
type ReplayLocConfig struct {
	Path string `yaml:"path"`
	// Playback speed multiplier, 1.0 = real time.
	Speed float64 `yaml:"speed"`
}

// RecorderConfig holds recording session settings.
type RecorderConfig struct {
	// Cadence of the elapsed-time tick while recording.
	Tick Duration `yaml:"tick"`
	// Default sampling interval setting: 0 selects the fast 500ms mode,
	// 1..30 are whole seconds.
	IntervalSetting int `yaml:"interval_setting"`
}

// ExportConfig holds GPX export settings.
type ExportConfig struct {
	Dir string `yaml:"dir"`
	// Exports older than this are purged by the maintenance sweep.
	MaxAge Duration `yaml:"max_age"`
	// Cron spec for the periodic purge.
	PurgeSchedule string `yaml:"purge_schedule"`
}

// PhotosConfig holds settings for the waypoint photo watcher.
type PhotosConfig struct {
	Enabled bool     `yaml:"enabled"`
	Paths   []string `yaml:"paths"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Address: "localhost:1940",
		},
		DB: DBConfig{
			Path: "./data/rutago.db",
		},
		Log: LogConfig{
			Server: LogSettings{
				Path:  "./logs/server.log",
				Level: "INFO",
			},
			Requests: LogSettings{
				Path:  "./logs/requests.log",
				Level: "INFO",
			},
		},
		Location: LocationConfig{
			Provider: "mock",
			Mock: MockLocConfig{
				StartLat:   40.4167,
				StartLng:   -3.7033,
				SpeedKmh:   5.0,
				HeadingDeg: 45.0,
			},
			Replay: ReplayLocConfig{
				Speed: 1.0,
			},
		},
		Recorder: RecorderConfig{
			Tick:            Duration(1 * time.Second),
			IntervalSetting: 10,
		},
		Export: ExportConfig{
			Dir:           "./data/exports",
			MaxAge:        Duration(7 * 24 * time.Hour),
			PurgeSchedule: "@hourly",
		},
		Photos: PhotosConfig{
			Enabled: false,
		},
	}
}

// Load loads the configuration from the given path.
// If the file does not exist, it creates it with default values.
// If the file exists, it merges defaults with existing values but does NOT
// save back to disk (to preserve user formatting and comments).
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create config directory: %w", err)
	}

	if _, err := os.Stat(path); err == nil {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}

		// Env fallbacks for values left empty in the file.
		if cfg.DB.Path == "" {
			if p := os.Getenv("RUTAGO_DB_PATH"); p != "" {
				cfg.DB.Path = p
			}
		}
		if cfg.Server.Address == "" {
			if addr := os.Getenv("RUTAGO_ADDR"); addr != "" {
				cfg.Server.Address = addr
			}
		}

		return cfg, nil
	}

	if err := Save(path, cfg); err != nil {
		return nil, fmt.Errorf("failed to save config file: %w", err)
	}

	return cfg, nil
}

// Save writes the configuration to the path.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// GenerateDefault writes a default config file to the path, failing if one
// already exists.
func GenerateDefault(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists: %s", path)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	return Save(path, DefaultConfig())
}

package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Default values for the server configuration.
const (
	DefaultHost          = "127.0.0.1"
	DefaultPort          = 8765
	DefaultTelemetryPath = "telemetry.json"
	DefaultLogLevel      = "info"
	DefaultLogFormat     = "json"
)

// Config holds the configuration parsed from the `server:` section of the
// config file.
type Config struct {
	Server ServerConfig `yaml:"server"`
}

// ServerConfig holds all server settings.
type ServerConfig struct {
	// Host is the bind address for the HTTP listener (default 127.0.0.1).
	Host string `yaml:"host"`

	// Port serves the REST API, the push endpoint and /metrics (default 8765).
	Port int `yaml:"port"`

	// TelemetryPath is the telemetry file written by the export mod.
	TelemetryPath string `yaml:"telemetry_path"`

	// Log controls structured log output.
	Log LogConfig `yaml:"log"`
}

// Addr returns the host:port the HTTP server binds to.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// LogConfig controls structured log output.
type LogConfig struct {
	// Level is one of: debug | info | warn | error.
	Level string `yaml:"level"`

	// Format is one of: json | text.
	Format string `yaml:"format"`
}

// SlogLevel maps the configured level name to a slog.Level.
func (l LogConfig) SlogLevel() slog.Level {
	switch l.Level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Load returns the configuration from the YAML file at path, with defaults
// filled in and environment overrides applied. An empty path skips the file
// and uses defaults plus environment only.
func Load(path string) (*Config, error) {
	cfg := defaults()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("config: read %q: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("config: parse yaml: %w", err)
		}
	}

	if err := applyEnv(cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

// defaults returns a Config pre-populated with default values.
func defaults() *Config {
	return &Config{
		Server: ServerConfig{
			Host:          DefaultHost,
			Port:          DefaultPort,
			TelemetryPath: DefaultTelemetryPath,
			Log: LogConfig{
				Level:  DefaultLogLevel,
				Format: DefaultLogFormat,
			},
		},
	}
}

// applyEnv overrides file values with the FLEETGLASS_* environment variables.
func applyEnv(cfg *Config) error {
	if v := os.Getenv("FLEETGLASS_HOST"); v != "" {
		cfg.Server.Host = v
	}
	if v := os.Getenv("FLEETGLASS_PORT"); v != "" {
		p, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("FLEETGLASS_PORT %q is not a number", v)
		}
		cfg.Server.Port = p
	}
	if v := os.Getenv("FLEETGLASS_TELEMETRY_PATH"); v != "" {
		cfg.Server.TelemetryPath = v
	}
	if v := os.Getenv("FLEETGLASS_LOG_LEVEL"); v != "" {
		cfg.Server.Log.Level = v
	}
	return nil
}

// validate checks structural constraints on the final configuration.
func validate(cfg *Config) error {
	if cfg.Server.Port <= 0 || cfg.Server.Port > 65535 {
		return fmt.Errorf("server.port %d is out of range [1, 65535]", cfg.Server.Port)
	}
	if cfg.Server.TelemetryPath == "" {
		return fmt.Errorf("server.telemetry_path must not be empty")
	}
	switch cfg.Server.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("server.log.level %q unknown: want debug|info|warn|error", cfg.Server.Log.Level)
	}
	switch cfg.Server.Log.Format {
	case "json", "text":
	default:
		return fmt.Errorf("server.log.format %q unknown: want json|text", cfg.Server.Log.Format)
	}
	return nil
}

// Package config provides configuration management for abacus-service.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"github.com/ternarybob/abacus/internal/fileutil"
)

// Config represents the service configuration.
type Config struct {
	Service  ServiceConfig  `yaml:"service" toml:"service"`
	API      APIConfig      `yaml:"api" toml:"api"`
	MCP      MCPConfig      `yaml:"mcp" toml:"mcp"`
	Sessions SessionsConfig `yaml:"sessions" toml:"sessions"`
	Logging  LoggingConfig  `yaml:"logging" toml:"logging"`
}

// ServiceConfig contains service-level settings.
type ServiceConfig struct {
	Host    string `yaml:"host" toml:"host" env:"ABACUS_HOST"`
	Port    int    `yaml:"port" toml:"port" env:"ABACUS_PORT"`
	DataDir string `yaml:"data_dir" toml:"data_dir" env:"ABACUS_DATA_DIR"`
}

// APIConfig contains API settings.
type APIConfig struct {
	Enabled            bool   `yaml:"enabled" toml:"enabled" env:"ABACUS_API_ENABLED"`
	APIKey             string `yaml:"api_key" toml:"api_key" env:"ABACUS_API_KEY"`
	RateLimitPerMinute int    `yaml:"rate_limit_per_minute" toml:"rate_limit_per_minute" env:"ABACUS_API_RATE_LIMIT"`
	// TrustProxy takes the client address from X-Forwarded-For and
	// X-Real-IP. Enable only behind a proxy that sets them.
	TrustProxy bool `yaml:"trust_proxy" toml:"trust_proxy" env:"ABACUS_API_TRUST_PROXY"`
}

// MCPConfig contains MCP server settings.
type MCPConfig struct {
	Enabled bool `yaml:"enabled" toml:"enabled" env:"ABACUS_MCP_ENABLED"`
}

// SessionsConfig controls calculator session storage.
type SessionsConfig struct {
	// Persist keeps each session's current state on disk.
	Persist     bool `yaml:"persist" toml:"persist" env:"ABACUS_SESSIONS_PERSIST"`
	MaxSessions int  `yaml:"max_sessions" toml:"max_sessions" env:"ABACUS_MAX_SESSIONS"`
	// IdleMinutes expires sessions untouched for that long. 0 keeps them.
	IdleMinutes int `yaml:"idle_minutes" toml:"idle_minutes" env:"ABACUS_SESSION_IDLE_MINUTES"`
}

// LoggingConfig contains arbor logger settings.
type LoggingConfig struct {
	Level      string   `yaml:"level" toml:"level" env:"ABACUS_LOG_LEVEL"`
	Format     string   `yaml:"format" toml:"format" env:"ABACUS_LOG_FORMAT"`
	Output     []string `yaml:"output" toml:"output" env:"ABACUS_LOG_OUTPUT" envSeparator:","`
	TimeFormat string   `yaml:"time_format" toml:"time_format"`
	MaxSizeMB  int      `yaml:"max_size_mb" toml:"max_size_mb"`
	MaxBackups int      `yaml:"max_backups" toml:"max_backups"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Service: ServiceConfig{
			Host:    "127.0.0.1",
			Port:    8421,
			DataDir: DefaultDataDir(),
		},
		API: APIConfig{
			Enabled: true,
			APIKey:  "", // Empty = no auth for localhost
		},
		MCP: MCPConfig{
			Enabled: true,
		},
		Sessions: SessionsConfig{
			Persist:     false,
			MaxSessions: 1000,
			IdleMinutes: 60,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
			Output: []string{"console"},
		},
	}
}

// DefaultDataDir returns the default data directory based on OS.
func DefaultDataDir() string {
	switch runtime.GOOS {
	case "windows":
		appData := os.Getenv("APPDATA")
		if appData != "" {
			return filepath.Join(appData, "abacus")
		}
		home, _ := os.UserHomeDir()
		return filepath.Join(home, "AppData", "Roaming", "abacus")
	case "darwin":
		home, _ := os.UserHomeDir()
		return filepath.Join(home, "Library", "Application Support", "abacus")
	default: // linux and others
		xdgData := os.Getenv("XDG_DATA_HOME")
		if xdgData != "" {
			return filepath.Join(xdgData, "abacus")
		}
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".abacus")
	}
}

// DefaultConfigPath returns the default config file path.
// ABACUS_CONFIG overrides it.
func DefaultConfigPath() string {
	if p := os.Getenv("ABACUS_CONFIG"); p != "" {
		return p
	}
	return filepath.Join(DefaultDataDir(), "config.yaml")
}

func isTOML(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".toml")
}

// Load loads configuration from a YAML or TOML file, then applies
// ABACUS_* environment overrides. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	if err == nil {
		// Expand environment variables in the config
		expanded := os.ExpandEnv(string(data))

		if isTOML(path) {
			if _, err := toml.Decode(expanded, cfg); err != nil {
				return nil, fmt.Errorf("parse config file: %w", err)
			}
		} else if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	// Expand tilde in data_dir
	if strings.HasPrefix(cfg.Service.DataDir, "~/") {
		home, _ := os.UserHomeDir()
		cfg.Service.DataDir = filepath.Join(home, cfg.Service.DataDir[2:])
	}

	return cfg, nil
}

// Save saves the configuration to a file, in TOML when the path ends
// in .toml and YAML otherwise.
func (c *Config) Save(path string) error {
	var (
		data []byte
		err  error
	)
	if isTOML(path) {
		var sb strings.Builder
		err = toml.NewEncoder(&sb).Encode(c)
		data = []byte(sb.String())
	} else {
		data, err = yaml.Marshal(c)
	}
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := fileutil.WriteFile(path, data); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}

	return nil
}

// Address returns the full address string for the HTTP server.
func (c *Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Service.Host, c.Service.Port)
}

// SessionsDir returns the directory holding persisted sessions.
func (c *Config) SessionsDir() string {
	return filepath.Join(c.Service.DataDir, "data", "sessions")
}

// PIDPath returns the path to the PID file.
func (c *Config) PIDPath() string {
	return filepath.Join(c.Service.DataDir, "abacus-service.pid")
}

// LogPath returns the path to the service log file.
func (c *Config) LogPath() string {
	return filepath.Join(c.Service.DataDir, "logs", "abacus-service.log")
}

// EnsureDirectories creates all necessary directories.
func (c *Config) EnsureDirectories() error {
	dirs := []string{
		c.Service.DataDir,
		filepath.Dir(c.LogPath()),
	}
	if c.Sessions.Persist {
		dirs = append(dirs, c.SessionsDir())
	}

	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create directory %s: %w", dir, err)
		}
	}

	return nil
}

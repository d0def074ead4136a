package shared

import (
	_ "embed"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

//go:embed config.example.toml
var exampleConf []byte

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	API      APIConfig      `toml:"api"`
	Database DatabaseConfig `toml:"database"`
	Cache    CacheConfig    `toml:"cache"`
	Player   PlayerConfig   `toml:"player"`
	Server   ServerConfig   `toml:"server"`
}

// APIConfig contains settings for the library backend.
type APIConfig struct {
	BaseURL        string  `toml:"base_url"`
	AssetURL       string  `toml:"asset_url"` // prefix for relative image and audio paths
	TimeoutSeconds int     `toml:"timeout_seconds"`
	RateLimit      float64 `toml:"rate_limit"` // requests per second, 0 disables throttling
	Burst          int     `toml:"burst"`
}

// Timeout returns the configured request timeout.
func (c APIConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// DatabaseConfig contains database connection settings.
type DatabaseConfig struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// CacheConfig contains dataset cache settings. The TTL itself is fixed.
type CacheConfig struct {
	Coalesce bool `toml:"coalesce"`
}

// PlayerConfig contains audio output settings.
type PlayerConfig struct {
	Backend    string    `toml:"backend"` // "mpd" or "none"
	Volume     float64   `toml:"volume"`
	TickMillis int       `toml:"tick_millis"`
	MPD        MPDConfig `toml:"mpd"`
}

// Tick returns the interval between time updates while playing.
func (c PlayerConfig) Tick() time.Duration {
	if c.TickMillis <= 0 {
		return 500 * time.Millisecond
	}
	return time.Duration(c.TickMillis) * time.Millisecond
}

// MPDConfig contains connection settings for the MPD daemon used as audio output.
type MPDConfig struct {
	Host     string `toml:"host"`
	Port     int    `toml:"port"`
	Password string `toml:"password"`
}

// Addr returns the host:port pair for dialing.
func (c MPDConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// ServerConfig contains remote control server settings.
type ServerConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// Addr returns the listen address.
func (c ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
//
// Keys missing from the file keep the embedded defaults.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("%w: failed to parse config: %v", ErrInvalidConfig, err)
	}

	return config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// LoadEnv loads .env files (missing files are ignored) and applies STACKS_* overrides to config.
func LoadEnv(config *Config, files ...string) error {
	var existing []string
	for _, f := range files {
		if _, err := os.Stat(f); err == nil {
			existing = append(existing, f)
		}
	}
	if len(existing) > 0 {
		if err := godotenv.Load(existing...); err != nil {
			return fmt.Errorf("failed to load env files: %w", err)
		}
	}

	return applyEnv(config, os.Getenv)
}

func applyEnv(config *Config, getenv func(string) string) error {
	if v := getenv("STACKS_API_URL"); v != "" {
		config.API.BaseURL = v
	}
	if v := getenv("STACKS_ASSET_URL"); v != "" {
		config.API.AssetURL = v
	}
	if v := getenv("STACKS_DB_PATH"); v != "" {
		config.Database.Path = v
	}
	if v := getenv("STACKS_MPD_HOST"); v != "" {
		config.Player.MPD.Host = v
	}
	if v := getenv("STACKS_MPD_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%w: STACKS_MPD_PORT=%q", ErrInvalidConfig, v)
		}
		config.Player.MPD.Port = port
	}
	if v := getenv("STACKS_MPD_PASSWORD"); v != "" {
		config.Player.MPD.Password = v
	}
	return nil
}

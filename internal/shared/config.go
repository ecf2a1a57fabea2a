package shared

import (
	_ "embed"
	"fmt"
	"net"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

//go:embed config.example.toml
var exampleConf []byte

// Storage backends understood by [StorageConfig].
const (
	BackendKeyring = "keyring"
	BackendFile    = "file"
	BackendSQLite  = "sqlite"
	BackendMemory  = "memory"
)

// Config represents the application configuration loaded from a TOML file.
//
// Fields tagged with env can be overridden from the environment (or a .env file).
type Config struct {
	Credentials CredentialsConfig `toml:"credentials"`
	Server      ServerConfig      `toml:"server"`
	Storage     StorageConfig     `toml:"storage"`
	Player      PlayerConfig      `toml:"player"`
	Auth        AuthConfig        `toml:"auth"`
}

// CredentialsConfig contains service-specific credentials.
type CredentialsConfig struct {
	Spotify SpotifyConfig `toml:"spotify"`
}

// SpotifyConfig contains Spotify API credentials.
type SpotifyConfig struct {
	ClientID     string   `toml:"client_id" env:"SPOTIFY_CLIENT_ID"`
	ClientSecret string   `toml:"client_secret" env:"SPOTIFY_CLIENT_SECRET"`
	RedirectURI  string   `toml:"redirect_uri" env:"SPOTIFY_REDIRECT_URI"`
	Scopes       []string `toml:"scopes" env:"SPOTIFY_SCOPES" envSeparator:" "`
}

// ServerConfig contains the loopback callback listener settings.
type ServerConfig struct {
	Host string `toml:"host" env:"INTMO_CALLBACK_HOST"`
	Port int    `toml:"port" env:"INTMO_CALLBACK_PORT"`
}

// StorageConfig selects where credentials are persisted.
type StorageConfig struct {
	Backend string `toml:"backend" env:"INTMO_STORAGE_BACKEND"`
	Path    string `toml:"path" env:"INTMO_STORAGE_PATH"`
}

// PlayerConfig contains mini player and API client settings.
type PlayerConfig struct {
	PollInterval time.Duration `toml:"poll_interval" env:"INTMO_POLL_INTERVAL"`
	RateLimit    float64       `toml:"rate_limit" env:"INTMO_RATE_LIMIT"`
}

// AuthConfig contains interactive authorization settings.
type AuthConfig struct {
	Timeout time.Duration `toml:"timeout" env:"INTMO_AUTH_TIMEOUT"`
}

// Addr returns the host:port the callback listener binds to.
func (s ServerConfig) Addr() string {
	return net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
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

// ResolveConfig builds the effective configuration: embedded defaults, then the file at path
// (when it exists), then .env and environment overrides. The result is validated.
func ResolveConfig(path string) (*Config, error) {
	config := DefaultConfig()
	if path != "" {
		if _, err := os.Stat(path); err == nil {
			loaded, err := LoadConfig(path)
			if err != nil {
				return nil, err
			}
			config = loaded
		}
	}

	if err := config.ApplyEnv(); err != nil {
		return nil, err
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// ApplyEnv loads a .env file if present and overlays environment variables onto c.
func (c *Config) ApplyEnv() error {
	_ = godotenv.Load()

	if err := env.Parse(c); err != nil {
		return fmt.Errorf("%w: parsing environment: %v", ErrInvalidConfig, err)
	}
	return nil
}

// Validate checks settings that cannot be corrected at runtime.
//
// The redirect URI must point at the callback listener: Spotify redirects the browser to it and
// the listener is the only thing that can receive the code.
func (c *Config) Validate() error {
	redirect := c.Credentials.Spotify.RedirectURI
	u, err := url.Parse(redirect)
	if err != nil || !u.IsAbs() || u.Host == "" {
		return fmt.Errorf("%w: redirect_uri %q must be an absolute URL", ErrInvalidConfig, redirect)
	}
	if u.Path == "" || u.Path == "/" {
		return fmt.Errorf("%w: redirect_uri %q has no callback path", ErrInvalidConfig, redirect)
	}
	if u.Host != c.Server.Addr() {
		return fmt.Errorf("%w: redirect_uri host %q does not match callback listener %q", ErrInvalidConfig, u.Host, c.Server.Addr())
	}

	switch c.Storage.Backend {
	case BackendKeyring, BackendFile, BackendSQLite, BackendMemory:
	default:
		return fmt.Errorf("%w: unknown storage backend %q", ErrInvalidConfig, c.Storage.Backend)
	}

	if c.Auth.Timeout <= 0 {
		return fmt.Errorf("%w: auth timeout must be positive", ErrInvalidConfig)
	}
	if c.Player.PollInterval <= 0 {
		return fmt.Errorf("%w: poll_interval must be positive", ErrInvalidConfig)
	}
	if c.Player.RateLimit <= 0 {
		return fmt.Errorf("%w: rate_limit must be positive", ErrInvalidConfig)
	}
	return nil
}

// CallbackPath returns the path component of the configured redirect URI.
func (c *Config) CallbackPath() string {
	u, err := url.Parse(c.Credentials.Spotify.RedirectURI)
	if err != nil || u.Path == "" {
		return "/callback"
	}
	return u.Path
}

// StoragePath returns the configured storage directory, defaulting to the user config dir.
func (c *Config) StoragePath() (string, error) {
	if c.Storage.Path != "" {
		return c.Storage.Path, nil
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("determining config directory: %w", err)
	}
	return filepath.Join(dir, "intmo"), nil
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := os.WriteFile(path, exampleConf, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

package shared

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfig(t *testing.T) {
	t.Run("DefaultConfig", func(t *testing.T) {
		config := DefaultConfig()

		assert.Equal(t, "http://127.0.0.1:8888/callback", config.Credentials.Spotify.RedirectURI)
		assert.Equal(t, "127.0.0.1", config.Server.Host)
		assert.Equal(t, 8888, config.Server.Port)
		assert.Equal(t, BackendKeyring, config.Storage.Backend)
		assert.Equal(t, 5*time.Minute, config.Auth.Timeout)
		assert.Equal(t, 5*time.Second, config.Player.PollInterval)
		assert.Contains(t, config.Credentials.Spotify.Scopes, "user-modify-playback-state")
		require.NoError(t, config.Validate())
	})

	t.Run("CreateConfigFile", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "config.toml")

		require.NoError(t, CreateConfigFile(configPath))

		info, err := os.Stat(configPath)
		require.NoError(t, err)
		assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

		err = CreateConfigFile(configPath)
		assert.Error(t, err, "expected error when file already exists")
	})

	t.Run("LoadConfig overlays defaults", func(t *testing.T) {
		configPath := filepath.Join(t.TempDir(), "config.toml")
		content := `
[credentials.spotify]
client_id = "abc"
client_secret = "def"

[storage]
backend = "sqlite"
path = "/tmp/intmo"
`
		require.NoError(t, os.WriteFile(configPath, []byte(content), 0600))

		config, err := LoadConfig(configPath)
		require.NoError(t, err)

		assert.Equal(t, "abc", config.Credentials.Spotify.ClientID)
		assert.Equal(t, "def", config.Credentials.Spotify.ClientSecret)
		assert.Equal(t, BackendSQLite, config.Storage.Backend)
		assert.Equal(t, 8888, config.Server.Port, "unset keys keep embedded defaults")
	})

	t.Run("LoadConfig rejects malformed TOML", func(t *testing.T) {
		configPath := filepath.Join(t.TempDir(), "config.toml")
		require.NoError(t, os.WriteFile(configPath, []byte("[[[broken"), 0600))

		_, err := LoadConfig(configPath)
		assert.Error(t, err)
	})

	t.Run("ResolveConfig applies environment overrides", func(t *testing.T) {
		t.Chdir(t.TempDir())
		t.Setenv("SPOTIFY_CLIENT_ID", "from-env")
		t.Setenv("INTMO_STORAGE_BACKEND", "memory")
		t.Setenv("INTMO_AUTH_TIMEOUT", "90s")

		config, err := ResolveConfig(filepath.Join(t.TempDir(), "missing.toml"))
		require.NoError(t, err)

		assert.Equal(t, "from-env", config.Credentials.Spotify.ClientID)
		assert.Equal(t, BackendMemory, config.Storage.Backend)
		assert.Equal(t, 90*time.Second, config.Auth.Timeout)
	})

	t.Run("Validate", func(t *testing.T) {
		tc := []struct {
			name   string
			mutate func(c *Config)
		}{
			{name: "relative redirect", mutate: func(c *Config) { c.Credentials.Spotify.RedirectURI = "/callback" }},
			{name: "redirect without path", mutate: func(c *Config) { c.Credentials.Spotify.RedirectURI = "http://127.0.0.1:8888" }},
			{name: "redirect port mismatch", mutate: func(c *Config) { c.Server.Port = 9999 }},
			{name: "unknown backend", mutate: func(c *Config) { c.Storage.Backend = "s3" }},
			{name: "zero timeout", mutate: func(c *Config) { c.Auth.Timeout = 0 }},
			{name: "zero poll interval", mutate: func(c *Config) { c.Player.PollInterval = 0 }},
			{name: "zero rate limit", mutate: func(c *Config) { c.Player.RateLimit = 0 }},
		}

		for _, tt := range tc {
			t.Run(tt.name, func(t *testing.T) {
				config := DefaultConfig()
				tt.mutate(config)

				err := config.Validate()
				require.Error(t, err)
				assert.True(t, errors.Is(err, ErrInvalidConfig), "expected ErrInvalidConfig, got %v", err)
			})
		}
	})

	t.Run("CallbackPath", func(t *testing.T) {
		config := DefaultConfig()
		assert.Equal(t, "/callback", config.CallbackPath())
	})

	t.Run("StoragePath prefers configured path", func(t *testing.T) {
		config := DefaultConfig()
		config.Storage.Path = "/var/lib/intmo"

		path, err := config.StoragePath()
		require.NoError(t, err)
		assert.Equal(t, "/var/lib/intmo", path)
	})
}

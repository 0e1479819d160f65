package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "test.yaml"), []byte(body), 0o600))
	t.Setenv(configDirENV, dir)
	t.Setenv(configFilePathENV, "test.yaml")
	return dir
}

func TestNewConfigFileOverDefaults(t *testing.T) {
	writeConfig(t, `
api:
  base_url: http://localhost:9000
  username: alice
  http_timeout: 3s
service:
  port: 9090
widget:
  market_kind: Stock
`)

	cfg, err := NewConfig()
	require.NoError(t, err)

	require.Equal(t, "http://localhost:9000", cfg.API.BaseURL)
	require.Equal(t, "alice", cfg.API.Username)
	require.Equal(t, 3*time.Second, cfg.API.HTTPTimeout)
	require.Equal(t, 9090, cfg.Service.Port)
	require.Equal(t, "Stock", cfg.Widget.MarketKind)

	// не указанные в файле поля остаются дефолтными
	require.Equal(t, "fintatech", cfg.API.Realm)
	require.Equal(t, "simulation", cfg.API.Provider)
	require.Equal(t, 7, cfg.Widget.RangeDays)
}

func TestNewConfigEnvOverridesFile(t *testing.T) {
	writeConfig(t, `
api:
  username: alice
  password: from-file
`)
	t.Setenv("RATE_MONITOR_API_PASSWORD", "from-env")
	t.Setenv("RATE_MONITOR_SERVICE_PORT", "7070")
	t.Setenv("RATE_MONITOR_API_HANDSHAKE_TIMEOUT", "2s")
	t.Setenv(databaseDSN, "postgres://u:p@localhost:5432/db")
	t.Setenv(tokenTelegramENV, "tg-token")

	cfg, err := NewConfig()
	require.NoError(t, err)

	require.Equal(t, "alice", cfg.API.Username)
	require.Equal(t, "from-env", cfg.API.Password)
	require.Equal(t, 7070, cfg.Service.Port)
	require.Equal(t, 2*time.Second, cfg.API.HandshakeTimeout)
	require.Equal(t, "postgres://u:p@localhost:5432/db", cfg.DB)
	require.Equal(t, "tg-token", cfg.Telegram.Token)
}

func TestNewConfigExplicitMissingFile(t *testing.T) {
	t.Setenv(configDirENV, t.TempDir())
	t.Setenv(configFilePathENV, "nope.yaml")

	_, err := NewConfig()
	require.Error(t, err)
}

func TestNewConfigDefaultsWithoutFile(t *testing.T) {
	t.Setenv(configDirENV, t.TempDir())
	t.Setenv(configFilePathENV, "")

	cfg, err := NewConfig()
	require.NoError(t, err)
	require.Equal(t, "https://platform.fintacharts.com", cfg.API.BaseURL)
	require.Equal(t, 8080, cfg.Service.Port)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"bad base url", func(c *Config) { c.API.BaseURL = "not a url" }},
		{"http stream url", func(c *Config) { c.API.StreamURL = "https://example.com/ws" }},
		{"empty provider", func(c *Config) { c.API.Provider = "" }},
		{"port out of range", func(c *Config) { c.Service.Port = 70000 }},
		{"unknown market kind", func(c *Config) { c.Widget.MarketKind = "Crypto" }},
		{"zero range days", func(c *Config) { c.Widget.RangeDays = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := defaultConfig()
			require.NoError(t, c.Validate())
			tt.mutate(&c)
			require.Error(t, c.Validate())
		})
	}
}

func TestEndpointURLs(t *testing.T) {
	c := defaultConfig()
	c.API.BaseURL = "http://host:1/"

	require.Equal(t, "http://host:1/identity/realms/fintatech/protocol/openid-connect/token", c.LoginURL())
	require.Equal(t, "http://host:1/api/instruments/v1/instruments", c.InstrumentsURL())
	require.Equal(t, "http://host:1/api/bars/v1/bars/date-range", c.DateRangeURL())
}

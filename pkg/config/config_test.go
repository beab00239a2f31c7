package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const minimalYAML = `
environment: test
scanner:
  symbols: [AAPL, MSFT]
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad(t *testing.T) {
	t.Run("applies defaults", func(t *testing.T) {
		c, err := Load(writeConfig(t, minimalYAML))
		require.NoError(t, err)

		assert.Equal(t, 8080, c.Server.Port)
		assert.Equal(t, "none", c.Sink.Backend)
		assert.Equal(t, 8, c.Scanner.Workers)
		assert.Equal(t, 5*time.Minute, c.Scanner.RefreshInterval)
		assert.Equal(t, "xnys", c.Scanner.CalendarMIC)
		assert.Equal(t, "info", c.Log.Level)
		assert.Equal(t, []string{"AAPL", "MSFT"}, c.Scanner.Symbols)
	})

	t.Run("yaml overrides defaults", func(t *testing.T) {
		c, err := Load(writeConfig(t, `
environment: test
server:
  port: 9090
scanner:
  symbols: [NVDA]
  workers: 2
`))
		require.NoError(t, err)
		assert.Equal(t, 9090, c.Server.Port)
		assert.Equal(t, 2, c.Scanner.Workers)
		assert.Equal(t, []string{"NVDA"}, c.Scanner.Symbols)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
		require.Error(t, err)
	})
}

func TestLoadWithEnv(t *testing.T) {
	t.Setenv("SYMBOLS", "amd, tsla ,")
	t.Setenv("FMP_API_KEY", "fmp-key")
	t.Setenv("LOG_LEVEL", "debug")

	c, err := LoadWithEnv(writeConfig(t, minimalYAML))
	require.NoError(t, err)

	assert.Equal(t, []string{"AMD", "TSLA"}, c.Scanner.Symbols)
	assert.Equal(t, "fmp-key", c.Providers.FMP.APIKey)
	assert.Equal(t, "debug", c.Log.Level)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"no environment", func(c *Config) { c.Environment = "" }},
		{"bad backend", func(c *Config) { c.Sink.Backend = "s3" }},
		{"kafka without brokers", func(c *Config) { c.Sink.Backend = "kafka" }},
		{"snapshots topic without brokers", func(c *Config) { c.Kafka.SnapshotsTopic = "snaps" }},
		{"clickhouse without host", func(c *Config) { c.Sink.Backend = "clickhouse" }},
		{"no symbols", func(c *Config) { c.Scanner.Symbols = nil }},
		{"no workers", func(c *Config) { c.Scanner.Workers = 0 }},
		{"bad account", func(c *Config) { c.Accounts = []Account{{ID: 0, Name: "x"}} }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := Load(writeConfig(t, minimalYAML))
			require.NoError(t, err)
			tt.mutate(c)
			assert.Error(t, c.Validate())
		})
	}
}

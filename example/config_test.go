package example

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig("", nil)
	require.NoError(t, err)
	assert.Equal(t, Config{
		Addr:           ":8080",
		Tokens:         map[string]string{"demo-token": "demo"},
		CORSOrigins:    []string{"*"},
		Compress:       true,
		Seed:           true,
		RequestTimeout: 5 * time.Second,
	}, cfg)
}

func TestLoadConfigFile(t *testing.T) {
	path := writeConfig(t, `
addr: localhost:9000
tokens:
  secret: alice
cors_origins: [https://example.com]
compress: false
request_timeout: 250ms
`)
	cfg, err := LoadConfig(path, nil)
	require.NoError(t, err)
	assert.Equal(t, "localhost:9000", cfg.Addr)
	assert.Equal(t, map[string]string{"secret": "alice"}, cfg.Tokens)
	assert.Equal(t, []string{"https://example.com"}, cfg.CORSOrigins)
	assert.False(t, cfg.Compress)
	assert.True(t, cfg.Seed)
	assert.Equal(t, 250*time.Millisecond, cfg.RequestTimeout)
}

func TestLoadConfigEnvAndOverrides(t *testing.T) {
	path := writeConfig(t, "addr: localhost:9000\n")
	t.Setenv("FLOWDEMO_ADDR", "localhost:9001")
	t.Setenv("FLOWDEMO_LOG_BODIES", "true")

	cfg, err := LoadConfig(path, nil)
	require.NoError(t, err)
	assert.Equal(t, "localhost:9001", cfg.Addr)
	assert.True(t, cfg.LogBodies)

	cfg, err = LoadConfig(path, map[string]any{"addr": "unix:/tmp/flowdemo.sock"})
	require.NoError(t, err)
	assert.Equal(t, "unix:/tmp/flowdemo.sock", cfg.Addr)
}

func TestLoadConfigErrors(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"), nil)
	require.ErrorContains(t, err, "does not exist")

	_, err = LoadConfig(writeConfig(t, "request_timeout: 0s\n"), nil)
	require.ErrorContains(t, err, "request_timeout must be positive")

	_, err = LoadConfig(writeConfig(t, "addr: [unterminated\n"), nil)
	require.Error(t, err)
}

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempConfig(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "barto.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadDefaultsWithoutFile(t *testing.T) {
	cfg, _, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "0.0.0.0:7780", cfg.Server.ListenAddr)
	assert.Equal(t, "barto.db", cfg.Server.DatabasePath)
}

func TestLoadFromFileOverridesDefaults(t *testing.T) {
	path := writeTempConfig(t, `
[server]
listen_addr = "127.0.0.1:9000"
database_path = "/tmp/custom.db"

[worker]
name = "worker-a"
`)
	cfg, _, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:9000", cfg.Server.ListenAddr)
	assert.Equal(t, "/tmp/custom.db", cfg.Server.DatabasePath)
	assert.Equal(t, "worker-a", cfg.Worker.Name)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	path := writeTempConfig(t, `
[server]
listen_addr = "127.0.0.1:9000"
`)
	t.Setenv("BARTO_SERVER_LISTEN_ADDR", "10.0.0.1:1234")
	cfg, _, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "10.0.0.1:1234", cfg.Server.ListenAddr)
}

func TestLoadMissingFileErrors(t *testing.T) {
	_, _, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)
}

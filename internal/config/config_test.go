package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultValues(t *testing.T) {
	cfg := Default()

	assert.Equal(t, DefaultRemoteEndpoint, cfg.Remote.Endpoint)
	assert.Equal(t, "nt", cfg.Remote.Database)
	assert.Equal(t, "1e-6", cfg.Remote.EValue)
	assert.Equal(t, "5", cfg.Remote.OutputFormat)
	assert.Equal(t, "blast_result.xml", cfg.Remote.ResultFilename)
	assert.Equal(t, int64(2*1024*1024), cfg.Remote.UploadLimitBytes)
	assert.Equal(t, "no-proxy", cfg.Proxy.Mode)
	assert.True(t, cfg.Notifications.Enabled)
}

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope"))
	require.NoError(t, err)
	assert.Equal(t, Default().Remote, cfg.Remote)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "conf", "config")

	cfg := Default()
	cfg.Engine.BinaryPath = "/opt/engines/blast"
	cfg.Remote.Endpoint = "http://blast.internal:8080"
	cfg.Remote.Database = "swissprot"
	cfg.Proxy.Mode = "basic"
	cfg.Proxy.Host = "proxy.corp"
	cfg.Proxy.Port = 3128
	cfg.Notifications.ShowComplete = false
	require.NoError(t, cfg.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg.Engine, loaded.Engine)
	assert.Equal(t, cfg.Remote, loaded.Remote)
	assert.Equal(t, cfg.Proxy, loaded.Proxy)
	assert.Equal(t, cfg.Notifications, loaded.Notifications)
}

func TestLoadPartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config")
	content := "[remote]\nendpoint = http://other:9000\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "http://other:9000", cfg.Remote.Endpoint)
	assert.Equal(t, "nt", cfg.Remote.Database, "unset keys keep their defaults")
	assert.Equal(t, "no-proxy", cfg.Proxy.Mode)
}

func TestLoadInvalidFileFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config")
	require.NoError(t, os.WriteFile(path, []byte("not an ini \x00 file [[["), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}

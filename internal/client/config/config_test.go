package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/dmitrijs2005/peerlink/internal/timex"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg := &Config{}
	cfg.LoadDefaults()

	assert.Equal(t, "http://127.0.0.1:3001", cfg.ServerEndpointAddr)
	assert.Equal(t, "ws://127.0.0.1:3001/ws", cfg.RelayEndpointAddr)
	assert.NotEmpty(t, cfg.KeystoreDir)
	assert.Equal(t, 10*time.Second, cfg.RequestTimeout)
}

func TestLoadConfig_Flags(t *testing.T) {
	saved := os.Args
	defer func() { os.Args = saved }()
	os.Args = []string{"client", "-a", "http://example.com:9999", "-r", "ws://example.com:9999/ws", "-k", "/tmp/keys", "-t", "30"}

	cfg := LoadConfig()

	assert.Equal(t, "http://example.com:9999", cfg.ServerEndpointAddr)
	assert.Equal(t, "ws://example.com:9999/ws", cfg.RelayEndpointAddr)
	assert.Equal(t, "/tmp/keys", cfg.KeystoreDir)
	assert.Equal(t, 30*time.Second, cfg.RequestTimeout)
}

func TestLoadConfig_JsonFile(t *testing.T) {
	saved := os.Args
	defer func() { os.Args = saved }()

	path := filepath.Join(t.TempDir(), "config.json")
	payload, err := json.Marshal(JsonConfig{
		ServerEndpointAddr: "http://json.example:3001",
		RelayEndpointAddr:  "ws://json.example:3001/ws",
		KeystoreDir:        "/tmp/json-keys",
		RequestTimeout:     timex.Duration{Duration: 3 * time.Second},
	})
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, payload, 0o600))

	os.Args = []string{"client", "-c", path}

	cfg := LoadConfig()

	assert.Equal(t, "http://json.example:3001", cfg.ServerEndpointAddr)
	assert.Equal(t, "ws://json.example:3001/ws", cfg.RelayEndpointAddr)
	assert.Equal(t, "/tmp/json-keys", cfg.KeystoreDir)
	assert.Equal(t, 3*time.Second, cfg.RequestTimeout)
}

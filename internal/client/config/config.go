// Package config handles configuration for the client component,
// including defaults, JSON overlay, and command-line flags.
package config

import (
	"os"
	"path/filepath"
	"time"
)

// Config holds runtime settings for the PeerLink client.
//
// Fields:
//   - ServerEndpointAddr: base URL of the directory HTTP API.
//   - RelayEndpointAddr: websocket URL of the message relay.
//   - KeystoreDir: directory for the encrypted local key files.
//   - RequestTimeout: per-request timeout for directory API calls.
type Config struct {
	ServerEndpointAddr string
	RelayEndpointAddr  string
	KeystoreDir        string
	RequestTimeout     time.Duration
}

// LoadDefaults populates Config with local development defaults.
func (c *Config) LoadDefaults() {
	c.ServerEndpointAddr = "http://127.0.0.1:3001"
	c.RelayEndpointAddr = "ws://127.0.0.1:3001/ws"
	c.KeystoreDir = defaultKeystoreDir()
	c.RequestTimeout = 10 * time.Second
}

func defaultKeystoreDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".peerlink"
	}
	return filepath.Join(home, ".peerlink")
}

// LoadConfig builds a Config by applying defaults, then overlaying values
// from an optional JSON file and finally from command-line flags.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}

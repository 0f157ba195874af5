package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	c := &Config{}
	c.LoadDefaults()

	assert.Equal(t, ":3001", c.EndpointAddr)
	assert.Empty(t, c.DatabaseDSN)
	assert.Empty(t, c.S3Bucket)
}

func TestParseFlags(t *testing.T) {
	oldArgs := os.Args
	defer func() { os.Args = oldArgs }()

	os.Args = []string{"server", "-a", ":4000", "-d", "postgres://x", "-b", "archive"}

	c := &Config{}
	c.LoadDefaults()
	parseFlags(c)

	assert.Equal(t, ":4000", c.EndpointAddr)
	assert.Equal(t, "postgres://x", c.DatabaseDSN)
	assert.Equal(t, "archive", c.S3Bucket)
}

func TestParseJson(t *testing.T) {
	oldArgs := os.Args
	defer func() { os.Args = oldArgs }()

	file := filepath.Join(t.TempDir(), "conf.json")
	payload, err := json.Marshal(JsonConfig{
		EndpointAddr: ":5000",
		DatabaseDSN:  "postgres://json",
		S3Bucket:     "bkt",
	})
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(file, payload, 0o600))

	os.Args = []string{"server", "-c", file}

	c := &Config{}
	c.LoadDefaults()
	parseJson(c)

	assert.Equal(t, ":5000", c.EndpointAddr)
	assert.Equal(t, "postgres://json", c.DatabaseDSN)
	assert.Equal(t, "bkt", c.S3Bucket)
}

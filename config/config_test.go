package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.ValidateBasic())

	cfg.SetRoot("/foo")
	assert.Equal(t, "/foo/data", cfg.DBDir())

	cfg.DBPath = "/opt/data"
	assert.Equal(t, "/opt/data", cfg.DBDir())
}

func TestConfigValidateBasic(t *testing.T) {
	testCases := map[string]func(*Config){
		"empty chain id":       func(c *Config) { c.ChainID = "" },
		"bad log format":       func(c *Config) { c.LogFormat = "xml" },
		"bad db backend":       func(c *Config) { c.DBBackend = "rocksdb" },
		"zero request timeout": func(c *Config) { c.BlockSync.RequestTimeout = 0 },
		"zero sweep interval":  func(c *Config) { c.BlockSync.SweepInterval = 0 },
		"zero max blocks":      func(c *Config) { c.BlockSync.MaxBlocksPerResponse = 0 },
		"negative max size":    func(c *Config) { c.BlockSync.MaxMessageSize = -1 },
		"prometheus no addr": func(c *Config) {
			c.Instrumentation.Prometheus = true
			c.Instrumentation.PrometheusListenAddr = ""
		},
		"empty namespace": func(c *Config) { c.Instrumentation.Namespace = "" },
	}

	for name, mutate := range testCases {
		mutate := mutate
		t.Run(name, func(t *testing.T) {
			cfg := TestConfig()
			require.NoError(t, cfg.ValidateBasic())
			mutate(cfg)
			assert.Error(t, cfg.ValidateBasic())
		})
	}
}

func TestWriteConfigFile(t *testing.T) {
	cfg, err := ResetTestRoot(t.TempDir(), "write-config")
	require.NoError(t, err)

	for _, dir := range []string{"config", "data"} {
		_, err := os.Stat(filepath.Join(cfg.RootDir, dir))
		require.NoError(t, err)
	}

	var file struct {
		ChainID   string `toml:"chain-id"`
		DBBackend string `toml:"db-backend"`
		BlockSync struct {
			RequestTimeout       string `toml:"request-timeout"`
			MaxBlocksPerResponse int    `toml:"max-blocks-per-response"`
		} `toml:"blocksync"`
		Instrumentation struct {
			Prometheus bool `toml:"prometheus"`
		} `toml:"instrumentation"`
	}
	_, err = toml.DecodeFile(ConfigFile(cfg.RootDir), &file)
	require.NoError(t, err)

	assert.Equal(t, "nodesync_test", file.ChainID)
	assert.Equal(t, "memdb", file.DBBackend)
	assert.Equal(t, 128, file.BlockSync.MaxBlocksPerResponse)
	assert.False(t, file.Instrumentation.Prometheus)

	timeout, err := time.ParseDuration(file.BlockSync.RequestTimeout)
	require.NoError(t, err)
	assert.Equal(t, cfg.BlockSync.RequestTimeout, timeout)
}

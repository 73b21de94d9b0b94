package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/nodesync/nodesync/libs/log"
)

var (
	// DefaultNodeSyncDir is the default home directory, relative to $HOME.
	DefaultNodeSyncDir = ".nodesync"
	defaultConfigDir   = "config"
	defaultDataDir     = "data"

	defaultConfigFileName = "config.toml"
	defaultConfigFilePath = filepath.Join(defaultConfigDir, defaultConfigFileName)
)

// Config defines the top level configuration for a nodesync node.
type Config struct {
	// Top level options use an anonymous struct
	BaseConfig `mapstructure:",squash"`

	// Options for services
	BlockSync       *BlockSyncConfig       `mapstructure:"blocksync"`
	Instrumentation *InstrumentationConfig `mapstructure:"instrumentation"`
}

// DefaultConfig returns a default configuration for a nodesync node.
func DefaultConfig() *Config {
	return &Config{
		BaseConfig:      DefaultBaseConfig(),
		BlockSync:       DefaultBlockSyncConfig(),
		Instrumentation: DefaultInstrumentationConfig(),
	}
}

// TestConfig returns a configuration that can be used for testing.
func TestConfig() *Config {
	return &Config{
		BaseConfig:      TestBaseConfig(),
		BlockSync:       TestBlockSyncConfig(),
		Instrumentation: TestInstrumentationConfig(),
	}
}

// SetRoot sets the RootDir for all Config structs.
func (cfg *Config) SetRoot(root string) *Config {
	cfg.BaseConfig.RootDir = root
	return cfg
}

// ValidateBasic performs basic validation (checking param bounds, etc.) and
// returns an error if any check fails.
func (cfg *Config) ValidateBasic() error {
	if err := cfg.BaseConfig.ValidateBasic(); err != nil {
		return err
	}
	if err := cfg.BlockSync.ValidateBasic(); err != nil {
		return fmt.Errorf("error in [blocksync] section: %w", err)
	}
	if err := cfg.Instrumentation.ValidateBasic(); err != nil {
		return fmt.Errorf("error in [instrumentation] section: %w", err)
	}
	return nil
}

//-----------------------------------------------------------------------------
// BaseConfig

// BaseConfig defines the base configuration for a nodesync node.
type BaseConfig struct {
	// The root directory for all data.
	// This should be set in viper so it can unmarshal into this struct
	RootDir string `mapstructure:"home"`

	// Chain the node belongs to. The genesis block is derived from it, so
	// nodes only sync with peers that use the same chain id.
	ChainID string `mapstructure:"chain-id"`

	// A custom human readable name for this node
	Moniker string `mapstructure:"moniker"`

	// Database backend: goleveldb | memdb
	DBBackend string `mapstructure:"db-backend"`

	// Database directory
	DBPath string `mapstructure:"db-dir"`

	// Output level for logging
	LogLevel string `mapstructure:"log-level"`

	// Output format: 'plain' (colored text) or 'json'
	LogFormat string `mapstructure:"log-format"`
}

// DefaultBaseConfig returns a default base configuration.
func DefaultBaseConfig() BaseConfig {
	return BaseConfig{
		ChainID:   "nodesync",
		Moniker:   "anonymous",
		DBBackend: "goleveldb",
		DBPath:    defaultDataDir,
		LogLevel:  log.LogLevelInfo,
		LogFormat: log.LogFormatPlain,
	}
}

// TestBaseConfig returns a base configuration for testing.
func TestBaseConfig() BaseConfig {
	cfg := DefaultBaseConfig()
	cfg.ChainID = "nodesync_test"
	cfg.DBBackend = "memdb"
	cfg.LogLevel = log.LogLevelDebug
	return cfg
}

// DBDir returns the full path to the database directory.
func (cfg BaseConfig) DBDir() string {
	return rootify(cfg.DBPath, cfg.RootDir)
}

// ValidateBasic performs basic validation (checking param bounds, etc.) and
// returns an error if any check fails.
func (cfg BaseConfig) ValidateBasic() error {
	if cfg.ChainID == "" {
		return errors.New("chain-id can't be empty")
	}
	switch cfg.LogFormat {
	case log.LogFormatPlain, log.LogFormatText, log.LogFormatJSON:
	default:
		return errors.New("unknown log format (must be 'plain', 'text' or 'json')")
	}
	switch cfg.DBBackend {
	case "goleveldb", "memdb":
	default:
		return fmt.Errorf("unsupported db-backend %q (must be 'goleveldb' or 'memdb')", cfg.DBBackend)
	}
	return nil
}

//-----------------------------------------------------------------------------
// BlockSyncConfig

// BlockSyncConfig defines the configuration for the block sync protocol.
type BlockSyncConfig struct {
	// Peers that do not finish the handshake, or do not answer a block
	// request, within this duration are reported to the transport.
	RequestTimeout time.Duration `mapstructure:"request-timeout"`

	// How often the maintenance service looks for stale peers.
	SweepInterval time.Duration `mapstructure:"sweep-interval"`

	// Upper bound on the blocks sent in one response. Values above the
	// protocol limit of 128 are clamped.
	MaxBlocksPerResponse int `mapstructure:"max-blocks-per-response"`

	// Maximum size in bytes of a single framed message, in both directions.
	MaxMessageSize int `mapstructure:"max-message-size"`
}

// DefaultBlockSyncConfig returns a default configuration for the block sync
// protocol.
func DefaultBlockSyncConfig() *BlockSyncConfig {
	return &BlockSyncConfig{
		RequestTimeout:       60 * time.Second,
		SweepInterval:        5 * time.Second,
		MaxBlocksPerResponse: 128,
		MaxMessageSize:       16 * 1024 * 1024,
	}
}

// TestBlockSyncConfig returns a configuration for testing the block sync
// protocol.
func TestBlockSyncConfig() *BlockSyncConfig {
	cfg := DefaultBlockSyncConfig()
	cfg.RequestTimeout = 2 * time.Second
	cfg.SweepInterval = 100 * time.Millisecond
	return cfg
}

// ValidateBasic performs basic validation (checking param bounds, etc.) and
// returns an error if any check fails.
func (cfg *BlockSyncConfig) ValidateBasic() error {
	if cfg.RequestTimeout <= 0 {
		return errors.New("request-timeout must be positive")
	}
	if cfg.SweepInterval <= 0 {
		return errors.New("sweep-interval must be positive")
	}
	if cfg.MaxBlocksPerResponse <= 0 {
		return errors.New("max-blocks-per-response must be positive")
	}
	if cfg.MaxMessageSize <= 0 {
		return errors.New("max-message-size must be positive")
	}
	return nil
}

//-----------------------------------------------------------------------------
// InstrumentationConfig

// InstrumentationConfig defines the configuration for metrics reporting.
type InstrumentationConfig struct {
	// When true, Prometheus metrics are served under /metrics on
	// PrometheusListenAddr.
	Prometheus bool `mapstructure:"prometheus"`

	// Address to listen for Prometheus collector(s) connections.
	PrometheusListenAddr string `mapstructure:"prometheus-listen-addr"`

	// Instrumentation namespace.
	Namespace string `mapstructure:"namespace"`
}

// DefaultInstrumentationConfig returns a default configuration for metrics
// reporting.
func DefaultInstrumentationConfig() *InstrumentationConfig {
	return &InstrumentationConfig{
		Prometheus:           false,
		PrometheusListenAddr: ":26660",
		Namespace:            "nodesync",
	}
}

// TestInstrumentationConfig returns a default configuration for metrics
// reporting.
func TestInstrumentationConfig() *InstrumentationConfig {
	return DefaultInstrumentationConfig()
}

// ValidateBasic performs basic validation (checking param bounds, etc.) and
// returns an error if any check fails.
func (cfg *InstrumentationConfig) ValidateBasic() error {
	if cfg.Prometheus && cfg.PrometheusListenAddr == "" {
		return errors.New("prometheus-listen-addr can't be empty when prometheus is enabled")
	}
	if cfg.Namespace == "" {
		return errors.New("namespace can't be empty")
	}
	return nil
}

//-----------------------------------------------------------------------------
// Utils

// helper function to make config creation independent of root dir
func rootify(path, root string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(root, path)
}

package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"text/template"

	"github.com/BurntSushi/toml"

	nsos "github.com/nodesync/nodesync/libs/os"
)

// defaultDirPerm is the default permissions used when creating directories.
const defaultDirPerm = 0700

var configTemplate *template.Template

func init() {
	var err error
	if configTemplate, err = template.New("configFileTemplate").Parse(defaultConfigTemplate); err != nil {
		panic(err)
	}
}

// EnsureRoot creates the root, config, and data directories if they don't
// exist.
func EnsureRoot(rootDir string) error {
	for _, dir := range []string{
		rootDir,
		filepath.Join(rootDir, defaultConfigDir),
		filepath.Join(rootDir, defaultDataDir),
	} {
		if err := nsos.EnsureDir(dir, defaultDirPerm); err != nil {
			return err
		}
	}
	return nil
}

// ConfigFile returns the path of the config file below rootDir.
func ConfigFile(rootDir string) string {
	return filepath.Join(rootDir, defaultConfigFilePath)
}

// WriteConfigFile renders config using the template and writes it to
// rootDir/config/config.toml.
func WriteConfigFile(rootDir string, config *Config) error {
	return config.WriteToTemplate(ConfigFile(rootDir))
}

// WriteToTemplate writes the config to the exact file specified by the path,
// in the default toml template.
func (cfg *Config) WriteToTemplate(path string) error {
	var buffer bytes.Buffer

	if err := configTemplate.Execute(&buffer, cfg); err != nil {
		return err
	}

	var parsed map[string]interface{}
	if _, err := toml.Decode(buffer.String(), &parsed); err != nil {
		return fmt.Errorf("rendered config is not valid toml: %w", err)
	}

	return nsos.WriteFileAtomic(path, buffer.Bytes(), 0644)
}

// ResetTestRoot creates a fresh root directory below dir with a default
// config file and returns a test configuration rooted there.
func ResetTestRoot(dir, testName string) (*Config, error) {
	rootDir, err := os.MkdirTemp(dir, testName+"_")
	if err != nil {
		return nil, err
	}
	if err := EnsureRoot(rootDir); err != nil {
		return nil, err
	}

	config := TestConfig().SetRoot(rootDir)
	if err := WriteConfigFile(rootDir, config); err != nil {
		return nil, err
	}
	return config, nil
}

// Note: any changes to the comments/variables/mapstructure
// must be reflected in the appropriate struct in config/config.go
const defaultConfigTemplate = `# This is a TOML config file.
# For more information, see https://github.com/toml-lang/toml

#######################################################################
###                   Main Base Config Options                      ###
#######################################################################

# Chain the node belongs to. Peers on another chain are rejected.
chain-id = "{{ .BaseConfig.ChainID }}"

# A custom human readable name for this node
moniker = "{{ .BaseConfig.Moniker }}"

# Database backend: goleveldb | memdb
db-backend = "{{ .BaseConfig.DBBackend }}"

# Database directory
db-dir = "{{ .BaseConfig.DBPath }}"

# Output level for logging: trace | debug | info | warn | error
log-level = "{{ .BaseConfig.LogLevel }}"

# Output format: 'plain' (colored text) or 'json'
log-format = "{{ .BaseConfig.LogFormat }}"

#######################################################################
###                    Block Sync Configuration                     ###
#######################################################################
[blocksync]

# Peers that do not finish the handshake, or do not answer a block request,
# within this duration are reported and disconnected.
request-timeout = "{{ .BlockSync.RequestTimeout }}"

# How often to look for stale peers.
sweep-interval = "{{ .BlockSync.SweepInterval }}"

# Upper bound on the number of blocks sent in one response (at most 128).
max-blocks-per-response = {{ .BlockSync.MaxBlocksPerResponse }}

# Maximum size in bytes of a single message.
max-message-size = {{ .BlockSync.MaxMessageSize }}

#######################################################################
###                 Instrumentation Configuration                   ###
#######################################################################
[instrumentation]

# When true, Prometheus metrics are served under /metrics on
# PrometheusListenAddr.
prometheus = {{ .Instrumentation.Prometheus }}

# Address to listen for Prometheus collector(s) connections
prometheus-listen-addr = "{{ .Instrumentation.PrometheusListenAddr }}"

# Instrumentation namespace
namespace = "{{ .Instrumentation.Namespace }}"
`

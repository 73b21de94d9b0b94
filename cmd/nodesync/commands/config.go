package commands

import (
	"github.com/spf13/cobra"

	"github.com/nodesync/nodesync/config"
	"github.com/nodesync/nodesync/libs/log"
)

// MakeConfigCommand returns the command group that edits the config file of
// the home directory in place.
func MakeConfigCommand(conf *config.Config, logger log.Logger) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect and edit the config file",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "set <key> <value>",
		Short: "Set a key in config.toml, keeping comments and layout",
		Example: `  nodesync config set chain-id mychain
  nodesync config set blocksync.request-timeout 30s`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := config.ConfigFile(conf.RootDir)
			if err := config.SetConfigValue(path, args[0], args[1]); err != nil {
				return err
			}
			logger.Info("updated config file", "path", path, "key", args[0], "value", args[1])
			return nil
		},
	})

	return cmd
}

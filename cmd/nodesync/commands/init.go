package commands

import (
	"github.com/spf13/cobra"

	"github.com/nodesync/nodesync/config"
	"github.com/nodesync/nodesync/internal/store"
	"github.com/nodesync/nodesync/libs/log"
	tmos "github.com/nodesync/nodesync/libs/os"
)

// MakeInitCommand returns the command that writes a config file into the
// home directory and opens the block store once, committing the genesis
// block of the configured chain.
func MakeInitCommand(conf *config.Config, logger log.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Initialize a nodesync home directory",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfgFile := config.ConfigFile(conf.RootDir)
			if tmos.FileExists(cfgFile) {
				logger.Info("found config file", "path", cfgFile)
			} else {
				if err := config.WriteConfigFile(conf.RootDir, conf); err != nil {
					return err
				}
				logger.Info("generated config file", "path", cfgFile)
			}

			db, err := config.DefaultDBProvider(&config.DBContext{ID: "blockstore", Config: conf})
			if err != nil {
				return err
			}
			bs, err := store.NewBlockStore(db, store.GenesisBlock(conf.ChainID))
			if err != nil {
				return err
			}
			defer bs.Close()

			logger.Info("initialized block store",
				"chain", conf.ChainID, "genesis", bs.GenesisHash(), "best", bs.BestNumber())
			return nil
		},
	}
}

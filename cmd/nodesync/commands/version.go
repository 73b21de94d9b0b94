package commands

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nodesync/nodesync/version"
)

var verbose bool

// VersionCmd prints the software version, and with --verbose the protocol
// versions too.
var VersionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version info",
	RunE: func(cmd *cobra.Command, args []string) error {
		if !verbose {
			fmt.Fprintln(cmd.OutOrStdout(), version.Version)
			return nil
		}

		values, err := json.MarshalIndent(struct {
			NodeSync          string `json:"nodesync"`
			BlockSyncProtocol uint32 `json:"blocksync_protocol"`
			WireEnvelope      uint32 `json:"wire_envelope"`
		}{
			NodeSync:          version.Version,
			BlockSyncProtocol: version.BlockSyncProtocol,
			WireEnvelope:      version.WireEnvelope,
		}, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(values))
		return nil
	},
}

func init() {
	VersionCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Show protocol versions")
}

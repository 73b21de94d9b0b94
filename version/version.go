package version

var (
	// GitCommit is the current HEAD set using ldflags.
	GitCommit string

	// Version is the built softwares version.
	Version = NSCoreSemVer
)

func init() {
	if GitCommit != "" {
		Version += "-" + GitCommit
	}
}

const (
	// NSCoreSemVer is the semantic version of the nodesync software.
	NSCoreSemVer = "0.1.0"

	// BlockSyncProtocol versions the block sync wire protocol. Peers must
	// advertise exactly this value in their Status message.
	BlockSyncProtocol uint32 = 1

	// WireEnvelope versions the envelope that wraps every block sync message.
	WireEnvelope uint32 = 1
)

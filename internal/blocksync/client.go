package blocksync

import (
	"github.com/nodesync/nodesync/internal/p2p"
	"github.com/nodesync/nodesync/types"
)

// BlockCodec converts blocks to and from the bytes carried by a
// BlockResponse.
type BlockCodec interface {
	MarshalBlock(block types.Block) ([]byte, error)
	UnmarshalBlock(bz []byte) (types.Block, error)
}

// Client is the storage collaborator. It is the authority on the local chain:
// the Protocol never validates block contents itself.
type Client interface {
	BlockCodec

	GenesisHash() types.Hash
	BestNumber() uint64

	// GetBlock and GetHeader return nil without an error when the block is
	// not known.
	GetBlock(id types.BlockID) (types.Block, error)
	GetHeader(id types.BlockID) (*types.Header, error)

	// ImportBlocks imports blocks in ascending order.
	ImportBlocks(blocks []types.Block) error
}

// TxHandler consumes transactions relayed by peers.
type TxHandler interface {
	HandleTransaction(tx types.Tx) error
}

// TxHandlerFunc adapts a function to the TxHandler interface.
type TxHandlerFunc func(tx types.Tx) error

// HandleTransaction calls f(tx).
func (f TxHandlerFunc) HandleTransaction(tx types.Tx) error { return f(tx) }

//go:generate ../../scripts/mockery_generate.sh Client|TxHandler|Transport

// Transport is the connection layer the Protocol talks through. Send must not
// call back into the Protocol synchronously.
type Transport interface {
	Send(peerID types.NodeID, bz []byte) error
	ReportPeer(pe p2p.PeerError)
}

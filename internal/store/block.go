package store

import (
	"fmt"

	"github.com/gogo/protobuf/proto"

	nsproto "github.com/nodesync/nodesync/proto/nodesync/types"
	"github.com/nodesync/nodesync/types"
)

// Block is a block of the reference chain: a number, a link to its parent and
// a list of transactions. Its hash covers all three.
type Block struct {
	Number     uint64
	ParentHash types.Hash
	Txs        []types.Tx

	hash types.Hash
}

var _ types.Block = (*Block)(nil)

// NewBlock creates a block and computes its hash.
func NewBlock(number uint64, parent types.Hash, txs []types.Tx) *Block {
	b := &Block{
		Number:     number,
		ParentHash: parent,
		Txs:        txs,
	}
	b.hash = types.Sum256(mustEncode(b.ToProto()))
	return b
}

// GenesisBlock returns the block 0 of the chain called chainID.
func GenesisBlock(chainID string) *Block {
	return NewBlock(0, types.ZeroHash, []types.Tx{types.Tx(chainID)})
}

// Header implements types.Block.
func (b *Block) Header() types.Header {
	return types.Header{Number: b.Number, Hash: b.hash}
}

// Hash returns the block hash.
func (b *Block) Hash() types.Hash { return b.hash }

func (b *Block) String() string {
	return fmt.Sprintf("Block{%v parent:%s txs:%d}", b.Header(), b.ParentHash.ShortString(), len(b.Txs))
}

// ToProto converts the block to its protobuf representation.
func (b *Block) ToProto() *nsproto.Block {
	pb := &nsproto.Block{
		Number:     b.Number,
		ParentHash: b.ParentHash.Bytes(),
	}
	for _, tx := range b.Txs {
		pb.Txs = append(pb.Txs, tx)
	}
	return pb
}

// BlockFromProto converts a protobuf block, recomputing its hash.
func BlockFromProto(pb *nsproto.Block) (*Block, error) {
	if pb == nil {
		return nil, fmt.Errorf("nil block")
	}

	parent, err := types.HashFromBytes(pb.ParentHash)
	if err != nil {
		return nil, fmt.Errorf("invalid parent hash: %w", err)
	}

	txs := make([]types.Tx, 0, len(pb.Txs))
	for _, tx := range pb.Txs {
		txs = append(txs, types.Tx(tx))
	}
	return NewBlock(pb.Number, parent, txs), nil
}

// mustEncode proto encodes a proto.message and panics if fails
func mustEncode(pb proto.Message) []byte {
	bz, err := proto.Marshal(pb)
	if err != nil {
		panic(fmt.Errorf("unable to marshal: %w", err))
	}
	return bz
}

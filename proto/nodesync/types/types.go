// Protobuf messages for the reference chain data model.
//
//	message Block {
//	  uint64         number      = 1;
//	  bytes          parent_hash = 2;
//	  repeated bytes txs         = 3;
//	}
package types

import (
	proto "github.com/gogo/protobuf/proto"
)

// Block is one block of the reference chain.
type Block struct {
	Number     uint64   `protobuf:"varint,1,opt,name=number,proto3" json:"number,omitempty"`
	ParentHash []byte   `protobuf:"bytes,2,opt,name=parent_hash,json=parentHash,proto3" json:"parent_hash,omitempty"`
	Txs        [][]byte `protobuf:"bytes,3,rep,name=txs,proto3" json:"txs,omitempty"`
}

func (m *Block) Reset()         { *m = Block{} }
func (m *Block) String() string { return proto.CompactTextString(m) }
func (*Block) ProtoMessage()    {}

func (m *Block) GetNumber() uint64 {
	if m != nil {
		return m.Number
	}
	return 0
}

func (m *Block) GetParentHash() []byte {
	if m != nil {
		return m.ParentHash
	}
	return nil
}

func (m *Block) GetTxs() [][]byte {
	if m != nil {
		return m.Txs
	}
	return nil
}

func init() {
	proto.RegisterType((*Block)(nil), "nodesync.types.Block")
}

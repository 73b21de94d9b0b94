// Protobuf messages of the block sync wire protocol.
//
// The structs carry gogoproto struct tags so proto.Marshal and proto.Unmarshal
// can encode them through the reflection-based table marshaler.
//
//	message BlockID {
//	  oneof sum {
//	    uint64 number = 1;
//	    bytes  hash   = 2;
//	  }
//	}
//	message Status {
//	  uint32 version      = 1;
//	  bytes  genesis_hash = 2;
//	  bytes  best_hash    = 3;
//	  uint64 best_number  = 4;
//	}
//	message Transaction   { bytes payload = 1; }
//	message BlockRequest  { uint64 id = 1; BlockID from = 2; BlockID to = 3; optional uint64 max = 4; }
//	message BlockResponse { uint64 id = 1; repeated bytes blocks = 2; }
//	message Message {
//	  uint32 version = 1;
//	  oneof sum {
//	    Status        status         = 2;
//	    Transaction   transaction    = 3;
//	    BlockRequest  block_request  = 4;
//	    BlockResponse block_response = 5;
//	  }
//	}
package blocksync

import (
	proto "github.com/gogo/protobuf/proto"
)

// BlockID identifies a block either by its number or by its hash.
type BlockID struct {
	// Types that are valid to be assigned to Sum:
	//	*BlockID_Number
	//	*BlockID_Hash
	Sum isBlockID_Sum `protobuf_oneof:"sum"`
}

func (m *BlockID) Reset()         { *m = BlockID{} }
func (m *BlockID) String() string { return proto.CompactTextString(m) }
func (*BlockID) ProtoMessage()    {}

type isBlockID_Sum interface {
	isBlockID_Sum()
}

type BlockID_Number struct {
	Number uint64 `protobuf:"varint,1,opt,name=number,proto3,oneof" json:"number,omitempty"`
}
type BlockID_Hash struct {
	Hash []byte `protobuf:"bytes,2,opt,name=hash,proto3,oneof" json:"hash,omitempty"`
}

func (*BlockID_Number) isBlockID_Sum() {}
func (*BlockID_Hash) isBlockID_Sum()   {}

func (m *BlockID) GetSum() isBlockID_Sum {
	if m != nil {
		return m.Sum
	}
	return nil
}

func (m *BlockID) GetNumber() uint64 {
	if x, ok := m.GetSum().(*BlockID_Number); ok {
		return x.Number
	}
	return 0
}

func (m *BlockID) GetHash() []byte {
	if x, ok := m.GetSum().(*BlockID_Hash); ok {
		return x.Hash
	}
	return nil
}

// XXX_OneofWrappers is for the internal use of the proto package.
func (*BlockID) XXX_OneofWrappers() []interface{} {
	return []interface{}{
		(*BlockID_Number)(nil),
		(*BlockID_Hash)(nil),
	}
}

// Status is the handshake message announcing a node's chain head.
type Status struct {
	Version     uint32 `protobuf:"varint,1,opt,name=version,proto3" json:"version,omitempty"`
	GenesisHash []byte `protobuf:"bytes,2,opt,name=genesis_hash,json=genesisHash,proto3" json:"genesis_hash,omitempty"`
	BestHash    []byte `protobuf:"bytes,3,opt,name=best_hash,json=bestHash,proto3" json:"best_hash,omitempty"`
	BestNumber  uint64 `protobuf:"varint,4,opt,name=best_number,json=bestNumber,proto3" json:"best_number,omitempty"`
}

func (m *Status) Reset()         { *m = Status{} }
func (m *Status) String() string { return proto.CompactTextString(m) }
func (*Status) ProtoMessage()    {}

func (m *Status) GetVersion() uint32 {
	if m != nil {
		return m.Version
	}
	return 0
}

func (m *Status) GetGenesisHash() []byte {
	if m != nil {
		return m.GenesisHash
	}
	return nil
}

func (m *Status) GetBestHash() []byte {
	if m != nil {
		return m.BestHash
	}
	return nil
}

func (m *Status) GetBestNumber() uint64 {
	if m != nil {
		return m.BestNumber
	}
	return 0
}

// Transaction relays a single opaque transaction.
type Transaction struct {
	Payload []byte `protobuf:"bytes,1,opt,name=payload,proto3" json:"payload,omitempty"`
}

func (m *Transaction) Reset()         { *m = Transaction{} }
func (m *Transaction) String() string { return proto.CompactTextString(m) }
func (*Transaction) ProtoMessage()    {}

func (m *Transaction) GetPayload() []byte {
	if m != nil {
		return m.Payload
	}
	return nil
}

// BlockRequest asks a peer for the blocks after From up to and including To.
// A nil To asks for as many blocks as the responder is willing to send and a
// nil Max leaves the count up to the responder's cap.
type BlockRequest struct {
	Id   uint64   `protobuf:"varint,1,opt,name=id,proto3" json:"id,omitempty"`
	From *BlockID `protobuf:"bytes,2,opt,name=from,proto3" json:"from,omitempty"`
	To   *BlockID `protobuf:"bytes,3,opt,name=to,proto3" json:"to,omitempty"`
	Max  *uint64  `protobuf:"varint,4,opt,name=max" json:"max,omitempty"`
}

func (m *BlockRequest) Reset()         { *m = BlockRequest{} }
func (m *BlockRequest) String() string { return proto.CompactTextString(m) }
func (*BlockRequest) ProtoMessage()    {}

func (m *BlockRequest) GetId() uint64 {
	if m != nil {
		return m.Id
	}
	return 0
}

func (m *BlockRequest) GetFrom() *BlockID {
	if m != nil {
		return m.From
	}
	return nil
}

func (m *BlockRequest) GetTo() *BlockID {
	if m != nil {
		return m.To
	}
	return nil
}

// GetMax returns the requested maximum and whether one was set.
func (m *BlockRequest) GetMax() (uint64, bool) {
	if m != nil && m.Max != nil {
		return *m.Max, true
	}
	return 0, false
}

// BlockResponse answers the BlockRequest with the same Id. Each entry of
// Blocks is one encoded block.
type BlockResponse struct {
	Id     uint64   `protobuf:"varint,1,opt,name=id,proto3" json:"id,omitempty"`
	Blocks [][]byte `protobuf:"bytes,2,rep,name=blocks,proto3" json:"blocks,omitempty"`
}

func (m *BlockResponse) Reset()         { *m = BlockResponse{} }
func (m *BlockResponse) String() string { return proto.CompactTextString(m) }
func (*BlockResponse) ProtoMessage()    {}

func (m *BlockResponse) GetId() uint64 {
	if m != nil {
		return m.Id
	}
	return 0
}

func (m *BlockResponse) GetBlocks() [][]byte {
	if m != nil {
		return m.Blocks
	}
	return nil
}

// Message is the versioned envelope carried in every frame.
type Message struct {
	Version uint32 `protobuf:"varint,1,opt,name=version,proto3" json:"version,omitempty"`
	// Types that are valid to be assigned to Sum:
	//	*Message_Status
	//	*Message_Transaction
	//	*Message_BlockRequest
	//	*Message_BlockResponse
	Sum isMessage_Sum `protobuf_oneof:"sum"`
}

func (m *Message) Reset()         { *m = Message{} }
func (m *Message) String() string { return proto.CompactTextString(m) }
func (*Message) ProtoMessage()    {}

type isMessage_Sum interface {
	isMessage_Sum()
}

type Message_Status struct {
	Status *Status `protobuf:"bytes,2,opt,name=status,proto3,oneof" json:"status,omitempty"`
}
type Message_Transaction struct {
	Transaction *Transaction `protobuf:"bytes,3,opt,name=transaction,proto3,oneof" json:"transaction,omitempty"`
}
type Message_BlockRequest struct {
	BlockRequest *BlockRequest `protobuf:"bytes,4,opt,name=block_request,json=blockRequest,proto3,oneof" json:"block_request,omitempty"`
}
type Message_BlockResponse struct {
	BlockResponse *BlockResponse `protobuf:"bytes,5,opt,name=block_response,json=blockResponse,proto3,oneof" json:"block_response,omitempty"`
}

func (*Message_Status) isMessage_Sum()        {}
func (*Message_Transaction) isMessage_Sum()   {}
func (*Message_BlockRequest) isMessage_Sum()  {}
func (*Message_BlockResponse) isMessage_Sum() {}

func (m *Message) GetVersion() uint32 {
	if m != nil {
		return m.Version
	}
	return 0
}

func (m *Message) GetSum() isMessage_Sum {
	if m != nil {
		return m.Sum
	}
	return nil
}

func (m *Message) GetStatus() *Status {
	if x, ok := m.GetSum().(*Message_Status); ok {
		return x.Status
	}
	return nil
}

func (m *Message) GetTransaction() *Transaction {
	if x, ok := m.GetSum().(*Message_Transaction); ok {
		return x.Transaction
	}
	return nil
}

func (m *Message) GetBlockRequest() *BlockRequest {
	if x, ok := m.GetSum().(*Message_BlockRequest); ok {
		return x.BlockRequest
	}
	return nil
}

func (m *Message) GetBlockResponse() *BlockResponse {
	if x, ok := m.GetSum().(*Message_BlockResponse); ok {
		return x.BlockResponse
	}
	return nil
}

// XXX_OneofWrappers is for the internal use of the proto package.
func (*Message) XXX_OneofWrappers() []interface{} {
	return []interface{}{
		(*Message_Status)(nil),
		(*Message_Transaction)(nil),
		(*Message_BlockRequest)(nil),
		(*Message_BlockResponse)(nil),
	}
}

func init() {
	proto.RegisterType((*BlockID)(nil), "nodesync.blocksync.BlockID")
	proto.RegisterType((*Status)(nil), "nodesync.blocksync.Status")
	proto.RegisterType((*Transaction)(nil), "nodesync.blocksync.Transaction")
	proto.RegisterType((*BlockRequest)(nil), "nodesync.blocksync.BlockRequest")
	proto.RegisterType((*BlockResponse)(nil), "nodesync.blocksync.BlockResponse")
	proto.RegisterType((*Message)(nil), "nodesync.blocksync.Message")
}

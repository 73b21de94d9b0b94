package types

import (
	"errors"
	"fmt"

	bcproto "github.com/nodesync/nodesync/proto/nodesync/blocksync"
)

// Header is the part of a block the sync protocol needs to walk a chain.
type Header struct {
	Number uint64
	Hash   Hash
}

func (h Header) String() string {
	return fmt.Sprintf("#%d(%s)", h.Number, h.Hash.ShortString())
}

// Block is an opaque, already-typed chain block. The protocol only ever asks
// a block for its header; everything else belongs to the storage client.
type Block interface {
	Header() Header
}

// BlockID identifies a block either by number or by hash.
type BlockID struct {
	number uint64
	hash   Hash
	byHash bool
}

// BlockIDFromNumber returns a BlockID referring to the block at number n.
func BlockIDFromNumber(n uint64) BlockID {
	return BlockID{number: n}
}

// BlockIDFromHash returns a BlockID referring to the block with hash h.
func BlockIDFromHash(h Hash) BlockID {
	return BlockID{hash: h, byHash: true}
}

// IsHash reports whether the id refers to a block by hash.
func (id BlockID) IsHash() bool { return id.byHash }

// Number returns the block number. It is only meaningful if !IsHash().
func (id BlockID) Number() uint64 { return id.number }

// Hash returns the block hash. It is only meaningful if IsHash().
func (id BlockID) Hash() Hash { return id.hash }

// Matches reports whether the header is the block this id refers to.
func (id BlockID) Matches(h Header) bool {
	if id.byHash {
		return h.Hash == id.hash
	}
	return h.Number == id.number
}

func (id BlockID) String() string {
	if id.byHash {
		return "hash:" + id.hash.ShortString()
	}
	return fmt.Sprintf("number:%d", id.number)
}

// ToProto converts the BlockID to its wire representation.
func (id BlockID) ToProto() *bcproto.BlockID {
	if id.byHash {
		return &bcproto.BlockID{Sum: &bcproto.BlockID_Hash{Hash: id.hash.Bytes()}}
	}
	return &bcproto.BlockID{Sum: &bcproto.BlockID_Number{Number: id.number}}
}

// BlockIDFromProto converts a wire BlockID. It fails on a nil or empty id.
func BlockIDFromProto(pb *bcproto.BlockID) (BlockID, error) {
	if pb == nil {
		return BlockID{}, errors.New("nil block id")
	}

	switch sum := pb.Sum.(type) {
	case *bcproto.BlockID_Number:
		return BlockIDFromNumber(sum.Number), nil

	case *bcproto.BlockID_Hash:
		h, err := HashFromBytes(sum.Hash)
		if err != nil {
			return BlockID{}, err
		}
		return BlockIDFromHash(h), nil

	default:
		return BlockID{}, fmt.Errorf("unknown block id type %T", sum)
	}
}

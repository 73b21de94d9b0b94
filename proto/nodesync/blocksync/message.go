package blocksync

import (
	"errors"
	"fmt"

	"github.com/gogo/protobuf/proto"
)

const (
	// MaxBlockResponse is the hard cap on the number of blocks carried by a
	// single BlockResponse, regardless of what the requester asks for.
	MaxBlockResponse = 128

	// HashSize is the length of every hash carried on the wire.
	HashSize = 32
)

// Wrap wraps a block sync message into the envelope.
func (m *Message) Wrap(pb proto.Message) error {
	switch msg := pb.(type) {
	case *Status:
		m.Sum = &Message_Status{Status: msg}

	case *Transaction:
		m.Sum = &Message_Transaction{Transaction: msg}

	case *BlockRequest:
		m.Sum = &Message_BlockRequest{BlockRequest: msg}

	case *BlockResponse:
		m.Sum = &Message_BlockResponse{BlockResponse: msg}

	default:
		return fmt.Errorf("unknown message: %T", msg)
	}

	return nil
}

// Unwrap unwraps the block sync message carried by the envelope.
func (m *Message) Unwrap() (proto.Message, error) {
	switch msg := m.Sum.(type) {
	case *Message_Status:
		return m.GetStatus(), nil

	case *Message_Transaction:
		return m.GetTransaction(), nil

	case *Message_BlockRequest:
		return m.GetBlockRequest(), nil

	case *Message_BlockResponse:
		return m.GetBlockResponse(), nil

	default:
		return nil, fmt.Errorf("unknown message: %T", msg)
	}
}

// Validate performs structural validation of the message. It does not check
// versions, genesis hashes or ranges against local state.
func (m *Message) Validate() error {
	if m == nil {
		return errors.New("message cannot be nil")
	}

	switch msg := m.Sum.(type) {
	case *Message_Status:
		status := m.GetStatus()
		if status == nil {
			return errors.New("status cannot be nil")
		}
		if err := validateHash(status.GenesisHash); err != nil {
			return fmt.Errorf("invalid genesis hash: %w", err)
		}
		if err := validateHash(status.BestHash); err != nil {
			return fmt.Errorf("invalid best hash: %w", err)
		}

	case *Message_Transaction:
		if len(m.GetTransaction().GetPayload()) == 0 {
			return errors.New("empty transaction")
		}

	case *Message_BlockRequest:
		req := m.GetBlockRequest()
		if req == nil {
			return errors.New("block request cannot be nil")
		}
		if req.From == nil {
			return errors.New("block request missing from")
		}
		if err := req.From.Validate(); err != nil {
			return fmt.Errorf("invalid from: %w", err)
		}
		if req.To != nil {
			if err := req.To.Validate(); err != nil {
				return fmt.Errorf("invalid to: %w", err)
			}
		}

	case *Message_BlockResponse:
		resp := m.GetBlockResponse()
		if resp == nil {
			return errors.New("block response cannot be nil")
		}
		if len(resp.Blocks) > MaxBlockResponse {
			return fmt.Errorf("block response carries %d blocks, more than %d", len(resp.Blocks), MaxBlockResponse)
		}
		for i, bz := range resp.Blocks {
			if len(bz) == 0 {
				return fmt.Errorf("empty block at index %d", i)
			}
		}

	default:
		return fmt.Errorf("unknown message type: %T", msg)
	}

	return nil
}

// Validate checks that exactly one well-formed identifier is set.
func (m *BlockID) Validate() error {
	switch m.GetSum().(type) {
	case *BlockID_Number:
		return nil
	case *BlockID_Hash:
		return validateHash(m.GetHash())
	default:
		return errors.New("block id must carry a number or a hash")
	}
}

func validateHash(h []byte) error {
	if len(h) != HashSize {
		return fmt.Errorf("expected %d bytes, got %d", HashSize, len(h))
	}
	return nil
}

package blocksync

import (
	"fmt"
	"math"

	bcproto "github.com/nodesync/nodesync/proto/nodesync/blocksync"
	"github.com/nodesync/nodesync/types"
)

// frameOverhead is the room reserved in a response for the envelope and the
// length prefixes around each block.
const frameOverhead = 64

// handleBlockRequest answers a BlockRequest from any peer, whatever its
// handshake state.
func (p *Protocol) handleBlockRequest(peerID types.NodeID, msg *bcproto.BlockRequest) error {
	blocks, err := p.collectBlocks(msg)
	if err != nil {
		return fmt.Errorf("failed to collect blocks for %v: %w", peerID, err)
	}

	if err := p.send(peerID, &bcproto.BlockResponse{Id: msg.Id, Blocks: blocks}); err != nil {
		return err
	}

	p.metrics.BlocksServed.Add(float64(len(blocks)))
	p.logger.Debug("served blocks", "peer", peerID, "id", msg.Id, "count", len(blocks))
	return nil
}

// collectBlocks walks the chain upward from the block after From and returns
// the encoded blocks up to and including To. The walk stops early at the
// response limit, when the response would outgrow the message size limit, or
// at the first block the client does not have.
func (p *Protocol) collectBlocks(msg *bcproto.BlockRequest) ([][]byte, error) {
	from, err := types.BlockIDFromProto(msg.From)
	if err != nil {
		return nil, err
	}

	var to *types.BlockID
	if msg.To != nil {
		id, err := types.BlockIDFromProto(msg.To)
		if err != nil {
			return nil, err
		}
		to = &id
	}

	start, err := p.client.GetHeader(from)
	if err != nil {
		return nil, err
	}
	if start == nil || start.Number == math.MaxUint64 {
		return [][]byte{}, nil
	}

	limit := p.responseLimit(msg)
	blocks := make([][]byte, 0, limit)
	size := frameOverhead

	for number := start.Number + 1; len(blocks) < limit; number++ {
		if to != nil && !to.IsHash() && number > to.Number() {
			break
		}

		block, err := p.client.GetBlock(types.BlockIDFromNumber(number))
		if err != nil {
			return nil, err
		}
		if block == nil {
			break
		}

		bz, err := p.client.MarshalBlock(block)
		if err != nil {
			return nil, err
		}
		size += len(bz) + frameOverhead
		if size > p.cfg.MaxMessageSize {
			break
		}
		blocks = append(blocks, bz)

		if to != nil && to.Matches(block.Header()) {
			break
		}
	}

	return blocks, nil
}

// responseLimit is the number of blocks we are willing to send for msg.
func (p *Protocol) responseLimit(msg *bcproto.BlockRequest) int {
	limit := bcproto.MaxBlockResponse
	if n := p.cfg.MaxBlocksPerResponse; n > 0 && n < limit {
		limit = n
	}
	if max, ok := msg.GetMax(); ok && max < uint64(limit) {
		limit = int(max)
	}
	return limit
}

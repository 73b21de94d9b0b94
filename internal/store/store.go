package store

import (
	"errors"
	"fmt"
	"sync"

	"github.com/gogo/protobuf/proto"
	"github.com/google/orderedcode"
	dbm "github.com/tendermint/tm-db"

	nsproto "github.com/nodesync/nodesync/proto/nodesync/types"
	"github.com/nodesync/nodesync/types"
)

var (
	// ErrNotContiguous is returned when imported blocks do not extend the
	// stored chain.
	ErrNotContiguous = errors.New("block does not extend the chain")
	// ErrUnknownBlockType is returned when a block of a foreign type is
	// imported.
	ErrUnknownBlockType = errors.New("unknown block type")
	// ErrGenesisMismatch is returned when the database holds another chain.
	ErrGenesisMismatch = errors.New("database holds a different genesis block")
)

/*
BlockStore is a simple low level store for a linear chain of blocks.

The store contains all contiguous blocks from genesis (number 0) up to its best
number, plus an index from block hash to number. It can be assumed that every
number in [0, BestNumber()] has a block.

BlockStore satisfies the block sync client: it answers lookups by number or
hash and imports blocks that extend its chain. It is safe for concurrent use.
*/
type BlockStore struct {
	db dbm.DB

	mtx      sync.RWMutex
	genesis  types.Hash
	best     uint64
	bestHash types.Hash
}

// NewBlockStore returns a BlockStore over db. An empty db is initialized with
// genesis; otherwise the stored genesis must match.
func NewBlockStore(db dbm.DB, genesis *Block) (*BlockStore, error) {
	if genesis.Number != 0 {
		return nil, fmt.Errorf("genesis block must have number 0, got %d", genesis.Number)
	}

	bs := &BlockStore{db: db, genesis: genesis.Hash()}

	stored, err := bs.loadBlock(0)
	if err != nil {
		return nil, err
	}

	if stored == nil {
		batch := db.NewBatch()
		defer batch.Close()

		if err := saveBlockToBatch(batch, genesis); err != nil {
			return nil, err
		}
		if err := batch.Set(bestKey(), encodeNumber(0)); err != nil {
			return nil, err
		}
		if err := batch.WriteSync(); err != nil {
			return nil, err
		}

		bs.bestHash = genesis.Hash()
		return bs, nil
	}

	if stored.Hash() != genesis.Hash() {
		return nil, fmt.Errorf("%w: stored %v, expected %v", ErrGenesisMismatch, stored.Hash(), genesis.Hash())
	}

	bz, err := db.Get(bestKey())
	if err != nil {
		return nil, err
	}
	if bs.best, err = decodeNumber(bz); err != nil {
		return nil, fmt.Errorf("corrupt best block number: %w", err)
	}

	best, err := bs.loadBlock(bs.best)
	if err != nil {
		return nil, err
	}
	if best == nil {
		return nil, fmt.Errorf("best block %d is missing", bs.best)
	}
	bs.bestHash = best.Hash()

	return bs, nil
}

// GenesisHash returns the hash of block 0.
func (bs *BlockStore) GenesisHash() types.Hash {
	return bs.genesis
}

// BestNumber returns the number of the highest stored block.
func (bs *BlockStore) BestNumber() uint64 {
	bs.mtx.RLock()
	defer bs.mtx.RUnlock()
	return bs.best
}

// BestHash returns the hash of the highest stored block.
func (bs *BlockStore) BestHash() types.Hash {
	bs.mtx.RLock()
	defer bs.mtx.RUnlock()
	return bs.bestHash
}

// GetBlock returns the block identified by id, or nil if it is not stored.
func (bs *BlockStore) GetBlock(id types.BlockID) (types.Block, error) {
	block, err := bs.LoadBlock(id)
	if block == nil || err != nil {
		// avoid returning a typed nil
		return nil, err
	}
	return block, nil
}

// GetHeader returns the header of the block identified by id, or nil if it
// is not stored.
func (bs *BlockStore) GetHeader(id types.BlockID) (*types.Header, error) {
	block, err := bs.LoadBlock(id)
	if block == nil || err != nil {
		return nil, err
	}
	header := block.Header()
	return &header, nil
}

// LoadBlock returns the block identified by id, or nil if it is not stored.
func (bs *BlockStore) LoadBlock(id types.BlockID) (*Block, error) {
	if !id.IsHash() {
		return bs.loadBlock(id.Number())
	}

	bz, err := bs.db.Get(blockHashKey(id.Hash()))
	if err != nil {
		return nil, err
	}
	if len(bz) == 0 {
		return nil, nil
	}

	number, err := decodeNumber(bz)
	if err != nil {
		return nil, fmt.Errorf("corrupt hash index for %v: %w", id.Hash(), err)
	}
	return bs.loadBlock(number)
}

func (bs *BlockStore) loadBlock(number uint64) (*Block, error) {
	bz, err := bs.db.Get(blockKey(number))
	if err != nil {
		return nil, err
	}
	if len(bz) == 0 {
		return nil, nil
	}

	pb := new(nsproto.Block)
	if err := proto.Unmarshal(bz, pb); err != nil {
		return nil, fmt.Errorf("error reading block %d: %w", number, err)
	}
	return BlockFromProto(pb)
}

// ImportBlocks appends blocks to the chain. Blocks that are already stored
// are skipped; every other block must extend the chain by exactly one. The
// import is all or nothing.
func (bs *BlockStore) ImportBlocks(blocks []types.Block) error {
	bs.mtx.Lock()
	defer bs.mtx.Unlock()

	best, bestHash := bs.best, bs.bestHash
	toSave := make([]*Block, 0, len(blocks))

	for _, b := range blocks {
		block, ok := b.(*Block)
		if !ok {
			return fmt.Errorf("%w: %T", ErrUnknownBlockType, b)
		}

		if block.Number <= best && len(toSave) == 0 {
			stored, err := bs.loadBlock(block.Number)
			if err != nil {
				return err
			}
			if stored != nil && stored.Hash() == block.Hash() {
				continue
			}
		}

		if block.Number != best+1 || block.ParentHash != bestHash {
			return fmt.Errorf("%w: got %v with parent %v, best is #%d(%v)",
				ErrNotContiguous, block.Header(), block.ParentHash.ShortString(), best, bestHash.ShortString())
		}

		toSave = append(toSave, block)
		best, bestHash = block.Number, block.Hash()
	}

	if len(toSave) == 0 {
		return nil
	}

	batch := bs.db.NewBatch()
	defer batch.Close()

	for _, block := range toSave {
		if err := saveBlockToBatch(batch, block); err != nil {
			return err
		}
	}
	if err := batch.Set(bestKey(), encodeNumber(best)); err != nil {
		return err
	}
	if err := batch.WriteSync(); err != nil {
		return err
	}

	bs.best, bs.bestHash = best, bestHash
	return nil
}

// Append builds a block with txs on top of the chain and stores it.
func (bs *BlockStore) Append(txs []types.Tx) (*Block, error) {
	bs.mtx.RLock()
	block := NewBlock(bs.best+1, bs.bestHash, txs)
	bs.mtx.RUnlock()

	if err := bs.ImportBlocks([]types.Block{block}); err != nil {
		return nil, err
	}
	return block, nil
}

// MarshalBlock encodes a block for the wire.
func (bs *BlockStore) MarshalBlock(b types.Block) ([]byte, error) {
	block, ok := b.(*Block)
	if !ok {
		return nil, fmt.Errorf("%w: %T", ErrUnknownBlockType, b)
	}
	return proto.Marshal(block.ToProto())
}

// UnmarshalBlock decodes a block received from the wire.
func (bs *BlockStore) UnmarshalBlock(bz []byte) (types.Block, error) {
	pb := new(nsproto.Block)
	if err := proto.Unmarshal(bz, pb); err != nil {
		return nil, err
	}
	block, err := BlockFromProto(pb)
	if err != nil {
		return nil, err
	}
	return block, nil
}

// Close closes the underlying database.
func (bs *BlockStore) Close() error {
	return bs.db.Close()
}

func saveBlockToBatch(batch dbm.Batch, block *Block) error {
	bz, err := proto.Marshal(block.ToProto())
	if err != nil {
		return fmt.Errorf("unable to marshal block %d: %w", block.Number, err)
	}
	if err := batch.Set(blockKey(block.Number), bz); err != nil {
		return err
	}
	return batch.Set(blockHashKey(block.Hash()), encodeNumber(block.Number))
}

//---------------------------------- KEY ENCODING -----------------------------------------

// key prefixes
const (
	prefixBlock     = int64(0)
	prefixBlockHash = int64(1)
	prefixBest      = int64(2)
)

func blockKey(number uint64) []byte {
	key, err := orderedcode.Append(nil, prefixBlock, number)
	if err != nil {
		panic(err)
	}
	return key
}

func blockHashKey(hash types.Hash) []byte {
	key, err := orderedcode.Append(nil, prefixBlockHash, string(hash[:]))
	if err != nil {
		panic(err)
	}
	return key
}

func bestKey() []byte {
	key, err := orderedcode.Append(nil, prefixBest)
	if err != nil {
		panic(err)
	}
	return key
}

func encodeNumber(number uint64) []byte {
	bz, err := orderedcode.Append(nil, number)
	if err != nil {
		panic(err)
	}
	return bz
}

func decodeNumber(bz []byte) (number uint64, err error) {
	remaining, err := orderedcode.Parse(string(bz), &number)
	if err != nil {
		return 0, err
	}
	if len(remaining) != 0 {
		return 0, fmt.Errorf("expected complete number but got remainder: %q", remaining)
	}
	return number, nil
}

package mempool

import (
	"errors"
	"sync"

	"github.com/nodesync/nodesync/libs/log"
	"github.com/nodesync/nodesync/types"
)

// TxPool collects transactions relayed by peers until they are reaped into a
// block. It deduplicates through a TxCache, so a transaction that was seen
// recently is not added twice.
type TxPool struct {
	logger    log.Logger
	maxTxs    int
	maxTxSize int

	mtx   sync.Mutex
	txs   []types.Tx
	cache TxCache
}

// NewTxPool returns a pool holding at most maxTxs transactions of at most
// maxTxSize bytes each.
func NewTxPool(logger log.Logger, cache TxCache, maxTxs, maxTxSize int) *TxPool {
	return &TxPool{
		logger:    logger,
		maxTxs:    maxTxs,
		maxTxSize: maxTxSize,
		cache:     cache,
	}
}

// CheckTx adds tx to the pool. It returns ErrTxInCache for a transaction that
// was seen before.
func (p *TxPool) CheckTx(tx types.Tx) error {
	if len(tx) > p.maxTxSize {
		return ErrTxTooLarge{Max: p.maxTxSize, Actual: len(tx)}
	}

	p.mtx.Lock()
	defer p.mtx.Unlock()

	if len(p.txs) >= p.maxTxs {
		return ErrPoolIsFull{NumTxs: len(p.txs), MaxTxs: p.maxTxs}
	}
	if !p.cache.Push(tx) {
		return ErrTxInCache
	}

	p.txs = append(p.txs, tx)
	return nil
}

// HandleTransaction implements the block sync transaction handler. Known
// transactions are not an error.
func (p *TxPool) HandleTransaction(tx types.Tx) error {
	err := p.CheckTx(tx)
	if errors.Is(err, ErrTxInCache) {
		p.logger.Debug("tx already in cache", "key", tx.Key())
		return nil
	}
	return err
}

// ReapTxs removes and returns up to max transactions in arrival order. The
// reaped transactions stay in the cache.
func (p *TxPool) ReapTxs(max int) []types.Tx {
	p.mtx.Lock()
	defer p.mtx.Unlock()

	if max < 0 || max > len(p.txs) {
		max = len(p.txs)
	}
	reaped := make([]types.Tx, max)
	copy(reaped, p.txs[:max])
	p.txs = p.txs[max:]
	return reaped
}

// Size returns the number of pooled transactions.
func (p *TxPool) Size() int {
	p.mtx.Lock()
	defer p.mtx.Unlock()
	return len(p.txs)
}

package mempool

import (
	"errors"
	"fmt"
)

// ErrTxInCache is returned to the client if we saw tx earlier.
var ErrTxInCache = errors.New("tx already exists in cache")

// ErrTxTooLarge defines an error when a transaction is too big to be sent in a
// message to other peers.
type ErrTxTooLarge struct {
	Max    int
	Actual int
}

func (e ErrTxTooLarge) Error() string {
	return fmt.Sprintf("tx too large. Max size is %d, but got %d", e.Max, e.Actual)
}

// ErrPoolIsFull defines an error where the pool can not accept new
// transactions due to its size limit.
type ErrPoolIsFull struct {
	NumTxs int
	MaxTxs int
}

func (e ErrPoolIsFull) Error() string {
	return fmt.Sprintf("tx pool is full: number of txs %d (max: %d)", e.NumTxs, e.MaxTxs)
}

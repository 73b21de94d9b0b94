package types

// Tx is an opaque transaction relayed between peers.
type Tx []byte

// TxKey is the content hash of a transaction.
type TxKey Hash

// Key returns the content hash of the transaction.
func (tx Tx) Key() TxKey {
	return TxKey(Sum256(tx))
}

func (k TxKey) String() string { return Hash(k).String() }

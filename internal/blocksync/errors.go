package blocksync

import "errors"

var (
	// ErrVersionMismatch is reported when a peer speaks another protocol
	// version.
	ErrVersionMismatch = errors.New("version mismatch")
	// ErrGenesisMismatch is reported when a peer is on another chain.
	ErrGenesisMismatch = errors.New("genesis mismatch")
	// ErrInvalidMessage is reported when a peer sends bytes that do not
	// decode into a well-formed message.
	ErrInvalidMessage = errors.New("invalid message format")
	// ErrUnexpectedResponse is reported when a peer sends a BlockResponse
	// nobody asked for.
	ErrUnexpectedResponse = errors.New("unexpected response")
	// ErrTimeout is reported when a peer does not finish its handshake or
	// answer a request in time.
	ErrTimeout = errors.New("timeout")
	// ErrInsufficientPeers is returned by SamplePeers together with every
	// known peer when fewer peers than requested are available.
	ErrInsufficientPeers = errors.New("insufficient peers")
)

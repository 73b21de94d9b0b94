package p2p

import (
	"fmt"

	"github.com/nodesync/nodesync/types"
)

// Severity classifies a PeerError for the transport layer.
type Severity uint8

const (
	// SeverityTimeout marks a peer that stopped making progress. It is
	// recoverable: the peer may reconnect later.
	SeverityTimeout Severity = iota + 1
	// SeverityBad marks a peer that violated the protocol.
	SeverityBad
)

func (s Severity) String() string {
	switch s {
	case SeverityTimeout:
		return "timeout"
	case SeverityBad:
		return "bad"
	default:
		return fmt.Sprintf("severity(%d)", uint8(s))
	}
}

// PeerError is an advisory report about a peer. The transport decides what to
// do with it, e.g. disconnect or penalize the peer.
type PeerError struct {
	NodeID   types.NodeID
	Err      error
	Severity Severity
}

func (pe PeerError) Error() string {
	return fmt.Sprintf("peer=%q severity=%s: %s", pe.NodeID, pe.Severity, pe.Err.Error())
}

func (pe PeerError) Unwrap() error { return pe.Err }

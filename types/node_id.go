package types

// NodeID is the transport-assigned identifier of one peer connection. The
// protocol treats it as an opaque map key.
type NodeID string

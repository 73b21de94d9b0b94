/*
Package blocksync implements the peer synchronization protocol: how a
connection progresses from an unauthenticated peer to a synchronized one, how
block ranges are requested and served, and how unresponsive or incompatible
peers are flagged.

Every peer starts in the handshake set when the transport reports a new
connection. The node immediately announces its own chain head with a Status
message. When the peer's Status arrives it is validated against the local
protocol version and genesis hash. A compatible peer is promoted into the peer
table; an incompatible one is reported to the transport and stays where it is
until the transport disconnects it.

If a promoted peer claims a higher chain than ours, the Protocol issues a
BlockRequest for the range (ourBest, peerBest]. At most one request per peer
is in flight. Responses are correlated by a per-connection request id;
responses with a stale id are ignored and unsolicited responses are reported.

Any peer may ask for blocks. Responses are capped at MaxBlockResponse blocks
no matter how many the requester asks for.

The Protocol owns no goroutines or timers. The host calls MaintainPeers
periodically (or runs a BlockSyncService) to report peers that are stuck in
the handshake or sit on a request for longer than the configured timeout.
Reports are advisory: the peer is only removed once the transport calls
OnPeerDisconnected.
*/
package blocksync

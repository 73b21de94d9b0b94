package blocksync

import (
	"fmt"

	"github.com/nodesync/nodesync/internal/p2p"
)

// MaintainPeers reports every peer that has been in the handshake, or has had
// a block request outstanding, for longer than the request timeout. Each stale
// peer is reported once per call. Peers are not removed here: that happens
// when the transport disconnects them.
func (p *Protocol) MaintainPeers() {
	now := p.now()
	stale := p.peers.stale(now.Add(-p.cfg.RequestTimeout))

	for _, sp := range stale {
		what := "block request"
		if sp.handshake {
			what = "handshake"
		}
		p.report(sp.peerID, p2p.SeverityTimeout,
			fmt.Errorf("%w: %s pending for %v", ErrTimeout, what, now.Sub(sp.since)))
	}
}

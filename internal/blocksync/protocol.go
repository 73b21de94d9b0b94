package blocksync

import (
	"errors"
	"fmt"
	"time"

	"github.com/gogo/protobuf/proto"

	"github.com/nodesync/nodesync/config"
	"github.com/nodesync/nodesync/internal/p2p"
	"github.com/nodesync/nodesync/libs/log"
	tmrand "github.com/nodesync/nodesync/libs/rand"
	nssync "github.com/nodesync/nodesync/libs/sync"
	bcproto "github.com/nodesync/nodesync/proto/nodesync/blocksync"
	"github.com/nodesync/nodesync/types"
	"github.com/nodesync/nodesync/version"
)

// Option sets an optional parameter on the Protocol.
type Option func(*Protocol)

// WithMetrics sets the metrics.
func WithMetrics(metrics *Metrics) Option {
	return func(p *Protocol) { p.metrics = metrics }
}

// WithTxHandler sets the handler that receives transactions relayed by
// peers. Without one, transactions are dropped.
func WithTxHandler(h TxHandler) Option {
	return func(p *Protocol) { p.txHandler = h }
}

// Protocol is the block sync state machine. It is driven entirely by its
// callers: the transport reports connections and inbound frames, and the host
// calls MaintainPeers periodically. All methods are safe for concurrent use.
type Protocol struct {
	logger    log.Logger
	cfg       *config.BlockSyncConfig
	client    Client
	transport Transport
	txHandler TxHandler
	metrics   *Metrics

	peers *peerTable
	// serializes all state changes for one peer
	peerMtx *nssync.StripedMutex

	now func() time.Time
}

// NewProtocol returns a Protocol serving and syncing the chain held by client.
func NewProtocol(
	logger log.Logger,
	cfg *config.BlockSyncConfig,
	client Client,
	transport Transport,
	options ...Option,
) *Protocol {
	p := &Protocol{
		logger:    logger,
		cfg:       cfg,
		client:    client,
		transport: transport,
		metrics:   NopMetrics(),
		peers:     newPeerTable(tmrand.NewRand()),
		peerMtx:   nssync.NewStripedMutex(nssync.DefaultStripes),
		now:       time.Now,
	}

	for _, opt := range options {
		opt(p)
	}

	return p
}

// OnPeerConnected puts a new peer into the handshake set and announces our
// chain head to it.
func (p *Protocol) OnPeerConnected(peerID types.NodeID) error {
	p.peerMtx.Lock(string(peerID))
	defer p.peerMtx.Unlock(string(peerID))

	p.peers.addHandshaking(peerID, p.now())
	p.updatePeerGauges()
	p.logger.Debug("peer connected", "peer", peerID)

	return p.send(peerID, p.localStatus())
}

// OnPeerDisconnected forgets everything about the peer. Unknown peers are
// ignored.
func (p *Protocol) OnPeerDisconnected(peerID types.NodeID) {
	p.peerMtx.Lock(string(peerID))
	defer p.peerMtx.Unlock(string(peerID))

	if state := p.peers.remove(peerID); state != peerStateUnknown {
		p.updatePeerGauges()
		p.logger.Debug("peer disconnected", "peer", peerID)
	}
}

// OnMessage handles one framed message from peerID. Protocol violations are
// reported to the transport and are not returned. A returned error means the
// message could not be processed for a local reason, such as a failing
// collaborator.
func (p *Protocol) OnMessage(peerID types.NodeID, bz []byte) error {
	msg, err := DecodeMessage(bz, p.cfg.MaxMessageSize)
	if err != nil {
		p.logger.Debug("failed to decode message", "peer", peerID, "err", err)
		p.report(peerID, p2p.SeverityBad, fmt.Errorf("%w: %v", ErrInvalidMessage, err))
		return nil
	}

	switch msg := msg.(type) {
	case *bcproto.Status:
		err = p.handleStatus(peerID, msg)

	case *bcproto.Transaction:
		err = p.handleTransaction(peerID, msg)

	case *bcproto.BlockRequest:
		err = p.handleBlockRequest(peerID, msg)

	case *bcproto.BlockResponse:
		err = p.handleBlockResponse(peerID, msg)

	default:
		err = fmt.Errorf("received unknown message: %T", msg)
	}

	if err != nil {
		p.metrics.InternalErrors.Add(1)
		p.logger.Error("failed to process message", "peer", peerID, "err", err)
	}
	return err
}

// SamplePeers returns n distinct peers that completed the handshake, chosen
// uniformly at random. If fewer than n are known, it returns all of them
// together with ErrInsufficientPeers.
func (p *Protocol) SamplePeers(n int) ([]types.NodeID, error) {
	ids, complete := p.peers.sample(n)
	if !complete {
		return ids, ErrInsufficientPeers
	}
	return ids, nil
}

func (p *Protocol) handleStatus(peerID types.NodeID, msg *bcproto.Status) error {
	if msg.Version != version.BlockSyncProtocol {
		p.report(peerID, p2p.SeverityBad, fmt.Errorf("%w: got %d, want %d",
			ErrVersionMismatch, msg.Version, version.BlockSyncProtocol))
		return nil
	}

	genesis := p.client.GenesisHash()
	if !genesis.Equal(msg.GenesisHash) {
		p.report(peerID, p2p.SeverityBad, fmt.Errorf("%w: got %X, want %v",
			ErrGenesisMismatch, msg.GenesisHash, genesis))
		return nil
	}

	bestHash, err := types.HashFromBytes(msg.BestHash)
	if err != nil {
		p.report(peerID, p2p.SeverityBad, fmt.Errorf("%w: %v", ErrInvalidMessage, err))
		return nil
	}

	p.peerMtx.Lock(string(peerID))
	defer p.peerMtx.Unlock(string(peerID))

	info, state := p.peers.get(peerID)
	if state == peerStateUnknown {
		p.logger.Debug("dropping status from unknown peer", "peer", peerID)
		return nil
	}

	info.protocolVersion = msg.Version
	info.bestHash = bestHash
	info.bestNumber = msg.BestNumber

	var req *bcproto.BlockRequest
	if ourBest := p.client.BestNumber(); info.pending == nil && info.bestNumber > ourBest {
		req = info.startRequest(ourBest, p.now())
	}

	if !p.peers.put(peerID, info) {
		return nil
	}

	if state == peerStateHandshaking {
		p.updatePeerGauges()
		p.logger.Info("peer synchronized", "peer", peerID, "best", info.bestNumber, "hash", info.bestHash)
	}

	if req != nil {
		return p.sendRequest(peerID, req)
	}
	return nil
}

func (p *Protocol) handleTransaction(peerID types.NodeID, msg *bcproto.Transaction) error {
	if p.txHandler == nil {
		return nil
	}
	if err := p.txHandler.HandleTransaction(types.Tx(msg.Payload)); err != nil {
		return fmt.Errorf("failed to handle transaction from %v: %w", peerID, err)
	}
	return nil
}

func (p *Protocol) handleBlockResponse(peerID types.NodeID, msg *bcproto.BlockResponse) error {
	p.peerMtx.Lock(string(peerID))
	defer p.peerMtx.Unlock(string(peerID))

	info, state := p.peers.get(peerID)
	if state != peerStateSynced || info.pending == nil {
		p.report(peerID, p2p.SeverityBad, fmt.Errorf("%w: id %d", ErrUnexpectedResponse, msg.Id))
		return nil
	}
	if msg.Id != info.pending.id {
		p.logger.Debug("ignoring stale block response", "peer", peerID, "id", msg.Id, "want", info.pending.id)
		return nil
	}

	info.clearRequest()
	if !p.peers.put(peerID, info) {
		return nil
	}

	blocks := make([]types.Block, 0, len(msg.Blocks))
	for i, bz := range msg.Blocks {
		block, err := p.client.UnmarshalBlock(bz)
		if err != nil {
			p.report(peerID, p2p.SeverityBad, fmt.Errorf("%w: block %d: %v", ErrInvalidMessage, i, err))
			return nil
		}
		blocks = append(blocks, block)
	}

	if len(blocks) == 0 {
		p.logger.Debug("peer has no blocks for us", "peer", peerID)
		return nil
	}

	if err := p.client.ImportBlocks(blocks); err != nil {
		return fmt.Errorf("failed to import %d blocks from %v: %w", len(blocks), peerID, err)
	}
	p.metrics.BlocksImported.Add(float64(len(blocks)))

	ourBest := p.client.BestNumber()
	p.logger.Debug("imported blocks", "peer", peerID, "count", len(blocks), "best", ourBest)

	if info.bestNumber <= ourBest {
		return nil
	}

	// the peer is still ahead: keep pulling from it
	req := info.startRequest(ourBest, p.now())
	if !p.peers.put(peerID, info) {
		return nil
	}
	return p.sendRequest(peerID, req)
}

// sendRequest sends a request already recorded as pending. If it cannot be
// sent the pending request is dropped again so the peer is not timed out for
// a local failure.
func (p *Protocol) sendRequest(peerID types.NodeID, req *bcproto.BlockRequest) error {
	if err := p.send(peerID, req); err != nil {
		if info, state := p.peers.get(peerID); state == peerStateSynced &&
			info.pending != nil && info.pending.id == req.Id {
			info.clearRequest()
			p.peers.put(peerID, info)
		}
		return err
	}

	p.metrics.RequestsSent.Add(1)
	p.logger.Debug("requested blocks", "peer", peerID, "id", req.Id, "from", req.From, "to", req.To)
	return nil
}

func (p *Protocol) send(peerID types.NodeID, msg proto.Message) error {
	bz, err := EncodeMessage(msg)
	if err != nil {
		return fmt.Errorf("failed to encode %T: %w", msg, err)
	}
	if err := p.transport.Send(peerID, bz); err != nil {
		return fmt.Errorf("failed to send %T to %v: %w", msg, peerID, err)
	}
	return nil
}

func (p *Protocol) report(peerID types.NodeID, severity p2p.Severity, err error) {
	p.metrics.PeerReports.With("reason", reportReason(err)).Add(1)
	p.logger.Info("reporting peer", "peer", peerID, "severity", severity, "err", err)

	p.transport.ReportPeer(p2p.PeerError{
		NodeID:   peerID,
		Err:      err,
		Severity: severity,
	})
}

// localStatus describes our chain head. The best hash falls back to the
// zero hash if the client cannot produce the header.
func (p *Protocol) localStatus() *bcproto.Status {
	best := p.client.BestNumber()
	bestHash := types.ZeroHash

	header, err := p.client.GetHeader(types.BlockIDFromNumber(best))
	switch {
	case err != nil:
		p.logger.Error("failed to load best header", "number", best, "err", err)
	case header != nil:
		bestHash = header.Hash
	}

	genesis := p.client.GenesisHash()
	return &bcproto.Status{
		Version:     version.BlockSyncProtocol,
		GenesisHash: genesis.Bytes(),
		BestHash:    bestHash.Bytes(),
		BestNumber:  best,
	}
}

func (p *Protocol) updatePeerGauges() {
	synced, handshaking := p.peers.size()
	p.metrics.Peers.Set(float64(synced))
	p.metrics.HandshakingPeers.Set(float64(handshaking))
}

func reportReason(err error) string {
	for _, sentinel := range []error{
		ErrVersionMismatch,
		ErrGenesisMismatch,
		ErrInvalidMessage,
		ErrUnexpectedResponse,
		ErrTimeout,
	} {
		if errors.Is(err, sentinel) {
			return sentinel.Error()
		}
	}
	return "other"
}

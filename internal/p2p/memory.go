package p2p

import (
	"context"
	"errors"
	"fmt"
	"sync"

	pool "github.com/libp2p/go-buffer-pool"

	"github.com/nodesync/nodesync/libs/log"
	"github.com/nodesync/nodesync/types"
)

var (
	// ErrPeerNotConnected is returned when sending to a peer without an open
	// connection.
	ErrPeerNotConnected = errors.New("peer not connected")
	// ErrQueueFull is returned when the receiving node's inbound queue is
	// full. The frame is dropped.
	ErrQueueFull = errors.New("inbound queue full")
)

// Handler consumes the connection events and frames delivered by a
// MemoryTransport. A frame passed to OnMessage is only valid until the call
// returns.
type Handler interface {
	OnPeerConnected(peerID types.NodeID) error
	OnPeerDisconnected(peerID types.NodeID)
	OnMessage(peerID types.NodeID, bz []byte) error
}

type eventKind uint8

const (
	eventConnected eventKind = iota + 1
	eventDisconnected
	eventMessage
)

type event struct {
	kind eventKind
	peer types.NodeID
	data []byte
}

// MemoryNetwork is an in-memory network of MemoryTransports, delivering frames
// between them asynchronously. Every transport processes its inbound events
// on a single goroutine, so events from one peer are handled in order.
// Frames go through a bounded queue and are dropped when it is full;
// connection events are never dropped.
type MemoryNetwork struct {
	logger     log.Logger
	bufferSize int

	mtx        sync.RWMutex
	transports map[types.NodeID]*MemoryTransport
	wg         sync.WaitGroup
}

// NewMemoryNetwork creates a new in-memory network. bufferSize is the
// capacity of each transport's inbound frame queue.
func NewMemoryNetwork(logger log.Logger, bufferSize int) *MemoryNetwork {
	return &MemoryNetwork{
		logger:     logger,
		bufferSize: bufferSize,
		transports: make(map[types.NodeID]*MemoryTransport),
	}
}

// CreateTransport creates a new transport endpoint for the given node ID. It
// does not deliver anything until Start is called.
func (n *MemoryNetwork) CreateTransport(nodeID types.NodeID) *MemoryTransport {
	t := &MemoryTransport{
		logger:  n.logger.With("local", nodeID),
		network: n,
		nodeID:  nodeID,
		queue:   make(chan event, n.bufferSize),
		ctrlCh:  make(chan struct{}, 1),
		peers:   make(map[types.NodeID]struct{}),
	}

	n.mtx.Lock()
	defer n.mtx.Unlock()
	n.transports[nodeID] = t
	return t
}

// GetTransport looks up a transport by node ID.
func (n *MemoryNetwork) GetTransport(id types.NodeID) *MemoryTransport {
	n.mtx.RLock()
	defer n.mtx.RUnlock()
	return n.transports[id]
}

// Size returns the number of transports in the network.
func (n *MemoryNetwork) Size() int {
	n.mtx.RLock()
	defer n.mtx.RUnlock()
	return len(n.transports)
}

// Connect opens a connection between a and b. Both ends are notified through
// their handlers before either can receive a frame from the other.
func (n *MemoryNetwork) Connect(a, b types.NodeID) error {
	if a == b {
		return fmt.Errorf("cannot connect %v to itself", a)
	}

	n.mtx.Lock()
	defer n.mtx.Unlock()

	ta, tb := n.transports[a], n.transports[b]
	if ta == nil || tb == nil {
		return fmt.Errorf("unknown transport in connection %v <-> %v", a, b)
	}

	if !ta.addPeer(b) {
		return fmt.Errorf("%v is already connected to %v", a, b)
	}
	tb.addPeer(a)

	ta.enqueueControl(event{kind: eventConnected, peer: b})
	tb.enqueueControl(event{kind: eventConnected, peer: a})
	return nil
}

// Disconnect closes the connection between a and b, if any. Both ends are
// notified through their handlers.
func (n *MemoryNetwork) Disconnect(a, b types.NodeID) {
	ta, tb := n.GetTransport(a), n.GetTransport(b)
	if ta == nil || tb == nil {
		return
	}

	if ta.removePeer(b) {
		ta.enqueueControl(event{kind: eventDisconnected, peer: b})
	}
	if tb.removePeer(a) {
		tb.enqueueControl(event{kind: eventDisconnected, peer: a})
	}
}

// Wait blocks until every started transport has stopped.
func (n *MemoryNetwork) Wait() { n.wg.Wait() }

// MemoryTransport is one node's endpoint in a MemoryNetwork.
type MemoryTransport struct {
	logger  log.Logger
	network *MemoryNetwork
	nodeID  types.NodeID
	queue   chan event

	// connection events, unbounded; ctrlCh signals that ctrl is non-empty
	ctrlMtx sync.Mutex
	ctrl    []event
	ctrlCh  chan struct{}

	mtx     sync.RWMutex
	peers   map[types.NodeID]struct{}
	reports []PeerError
}

// NodeID returns the transport's node ID.
func (t *MemoryTransport) NodeID() types.NodeID { return t.nodeID }

// Start delivers inbound events to h until ctx is canceled.
func (t *MemoryTransport) Start(ctx context.Context, h Handler) {
	t.network.wg.Add(1)
	go func() {
		defer t.network.wg.Done()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.ctrlCh:
				t.deliverControl(h)
			case e := <-t.queue:
				// a frame is queued after the connect event of its connection
				t.deliverControl(h)
				t.deliver(h, e)
			}
		}
	}()
}

func (t *MemoryTransport) deliverControl(h Handler) {
	t.ctrlMtx.Lock()
	events := t.ctrl
	t.ctrl = nil
	t.ctrlMtx.Unlock()

	for _, e := range events {
		t.deliver(h, e)
	}
}

func (t *MemoryTransport) deliver(h Handler, e event) {
	switch e.kind {
	case eventConnected:
		if err := h.OnPeerConnected(e.peer); err != nil {
			t.logger.Error("failed to handle new peer", "peer", e.peer, "err", err)
		}

	case eventDisconnected:
		h.OnPeerDisconnected(e.peer)

	case eventMessage:
		defer pool.Put(e.data)

		// frames still queued from a closed connection are dropped
		if !t.IsConnected(e.peer) {
			return
		}
		if err := h.OnMessage(e.peer, e.data); err != nil {
			t.logger.Error("failed to handle message", "peer", e.peer, "err", err)
		}
	}
}

// Send queues a frame for delivery to peerID. It never blocks.
func (t *MemoryTransport) Send(peerID types.NodeID, bz []byte) error {
	if !t.IsConnected(peerID) {
		return fmt.Errorf("%w: %v", ErrPeerNotConnected, peerID)
	}

	// returned to the pool once delivered
	data := pool.Get(len(bz))
	copy(data, bz)

	// held across the enqueue so a frame never overtakes a connect event
	t.network.mtx.RLock()
	defer t.network.mtx.RUnlock()

	remote := t.network.transports[peerID]
	if remote == nil {
		pool.Put(data)
		return fmt.Errorf("%w: %v", ErrPeerNotConnected, peerID)
	}
	if !remote.enqueueFrame(event{kind: eventMessage, peer: t.nodeID, data: data}) {
		pool.Put(data)
		return fmt.Errorf("%w: %v", ErrQueueFull, peerID)
	}
	return nil
}

// ReportPeer records the report and disconnects the peer.
func (t *MemoryTransport) ReportPeer(pe PeerError) {
	t.mtx.Lock()
	t.reports = append(t.reports, pe)
	t.mtx.Unlock()

	t.logger.Debug("peer reported", "peer", pe.NodeID, "severity", pe.Severity, "err", pe.Err)
	t.network.Disconnect(t.nodeID, pe.NodeID)
}

// Reports returns every PeerError reported through this transport.
func (t *MemoryTransport) Reports() []PeerError {
	t.mtx.RLock()
	defer t.mtx.RUnlock()

	reports := make([]PeerError, len(t.reports))
	copy(reports, t.reports)
	return reports
}

// IsConnected reports whether the transport has an open connection to peerID.
func (t *MemoryTransport) IsConnected(peerID types.NodeID) bool {
	t.mtx.RLock()
	defer t.mtx.RUnlock()
	_, ok := t.peers[peerID]
	return ok
}

func (t *MemoryTransport) addPeer(peerID types.NodeID) bool {
	t.mtx.Lock()
	defer t.mtx.Unlock()
	if _, ok := t.peers[peerID]; ok {
		return false
	}
	t.peers[peerID] = struct{}{}
	return true
}

func (t *MemoryTransport) removePeer(peerID types.NodeID) bool {
	t.mtx.Lock()
	defer t.mtx.Unlock()
	if _, ok := t.peers[peerID]; !ok {
		return false
	}
	delete(t.peers, peerID)
	return true
}

func (t *MemoryTransport) enqueueFrame(e event) bool {
	select {
	case t.queue <- e:
		return true
	default:
		t.logger.Error("dropping inbound frame; queue full", "peer", e.peer)
		return false
	}
}

// enqueueControl never blocks, since ReportPeer disconnects from the
// delivery goroutine itself.
func (t *MemoryTransport) enqueueControl(e event) {
	t.ctrlMtx.Lock()
	t.ctrl = append(t.ctrl, e)
	t.ctrlMtx.Unlock()

	select {
	case t.ctrlCh <- struct{}{}:
	default:
	}
}

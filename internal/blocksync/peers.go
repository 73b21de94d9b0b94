package blocksync

import (
	"math/rand"
	"sync"
	"time"

	bcproto "github.com/nodesync/nodesync/proto/nodesync/blocksync"
	"github.com/nodesync/nodesync/types"
)

type peerState uint8

const (
	peerStateUnknown peerState = iota
	peerStateHandshaking
	peerStateSynced
)

// pendingRequest is the single block request outstanding for a peer.
type pendingRequest struct {
	id   uint64
	from types.BlockID
	to   types.BlockID
}

// peerInfo is the record kept for a peer that completed the handshake.
// Records are stored by value so readers always get a consistent copy.
type peerInfo struct {
	protocolVersion uint32
	bestHash        types.Hash
	bestNumber      uint64

	// pending and requestStartedAt are set and cleared together.
	pending          *pendingRequest
	requestStartedAt time.Time

	nextRequestID uint64
}

// startRequest records a new request for the blocks in (from, bestNumber].
func (pi *peerInfo) startRequest(from uint64, now time.Time) *bcproto.BlockRequest {
	req := &pendingRequest{
		id:   pi.nextRequestID,
		from: types.BlockIDFromNumber(from),
		to:   types.BlockIDFromNumber(pi.bestNumber),
	}
	pi.nextRequestID++
	pi.pending = req
	pi.requestStartedAt = now

	return &bcproto.BlockRequest{
		Id:   req.id,
		From: req.from.ToProto(),
		To:   req.to.ToProto(),
	}
}

func (pi *peerInfo) clearRequest() {
	pi.pending = nil
	pi.requestStartedAt = time.Time{}
}

// stalePeer is a peer found stuck by a sweep.
type stalePeer struct {
	peerID types.NodeID
	since  time.Time
	// handshake is false when the peer is stuck on a block request.
	handshake bool
}

// peerTable holds the handshake set and the peer records. A peer is in at
// most one of the two maps.
type peerTable struct {
	mtx         sync.RWMutex
	handshaking map[types.NodeID]time.Time
	peers       map[types.NodeID]peerInfo

	rngMtx sync.Mutex
	rng    *rand.Rand
}

func newPeerTable(rng *rand.Rand) *peerTable {
	return &peerTable{
		handshaking: make(map[types.NodeID]time.Time),
		peers:       make(map[types.NodeID]peerInfo),
		rng:         rng,
	}
}

// addHandshaking starts a fresh connection for peerID. Any record left over
// from a previous connection with the same ID is dropped.
func (pt *peerTable) addHandshaking(peerID types.NodeID, now time.Time) {
	pt.mtx.Lock()
	defer pt.mtx.Unlock()

	delete(pt.peers, peerID)
	pt.handshaking[peerID] = now
}

// remove deletes peerID from whichever map holds it and returns the state it
// was in.
func (pt *peerTable) remove(peerID types.NodeID) peerState {
	pt.mtx.Lock()
	defer pt.mtx.Unlock()

	if _, ok := pt.handshaking[peerID]; ok {
		delete(pt.handshaking, peerID)
		return peerStateHandshaking
	}
	if _, ok := pt.peers[peerID]; ok {
		delete(pt.peers, peerID)
		return peerStateSynced
	}
	return peerStateUnknown
}

// get returns a copy of the peer's record, if any, and its state.
func (pt *peerTable) get(peerID types.NodeID) (peerInfo, peerState) {
	pt.mtx.RLock()
	defer pt.mtx.RUnlock()

	if info, ok := pt.peers[peerID]; ok {
		return info, peerStateSynced
	}
	if _, ok := pt.handshaking[peerID]; ok {
		return peerInfo{}, peerStateHandshaking
	}
	return peerInfo{}, peerStateUnknown
}

// put stores the record for peerID, removing it from the handshake set in the
// same step. It returns false, storing nothing, if the peer disconnected in
// the meantime.
func (pt *peerTable) put(peerID types.NodeID, info peerInfo) bool {
	pt.mtx.Lock()
	defer pt.mtx.Unlock()

	_, handshaking := pt.handshaking[peerID]
	_, synced := pt.peers[peerID]
	if !handshaking && !synced {
		return false
	}

	delete(pt.handshaking, peerID)
	pt.peers[peerID] = info
	return true
}

// size returns the number of synced and handshaking peers.
func (pt *peerTable) size() (synced, handshaking int) {
	pt.mtx.RLock()
	defer pt.mtx.RUnlock()
	return len(pt.peers), len(pt.handshaking)
}

// stale returns every handshake started before cutoff and every pending
// request issued before cutoff.
func (pt *peerTable) stale(cutoff time.Time) []stalePeer {
	pt.mtx.RLock()
	defer pt.mtx.RUnlock()

	var stale []stalePeer
	for peerID, connectedAt := range pt.handshaking {
		if connectedAt.Before(cutoff) {
			stale = append(stale, stalePeer{peerID: peerID, since: connectedAt, handshake: true})
		}
	}
	for peerID, info := range pt.peers {
		if info.pending != nil && info.requestStartedAt.Before(cutoff) {
			stale = append(stale, stalePeer{peerID: peerID, since: info.requestStartedAt})
		}
	}
	return stale
}

// sample returns up to n distinct synced peers chosen uniformly at random.
// The boolean is false if fewer than n peers exist, in which case every peer
// is returned.
func (pt *peerTable) sample(n int) ([]types.NodeID, bool) {
	pt.mtx.RLock()
	ids := make([]types.NodeID, 0, len(pt.peers))
	for peerID := range pt.peers {
		ids = append(ids, peerID)
	}
	pt.mtx.RUnlock()

	if n < 0 {
		n = 0
	}
	if len(ids) < n {
		return ids, false
	}

	pt.rngMtx.Lock()
	defer pt.rngMtx.Unlock()

	// partial Fisher-Yates: the first n entries end up a uniform sample
	for i := 0; i < n; i++ {
		j := i + pt.rng.Intn(len(ids)-i)
		ids[i], ids[j] = ids[j], ids[i]
	}
	return ids[:n], true
}

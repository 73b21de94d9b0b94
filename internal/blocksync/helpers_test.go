package blocksync

import (
	"math"
	"sync"
	"testing"
	"time"

	"github.com/gogo/protobuf/proto"
	"github.com/stretchr/testify/require"
	dbm "github.com/tendermint/tm-db"

	"github.com/nodesync/nodesync/config"
	"github.com/nodesync/nodesync/internal/p2p"
	"github.com/nodesync/nodesync/internal/store"
	"github.com/nodesync/nodesync/libs/log"
	"github.com/nodesync/nodesync/types"
)

const testChainID = "blocksync-test"

// testChain is a chain of blocks shared by all test nodes; block i is at
// index i.
var testChain = func() []*store.Block {
	chain := []*store.Block{store.GenesisBlock(testChainID)}
	for i := 1; i <= 400; i++ {
		chain = append(chain, store.NewBlock(uint64(i), chain[i-1].Hash(), []types.Tx{types.Tx{byte(i), byte(i >> 8)}}))
	}
	return chain
}()

// testChainCodec encodes and decodes blocks of the test chain.
var testChainCodec BlockCodec = func() BlockCodec {
	bs, err := store.NewBlockStore(dbm.NewMemDB(), testChain[0])
	if err != nil {
		panic(err)
	}
	return bs
}()

// newTestStore returns a store holding the test chain up to best.
func newTestStore(t require.TestingT, best int) *store.BlockStore {
	if h, ok := t.(interface{ Helper() }); ok {
		h.Helper()
	}

	bs, err := store.NewBlockStore(dbm.NewMemDB(), testChain[0])
	require.NoError(t, err)

	blocks := make([]types.Block, 0, best)
	for _, b := range testChain[1 : best+1] {
		blocks = append(blocks, b)
	}
	require.NoError(t, bs.ImportBlocks(blocks))
	return bs
}

type sentMessage struct {
	peerID types.NodeID
	msg    proto.Message
}

// recordingTransport decodes and records every frame sent through it.
type recordingTransport struct {
	mtx     sync.Mutex
	sent    []sentMessage
	reports []p2p.PeerError
	sendErr error
}

func (rt *recordingTransport) Send(peerID types.NodeID, bz []byte) error {
	rt.mtx.Lock()
	defer rt.mtx.Unlock()

	if rt.sendErr != nil {
		return rt.sendErr
	}

	msg, err := DecodeMessage(bz, math.MaxInt32)
	if err != nil {
		panic(err)
	}
	rt.sent = append(rt.sent, sentMessage{peerID: peerID, msg: msg})
	return nil
}

func (rt *recordingTransport) ReportPeer(pe p2p.PeerError) {
	rt.mtx.Lock()
	defer rt.mtx.Unlock()
	rt.reports = append(rt.reports, pe)
}

func (rt *recordingTransport) setSendErr(err error) {
	rt.mtx.Lock()
	defer rt.mtx.Unlock()
	rt.sendErr = err
}

func (rt *recordingTransport) sentTo(peerID types.NodeID) []proto.Message {
	rt.mtx.Lock()
	defer rt.mtx.Unlock()

	var msgs []proto.Message
	for _, s := range rt.sent {
		if s.peerID == peerID {
			msgs = append(msgs, s.msg)
		}
	}
	return msgs
}

func (rt *recordingTransport) lastSentTo(t *testing.T, peerID types.NodeID) proto.Message {
	t.Helper()
	msgs := rt.sentTo(peerID)
	require.NotEmpty(t, msgs, "nothing sent to %v", peerID)
	return msgs[len(msgs)-1]
}

func (rt *recordingTransport) getReports() []p2p.PeerError {
	rt.mtx.Lock()
	defer rt.mtx.Unlock()
	return append([]p2p.PeerError(nil), rt.reports...)
}

// fakeClock is a manually advanced clock.
type fakeClock struct {
	mtx sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mtx.Lock()
	defer c.mtx.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mtx.Lock()
	defer c.mtx.Unlock()
	c.now = c.now.Add(d)
}

type testNode struct {
	protocol  *Protocol
	store     *store.BlockStore
	transport *recordingTransport
	clock     *fakeClock
}

func newTestNode(t *testing.T, best int, options ...Option) *testNode {
	t.Helper()

	node := &testNode{
		store:     newTestStore(t, best),
		transport: &recordingTransport{},
		clock:     newFakeClock(),
	}
	node.protocol = NewProtocol(
		log.TestingLogger(),
		config.TestBlockSyncConfig(),
		node.store,
		node.transport,
		options...,
	)
	node.protocol.now = node.clock.Now
	return node
}

func mustEncode(t *testing.T, pb proto.Message) []byte {
	t.Helper()
	bz, err := EncodeMessage(pb)
	require.NoError(t, err)
	return bz
}

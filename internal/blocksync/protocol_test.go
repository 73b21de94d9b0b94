package blocksync

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/nodesync/nodesync/config"
	"github.com/nodesync/nodesync/internal/blocksync/mocks"
	"github.com/nodesync/nodesync/internal/p2p"
	"github.com/nodesync/nodesync/libs/log"
	bcproto "github.com/nodesync/nodesync/proto/nodesync/blocksync"
	"github.com/nodesync/nodesync/types"
	"github.com/nodesync/nodesync/version"
)

func statusAt(best int) *bcproto.Status {
	return &bcproto.Status{
		Version:     version.BlockSyncProtocol,
		GenesisHash: testChain[0].Hash().Bytes(),
		BestHash:    testChain[best].Hash().Bytes(),
		BestNumber:  uint64(best),
	}
}

// handshake connects peerID and delivers its status.
func (n *testNode) handshake(t *testing.T, peerID types.NodeID, best int) {
	t.Helper()
	require.NoError(t, n.protocol.OnPeerConnected(peerID))
	require.NoError(t, n.protocol.OnMessage(peerID, mustEncode(t, statusAt(best))))
}

func (n *testNode) peerState(peerID types.NodeID) (peerInfo, peerState) {
	return n.protocol.peers.get(peerID)
}

func requireReport(t *testing.T, pe p2p.PeerError, peerID types.NodeID, severity p2p.Severity, target error) {
	t.Helper()
	require.Equal(t, peerID, pe.NodeID)
	require.Equal(t, severity, pe.Severity)
	require.True(t, errors.Is(pe, target), "expected %v, got %v", target, pe.Err)
}

func TestProtocol_OnPeerConnectedAnnouncesStatus(t *testing.T) {
	node := newTestNode(t, 10)

	require.NoError(t, node.protocol.OnPeerConnected("peer"))

	_, state := node.peerState("peer")
	require.Equal(t, peerStateHandshaking, state)

	status, ok := node.transport.lastSentTo(t, "peer").(*bcproto.Status)
	require.True(t, ok)
	assert.Equal(t, statusAt(10), status)
}

func TestProtocol_OnPeerConnectedOpaqueID(t *testing.T) {
	node := newTestNode(t, 10)

	for _, peerID := range []types.NodeID{"", " padded ", types.NodeID(strings.Repeat("x", 1024))} {
		require.NoError(t, node.protocol.OnPeerConnected(peerID))
		_, state := node.peerState(peerID)
		require.Equal(t, peerStateHandshaking, state, "peer %q", peerID)

		_, ok := node.transport.lastSentTo(t, peerID).(*bcproto.Status)
		require.True(t, ok)
	}
	require.Empty(t, node.transport.getReports())
}

func TestProtocol_Status(t *testing.T) {
	testCases := map[string]struct {
		peerBest    int
		wantPending bool
	}{
		"peer behind":   {5, false},
		"peer at par":   {10, false},
		"peer ahead":    {50, true},
		"peer far away": {400, true},
	}

	for name, tc := range testCases {
		tc := tc
		t.Run(name, func(t *testing.T) {
			node := newTestNode(t, 10)
			node.handshake(t, "peer", tc.peerBest)

			info, state := node.peerState("peer")
			require.Equal(t, peerStateSynced, state)
			assert.Equal(t, uint64(tc.peerBest), info.bestNumber)
			assert.Equal(t, testChain[tc.peerBest].Hash(), info.bestHash)
			assert.Equal(t, version.BlockSyncProtocol, info.protocolVersion)

			synced, handshaking := node.protocol.peers.size()
			assert.Equal(t, 1, synced)
			assert.Equal(t, 0, handshaking)
			assert.Empty(t, node.transport.getReports())

			if !tc.wantPending {
				assert.Nil(t, info.pending)
				assert.True(t, info.requestStartedAt.IsZero())
				assert.Len(t, node.transport.sentTo("peer"), 1) // just our status
				return
			}

			require.NotNil(t, info.pending)
			assert.Equal(t, node.clock.Now(), info.requestStartedAt)

			req, ok := node.transport.lastSentTo(t, "peer").(*bcproto.BlockRequest)
			require.True(t, ok)
			assert.EqualValues(t, 0, req.Id)
			assert.Equal(t, types.BlockIDFromNumber(10).ToProto(), req.From)
			assert.Equal(t, types.BlockIDFromNumber(uint64(tc.peerBest)).ToProto(), req.To)
			_, hasMax := req.GetMax()
			assert.False(t, hasMax)
		})
	}
}

func TestProtocol_StatusMismatch(t *testing.T) {
	badVersion := statusAt(50)
	badVersion.Version = version.BlockSyncProtocol + 1

	badGenesis := statusAt(50)
	badGenesis.GenesisHash = types.Sum256([]byte("another chain")).Bytes()

	testCases := map[string]struct {
		status *bcproto.Status
		want   error
	}{
		"version mismatch": {badVersion, ErrVersionMismatch},
		"genesis mismatch": {badGenesis, ErrGenesisMismatch},
	}

	for name, tc := range testCases {
		tc := tc
		t.Run(name, func(t *testing.T) {
			node := newTestNode(t, 10)
			require.NoError(t, node.protocol.OnPeerConnected("peer"))
			require.NoError(t, node.protocol.OnMessage("peer", mustEncode(t, tc.status)))

			_, state := node.peerState("peer")
			assert.Equal(t, peerStateHandshaking, state)

			reports := node.transport.getReports()
			require.Len(t, reports, 1)
			requireReport(t, reports[0], "peer", p2p.SeverityBad, tc.want)

			// only our own status went out
			assert.Len(t, node.transport.sentTo("peer"), 1)
		})
	}
}

func TestProtocol_StatusFromUnknownPeer(t *testing.T) {
	node := newTestNode(t, 10)

	require.NoError(t, node.protocol.OnMessage("stranger", mustEncode(t, statusAt(50))))

	_, state := node.peerState("stranger")
	assert.Equal(t, peerStateUnknown, state)
	assert.Empty(t, node.transport.getReports())
	assert.Empty(t, node.transport.sentTo("stranger"))
}

func TestProtocol_RepeatedStatus(t *testing.T) {
	node := newTestNode(t, 10)
	node.handshake(t, "peer", 10)

	info, _ := node.peerState("peer")
	require.Nil(t, info.pending)

	// the peer moved ahead: a request goes out
	require.NoError(t, node.protocol.OnMessage("peer", mustEncode(t, statusAt(20))))
	info, _ = node.peerState("peer")
	require.NotNil(t, info.pending)
	assert.EqualValues(t, 0, info.pending.id)
	assert.EqualValues(t, 20, info.bestNumber)

	// a request is already pending: only the head is refreshed
	sent := len(node.transport.sentTo("peer"))
	require.NoError(t, node.protocol.OnMessage("peer", mustEncode(t, statusAt(30))))
	info, _ = node.peerState("peer")
	assert.EqualValues(t, 0, info.pending.id)
	assert.EqualValues(t, 30, info.bestNumber)
	assert.Len(t, node.transport.sentTo("peer"), sent)
}

func TestProtocol_Disconnect(t *testing.T) {
	node := newTestNode(t, 10)

	require.NoError(t, node.protocol.OnPeerConnected("handshaking"))
	node.handshake(t, "synced", 50)

	node.protocol.OnPeerDisconnected("handshaking")
	node.protocol.OnPeerDisconnected("synced")
	node.protocol.OnPeerDisconnected("synced")
	node.protocol.OnPeerDisconnected("never-seen")

	for _, peerID := range []types.NodeID{"handshaking", "synced"} {
		_, state := node.peerState(peerID)
		assert.Equal(t, peerStateUnknown, state)
	}
	synced, handshaking := node.protocol.peers.size()
	assert.Zero(t, synced)
	assert.Zero(t, handshaking)
}

func TestProtocol_ReconnectResetsRequestIDs(t *testing.T) {
	node := newTestNode(t, 10)
	node.handshake(t, "peer", 50)

	info, _ := node.peerState("peer")
	require.EqualValues(t, 1, info.nextRequestID)

	node.protocol.OnPeerDisconnected("peer")
	node.handshake(t, "peer", 50)

	info, _ = node.peerState("peer")
	require.NotNil(t, info.pending)
	assert.EqualValues(t, 0, info.pending.id)
}

func TestProtocol_DecodeFailure(t *testing.T) {
	node := newTestNode(t, 10)
	require.NoError(t, node.protocol.OnPeerConnected("peer"))

	for _, bz := range [][]byte{
		nil,
		{0x05, 0x01},
		{0x03, 0xff, 0xff, 0xff},
		mustEncode(t, &bcproto.Transaction{}),
	} {
		require.NoError(t, node.protocol.OnMessage("peer", bz))
	}

	_, state := node.peerState("peer")
	assert.Equal(t, peerStateHandshaking, state)

	reports := node.transport.getReports()
	require.NotEmpty(t, reports)
	for _, r := range reports {
		requireReport(t, r, "peer", p2p.SeverityBad, ErrInvalidMessage)
	}
}

func TestProtocol_Transaction(t *testing.T) {
	tx := types.Tx("tx payload")
	msg := &bcproto.Transaction{Payload: tx}

	t.Run("handled", func(t *testing.T) {
		handler := mocks.NewTxHandler(t)
		handler.On("HandleTransaction", tx).Return(nil).Once()

		node := newTestNode(t, 10, WithTxHandler(handler))
		require.NoError(t, node.protocol.OnMessage("peer", mustEncode(t, msg)))
	})

	t.Run("handler failure", func(t *testing.T) {
		failure := errors.New("pool is full")
		handler := mocks.NewTxHandler(t)
		handler.On("HandleTransaction", tx).Return(failure).Once()

		node := newTestNode(t, 10, WithTxHandler(handler))
		err := node.protocol.OnMessage("peer", mustEncode(t, msg))
		require.Error(t, err)
		assert.True(t, errors.Is(err, failure))
		assert.Empty(t, node.transport.getReports())
	})

	t.Run("no handler", func(t *testing.T) {
		node := newTestNode(t, 10)
		require.NoError(t, node.protocol.OnMessage("peer", mustEncode(t, msg)))
	})
}

func TestProtocol_BlockResponseUnexpected(t *testing.T) {
	genesis := testChain[0].Hash()

	client := mocks.NewClient(t)
	client.On("GenesisHash").Return(genesis)
	client.On("BestNumber").Return(uint64(0))
	client.On("GetHeader", types.BlockIDFromNumber(0)).Return(&types.Header{Number: 0, Hash: genesis}, nil)

	transport := mocks.NewTransport(t)
	transport.On("Send", mock.Anything, mock.Anything).Return(nil)
	transport.On("ReportPeer", mock.MatchedBy(func(pe p2p.PeerError) bool {
		return errors.Is(pe, ErrUnexpectedResponse) && pe.Severity == p2p.SeverityBad
	})).Twice()

	protocol := NewProtocol(log.TestingLogger(), config.TestBlockSyncConfig(), client, transport)

	block, err := testChainCodec.MarshalBlock(testChain[1])
	require.NoError(t, err)
	resp := mustEncode(t, &bcproto.BlockResponse{Id: 0, Blocks: [][]byte{block}})

	// a peer we never heard of
	require.NoError(t, protocol.OnMessage("stranger", resp))

	// a synced peer without a pending request
	require.NoError(t, protocol.OnPeerConnected("peer"))
	require.NoError(t, protocol.OnMessage("peer", mustEncode(t, statusAt(0))))
	require.NoError(t, protocol.OnMessage("peer", resp))

	client.AssertNotCalled(t, "ImportBlocks", mock.Anything)
	client.AssertNotCalled(t, "UnmarshalBlock", mock.Anything)
}

func TestProtocol_BlockResponseIDMismatch(t *testing.T) {
	node := newTestNode(t, 10)
	node.handshake(t, "peer", 50)

	blocks := encodeBlocks(t, 11, 50)

	// a stale id is ignored and leaves the request pending
	require.NoError(t, node.protocol.OnMessage("peer", mustEncode(t, &bcproto.BlockResponse{Id: 7, Blocks: blocks})))
	info, _ := node.peerState("peer")
	require.NotNil(t, info.pending)
	assert.EqualValues(t, 10, node.store.BestNumber())
	assert.Empty(t, node.transport.getReports())

	// the matching response still goes through
	require.NoError(t, node.protocol.OnMessage("peer", mustEncode(t, &bcproto.BlockResponse{Id: 0, Blocks: blocks})))
	info, _ = node.peerState("peer")
	assert.Nil(t, info.pending)
	assert.True(t, info.requestStartedAt.IsZero())
	assert.EqualValues(t, 50, node.store.BestNumber())
	assert.Equal(t, testChain[50].Hash(), node.store.BestHash())
	assert.Empty(t, node.transport.getReports())
}

func TestProtocol_BlockResponseContinuation(t *testing.T) {
	node := newTestNode(t, 10)
	node.handshake(t, "peer", 300)

	require.NoError(t, node.protocol.OnMessage("peer", mustEncode(t, &bcproto.BlockResponse{
		Id:     0,
		Blocks: encodeBlocks(t, 11, 138),
	})))
	require.EqualValues(t, 138, node.store.BestNumber())

	info, _ := node.peerState("peer")
	require.NotNil(t, info.pending)
	assert.EqualValues(t, 1, info.pending.id)

	req, ok := node.transport.lastSentTo(t, "peer").(*bcproto.BlockRequest)
	require.True(t, ok)
	assert.EqualValues(t, 1, req.Id)
	assert.Equal(t, types.BlockIDFromNumber(138).ToProto(), req.From)
	assert.Equal(t, types.BlockIDFromNumber(300).ToProto(), req.To)
}

func TestProtocol_BlockResponseEmpty(t *testing.T) {
	node := newTestNode(t, 10)
	node.handshake(t, "peer", 50)

	require.NoError(t, node.protocol.OnMessage("peer", mustEncode(t, &bcproto.BlockResponse{Id: 0})))

	// no progress: no follow-up request
	info, _ := node.peerState("peer")
	assert.Nil(t, info.pending)
	_, isRequest := node.transport.lastSentTo(t, "peer").(*bcproto.BlockRequest)
	assert.True(t, isRequest)
	assert.Len(t, node.transport.sentTo("peer"), 2)
}

func TestProtocol_BlockResponseInvalidBlock(t *testing.T) {
	node := newTestNode(t, 10)
	node.handshake(t, "peer", 50)

	blocks := encodeBlocks(t, 11, 12)
	blocks = append(blocks, []byte{0xff, 0xff, 0xff})

	require.NoError(t, node.protocol.OnMessage("peer", mustEncode(t, &bcproto.BlockResponse{Id: 0, Blocks: blocks})))

	assert.EqualValues(t, 10, node.store.BestNumber())
	reports := node.transport.getReports()
	require.Len(t, reports, 1)
	requireReport(t, reports[0], "peer", p2p.SeverityBad, ErrInvalidMessage)
}

func TestProtocol_BlockResponseImportFailure(t *testing.T) {
	node := newTestNode(t, 10)
	node.handshake(t, "peer", 50)

	// skips block 11
	blocks := encodeBlocks(t, 12, 20)
	err := node.protocol.OnMessage("peer", mustEncode(t, &bcproto.BlockResponse{Id: 0, Blocks: blocks}))
	require.Error(t, err)

	assert.EqualValues(t, 10, node.store.BestNumber())
	assert.Empty(t, node.transport.getReports())

	info, _ := node.peerState("peer")
	assert.Nil(t, info.pending)
}

func TestProtocol_SendFailureClearsPending(t *testing.T) {
	node := newTestNode(t, 10)
	require.NoError(t, node.protocol.OnPeerConnected("peer"))

	node.transport.setSendErr(errors.New("connection reset"))
	err := node.protocol.OnMessage("peer", mustEncode(t, statusAt(50)))
	require.Error(t, err)

	info, state := node.peerState("peer")
	assert.Equal(t, peerStateSynced, state)
	assert.Nil(t, info.pending)
	assert.True(t, info.requestStartedAt.IsZero())
}

func TestProtocol_SamplePeers(t *testing.T) {
	node := newTestNode(t, 10)

	ids := []types.NodeID{"a", "b", "c", "d", "e"}
	for _, id := range ids {
		node.handshake(t, id, 5)
	}
	// still handshaking: never sampled
	require.NoError(t, node.protocol.OnPeerConnected("pending"))

	for i := 0; i < 20; i++ {
		sample, err := node.protocol.SamplePeers(3)
		require.NoError(t, err)
		require.Len(t, sample, 3)
		assertDistinctSubset(t, sample, ids)
	}

	all, err := node.protocol.SamplePeers(10)
	assert.True(t, errors.Is(err, ErrInsufficientPeers))
	assert.ElementsMatch(t, ids, all)

	exact, err := node.protocol.SamplePeers(5)
	require.NoError(t, err)
	assert.ElementsMatch(t, ids, exact)

	none, err := node.protocol.SamplePeers(0)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func assertDistinctSubset(t require.TestingT, sample, pool []types.NodeID) {
	seen := make(map[types.NodeID]bool, len(sample))
	for _, id := range sample {
		require.False(t, seen[id], "duplicate peer %v", id)
		require.Contains(t, pool, id)
		seen[id] = true
	}
}

func encodeBlocks(t *testing.T, from, to int) [][]byte {
	t.Helper()
	blocks := make([][]byte, 0, to-from+1)
	for _, b := range testChain[from : to+1] {
		bz, err := testChainCodec.MarshalBlock(b)
		require.NoError(t, err)
		blocks = append(blocks, bz)
	}
	return blocks
}

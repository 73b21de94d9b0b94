package blocksync

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/fortytw2/leaktest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	dbm "github.com/tendermint/tm-db"

	"github.com/nodesync/nodesync/config"
	"github.com/nodesync/nodesync/internal/mempool"
	"github.com/nodesync/nodesync/internal/p2p"
	"github.com/nodesync/nodesync/internal/store"
	"github.com/nodesync/nodesync/libs/log"
	bcproto "github.com/nodesync/nodesync/proto/nodesync/blocksync"
	"github.com/nodesync/nodesync/types"
)

type networkNode struct {
	store     *store.BlockStore
	transport *p2p.MemoryTransport
	protocol  *Protocol
	pool      *mempool.TxPool
}

// setupNetwork creates one node per entry of bests, each holding the test
// chain up to that height, and starts their transports.
func setupNetwork(ctx context.Context, t *testing.T, bests map[types.NodeID]int) (*p2p.MemoryNetwork, map[types.NodeID]*networkNode) {
	t.Helper()

	logger := log.TestingLogger()
	network := p2p.NewMemoryNetwork(logger, 1024)
	nodes := make(map[types.NodeID]*networkNode, len(bests))

	for nodeID, best := range bests {
		cache, err := mempool.NewLRUTxCache(100)
		require.NoError(t, err)

		node := &networkNode{
			store:     newTestStore(t, best),
			transport: network.CreateTransport(nodeID),
			pool:      mempool.NewTxPool(logger, cache, 100, 1024),
		}
		node.protocol = NewProtocol(
			logger.With("node", nodeID),
			config.TestBlockSyncConfig(),
			node.store,
			node.transport,
			WithTxHandler(node.pool),
		)
		node.transport.Start(ctx, node.protocol)
		nodes[nodeID] = node
	}

	return network, nodes
}

func TestNetwork_SyncFromPeer(t *testing.T) {
	defer leaktest.CheckTimeout(t, 10*time.Second)()

	ctx, cancel := context.WithCancel(context.Background())

	network, nodes := setupNetwork(ctx, t, map[types.NodeID]int{"a": 10, "b": 50})
	defer func() {
		cancel()
		network.Wait()
	}()

	require.NoError(t, network.Connect("a", "b"))

	a, b := nodes["a"], nodes["b"]
	require.Eventually(t, func() bool {
		return a.store.BestNumber() == 50
	}, 5*time.Second, 10*time.Millisecond)

	assert.Equal(t, testChain[50].Hash(), a.store.BestHash())
	assert.EqualValues(t, 50, b.store.BestNumber())

	require.Eventually(t, func() bool {
		info, state := a.protocol.peers.get("b")
		return state == peerStateSynced && info.pending == nil
	}, time.Second, 10*time.Millisecond)

	assert.Empty(t, a.transport.Reports())
	assert.Empty(t, b.transport.Reports())
	assert.True(t, a.transport.IsConnected("b"))
}

func TestNetwork_SyncAcrossResponses(t *testing.T) {
	defer leaktest.CheckTimeout(t, 10*time.Second)()

	ctx, cancel := context.WithCancel(context.Background())

	// 400 blocks take several capped responses
	network, nodes := setupNetwork(ctx, t, map[types.NodeID]int{"a": 0, "b": 400, "c": 0})
	defer func() {
		cancel()
		network.Wait()
	}()

	require.NoError(t, network.Connect("a", "b"))
	require.Eventually(t, func() bool {
		return nodes["a"].store.BestNumber() == 400
	}, 5*time.Second, 10*time.Millisecond)

	// c syncs from a, which serves blocks it imported itself
	require.NoError(t, network.Connect("c", "a"))
	require.Eventually(t, func() bool {
		return nodes["c"].store.BestNumber() == 400
	}, 5*time.Second, 10*time.Millisecond)

	for _, nodeID := range []types.NodeID{"a", "c"} {
		assert.Equal(t, testChain[400].Hash(), nodes[nodeID].store.BestHash())
	}

	for nodeID, node := range nodes {
		assert.Empty(t, node.transport.Reports(), "node %v reported peers", nodeID)
	}
}

func TestNetwork_RelayTransaction(t *testing.T) {
	defer leaktest.CheckTimeout(t, 10*time.Second)()

	ctx, cancel := context.WithCancel(context.Background())

	network, nodes := setupNetwork(ctx, t, map[types.NodeID]int{"a": 5, "b": 5})
	defer func() {
		cancel()
		network.Wait()
	}()

	require.NoError(t, network.Connect("a", "b"))
	require.Eventually(t, func() bool {
		ids, err := nodes["a"].protocol.SamplePeers(1)
		return err == nil && len(ids) == 1
	}, time.Second, 10*time.Millisecond)

	for i := 0; i < 3; i++ {
		bz, err := EncodeMessage(&bcproto.Transaction{Payload: []byte(fmt.Sprintf("tx%d", i))})
		require.NoError(t, err)
		require.NoError(t, nodes["a"].transport.Send("b", bz))
	}

	require.Eventually(t, func() bool {
		return nodes["b"].pool.Size() == 3
	}, time.Second, 10*time.Millisecond)
}

func TestNetwork_GenesisMismatchDisconnects(t *testing.T) {
	defer leaktest.CheckTimeout(t, 10*time.Second)()

	ctx, cancel := context.WithCancel(context.Background())

	network, nodes := setupNetwork(ctx, t, map[types.NodeID]int{"a": 5})
	defer func() {
		cancel()
		network.Wait()
	}()

	// a node on another chain
	other, err := store.NewBlockStore(dbm.NewMemDB(), store.GenesisBlock("other-chain"))
	require.NoError(t, err)
	transport := network.CreateTransport("z")
	transport.Start(ctx, NewProtocol(log.TestingLogger(), config.TestBlockSyncConfig(), other, transport))

	require.NoError(t, network.Connect("a", "z"))

	// whichever side handles the other's Status first reports it, and the
	// disconnect can drop the second Status before it is handled
	var reports []p2p.PeerError
	require.Eventually(t, func() bool {
		reports = append(nodes["a"].transport.Reports(), transport.Reports()...)
		return len(reports) > 0
	}, time.Second, 10*time.Millisecond)

	for _, pe := range reports {
		switch pe.NodeID {
		case "z":
			requireReport(t, pe, "z", p2p.SeverityBad, ErrGenesisMismatch)
		default:
			requireReport(t, pe, "a", p2p.SeverityBad, ErrGenesisMismatch)
		}
	}
	require.Eventually(t, func() bool {
		return !nodes["a"].transport.IsConnected("z") && !transport.IsConnected("a")
	}, time.Second, 10*time.Millisecond)
}

package commands

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	dbm "github.com/tendermint/tm-db"
	"golang.org/x/sync/errgroup"

	"github.com/nodesync/nodesync/config"
	"github.com/nodesync/nodesync/internal/blocksync"
	"github.com/nodesync/nodesync/internal/mempool"
	"github.com/nodesync/nodesync/internal/p2p"
	"github.com/nodesync/nodesync/internal/store"
	"github.com/nodesync/nodesync/libs/log"
	bcproto "github.com/nodesync/nodesync/proto/nodesync/blocksync"
	"github.com/nodesync/nodesync/types"
)

const (
	testnetQueueSize = 1024
	txCacheSize      = 10000
	maxTxBytes       = 1024
)

// testnetNode is one simulated node.
type testnetNode struct {
	id        types.NodeID
	store     *store.BlockStore
	pool      *mempool.TxPool
	transport *p2p.MemoryTransport
	protocol  *blocksync.Protocol
	service   *blocksync.BlockSyncService
}

type testnetOptions struct {
	nodes       int
	blocks      int
	txsPerBlock int
	relayTxs    int
	timeout     time.Duration
}

// MakeTestnetCommand returns the command that simulates a network of nodes
// in memory: the first node produces a chain, every other node starts from
// genesis, and the command waits until all of them have synced it.
func MakeTestnetCommand(conf *config.Config, logger log.Logger) *cobra.Command {
	var opts testnetOptions

	cmd := &cobra.Command{
		Use:   "testnet",
		Short: "Simulate block sync between in-memory nodes",
		Long: `testnet creates "nodes" in-memory nodes connected to each other. The first
node produces "blocks" blocks filled from its transaction pool; the rest start
at genesis and sync the chain from it. Afterwards the first node relays
"relay-txs" transactions to its peers.

If instrumentation is enabled in the config, the first node's metrics are
served on the configured address while the simulation runs.

Example:

	nodesync testnet --nodes 4 --blocks 1000
	`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.nodes < 2 {
				return fmt.Errorf("testnet needs at least 2 nodes, got %d", opts.nodes)
			}
			if opts.blocks < 0 || opts.txsPerBlock < 0 || opts.relayTxs < 0 {
				return errors.New("block and transaction counts cannot be negative")
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), opts.timeout)
			defer cancel()

			start := time.Now()
			if err := runTestnet(ctx, conf, logger, opts); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d nodes synced %d blocks in %v\n",
				opts.nodes, opts.blocks, time.Since(start).Round(time.Millisecond))
			return nil
		},
	}

	cmd.Flags().IntVar(&opts.nodes, "nodes", 4, "number of nodes in the network")
	cmd.Flags().IntVar(&opts.blocks, "blocks", 500, "number of blocks produced by the first node")
	cmd.Flags().IntVar(&opts.txsPerBlock, "txs-per-block", 10, "transactions per produced block")
	cmd.Flags().IntVar(&opts.relayTxs, "relay-txs", 10, "transactions relayed after the sync")
	cmd.Flags().DurationVar(&opts.timeout, "timeout", time.Minute, "time allowed for the whole simulation")

	return cmd
}

func runTestnet(ctx context.Context, conf *config.Config, logger log.Logger, opts testnetOptions) error {
	network := p2p.NewMemoryNetwork(logger.With("module", "p2p"), testnetQueueSize)
	defer network.Wait()

	runCtx, stop := context.WithCancel(ctx)
	defer stop()

	var metrics *blocksync.Metrics
	if conf.Instrumentation.Prometheus {
		metrics = blocksync.PrometheusMetrics(conf.Instrumentation.Namespace, "chain_id", conf.ChainID)
	}

	nodes := make([]*testnetNode, 0, opts.nodes)
	for i := 0; i < opts.nodes; i++ {
		// only the first node is instrumented: metrics register globally
		var m *blocksync.Metrics
		if i == 0 {
			m = metrics
		}

		node, err := newTestnetNode(runCtx, conf, logger, network, types.NodeID(fmt.Sprintf("node%d", i)), m)
		if err != nil {
			return err
		}
		defer node.stop(logger)
		nodes = append(nodes, node)
	}

	seed := nodes[0]
	if err := produceBlocks(seed, opts); err != nil {
		return err
	}
	logger.Info("produced chain", "node", seed.id, "best", seed.store.BestNumber(), "hash", seed.store.BestHash())

	g, gctx := errgroup.WithContext(runCtx)
	if metrics != nil {
		g.Go(func() error { return servePrometheus(gctx, conf.Instrumentation.PrometheusListenAddr, logger) })
	}

	for i := range nodes {
		for j := i + 1; j < len(nodes); j++ {
			if err := network.Connect(nodes[i].id, nodes[j].id); err != nil {
				return err
			}
		}
	}

	target := seed.store.BestNumber()
	g.Go(func() error {
		sg, sctx := errgroup.WithContext(gctx)
		for _, node := range nodes[1:] {
			node := node
			sg.Go(func() error { return waitForHeight(sctx, node, target) })
		}
		if err := sg.Wait(); err != nil {
			return err
		}
		logger.Info("all nodes synced", "best", target)

		if err := relayTransactions(gctx, seed, nodes[1:], opts.relayTxs); err != nil {
			return err
		}
		logger.Info("relayed transactions", "count", opts.relayTxs)

		// the metrics server is the only other member; stop it
		stop()
		return nil
	})

	return g.Wait()
}

func newTestnetNode(
	ctx context.Context,
	conf *config.Config,
	logger log.Logger,
	network *p2p.MemoryNetwork,
	nodeID types.NodeID,
	metrics *blocksync.Metrics,
) (*testnetNode, error) {
	nodeLogger := logger.With("node", nodeID)

	// simulated nodes never persist anything
	nodeConf := *conf
	nodeConf.DBBackend = string(dbm.MemDBBackend)
	db, err := config.DefaultDBProvider(&config.DBContext{ID: string(nodeID), Config: &nodeConf})
	if err != nil {
		return nil, err
	}
	bs, err := store.NewBlockStore(db, store.GenesisBlock(conf.ChainID))
	if err != nil {
		return nil, err
	}

	cache, err := mempool.NewLRUTxCache(txCacheSize)
	if err != nil {
		return nil, err
	}

	node := &testnetNode{
		id:        nodeID,
		store:     bs,
		pool:      mempool.NewTxPool(nodeLogger.With("module", "mempool"), cache, txCacheSize, maxTxBytes),
		transport: network.CreateTransport(nodeID),
	}

	options := []blocksync.Option{blocksync.WithTxHandler(node.pool)}
	if metrics != nil {
		options = append(options, blocksync.WithMetrics(metrics))
	}
	node.protocol = blocksync.NewProtocol(
		nodeLogger.With("module", "blocksync"),
		conf.BlockSync,
		bs,
		node.transport,
		options...,
	)
	node.service = blocksync.NewBlockSyncService(nodeLogger, node.protocol, conf.BlockSync.SweepInterval)

	if err := node.service.Start(ctx); err != nil {
		return nil, err
	}
	node.transport.Start(ctx, node.protocol)
	return node, nil
}

func (n *testnetNode) stop(logger log.Logger) {
	if n.service.IsRunning() {
		if err := n.service.Stop(); err != nil {
			logger.Error("failed to stop service", "node", n.id, "err", err)
		}
	}
	if err := n.store.Close(); err != nil {
		logger.Error("failed to close store", "node", n.id, "err", err)
	}
}

// produceBlocks fills the node's pool and commits its content block by block.
func produceBlocks(node *testnetNode, opts testnetOptions) error {
	for height := 1; height <= opts.blocks; height++ {
		for i := 0; i < opts.txsPerBlock; i++ {
			if err := node.pool.CheckTx(types.Tx(fmt.Sprintf("%s/%d/%d", node.id, height, i))); err != nil {
				return err
			}
		}
		if _, err := node.store.Append(node.pool.ReapTxs(opts.txsPerBlock)); err != nil {
			return fmt.Errorf("failed to produce block %d: %w", height, err)
		}
	}
	return nil
}

// relayTransactions sends fresh transactions from node to sampled peers and
// waits until every sampled peer's pool holds them.
func relayTransactions(ctx context.Context, node *testnetNode, peers []*testnetNode, count int) error {
	if count == 0 {
		return nil
	}

	sampled, err := node.protocol.SamplePeers(len(peers))
	if err != nil {
		return fmt.Errorf("sampled %d of %d peers: %w", len(sampled), len(peers), err)
	}

	for i := 0; i < count; i++ {
		bz, err := blocksync.EncodeMessage(&bcproto.Transaction{Payload: []byte(fmt.Sprintf("%s/relay/%d", node.id, i))})
		if err != nil {
			return err
		}
		for _, peerID := range sampled {
			if err := node.transport.Send(peerID, bz); err != nil {
				return err
			}
		}
	}

	return poll(ctx, func() bool {
		for _, peer := range peers {
			if peer.pool.Size() < count {
				return false
			}
		}
		return true
	})
}

func waitForHeight(ctx context.Context, node *testnetNode, height uint64) error {
	if err := poll(ctx, func() bool { return node.store.BestNumber() >= height }); err != nil {
		return fmt.Errorf("node %v stuck at %d of %d: %w", node.id, node.store.BestNumber(), height, err)
	}
	return nil
}

func poll(ctx context.Context, done func() bool) error {
	ticker := time.NewTicker(20 * time.Millisecond)
	defer ticker.Stop()

	for !done() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
	return nil
}

// servePrometheus serves the default registry until ctx is done.
func servePrometheus(ctx context.Context, addr string, logger log.Logger) error {
	srv := &http.Server{
		Addr: addr,
		Handler: promhttp.InstrumentMetricHandler(
			prometheus.DefaultRegisterer, promhttp.HandlerFor(
				prometheus.DefaultGatherer,
				promhttp.HandlerOpts{MaxRequestsInFlight: 3},
			),
		),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()
	logger.Info("serving metrics", "addr", addr)

	select {
	case err := <-errCh:
		return fmt.Errorf("metrics server: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

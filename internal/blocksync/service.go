package blocksync

import (
	"context"
	"time"

	"github.com/nodesync/nodesync/libs/log"
	"github.com/nodesync/nodesync/libs/service"
)

var _ service.Service = (*BlockSyncService)(nil)

// BlockSyncService runs MaintainPeers on a fixed interval for hosts that do
// not have their own scheduler.
type BlockSyncService struct {
	*service.BaseService
	logger log.Logger

	protocol *Protocol
	interval time.Duration
}

// NewBlockSyncService returns a service sweeping protocol every interval.
func NewBlockSyncService(logger log.Logger, protocol *Protocol, interval time.Duration) *BlockSyncService {
	s := &BlockSyncService{
		logger:   logger,
		protocol: protocol,
		interval: interval,
	}
	s.BaseService = service.NewBaseService(logger, "BlockSync", s)
	return s
}

// OnStart starts the sweep routine.
func (s *BlockSyncService) OnStart(ctx context.Context) error {
	go s.sweepRoutine(ctx)
	return nil
}

// OnStop implements service.Implementation. The sweep routine exits on its
// own once the service quits.
func (s *BlockSyncService) OnStop() {}

func (s *BlockSyncService) sweepRoutine(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.Quit():
			return
		case <-ticker.C:
			s.protocol.MaintainPeers()
		}
	}
}

package service

import (
	"context"
	"errors"
	"sync"

	"github.com/nodesync/nodesync/libs/log"
)

var (
	// ErrAlreadyStarted is returned when somebody tries to start an already
	// running service.
	ErrAlreadyStarted = errors.New("already started")
	// ErrAlreadyStopped is returned when somebody tries to stop an already
	// stopped service.
	ErrAlreadyStopped = errors.New("already stopped")
	// ErrNotStarted is returned when somebody tries to stop a not running
	// service.
	ErrNotStarted = errors.New("not started")
)

// Service defines a service that can be started and stopped.
type Service interface {
	// Start is called to start the service, which should run until
	// the context terminates. If the service is already running, Start
	// must report an error.
	Start(context.Context) error

	// Stop the service. Stopping a service that was never started or has
	// already stopped reports an error.
	Stop() error

	// Return true if the service is running
	IsRunning() bool

	// String representation of the service
	String() string

	// Wait blocks until the service is stopped.
	Wait()
}

// Implementation describes the implementation that the BaseService
// implementation wraps.
type Implementation interface {
	// Called by the Services Start Method
	OnStart(context.Context) error

	// Called when the service's context is canceled or Stop is called.
	OnStop()
}

// BaseService tracks the running state of a service and drives the OnStart and
// OnStop hooks of the wrapped Implementation. OnStart and OnStop are called at
// most once each; a stopped service cannot be restarted.
//
// Typical usage:
//
//	type FooService struct {
//		*service.BaseService
//		// private fields
//	}
//
//	func NewFooService(logger log.Logger) *FooService {
//		fs := &FooService{}
//		fs.BaseService = service.NewBaseService(logger, "FooService", fs)
//		return fs
//	}
type BaseService struct {
	logger log.Logger
	name   string
	impl   Implementation

	mtx     sync.Mutex
	started bool
	stopped bool
	quit    chan struct{}
}

// NewBaseService creates a new BaseService.
func NewBaseService(logger log.Logger, name string, impl Implementation) *BaseService {
	return &BaseService{
		logger: logger,
		name:   name,
		impl:   impl,
		quit:   make(chan struct{}),
	}
}

// Start starts the Service and calls its OnStart method. The service is
// stopped when ctx is canceled.
func (bs *BaseService) Start(ctx context.Context) error {
	bs.mtx.Lock()
	defer bs.mtx.Unlock()

	if bs.stopped {
		bs.logger.Error("not starting service; already stopped", "service", bs.name)
		return ErrAlreadyStopped
	}
	if bs.started {
		return ErrAlreadyStarted
	}

	bs.logger.Info("starting service", "service", bs.name)
	if err := bs.impl.OnStart(ctx); err != nil {
		return err
	}
	bs.started = true

	go func() {
		select {
		case <-bs.quit:
			// someone else explicitly called stop
		case <-ctx.Done():
			if err := bs.Stop(); err != nil && !errors.Is(err, ErrAlreadyStopped) {
				bs.logger.Error("failed to stop service", "service", bs.name, "err", err)
			}
		}
	}()

	return nil
}

// Stop calls OnStop and closes the quit channel.
func (bs *BaseService) Stop() error {
	bs.mtx.Lock()
	defer bs.mtx.Unlock()

	if !bs.started {
		return ErrNotStarted
	}
	if bs.stopped {
		return ErrAlreadyStopped
	}

	bs.logger.Info("stopping service", "service", bs.name)
	bs.stopped = true
	bs.impl.OnStop()
	close(bs.quit)

	return nil
}

// IsRunning reports whether the service has started and not yet stopped.
func (bs *BaseService) IsRunning() bool {
	bs.mtx.Lock()
	defer bs.mtx.Unlock()

	return bs.started && !bs.stopped
}

// Wait blocks until the service is stopped.
func (bs *BaseService) Wait() { <-bs.quit }

// Quit returns a channel that is closed once the service stops.
func (bs *BaseService) Quit() <-chan struct{} { return bs.quit }

// String implements Service by returning a string representation of the service.
func (bs *BaseService) String() string { return bs.name }

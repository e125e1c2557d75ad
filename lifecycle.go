package pdnode

import (
	"fmt"
	"io"
	"sync/atomic"

	"github.com/pipelined/pdnode/adapter"
	"github.com/pipelined/pdnode/command"
	"github.com/pipelined/pdnode/engine"
	"github.com/pipelined/pdnode/future"
	"github.com/pipelined/pdnode/metric"
)

// State identifies one of the possible states node can be in.
type State uint32

// States of the node.
const (
	// Idle means that node is not configured and blocks are skipped.
	Idle State = iota
	// Initializing means that configuration is queued, but not applied yet.
	Initializing
	// Active means that engine computes blocks.
	Active
	// Deactivating means that deactivation is queued, but not applied yet.
	Deactivating
	// Disposed means that node is closed and cannot be used anymore.
	Disposed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Initializing:
		return "initializing"
	case Active:
		return "active"
	case Deactivating:
		return "deactivating"
	case Disposed:
		return "disposed"
	}
	return fmt.Sprintf("state(%d)", uint32(s))
}

type atomicState struct {
	v atomic.Uint32
}

func (s *atomicState) load() State {
	return State(s.v.Load())
}

func (s *atomicState) store(v State) {
	s.v.Store(uint32(v))
}

func (s *atomicState) cas(old, new State) bool {
	return s.v.CompareAndSwap(uint32(old), uint32(new))
}

// Initialize configures engine for the format and enables computation.
// Configuration is applied on the render goroutine before the next block,
// the returned future is fulfilled after that. Engine failure results in
// *ConfigurationError and node falls back to idle. Repeated calls with the
// same format return a follower of the pending future, each caller observes
// the result on its own.
func (n *Node) Initialize(format Format) (*future.Future[struct{}], error) {
	format = format.withDefaults()
	if err := format.validate(); err != nil {
		return nil, err
	}
	n.lifecycle.Lock()
	defer n.lifecycle.Unlock()
	switch s := n.state.load(); s {
	case Disposed:
		return nil, ErrDisposed
	case Initializing, Active:
		if format != n.format {
			return nil, fmt.Errorf("%w: %v already initialized with %v", ErrInvalidState, n, n.format)
		}
		return n.starting.Follow(), nil
	case Deactivating:
		return nil, fmt.Errorf("%w: %v", ErrInvalidState, n)
	}

	// resources are allocated here to keep render goroutine allocation free.
	a := adapter.New(format.Channels, format.FramesPerBlock, format.SampleRate)
	meter := metric.Meter(n.engine, format.SampleRate)
	f := future.New[struct{}]()
	c := command.Task(func(e engine.Engine) {
		if err := n.configure(e, format, a, meter); err != nil {
			n.settle(Idle)
			f.Fulfill(struct{}{}, &ConfigurationError{Format: format, Err: err})
			return
		}
		n.settle(Active)
		f.Fulfill(struct{}{}, nil)
	})
	c.Cancel = func() {
		f.Fulfill(struct{}{}, ErrDisposed)
	}

	n.configured.store(Initializing)
	n.state.store(Initializing)
	if err := n.push(c); err != nil {
		n.state.store(Idle)
		return nil, err
	}
	n.format = format
	n.starting = f
	n.logger.Debug(fmt.Sprintf("%v: initialize %v", n, format))
	return f.Follow(), nil
}

// settle records the outcome of configuration and moves an initializing
// node to it. It runs on the render goroutine.
func (n *Node) settle(outcome State) {
	n.configured.store(outcome)
	n.state.cas(Initializing, outcome)
}

// restore reverts a deactivation that could not be queued. Configuration
// could be applied while node was deactivating, its outcome wins then.
func (n *Node) restore(previous State) {
	if !n.state.cas(Deactivating, previous) || previous != Initializing {
		return
	}
	if outcome := n.configured.load(); outcome != Initializing {
		n.state.cas(Initializing, outcome)
	}
}

// configure is executed on the render goroutine.
func (n *Node) configure(e engine.Engine, format Format, a *adapter.Adapter, meter *metric.Measure) error {
	blockSize := e.BlockSize()
	if blockSize <= 0 || format.FramesPerBlock%blockSize != 0 {
		return fmt.Errorf("%w: %d frames per block is not a multiple of engine block size %d", ErrInvalidFormat, format.FramesPerBlock, blockSize)
	}
	if err := e.Init(format.Channels, format.Channels, format.SampleRate); err != nil {
		return err
	}
	e.SetComputeEnabled(true)
	n.render.adapter = a
	n.render.meter = meter
	n.render.ticks = format.FramesPerBlock / blockSize
	n.render.computing = true
	return nil
}

// Uninitialize disables computation. It's applied on the render goroutine
// before the next block. Calling it on idle node returns fulfilled future,
// repeated calls while deactivating follow the pending one.
func (n *Node) Uninitialize() (*future.Future[struct{}], error) {
	n.lifecycle.Lock()
	defer n.lifecycle.Unlock()
	var previous State
	for {
		previous = n.state.load()
		switch previous {
		case Disposed:
			return nil, ErrDisposed
		case Idle:
			return future.Fulfilled(struct{}{}, nil), nil
		case Deactivating:
			return n.stopping.Follow(), nil
		}
		// render goroutine can move node out of initializing meanwhile.
		if n.state.cas(previous, Deactivating) {
			break
		}
	}

	f := future.New[struct{}]()
	c := command.Task(func(e engine.Engine) {
		e.SetComputeEnabled(false)
		n.render.computing = false
		n.state.cas(Deactivating, Idle)
		f.Fulfill(struct{}{}, nil)
	})
	c.Cancel = func() {
		f.Fulfill(struct{}{}, ErrDisposed)
	}
	if err := n.push(c); err != nil {
		n.restore(previous)
		return nil, err
	}
	n.stopping = f
	n.logger.Debug(fmt.Sprintf("%v: uninitialize", n))
	return f.Follow(), nil
}

// Close disposes the node. It must be called after host stopped calling
// Process. Queued commands are discarded, patches that are still open are
// closed and engine is closed if it implements io.Closer. Only idle node
// can be closed.
func (n *Node) Close() error {
	n.lifecycle.Lock()
	defer n.lifecycle.Unlock()
	switch s := n.state.load(); s {
	case Disposed:
		return nil
	case Idle:
	default:
		return fmt.Errorf("%w: cannot close %v", ErrInvalidState, n)
	}
	n.state.store(Disposed)
	discarded := n.commands.Discard() + n.stream.Discard()
	for handle, p := range n.render.patches {
		p.closed.Store(true)
		n.engine.ClosePatch(p.patch)
		delete(n.render.patches, handle)
	}
	n.logger.Debug(fmt.Sprintf("%v: closed, %d commands discarded", n, discarded))
	if c, ok := n.engine.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

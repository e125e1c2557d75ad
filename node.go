package pdnode

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/xid"

	"github.com/pipelined/pdnode/adapter"
	"github.com/pipelined/pdnode/command"
	"github.com/pipelined/pdnode/engine"
	"github.com/pipelined/pdnode/event"
	"github.com/pipelined/pdnode/future"
	"github.com/pipelined/pdnode/log"
	"github.com/pipelined/pdnode/metric"
)

// Default queue sizes.
const (
	DefaultCommandCapacity = 1024
	DefaultEventCapacity   = 1024
	DefaultStreamCapacity  = 256
)

// Logger is used by node to report control side activity. Render goroutine
// never logs.
type Logger = log.Logger

type (
	// Node embeds an engine into the render callback of a host. Control
	// methods are safe for concurrent use. Process must be called from a
	// single render goroutine.
	Node struct {
		uid    string
		name   string
		engine engine.Engine
		logger Logger

		commandCapacity int
		eventCapacity   int
		streamCapacity  int
		maxCommands     int
		pushTimeout     time.Duration

		state    atomicState
		// configured is the outcome of the last configuration task.
		configured atomicState
		commands *command.Queue
		stream   *command.Queue
		events   *event.Queue
		counters counters

		// lifecycle serialises control side state changes.
		lifecycle sync.Mutex
		format    Format
		starting  *future.Future[struct{}]
		stopping  *future.Future[struct{}]

		// render is owned by the render goroutine.
		render   renderState
		apply    func(*command.Command)
		receiver engine.Receiver
	}

	// renderState is installed and mutated only inside commands.
	renderState struct {
		adapter   *adapter.Adapter
		meter     *metric.Measure
		ticks     int
		computing bool
		block     uint64
		patches   map[int]*Patch
	}

	counters struct {
		processed     atomic.Uint64
		blocks        atomic.Uint64
		skipped       atomic.Uint64
		samples       atomic.Uint64
		commands      atomic.Uint64
		faults        atomic.Uint64
		streamDropped atomic.Uint64
	}

	// Stats is a snapshot of node counters.
	Stats struct {
		// Processed is the number of Process calls.
		Processed uint64
		// Blocks is the number of blocks computed by engine.
		Blocks uint64
		// Skipped is the number of blocks left untouched.
		Skipped uint64
		// Samples is the number of computed frames.
		Samples uint64
		// Commands is the number of applied commands.
		Commands uint64
		// Faults is the number of commands that panicked.
		Faults uint64
		// EventsDropped is the number of events lost on overflow.
		EventsDropped uint64
		// StreamDropped is the number of stream updates lost on overflow.
		StreamDropped uint64
		// Pending is the number of queued commands.
		Pending int
	}
)

// New creates a node around engine.
func New(e engine.Engine, options ...Option) (*Node, error) {
	if e == nil {
		return nil, fmt.Errorf("nil engine")
	}
	n := &Node{
		uid:             xid.New().String(),
		engine:          e,
		logger:          log.Silent(),
		commandCapacity: DefaultCommandCapacity,
		eventCapacity:   DefaultEventCapacity,
		streamCapacity:  DefaultStreamCapacity,
		render: renderState{
			patches: make(map[int]*Patch),
		},
	}
	for _, option := range options {
		if err := option(n); err != nil {
			return nil, err
		}
	}
	if n.name == "" {
		n.name = n.uid
	}
	n.commands = command.NewQueue(n.commandCapacity)
	n.stream = command.NewQueue(n.streamCapacity)
	n.events = event.NewQueue(n.eventCapacity)
	n.apply = n.applyCommand
	n.receiver = receiver{n: n}
	return n, nil
}

// ID returns unique node id.
func (n *Node) ID() string {
	return n.uid
}

func (n *Node) String() string {
	return fmt.Sprintf("node %s [%v]", n.name, n.state.load())
}

// State returns current lifecycle state.
func (n *Node) State() State {
	return n.state.load()
}

// Process renders a single block. Buf is planar: one slice per channel.
// Queued commands are applied first, then the engine computes the block in
// place and its messages are turned into events. A buffer that doesn't
// match the format is left untouched. Process never blocks and is a no-op
// after Close.
func (n *Node) Process(buf [][]float32) {
	if n.state.load() == Disposed {
		return
	}
	r := &n.render
	applied := n.commands.Drain(n.maxCommands, n.apply)
	applied += n.stream.Drain(0, n.apply)
	n.counters.commands.Add(uint64(applied))

	if r.computing && r.adapter.Fits(buf) {
		n.computeBlock(buf, applied)
	} else {
		n.counters.skipped.Add(1)
		if r.meter != nil {
			r.meter.Skipped(int64(applied))
		}
	}
	n.engine.ReceiveMessages(n.receiver)
	n.counters.processed.Add(1)
	r.block++
}

func (n *Node) computeBlock(buf [][]float32, applied int) {
	r := &n.render
	data := r.adapter.Interleave(buf)
	if err := n.engine.ProcessBlock(r.ticks, data, data); err != nil {
		n.counters.skipped.Add(1)
		r.meter.Skipped(int64(applied))
		n.receiver.Print(fmt.Sprintf("%s: block %d: %v", n.name, r.block, err))
		return
	}
	r.adapter.Deinterleave(buf)
	frames := r.adapter.Frames()
	n.counters.blocks.Add(1)
	n.counters.samples.Add(uint64(frames))
	r.meter.Block(int64(frames), int64(applied))
}

// applyCommand dispatches a single command. Panics are contained and
// reported as print events.
func (n *Node) applyCommand(c *command.Command) {
	defer func() {
		if v := recover(); v != nil {
			n.counters.faults.Add(1)
			n.receiver.Print(fmt.Sprintf("%s: %v failed: %v", n.name, c.Kind, v))
		}
	}()
	c.Apply(n.engine)
}

// DrainEvents dispatches all available events to r in generation order
// and returns their number. Print events are also logged. R can be nil.
func (n *Node) DrainEvents(r event.Receiver) int {
	return n.events.Drain(func(e event.Event) {
		if e.Kind == event.Print {
			n.logger.Info(fmt.Sprintf("%s: %s", n.name, e.Text))
		}
		if r != nil {
			event.Dispatch(r, e)
		}
	})
}

// Stats returns a snapshot of node counters.
func (n *Node) Stats() Stats {
	return Stats{
		Processed:     n.counters.processed.Load(),
		Blocks:        n.counters.blocks.Load(),
		Skipped:       n.counters.skipped.Load(),
		Samples:       n.counters.samples.Load(),
		Commands:      n.counters.commands.Load(),
		Faults:        n.counters.faults.Load(),
		EventsDropped: n.events.Dropped(),
		StreamDropped: n.counters.streamDropped.Load(),
		Pending:       n.commands.Len(),
	}
}

// receiver turns engine messages into events tagged with the current
// block. It runs on the render goroutine.
type receiver struct {
	n *Node
}

func (r receiver) push(e event.Event) {
	e.Block = r.n.render.block
	if !r.n.events.Push(e) && r.n.render.meter != nil {
		r.n.render.meter.Dropped(1)
	}
}

func (r receiver) Print(text string) {
	r.push(event.NewPrint(text))
}

func (r receiver) Bang(address string) {
	r.push(event.NewBang(address))
}

func (r receiver) Float(address string, value float32) {
	r.push(event.NewFloat(address, value))
}

func (r receiver) Symbol(address, symbol string) {
	r.push(event.NewSymbol(address, symbol))
}

func (r receiver) NoteOn(channel, pitch, velocity int) {
	r.push(event.NewNoteOn(channel, pitch, velocity))
}

// Package replay renders scripted control sequences deterministically. The
// same script over the same engine always produces the same trace, so
// traces of two runs can be compared.
package replay

import (
	"fmt"
	"math"
	"sort"

	"github.com/pipelined/pdnode"
	"github.com/pipelined/pdnode/engine"
	"github.com/pipelined/pdnode/event"
)

type (
	// Step is an action executed right before the block with Block number
	// is rendered. Blocks are counted from zero.
	Step struct {
		Block  int
		Action func(*pdnode.Node) error
	}

	// Script is a sequence of steps. Steps of the same block are executed
	// in script order.
	Script []Step

	// Trace is the observable result of a run.
	Trace struct {
		Events []event.Event
		// Output holds rendered planar blocks.
		Output [][][]float32
		Stats  pdnode.Stats
	}

	// InputFunc fills the planar buffer of the block.
	InputFunc func(block int, planar [][]float32)
)

// Run creates a node around the engine, initializes it before the first
// block and renders blocks. Input can be nil, silence is rendered then.
// Node is closed before return.
func Run(e engine.Engine, format pdnode.Format, script Script, blocks int, input InputFunc, options ...pdnode.Option) (Trace, error) {
	if format.Channels == 0 {
		format.Channels = pdnode.DefaultChannels
	}
	n, err := pdnode.New(e, options...)
	if err != nil {
		return Trace{}, err
	}
	initialized, err := n.Initialize(format)
	if err != nil {
		return Trace{}, err
	}

	steps := make(Script, len(script))
	copy(steps, script)
	sort.SliceStable(steps, func(i, j int) bool {
		return steps[i].Block < steps[j].Block
	})

	var (
		recorder   event.Recorder
		trace      Trace
		next       int
		configured bool
	)
	for block := 0; block < blocks; block++ {
		for ; next < len(steps) && steps[next].Block <= block; next++ {
			if err := steps[next].Action(n); err != nil {
				return Trace{}, fmt.Errorf("block %d step %d: %w", block, next, err)
			}
		}
		buf := format.Buffer()
		if input != nil {
			input(block, buf)
		}
		n.Process(buf)
		if !configured {
			if _, ok, err := initialized.Poll(); ok {
				if err != nil {
					return Trace{}, err
				}
				configured = true
			}
		}
		n.DrainEvents(&recorder)
		trace.Output = append(trace.Output, buf)
	}

	stopped, err := n.Uninitialize()
	if err != nil {
		return Trace{}, err
	}
	for n.State() != pdnode.Idle {
		n.Process(format.Buffer())
	}
	if _, err := stopped.AwaitTimeout(0); err != nil {
		return Trace{}, err
	}
	n.DrainEvents(&recorder)
	trace.Events = recorder.Events()
	trace.Stats = n.Stats()
	return trace, n.Close()
}

// Equal returns true if traces have the same events and bit-identical
// output.
func (t Trace) Equal(other Trace) bool {
	if len(t.Events) != len(other.Events) || len(t.Output) != len(other.Output) {
		return false
	}
	for i := range t.Events {
		if t.Events[i] != other.Events[i] {
			return false
		}
	}
	for b := range t.Output {
		if !equalBlock(t.Output[b], other.Output[b]) {
			return false
		}
	}
	return true
}

func equalBlock(a, b [][]float32) bool {
	if len(a) != len(b) {
		return false
	}
	for c := range a {
		if len(a[c]) != len(b[c]) {
			return false
		}
		for i := range a[c] {
			if math.Float32bits(a[c][i]) != math.Float32bits(b[c][i]) {
				return false
			}
		}
	}
	return true
}

package pdnode

import (
	"context"
	"errors"
	"fmt"

	"github.com/pipelined/pdnode/command"
	"github.com/pipelined/pdnode/engine"
	"github.com/pipelined/pdnode/future"
)

// push enqueues command to the main queue. Commands are never dropped:
// ErrQueueFull is returned if there is no room.
func (n *Node) push(c command.Command) error {
	if n.state.load() == Disposed {
		return ErrDisposed
	}
	if n.pushTimeout == 0 {
		return n.commands.Push(c)
	}
	ctx, cancel := context.WithTimeout(context.Background(), n.pushTimeout)
	defer cancel()
	if err := n.commands.PushContext(ctx, c); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return fmt.Errorf("%w after %v", ErrQueueFull, n.pushTimeout)
		}
		return err
	}
	return nil
}

// QueueTask executes fn with exclusive engine access before the next block.
// Fn must not block and must not keep the engine after it returns.
func (n *Node) QueueTask(fn func(engine.Engine)) error {
	if fn == nil {
		return fmt.Errorf("nil task")
	}
	return n.push(command.Task(fn))
}

// RunWithResult executes fn on the render goroutine and returns the future
// of its result. A panic in fn is returned as *TaskFailure. Fn must never
// await futures of the same node.
func RunWithResult[T any](n *Node, fn func(engine.Engine) (T, error)) (*future.Future[T], error) {
	if fn == nil {
		return nil, fmt.Errorf("nil task")
	}
	f := future.New[T]()
	c := command.Task(func(e engine.Engine) {
		defer func() {
			if v := recover(); v != nil {
				var zero T
				f.Fulfill(zero, &TaskFailure{Value: v})
			}
		}()
		f.Fulfill(fn(e))
	})
	c.Cancel = func() {
		var zero T
		f.Fulfill(zero, ErrDisposed)
	}
	if err := n.push(c); err != nil {
		return nil, err
	}
	return f, nil
}

// Subscribe makes engine report messages sent to address as events.
func (n *Node) Subscribe(address string) error {
	return n.push(command.Task(func(e engine.Engine) {
		e.Subscribe(address)
	}))
}

// Unsubscribe stops reporting messages sent to address.
func (n *Node) Unsubscribe(address string) error {
	return n.push(command.Task(func(e engine.Engine) {
		e.Unsubscribe(address)
	}))
}

// SendBang sends bang to address.
func (n *Node) SendBang(address string) error {
	return n.push(command.Bang(address))
}

// SendFloat sends float to address.
func (n *Node) SendFloat(address string, value float32) error {
	return n.push(command.Float(address, value))
}

// SendSymbol sends symbol to address.
func (n *Node) SendSymbol(address, symbol string) error {
	return n.push(command.Symbol(address, symbol))
}

// SendList sends list to address.
func (n *Node) SendList(address string, list engine.List) error {
	return n.push(command.List(address, list))
}

// SendMessage sends typed message to address.
func (n *Node) SendMessage(address, selector string, list engine.List) error {
	return n.push(command.Message(address, selector, list))
}

// StreamFloat sends a continuous control value to address. Unlike
// SendFloat, the value is dropped if the stream queue is full. It returns
// false in this case.
func (n *Node) StreamFloat(address string, value float32) bool {
	if n.state.load() == Disposed {
		return false
	}
	if err := n.stream.Push(command.Float(address, value)); err != nil {
		n.counters.streamDropped.Add(1)
		return false
	}
	return true
}

// ReadArray returns the future of array contents. Negative length reads the
// whole array. Missing array or out of range read result in error.
func (n *Node) ReadArray(name string, length, offset int) (*future.Future[[]float32], error) {
	return RunWithResult(n, func(e engine.Engine) ([]float32, error) {
		size := e.ArraySize(name)
		if size < 0 {
			return nil, fmt.Errorf("array %s not found", name)
		}
		count := length
		if count < 0 {
			count = size - offset
		}
		if offset < 0 || count < 0 || offset+count > size {
			return nil, fmt.Errorf("array %s read %d samples at %d out of range %d", name, count, offset, size)
		}
		// this is a cold path, allocation is tolerated.
		dest := make([]float32, count)
		if !e.ReadArray(name, dest, count, offset) {
			return nil, fmt.Errorf("array %s read failed", name)
		}
		return dest, nil
	})
}

// WriteArray writes samples into array. Negative length writes all samples.
// Samples are copied.
func (n *Node) WriteArray(name string, samples []float32, length, offset int) error {
	return n.push(command.ArrayWrite(name, samples, length, offset))
}

// ClearArray sets every sample of the array to value.
func (n *Node) ClearArray(name string, value float32) error {
	return n.push(command.Task(func(e engine.Engine) {
		e.ClearArray(name, value)
	}))
}

// SendNoteOn sends note on. Zero velocity means note off.
func (n *Node) SendNoteOn(channel, pitch, velocity int) error {
	return n.push(command.NoteOn(channel, pitch, velocity))
}

// SendControlChange sends control change.
func (n *Node) SendControlChange(channel, controller, value int) error {
	return n.push(command.ControlChange(channel, controller, value))
}

// SendProgramChange sends program change.
func (n *Node) SendProgramChange(channel, value int) error {
	return n.push(command.ProgramChange(channel, value))
}

// SendPitchBend sends pitch bend in range -8192..8191.
func (n *Node) SendPitchBend(channel, value int) error {
	return n.push(command.PitchBend(channel, value))
}

// SendAfterTouch sends channel aftertouch.
func (n *Node) SendAfterTouch(channel, value int) error {
	return n.push(command.AfterTouch(channel, value))
}

// SendPolyAfterTouch sends polyphonic aftertouch.
func (n *Node) SendPolyAfterTouch(channel, pitch, value int) error {
	return n.push(command.PolyAfterTouch(channel, pitch, value))
}

// SendMidiByte sends raw MIDI byte to port.
func (n *Node) SendMidiByte(port, value int) error {
	return n.push(command.MidiByte(port, value))
}

// SendSysex sends system exclusive bytes to port.
func (n *Node) SendSysex(port int, data []byte) error {
	return n.push(command.Sysex(port, data))
}

// SendSysRealTime sends system realtime byte to port.
func (n *Node) SendSysRealTime(port, value int) error {
	return n.push(command.SysRealTime(port, value))
}

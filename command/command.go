// Package command defines the messages sent from control goroutines to the
// render goroutine and the queue that carries them.
package command

import (
	"fmt"

	"github.com/pipelined/pdnode/engine"
)

// Kind identifies the variant of a command.
type Kind uint8

// Command kinds.
const (
	NoOp Kind = iota
	KindTask
	KindBang
	KindFloat
	KindSymbol
	KindList
	KindMessage
	KindNoteOn
	KindControlChange
	KindProgramChange
	KindPitchBend
	KindAfterTouch
	KindPolyAfterTouch
	KindMidiByte
	KindSysex
	KindSysRealTime
	KindArrayWrite
)

var kindNames = [...]string{
	NoOp:               "noop",
	KindTask:           "task",
	KindBang:           "bang",
	KindFloat:          "float",
	KindSymbol:         "symbol",
	KindList:           "list",
	KindMessage:        "message",
	KindNoteOn:         "noteon",
	KindControlChange:  "controlchange",
	KindProgramChange:  "programchange",
	KindPitchBend:      "pitchbend",
	KindAfterTouch:     "aftertouch",
	KindPolyAfterTouch: "polyaftertouch",
	KindMidiByte:       "midibyte",
	KindSysex:          "sysex",
	KindSysRealTime:    "sysrealtime",
	KindArrayWrite:     "arraywrite",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// TaskFunc is executed on the render goroutine with exclusive access to the
// engine.
type TaskFunc func(e engine.Engine)

// Command is a self-contained request. It owns its payload, so it can be
// built on one goroutine and applied on another. Use the constructors
// to build commands, they copy caller-owned memory.
type Command struct {
	Kind Kind
	// Address is the receiver name for messages or the array name.
	Address  string
	Selector string
	Symbol   string
	Value    float32
	List     engine.List
	// Channel is the MIDI channel, or the port for raw MIDI kinds.
	Channel int
	// A and B carry the MIDI data bytes: pitch/controller and
	// velocity/value.
	A, B    int
	Bytes   []byte
	Samples []float32
	Length  int
	Offset  int
	Task    TaskFunc
	// Cancel is called instead of Apply if the command is discarded.
	Cancel func()
}

// Task returns a command that runs fn with exclusive engine access.
func Task(fn TaskFunc) Command {
	return Command{Kind: KindTask, Task: fn}
}

// Bang returns a bang message to address.
func Bang(address string) Command {
	return Command{Kind: KindBang, Address: address}
}

// Float returns a float message to address.
func Float(address string, value float32) Command {
	return Command{Kind: KindFloat, Address: address, Value: value}
}

// Symbol returns a symbol message to address.
func Symbol(address, symbol string) Command {
	return Command{Kind: KindSymbol, Address: address, Symbol: symbol}
}

// List returns a list message to address. The list is copied.
func List(address string, list engine.List) Command {
	return Command{Kind: KindList, Address: address, List: list.Clone()}
}

// Message returns a typed message to address. The list is copied.
func Message(address, selector string, list engine.List) Command {
	return Command{Kind: KindMessage, Address: address, Selector: selector, List: list.Clone()}
}

// NoteOn returns a MIDI note on.
func NoteOn(channel, pitch, velocity int) Command {
	return Command{Kind: KindNoteOn, Channel: channel, A: pitch, B: velocity}
}

// ControlChange returns a MIDI control change.
func ControlChange(channel, controller, value int) Command {
	return Command{Kind: KindControlChange, Channel: channel, A: controller, B: value}
}

// ProgramChange returns a MIDI program change.
func ProgramChange(channel, value int) Command {
	return Command{Kind: KindProgramChange, Channel: channel, B: value}
}

// PitchBend returns a MIDI pitch bend.
func PitchBend(channel, value int) Command {
	return Command{Kind: KindPitchBend, Channel: channel, B: value}
}

// AfterTouch returns a MIDI channel aftertouch.
func AfterTouch(channel, value int) Command {
	return Command{Kind: KindAfterTouch, Channel: channel, B: value}
}

// PolyAfterTouch returns a MIDI polyphonic aftertouch.
func PolyAfterTouch(channel, pitch, value int) Command {
	return Command{Kind: KindPolyAfterTouch, Channel: channel, A: pitch, B: value}
}

// MidiByte returns a raw MIDI byte for port.
func MidiByte(port, value int) Command {
	return Command{Kind: KindMidiByte, Channel: port, B: value}
}

// Sysex returns a system exclusive message for port. The bytes are copied.
func Sysex(port int, data []byte) Command {
	b := make([]byte, len(data))
	copy(b, data)
	return Command{Kind: KindSysex, Channel: port, Bytes: b}
}

// SysRealTime returns a system realtime byte for port.
func SysRealTime(port, value int) Command {
	return Command{Kind: KindSysRealTime, Channel: port, B: value}
}

// ArrayWrite returns a write of samples into the named array. Negative
// length means all samples. Only the written part of samples is copied.
func ArrayWrite(name string, samples []float32, length, offset int) Command {
	if length < 0 || length > len(samples) {
		length = len(samples)
	}
	s := make([]float32, length)
	copy(s, samples)
	return Command{Kind: KindArrayWrite, Address: name, Samples: s, Length: length, Offset: offset}
}

// Apply executes the command against the engine. Each kind maps to exactly
// one engine call, sysex is sent byte by byte.
func (c *Command) Apply(e engine.Engine) {
	switch c.Kind {
	case NoOp:
	case KindTask:
		c.Task(e)
	case KindBang:
		e.SendBang(c.Address)
	case KindFloat:
		e.SendFloat(c.Address, c.Value)
	case KindSymbol:
		e.SendSymbol(c.Address, c.Symbol)
	case KindList:
		e.SendList(c.Address, c.List)
	case KindMessage:
		e.SendMessage(c.Address, c.Selector, c.List)
	case KindNoteOn:
		e.SendNoteOn(c.Channel, c.A, c.B)
	case KindControlChange:
		e.SendControlChange(c.Channel, c.A, c.B)
	case KindProgramChange:
		e.SendProgramChange(c.Channel, c.B)
	case KindPitchBend:
		e.SendPitchBend(c.Channel, c.B)
	case KindAfterTouch:
		e.SendAftertouch(c.Channel, c.B)
	case KindPolyAfterTouch:
		e.SendPolyAftertouch(c.Channel, c.A, c.B)
	case KindMidiByte:
		e.SendMidiByte(c.Channel, c.B)
	case KindSysex:
		for _, b := range c.Bytes {
			e.SendSysex(c.Channel, int(b))
		}
	case KindSysRealTime:
		e.SendSysRealTime(c.Channel, c.B)
	case KindArrayWrite:
		e.WriteArray(c.Address, c.Samples, c.Length, c.Offset)
	}
}

func (c Command) String() string {
	switch c.Kind {
	case KindBang:
		return fmt.Sprintf("%v %s", c.Kind, c.Address)
	case KindFloat:
		return fmt.Sprintf("%v %s %v", c.Kind, c.Address, c.Value)
	case KindSymbol:
		return fmt.Sprintf("%v %s %s", c.Kind, c.Address, c.Symbol)
	case KindList:
		return fmt.Sprintf("%v %s [%v]", c.Kind, c.Address, c.List)
	case KindMessage:
		return fmt.Sprintf("%v %s %s [%v]", c.Kind, c.Address, c.Selector, c.List)
	case KindArrayWrite:
		return fmt.Sprintf("%v %s len=%d off=%d", c.Kind, c.Address, c.Length, c.Offset)
	}
	return c.Kind.String()
}

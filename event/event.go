// Package event defines the messages emitted by the engine during rendering
// and the queue that carries them to control goroutines.
package event

import (
	"fmt"

	"gitlab.com/gomidi/midi/v2"
)

// Kind identifies the variant of an event.
type Kind uint8

// Event kinds.
const (
	Print Kind = iota
	Bang
	Float
	Symbol
	NoteOn
)

var kindNames = [...]string{
	Print:  "print",
	Bang:   "bang",
	Float:  "float",
	Symbol: "symbol",
	NoteOn: "noteon",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// Event is a message produced by the engine. Block is the number of the
// render block during which the event was pumped.
type Event struct {
	Kind    Kind
	Address string
	// Text holds print output or the symbol value.
	Text     string
	Value    float32
	Channel  int
	Pitch    int
	Velocity int
	Block    uint64
}

// NewPrint returns a print event.
func NewPrint(text string) Event {
	return Event{Kind: Print, Text: text}
}

// NewBang returns a bang event.
func NewBang(address string) Event {
	return Event{Kind: Bang, Address: address}
}

// NewFloat returns a float event.
func NewFloat(address string, value float32) Event {
	return Event{Kind: Float, Address: address, Value: value}
}

// NewSymbol returns a symbol event.
func NewSymbol(address, symbol string) Event {
	return Event{Kind: Symbol, Address: address, Text: symbol}
}

// NewNoteOn returns a note on event.
func NewNoteOn(channel, pitch, velocity int) Event {
	return Event{Kind: NoteOn, Channel: channel, Pitch: pitch, Velocity: velocity}
}

// MIDI returns the note on event as a MIDI message. False is returned for
// other kinds or values out of MIDI range.
func (e Event) MIDI() (midi.Message, bool) {
	if e.Kind != NoteOn || !in7bit(e.Pitch) || !in7bit(e.Velocity) || e.Channel < 0 || e.Channel > 15 {
		return nil, false
	}
	return midi.NoteOn(uint8(e.Channel), uint8(e.Pitch), uint8(e.Velocity)), true
}

func in7bit(v int) bool {
	return v >= 0 && v < 128
}

func (e Event) String() string {
	switch e.Kind {
	case Print:
		return fmt.Sprintf("#%d print %q", e.Block, e.Text)
	case Bang:
		return fmt.Sprintf("#%d bang %s", e.Block, e.Address)
	case Float:
		return fmt.Sprintf("#%d float %s %v", e.Block, e.Address, e.Value)
	case Symbol:
		return fmt.Sprintf("#%d symbol %s %s", e.Block, e.Address, e.Text)
	case NoteOn:
		return fmt.Sprintf("#%d noteon %d %d %d", e.Block, e.Channel, e.Pitch, e.Velocity)
	}
	return fmt.Sprintf("#%d %v", e.Block, e.Kind)
}

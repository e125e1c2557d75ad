// Package engine defines the contract of the embedded signal-processing
// interpreter. The node drives an Engine exclusively from the render
// goroutine, so implementations do not need to be safe for concurrent use.
package engine

import "errors"

// ErrInvalidPatch is returned by engines when a patch source cannot be
// interpreted.
var ErrInvalidPatch = errors.New("invalid patch")

type (
	// Engine is a dynamic signal-processing interpreter.
	Engine interface {
		// Init configures the engine for the given channel counts and sample
		// rate. Non-nil error means the configuration was rejected.
		Init(numInputs, numOutputs, sampleRate int) error
		// SetComputeEnabled switches signal computation on and off. While
		// disabled, ProcessBlock outputs silence.
		SetComputeEnabled(enabled bool)
		// BlockSize returns the number of frames in one engine tick.
		BlockSize() int
		// ProcessBlock runs ticks engine ticks over interleaved buffers. In
		// and out may be the same slice.
		ProcessBlock(ticks int, in, out []float32) error

		// OpenPatch loads the patch name located in dir.
		OpenPatch(name, dir string) (Patch, error)
		// ClosePatch releases a previously opened patch.
		ClosePatch(p Patch)

		// Subscribe makes the engine report messages sent to address.
		Subscribe(address string)
		// Unsubscribe stops reporting messages sent to address.
		Unsubscribe(address string)

		SendBang(address string)
		SendFloat(address string, value float32)
		SendSymbol(address, symbol string)
		SendList(address string, list List)
		SendMessage(address, selector string, list List)

		SendNoteOn(channel, pitch, velocity int)
		SendControlChange(channel, controller, value int)
		SendProgramChange(channel, value int)
		SendPitchBend(channel, value int)
		SendAftertouch(channel, value int)
		SendPolyAftertouch(channel, pitch, value int)
		SendMidiByte(port, value int)
		SendSysex(port, value int)
		SendSysRealTime(port, value int)

		// ArraySize returns the size of the named array or -1 if there is no
		// such array.
		ArraySize(name string) int
		// ReadArray copies length samples starting at offset into dest.
		ReadArray(name string, dest []float32, length, offset int) bool
		// WriteArray copies length samples from src into the array starting
		// at offset.
		WriteArray(name string, src []float32, length, offset int) bool
		// ClearArray sets every sample of the array to value.
		ClearArray(name string, value float32)

		// ReceiveMessages delivers the messages generated since the last call
		// to r. It is invoked once per rendered block.
		ReceiveMessages(r Receiver)
	}

	// Receiver is invoked by the engine while its messages are pumped.
	Receiver interface {
		Print(text string)
		Bang(address string)
		Float(address string, value float32)
		Symbol(address, symbol string)
		NoteOn(channel, pitch, velocity int)
	}

	// Patch identifies a program loaded into the engine. The zero value is
	// an invalid patch.
	Patch struct {
		Handle     int
		DollarZero int
		Filename   string
		Dir        string
	}
)

// Valid returns true if the patch refers to a loaded program.
func (p Patch) Valid() bool {
	return p.Handle != 0
}

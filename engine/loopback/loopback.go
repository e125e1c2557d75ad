// Package loopback provides a deterministic engine that copies its input to
// its output and echoes messages back to subscribed addresses. It is used
// to exercise nodes in tests, replays and offline renders.
package loopback

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pipelined/pdnode/engine"
)

// BlockSize is the number of frames in one engine tick.
const BlockSize = 64

// patchHeader starts every valid patch file.
const patchHeader = "#N canvas"

var (
	// ErrNotInitialized is returned if a block is processed before Init.
	ErrNotInitialized = errors.New("engine is not initialized")
	// ErrBufferSize is returned if buffers are too short for the requested
	// ticks.
	ErrBufferSize = errors.New("buffer is too short")
)

type (
	// Engine is a loopback engine. It is not safe for concurrent use.
	Engine struct {
		counter
		// ErrorOnInit is returned by Init when set.
		ErrorOnInit error
		// Messages holds every message received by the engine in arrival
		// order. MIDI is recorded with the MIDI kind as selector.
		Messages []Message

		channels    int
		sampleRate  int
		computing   bool
		initialized bool
		subscribed  map[string]struct{}
		arrays      map[string][]float32
		patches     map[int]engine.Patch
		lastHandle  int
		outgoing    []outgoing
		closed      bool
	}

	// Message is a single message received by the engine.
	Message struct {
		Address  string
		Selector string
		Args     engine.List
	}

	counter struct {
		ticks   int
		samples int
	}

	outgoingKind uint8

	outgoing struct {
		kind     outgoingKind
		address  string
		symbol   string
		value    float32
		channel  int
		pitch    int
		velocity int
	}
)

const (
	outPrint outgoingKind = iota
	outBang
	outFloat
	outSymbol
	outNoteOn
)

// New returns a new loopback engine.
func New() *Engine {
	return &Engine{
		subscribed: make(map[string]struct{}),
		arrays:     make(map[string][]float32),
		patches:    make(map[int]engine.Patch),
	}
}

// Init implements engine.Engine.
func (e *Engine) Init(numInputs, numOutputs, sampleRate int) error {
	if e.ErrorOnInit != nil {
		return e.ErrorOnInit
	}
	if numInputs <= 0 || numOutputs != numInputs || sampleRate <= 0 {
		return fmt.Errorf("unsupported configuration: inputs %d outputs %d sample rate %d", numInputs, numOutputs, sampleRate)
	}
	e.channels = numInputs
	e.sampleRate = sampleRate
	e.initialized = true
	return nil
}

// SetComputeEnabled implements engine.Engine.
func (e *Engine) SetComputeEnabled(enabled bool) {
	e.computing = enabled
}

// Computing returns true if computation is enabled.
func (e *Engine) Computing() bool {
	return e.computing
}

// BlockSize implements engine.Engine.
func (e *Engine) BlockSize() int {
	return BlockSize
}

// ProcessBlock copies in to out. Silence is written while computation is
// disabled.
func (e *Engine) ProcessBlock(ticks int, in, out []float32) error {
	if !e.initialized {
		return ErrNotInitialized
	}
	n := ticks * BlockSize * e.channels
	if len(in) < n || len(out) < n {
		return ErrBufferSize
	}
	if e.computing {
		copy(out[:n], in[:n])
	} else {
		for i := range out[:n] {
			out[i] = 0
		}
	}
	e.ticks += ticks
	e.samples += ticks * BlockSize
	return nil
}

// Ticks returns the number of processed ticks.
func (e *Engine) Ticks() int {
	return e.ticks
}

// Samples returns the number of processed frames.
func (e *Engine) Samples() int {
	return e.samples
}

// OpenPatch reads the patch file. Files that do not start with a canvas
// header are rejected. Array declarations of the form
// "#X array name size ..." create zeroed arrays.
func (e *Engine) OpenPatch(name, dir string) (engine.Patch, error) {
	data, err := os.ReadFile(filepath.Join(dir, name))
	if err != nil {
		return engine.Patch{}, err
	}
	if !bytes.HasPrefix(data, []byte(patchHeader)) {
		return engine.Patch{}, fmt.Errorf("%s: %w", name, engine.ErrInvalidPatch)
	}
	arrays, err := parseArrays(data)
	if err != nil {
		return engine.Patch{}, fmt.Errorf("%s: %w", name, err)
	}
	for array, size := range arrays {
		e.arrays[array] = make([]float32, size)
	}
	e.lastHandle++
	p := engine.Patch{
		Handle:     e.lastHandle,
		DollarZero: 1000 + e.lastHandle,
		Filename:   name,
		Dir:        dir,
	}
	e.patches[p.Handle] = p
	e.print(fmt.Sprintf("opened %s", name))
	return p, nil
}

func parseArrays(data []byte) (map[string]int, error) {
	arrays := make(map[string]int)
	s := bufio.NewScanner(bytes.NewReader(data))
	for s.Scan() {
		fields := strings.Fields(strings.TrimSuffix(s.Text(), ";"))
		if len(fields) < 4 || fields[0] != "#X" || fields[1] != "array" {
			continue
		}
		size, err := strconv.Atoi(fields[3])
		if err != nil || size < 0 {
			return nil, fmt.Errorf("array %s size %q: %w", fields[2], fields[3], engine.ErrInvalidPatch)
		}
		arrays[fields[2]] = size
	}
	return arrays, s.Err()
}

// ClosePatch implements engine.Engine.
func (e *Engine) ClosePatch(p engine.Patch) {
	delete(e.patches, p.Handle)
}

// Patches returns the number of open patches.
func (e *Engine) Patches() int {
	return len(e.patches)
}

// Subscribe implements engine.Engine.
func (e *Engine) Subscribe(address string) {
	e.subscribed[address] = struct{}{}
}

// Unsubscribe implements engine.Engine.
func (e *Engine) Unsubscribe(address string) {
	delete(e.subscribed, address)
}

func (e *Engine) isSubscribed(address string) bool {
	_, ok := e.subscribed[address]
	return ok
}

// SendBang implements engine.Engine.
func (e *Engine) SendBang(address string) {
	e.record(address, "bang", nil)
	if e.isSubscribed(address) {
		e.outgoing = append(e.outgoing, outgoing{kind: outBang, address: address})
	}
}

// SendFloat implements engine.Engine.
func (e *Engine) SendFloat(address string, value float32) {
	e.record(address, "float", engine.List{engine.Float(value)})
	if e.isSubscribed(address) {
		e.outgoing = append(e.outgoing, outgoing{kind: outFloat, address: address, value: value})
	}
}

// SendSymbol implements engine.Engine.
func (e *Engine) SendSymbol(address, symbol string) {
	e.record(address, "symbol", engine.List{engine.Symbol(symbol)})
	if e.isSubscribed(address) {
		e.outgoing = append(e.outgoing, outgoing{kind: outSymbol, address: address, symbol: symbol})
	}
}

// SendList implements engine.Engine. Lists to subscribed addresses are
// echoed as print output.
func (e *Engine) SendList(address string, list engine.List) {
	e.record(address, "list", list)
	if e.isSubscribed(address) {
		e.print(fmt.Sprintf("%s: list %v", address, list))
	}
}

// SendMessage implements engine.Engine. Messages to subscribed addresses
// are echoed as print output.
func (e *Engine) SendMessage(address, selector string, list engine.List) {
	e.record(address, selector, list)
	if e.isSubscribed(address) {
		e.print(fmt.Sprintf("%s: %s %v", address, selector, list))
	}
}

// SendNoteOn implements engine.Engine. Notes are echoed back.
func (e *Engine) SendNoteOn(channel, pitch, velocity int) {
	e.recordMIDI("noteon", channel, pitch, velocity)
	e.outgoing = append(e.outgoing, outgoing{kind: outNoteOn, channel: channel, pitch: pitch, velocity: velocity})
}

// SendControlChange implements engine.Engine.
func (e *Engine) SendControlChange(channel, controller, value int) {
	e.recordMIDI("controlchange", channel, controller, value)
}

// SendProgramChange implements engine.Engine.
func (e *Engine) SendProgramChange(channel, value int) {
	e.recordMIDI("programchange", channel, value)
}

// SendPitchBend implements engine.Engine.
func (e *Engine) SendPitchBend(channel, value int) {
	e.recordMIDI("pitchbend", channel, value)
}

// SendAftertouch implements engine.Engine.
func (e *Engine) SendAftertouch(channel, value int) {
	e.recordMIDI("aftertouch", channel, value)
}

// SendPolyAftertouch implements engine.Engine.
func (e *Engine) SendPolyAftertouch(channel, pitch, value int) {
	e.recordMIDI("polyaftertouch", channel, pitch, value)
}

// SendMidiByte implements engine.Engine.
func (e *Engine) SendMidiByte(port, value int) {
	e.recordMIDI("midibyte", port, value)
}

// SendSysex implements engine.Engine.
func (e *Engine) SendSysex(port, value int) {
	e.recordMIDI("sysex", port, value)
}

// SendSysRealTime implements engine.Engine.
func (e *Engine) SendSysRealTime(port, value int) {
	e.recordMIDI("sysrealtime", port, value)
}

// ArraySize implements engine.Engine.
func (e *Engine) ArraySize(name string) int {
	a, ok := e.arrays[name]
	if !ok {
		return -1
	}
	return len(a)
}

// ReadArray implements engine.Engine.
func (e *Engine) ReadArray(name string, dest []float32, length, offset int) bool {
	a, ok := e.arrays[name]
	if !ok || offset < 0 || length < 0 || offset+length > len(a) || length > len(dest) {
		return false
	}
	copy(dest[:length], a[offset:offset+length])
	return true
}

// WriteArray implements engine.Engine. Arrays that do not exist are
// created with the written size.
func (e *Engine) WriteArray(name string, src []float32, length, offset int) bool {
	if offset < 0 || length < 0 || length > len(src) {
		return false
	}
	a, ok := e.arrays[name]
	if !ok {
		a = make([]float32, offset+length)
		e.arrays[name] = a
	}
	if offset+length > len(a) {
		return false
	}
	copy(a[offset:offset+length], src[:length])
	return true
}

// ClearArray implements engine.Engine.
func (e *Engine) ClearArray(name string, value float32) {
	a := e.arrays[name]
	for i := range a {
		a[i] = value
	}
}

// ReceiveMessages implements engine.Engine.
func (e *Engine) ReceiveMessages(r engine.Receiver) {
	for _, m := range e.outgoing {
		switch m.kind {
		case outPrint:
			r.Print(m.symbol)
		case outBang:
			r.Bang(m.address)
		case outFloat:
			r.Float(m.address, m.value)
		case outSymbol:
			r.Symbol(m.address, m.symbol)
		case outNoteOn:
			r.NoteOn(m.channel, m.pitch, m.velocity)
		}
	}
	e.outgoing = e.outgoing[:0]
}

// Close releases the engine.
func (e *Engine) Close() error {
	if e.closed {
		return nil
	}
	e.closed = true
	e.patches = make(map[int]engine.Patch)
	e.computing = false
	return nil
}

// Closed returns true if Close was called.
func (e *Engine) Closed() bool {
	return e.closed
}

func (e *Engine) print(text string) {
	e.outgoing = append(e.outgoing, outgoing{kind: outPrint, symbol: text})
}

func (e *Engine) record(address, selector string, args engine.List) {
	e.Messages = append(e.Messages, Message{Address: address, Selector: selector, Args: args})
}

func (e *Engine) recordMIDI(kind string, values ...int) {
	args := make(engine.List, 0, len(values))
	for _, v := range values {
		args = append(args, engine.Float(float32(v)))
	}
	e.record("", kind, args)
}

func (m Message) String() string {
	if len(m.Args) == 0 {
		return fmt.Sprintf("%s %s", m.Address, m.Selector)
	}
	return fmt.Sprintf("%s %s %v", m.Address, m.Selector, m.Args)
}

package event

import "sync"

// Receiver consumes drained events.
type Receiver interface {
	ReceivePrint(e Event)
	ReceiveBang(e Event)
	ReceiveFloat(e Event)
	ReceiveSymbol(e Event)
	ReceiveNoteOn(e Event)
}

// Dispatch calls the receiver method that matches the event kind.
func Dispatch(r Receiver, e Event) {
	switch e.Kind {
	case Print:
		r.ReceivePrint(e)
	case Bang:
		r.ReceiveBang(e)
	case Float:
		r.ReceiveFloat(e)
	case Symbol:
		r.ReceiveSymbol(e)
	case NoteOn:
		r.ReceiveNoteOn(e)
	}
}

// Funcs is a Receiver built from optional callbacks. Nil callbacks ignore
// their events.
type Funcs struct {
	Print  func(text string)
	Bang   func(address string)
	Float  func(address string, value float32)
	Symbol func(address, symbol string)
	NoteOn func(channel, pitch, velocity int)
}

// ReceivePrint implements Receiver.
func (f Funcs) ReceivePrint(e Event) {
	if f.Print != nil {
		f.Print(e.Text)
	}
}

// ReceiveBang implements Receiver.
func (f Funcs) ReceiveBang(e Event) {
	if f.Bang != nil {
		f.Bang(e.Address)
	}
}

// ReceiveFloat implements Receiver.
func (f Funcs) ReceiveFloat(e Event) {
	if f.Float != nil {
		f.Float(e.Address, e.Value)
	}
}

// ReceiveSymbol implements Receiver.
func (f Funcs) ReceiveSymbol(e Event) {
	if f.Symbol != nil {
		f.Symbol(e.Address, e.Text)
	}
}

// ReceiveNoteOn implements Receiver.
func (f Funcs) ReceiveNoteOn(e Event) {
	if f.NoteOn != nil {
		f.NoteOn(e.Channel, e.Pitch, e.Velocity)
	}
}

// Recorder is a Receiver that keeps every event it gets. It is safe for
// concurrent use.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *Recorder) record(e Event) {
	r.mu.Lock()
	r.events = append(r.events, e)
	r.mu.Unlock()
}

// ReceivePrint implements Receiver.
func (r *Recorder) ReceivePrint(e Event) { r.record(e) }

// ReceiveBang implements Receiver.
func (r *Recorder) ReceiveBang(e Event) { r.record(e) }

// ReceiveFloat implements Receiver.
func (r *Recorder) ReceiveFloat(e Event) { r.record(e) }

// ReceiveSymbol implements Receiver.
func (r *Recorder) ReceiveSymbol(e Event) { r.record(e) }

// ReceiveNoteOn implements Receiver.
func (r *Recorder) ReceiveNoteOn(e Event) { r.record(e) }

// Events returns a copy of the recorded events.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	result := make([]Event, len(r.events))
	copy(result, r.events)
	return result
}

// Reset forgets recorded events.
func (r *Recorder) Reset() {
	r.mu.Lock()
	r.events = nil
	r.mu.Unlock()
}

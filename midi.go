package pdnode

import (
	"fmt"

	"gitlab.com/gomidi/midi/v2"

	"github.com/pipelined/pdnode/command"
	"github.com/pipelined/pdnode/engine"
)

// SendMIDI decodes the message and sends it to engine. Note off is sent as
// note on with zero velocity. Messages without a typed equivalent are sent
// as raw bytes to port 0.
func (n *Node) SendMIDI(msg midi.Message) error {
	c, err := midiCommand(msg)
	if err != nil {
		return err
	}
	return n.push(c)
}

func midiCommand(msg midi.Message) (command.Command, error) {
	if len(msg) == 0 {
		return command.Command{}, fmt.Errorf("empty midi message")
	}
	var (
		ch, key, vel uint8
		rel          int16
		abs          uint16
	)
	switch {
	case msg.GetNoteStart(&ch, &key, &vel):
		return command.NoteOn(int(ch), int(key), int(vel)), nil
	case msg.GetNoteEnd(&ch, &key):
		return command.NoteOn(int(ch), int(key), 0), nil
	case msg.GetControlChange(&ch, &key, &vel):
		return command.ControlChange(int(ch), int(key), int(vel)), nil
	case msg.GetProgramChange(&ch, &key):
		return command.ProgramChange(int(ch), int(key)), nil
	case msg.GetPitchBend(&ch, &rel, &abs):
		return command.PitchBend(int(ch), int(rel)), nil
	case msg.GetAfterTouch(&ch, &vel):
		return command.AfterTouch(int(ch), int(vel)), nil
	case msg.GetPolyAfterTouch(&ch, &key, &vel):
		return command.PolyAfterTouch(int(ch), int(key), int(vel)), nil
	case msg[0] == 0xF0:
		return command.Sysex(0, msg), nil
	case len(msg) == 1 && msg[0] >= 0xF8:
		return command.SysRealTime(0, int(msg[0])), nil
	}
	// raw bytes keep their order in a single task.
	raw := make([]byte, len(msg))
	copy(raw, msg)
	return command.Task(func(e engine.Engine) {
		for _, b := range raw {
			e.SendMidiByte(0, int(b))
		}
	}), nil
}

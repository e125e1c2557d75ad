package pdnode_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gitlab.com/gomidi/midi/v2"

	"github.com/pipelined/pdnode/engine"
	"github.com/pipelined/pdnode/engine/loopback"
)

func TestSendMIDI(t *testing.T) {
	var tests = []struct {
		name     string
		msg      midi.Message
		expected []loopback.Message
	}{
		{
			name:     "note on",
			msg:      midi.NoteOn(1, 60, 100),
			expected: []loopback.Message{{Selector: "noteon", Args: engine.Floats(1, 60, 100)}},
		},
		{
			name:     "note off",
			msg:      midi.NoteOff(1, 60),
			expected: []loopback.Message{{Selector: "noteon", Args: engine.Floats(1, 60, 0)}},
		},
		{
			name:     "control change",
			msg:      midi.ControlChange(2, 7, 64),
			expected: []loopback.Message{{Selector: "controlchange", Args: engine.Floats(2, 7, 64)}},
		},
		{
			name:     "program change",
			msg:      midi.ProgramChange(3, 5),
			expected: []loopback.Message{{Selector: "programchange", Args: engine.Floats(3, 5)}},
		},
		{
			name:     "pitch bend",
			msg:      midi.Message{0xE0, 28, 63},
			expected: []loopback.Message{{Selector: "pitchbend", Args: engine.Floats(0, -100)}},
		},
		{
			name:     "aftertouch",
			msg:      midi.AfterTouch(4, 10),
			expected: []loopback.Message{{Selector: "aftertouch", Args: engine.Floats(4, 10)}},
		},
		{
			name:     "poly aftertouch",
			msg:      midi.PolyAfterTouch(5, 60, 10),
			expected: []loopback.Message{{Selector: "polyaftertouch", Args: engine.Floats(5, 60, 10)}},
		},
		{
			name: "sysex",
			msg:  midi.Message{0xF0, 0x7D, 0xF7},
			expected: []loopback.Message{
				{Selector: "sysex", Args: engine.Floats(0, 0xF0)},
				{Selector: "sysex", Args: engine.Floats(0, 0x7D)},
				{Selector: "sysex", Args: engine.Floats(0, 0xF7)},
			},
		},
		{
			name:     "realtime",
			msg:      midi.Message{0xF8},
			expected: []loopback.Message{{Selector: "sysrealtime", Args: engine.Floats(0, 0xF8)}},
		},
		{
			name: "song select",
			msg:  midi.Message{0xF3, 0x02},
			expected: []loopback.Message{
				{Selector: "midibyte", Args: engine.Floats(0, 0xF3)},
				{Selector: "midibyte", Args: engine.Floats(0, 0x02)},
			},
		},
	}
	for _, c := range tests {
		t.Run(c.name, func(t *testing.T) {
			n, e := newNode(t)
			require.NoError(t, n.SendMIDI(c.msg))
			n.Process(stereo.Buffer())
			assert.Equal(t, c.expected, e.Messages)
		})
	}

	n, _ := newNode(t)
	assert.Error(t, n.SendMIDI(nil))
}

func TestSendMIDIFamily(t *testing.T) {
	n, e := newNode(t)
	require.NoError(t, n.SendControlChange(0, 1, 2))
	require.NoError(t, n.SendProgramChange(0, 3))
	require.NoError(t, n.SendPitchBend(0, 8191))
	require.NoError(t, n.SendAfterTouch(0, 4))
	require.NoError(t, n.SendPolyAfterTouch(0, 5, 6))
	require.NoError(t, n.SendMidiByte(1, 0x90))
	require.NoError(t, n.SendSysex(1, []byte{0xF0, 0xF7}))
	require.NoError(t, n.SendSysRealTime(1, 0xFA))
	require.NoError(t, n.SendList("l", engine.Floats(1)))
	n.Process(stereo.Buffer())

	selectors := make([]string, 0, len(e.Messages))
	for _, m := range e.Messages {
		selectors = append(selectors, m.Selector)
	}
	assert.Equal(t, []string{
		"controlchange",
		"programchange",
		"pitchbend",
		"aftertouch",
		"polyaftertouch",
		"midibyte",
		"sysex",
		"sysex",
		"sysrealtime",
		"list",
	}, selectors)
}

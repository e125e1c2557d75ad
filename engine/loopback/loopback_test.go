package loopback_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pipelined/pdnode/engine"
	"github.com/pipelined/pdnode/engine/loopback"
)

type receiver struct {
	calls []string
}

func (r *receiver) Print(text string)                   { r.calls = append(r.calls, "print "+text) }
func (r *receiver) Bang(address string)                 { r.calls = append(r.calls, "bang "+address) }
func (r *receiver) Float(address string, value float32) { r.calls = append(r.calls, "float "+address) }
func (r *receiver) Symbol(address, symbol string)       { r.calls = append(r.calls, "symbol "+address+" "+symbol) }
func (r *receiver) NoteOn(channel, pitch, velocity int) { r.calls = append(r.calls, "noteon") }

func writePatch(t *testing.T, content string) (string, string) {
	t.Helper()
	dir := t.TempDir()
	name := "test.pd"
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	return name, dir
}

func TestInit(t *testing.T) {
	e := loopback.New()
	assert.Error(t, e.Init(0, 0, 44100))
	assert.Error(t, e.Init(2, 1, 44100))
	assert.NoError(t, e.Init(2, 2, 44100))

	errInit := errors.New("init error")
	e = loopback.New()
	e.ErrorOnInit = errInit
	assert.Equal(t, errInit, e.Init(2, 2, 44100))
}

func TestProcessBlock(t *testing.T) {
	e := loopback.New()
	buf := make([]float32, 2*loopback.BlockSize*2)
	assert.Equal(t, loopback.ErrNotInitialized, e.ProcessBlock(2, buf, buf))

	require.NoError(t, e.Init(2, 2, 44100))
	in := make([]float32, len(buf))
	for i := range in {
		in[i] = float32(i)
	}
	out := make([]float32, len(buf))

	// disabled computation outputs silence
	e.ProcessBlock(2, in, out)
	assert.Equal(t, make([]float32, len(buf)), out)

	e.SetComputeEnabled(true)
	assert.NoError(t, e.ProcessBlock(2, in, out))
	assert.Equal(t, in, out)
	assert.Equal(t, 4, e.Ticks())
	assert.Equal(t, 4*loopback.BlockSize, e.Samples())

	assert.Equal(t, loopback.ErrBufferSize, e.ProcessBlock(3, in, out))
}

func TestPatch(t *testing.T) {
	e := loopback.New()
	name, dir := writePatch(t, "#N canvas 0 0 450 300 12;\n#X array table 16 float 0;\n")
	p, err := e.OpenPatch(name, dir)
	require.NoError(t, err)
	assert.True(t, p.Valid())
	assert.Equal(t, name, p.Filename)
	assert.Equal(t, 16, e.ArraySize("table"))
	assert.Equal(t, 1, e.Patches())

	r := &receiver{}
	e.ReceiveMessages(r)
	assert.Equal(t, []string{"print opened test.pd"}, r.calls)

	e.ClosePatch(p)
	assert.Equal(t, 0, e.Patches())

	name, dir = writePatch(t, "not a patch")
	p, err = e.OpenPatch(name, dir)
	assert.True(t, errors.Is(err, engine.ErrInvalidPatch))
	assert.False(t, p.Valid())

	_, err = e.OpenPatch("missing.pd", dir)
	assert.Error(t, err)
}

func TestEcho(t *testing.T) {
	e := loopback.New()
	e.SendBang("ignored")
	e.Subscribe("out")
	e.SendBang("out")
	e.SendFloat("out", 1)
	e.SendSymbol("out", "sym")
	e.SendNoteOn(0, 60, 100)
	e.Unsubscribe("out")
	e.SendBang("out")

	r := &receiver{}
	e.ReceiveMessages(r)
	assert.Equal(t, []string{"bang out", "float out", "symbol out sym", "noteon"}, r.calls)
	assert.Len(t, e.Messages, 6)

	// messages are pumped once
	r = &receiver{}
	e.ReceiveMessages(r)
	assert.Empty(t, r.calls)
}

func TestArrays(t *testing.T) {
	e := loopback.New()
	assert.Equal(t, -1, e.ArraySize("a"))
	assert.True(t, e.WriteArray("a", []float32{1, 2, 3}, 3, 0))
	assert.Equal(t, 3, e.ArraySize("a"))
	assert.False(t, e.WriteArray("a", []float32{1, 2}, 2, 2))

	dest := make([]float32, 2)
	assert.True(t, e.ReadArray("a", dest, 2, 1))
	assert.Equal(t, []float32{2, 3}, dest)
	assert.False(t, e.ReadArray("a", dest, 2, 2))
	assert.False(t, e.ReadArray("b", dest, 1, 0))

	e.ClearArray("a", 0.5)
	dest = make([]float32, 3)
	e.ReadArray("a", dest, 3, 0)
	assert.Equal(t, []float32{0.5, 0.5, 0.5}, dest)
}

package pdnode

import (
	"fmt"
	"path/filepath"
	"sync/atomic"

	"github.com/pipelined/pdnode/command"
	"github.com/pipelined/pdnode/engine"
	"github.com/pipelined/pdnode/future"
)

// Source locates a patch definition.
type Source interface {
	Path() string
}

// FileSource is a patch stored in the file system.
type FileSource string

// Path returns the file path.
func (s FileSource) Path() string {
	return string(s)
}

// Patch is a program loaded into the engine. Invalid patches are returned
// when loading fails. Closing is safe to repeat.
type Patch struct {
	node   *Node
	source string
	patch  engine.Patch
	err    error
	closed atomic.Bool
}

// Valid returns true if the patch is loaded and not closed.
func (p *Patch) Valid() bool {
	return p != nil && p.patch.Valid() && !p.closed.Load()
}

// Source returns the path the patch was loaded from.
func (p *Patch) Source() string {
	return p.source
}

// Filename returns the patch file name.
func (p *Patch) Filename() string {
	return p.patch.Filename
}

// Dir returns the directory of the patch.
func (p *Patch) Dir() string {
	return p.patch.Dir
}

// DollarZero returns the patch local instance number.
func (p *Patch) DollarZero() int {
	return p.patch.DollarZero
}

// Err returns the load failure.
func (p *Patch) Err() error {
	return p.err
}

// Close releases the patch.
func (p *Patch) Close() error {
	if p == nil || p.node == nil {
		return nil
	}
	return p.node.ClosePatch(p)
}

func (p *Patch) String() string {
	if !p.patch.Valid() {
		return fmt.Sprintf("invalid patch %s", p.source)
	}
	return fmt.Sprintf("patch %s $0=%d", p.source, p.patch.DollarZero)
}

// LoadPatch opens the patch on the render goroutine. The future holds an
// invalid patch and *PatchLoadError when engine cannot open it.
func (n *Node) LoadPatch(src Source) (*future.Future[*Patch], error) {
	if src == nil {
		return nil, fmt.Errorf("nil patch source")
	}
	path := src.Path()
	dir, name := filepath.Split(path)
	if dir == "" {
		dir = "."
	}
	if s := n.state.load(); s != Active {
		n.logger.Debug(fmt.Sprintf("%v: load %s before activation", n, path))
	}
	f := future.New[*Patch]()
	c := command.Task(func(e engine.Engine) {
		p := &Patch{node: n, source: path}
		loaded, err := e.OpenPatch(name, filepath.Clean(dir))
		if err == nil && !loaded.Valid() {
			err = engine.ErrInvalidPatch
		}
		if err != nil {
			p.err = &PatchLoadError{Source: path, Err: err}
			n.receiver.Print(p.err.Error())
			f.Fulfill(p, p.err)
			return
		}
		p.patch = loaded
		n.render.patches[loaded.Handle] = p
		f.Fulfill(p, nil)
	})
	c.Cancel = func() {
		f.Fulfill(&Patch{source: path, err: ErrDisposed}, ErrDisposed)
	}
	if err := n.push(c); err != nil {
		return nil, err
	}
	return f, nil
}

// ClosePatch releases the patch on the render goroutine. Nil, invalid and
// closed patches are ignored.
func (n *Node) ClosePatch(p *Patch) error {
	if p == nil || !p.patch.Valid() || p.node != n {
		return nil
	}
	if !p.closed.CompareAndSwap(false, true) {
		return nil
	}
	loaded := p.patch
	if err := n.push(command.Task(func(e engine.Engine) {
		if _, ok := n.render.patches[loaded.Handle]; !ok {
			return
		}
		delete(n.render.patches, loaded.Handle)
		e.ClosePatch(loaded)
	})); err != nil {
		p.closed.Store(false)
		return err
	}
	return nil
}

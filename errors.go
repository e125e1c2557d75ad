package pdnode

import (
	"errors"
	"fmt"

	"github.com/pipelined/pdnode/command"
)

var (
	// ErrInvalidState is returned if node method cannot be executed at this
	// moment.
	ErrInvalidState = errors.New("invalid state")
	// ErrInvalidFormat is returned if format cannot be rendered.
	ErrInvalidFormat = errors.New("invalid format")
	// ErrDisposed is returned by every call after node is closed.
	ErrDisposed = errors.New("node is disposed")
	// ErrQueueFull is returned if command cannot be enqueued.
	ErrQueueFull = command.ErrQueueFull
)

// ConfigurationError is returned when engine rejects the format. It's fatal
// for the initialization, node stays idle.
type ConfigurationError struct {
	Format Format
	Err    error
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configure %v: %v", e.Format, e.Err)
}

// Unwrap returns the engine error.
func (e *ConfigurationError) Unwrap() error {
	return e.Err
}

// PatchLoadError is returned when engine cannot open a patch. The patch
// handle returned alongside is invalid.
type PatchLoadError struct {
	Source string
	Err    error
}

func (e *PatchLoadError) Error() string {
	return fmt.Sprintf("load patch %s: %v", e.Source, e.Err)
}

// Unwrap returns the engine error.
func (e *PatchLoadError) Unwrap() error {
	return e.Err
}

// TaskFailure is returned when task panics on the render goroutine.
type TaskFailure struct {
	Value interface{}
}

func (e *TaskFailure) Error() string {
	return fmt.Sprintf("task failed: %v", e.Value)
}

// Unwrap returns the panic value if it's an error.
func (e *TaskFailure) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}
	return nil
}

package pdnode

import (
	"fmt"
	"time"
)

// Option provides a way to set functional parameters to node.
type Option func(*Node) error

// WithLogger sets logger to node. By default node is silent.
func WithLogger(l Logger) Option {
	return func(n *Node) error {
		if l == nil {
			return fmt.Errorf("nil logger")
		}
		n.logger = l
		return nil
	}
}

// WithName sets name to node. It's used in logs and metrics.
func WithName(name string) Option {
	return func(n *Node) error {
		n.name = name
		return nil
	}
}

// WithCommandCapacity sets the size of the command queue.
func WithCommandCapacity(capacity int) Option {
	return func(n *Node) error {
		if capacity <= 0 {
			return fmt.Errorf("command capacity %d must be positive", capacity)
		}
		n.commandCapacity = capacity
		return nil
	}
}

// WithEventCapacity sets the size of the event queue.
func WithEventCapacity(capacity int) Option {
	return func(n *Node) error {
		if capacity <= 0 {
			return fmt.Errorf("event capacity %d must be positive", capacity)
		}
		n.eventCapacity = capacity
		return nil
	}
}

// WithStreamCapacity sets the size of the lossy stream queue.
func WithStreamCapacity(capacity int) Option {
	return func(n *Node) error {
		if capacity <= 0 {
			return fmt.Errorf("stream capacity %d must be positive", capacity)
		}
		n.streamCapacity = capacity
		return nil
	}
}

// WithMaxCommandsPerBlock limits the number of commands applied before
// each block. Zero means all commands queued at the start of the block.
func WithMaxCommandsPerBlock(max int) Option {
	return func(n *Node) error {
		if max < 0 {
			return fmt.Errorf("max commands per block %d is negative", max)
		}
		n.maxCommands = max
		return nil
	}
}

// WithPushTimeout makes control calls wait up to d for a free command slot
// instead of failing immediately with ErrQueueFull.
func WithPushTimeout(d time.Duration) Option {
	return func(n *Node) error {
		if d < 0 {
			return fmt.Errorf("push timeout %v is negative", d)
		}
		n.pushTimeout = d
		return nil
	}
}

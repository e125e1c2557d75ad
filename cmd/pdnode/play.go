package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/pipelined/pdnode"
	"github.com/pipelined/pdnode/engine/loopback"
	"github.com/pipelined/pdnode/host/portaudio"
)

type playCommand struct {
	formatFlags
	input bool
}

// Implement command interface
func (cmd *playCommand) Name() string {
	return "play"
}

func (cmd *playCommand) Help() string {
	return "Play patch in real time with default audio device"
}

func (cmd *playCommand) Register(fs *flag.FlagSet) {
	cmd.formatFlags.register(fs)
	fs.BoolVar(&cmd.input, "input", false, "pass default input device signal to the patch")
}

func (cmd *playCommand) Run() error {
	if err := cmd.formatFlags.validate(); err != nil {
		return err
	}
	format := cmd.format()
	n, err := pdnode.New(loopback.New(), pdnode.WithLogger(logger), pdnode.WithName(filepath.Base(cmd.patch)))
	if err != nil {
		return err
	}
	if err := prepare(n, cmd.patch, cmd.sends); err != nil {
		return err
	}
	initialized, err := n.Initialize(format)
	if err != nil {
		return err
	}

	h := portaudio.New(n, format, cmd.input)
	if err := h.Start(); err != nil {
		return err
	}
	if _, err := initialized.AwaitTimeout(time.Second); err != nil {
		h.Stop()
		return err
	}
	logger.Info(fmt.Sprintf("playing %s with %v", cmd.patch, format))

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt)
	defer signal.Stop(interrupt)
	done := time.After(time.Duration(cmd.seconds * float64(time.Second)))
	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()
	receiver := eventLogger()
loop:
	for {
		select {
		case <-ticker.C:
			n.DrainEvents(receiver)
		case <-interrupt:
			break loop
		case <-done:
			break loop
		}
	}

	stopped, err := n.Uninitialize()
	if err == nil {
		_, err = stopped.AwaitTimeout(time.Second)
	}
	if stopErr := h.Stop(); err == nil {
		err = stopErr
	}
	n.DrainEvents(receiver)
	if err != nil {
		return err
	}
	return n.Close()
}

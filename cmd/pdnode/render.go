package main

import (
	"context"
	"flag"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/pipelined/pdnode"
	"github.com/pipelined/pdnode/engine/loopback"
	"github.com/pipelined/pdnode/event"
	"github.com/pipelined/pdnode/host"
	"github.com/pipelined/pdnode/host/mp3"
	"github.com/pipelined/pdnode/host/wav"
	"github.com/pipelined/pdnode/metric"
)

type renderCommand struct {
	formatFlags
	in       string
	out      string
	bitDepth int
	bitRate  int
	quality  int
}

// Implement command interface
func (cmd *renderCommand) Name() string {
	return "render"
}

func (cmd *renderCommand) Help() string {
	return "Render patch offline into wav or mp3 file"
}

func (cmd *renderCommand) Register(fs *flag.FlagSet) {
	cmd.formatFlags.register(fs)
	fs.StringVar(&cmd.in, "in", "", "input wav file, silence is rendered if empty")
	fs.StringVar(&cmd.out, "out", "", "output .wav or .mp3 file (required)")
	fs.IntVar(&cmd.bitDepth, "bitdepth", 16, "wav output bit depth")
	fs.IntVar(&cmd.bitRate, "bitrate", 192, "mp3 output bit rate")
	fs.IntVar(&cmd.quality, "quality", 2, "mp3 encoder quality")
}

func (cmd *renderCommand) Validate() error {
	if err := cmd.formatFlags.validate(); err != nil {
		return err
	}
	switch strings.ToLower(filepath.Ext(cmd.out)) {
	case ".wav", ".mp3":
		return nil
	case "":
		return fmt.Errorf("missing -out required flag")
	}
	return fmt.Errorf("unsupported output %s", cmd.out)
}

func (cmd *renderCommand) Run() error {
	if err := cmd.Validate(); err != nil {
		return err
	}
	format := cmd.format()

	var src host.Source
	if cmd.in != "" {
		in, err := wav.Open(cmd.in)
		if err != nil {
			return err
		}
		defer in.Close()
		format.Channels = in.Channels()
		format.SampleRate = in.SampleRate()
		src = in
	} else {
		src = host.NewSilence(int(cmd.seconds * float64(format.SampleRate)))
	}

	sink, err := cmd.sink(format)
	if err != nil {
		return err
	}

	n, err := pdnode.New(loopback.New(), pdnode.WithLogger(logger), pdnode.WithName(filepath.Base(cmd.patch)))
	if err != nil {
		sink.Close()
		return err
	}
	if err := prepare(n, cmd.patch, cmd.sends); err != nil {
		sink.Close()
		return err
	}
	logger.Info(fmt.Sprintf("rendering %s to %s with %v", cmd.patch, cmd.out, format))
	err = host.Render(context.Background(), n, format, src, sink, eventLogger())
	if closeErr := sink.Close(); err == nil {
		err = closeErr
	}
	if closeErr := n.Close(); err == nil {
		err = closeErr
	}
	logger.Info(fmt.Sprintf("%v: %+v", n, metric.Get(loopback.Engine{})))
	return err
}

type sinkCloser interface {
	host.Sink
	Close() error
}

func (cmd *renderCommand) sink(format pdnode.Format) (sinkCloser, error) {
	if strings.ToLower(filepath.Ext(cmd.out)) == ".mp3" {
		return mp3.Create(cmd.out, format.SampleRate, format.Channels, cmd.bitRate, cmd.quality)
	}
	return wav.Create(cmd.out, format.SampleRate, format.Channels, cmd.bitDepth)
}

// prepare queues patch load and messages. They are applied with the first
// block.
func prepare(n *pdnode.Node, patch string, values []string) error {
	if _, err := n.LoadPatch(pdnode.FileSource(patch)); err != nil {
		return err
	}
	sends, err := parseSends(values)
	if err != nil {
		return err
	}
	for _, s := range sends {
		if err := s.apply(n); err != nil {
			return err
		}
	}
	return nil
}

// eventLogger logs engine events at debug level.
func eventLogger() event.Receiver {
	return event.Funcs{
		Bang: func(address string) {
			logger.Debug(fmt.Sprintf("bang %s", address))
		},
		Float: func(address string, value float32) {
			logger.Debug(fmt.Sprintf("float %s %v", address, value))
		},
		Symbol: func(address, symbol string) {
			logger.Debug(fmt.Sprintf("symbol %s %s", address, symbol))
		},
		NoteOn: func(channel, pitch, velocity int) {
			logger.Debug(fmt.Sprintf("noteon %d %d %d", channel, pitch, velocity))
		},
	}
}

package main

import (
	"flag"
	"fmt"
	"strconv"
	"strings"

	"github.com/pipelined/pdnode"
)

// stringList is a semicolon separated flag value. Repeated flags are
// appended.
type stringList []string

func (l *stringList) String() string {
	return strings.Join(*l, ";")
}

func (l *stringList) Set(value string) error {
	for _, v := range strings.Split(value, ";") {
		if v = strings.TrimSpace(v); v != "" {
			*l = append(*l, v)
		}
	}
	return nil
}

// formatFlags are shared by commands that render.
type formatFlags struct {
	patch    string
	channels int
	rate     int
	frames   int
	seconds  float64
	sends    stringList
}

func (f *formatFlags) register(fs *flag.FlagSet) {
	fs.StringVar(&f.patch, "patch", "", "patch file to load (required)")
	fs.IntVar(&f.channels, "channels", pdnode.DefaultChannels, "number of channels")
	fs.IntVar(&f.rate, "rate", 44100, "sample rate")
	fs.IntVar(&f.frames, "frames", 512, "frames per block")
	fs.Float64Var(&f.seconds, "duration", 5, "duration in seconds")
	fs.Var(&f.sends, "send", "semicolon separated messages sent after patch is loaded: address=bang, address=1.5 or address=symbol")
}

func (f *formatFlags) format() pdnode.Format {
	return pdnode.Format{
		Channels:       f.channels,
		SampleRate:     f.rate,
		FramesPerBlock: f.frames,
	}
}

func (f *formatFlags) validate() error {
	var message string
	if f.patch == "" {
		message += "missing -patch required flag\n"
	}
	if f.seconds <= 0 {
		message += fmt.Sprintf("invalid -duration %v\n", f.seconds)
	}
	if _, err := parseSends(f.sends); err != nil {
		message += err.Error() + "\n"
	}
	if message != "" {
		return fmt.Errorf("%s", message)
	}
	return nil
}

// send is a single message for the node.
type send struct {
	address string
	value   string
}

func parseSends(values []string) ([]send, error) {
	sends := make([]send, 0, len(values))
	for _, v := range values {
		address, value, ok := strings.Cut(v, "=")
		if !ok || address == "" || value == "" {
			return nil, fmt.Errorf("invalid -send %q, expected address=value", v)
		}
		sends = append(sends, send{address: address, value: value})
	}
	return sends, nil
}

func (s send) apply(n *pdnode.Node) error {
	if s.value == "bang" {
		return n.SendBang(s.address)
	}
	if f, err := strconv.ParseFloat(s.value, 32); err == nil {
		return n.SendFloat(s.address, float32(f))
	}
	return n.SendSymbol(s.address, s.value)
}

package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/pipelined/pdnode/log"
)

type config struct {
	args   []string
	output io.Writer
}

type command interface {
	Name() string
	Help() string
	Run() error
	Register(*flag.FlagSet)
}

func (config *config) run() int {
	out := config.output
	if out == nil {
		out = os.Stdout
	}
	cmdName, args := parseArgs(config.args)
	switch cmdName {
	case "":
		printUsage(out)
		return errorExitCode
	case "help":
		return printHelp(out, args)
	}

	cmd := find(cmdName)
	if cmd == nil {
		fmt.Fprintf(out, "pdnode: unknown command %q\n\n", cmdName)
		printUsage(out)
		return errorExitCode
	}
	flags := newFlagSet(out, cmd)
	if err := flags.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return successExitCode
		}
		return errorExitCode
	}
	if err := cmd.Run(); err != nil {
		logger.Error(fmt.Sprintf("%s failed: %v", cmdName, err))
		return errorExitCode
	}
	return successExitCode
}

var (
	successExitCode = 0
	errorExitCode   = 1
	commands        = []command{&renderCommand{}, &playCommand{}}
	logger          = log.GetLogger()
)

func main() {
	c := config{
		args: os.Args,
	}
	os.Exit(c.run())
}

func parseArgs(args []string) (string, []string) {
	if len(args) < 2 {
		return "", nil
	}
	return args[1], args[2:]
}

func find(name string) command {
	for _, cmd := range commands {
		if cmd.Name() == name {
			return cmd
		}
	}
	return nil
}

// newFlagSet registers command flags. Usage is printed on parse errors.
func newFlagSet(out io.Writer, cmd command) *flag.FlagSet {
	flags := flag.NewFlagSet(cmd.Name(), flag.ContinueOnError)
	flags.SetOutput(out)
	cmd.Register(flags)
	flags.Usage = func() {
		fmt.Fprintf(out, "%s\n\nUsage: pdnode %s [flags]\n\nFlags:\n", cmd.Help(), cmd.Name())
		flags.PrintDefaults()
	}
	return flags
}

// printHelp prints flags of the named command or general usage.
func printHelp(out io.Writer, args []string) int {
	if len(args) == 0 {
		printUsage(out)
		return successExitCode
	}
	cmd := find(args[0])
	if cmd == nil {
		fmt.Fprintf(out, "pdnode: unknown help topic %q\n\n", args[0])
		printUsage(out)
		return errorExitCode
	}
	newFlagSet(out, cmd).Usage()
	return successExitCode
}

func printUsage(out io.Writer) {
	fmt.Fprintln(out, "pdnode runs patches in an embedded engine, offline or on the sound card")
	fmt.Fprintln(out)
	fmt.Fprintln(out, "Usage: pdnode <command> [flags]")
	fmt.Fprintln(out)
	fmt.Fprintln(out, "Commands:")
	for _, cmd := range commands {
		fmt.Fprintf(out, "\t%s\t%s\n", cmd.Name(), cmd.Help())
	}
	fmt.Fprintln(out)
	fmt.Fprintln(out, "Run 'pdnode help <command>' for the command flags.")
}

// Package log provides the default logger of pdnode binaries.
package log

import (
	"os"
	"strconv"

	"github.com/sirupsen/logrus"
)

var debug bool

// Logger is a global interface for pdnode loggers.
type Logger interface {
	Debug(...interface{})
	Info(...interface{})
	Error(...interface{})
}

func init() {
	var err error
	debug, err = strconv.ParseBool(os.Getenv("PDNODE_DEBUG"))
	if err != nil {
		debug = false
	}
}

// GetLogger returns a new logger instance. Debug level is enabled when
// PDNODE_DEBUG environment variable is true.
func GetLogger() *logrus.Logger {
	l := logrus.New()
	if debug {
		l.SetLevel(logrus.DebugLevel)
	}
	return l
}

// Silent returns a logger that discards everything.
func Silent() Logger {
	return silent{}
}

type silent struct{}

func (silent) Debug(...interface{}) {}
func (silent) Info(...interface{})  {}
func (silent) Error(...interface{}) {}

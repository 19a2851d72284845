package framework

import (
	"io"
	"log"
)

// Logger is the minimal logging interface used throughout tezt. It is satisfied by the
// standard *log.Logger and by capture.Console.
type Logger interface {
	Println(args ...interface{})
	Printf(message string, args ...interface{})
}

type nullLogger struct{}

func (n nullLogger) Println(args ...interface{})                {}
func (n nullLogger) Printf(message string, args ...interface{}) {}

// NullLogger returns a Logger that discards everything.
func NullLogger() Logger { return nullLogger{} }

// NewDebugLogger returns a Logger that writes timestamped lines to w, or a NullLogger if
// w is nil.
func NewDebugLogger(w io.Writer) Logger {
	if w == nil {
		return NullLogger()
	}
	return log.New(w, "", log.LstdFlags)
}

type prefixedLogger struct {
	base   Logger
	prefix string
}

// LoggerWithPrefix returns a Logger that adds a prefix to every message.
func LoggerWithPrefix(baseLogger Logger, prefix string) Logger {
	return prefixedLogger{baseLogger, prefix}
}

func (p prefixedLogger) Println(args ...interface{}) {
	p.base.Println(append([]interface{}{p.prefix}, args...)...)
}

func (p prefixedLogger) Printf(message string, args ...interface{}) {
	p.base.Printf(p.prefix+message, args...)
}

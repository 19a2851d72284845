package capture

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/launchdarkly/tezt/framework/location"
)

// Console is the redirection target for output written by test bodies and hooks. It
// holds a stack of capture scopes: each write goes to the Buffer of the innermost scope,
// or to the fallback writer when no scope is installed.
//
// A Console is shared by a whole test run. The executor installs a scope around every
// hook and case body with Push and restores the previous target on every exit path.
type Console struct {
	scopes   []*Buffer
	fallback io.Writer
	echo     io.Writer
	now      func() time.Time
	lock     sync.Mutex
}

// ConsoleOption configures a Console.
type ConsoleOption func(*Console)

// WithEcho makes the Console also write each captured line to w as it arrives. A nil
// writer disables echoing.
func WithEcho(w io.Writer) ConsoleOption {
	return func(c *Console) { c.echo = w }
}

// WithFallback sets where output goes when no capture scope is installed. The default is
// os.Stdout.
func WithFallback(w io.Writer) ConsoleOption {
	return func(c *Console) {
		if w != nil {
			c.fallback = w
		}
	}
}

// WithClock overrides the time source used to stamp lines.
func WithClock(now func() time.Time) ConsoleOption {
	return func(c *Console) {
		if now != nil {
			c.now = now
		}
	}
}

// NewConsole creates a Console with no scopes installed.
func NewConsole(options ...ConsoleOption) *Console {
	c := &Console{fallback: os.Stdout, now: time.Now}
	for _, o := range options {
		o(c)
	}
	return c
}

// Push installs buf as the innermost capture scope. The returned function restores the
// stack to the state it had before this call, discarding this scope and any scopes pushed
// after it, so nested scopes always unwind in reverse order of installation. Calling it
// more than once is harmless.
func (c *Console) Push(buf *Buffer) (restore func()) {
	c.lock.Lock()
	depth := len(c.scopes)
	c.scopes = append(c.scopes, buf)
	c.lock.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			c.lock.Lock()
			if len(c.scopes) > depth {
				c.scopes = c.scopes[:depth]
			}
			c.lock.Unlock()
		})
	}
}

// Depth returns the number of capture scopes currently installed.
func (c *Console) Depth() int {
	c.lock.Lock()
	defer c.lock.Unlock()
	return len(c.scopes)
}

// Output records a message. Calldepth is the number of stack frames to skip when
// determining the location of the message; a value of 1 uses the caller of Output.
func (c *Console) Output(stream Stream, calldepth int, message string) {
	line := Line{
		Time:     c.now(),
		Stream:   stream,
		Message:  message,
		Location: location.Caller(calldepth),
	}

	c.lock.Lock()
	var target *Buffer
	if len(c.scopes) > 0 {
		target = c.scopes[len(c.scopes)-1]
	}
	fallback, echo := c.fallback, c.echo
	c.lock.Unlock()

	if target == nil {
		_, _ = fmt.Fprintln(fallback, message)
		return
	}
	target.append(line)
	if echo != nil {
		_, _ = fmt.Fprintln(echo, message)
	}
}

// Log writes an informational message, formatting its arguments like fmt.Println.
func (c *Console) Log(args ...interface{}) {
	c.Output(Log, 2, sprintln(args...))
}

// Logf writes an informational message, formatting its arguments like fmt.Printf.
func (c *Console) Logf(format string, args ...interface{}) {
	c.Output(Log, 2, fmt.Sprintf(format, args...))
}

// Warn writes a warning.
func (c *Console) Warn(args ...interface{}) {
	c.Output(Warn, 2, sprintln(args...))
}

// Warnf writes a formatted warning.
func (c *Console) Warnf(format string, args ...interface{}) {
	c.Output(Warn, 2, fmt.Sprintf(format, args...))
}

// Error writes an error message. It does not fail the current test.
func (c *Console) Error(args ...interface{}) {
	c.Output(Error, 2, sprintln(args...))
}

// Errorf writes a formatted error message. It does not fail the current test.
func (c *Console) Errorf(format string, args ...interface{}) {
	c.Output(Error, 2, fmt.Sprintf(format, args...))
}

// Println is the same as Log; it makes Console a framework.Logger.
func (c *Console) Println(args ...interface{}) {
	c.Output(Log, 2, sprintln(args...))
}

// Printf is the same as Logf; it makes Console a framework.Logger.
func (c *Console) Printf(format string, args ...interface{}) {
	c.Output(Log, 2, fmt.Sprintf(format, args...))
}

func sprintln(args ...interface{}) string {
	return strings.TrimRight(fmt.Sprintln(args...), "\r\n") // Sprintln appends a newline
}

type contextKey struct{}

var defaultConsole = NewConsole() //nolint:gochecknoglobals

// NewContext returns a copy of ctx that carries the Console.
func NewContext(ctx context.Context, c *Console) context.Context {
	return context.WithValue(ctx, contextKey{}, c)
}

// FromContext returns the Console carried by ctx. If there is none, it returns a Console
// that writes directly to standard output.
func FromContext(ctx context.Context) *Console {
	if ctx != nil {
		if c, ok := ctx.Value(contextKey{}).(*Console); ok && c != nil {
			return c
		}
	}
	return defaultConsole
}

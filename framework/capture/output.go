package capture

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/launchdarkly/tezt/framework/location"
)

const timestampFormat = "2006-01-02 15:04:05.000"

// Stream identifies which kind of console call produced a line.
type Stream int

const (
	// Log is ordinary informational output.
	Log Stream = iota
	// Warn is warning output.
	Warn
	// Error is error output.
	Error
)

func (s Stream) String() string {
	switch s {
	case Log:
		return "log"
	case Warn:
		return "warn"
	case Error:
		return "error"
	default:
		return fmt.Sprintf("Stream(%d)", int(s))
	}
}

// MarshalText lets Stream values appear by name in JSON and YAML documents.
func (s Stream) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Line is one captured console message.
type Line struct {
	Time     time.Time         `json:"time" yaml:"time"`
	Stream   Stream            `json:"stream" yaml:"stream"`
	Message  string            `json:"message" yaml:"message"`
	Location location.Location `json:"location" yaml:"location"`
}

// Output is an ordered sequence of captured lines.
type Output []Line

// ToString renders the output one line per message, each starting with prefix.
func (output Output) ToString(prefix string) string {
	var sb strings.Builder
	for i, m := range output {
		if i > 0 {
			sb.WriteString("\n")
		}
		fmt.Fprintf(&sb, "%s[%s] %s", prefix, m.Time.Format(timestampFormat), m.Message)
	}
	return sb.String()
}

// Filter returns only the lines written to the given stream.
func (output Output) Filter(stream Stream) Output {
	var ret Output
	for _, m := range output {
		if m.Stream == stream {
			ret = append(ret, m)
		}
	}
	return ret
}

// Buffer accumulates captured lines. It is safe for concurrent use, so goroutines started
// by a test body can keep logging after the body has returned.
type Buffer struct {
	lines Output
	lock  sync.Mutex
}

// NewBuffer creates an empty Buffer.
func NewBuffer() *Buffer {
	return &Buffer{}
}

func (b *Buffer) append(line Line) {
	b.lock.Lock()
	b.lines = append(b.lines, line)
	b.lock.Unlock()
}

// Output returns a copy of everything captured so far.
func (b *Buffer) Output() Output {
	b.lock.Lock()
	defer b.lock.Unlock()
	return append(Output(nil), b.lines...)
}

// Len returns the number of captured lines.
func (b *Buffer) Len() int {
	b.lock.Lock()
	defer b.lock.Unlock()
	return len(b.lines)
}

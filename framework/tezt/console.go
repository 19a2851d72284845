package tezt

import (
	"context"
	"fmt"
	"strings"

	"github.com/launchdarkly/tezt/framework/capture"
)

// Log writes a message to the output of the hook or case that is currently running,
// formatting its arguments like fmt.Println.
func Log(ctx context.Context, args ...interface{}) {
	capture.FromContext(ctx).Output(capture.Log, 2, sprintln(args...))
}

// Logf is like Log but formats like fmt.Printf.
func Logf(ctx context.Context, format string, args ...interface{}) {
	capture.FromContext(ctx).Output(capture.Log, 2, fmt.Sprintf(format, args...))
}

// Warn writes a warning to the output of the current hook or case.
func Warn(ctx context.Context, args ...interface{}) {
	capture.FromContext(ctx).Output(capture.Warn, 2, sprintln(args...))
}

// Warnf is like Warn but formats like fmt.Printf.
func Warnf(ctx context.Context, format string, args ...interface{}) {
	capture.FromContext(ctx).Output(capture.Warn, 2, fmt.Sprintf(format, args...))
}

// Error writes an error message to the output of the current hook or case. It does not
// make the case fail; return an error for that.
func Error(ctx context.Context, args ...interface{}) {
	capture.FromContext(ctx).Output(capture.Error, 2, sprintln(args...))
}

// Errorf is like Error but formats like fmt.Printf.
func Errorf(ctx context.Context, format string, args ...interface{}) {
	capture.FromContext(ctx).Output(capture.Error, 2, fmt.Sprintf(format, args...))
}

func sprintln(args ...interface{}) string {
	return strings.TrimRight(fmt.Sprintln(args...), "\r\n")
}

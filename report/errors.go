package report

import (
	"errors"
	"fmt"
	"strings"

	"github.com/launchdarkly/tezt/framework/location"
	"github.com/launchdarkly/tezt/framework/tezt"
)

// describeError renders an error for people: its message, then where an assertion failed
// or the stack of a panic. Joined errors are described one after another.
func describeError(err error, base string) []string {
	if err == nil {
		return nil
	}
	if joined, ok := err.(interface{ Unwrap() []error }); ok { //nolint:errorlint
		var lines []string
		for _, e := range joined.Unwrap() {
			lines = append(lines, describeError(e, base)...)
		}
		return lines
	}
	lines := strings.Split(err.Error(), "\n")
	var ae *tezt.AssertionError
	if errors.As(err, &ae) && ae.Location.IsKnown() {
		lines = append(lines, "  at "+ae.Location.Rel(base))
	}
	var pe *tezt.PanicError
	if errors.As(err, &pe) && len(pe.Stacktrace) != 0 {
		lines = append(lines, "  Stacktrace:")
		for _, l := range pe.Stacktrace {
			_, fn := location.SplitFunctionName(l.Function)
			lines = append(lines, fmt.Sprintf("    %s (%s)", fn, l.Rel(base)))
		}
	}
	return lines
}

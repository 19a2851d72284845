package tezt

import (
	"fmt"
	"strings"

	"github.com/launchdarkly/tezt/framework/location"
)

// Phase identifies which part of the execution of a group or case was running.
type Phase int

const (
	PhaseBefore Phase = iota
	PhaseBeforeEach
	PhaseBody
	PhaseAfterEach
	PhaseAfter
)

func (p Phase) String() string {
	switch p {
	case PhaseBefore:
		return "before"
	case PhaseBeforeEach:
		return "beforeEach"
	case PhaseBody:
		return "body"
	case PhaseAfterEach:
		return "afterEach"
	case PhaseAfter:
		return "after"
	default:
		return fmt.Sprintf("Phase(%d)", int(p))
	}
}

// MarshalText lets Phase values appear by name in JSON and YAML documents.
func (p Phase) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// HookError records a failed before or after hook of a group.
type HookError struct {
	Group NodePath
	Phase Phase
	// Index is the position of the hook among the group's hooks of the same kind.
	Index int
	Err   error
}

func (e *HookError) Error() string {
	return fmt.Sprintf("%s hook #%d of [%s] failed: %s", e.Phase, e.Index+1, e.Group, e.Err)
}

func (e *HookError) Unwrap() error { return e.Err }

// PanicError is the failure recorded when a case body or hook panics.
type PanicError struct {
	Value interface{}
	// Stacktrace starts at the panic site and ends at the body or hook that panicked.
	Stacktrace []location.Location
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("panic: %v", e.Value)
}

// Unwrap returns the panic value if it was an error.
func (e *PanicError) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}
	return nil
}

// StacktraceString renders the stack one frame per line.
func (e *PanicError) StacktraceString() string {
	lines := make([]string, 0, len(e.Stacktrace))
	for _, l := range e.Stacktrace {
		_, fn := location.SplitFunctionName(l.Function)
		lines = append(lines, fmt.Sprintf("%s (%s)", fn, l))
	}
	return strings.Join(lines, "\n")
}

var currentPackage = location.CurrentPackage() //nolint:gochecknoglobals

// panicStacktrace is called from the deferred recover in invoke. The raw stack at that
// point is: this function, the deferred closure, the runtime's panic machinery, the
// frames that panicked, then invoke and the executor. Only the frames that panicked are
// kept. If a deferred function re-panicked, the frames of the first panic are used.
func panicStacktrace() []location.Location {
	stack := location.Stack(1)
	start := 0
	for i, l := range stack {
		if l.Function == "runtime.gopanic" {
			start = i + 1
		}
	}
	var ret []location.Location
	for _, l := range stack[start:] {
		pkg, fn := location.SplitFunctionName(l.Function)
		if pkg == currentPackage && strings.HasPrefix(fn, "(*executor).invoke") {
			break
		}
		if len(ret) == 0 && isRuntimePackage(pkg) {
			continue // e.g. runtime.panicmem before the faulting frame
		}
		ret = append(ret, l)
	}
	return ret
}

func isRuntimePackage(pkg string) bool {
	return pkg == "runtime" || strings.HasPrefix(pkg, "runtime/") || strings.HasPrefix(pkg, "internal/runtime/")
}

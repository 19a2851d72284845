// Package location resolves the source position of a call site. It is used to attach a
// file and line to every registered group and case, to every line of captured output, and
// to the stacktraces of recovered panics.
//
// Nothing in this package panics. When the stack cannot be read, an unknown (zero)
// Location is returned instead.
package location

import (
	"fmt"
	"path/filepath"
	"runtime"
	"strings"
)

const maxStackDepth = 64

// Location is a position in a source file.
type Location struct {
	File     string `json:"file,omitempty" yaml:"file,omitempty"`
	Line     int    `json:"line,omitempty" yaml:"line,omitempty"`
	Function string `json:"function,omitempty" yaml:"function,omitempty"`
}

// Unknown returns the placeholder used when a location could not be determined.
func Unknown() Location { return Location{} }

// IsKnown returns true if the location has a file name.
func (l Location) IsKnown() bool {
	return l.File != ""
}

// String returns "file:line", or "<unknown>".
func (l Location) String() string {
	if !l.IsKnown() {
		return "<unknown>"
	}
	return fmt.Sprintf("%s:%d", l.File, l.Line)
}

// Rel is like String but makes the file path relative to base when possible.
func (l Location) Rel(base string) string {
	if !l.IsKnown() || base == "" {
		return l.String()
	}
	rel, err := filepath.Rel(base, l.File)
	if err != nil || strings.HasPrefix(rel, "..") {
		return l.String()
	}
	return fmt.Sprintf("./%s:%d", filepath.ToSlash(rel), l.Line)
}

// Package returns the import path of the package containing Function, if known.
func (l Location) Package() string {
	pkg, _ := SplitFunctionName(l.Function)
	return pkg
}

// Caller returns the location of a frame on the calling goroutine's stack. A skip of 0
// means the function that called Caller, 1 means its caller, and so on.
func Caller(skip int) Location {
	pcs := make([]uintptr, 1)
	if runtime.Callers(skip+2, pcs) == 0 { // 0 is runtime.Callers, 1 is Caller itself
		return Unknown()
	}
	frame, _ := runtime.CallersFrames(pcs).Next()
	return fromFrame(frame)
}

// FirstOutside returns the location of the innermost caller that is not in any of the given
// packages or their subpackages. Frames from the Go runtime are always passed over.
func FirstOutside(packagePrefixes ...string) Location {
	for _, l := range Stack(1) {
		pkg := l.Package()
		if isRuntimePackage(pkg) || hasAnyPrefix(pkg, packagePrefixes) {
			continue
		}
		return l
	}
	return Unknown()
}

// Stack returns the calling goroutine's stack, innermost first. A skip of 0 starts at the
// function that called Stack.
func Stack(skip int) []Location {
	pcs := make([]uintptr, maxStackDepth)
	n := runtime.Callers(skip+2, pcs)
	if n == 0 {
		return nil
	}
	frames := runtime.CallersFrames(pcs[:n])
	ret := make([]Location, 0, n)
	for {
		frame, more := frames.Next()
		ret = append(ret, fromFrame(frame))
		if !more {
			break
		}
	}
	return ret
}

// SplitFunctionName splits a fully qualified function name as reported by the runtime,
// such as "github.com/a/b.(*T).Run.func1", into its package path and function name.
func SplitFunctionName(fullName string) (string, string) {
	if fullName == "" {
		return "", ""
	}
	lastSlash := strings.LastIndex(fullName, "/")
	firstDotAfterSlash := strings.Index(fullName[lastSlash+1:], ".")
	if firstDotAfterSlash < 0 {
		return fullName, ""
	}
	packageName := fullName[0 : lastSlash+firstDotAfterSlash+1]
	return packageName, fullName[len(packageName)+1:]
}

// CurrentPackage returns the package path of the function that called it.
func CurrentPackage() string {
	pkg, _ := SplitFunctionName(Caller(1).Function)
	if pkg == "" {
		return "?"
	}
	return pkg
}

func fromFrame(frame runtime.Frame) Location {
	if frame.File == "" {
		return Location{Function: frame.Function}
	}
	return Location{File: frame.File, Line: frame.Line, Function: frame.Function}
}

func isRuntimePackage(pkg string) bool {
	return pkg == "runtime" || strings.HasPrefix(pkg, "runtime/")
}

func hasAnyPrefix(s string, prefixes []string) bool {
	for _, p := range prefixes {
		if p != "" && (s == p || strings.HasPrefix(s, p+"/")) {
			return true
		}
	}
	return false
}

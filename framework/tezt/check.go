package tezt

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"runtime"
	"strings"
	"sync"

	"golang.org/x/exp/slices"

	"github.com/launchdarkly/tezt/framework/capture"
	"github.com/launchdarkly/tezt/framework/location"
)

// T lets assertion helpers written for testing.T, such as the testify assert and require
// packages, be used in a case body or hook. It is created by Check.
//
// Errorf marks the check as failed and keeps going; FailNow stops the check immediately.
type T struct {
	ctx       context.Context
	errors    []error
	cleanups  []func()
	helperFns []string
	lock      sync.Mutex
}

// AssertionError is a failure reported through T.Errorf.
type AssertionError struct {
	Message string
	// Location is the line in the check function where the failing assertion was made.
	Location location.Location
}

func (e *AssertionError) Error() string { return e.Message }

var errorTraceInMessageRegex = regexp.MustCompile(`^(?s:\s*Error Trace:.*\sError:\s*)`) //nolint:gochecknoglobals

// Check turns a function using T into an Action. The Action fails with every error
// reported through the T, or with the single error if there was only one.
//
//	b.Test("adds", tezt.Check(func(t *tezt.T) {
//		assert.Equal(t, 4, add(2, 2))
//	}))
func Check(fn func(t *T)) Action {
	return func(ctx context.Context) (err error) {
		t := &T{ctx: ctx}
		defer func() {
			r := recover()
			t.runCleanups()
			if r != nil && r != t { //nolint:errorlint
				panic(r)
			}
			err = t.Err()
		}()
		fn(t)
		return nil
	}
}

// Context returns the context the case is running with.
func (t *T) Context() context.Context {
	return t.ctx
}

// Errorf reports a failure without stopping the check. Messages from testify have their
// own "Error Trace" section removed, since the failure's location is recorded separately.
func (t *T) Errorf(format string, args ...interface{}) {
	message := fmt.Sprintf(format, args...)
	if strings.Contains(message, "Error Trace:") {
		message = errorTraceInMessageRegex.ReplaceAllLiteralString(message, "")
	}
	t.lock.Lock()
	defer t.lock.Unlock()
	t.errors = append(t.errors, &AssertionError{
		Message:  strings.TrimSpace(message),
		Location: t.failureLocation(),
	})
}

// FailNow stops the check. It must be called from the goroutine running the check.
func (t *T) FailNow() {
	t.lock.Lock()
	if len(t.errors) == 0 {
		t.errors = append(t.errors, &AssertionError{Message: "check failed", Location: t.failureLocation()})
	}
	t.lock.Unlock()
	panic(t)
}

// Fail marks the check as failed without a message.
func (t *T) Fail() {
	t.Errorf("check failed")
}

// Failed returns true if any failure has been reported.
func (t *T) Failed() bool {
	t.lock.Lock()
	defer t.lock.Unlock()
	return len(t.errors) != 0
}

// Helper marks the calling function as a helper, so it is passed over when finding the
// location of a failure.
func (t *T) Helper() {
	pc, _, _, ok := runtime.Caller(1)
	if !ok {
		return
	}
	if f := runtime.FuncForPC(pc); f != nil {
		t.lock.Lock()
		t.helperFns = append(t.helperFns, f.Name())
		t.lock.Unlock()
	}
}

// Defer schedules fn to run when the check finishes, however it finishes. Deferred
// functions run in reverse order.
func (t *T) Defer(fn func()) {
	t.lock.Lock()
	t.cleanups = append(t.cleanups, fn)
	t.lock.Unlock()
}

// Logf writes to the output of the running case.
func (t *T) Logf(format string, args ...interface{}) {
	capture.FromContext(t.ctx).Output(capture.Log, 2, fmt.Sprintf(format, args...))
}

// Err returns nil if nothing failed, otherwise the reported failures.
func (t *T) Err() error {
	t.lock.Lock()
	defer t.lock.Unlock()
	switch len(t.errors) {
	case 0:
		return nil
	case 1:
		return t.errors[0]
	default:
		return errors.Join(t.errors...)
	}
}

func (t *T) runCleanups() {
	t.lock.Lock()
	cleanups := t.cleanups
	t.cleanups = nil
	t.lock.Unlock()
	for i := len(cleanups) - 1; i >= 0; i-- {
		cleanups[i]()
	}
}

// failureLocation is called with t.lock held.
func (t *T) failureLocation() location.Location {
	for _, l := range location.Stack(2) {
		pkg, fn := location.SplitFunctionName(l.Function)
		switch {
		case pkg == currentPackage && strings.HasPrefix(fn, "(*T)."),
			strings.HasPrefix(pkg, "github.com/stretchr/testify/"),
			isRuntimePackage(pkg),
			slices.Contains(t.helperFns, l.Function):
			continue
		}
		return l
	}
	return location.Unknown()
}

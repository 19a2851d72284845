package helpers

import (
	"context"
	"time"
)

// TestContext is the part of *testing.T and *tezt.T used by the assertions in this package.
type TestContext interface {
	Errorf(msgFormat string, msgArgs ...interface{})
	FailNow()
}

type helperMarker interface {
	Helper()
}

// PollUntil calls condition immediately and then at each interval until it returns true,
// the timeout elapses, or ctx is done. It returns true only if the condition was met.
// Everything happens on the calling goroutine, so condition may use the test's output.
func PollUntil(ctx context.Context, condition func() bool, timeout, interval time.Duration) bool {
	if condition() {
		return true
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	deadline := time.NewTimer(timeout)
	defer deadline.Stop()
	for {
		select {
		case <-ctx.Done():
			return false
		case <-deadline.C:
			return false
		case <-ticker.C:
			if condition() {
				return true
			}
		}
	}
}

// AssertEventually is like assert.Eventually from testify but polls on the calling
// goroutine and gives up early if ctx is done.
func AssertEventually(
	ctx context.Context,
	t TestContext,
	condition func() bool,
	timeout, interval time.Duration,
	failureMsgFormat string,
	failureMsgArgs ...interface{},
) bool {
	if h, ok := t.(helperMarker); ok {
		h.Helper()
	}
	if PollUntil(ctx, condition, timeout, interval) {
		return true
	}
	t.Errorf(failureMsgFormat, failureMsgArgs...)
	return false
}

// RequireEventually is AssertEventually followed by FailNow if the condition was not met.
func RequireEventually(
	ctx context.Context,
	t TestContext,
	condition func() bool,
	timeout, interval time.Duration,
	failureMsgFormat string,
	failureMsgArgs ...interface{},
) {
	if h, ok := t.(helperMarker); ok {
		h.Helper()
	}
	if !AssertEventually(ctx, t, condition, timeout, interval, failureMsgFormat, failureMsgArgs...) {
		t.FailNow()
	}
}

// AssertNever fails if condition becomes true at any poll before the timeout.
func AssertNever(
	ctx context.Context,
	t TestContext,
	condition func() bool,
	timeout, interval time.Duration,
	failureMsgFormat string,
	failureMsgArgs ...interface{},
) bool {
	if h, ok := t.(helperMarker); ok {
		h.Helper()
	}
	if PollUntil(ctx, condition, timeout, interval) {
		t.Errorf(failureMsgFormat, failureMsgArgs...)
		return false
	}
	return true
}

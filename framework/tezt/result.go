package tezt

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/launchdarkly/tezt/framework/capture"
	"github.com/launchdarkly/tezt/framework/location"
)

// Status is the outcome of a case.
type Status int

const (
	// Passed means the case's hooks and body all completed without error.
	Passed Status = iota
	// Failed means the body or one of its beforeEach/afterEach hooks failed.
	Failed
	// Skipped means the case was excluded by skip, only, or a filter; nothing ran.
	Skipped
	// NotRun means the run was cancelled before the case started.
	NotRun
)

func (s Status) String() string {
	switch s {
	case Passed:
		return "passed"
	case Failed:
		return "failed"
	case Skipped:
		return "skipped"
	case NotRun:
		return "not run"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}

// MarshalText lets Status values appear by name in JSON and YAML documents.
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Counts holds the number of cases with each status.
type Counts struct {
	Passed  int `json:"passed" yaml:"passed"`
	Failed  int `json:"failed" yaml:"failed"`
	Skipped int `json:"skipped" yaml:"skipped"`
	NotRun  int `json:"notRun" yaml:"notRun"`
}

// Total returns the number of cases counted.
func (c Counts) Total() int {
	return c.Passed + c.Failed + c.Skipped + c.NotRun
}

// Add adds the counts from other.
func (c *Counts) Add(other Counts) {
	c.Passed += other.Passed
	c.Failed += other.Failed
	c.Skipped += other.Skipped
	c.NotRun += other.NotRun
}

func (c *Counts) record(s Status) {
	switch s {
	case Passed:
		c.Passed++
	case Failed:
		c.Failed++
	case Skipped:
		c.Skipped++
	case NotRun:
		c.NotRun++
	}
}

// Result is either a *GroupResult or a *CaseResult.
type Result interface {
	ResultName() string
	isResult()
}

// CaseResult is the outcome of one case.
type CaseResult struct {
	ID               uuid.UUID
	Name             string
	Path             NodePath
	Location         location.Location
	Depth            int
	Status           Status
	Elapsed          time.Duration
	BeforeEachOutput capture.Output
	BodyOutput       capture.Output
	AfterEachOutput  capture.Output
	// Err is set when Status is Failed. It is the error returned by the body or hook, or a
	// *PanicError.
	Err error
	// FailedPhase is the phase that produced Err.
	FailedPhase Phase
	SkipReason  string
}

// Output returns all of the case's captured output in the order it was written.
func (r *CaseResult) Output() capture.Output {
	ret := make(capture.Output, 0, len(r.BeforeEachOutput)+len(r.BodyOutput)+len(r.AfterEachOutput))
	ret = append(ret, r.BeforeEachOutput...)
	ret = append(ret, r.BodyOutput...)
	return append(ret, r.AfterEachOutput...)
}

// GroupResult is the aggregated outcome of a group.
type GroupResult struct {
	ID           uuid.UUID
	Name         string
	Path         NodePath
	Location     location.Location
	Depth        int
	Skipped      bool
	ContainsOnly bool
	Counts       Counts
	Elapsed      time.Duration
	BeforeOutput capture.Output
	AfterOutput  capture.Output
	HookErrors   []*HookError
	Children     []Result
}

func (r *CaseResult) ResultName() string  { return r.Name }
func (r *GroupResult) ResultName() string { return r.Name }

func (*CaseResult) isResult()  {}
func (*GroupResult) isResult() {}

// Cases returns every case result under the group, depth-first in registration order.
func (r *GroupResult) Cases() []*CaseResult {
	var ret []*CaseResult
	for _, child := range r.Children {
		switch c := child.(type) {
		case *GroupResult:
			ret = append(ret, c.Cases()...)
		case *CaseResult:
			ret = append(ret, c)
		}
	}
	return ret
}

// AllHookErrors returns the hook errors of the group and every group under it.
func (r *GroupResult) AllHookErrors() []*HookError {
	ret := append([]*HookError(nil), r.HookErrors...)
	for _, child := range r.Children {
		if g, ok := child.(*GroupResult); ok {
			ret = append(ret, g.AllHookErrors()...)
		}
	}
	return ret
}

// OK returns true if no case failed and no before/after hook failed.
func (r *GroupResult) OK() bool {
	return r.Counts.Failed == 0 && len(r.AllHookErrors()) == 0
}

// Stats accumulates flat statistics over a whole execution.
type Stats struct {
	Counts
	Failures     []*CaseResult
	HookFailures []*HookError
}

func (s *Stats) addCase(r *CaseResult) {
	s.record(r.Status)
	if r.Status == Failed {
		s.Failures = append(s.Failures, r)
	}
}

// OK returns true if nothing failed.
func (s *Stats) OK() bool {
	return s.Failed == 0 && len(s.HookFailures) == 0
}

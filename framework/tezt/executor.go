package tezt

import (
	"context"
	"time"

	"github.com/launchdarkly/tezt/framework"
	"github.com/launchdarkly/tezt/framework/capture"
)

// Skip reasons recorded on CaseResult.SkipReason.
const (
	SkipReasonMarked       = "marked skip"
	SkipReasonGroupSkipped = "enclosing group skipped"
	SkipReasonNotOnly      = "not marked only"
	SkipReasonFiltered     = "excluded by filter"
)

// ExecuteOptions contains options for one execution of a tree.
type ExecuteOptions struct {
	// Console receives the output of hooks and bodies. If nil, a new Console writing to
	// standard output is used.
	Console *capture.Console

	// Observer is notified as groups and cases start and finish.
	Observer Observer

	// Filter is an optional name filter applied to cases. If it is also a GroupFilter, groups
	// that cannot contain a matching case are pruned as a whole.
	Filter Filter

	// Logger receives debug messages about the walk itself.
	Logger framework.Logger
}

type executor struct {
	console  *capture.Console
	observer Observer
	filter   Filter
	logger   framework.Logger
}

// Execute runs the tree under group and returns its results. Counts and failures are
// also accumulated into stats, which may be nil.
//
// Children are processed in registration order, depth-first, one at a time. A failing
// hook or case never stops the walk: its error is recorded in the results and execution
// continues with the next sibling.
//
// The context is passed to every hook and body. If it is done before a case starts, that
// case is recorded as NotRun; nothing already running is interrupted.
func Execute(ctx context.Context, group *Group, stats *Stats, options ExecuteOptions) *GroupResult {
	e := &executor{
		console:  options.Console,
		observer: options.Observer,
		filter:   options.Filter,
		logger:   options.Logger,
	}
	if e.console == nil {
		e.console = capture.NewConsole()
	}
	if e.observer == nil {
		e.observer = NullObserver()
	}
	if e.logger == nil {
		e.logger = framework.NullLogger()
	}
	if stats == nil {
		stats = &Stats{}
	}
	ctx = capture.NewContext(ctx, e.console)
	return e.runGroup(ctx, group, stats, false, 0)
}

func (e *executor) runGroup(ctx context.Context, g *Group, stats *Stats, skipped bool, depth int) *GroupResult {
	start := time.Now()
	path := g.Path()
	filtered := e.filteredOut(path)
	skipped = skipped || filtered
	result := &GroupResult{
		ID:           g.id,
		Name:         g.name,
		Path:         path,
		Location:     g.location,
		Depth:        depth,
		Skipped:      skipped,
		ContainsOnly: g.containsOnly,
	}
	e.observer.GroupStarted(g, skipped, depth)

	// Before and after hooks only run for groups that lead to an only case, so a branch
	// that is pruned never pays for its setup.
	runHooks := g.containsOnly && !filtered

	if runHooks {
		result.BeforeOutput = e.runGroupHooks(ctx, g.before, PhaseBefore, result, stats)
	}

	for _, child := range g.children {
		switch c := child.(type) {
		case *Group:
			childSkipped := skipped ||
				(g.containsOnly && !c.containsOnly) ||
				(c.skip && !c.only)
			childResult := e.runGroup(ctx, c, stats, childSkipped, depth+1)
			result.Counts.Add(childResult.Counts)
			result.Children = append(result.Children, childResult)
		case *Case:
			caseResult := e.runCase(ctx, g, c, stats, skipped, depth+1)
			result.Counts.record(caseResult.Status)
			result.Children = append(result.Children, caseResult)
		}
	}

	if runHooks {
		result.AfterOutput = e.runGroupHooks(ctx, g.after, PhaseAfter, result, stats)
	}

	result.Elapsed = time.Since(start)
	e.observer.GroupFinished(result)
	return result
}

func (e *executor) filteredOut(group NodePath) bool {
	if len(group) == 0 {
		return false
	}
	gf, ok := e.filter.(GroupFilter)
	return ok && !gf.MayContain(group)
}

// runGroupHooks runs before or after hooks in order, stopping at the first failure.
func (e *executor) runGroupHooks(
	ctx context.Context,
	hooks []Action,
	phase Phase,
	result *GroupResult,
	stats *Stats,
) capture.Output {
	if len(hooks) == 0 {
		return nil
	}
	buf := capture.NewBuffer()
	for i, hook := range hooks {
		if err := e.invoke(ctx, buf, hook); err != nil {
			hookErr := &HookError{Group: result.Path, Phase: phase, Index: i, Err: err}
			result.HookErrors = append(result.HookErrors, hookErr)
			stats.HookFailures = append(stats.HookFailures, hookErr)
			e.logger.Printf("%s", hookErr)
			break
		}
	}
	return buf.Output()
}

func (e *executor) runCase(
	ctx context.Context,
	g *Group,
	c *Case,
	stats *Stats,
	ancestorSkipped bool,
	depth int,
) *CaseResult {
	result := &CaseResult{
		ID:       c.id,
		Name:     c.name,
		Path:     c.Path(),
		Location: c.location,
		Depth:    depth,
	}
	e.observer.CaseStarted(c, depth)

	switch {
	case e.filter != nil && !e.filter.Match(result.Path):
		result.Status = Skipped
		result.SkipReason = SkipReasonFiltered
	case !c.only && (c.skip || ancestorSkipped || g.containsOnly):
		result.Status = Skipped
		result.SkipReason = caseSkipReason(c, ancestorSkipped)
	case ctx.Err() != nil:
		result.Status = NotRun
	default:
		e.logger.Printf("running [%s]", result.Path)
		e.runCaseBody(ctx, g, c, result)
	}

	stats.addCase(result)
	e.observer.CaseFinished(result, c)
	return result
}

func caseSkipReason(c *Case, ancestorSkipped bool) string {
	switch {
	case c.skip:
		return SkipReasonMarked
	case ancestorSkipped:
		return SkipReasonGroupSkipped
	default:
		return SkipReasonNotOnly
	}
}

func (e *executor) runCaseBody(ctx context.Context, g *Group, c *Case, result *CaseResult) {
	start := time.Now()
	beforeEachBuf, bodyBuf, afterEachBuf := capture.NewBuffer(), capture.NewBuffer(), capture.NewBuffer()

	phase, err := e.runCasePhases(ctx, g, c, beforeEachBuf, bodyBuf, afterEachBuf)

	result.Elapsed = time.Since(start)
	result.BeforeEachOutput = beforeEachBuf.Output()
	result.BodyOutput = bodyBuf.Output()
	result.AfterEachOutput = afterEachBuf.Output()
	if err != nil {
		result.Status = Failed
		result.Err = err
		result.FailedPhase = phase
		e.logger.Printf("[%s] failed in %s: %s", result.Path, phase, err)
		return
	}
	result.Status = Passed
}

// runCasePhases runs beforeEach hooks, the body and afterEach hooks in that order. The
// first failure ends the case; later hooks are not run.
func (e *executor) runCasePhases(
	ctx context.Context,
	g *Group,
	c *Case,
	beforeEachBuf, bodyBuf, afterEachBuf *capture.Buffer,
) (Phase, error) {
	for _, hook := range g.beforeEach {
		if err := e.invoke(ctx, beforeEachBuf, hook); err != nil {
			return PhaseBeforeEach, err
		}
	}
	if err := e.invoke(ctx, bodyBuf, c.body); err != nil {
		return PhaseBody, err
	}
	for _, hook := range g.afterEach {
		if err := e.invoke(ctx, afterEachBuf, hook); err != nil {
			return PhaseAfterEach, err
		}
	}
	return PhaseBody, nil
}

// invoke runs one hook or body with its output redirected into buf. The previous
// redirection is restored however the action exits, and a panic is turned into a
// *PanicError.
func (e *executor) invoke(ctx context.Context, buf *capture.Buffer, action Action) (err error) {
	if action == nil {
		return nil
	}
	restore := e.console.Push(buf)
	defer restore()
	defer func() {
		if r := recover(); r != nil {
			err = &PanicError{Value: r, Stacktrace: panicStacktrace()}
		}
	}()
	return action(ctx)
}

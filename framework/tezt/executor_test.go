package tezt

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"testing"

	m "github.com/launchdarkly/go-test-helpers/v2/matchers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/launchdarkly/tezt/framework/capture"
)

func TestEveryCaseRunsOnceInOrderWhenNothingIsMarked(t *testing.T) {
	var tr trace
	b := NewBuilder()
	b.Test("1", tr.action("1"))
	b.Describe("g", func(b *Builder) {
		b.Test("2", tr.action("2"))
		b.Describe("h", func(b *Builder) {
			b.Test("3", tr.action("3"))
		})
		b.Test("4", tr.action("4"))
	})
	b.Test("5", tr.action("5"))

	result, stats := execute(b)

	m.In(t).Assert(tr.events, m.Equal([]string{"1", "2", "3", "4", "5"}))
	assert.Equal(t, Counts{Passed: 5}, result.Counts)
	assert.Equal(t, Counts{Passed: 5}, stats.Counts)
	assert.True(t, result.OK())
	assert.True(t, stats.OK())
}

func TestOnlyCaseSkipsSiblings(t *testing.T) {
	var tr trace
	b := NewBuilder()
	g := b.Describe("g", func(b *Builder) {
		b.Test("a", tr.failing("a"))
		b.TestOnly("b", tr.action("b"))
	})

	result, stats := execute(b)

	assert.True(t, g.ContainsOnly())
	assert.Equal(t, map[string]Status{"g/a": Skipped, "g/b": Passed}, statusesByName(result))
	assert.Equal(t, []string{"b"}, tr.events)
	assert.Equal(t, 0, stats.Failed)
	assert.Equal(t, SkipReasonNotOnly, result.Cases()[0].SkipReason)
}

func TestSkippedCaseNeverRuns(t *testing.T) {
	var tr trace
	b := NewBuilder()
	b.TestSkip("x", tr.failing("x"))

	result, stats := execute(b)

	require.Len(t, result.Cases(), 1)
	assert.Equal(t, Skipped, result.Cases()[0].Status)
	assert.Equal(t, SkipReasonMarked, result.Cases()[0].SkipReason)
	assert.Empty(t, tr.events)
	assert.Equal(t, 0, stats.Failed)
	assert.True(t, stats.OK())
}

func TestDescribeOnlyPropagatesAndRuns(t *testing.T) {
	var tr trace
	b := NewBuilder()
	var outer, inner *Group
	outer = b.Describe("outer", func(b *Builder) {
		inner = b.DescribeOnly("inner", func(b *Builder) {
			b.Test("t", tr.action("t"))
		})
	})

	result, _ := execute(b)

	assert.True(t, inner.ContainsOnly())
	assert.True(t, outer.ContainsOnly())
	assert.Equal(t, map[string]Status{"outer/inner/t": Passed}, statusesByName(result))
}

func TestOnlyPrunesBranchesWithoutOnly(t *testing.T) {
	var tr trace
	b := NewBuilder()
	b.Describe("pruned", func(b *Builder) {
		b.Before(tr.action("pruned.before"))
		b.BeforeEach(tr.action("pruned.beforeEach"))
		b.Test("p", tr.action("p"))
		b.After(tr.action("pruned.after"))
	})
	b.Describe("kept", func(b *Builder) {
		b.Before(tr.action("kept.before"))
		b.Describe("deeper", func(b *Builder) {
			b.Test("plain", tr.action("plain"))
			b.TestOnly("only", tr.action("only"))
		})
		b.After(tr.action("kept.after"))
	})
	b.Test("top", tr.action("top"))

	result, _ := execute(b)

	assert.Equal(t, []string{"kept.before", "only", "kept.after"}, tr.events)
	assert.Equal(t, map[string]Status{
		"pruned/p":          Skipped,
		"kept/deeper/plain": Skipped,
		"kept/deeper/only":  Passed,
		"top":               Skipped,
	}, statusesByName(result))
	pruned := findGroup(result, "pruned")
	require.NotNil(t, pruned)
	assert.True(t, pruned.Skipped)
	assert.Equal(t, SkipReasonGroupSkipped, pruned.Cases()[0].SkipReason)
}

func TestGroupHooksRunWhenGroupContainsOnly(t *testing.T) {
	var tr trace
	b := NewBuilder()
	b.Describe("group", func(b *Builder) {
		b.Before(tr.action("before"))
		b.After(tr.action("after"))
		b.Describe("A", func(b *Builder) {
			b.TestOnly("a", tr.action("a"))
		})
		b.BeforeEach(tr.action("beforeEach"))
		b.AfterEach(tr.action("afterEach"))
		b.Test("B", tr.action("B"))
	})

	result, _ := execute(b)

	assert.Equal(t, []string{"before", "a", "after"}, tr.events)
	assert.Equal(t, map[string]Status{"group/A/a": Passed, "group/B": Skipped}, statusesByName(result))
}

func TestGroupHooksDoNotRunWithoutOnly(t *testing.T) {
	var tr trace
	b := NewBuilder()
	b.Before(tr.action("root.before"))
	b.After(tr.action("root.after"))
	b.Describe("g", func(b *Builder) {
		b.Before(tr.action("before"))
		b.BeforeEach(tr.action("beforeEach"))
		b.Test("t", tr.action("t"))
		b.AfterEach(tr.action("afterEach"))
		b.After(tr.action("after"))
	})

	result, _ := execute(b)

	assert.Equal(t, []string{"beforeEach", "t", "afterEach"}, tr.events)
	g := findGroup(result, "g")
	require.NotNil(t, g)
	assert.False(t, g.ContainsOnly)
	assert.Empty(t, g.HookErrors)
	assert.Equal(t, Counts{Passed: 1}, result.Counts)
}

func TestHookOrdering(t *testing.T) {
	var tr trace
	b := NewBuilder()
	b.DescribeOnly("g", func(b *Builder) {
		b.Before(tr.action("before1"))
		b.Before(tr.action("before2"))
		b.BeforeEach(tr.action("beforeEach1"))
		b.BeforeEach(tr.action("beforeEach2"))
		b.AfterEach(tr.action("afterEach1"))
		b.AfterEach(tr.action("afterEach2"))
		b.After(tr.action("after1"))
		b.After(tr.action("after2"))
		b.Test("a", tr.action("a"))
		b.Test("b", tr.action("b"))
	})

	_, _ = execute(b)

	assert.Equal(t, []string{
		"before1", "before2",
		"beforeEach1", "beforeEach2", "a", "afterEach1", "afterEach2",
		"beforeEach1", "beforeEach2", "b", "afterEach1", "afterEach2",
		"after1", "after2",
	}, tr.events)
}

func TestEachHooksApplyOnlyToDirectChildCases(t *testing.T) {
	var tr trace
	b := NewBuilder()
	b.Describe("outer", func(b *Builder) {
		b.BeforeEach(tr.action("outer.beforeEach"))
		b.Describe("inner", func(b *Builder) {
			b.Test("nested", tr.action("nested"))
		})
		b.Test("direct", tr.action("direct"))
	})

	_, _ = execute(b)

	assert.Equal(t, []string{"nested", "outer.beforeEach", "direct"}, tr.events)
}

func TestFailingBodySkipsAfterEachButNotSiblings(t *testing.T) {
	var tr trace
	b := NewBuilder()
	b.Describe("g", func(b *Builder) {
		b.AfterEach(tr.action("afterEach"))
		b.Test("bad", tr.failing("bad"))
		b.Test("good", tr.action("good"))
	})

	result, stats := execute(b)

	assert.Equal(t, []string{"bad", "good", "afterEach"}, tr.events)
	cases := result.Cases()
	require.Len(t, cases, 2)
	assert.Equal(t, Failed, cases[0].Status)
	assert.EqualError(t, cases[0].Err, "bad failed")
	assert.Equal(t, PhaseBody, cases[0].FailedPhase)
	assert.Equal(t, Passed, cases[1].Status)
	require.Len(t, stats.Failures, 1)
	assert.Same(t, cases[0], stats.Failures[0])
	assert.False(t, result.OK())
}

func TestFailingBeforeEachFailsCaseWithoutRunningBody(t *testing.T) {
	var tr trace
	b := NewBuilder()
	b.Describe("g", func(b *Builder) {
		b.BeforeEach(tr.failing("beforeEach"))
		b.BeforeEach(tr.action("beforeEach2"))
		b.AfterEach(tr.action("afterEach"))
		b.Test("a", tr.action("a"))
	})

	result, _ := execute(b)

	assert.Equal(t, []string{"beforeEach"}, tr.events)
	c := result.Cases()[0]
	assert.Equal(t, Failed, c.Status)
	assert.Equal(t, PhaseBeforeEach, c.FailedPhase)
}

func TestFailingAfterEachStopsLaterAfterEachHooks(t *testing.T) {
	var tr trace
	b := NewBuilder()
	b.Describe("g", func(b *Builder) {
		b.AfterEach(tr.failing("afterEach1"))
		b.AfterEach(tr.action("afterEach2"))
		b.Test("a", tr.action("a"))
	})

	result, _ := execute(b)

	assert.Equal(t, []string{"a", "afterEach1"}, tr.events)
	assert.Equal(t, PhaseAfterEach, result.Cases()[0].FailedPhase)
}

func TestFailingBeforeHookIsRecordedAndChildrenStillRun(t *testing.T) {
	var tr trace
	b := NewBuilder()
	b.DescribeOnly("g", func(b *Builder) {
		b.Before(tr.failing("before1"))
		b.Before(tr.action("before2"))
		b.Test("a", tr.action("a"))
		b.After(tr.action("after"))
	})
	b.DescribeOnly("sibling", func(b *Builder) {
		b.Test("b", tr.action("b"))
	})

	result, stats := execute(b)

	assert.Equal(t, []string{"before1", "a", "after", "b"}, tr.events)
	g := findGroup(result, "g")
	require.NotNil(t, g)
	require.Len(t, g.HookErrors, 1)
	hookErr := g.HookErrors[0]
	assert.Equal(t, PhaseBefore, hookErr.Phase)
	assert.Equal(t, 0, hookErr.Index)
	assert.Equal(t, NodePath{"g"}, hookErr.Group)
	assert.EqualError(t, errors.Unwrap(hookErr), "before1 failed")
	assert.Equal(t, Counts{Passed: 2}, result.Counts)
	assert.Len(t, stats.HookFailures, 1)
	assert.False(t, result.OK())
	assert.False(t, stats.OK())
}

func TestFailingAfterHookIsRecorded(t *testing.T) {
	var tr trace
	b := NewBuilder()
	b.After(tr.failing("after"))
	b.TestOnly("a", tr.action("a"))

	result, _ := execute(b)

	require.Len(t, result.HookErrors, 1)
	assert.Equal(t, PhaseAfter, result.HookErrors[0].Phase)
	assert.Equal(t, Passed, result.Cases()[0].Status)
}

func TestPanicIsRecordedAsFailure(t *testing.T) {
	var tr trace
	b := NewBuilder()
	b.Test("panics", func(context.Context) error {
		panic("oh no")
	})
	b.Test("next", tr.action("next"))

	result, _ := execute(b)

	cases := result.Cases()
	assert.Equal(t, Failed, cases[0].Status)
	var pe *PanicError
	require.True(t, errors.As(cases[0].Err, &pe))
	assert.Equal(t, "oh no", pe.Value)
	assert.Equal(t, "panic: oh no", pe.Error())
	require.NotEmpty(t, pe.Stacktrace)
	assert.Contains(t, pe.Stacktrace[0].Function, "TestPanicIsRecordedAsFailure")
	assert.Equal(t, Passed, cases[1].Status)
}

func TestPanicWithErrorValueUnwraps(t *testing.T) {
	sentinel := errors.New("sentinel")
	b := NewBuilder()
	b.Test("panics", func(context.Context) error { panic(sentinel) })

	result, _ := execute(b)

	assert.ErrorIs(t, result.Cases()[0].Err, sentinel)
}

func TestNilBodyPasses(t *testing.T) {
	b := NewBuilder()
	b.Test("pending", nil)
	result, _ := execute(b)
	assert.Equal(t, Passed, result.Cases()[0].Status)
}

func TestOutputIsCapturedPerPhase(t *testing.T) {
	b := NewBuilder()
	b.DescribeOnly("g", func(b *Builder) {
		b.Before(func(ctx context.Context) error { Log(ctx, "in before"); return nil })
		b.BeforeEach(func(ctx context.Context) error { Log(ctx, "in beforeEach"); return nil })
		b.AfterEach(func(ctx context.Context) error { Warn(ctx, "in afterEach"); return nil })
		b.After(func(ctx context.Context) error { Errorf(ctx, "in %s", "after"); return nil })
		b.Test("a", func(ctx context.Context) error {
			Logf(ctx, "body %d", 1)
			Error(ctx, "body", 2)
			return nil
		})
	})

	var fallback bytes.Buffer
	console := capture.NewConsole(capture.WithFallback(&fallback))
	result := Execute(context.Background(), b.Root(), nil, ExecuteOptions{Console: console})

	g := findGroup(result, "g")
	require.NotNil(t, g)
	require.Len(t, g.BeforeOutput, 1)
	assert.Equal(t, "in before", g.BeforeOutput[0].Message)
	require.Len(t, g.AfterOutput, 1)
	assert.Equal(t, capture.Error, g.AfterOutput[0].Stream)

	c := g.Cases()[0]
	require.Len(t, c.BeforeEachOutput, 1)
	assert.Equal(t, "in beforeEach", c.BeforeEachOutput[0].Message)
	require.Len(t, c.BodyOutput, 2)
	assert.Equal(t, "body 1", c.BodyOutput[0].Message)
	assert.Equal(t, "body 2", c.BodyOutput[1].Message)
	assert.Equal(t, capture.Error, c.BodyOutput[1].Stream)
	assert.True(t, c.BodyOutput[0].Location.IsKnown())
	require.Len(t, c.AfterEachOutput, 1)
	assert.Equal(t, capture.Warn, c.AfterEachOutput[0].Stream)
	assert.Len(t, c.Output(), 4)

	assert.Equal(t, 0, console.Depth())
	assert.Empty(t, fallback.String())
}

func TestCaptureScopesAreRestoredAfterFailures(t *testing.T) {
	b := NewBuilder()
	b.DescribeOnly("g", func(b *Builder) {
		b.Before(func(context.Context) error { panic("before") })
		b.Test("panics", func(context.Context) error { panic("body") })
		b.Test("errors", func(context.Context) error { return errors.New("x") })
	})
	console := capture.NewConsole(capture.WithFallback(&bytes.Buffer{}))
	_ = Execute(context.Background(), b.Root(), nil, ExecuteOptions{Console: console})
	assert.Equal(t, 0, console.Depth())
}

func TestEchoWritesCapturedOutputLive(t *testing.T) {
	b := NewBuilder()
	b.Test("a", func(ctx context.Context) error { Log(ctx, "hello"); return nil })

	var echo bytes.Buffer
	console := capture.NewConsole(capture.WithEcho(&echo), capture.WithFallback(&bytes.Buffer{}))
	result := Execute(context.Background(), b.Root(), nil, ExecuteOptions{Console: console})

	assert.Equal(t, "hello\n", echo.String())
	assert.Len(t, result.Cases()[0].BodyOutput, 1)
}

func TestSkippedGroupSkipsItsCasesAndHooks(t *testing.T) {
	var tr trace
	b := NewBuilder()
	b.DescribeSkip("s", func(b *Builder) {
		b.Before(tr.action("before"))
		b.Test("a", tr.action("a"))
		b.Describe("nested", func(b *Builder) {
			b.Test("b", tr.action("b"))
		})
	})
	b.Test("c", tr.action("c"))

	result, _ := execute(b)

	assert.Equal(t, []string{"c"}, tr.events)
	assert.Equal(t, map[string]Status{"s/a": Skipped, "s/nested/b": Skipped, "c": Passed}, statusesByName(result))
}

func TestOnlyWinsOverSkip(t *testing.T) {
	var tr trace
	b := NewBuilder()
	b.DescribeSkip("s", func(b *Builder) {
		b.TestOnly("only", tr.action("only"))
		b.Test("plain", tr.action("plain"))
	})

	result, _ := execute(b)

	assert.Equal(t, []string{"only"}, tr.events)
	assert.Equal(t, map[string]Status{"s/only": Passed, "s/plain": Skipped}, statusesByName(result))
}

func TestFilterSkipsNonMatchingCases(t *testing.T) {
	var tr trace
	b := NewBuilder()
	b.Describe("a", func(b *Builder) {
		b.Test("x", tr.action("a/x"))
		b.TestOnly("y", tr.action("a/y"))
	})
	b.Describe("b", func(b *Builder) {
		b.Test("x", tr.action("b/x"))
	})
	filters, err := NewRegexFilters(nil, []string{"a/y"})
	require.NoError(t, err)

	options := quietOptions()
	options.Filter = filters
	result := Execute(context.Background(), b.Root(), nil, options)

	assert.Empty(t, tr.events)
	for _, c := range result.Cases() {
		assert.Equal(t, Skipped, c.Status, c.Path.String())
	}
	assert.Equal(t, SkipReasonFiltered, result.Cases()[1].SkipReason)
}

func TestFilterPrunesGroupsThatCannotMatch(t *testing.T) {
	var tr trace
	b := NewBuilder()
	b.DescribeOnly("wanted", func(b *Builder) {
		b.Before(tr.action("wanted.before"))
		b.Test("x", tr.action("wanted/x"))
		b.After(tr.action("wanted.after"))
	})
	b.DescribeOnly("unwanted", func(b *Builder) {
		b.Before(tr.action("unwanted.before"))
		b.Describe("nested", func(b *Builder) {
			b.Test("y", tr.action("unwanted/nested/y"))
		})
		b.After(tr.action("unwanted.after"))
	})
	filters, err := NewRegexFilters([]string{"^wanted$"}, nil)
	require.NoError(t, err)

	options := quietOptions()
	options.Filter = filters
	result := Execute(context.Background(), b.Root(), nil, options)

	assert.Equal(t, []string{"wanted.before", "wanted/x", "wanted.after"}, tr.events)
	unwanted := findGroup(result, "unwanted")
	require.NotNil(t, unwanted)
	assert.True(t, unwanted.Skipped)
	assert.Equal(t, SkipReasonFiltered, unwanted.Cases()[0].SkipReason)
	assert.Equal(t, Counts{Passed: 1, Skipped: 1}, result.Counts)
}

func TestCasesAfterCancellationAreNotRun(t *testing.T) {
	var tr trace
	ctx, cancel := context.WithCancel(context.Background())
	b := NewBuilder()
	b.Test("first", func(ctx context.Context) error {
		tr.events = append(tr.events, "first")
		cancel()
		return nil
	})
	b.Test("second", tr.action("second"))
	b.TestSkip("third", tr.action("third"))

	stats := &Stats{}
	result := Execute(ctx, b.Root(), stats, quietOptions())

	assert.Equal(t, []string{"first"}, tr.events)
	assert.Equal(t, map[string]Status{"first": Passed, "second": NotRun, "third": Skipped}, statusesByName(result))
	assert.Equal(t, Counts{Passed: 1, Skipped: 1, NotRun: 1}, stats.Counts)
}

func TestResultCountsPartitionAllCases(t *testing.T) {
	var tr trace
	b := NewBuilder()
	for i := 0; i < 3; i++ {
		b.Describe(fmt.Sprintf("g%d", i), func(b *Builder) {
			b.Test("pass", tr.action("pass"))
			b.Test("fail", tr.failing("fail"))
			b.TestSkip("skip", tr.action("skip"))
			if i == 1 {
				b.Describe("deep", func(b *Builder) {
					b.TestOnly("only", tr.action("only"))
				})
			}
		})
	}

	result, stats := execute(b)

	assert.Equal(t, b.Root().CountCases(), result.Counts.Total())
	assert.Equal(t, len(result.Cases()), result.Counts.Total())
	assert.Equal(t, stats.Counts, result.Counts)
	assert.Equal(t, Counts{Passed: 1, Skipped: 9}, result.Counts)
	for _, child := range result.Children {
		g := child.(*GroupResult)
		assert.Equal(t, len(g.Cases()), g.Counts.Total())
	}
}

func TestObserverIsNotifiedForEveryNode(t *testing.T) {
	var tr trace
	b := NewBuilder()
	b.Describe("g", func(b *Builder) {
		b.Test("a", tr.action("a"))
		b.TestSkip("b", tr.action("b"))
	})

	var events []string
	observer := ObserverFuncs{
		OnGroupStarted: func(g *Group, skipped bool, depth int) {
			events = append(events, fmt.Sprintf("group start %q skipped=%t depth=%d", g.Name(), skipped, depth))
		},
		OnGroupFinished: func(r *GroupResult) {
			events = append(events, fmt.Sprintf("group end %q %d", r.Name, r.Counts.Total()))
		},
		OnCaseStarted: func(c *Case, depth int) {
			events = append(events, fmt.Sprintf("case start %q depth=%d", c.Name(), depth))
		},
		OnCaseFinished: func(r *CaseResult, c *Case) {
			events = append(events, fmt.Sprintf("case end %q %s", c.Name(), r.Status))
		},
	}
	options := quietOptions()
	options.Observer = MultiObserver{Observers: []Observer{NullObserver(), observer}}
	_ = Execute(context.Background(), b.Root(), nil, options)

	assert.Equal(t, []string{
		`group start "" skipped=false depth=0`,
		`group start "g" skipped=false depth=1`,
		`case start "a" depth=2`,
		`case end "a" passed`,
		`case start "b" depth=2`,
		`case end "b" skipped`,
		`group end "g" 2`,
		`group end "" 2`,
	}, events)
}

func TestResultTreeMirrorsNodeTree(t *testing.T) {
	var tr trace
	b := NewBuilder()
	g := b.Describe("g", func(b *Builder) {
		b.Test("a", tr.action("a"))
		b.Describe("h", func(b *Builder) {})
	})

	result, _ := execute(b)

	require.Len(t, result.Children, 1)
	gr, ok := result.Children[0].(*GroupResult)
	require.True(t, ok)
	assert.Equal(t, g.ID(), gr.ID)
	assert.Equal(t, g.Location(), gr.Location)
	assert.Equal(t, 1, gr.Depth)
	require.Len(t, gr.Children, 2)
	assert.Equal(t, "a", gr.Children[0].ResultName())
	assert.IsType(t, &CaseResult{}, gr.Children[0])
	assert.IsType(t, &GroupResult{}, gr.Children[1])
	assert.Equal(t, NodePath{"g", "a"}, gr.Cases()[0].Path)
}

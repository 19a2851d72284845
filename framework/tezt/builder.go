package tezt

import (
	"github.com/launchdarkly/tezt/framework/location"
)

// Builder constructs a tree of groups and cases. All registration state (the current
// group, the ancestor stack and whether registration is currently inside an "only" scope)
// lives here rather than in package globals, so independent trees can coexist.
//
// A Builder is meant to be used from a single goroutine during a single synchronous
// registration pass.
type Builder struct {
	root      *Group
	current   *Group
	ancestors []*Group
	inOnly    bool
}

// NewBuilder creates a Builder with an empty root group. Anything registered outside of a
// Describe call is attached to the root.
func NewBuilder() *Builder {
	b := &Builder{}
	b.Reset()
	return b
}

// Reset discards the tree and all registration state so that a new registration pass can
// start from scratch.
func (b *Builder) Reset() {
	b.root = &Group{nodeInfo: newNodeInfo("", location.Unknown(), nil)}
	b.current = b.root
	b.ancestors = []*Group{b.root}
	b.inOnly = false
}

// Root returns the implicit top-level group.
func (b *Builder) Root() *Group {
	return b.root
}

// Describe creates a group, then calls build so that anything it registers is attached to
// the new group. It returns after build returns.
func (b *Builder) Describe(name string, build func(*Builder)) *Group {
	return b.describe(name, build, location.Caller(1))
}

// DescribeOnly is like Describe but marks the group, and every case registered inside it,
// as only. Nested groups inherit this unless they are registered with DescribeSkip.
func (b *Builder) DescribeOnly(name string, build func(*Builder)) *Group {
	loc := location.Caller(1)
	prevInOnly := b.inOnly
	b.inOnly = true
	defer func() { b.inOnly = prevInOnly }()
	return b.describe(name, build, loc)
}

// DescribeSkip is like Describe but marks the group as skipped. Cases inside it are not
// marked only, even if an enclosing group is.
func (b *Builder) DescribeSkip(name string, build func(*Builder)) *Group {
	loc := location.Caller(1)
	prevInOnly := b.inOnly
	b.inOnly = false
	defer func() { b.inOnly = prevInOnly }()
	g := b.newGroup(name, loc)
	g.skip = true
	b.enter(g, build)
	return g
}

// Test registers a case in the current group.
func (b *Builder) Test(name string, body Action) *Case {
	return b.test(name, body, location.Caller(1))
}

// TestOnly registers a case that is marked only.
func (b *Builder) TestOnly(name string, body Action) *Case {
	loc := location.Caller(1)
	prevInOnly := b.inOnly
	b.inOnly = true
	defer func() { b.inOnly = prevInOnly }()
	return b.test(name, body, loc)
}

// TestSkip registers a case that will never run.
func (b *Builder) TestSkip(name string, body Action) *Case {
	loc := location.Caller(1)
	prevInOnly := b.inOnly
	b.inOnly = false
	defer func() { b.inOnly = prevInOnly }()
	c := b.test(name, body, loc)
	c.skip = true
	return c
}

// Before registers a hook that runs once before the current group's children.
func (b *Builder) Before(hook Action) {
	b.current.before = append(b.current.before, hook)
}

// After registers a hook that runs once after the current group's children.
func (b *Builder) After(hook Action) {
	b.current.after = append(b.current.after, hook)
}

// BeforeEach registers a hook that runs before each case in the current group.
func (b *Builder) BeforeEach(hook Action) {
	b.current.beforeEach = append(b.current.beforeEach, hook)
}

// AfterEach registers a hook that runs after each case in the current group that did not
// fail earlier.
func (b *Builder) AfterEach(hook Action) {
	b.current.afterEach = append(b.current.afterEach, hook)
}

func (b *Builder) describe(name string, build func(*Builder), loc location.Location) *Group {
	g := b.newGroup(name, loc)
	if b.inOnly {
		b.markOnly(g)
	}
	b.enter(g, build)
	return g
}

func (b *Builder) newGroup(name string, loc location.Location) *Group {
	g := &Group{nodeInfo: newNodeInfo(name, loc, b.current)}
	b.current.children = append(b.current.children, g)
	return g
}

// enter makes g the current group for the duration of build. The previous state is
// restored even if build panics, so that a failed registration pass leaves the Builder
// usable.
func (b *Builder) enter(g *Group, build func(*Builder)) {
	prev := b.current
	b.ancestors = append(b.ancestors, g)
	b.current = g
	defer func() {
		b.ancestors = b.ancestors[:len(b.ancestors)-1]
		b.current = prev
	}()
	if build != nil {
		build(b)
	}
}

func (b *Builder) test(name string, body Action, loc location.Location) *Case {
	c := &Case{nodeInfo: newNodeInfo(name, loc, b.current), body: body}
	b.current.children = append(b.current.children, c)
	if b.inOnly {
		b.markOnly(c)
	}
	return c
}

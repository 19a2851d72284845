package tezt

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/launchdarkly/tezt/framework/location"
)

// Action is a case body or a hook. It fails by returning an error or by panicking.
type Action func(ctx context.Context) error

// NodePath is the list of names leading from the top of a tree to a node. The implicit
// root group is not part of any path.
type NodePath []string

// String returns the names joined with "/". A "/" or "\" inside a name is escaped with a
// backslash, so that ParseNodePath can read the result back.
func (p NodePath) String() string {
	names := make([]string, 0, len(p))
	for _, name := range p {
		names = append(names, pathEscaper.Replace(name))
	}
	return strings.Join(names, "/")
}

// ParseNodePath is the inverse of NodePath.String.
func ParseNodePath(s string) NodePath {
	parts := splitPath(s)
	ret := make(NodePath, 0, len(parts))
	for _, part := range parts {
		ret = append(ret, pathUnescaper.Replace(part))
	}
	return ret
}

var (
	pathEscaper   = strings.NewReplacer(`\`, `\\`, "/", `\/`)
	pathUnescaper = strings.NewReplacer(`\\`, `\`, `\/`, "/")
)

// splitPath splits s at every "/" that is not escaped. Escapes are left in place.
func splitPath(s string) []string {
	var parts []string
	start := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '\\':
			i++
		case '/':
			parts = append(parts, s[start:i])
			start = i + 1
		}
	}
	return append(parts, s[start:])
}

// Plus returns a new path with name appended. The original is not modified.
func (p NodePath) Plus(name string) NodePath {
	return append(append(NodePath(nil), p...), name)
}

// Node is either a *Group or a *Case.
type Node interface {
	Name() string
	ID() uuid.UUID
	Location() location.Location
	Parent() *Group
	Path() NodePath
	IsSkip() bool
	IsOnly() bool

	isNode()
}

type nodeInfo struct {
	name     string
	id       uuid.UUID
	location location.Location
	parent   *Group
	skip     bool
	only     bool
}

func newNodeInfo(name string, loc location.Location, parent *Group) nodeInfo {
	return nodeInfo{
		name:     name,
		id:       uuid.New(),
		location: loc,
		parent:   parent,
	}
}

// Name returns the name given at registration.
func (n *nodeInfo) Name() string { return n.name }

// ID returns an identifier that is unique across the process. It is meant for
// diagnostics only.
func (n *nodeInfo) ID() uuid.UUID { return n.id }

// Location returns where the node was registered.
func (n *nodeInfo) Location() location.Location { return n.location }

// Parent returns the group that owns this node, or nil for a root group.
func (n *nodeInfo) Parent() *Group { return n.parent }

// IsSkip returns true if the node was registered through a skip variant.
func (n *nodeInfo) IsSkip() bool { return n.skip }

// IsOnly returns true if the node was registered through an only variant, or inside a
// group that was.
func (n *nodeInfo) IsOnly() bool { return n.only }

// Path returns the names of the node's ancestors, excluding the root, followed by its own
// name.
func (n *nodeInfo) Path() NodePath {
	if n.parent == nil {
		return nil
	}
	var names []string
	for p := n.parent; p != nil && p.parent != nil; p = p.parent {
		names = append(names, p.name)
	}
	ret := make(NodePath, 0, len(names)+1)
	for i := len(names) - 1; i >= 0; i-- {
		ret = append(ret, names[i])
	}
	return append(ret, n.name)
}

// Group is a named collection of cases and nested groups that share hooks.
type Group struct {
	nodeInfo
	children     []Node
	before       []Action
	after        []Action
	beforeEach   []Action
	afterEach    []Action
	containsOnly bool
}

// Case is a single named unit of test logic.
type Case struct {
	nodeInfo
	body Action
}

func (*Group) isNode() {}
func (*Case) isNode()  {}

// Children returns the group's direct children in registration order.
func (g *Group) Children() []Node {
	return append([]Node(nil), g.children...)
}

// ContainsOnly returns true if the group, or anything under it, is marked only.
func (g *Group) ContainsOnly() bool { return g.containsOnly }

// IsRoot returns true for the implicit top-level group of a Builder.
func (g *Group) IsRoot() bool { return g.parent == nil }

// HookCounts returns the number of before, after, beforeEach and afterEach hooks.
func (g *Group) HookCounts() (before, after, beforeEach, afterEach int) {
	return len(g.before), len(g.after), len(g.beforeEach), len(g.afterEach)
}

// Depth returns the number of groups above this one.
func (g *Group) Depth() int {
	d := 0
	for p := g.parent; p != nil; p = p.parent {
		d++
	}
	return d
}

// CountCases returns the number of cases in the group and all its descendants.
func (g *Group) CountCases() int {
	n := 0
	for _, child := range g.children {
		switch c := child.(type) {
		case *Group:
			n += c.CountCases()
		case *Case:
			n++
		}
	}
	return n
}

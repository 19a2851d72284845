package tezt

import (
	"fmt"
	"io"
	"regexp"
	"strings"
)

// Filter decides whether a case may run, based on its path. A case that does not match is
// recorded as skipped. Filtering takes precedence over "only".
type Filter interface {
	Match(path NodePath) bool
}

// FilterFunc adapts a function to Filter.
type FilterFunc func(NodePath) bool

// Match calls f.
func (f FilterFunc) Match(path NodePath) bool { return f(path) }

// SelfDescribingFilter is a Filter that can explain itself to the user.
type SelfDescribingFilter interface {
	Filter
	Describe(w io.Writer)
}

// GroupFilter is implemented by filters that can rule out a whole group at once. When no
// case under a group could pass the filter, the group is pruned: its cases are recorded as
// filtered out and its before and after hooks do not run.
type GroupFilter interface {
	Filter
	MayContain(group NodePath) bool
}

// RegexFilters selects cases by matching their path against "/"-separated lists of
// regular expressions, one per path component.
type RegexFilters struct {
	MustMatch    NodePathPatternList
	MustNotMatch NodePathPatternList
}

// Match returns true if the case's path is covered by at least one MustMatch pattern (or
// there are none) and by no MustNotMatch pattern.
func (r RegexFilters) Match(path NodePath) bool {
	return (!r.MustMatch.IsDefined() || r.MustMatch.AnyCovers(path)) &&
		!r.MustNotMatch.AnyCovers(path)
}

// MayContain returns true if some case under the group could still be matched: a
// MustMatch pattern covers the group or leads into it, and no MustNotMatch pattern covers
// the whole group.
func (r RegexFilters) MayContain(group NodePath) bool {
	return (!r.MustMatch.IsDefined() || r.MustMatch.AnyCovers(group) || r.MustMatch.AnyLeadsInto(group)) &&
		!r.MustNotMatch.AnyCovers(group)
}

// IsDefined returns true if any pattern has been set.
func (r RegexFilters) IsDefined() bool {
	return r.MustMatch.IsDefined() || r.MustNotMatch.IsDefined()
}

// Describe writes a short explanation of the filters, or nothing if there are none.
func (r RegexFilters) Describe(w io.Writer) {
	if !r.IsDefined() {
		return
	}
	_, _ = fmt.Fprintln(w, "Some tests will be skipped based on the filter criteria for this test run:")
	if r.MustMatch.IsDefined() {
		_, _ = fmt.Fprintf(w, "  skip any not matching %s\n", r.MustMatch)
	}
	if r.MustNotMatch.IsDefined() {
		_, _ = fmt.Fprintf(w, "  skip any matching %s\n", r.MustNotMatch)
	}
	_, _ = fmt.Fprintln(w)
}

// NodePathPattern matches a NodePath one name at a time. It is written like a NodePath
// string, with a regular expression in place of each name; "\/" stands for a slash
// inside a name.
type NodePathPattern struct {
	source string
	names  []*regexp.Regexp
}

// ParseNodePathPattern parses a "/"-separated list of regular expressions.
func ParseNodePathPattern(s string) (NodePathPattern, error) {
	parts := splitPath(s)
	names := make([]*regexp.Regexp, 0, len(parts))
	for i, part := range parts {
		rx, err := regexp.Compile(part)
		if err != nil {
			return NodePathPattern{}, fmt.Errorf("invalid regex %q for name %d of %q: %w", part, i+1, s, err)
		}
		names = append(names, rx)
	}
	return NodePathPattern{source: s, names: names}, nil
}

// ExactNodePathPattern returns a pattern matching path and nothing but its descendants.
func ExactNodePathPattern(path NodePath) NodePathPattern {
	names := make([]*regexp.Regexp, 0, len(path))
	for _, name := range path {
		names = append(names, regexp.MustCompile("^"+regexp.QuoteMeta(name)+"$"))
	}
	return NodePathPattern{source: path.String(), names: names}
}

// Covers returns true if the pattern matches the node at path or one of its ancestor
// groups. Every case under a covered group is covered too.
func (p NodePathPattern) Covers(path NodePath) bool {
	return len(path) >= len(p.names) && p.matchesPrefix(path)
}

// LeadsInto returns true if path is a group that the pattern descends into without
// having matched yet: path is shorter than the pattern and each of its names matches.
func (p NodePathPattern) LeadsInto(path NodePath) bool {
	return len(path) < len(p.names) && p.matchesPrefix(path)
}

func (p NodePathPattern) matchesPrefix(path NodePath) bool {
	for i, rx := range p.names {
		if i == len(path) {
			break
		}
		if !rx.MatchString(path[i]) {
			return false
		}
	}
	return true
}

func (p NodePathPattern) String() string {
	return p.source
}

// NodePathPatternList is a set of alternative patterns. It can be used as a flag value.
type NodePathPatternList []NodePathPattern

func (l NodePathPatternList) String() string {
	ss := make([]string, 0, len(l))
	for _, p := range l {
		ss = append(ss, `"`+p.String()+`"`)
	}
	return strings.Join(ss, " or ")
}

// Set parses and adds a pattern.
func (l *NodePathPatternList) Set(value string) error {
	p, err := ParseNodePathPattern(value)
	if err != nil {
		return err
	}
	*l = append(*l, p)
	return nil
}

// Type is the flag value type name shown in usage text.
func (l *NodePathPatternList) Type() string { return "pattern" }

// IsDefined returns true if the list is not empty.
func (l NodePathPatternList) IsDefined() bool {
	return len(l) != 0
}

// AnyCovers returns true if any pattern covers the path.
func (l NodePathPatternList) AnyCovers(path NodePath) bool {
	for _, p := range l {
		if p.Covers(path) {
			return true
		}
	}
	return false
}

// AnyLeadsInto returns true if any pattern leads into the path.
func (l NodePathPatternList) AnyLeadsInto(path NodePath) bool {
	for _, p := range l {
		if p.LeadsInto(path) {
			return true
		}
	}
	return false
}

// NewRegexFilters parses run and skip patterns into a RegexFilters.
func NewRegexFilters(run, skip []string) (RegexFilters, error) {
	var r RegexFilters
	for _, s := range run {
		if err := r.MustMatch.Set(s); err != nil {
			return RegexFilters{}, err
		}
	}
	for _, s := range skip {
		if err := r.MustNotMatch.Set(s); err != nil {
			return RegexFilters{}, err
		}
	}
	return r, nil
}

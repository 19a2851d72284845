package tezt

// markOnly flags a node as only and records that every group on the ancestor stack now
// contains an only. This keeps Group.containsOnly correct at registration time, so the
// executor never has to search the tree.
//
// The ancestor stack holds the root through the current group. A group being marked is
// not yet on the stack, so it is flagged directly.
func (b *Builder) markOnly(n Node) {
	switch n := n.(type) {
	case *Group:
		n.only = true
		n.containsOnly = true
	case *Case:
		n.only = true
	}
	for _, ancestor := range b.ancestors {
		ancestor.containsOnly = true
	}
}

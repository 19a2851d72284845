// Package tezt is a test-definition and execution engine. Test code registers a tree of
// groups and cases through a Builder, in the style of describe/it frameworks:
//
//	b.Describe("parser", func(b *tezt.Builder) {
//		b.BeforeEach(resetState)
//		b.Test("parses numbers", func(ctx context.Context) error { ... })
//		b.TestOnly("parses strings", func(ctx context.Context) error { ... })
//	})
//
// Execute then walks the tree depth-first, running hooks and case bodies in registration
// order. Marking any case or group "only" restricts the run to the branches that lead to
// it; "skip" excludes a case or group. Output written through Log and friends during a hook
// or body is captured into the result of that phase.
//
// The package never formats results for humans; see the report package for that.
package tezt

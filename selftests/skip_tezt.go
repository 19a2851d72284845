package selftests

import (
	"context"
	"errors"

	"github.com/launchdarkly/tezt/framework/tezt"
)

var errShouldNotRun = errors.New("this should have been skipped")

func shouldNotRun(context.Context) error { return errShouldNotRun }

var _ = tezt.File(func(b *tezt.Builder) {
	b.Describe("skip", func(b *tezt.Builder) {
		b.TestSkip("a skipped case never runs", shouldNotRun)
		b.Test("its sibling still runs", func(context.Context) error { return nil })

		b.Describe("a group with nothing focused", func(b *tezt.Builder) {
			b.Before(shouldNotRun)
			b.After(shouldNotRun)
			b.Test("runs without its before and after hooks", func(context.Context) error { return nil })
		})

		b.DescribeSkip("a skipped group", func(b *tezt.Builder) {
			b.Before(shouldNotRun)
			b.Test("skips its cases", shouldNotRun)
			b.Describe("and nested groups", func(b *tezt.Builder) {
				b.Test("all the way down", shouldNotRun)
			})
		})
	})
})

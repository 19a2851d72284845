package selftests

import (
	"context"

	"github.com/stretchr/testify/assert"

	"github.com/launchdarkly/tezt/framework/tezt"
)

var _ = tezt.File(func(b *tezt.Builder) {
	setUp := false

	b.Test("unfocused cases in the file are skipped", shouldNotRun)

	b.Describe("only", func(b *tezt.Builder) {
		b.Before(func(context.Context) error {
			setUp = true
			return nil
		})
		b.Test("unfocused sibling is skipped", shouldNotRun)

		b.TestOnly("focused case runs after its group's before hook", tezt.Check(func(t *tezt.T) {
			assert.True(t, setUp)
		}))

		b.DescribeOnly("focused group", func(b *tezt.Builder) {
			b.Test("runs every case", func(context.Context) error { return nil })
			b.Describe("including nested ones", func(b *tezt.Builder) {
				b.Test("like this", func(context.Context) error { return nil })
			})
			b.DescribeSkip("unless they opt out", func(b *tezt.Builder) {
				b.Test("with skip", shouldNotRun)
			})
		})
	})
})

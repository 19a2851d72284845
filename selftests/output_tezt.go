package selftests

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/launchdarkly/tezt/framework/helpers"
	"github.com/launchdarkly/tezt/framework/tezt"
)

var _ = tezt.File(func(b *tezt.Builder) {
	b.Describe("output", func(b *tezt.Builder) {
		b.BeforeEach(func(ctx context.Context) error {
			tezt.Log(ctx, "written by beforeEach")
			return nil
		})

		b.Test("is captured per case", func(ctx context.Context) error {
			tezt.Log(ctx, "a log line")
			tezt.Warnf(ctx, "a warning about %s", "something")
			tezt.Error(ctx, "an error line that does not fail the case")
			return nil
		})

		b.Test("can come from other goroutines", tezt.Check(func(t *tezt.T) {
			var done atomic.Bool
			go func() {
				tezt.Log(t.Context(), "from a goroutine")
				done.Store(true)
			}()
			helpers.RequireEventually(t.Context(), t, done.Load, time.Second, time.Millisecond,
				"goroutine did not finish")
			t.Logf("goroutine finished")
			assert.True(t, done.Load())
		}))
	})
})

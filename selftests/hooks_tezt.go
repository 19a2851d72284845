package selftests

import (
	"context"
	"strings"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/launchdarkly/tezt/framework/tezt"
)

var _ = tezt.File(func(b *tezt.Builder) {
	var events []string
	record := func(name string) tezt.Action {
		return func(context.Context) error {
			events = append(events, name)
			return nil
		}
	}

	// Before and after hooks belong to groups that lead to a focused case.
	b.DescribeOnly("hooks", func(b *tezt.Builder) {
		b.Before(record("before"))
		b.BeforeEach(record("beforeEach"))
		b.AfterEach(record("afterEach"))
		b.After(record("after"))

		b.Test("first case sees before and beforeEach", tezt.Check(func(t *tezt.T) {
			assert.Equal(t, []string{"before", "beforeEach"}, events)
		}))

		b.Test("second case sees the first case's afterEach", tezt.Check(func(t *tezt.T) {
			assert.Equal(t, []string{"before", "beforeEach", "afterEach", "beforeEach"}, events)
		}))

		b.Describe("nested group", func(b *tezt.Builder) {
			b.Test("does not get the outer beforeEach", tezt.Check(func(t *tezt.T) {
				require.NotEmpty(t, events)
				assert.Equal(t, "afterEach", events[len(events)-1])
			}))
		})
	})

	b.TestOnly("after hooks have run once the group is done", tezt.Check(func(t *tezt.T) {
		assert.Equal(t, "before,beforeEach,afterEach,beforeEach,afterEach,after", strings.Join(events, ","))
	}))
})

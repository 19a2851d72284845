package main

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/launchdarkly/tezt/framework/tezt"
	"github.com/launchdarkly/tezt/runner"
)

func TestSuppressionsRoundTrip(t *testing.T) {
	registry := tezt.NewRegistry()
	registry.RegisterFile("/p/a_tezt.go", func(b *tezt.Builder) {
		b.Describe("group.x", func(b *tezt.Builder) {
			b.Test("fails (sometimes)", func(context.Context) error { return errors.New("flaky") })
			b.Test("fails (sometimes) too", func(context.Context) error { return nil })
		})
		b.Test("group", func(context.Context) error { return nil })
	})

	results, err := runner.Run(context.Background(), registry, runner.Options{Stdout: &nullWriter{}})
	require.NoError(t, err)
	require.False(t, results.OK())

	path := filepath.Join(t.TempDir(), "failures.txt")
	require.NoError(t, recordFailures(path, results))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "group.x/fails (sometimes)\n", string(data))

	var filters tezt.RegexFilters
	require.NoError(t, loadSuppressions(path, &filters))
	results, err = runner.Run(context.Background(), registry, runner.Options{Filter: filters, Stdout: &nullWriter{}})
	require.NoError(t, err)
	assert.True(t, results.OK())
	assert.Equal(t, tezt.Counts{Passed: 2, Skipped: 1}, results.Counts)
}

func TestSuppressionFileSkipsBlankAndCommentLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "skip.txt")
	require.NoError(t, os.WriteFile(path, []byte("# known issues\n\na/b\nx\\/y/z\n"), 0o600))

	var filters tezt.RegexFilters
	require.NoError(t, loadSuppressions(path, &filters))
	require.Len(t, filters.MustNotMatch, 2)
	assert.False(t, filters.Match(tezt.NodePath{"a", "b"}))
	assert.True(t, filters.Match(tezt.NodePath{"xa", "b"}))
	assert.False(t, filters.Match(tezt.NodePath{"x/y", "z"}))
	assert.True(t, filters.Match(tezt.NodePath{"x", "y", "z"}))
}

func TestMissingSuppressionFile(t *testing.T) {
	var filters tezt.RegexFilters
	assert.Error(t, loadSuppressions(filepath.Join(t.TempDir(), "nope"), &filters))
}

type nullWriter struct{}

func (*nullWriter) Write(p []byte) (int, error) { return len(p), nil }

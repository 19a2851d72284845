package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/launchdarkly/tezt/framework/tezt"
	"github.com/launchdarkly/tezt/runner"
)

// loadSuppressions reads a file of test paths, one per line, and adds each as an exact
// skip pattern. Blank lines and lines starting with # are ignored.
func loadSuppressions(path string, filters *tezt.RegexFilters) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("cannot open provided suppression file: %w", err)
	}
	defer func() { _ = file.Close() }()
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		filters.MustNotMatch = append(filters.MustNotMatch, tezt.ExactNodePathPattern(tezt.ParseNodePath(line)))
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("while processing suppression file: %w", err)
	}
	return nil
}

// recordFailures writes the path of every failed case, in the format read by
// loadSuppressions.
func recordFailures(path string, results runner.Results) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("cannot create suppression file: %w", err)
	}
	w := bufio.NewWriter(f)
	for _, c := range results.Failures() {
		_, _ = fmt.Fprintln(w, c.Path)
	}
	if err := w.Flush(); err != nil {
		_ = f.Close()
		return fmt.Errorf("writing suppression file: %w", err)
	}
	return f.Close()
}

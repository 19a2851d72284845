// Package discovery finds the test files and project root for a run.
package discovery

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/bmatcuk/doublestar/v4"
	"golang.org/x/exp/slices"
)

// DefaultTestPatterns selects the files that hold suites.
var DefaultTestPatterns = []string{"**/*_tezt.go"} //nolint:gochecknoglobals

// DefaultIgnorePatterns excludes vendored code, hidden directories and test fixtures.
var DefaultIgnorePatterns = []string{"vendor/**", "**/.*/**", "testdata/**"} //nolint:gochecknoglobals

// ErrNoProjectRoot is returned by FindProjectRoot when no enclosing directory has a go.mod.
var ErrNoProjectRoot = errors.New("no go.mod found in any parent directory")

// Options describes which files to find.
type Options struct {
	// Root is the directory to search. Patterns are matched against paths relative to it.
	Root string
	// TestPatterns are doublestar patterns; a file must match at least one.
	TestPatterns []string
	// IgnorePatterns are doublestar patterns; a file or directory matching any is excluded.
	IgnorePatterns []string
}

// Find walks Root and returns the absolute paths of matching files, sorted.
func Find(ctx context.Context, options Options) ([]string, error) {
	if err := ValidatePatterns(options.TestPatterns); err != nil {
		return nil, err
	}
	if err := ValidatePatterns(options.IgnorePatterns); err != nil {
		return nil, err
	}
	root, err := filepath.Abs(options.Root)
	if err != nil {
		return nil, fmt.Errorf("resolving root %q: %w", options.Root, err)
	}
	testPatterns := options.TestPatterns
	if len(testPatterns) == 0 {
		testPatterns = DefaultTestPatterns
	}

	var files []string
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if walkErr != nil {
			return fmt.Errorf("access error at %s: %w", path, walkErr)
		}
		if path == root {
			return nil
		}
		relPath, err := filepath.Rel(root, path)
		if err != nil {
			return fmt.Errorf("compute relative path for %s: %w", path, err)
		}
		relPath = filepath.ToSlash(relPath)

		if d.IsDir() {
			if MatchesAny(relPath, options.IgnorePatterns) {
				return filepath.SkipDir
			}
			return nil
		}
		if MatchesAny(relPath, testPatterns) && !MatchesAny(relPath, options.IgnorePatterns) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	slices.Sort(files)
	return files, nil
}

// MatchesAny returns true if the slash-separated relative path matches any pattern.
func MatchesAny(relPath string, patterns []string) bool {
	for _, pattern := range patterns {
		if matched, err := doublestar.Match(pattern, relPath); err == nil && matched {
			return true
		}
	}
	return false
}

// ValidatePatterns returns an error naming the first malformed pattern.
func ValidatePatterns(patterns []string) error {
	for _, pattern := range patterns {
		if !doublestar.ValidatePattern(pattern) {
			return fmt.Errorf("invalid glob pattern %q", pattern)
		}
	}
	return nil
}

// FindProjectRoot returns the nearest directory at or above dir that contains a go.mod.
func FindProjectRoot(dir string) (string, error) {
	dir, err := filepath.Abs(dir)
	if err != nil {
		return "", err
	}
	for {
		if info, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil && !info.IsDir() {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", ErrNoProjectRoot
		}
		dir = parent
	}
}

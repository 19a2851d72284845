package report

import (
	"path/filepath"
	"strings"
	"time"
)

const timeRounding = time.Millisecond

// relPath shows file relative to base when it is inside base.
func relPath(base, file string) string {
	if base == "" {
		return file
	}
	rel, err := filepath.Rel(base, file)
	if err != nil || strings.HasPrefix(rel, "..") {
		return file
	}
	return filepath.ToSlash(rel)
}

package helpers

import (
	"fmt"
	"io"
	"strings"
)

// MustFprintln is fmt.Fprintln for writers whose failure would mean the report itself
// is lost, such as the console. It panics on a write error.
func MustFprintln(w io.Writer, a ...any) {
	if _, err := fmt.Fprintln(w, a...); err != nil {
		panic(err)
	}
}

// MustFprintf is fmt.Fprintf with the same rules as MustFprintln.
func MustFprintf(w io.Writer, format string, a ...any) {
	if _, err := fmt.Fprintf(w, format, a...); err != nil {
		panic(err)
	}
}

// IndentLines puts prefix at the start of every line of text.
func IndentLines(text, prefix string) string {
	lines := strings.Split(strings.TrimRight(text, "\n"), "\n")
	for i, line := range lines {
		lines[i] = prefix + line
	}
	return strings.Join(lines, "\n")
}

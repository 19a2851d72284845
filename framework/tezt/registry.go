package tezt

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	"golang.org/x/exp/slices"

	"github.com/launchdarkly/tezt/framework/location"
)

// ErrNoSuites is returned by Registry.Load when nothing was registered for a file.
var ErrNoSuites = errors.New("no suites registered for file")

// minSuffixComponents is how many trailing path components, the file name and its
// directory, a lookup must share with a registered file to use its suites.
const minSuffixComponents = 2

// SuiteFunc registers the groups and cases of one test file.
type SuiteFunc func(b *Builder)

// Registry maps test files to the suites they declare. Go code cannot be loaded at run
// time, so a test file instead registers its suites while its package is initialized,
// and the runner asks the registry for the suites of each file it was told to run.
type Registry struct {
	suites map[string][]SuiteFunc
	lock   sync.Mutex
}

// DefaultRegistry is the registry used by File.
var DefaultRegistry = NewRegistry() //nolint:gochecknoglobals

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{suites: make(map[string][]SuiteFunc)}
}

// File registers a suite for the source file that calls it, in DefaultRegistry. It
// returns true so that it can be used in a package-level declaration:
//
//	var _ = tezt.File(func(b *tezt.Builder) {
//		b.Test("works", func(ctx context.Context) error { return nil })
//	})
func File(suite SuiteFunc) bool {
	DefaultRegistry.RegisterFile(location.Caller(1).File, suite)
	return true
}

// Register adds a suite for the source file that calls it, and returns that file's path.
func (r *Registry) Register(suite SuiteFunc) string {
	file := location.Caller(1).File
	r.RegisterFile(file, suite)
	return file
}

// RegisterFile adds a suite for the given file. A file may have any number of suites;
// they are loaded in the order they were registered.
func (r *Registry) RegisterFile(file string, suite SuiteFunc) {
	file = filepath.Clean(file)
	r.lock.Lock()
	defer r.lock.Unlock()
	r.suites[file] = append(r.suites[file], suite)
}

// Files returns every file that has suites, sorted.
func (r *Registry) Files() []string {
	r.lock.Lock()
	defer r.lock.Unlock()
	ret := make([]string, 0, len(r.suites))
	for f := range r.suites {
		ret = append(ret, f)
	}
	slices.Sort(ret)
	return ret
}

// Lookup returns the suites registered for file. The file does not have to be spelled
// the same way it was registered: if there is no exact match, the registered file sharing
// the longest trailing run of path components with it is used, as long as that run covers
// at least the file and its directory and no other registered file matches as well. This
// lets absolute paths from file discovery find suites in binaries built with -trimpath,
// without handing a file the suites of an unrelated file that happens to share its name.
func (r *Registry) Lookup(file string) []SuiteFunc {
	file = filepath.Clean(file)
	r.lock.Lock()
	defer r.lock.Unlock()
	if suites, ok := r.suites[file]; ok {
		return append([]SuiteFunc(nil), suites...)
	}
	best, bestScore, ambiguous := "", 0, false
	for _, registered := range sortedKeys(r.suites) {
		score := commonSuffixComponents(registered, file)
		switch {
		case score > bestScore:
			best, bestScore, ambiguous = registered, score, false
		case score == bestScore && score > 0:
			ambiguous = true
		}
	}
	if bestScore < minSuffixComponents || ambiguous {
		return nil
	}
	return append([]SuiteFunc(nil), r.suites[best]...)
}

// Load resets the builder and runs the suites registered for file into it. A panic in
// registration code is returned as an error; the builder is left holding whatever was
// registered before the panic.
func (r *Registry) Load(b *Builder, file string) (err error) {
	b.Reset()
	suites := r.Lookup(file)
	if len(suites) == 0 {
		return fmt.Errorf("%w: %s", ErrNoSuites, file)
	}
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("registering suites from %s: %w", file, &PanicError{Value: p})
		}
	}()
	for _, suite := range suites {
		suite(b)
	}
	return nil
}

func sortedKeys(m map[string][]SuiteFunc) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

func commonSuffixComponents(a, b string) int {
	pa := strings.Split(filepath.ToSlash(a), "/")
	pb := strings.Split(filepath.ToSlash(b), "/")
	n := 0
	for n < len(pa) && n < len(pb) && pa[len(pa)-1-n] == pb[len(pb)-1-n] && pa[len(pa)-1-n] != "" {
		n++
	}
	return n
}

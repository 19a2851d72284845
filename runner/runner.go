package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/launchdarkly/tezt/framework"
	"github.com/launchdarkly/tezt/framework/capture"
	"github.com/launchdarkly/tezt/framework/tezt"
)

// Options contains options for an entire run.
type Options struct {
	// Files is the list of test files to run, in order. If empty, every file in the
	// registry is run.
	Files []string

	// Observer receives progress notifications. If it also implements FileObserver, it is
	// told when each file starts and finishes.
	Observer tezt.Observer

	// Filter is an optional name filter applied to every case.
	Filter tezt.Filter

	// Echo causes captured output to also be written to Stdout as it happens.
	Echo bool

	// Stdout is where output goes when nothing is capturing it, and where echoed output
	// is written. The default is os.Stdout.
	Stdout io.Writer

	// Logger receives debug messages about the run.
	Logger framework.Logger
}

// FileObserver is an Observer that also wants to know about file boundaries.
type FileObserver interface {
	tezt.Observer
	FileStarted(file string)
	FileFinished(result FileResult)
}

// FileResult is the outcome of running one test file.
type FileResult struct {
	File string
	// Result is nil if the file's suites could not be registered.
	Result  *tezt.GroupResult
	Stats   tezt.Stats
	Elapsed time.Duration
	// Err is a *FileError if the file's suites could not be registered.
	Err error
}

// OK returns true if the file was loaded and nothing in it failed.
func (r FileResult) OK() bool {
	return r.Err == nil && r.Stats.OK()
}

// FileError is the error recorded for a file whose suites could not be registered.
type FileError struct {
	File string
	Err  error
}

func (e *FileError) Error() string {
	return fmt.Sprintf("%s: %s", e.File, e.Err)
}

func (e *FileError) Unwrap() error { return e.Err }

// Results is the outcome of a whole run.
type Results struct {
	Files    []FileResult
	Counts   tezt.Counts
	Duration time.Duration
}

// OK returns true if every file was loaded and nothing failed.
func (r Results) OK() bool {
	for _, f := range r.Files {
		if !f.OK() {
			return false
		}
	}
	return true
}

// Failures returns every failed case, in the order they ran.
func (r Results) Failures() []*tezt.CaseResult {
	var ret []*tezt.CaseResult
	for _, f := range r.Files {
		ret = append(ret, f.Stats.Failures...)
	}
	return ret
}

// HookFailures returns every failed before or after hook, in the order they ran.
func (r Results) HookFailures() []*tezt.HookError {
	var ret []*tezt.HookError
	for _, f := range r.Files {
		ret = append(ret, f.Stats.HookFailures...)
	}
	return ret
}

// FileErrors returns the errors of files that could not be registered.
func (r Results) FileErrors() []*FileError {
	var ret []*FileError
	for _, f := range r.Files {
		var fe *FileError
		if errors.As(f.Err, &fe) {
			ret = append(ret, fe)
		}
	}
	return ret
}

// Run runs each file's registered suites in turn. The builder is reset before every file,
// so nothing registered by one file, including its only marks, affects another.
//
// Failures inside a file are recorded in its FileResult. The returned error is only set
// if something went wrong outside of any hook or case, in which case the results so far
// are still returned.
func Run(ctx context.Context, registry *tezt.Registry, options Options) (results Results, err error) {
	if registry == nil {
		registry = tezt.DefaultRegistry
	}
	files := options.Files
	if len(files) == 0 {
		files = registry.Files()
	}
	stdout := options.Stdout
	if stdout == nil {
		stdout = os.Stdout
	}
	logger := options.Logger
	if logger == nil {
		logger = framework.NullLogger()
	}
	observer := options.Observer
	if observer == nil {
		observer = tezt.NullObserver()
	}
	fileObserver, _ := observer.(FileObserver)

	consoleOptions := []capture.ConsoleOption{capture.WithFallback(stdout)}
	if options.Echo {
		consoleOptions = append(consoleOptions, capture.WithEcho(stdout))
	}
	console := capture.NewConsole(consoleOptions...)

	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("unexpected error during test run: %w", &tezt.PanicError{Value: r})
		}
		results.Duration = time.Since(start)
	}()

	builder := tezt.NewBuilder()
	for _, file := range files {
		if fileObserver != nil {
			fileObserver.FileStarted(file)
		}
		fileResult := runFile(ctx, registry, builder, file, tezt.ExecuteOptions{
			Console:  console,
			Observer: observer,
			Filter:   options.Filter,
			Logger:   logger,
		})
		logger.Printf("finished %s in %s: %+v", file, fileResult.Elapsed, fileResult.Stats.Counts)
		results.Files = append(results.Files, fileResult)
		results.Counts.Add(fileResult.Stats.Counts)
		if fileObserver != nil {
			fileObserver.FileFinished(fileResult)
		}
	}
	return results, nil
}

// runFile loads and executes one file. A file whose registration failed is not executed,
// since its tree may be incomplete.
func runFile(
	ctx context.Context,
	registry *tezt.Registry,
	builder *tezt.Builder,
	file string,
	options tezt.ExecuteOptions,
) (result FileResult) {
	result.File = file
	start := time.Now()
	defer func() { result.Elapsed = time.Since(start) }()

	if err := registry.Load(builder, file); err != nil {
		options.Logger.Printf("could not register suites from %s: %s", file, err)
		result.Err = &FileError{File: file, Err: err}
		return result
	}
	result.Result = tezt.Execute(ctx, builder.Root(), &result.Stats, options)
	return result
}

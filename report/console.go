package report

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/fatih/color"

	"github.com/launchdarkly/tezt/framework/capture"
	"github.com/launchdarkly/tezt/framework/helpers"
	"github.com/launchdarkly/tezt/framework/tezt"
	"github.com/launchdarkly/tezt/runner"
)

var consolePassedColor = color.New(color.FgGreen)                    //nolint:gochecknoglobals
var consoleFailedColor = color.New(color.FgRed)                      //nolint:gochecknoglobals
var consoleSkippedColor = color.New(color.FgYellow)                  //nolint:gochecknoglobals
var consoleNotRunColor = color.New(color.Faint, color.FgBlue)        //nolint:gochecknoglobals
var consoleLocationColor = color.New(color.Faint)                    //nolint:gochecknoglobals
var consoleFailedLocationColor = color.New(color.Faint, color.FgRed) //nolint:gochecknoglobals
var consoleWarnOutputColor = color.New(color.Faint, color.FgYellow)  //nolint:gochecknoglobals
var consoleFileColor = color.New(color.Bold)                         //nolint:gochecknoglobals

const indentUnit = "  "

// ConsoleReporter prints each file's tree of results as the file finishes, followed by
// totals and a list of failures at the end of the run.
//
// Colors are controlled by color.NoColor from github.com/fatih/color.
type ConsoleReporter struct {
	observerBase

	// Out is where the report is written. The default is os.Stdout.
	Out io.Writer

	// BaseDir is the directory that file locations are shown relative to. The default is
	// the working directory.
	BaseDir string

	// HideOutputOnSuccess omits the captured output of cases that passed.
	HideOutputOnSuccess bool

	lock sync.Mutex
}

func (c *ConsoleReporter) out() io.Writer {
	if c.Out == nil {
		return os.Stdout
	}
	return c.Out
}

func (c *ConsoleReporter) baseDir() string {
	if c.BaseDir == "" {
		wd, _ := os.Getwd()
		return wd
	}
	return c.BaseDir
}

func (c *ConsoleReporter) FileStarted(file string) {
	c.lock.Lock()
	defer c.lock.Unlock()
	helpers.MustFprintln(c.out())
	helpers.MustFprintln(c.out(), consoleFileColor.Sprint(relPath(c.baseDir(), file)))
}

func (c *ConsoleReporter) FileFinished(result runner.FileResult) {
	c.lock.Lock()
	defer c.lock.Unlock()
	if result.Err != nil {
		for _, line := range describeError(result.Err, c.baseDir()) {
			helpers.MustFprintln(c.out(), consoleFailedColor.Sprint(indentUnit+line))
		}
		return
	}
	if result.Result != nil {
		c.printGroup(result.Result)
	}
}

func (c *ConsoleReporter) printGroup(g *tezt.GroupResult) {
	w, base := c.out(), c.baseDir()
	c.printOutput(g.BeforeOutput, g.Depth)
	for _, child := range g.Children {
		switch r := child.(type) {
		case *tezt.GroupResult:
			helpers.MustFprintf(w, "%s# %s\n", indent(r.Depth-1), r.Name)
			c.printGroup(r)
		case *tezt.CaseResult:
			helpers.MustFprintf(w, "%s%s%s%s\n", indent(r.Depth-1), caseMarker(r.Status), r.Name,
				c.locationSuffix(r, base))
			if r.Status != tezt.Passed || !c.HideOutputOnSuccess {
				c.printOutput(r.Output(), r.Depth)
			}
		}
	}
	c.printOutput(g.AfterOutput, g.Depth)
	for _, hookErr := range g.HookErrors {
		helpers.MustFprintln(w, consoleFailedColor.Sprintf("%s✕ %s", indent(g.Depth), hookErr))
	}
}

func (c *ConsoleReporter) locationSuffix(r *tezt.CaseResult, base string) string {
	text := fmt.Sprintf("  (%s)", r.Location.Rel(base))
	if r.Status == tezt.Failed {
		return consoleFailedLocationColor.Sprint(text)
	}
	return consoleLocationColor.Sprint(text)
}

func (c *ConsoleReporter) printOutput(output capture.Output, depth int) {
	w, base := c.out(), c.baseDir()
	for _, line := range output {
		text := fmt.Sprintf("%s%s  (%s)", indent(depth), line.Message, line.Location.Rel(base))
		switch line.Stream {
		case capture.Warn:
			helpers.MustFprintln(w, consoleWarnOutputColor.Sprint(text))
		case capture.Error:
			helpers.MustFprintln(w, consoleFailedLocationColor.Sprint(text))
		default:
			helpers.MustFprintln(w, consoleLocationColor.Sprint(text))
		}
	}
}

// EndRun prints the totals, then every failure with its error.
func (c *ConsoleReporter) EndRun(results runner.Results) error {
	c.lock.Lock()
	defer c.lock.Unlock()
	w, base := c.out(), c.baseDir()

	counts := results.Counts
	parts := []string{
		consoleFailedColor.Sprintf("%d failed", counts.Failed),
		consoleSkippedColor.Sprintf("%d skipped", counts.Skipped),
		consolePassedColor.Sprintf("%d passed", counts.Passed),
	}
	if counts.NotRun != 0 {
		parts = append(parts, consoleNotRunColor.Sprintf("%d not run", counts.NotRun))
	}
	parts = append(parts, fmt.Sprintf("%d total", counts.Total()))
	helpers.MustFprintln(w)
	helpers.MustFprintf(w, "Tests: %s\n", strings.Join(parts, ", "))
	helpers.MustFprintf(w, "Time:  %s\n", results.Duration.Round(timeRounding))

	for _, fileErr := range results.FileErrors() {
		helpers.MustFprintln(w, consoleFailedColor.Sprintf("ERROR: %s", relPath(base, fileErr.File)))
		c.printErrorLines(fileErr.Err)
	}
	for _, hookErr := range results.HookFailures() {
		helpers.MustFprintln(w, consoleFailedColor.Sprintf("HOOK FAILED: %s", hookErr))
		c.printErrorLines(hookErr.Err)
	}
	for _, f := range results.Failures() {
		helpers.MustFprintln(w, consoleFailedColor.Sprintf("FAILED: %s", f.Path)+
			consoleFailedLocationColor.Sprintf("  (%s)", f.Location.Rel(base)))
		c.printErrorLines(f.Err)
	}
	if results.OK() {
		helpers.MustFprintln(w, consolePassedColor.Sprint(
			helpers.IfElse(counts.Passed == 0, "No tests were run", "All tests passed")))
	}
	return nil
}

func (c *ConsoleReporter) printErrorLines(err error) {
	for _, line := range describeError(err, c.baseDir()) {
		helpers.MustFprintln(c.out(), consoleFailedColor.Sprint(indentUnit+line))
	}
}

func caseMarker(status tezt.Status) string {
	switch status {
	case tezt.Passed:
		return consolePassedColor.Sprint("✓ ")
	case tezt.Failed:
		return consoleFailedColor.Sprint("✕ ")
	case tezt.Skipped:
		return consoleSkippedColor.Sprint("○") + " skipped "
	default:
		return consoleNotRunColor.Sprint("-") + " not run "
	}
}

func indent(depth int) string {
	if depth <= 0 {
		return ""
	}
	return strings.Repeat(indentUnit, depth)
}

// Package report contains the reporters that present the results of a run: a console
// reporter for people, and JUnit XML and JSON/YAML summaries for tools.
package report

import (
	"errors"

	"github.com/launchdarkly/tezt/framework/tezt"
	"github.com/launchdarkly/tezt/runner"
)

// Reporter observes a run as it happens and is told the final results at the end.
type Reporter interface {
	runner.FileObserver
	EndRun(results runner.Results) error
}

// MultiReporter forwards everything to each of its reporters in order.
type MultiReporter struct {
	Reporters []Reporter
}

func (m MultiReporter) FileStarted(file string) {
	for _, r := range m.Reporters {
		r.FileStarted(file)
	}
}

func (m MultiReporter) FileFinished(result runner.FileResult) {
	for _, r := range m.Reporters {
		r.FileFinished(result)
	}
}

func (m MultiReporter) GroupStarted(group *tezt.Group, skipped bool, depth int) {
	for _, r := range m.Reporters {
		r.GroupStarted(group, skipped, depth)
	}
}

func (m MultiReporter) GroupFinished(result *tezt.GroupResult) {
	for _, r := range m.Reporters {
		r.GroupFinished(result)
	}
}

func (m MultiReporter) CaseStarted(c *tezt.Case, depth int) {
	for _, r := range m.Reporters {
		r.CaseStarted(c, depth)
	}
}

func (m MultiReporter) CaseFinished(result *tezt.CaseResult, c *tezt.Case) {
	for _, r := range m.Reporters {
		r.CaseFinished(result, c)
	}
}

// EndRun calls EndRun on every reporter, even if some fail, and returns their errors
// joined together.
func (m MultiReporter) EndRun(results runner.Results) error {
	var errs []error
	for _, r := range m.Reporters {
		if err := r.EndRun(results); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// observerBase provides no-op notifications for reporters that only look at the final
// results.
type observerBase struct{}

func (observerBase) FileStarted(string)                        {}
func (observerBase) FileFinished(runner.FileResult)            {}
func (observerBase) GroupStarted(*tezt.Group, bool, int)       {}
func (observerBase) GroupFinished(*tezt.GroupResult)           {}
func (observerBase) CaseStarted(*tezt.Case, int)               {}
func (observerBase) CaseFinished(*tezt.CaseResult, *tezt.Case) {}

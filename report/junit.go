package report

import (
	"encoding/xml"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/launchdarkly/tezt/framework/tezt"
	"github.com/launchdarkly/tezt/runner"
)

// JUnitReporter writes a JUnit XML file at the end of the run, with one test suite per
// test file.
type JUnitReporter struct {
	observerBase
	filePath string
	baseDir  string
	filters  tezt.RegexFilters
}

// Struct definitions for the JUnit XML schema - see https://github.com/jstemmer/go-junit-report

type jUnitXMLDocument struct {
	XMLName xml.Name            `xml:"testsuites"`
	Suites  []jUnitXMLTestSuite `xml:"testsuite"`
}

type jUnitXMLTestSuite struct {
	XMLName    xml.Name           `xml:"testsuite"`
	Tests      int                `xml:"tests,attr"`
	Failures   int                `xml:"failures,attr"`
	Skipped    int                `xml:"skipped,attr"`
	Time       string             `xml:"time,attr"`
	Name       string             `xml:"name,attr"`
	Properties []jUnitXMLProperty `xml:"properties>property,omitempty"`
	TestCases  []jUnitXMLTestCase `xml:"testcase"`
}

type jUnitXMLTestCase struct {
	XMLName     xml.Name             `xml:"testcase"`
	Classname   string               `xml:"classname,attr"`
	Name        string               `xml:"name,attr"`
	Time        string               `xml:"time,attr"`
	SkipMessage *jUnitXMLSkipMessage `xml:"skipped,omitempty"`
	Failure     *jUnitXMLFailure     `xml:"failure,omitempty"`
	SystemOut   string               `xml:"system-out,omitempty"`
}

type jUnitXMLSkipMessage struct {
	Message string `xml:"message,attr"`
}

type jUnitXMLProperty struct {
	Name  string `xml:"name,attr"`
	Value string `xml:"value,attr"`
}

type jUnitXMLFailure struct {
	Message  string `xml:"message,attr"`
	Type     string `xml:"type,attr"`
	Contents string `xml:",chardata"`
}

// NewJUnitReporter creates a reporter that writes to filePath. Locations and suite names
// are shown relative to baseDir.
func NewJUnitReporter(filePath, baseDir string, filters tezt.RegexFilters) *JUnitReporter {
	return &JUnitReporter{filePath: filePath, baseDir: baseDir, filters: filters}
}

func (j *JUnitReporter) EndRun(results runner.Results) error {
	data, err := xml.MarshalIndent(j.document(results), "", "  ")
	if err != nil {
		return err
	}
	data = append([]byte(xml.Header), data...)
	data = append(data, '\n')
	if err := os.WriteFile(j.filePath, data, 0644); err != nil { //nolint:gosec
		return fmt.Errorf("writing JUnit data to %s: %w", j.filePath, err)
	}
	return nil
}

func (j *JUnitReporter) document(results runner.Results) jUnitXMLDocument {
	properties := []jUnitXMLProperty{
		{Name: "tests.filter.mustMatch", Value: j.filters.MustMatch.String()},
		{Name: "tests.filter.mustNotMatch", Value: j.filters.MustNotMatch.String()},
	}
	var doc jUnitXMLDocument
	for _, f := range results.Files {
		suiteName := relPath(j.baseDir, f.File)
		suite := jUnitXMLTestSuite{
			Name:       suiteName,
			Time:       jUnitDurationString(f.Elapsed),
			Properties: properties,
		}
		if f.Err != nil {
			suite.TestCases = append(suite.TestCases, jUnitXMLTestCase{
				Classname: suiteName,
				Name:      "(registration)",
				Time:      jUnitDurationString(0),
				Failure: &jUnitXMLFailure{
					Message: f.Err.Error(),
					Type:    "registration",
				},
			})
		}
		if f.Result != nil {
			for _, c := range f.Result.Cases() {
				suite.TestCases = append(suite.TestCases, j.testCase(suiteName, c))
			}
			for _, hookErr := range f.Result.AllHookErrors() {
				suite.TestCases = append(suite.TestCases, jUnitXMLTestCase{
					Classname: suiteName,
					Name:      fmt.Sprintf("%s [%s hook #%d]", hookErr.Group, hookErr.Phase, hookErr.Index+1),
					Time:      jUnitDurationString(0),
					Failure: &jUnitXMLFailure{
						Message:  strings.Join(describeError(hookErr.Err, j.baseDir), "\n"),
						Type:     hookErr.Phase.String(),
						Contents: hookErr.Error(),
					},
				})
			}
		}
		for _, tc := range suite.TestCases {
			suite.Tests++
			if tc.Failure != nil {
				suite.Failures++
			}
			if tc.SkipMessage != nil {
				suite.Skipped++
			}
		}
		doc.Suites = append(doc.Suites, suite)
	}
	return doc
}

func (j *JUnitReporter) testCase(suiteName string, c *tezt.CaseResult) jUnitXMLTestCase {
	testCase := jUnitXMLTestCase{
		Classname: suiteName,
		Name:      c.Path.String(),
		Time:      jUnitDurationString(c.Elapsed),
		SystemOut: c.Output().ToString(""),
	}
	switch c.Status {
	case tezt.Skipped:
		testCase.SkipMessage = &jUnitXMLSkipMessage{Message: c.SkipReason}
	case tezt.NotRun:
		testCase.SkipMessage = &jUnitXMLSkipMessage{Message: tezt.NotRun.String()}
	case tezt.Failed:
		testCase.Failure = &jUnitXMLFailure{
			Message:  strings.Join(describeError(c.Err, j.baseDir), "\n"),
			Type:     c.FailedPhase.String(),
			Contents: c.Location.Rel(j.baseDir),
		}
	}
	return testCase
}

func jUnitDurationString(d time.Duration) string {
	return fmt.Sprintf("%.3f", d.Seconds())
}

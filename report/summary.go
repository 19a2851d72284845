package report

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/launchdarkly/tezt/framework/capture"
	"github.com/launchdarkly/tezt/framework/tezt"
	"github.com/launchdarkly/tezt/runner"
)

// Summary formats accepted by NewSummaryReporter.
const (
	SummaryJSON = "json"
	SummaryYAML = "yaml"
)

// SummaryReporter writes a machine-readable summary of the run as JSON or YAML.
type SummaryReporter struct {
	observerBase
	filePath string
	format   string
	baseDir  string
}

type summaryDocument struct {
	OK       bool          `json:"ok" yaml:"ok"`
	Counts   tezt.Counts   `json:"counts" yaml:"counts"`
	Duration string        `json:"duration" yaml:"duration"`
	Files    []summaryFile `json:"files" yaml:"files"`
}

type summaryFile struct {
	File         string               `json:"file" yaml:"file"`
	Error        string               `json:"error,omitempty" yaml:"error,omitempty"`
	Counts       tezt.Counts          `json:"counts" yaml:"counts"`
	Duration     string               `json:"duration" yaml:"duration"`
	Cases        []summaryCase        `json:"cases,omitempty" yaml:"cases,omitempty"`
	HookFailures []summaryHookFailure `json:"hookFailures,omitempty" yaml:"hookFailures,omitempty"`
}

type summaryCase struct {
	Path       string         `json:"path" yaml:"path"`
	Status     tezt.Status    `json:"status" yaml:"status"`
	Location   string         `json:"location" yaml:"location"`
	Duration   string         `json:"duration,omitempty" yaml:"duration,omitempty"`
	SkipReason string         `json:"skipReason,omitempty" yaml:"skipReason,omitempty"`
	Phase      string         `json:"phase,omitempty" yaml:"phase,omitempty"`
	Error      string         `json:"error,omitempty" yaml:"error,omitempty"`
	Output     capture.Output `json:"output,omitempty" yaml:"output,omitempty"`
}

type summaryHookFailure struct {
	Group string     `json:"group" yaml:"group"`
	Phase tezt.Phase `json:"phase" yaml:"phase"`
	Index int        `json:"index" yaml:"index"`
	Error string     `json:"error" yaml:"error"`
}

// NewSummaryReporter creates a reporter that writes a summary in the given format to
// filePath. File paths in the summary are relative to baseDir.
func NewSummaryReporter(filePath, format, baseDir string) (*SummaryReporter, error) {
	switch format {
	case SummaryJSON, SummaryYAML:
	default:
		return nil, fmt.Errorf("unknown summary format %q", format)
	}
	return &SummaryReporter{filePath: filePath, format: format, baseDir: baseDir}, nil
}

func (s *SummaryReporter) EndRun(results runner.Results) error {
	f, err := os.Create(s.filePath)
	if err != nil {
		return fmt.Errorf("cannot create summary file: %w", err)
	}
	writeErr := s.Write(f, results)
	closeErr := f.Close()
	if writeErr != nil {
		return writeErr
	}
	return closeErr
}

// Write writes the summary of results to w.
func (s *SummaryReporter) Write(w io.Writer, results runner.Results) error {
	doc := s.document(results)
	if s.format == SummaryYAML {
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(doc); err != nil {
			return fmt.Errorf("encoding YAML summary: %w", err)
		}
		return enc.Close()
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}

func (s *SummaryReporter) document(results runner.Results) summaryDocument {
	doc := summaryDocument{
		OK:       results.OK(),
		Counts:   results.Counts,
		Duration: results.Duration.Round(timeRounding).String(),
		Files:    []summaryFile{},
	}
	for _, f := range results.Files {
		file := summaryFile{
			File:     relPath(s.baseDir, f.File),
			Counts:   f.Stats.Counts,
			Duration: f.Elapsed.Round(timeRounding).String(),
		}
		if f.Err != nil {
			file.Error = f.Err.Error()
		}
		if f.Result != nil {
			for _, c := range f.Result.Cases() {
				file.Cases = append(file.Cases, s.summaryCase(c))
			}
			for _, h := range f.Result.AllHookErrors() {
				file.HookFailures = append(file.HookFailures, summaryHookFailure{
					Group: h.Group.String(),
					Phase: h.Phase,
					Index: h.Index,
					Error: h.Err.Error(),
				})
			}
		}
		doc.Files = append(doc.Files, file)
	}
	return doc
}

func (s *SummaryReporter) summaryCase(c *tezt.CaseResult) summaryCase {
	sc := summaryCase{
		Path:       c.Path.String(),
		Status:     c.Status,
		Location:   c.Location.Rel(s.baseDir),
		SkipReason: c.SkipReason,
		Output:     c.Output(),
	}
	if c.Status == tezt.Passed || c.Status == tezt.Failed {
		sc.Duration = c.Elapsed.Round(time.Microsecond).String()
	}
	if c.Status == tezt.Failed {
		sc.Phase = c.FailedPhase.String()
		sc.Error = c.Err.Error()
	}
	return sc
}

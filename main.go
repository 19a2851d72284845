package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/fatih/color"
	"github.com/spf13/pflag"

	"github.com/launchdarkly/tezt/config"
	"github.com/launchdarkly/tezt/discovery"
	"github.com/launchdarkly/tezt/framework"
	"github.com/launchdarkly/tezt/framework/tezt"
	"github.com/launchdarkly/tezt/report"
	"github.com/launchdarkly/tezt/runner"
	_ "github.com/launchdarkly/tezt/selftests" // registers the suites that this command runs
)

func main() {
	workDir, err := os.Getwd()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	cfg, err := config.Load(os.Args[1:], workDir, os.Stderr)
	if errors.Is(err, pflag.ErrHelp) {
		return
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	results, err := run(ctx, cfg)
	stop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if !results.OK() {
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config) (*runner.Results, error) {
	filters, err := cfg.Filters()
	if err != nil {
		return nil, err
	}
	if cfg.SkipFile != "" {
		if err := loadSuppressions(cfg.SkipFile, &filters); err != nil {
			return nil, err
		}
	}
	if cfg.NoColor {
		color.NoColor = true
	}

	mainDebugLogger := framework.NullLogger()
	if cfg.Debug {
		mainDebugLogger = framework.NewDebugLogger(os.Stdout)
	}
	if cfg.ConfigFile != "" {
		mainDebugLogger.Printf("using config file %s", cfg.ConfigFile)
	}

	files := cfg.Files
	if len(files) == 0 {
		files, err = discovery.Find(ctx, cfg.DiscoveryOptions())
		if err != nil {
			return nil, fmt.Errorf("finding test files: %w", err)
		}
		mainDebugLogger.Printf("found %d test files under %s", len(files), cfg.Root)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no test files matching %v found under %s", cfg.TestPatterns, cfg.Root)
	}

	reporter, err := makeReporter(cfg, filters)
	if err != nil {
		return nil, err
	}

	filters.Describe(os.Stdout)

	results, err := runner.Run(ctx, tezt.DefaultRegistry, runner.Options{
		Files:    files,
		Observer: reporter,
		Filter:   filters,
		Echo:     cfg.Echo,
		Stdout:   os.Stdout,
		Logger:   framework.LoggerWithPrefix(mainDebugLogger, "[runner] "),
	})
	if err != nil {
		return nil, err
	}

	fmt.Println()
	if err := reporter.EndRun(results); err != nil {
		return nil, fmt.Errorf("error writing report: %w", err)
	}

	if cfg.RecordFailures != "" {
		if err := recordFailures(cfg.RecordFailures, results); err != nil {
			return nil, err
		}
	}

	return &results, nil
}

func makeReporter(cfg *config.Config, filters tezt.RegexFilters) (report.Reporter, error) {
	reporters := []report.Reporter{&report.ConsoleReporter{BaseDir: cfg.Root}}
	if cfg.JUnit != "" {
		reporters = append(reporters, report.NewJUnitReporter(cfg.JUnit, cfg.Root, filters))
	}
	if cfg.Summary != "" {
		summary, err := report.NewSummaryReporter(cfg.Summary, cfg.SummaryFormat, cfg.Root)
		if err != nil {
			return nil, err
		}
		reporters = append(reporters, summary)
	}
	if len(reporters) == 1 {
		return reporters[0], nil
	}
	return report.MultiReporter{Reporters: reporters}, nil
}

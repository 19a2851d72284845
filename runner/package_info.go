// Package runner is the top-level entry point for running registered test files. It
// gives each file a freshly reset tree, executes it, and collects the results of the
// whole run.
package runner

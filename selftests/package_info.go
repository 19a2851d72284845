// Package selftests contains suites that exercise tezt itself. Each *_tezt.go file
// registers its suites when the package is initialized; importing the package is enough
// to make them available to the runner.
//
// A project using tezt does the same thing in its own command: import the packages that
// hold its suites, then run the files they registered.
package selftests

// Package internal contains test helpers for location.
package internal

import "github.com/launchdarkly/tezt/framework/location"

// RunAction is used only in unit tests, but exported because it has to be in a separate package for test purposes
func RunAction(action func()) {
	action()
}

// CallerOfRunAction returns the location that called it from another package.
func CallerOfRunAction() location.Location {
	return location.Caller(1)
}

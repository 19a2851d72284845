// Package helpers contains small utilities shared by the reporters and by suites.
package helpers

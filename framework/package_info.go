// Package framework contains the low-level pieces of the tezt test engine that are shared
// by everything else. The base package contains shared types such as Logger; other
// components are in subpackages:
//
// location: resolving the file and line of a call site
//
// capture: scoped redirection of the output written by test bodies and hooks
//
// tezt: the tree builder, executor and result model
//
// The general model is:
//
// 1. Test files register suites, which describe a tree of groups and cases with hooks.
//
// 2. A runner builds the tree for one file at a time and hands it to the executor.
//
// 3. The executor walks the tree depth-first, honoring "only" and "skip", and returns a
// result tree that a reporter can render. The core never formats human-readable text.
package framework

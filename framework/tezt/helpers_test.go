package tezt

import (
	"bytes"
	"context"
	"errors"

	"github.com/launchdarkly/tezt/framework/capture"
)

type trace struct {
	events []string
}

func (tr *trace) action(name string) Action {
	return func(context.Context) error {
		tr.events = append(tr.events, name)
		return nil
	}
}

func (tr *trace) failing(name string) Action {
	return func(context.Context) error {
		tr.events = append(tr.events, name)
		return errors.New(name + " failed")
	}
}

func quietOptions() ExecuteOptions {
	return ExecuteOptions{Console: capture.NewConsole(capture.WithFallback(&bytes.Buffer{}))}
}

func execute(b *Builder) (*GroupResult, *Stats) {
	stats := &Stats{}
	result := Execute(context.Background(), b.Root(), stats, quietOptions())
	return result, stats
}

func statusesByName(r *GroupResult) map[string]Status {
	ret := make(map[string]Status)
	for _, c := range r.Cases() {
		ret[c.Path.String()] = c.Status
	}
	return ret
}

func findGroup(r *GroupResult, path string) *GroupResult {
	if r.Path.String() == path {
		return r
	}
	for _, child := range r.Children {
		if g, ok := child.(*GroupResult); ok {
			if found := findGroup(g, path); found != nil {
				return found
			}
		}
	}
	return nil
}

package stack

import (
	"context"
	"fmt"
	"sort"

	"github.com/hashicorp/go-multierror"
)

type walkFunc func(ctx context.Context, name string) error

// WalkResult reports the outcome of one graph traversal.
type WalkResult struct {
	Completed []string
	// Errors holds the failure of every attempted node that failed.
	Errors map[string]error
	// Skipped lists nodes never attempted because a dependency failed or
	// the walk was canceled.
	Skipped []string
}

func (r *WalkResult) Err() error {
	var result error
	for _, name := range sortedErrorKeys(r.Errors) {
		result = multierror.Append(result, fmt.Errorf("%s: %w", name, r.Errors[name]))
	}
	return result
}

func sortedErrorKeys(errors map[string]error) []string {
	keys := make([]string, 0, len(errors))
	for key := range errors {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

type nodePhase int

const (
	nodePending nodePhase = iota
	nodeRunning
	nodeCompleted
	nodeFailed
	nodeSkipped
)

type walkOutcome struct {
	name string
	err  error
}

// Walk runs fn over every node, in dependency order (or reverse dependency
// order when reverse is true), with up to concurrency nodes in flight. A
// node runs only once all the nodes it waits on completed; failures cascade
// as skips to everything downstream. Cancellation stops dispatching, waits
// for in-flight nodes, and reports the rest as skipped.
func (g *Graph) Walk(ctx context.Context, reverse bool, concurrency int, fn walkFunc) *WalkResult {
	waitsOn := g.deps
	unlocks := g.dependents
	if reverse {
		waitsOn, unlocks = unlocks, waitsOn
	}

	phase := make(map[string]nodePhase, len(g.deps))
	remaining := make(map[string]int, len(g.deps))
	var ready []string
	for _, name := range g.Nodes() {
		phase[name] = nodePending
		remaining[name] = len(waitsOn[name])
		if remaining[name] == 0 {
			ready = append(ready, name)
		}
	}

	result := &WalkResult{Errors: make(map[string]error)}
	outcomes := make(chan walkOutcome)
	inFlight := 0

	var skip func(name string)
	skip = func(name string) {
		if phase[name] != nodePending {
			return
		}
		phase[name] = nodeSkipped
		result.Skipped = append(result.Skipped, name)
		for dependent := range unlocks[name] {
			skip(dependent)
		}
	}

	pendingLeft := func() bool {
		for _, p := range phase {
			if p == nodePending {
				return true
			}
		}
		return false
	}

	for {
		// Dispatch as many ready nodes as the limit allows, unless the
		// walk was canceled.
		if ctx.Err() == nil {
			for len(ready) > 0 && inFlight < concurrency {
				name := ready[0]
				ready = ready[1:]
				phase[name] = nodeRunning
				inFlight++

				go func() {
					outcomes <- walkOutcome{name: name, err: fn(ctx, name)}
				}()
			}
		}

		if inFlight == 0 {
			break
		}

		outcome := <-outcomes
		inFlight--

		if outcome.err != nil {
			phase[outcome.name] = nodeFailed
			result.Errors[outcome.name] = outcome.err
			for dependent := range unlocks[outcome.name] {
				skip(dependent)
			}
			continue
		}

		phase[outcome.name] = nodeCompleted
		result.Completed = append(result.Completed, outcome.name)
		for dependent := range unlocks[outcome.name] {
			remaining[dependent]--
			if remaining[dependent] == 0 && phase[dependent] == nodePending {
				ready = append(ready, dependent)
			}
		}
		sort.Strings(ready)
	}

	// Whatever is still pending was stranded by cancellation.
	if pendingLeft() {
		for _, name := range g.Nodes() {
			if phase[name] == nodePending {
				phase[name] = nodeSkipped
				result.Skipped = append(result.Skipped, name)
			}
		}
	}

	sort.Strings(result.Skipped)
	return result
}

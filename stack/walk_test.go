package stack

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type walkRecorder struct {
	mu    sync.Mutex
	order []string
}

func (r *walkRecorder) visit(name string) {
	r.mu.Lock()
	r.order = append(r.order, name)
	r.mu.Unlock()
}

func (r *walkRecorder) visited() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	result := make([]string, len(r.order))
	copy(result, r.order)
	return result
}

func TestWalkOrder(t *testing.T) {
	g := GraphFromDeps(map[string][]string{
		"a": nil,
		"b": {"a"},
		"c": {"b"},
	})

	rec := &walkRecorder{}
	result := g.Walk(context.Background(), false, 4, func(_ context.Context, name string) error {
		rec.visit(name)
		return nil
	})

	require.NoError(t, result.Err())
	assert.Equal(t, []string{"a", "b", "c"}, rec.visited())
	assert.Equal(t, []string{"a", "b", "c"}, result.Completed)
}

func TestWalkReverseOrder(t *testing.T) {
	g := GraphFromDeps(map[string][]string{
		"a": nil,
		"b": {"a"},
		"c": {"b"},
	})

	rec := &walkRecorder{}
	result := g.Walk(context.Background(), true, 4, func(_ context.Context, name string) error {
		rec.visit(name)
		return nil
	})

	require.NoError(t, result.Err())
	assert.Equal(t, []string{"c", "b", "a"}, rec.visited())
}

func TestWalkParallelismIsBounded(t *testing.T) {
	g := GraphFromDeps(map[string][]string{
		"a": nil, "b": nil, "c": nil, "d": nil, "e": nil, "f": nil,
	})

	var inFlight, peak atomic.Int32
	result := g.Walk(context.Background(), false, 2, func(_ context.Context, _ string) error {
		current := inFlight.Add(1)
		for {
			observed := peak.Load()
			if current <= observed || peak.CompareAndSwap(observed, current) {
				break
			}
		}
		time.Sleep(5 * time.Millisecond)
		inFlight.Add(-1)
		return nil
	})

	require.NoError(t, result.Err())
	assert.Len(t, result.Completed, 6)
	assert.LessOrEqual(t, peak.Load(), int32(2))
	assert.Equal(t, int32(2), peak.Load(), "independent nodes should actually run in parallel")
}

func TestWalkFailureCascades(t *testing.T) {
	g := GraphFromDeps(map[string][]string{
		"a": nil,
		"b": {"a"},
		"c": {"b"},
		"d": nil,
	})

	result := g.Walk(context.Background(), false, 4, func(_ context.Context, name string) error {
		if name == "b" {
			return fmt.Errorf("boom")
		}
		return nil
	})

	require.Error(t, result.Err())
	assert.ElementsMatch(t, []string{"a", "d"}, result.Completed)
	assert.Contains(t, result.Errors, "b")
	assert.Equal(t, []string{"c"}, result.Skipped)
}

func TestWalkCancellation(t *testing.T) {
	g := GraphFromDeps(map[string][]string{
		"a": nil,
		"b": {"a"},
	})

	ctx, cancel := context.WithCancel(context.Background())
	result := g.Walk(ctx, false, 1, func(_ context.Context, name string) error {
		cancel()
		return nil
	})

	assert.Equal(t, []string{"a"}, result.Completed)
	assert.Equal(t, []string{"b"}, result.Skipped, "nothing new is dispatched after cancellation")
}

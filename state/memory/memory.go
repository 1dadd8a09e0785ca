// Package memory is the default, process-local state store.
package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/gammadia/furnace/state"
)

type Store struct {
	mutex  sync.RWMutex
	stacks map[string]*state.StackRecord
	events map[string][]*state.EventRecord
}

var _ state.Store = (*Store)(nil)

func New() *Store {
	return &Store{
		stacks: make(map[string]*state.StackRecord),
		events: make(map[string][]*state.EventRecord),
	}
}

func (s *Store) SaveStack(ctx context.Context, record *state.StackRecord) error {
	copied, err := deepCopy(record)
	if err != nil {
		return fmt.Errorf("copy stack record: %w", err)
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.stacks[record.Name] = copied
	return nil
}

func (s *Store) LoadStacks(ctx context.Context) ([]*state.StackRecord, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	records := make([]*state.StackRecord, 0, len(s.stacks))
	for _, record := range s.stacks {
		copied, err := deepCopy(record)
		if err != nil {
			return nil, fmt.Errorf("copy stack record: %w", err)
		}
		records = append(records, copied)
	}
	return records, nil
}

func (s *Store) DeleteStack(ctx context.Context, name string) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	delete(s.stacks, name)
	delete(s.events, name)
	return nil
}

func (s *Store) AppendEvent(ctx context.Context, event *state.EventRecord) error {
	copied := *event

	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.events[event.Stack] = append(s.events[event.Stack], &copied)
	return nil
}

func (s *Store) ListEvents(ctx context.Context, stack string) ([]*state.EventRecord, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	events := s.events[stack]
	out := make([]*state.EventRecord, len(events))
	for i, event := range events {
		copied := *event
		out[i] = &copied
	}
	return out, nil
}

func (s *Store) Close() error {
	return nil
}

// deepCopy isolates callers from later mutation of nested maps and slices.
func deepCopy(record *state.StackRecord) (*state.StackRecord, error) {
	buf, err := json.Marshal(record)
	if err != nil {
		return nil, err
	}
	var copied state.StackRecord
	if err := json.Unmarshal(buf, &copied); err != nil {
		return nil, err
	}
	return &copied, nil
}

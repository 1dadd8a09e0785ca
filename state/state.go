// Package state persists stack records and their event history. The engine
// writes a full snapshot on every state transition, so a store only ever
// deals with whole records.
package state

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a stack record does not exist.
var ErrNotFound = errors.New("stack not found")

type StackRecord struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Status       string `json:"status"`
	StatusReason string `json:"status-reason,omitempty"`

	TemplateSource string         `json:"template-source"`
	TemplateFormat string         `json:"template-format"`
	Parameters     map[string]any `json:"parameters,omitempty"`

	Resources []ResourceRecord `json:"resources"`
	Outputs   map[string]any   `json:"outputs,omitempty"`

	CreatedAt time.Time `json:"created-at"`
	UpdatedAt time.Time `json:"updated-at"`
}

type ResourceRecord struct {
	Name         string         `json:"name"`
	Type         string         `json:"type"`
	PhysicalID   string         `json:"physical-id,omitempty"`
	Status       string         `json:"status"`
	StatusReason string         `json:"status-reason,omitempty"`
	Properties   map[string]any `json:"properties,omitempty"`
	// Deps is the full dependency list resolved at graph build time
	// (explicit, implicit and plugin-contributed), kept so a stack can be
	// deleted in order even when its template no longer parses.
	Deps []string `json:"deps,omitempty"`
	// Retain abandons the remote resource on delete.
	Retain bool `json:"retain,omitempty"`
}

type EventRecord struct {
	Stack     string    `json:"stack"`
	Resource  string    `json:"resource,omitempty"`
	Status    string    `json:"status"`
	Reason    string    `json:"reason,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

type Store interface {
	// SaveStack inserts or replaces the record for record.Name.
	SaveStack(ctx context.Context, record *StackRecord) error
	// LoadStacks returns every persisted stack record.
	LoadStacks(ctx context.Context) ([]*StackRecord, error)
	// DeleteStack removes a stack record and its events. Deleting a
	// missing stack is not an error.
	DeleteStack(ctx context.Context, name string) error

	AppendEvent(ctx context.Context, event *EventRecord) error
	// ListEvents returns a stack's events in insertion order.
	ListEvents(ctx context.Context, stack string) ([]*EventRecord, error)

	Close() error
}

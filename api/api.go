// Package api defines the JSON wire types of the HTTP API, shared by the
// server and the CLI client.
package api

import (
	"time"

	"github.com/gammadia/furnace/state"
)

type CreateStackRequest struct {
	Name string `json:"name"`
	// Template is the raw template source.
	Template string `json:"template"`
	// Format selects the template frontend: "yaml" or "hcl".
	Format     string            `json:"format"`
	Parameters map[string]string `json:"parameters,omitempty"`
}

type UpdateStackRequest struct {
	Template   string            `json:"template"`
	Format     string            `json:"format"`
	Parameters map[string]string `json:"parameters,omitempty"`
}

type ValidateRequest struct {
	Template string `json:"template"`
	Format   string `json:"format"`
}

type ValidateResponse struct {
	Valid bool `json:"valid"`
	// Errors lists everything wrong with the template, one entry per
	// problem.
	Errors []string `json:"errors,omitempty"`
}

// Stack is the full representation of one stack. It reuses the persisted
// record shape, which already carries resources, outputs and statuses.
type Stack = state.StackRecord

// Event is one entry of a stack's event history.
type Event = state.EventRecord

type StatusResponse struct {
	Version              string    `json:"version"`
	StartedAt            time.Time `json:"started-at"`
	Stacks               int       `json:"stacks"`
	OperationsInProgress int       `json:"operations-in-progress"`
	Providers            []string  `json:"providers"`
	ResourceTypes        []string  `json:"resource-types"`
	Store                string    `json:"store"`
}

// Error is the body of every non-2xx response.
type Error struct {
	Error string `json:"error"`
}

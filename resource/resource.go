// Package resource defines the contract between the convergence engine and
// per-service resource plugins. Plugins are thin CRUD shims: they assemble a
// request from resolved properties, call one service API, and map remote
// status to done/not-done. Polling cadence, timeouts and state bookkeeping
// belong to the engine.
package resource

import (
	"context"
	"errors"
	"fmt"

	"github.com/gammadia/furnace/namegen"
	"github.com/gammadia/furnace/template"
)

// ErrInError marks a remote resource that reached a terminal failure state.
var ErrInError = errors.New("resource entered an error state")

// ErrUnknownStatus marks a remote status string the plugin does not know.
var ErrUnknownStatus = errors.New("resource entered an unknown status")

// ErrNeedsReplace is returned by Update when the changed properties cannot
// be applied in place; the engine replaces the resource instead.
var ErrNeedsReplace = errors.New("resource must be replaced")

// Request carries everything a plugin needs for one lifecycle call.
type Request struct {
	// Stack is the owning stack's name.
	Stack string
	// Logical is the resource's name within the template.
	Logical string
	// PhysicalID identifies the remote resource; empty before Create
	// returns.
	PhysicalID string
	// Properties are the fully resolved template properties.
	Properties Properties
}

// PhysicalName generates a remote-side name for the resource: stack name,
// logical name, and a random suffix to survive replacement.
func (r Request) PhysicalName() string {
	return fmt.Sprintf("%s-%s-%s", r.Stack, r.Logical, namegen.Get())
}

// Plugin is the lifecycle every resource type must implement. All methods
// must be safe to call concurrently with other resources' lifecycles.
type Plugin interface {
	// Create issues the creation call and returns the physical ID. It
	// must not wait for the resource to become ready.
	Create(ctx context.Context, req Request) (string, error)
	// CheckCreateComplete reports whether the resource is ready. It is
	// polled by the engine until it returns true or an error.
	CheckCreateComplete(ctx context.Context, req Request) (bool, error)
	// Delete issues the deletion call. A resource that is already gone
	// is a success.
	Delete(ctx context.Context, req Request) error
	// CheckDeleteComplete reports whether the resource is gone.
	CheckDeleteComplete(ctx context.Context, req Request) (bool, error)
}

// Diff describes a property change set for an in-place update.
type Diff struct {
	Old, New Properties
	// Changed lists the top-level property names whose values differ.
	Changed []string
}

// Updater is implemented by plugins that support in-place updates. Plugins
// without it are replaced whenever their properties change. Update may
// return ErrNeedsReplace for changes it cannot apply.
type Updater interface {
	Update(ctx context.Context, req Request, diff Diff) error
	CheckUpdateComplete(ctx context.Context, req Request) (bool, error)
}

// AttributeResolver is implemented by plugins whose resources expose
// runtime attributes (get_attr references).
type AttributeResolver interface {
	ResolveAttribute(ctx context.Context, req Request, name string) (any, error)
}

// Validator is implemented by plugins that can statically check properties
// at template validation time.
type Validator interface {
	ValidateProperties(props Properties) error
}

// DependencyLinker lets a plugin contribute ordering edges the template
// author never wrote, discovered by inspecting sibling resources'
// declarations. Returned names must be resources of the same template;
// unknown names are ignored.
type DependencyLinker interface {
	ImplicitDeps(self *template.Resource, tmpl *template.Template) []string
}

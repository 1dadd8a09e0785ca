package stack

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/armon/go-metrics"

	"github.com/gammadia/furnace/resource"
	"github.com/gammadia/furnace/template"
)

// --- Create ---

func (e *Engine) runCreate(st *Stack, g *Graph) {
	defer e.wg.Done()

	result := g.Walk(e.ctx, false, e.config.ConcurrentResources, func(ctx context.Context, name string) error {
		return e.createResource(ctx, st, name)
	})
	e.markSkipped(st, ActionCreate, result.Skipped)

	if err := result.Err(); err != nil {
		if e.config.RollbackOnFailure {
			e.rollbackCreate(st, g)
			return
		}
		e.finish(st, ActionCreate, StateFailed, err.Error())
		return
	}
	if len(result.Skipped) > 0 {
		e.finish(st, ActionCreate, StateFailed, "canceled by server shutdown")
		return
	}

	e.resolveOutputs(st)
	e.finish(st, ActionCreate, StateComplete, "")
}

// createResource provisions one resource and waits for it to settle. The
// physical ID is persisted as soon as the provider hands it out, so a
// failure during polling still leaves something a delete can clean up.
func (e *Engine) createResource(ctx context.Context, st *Stack, name string) error {
	def := st.Template.Resources[name]
	var res *ResourceState
	e.sync(func() {
		res = st.Resources[name]
		res.Type = def.Type
		e.setResourceStatus(st, res, NewStatus(ActionCreate, StateInProgress), "")
	})

	fail := func(err error) error {
		e.sync(func() { e.setResourceStatus(st, res, NewStatus(ActionCreate, StateFailed), err.Error()) })
		return err
	}

	plugin, _ := e.registry.Get(def.Type)
	props, err := e.resolveProperties(ctx, st, def, plugin)
	if err != nil {
		return fail(err)
	}

	req := resource.Request{Stack: st.Name, Logical: name, Properties: props}
	physID, err := plugin.Create(ctx, req)
	if physID != "" {
		// Providers may hand back an ID alongside an error when only part
		// of the resource came up. Record it so a later delete can still
		// reach whatever exists remotely.
		req.PhysicalID = physID
		e.sync(func() {
			res.PhysicalID = physID
			res.Properties = props
			e.persist(st)
		})
	}
	if err != nil {
		return fail(fmt.Errorf("create: %w", err))
	}

	if err := e.waitFor(ctx, func(c context.Context) (bool, error) {
		return plugin.CheckCreateComplete(c, req)
	}); err != nil {
		return fail(err)
	}

	e.sync(func() { e.setResourceStatus(st, res, NewStatus(ActionCreate, StateComplete), "") })
	return nil
}

func (e *Engine) resolveProperties(ctx context.Context, st *Stack, def *template.Resource, plugin resource.Plugin) (resource.Properties, error) {
	resolved, err := def.Properties.Resolve(&scope{ctx: ctx, stack: st, registry: e.registry})
	if err != nil {
		return nil, fmt.Errorf("resolve properties: %w", err)
	}
	props := resource.Properties(resolved)
	if validator, ok := plugin.(resource.Validator); ok {
		if err := validator.ValidateProperties(props); err != nil {
			return nil, fmt.Errorf("invalid properties: %w", err)
		}
	}
	return props, nil
}

// rollbackCreate tears down whatever a failed create walk managed to
// provision, in reverse dependency order.
func (e *Engine) rollbackCreate(st *Stack, g *Graph) {
	var created []string
	e.sync(func() {
		e.setStackStatus(st, NewStatus(ActionRollback, StateInProgress), "rolling back failed create")
		for name, res := range st.Resources {
			if res.PhysicalID != "" {
				created = append(created, name)
			}
		}
	})
	sort.Strings(created)

	result := g.Subgraph(created).Walk(e.ctx, true, e.config.ConcurrentResources, func(ctx context.Context, name string) error {
		return e.deleteResource(ctx, st, name, ActionRollback)
	})

	if err := result.Err(); err != nil {
		e.finish(st, ActionRollback, StateFailed, err.Error())
		return
	}
	if len(result.Skipped) > 0 {
		e.finish(st, ActionRollback, StateFailed, "canceled by server shutdown")
		return
	}
	e.finish(st, ActionRollback, StateComplete, "create failed and was rolled back")
}

// --- Update ---

func (e *Engine) runUpdate(st *Stack, g *Graph, cleanup *Graph) {
	defer e.wg.Done()

	result := g.Walk(e.ctx, false, e.config.ConcurrentResources, func(ctx context.Context, name string) error {
		return e.updateResource(ctx, st, name)
	})
	e.markSkipped(st, ActionUpdate, result.Skipped)

	failed := result.Err()
	if failed == nil && len(result.Skipped) > 0 {
		failed = errors.New("canceled by server shutdown")
	}

	if failed == nil {
		// Resources dropped from the template go away last, in reverse
		// order of the edges they were created with.
		cleanupResult := cleanup.Walk(e.ctx, true, e.config.ConcurrentResources, func(ctx context.Context, name string) error {
			return e.deleteResource(ctx, st, name, ActionDelete)
		})
		e.sync(func() {
			for _, name := range cleanupResult.Completed {
				delete(st.Resources, name)
			}
			e.persist(st)
		})
		failed = cleanupResult.Err()
		if failed == nil && len(cleanupResult.Skipped) > 0 {
			failed = errors.New("canceled by server shutdown")
		}
	}

	if failed != nil {
		e.finish(st, ActionUpdate, StateFailed, failed.Error())
		return
	}

	e.resolveOutputs(st)
	e.finish(st, ActionUpdate, StateComplete, "")
}

// updateResource converges one resource onto the current template: create
// it if it never existed, patch it in place when the plugin can, replace it
// otherwise. Unchanged resources are left alone.
func (e *Engine) updateResource(ctx context.Context, st *Stack, name string) error {
	def := st.Template.Resources[name]
	var res *ResourceState
	e.sync(func() { res = st.Resources[name] })

	if res.PhysicalID == "" {
		return e.createResource(ctx, st, name)
	}

	fail := func(err error) error {
		e.sync(func() { e.setResourceStatus(st, res, NewStatus(ActionUpdate, StateFailed), err.Error()) })
		return err
	}

	plugin, _ := e.registry.Get(def.Type)
	props, err := e.resolveProperties(ctx, st, def, plugin)
	if err != nil {
		return fail(err)
	}

	if res.Type != def.Type || res.Status.Failed() {
		return e.replaceResource(ctx, st, name)
	}

	changed := diffProperties(res.Properties, props)
	if len(changed) == 0 {
		return nil
	}

	updater, ok := plugin.(resource.Updater)
	if !ok {
		return e.replaceResource(ctx, st, name)
	}

	e.sync(func() { e.setResourceStatus(st, res, NewStatus(ActionUpdate, StateInProgress), strings.Join(changed, ", ")) })

	req := resource.Request{Stack: st.Name, Logical: name, PhysicalID: res.PhysicalID, Properties: props}
	err = updater.Update(ctx, req, resource.Diff{Old: res.Properties, New: props, Changed: changed})
	if errors.Is(err, resource.ErrNeedsReplace) {
		return e.replaceResource(ctx, st, name)
	}
	if err != nil {
		return fail(fmt.Errorf("update: %w", err))
	}
	if err := e.waitFor(ctx, func(c context.Context) (bool, error) {
		return updater.CheckUpdateComplete(c, req)
	}); err != nil {
		return fail(err)
	}

	e.sync(func() {
		res.Properties = props
		e.setResourceStatus(st, res, NewStatus(ActionUpdate, StateComplete), "")
	})
	return nil
}

// replaceResource deletes the old incarnation and creates a new one under
// the same logical name.
func (e *Engine) replaceResource(ctx context.Context, st *Stack, name string) error {
	if err := e.deleteResource(ctx, st, name, ActionDelete); err != nil {
		return err
	}
	return e.createResource(ctx, st, name)
}

// --- Delete ---

func (e *Engine) runDelete(st *Stack, g *Graph) {
	defer e.wg.Done()

	result := g.Walk(e.ctx, true, e.config.ConcurrentResources, func(ctx context.Context, name string) error {
		return e.deleteResource(ctx, st, name, ActionDelete)
	})
	e.markSkipped(st, ActionDelete, result.Skipped)

	if err := result.Err(); err != nil {
		e.finish(st, ActionDelete, StateFailed, err.Error())
		return
	}
	if len(result.Skipped) > 0 {
		e.finish(st, ActionDelete, StateFailed, "canceled by server shutdown")
		return
	}

	// Every resource is gone; the record follows.
	e.sync(func() {
		delete(e.stacks, st.Name)
		if err := e.config.Store.DeleteStack(context.Background(), st.Name); err != nil {
			e.log.Error("Failed to delete stack record", "stack", st.Name, "error", err)
		}
		e.log.Info("Stack deleted", "stack", st.Name)
		e.emit(EventStackRemoved{Stack: st.Name})
		e.emit(EventOperationCompleted{Stack: st.Name, Operation: ActionDelete, Status: NewStatus(ActionDelete, StateComplete)})
	})
	metrics.IncrCounterWithLabels([]string{"stack", "delete"}, 1, []metrics.Label{{Name: "state", Value: "complete"}})
}

func (e *Engine) deleteResource(ctx context.Context, st *Stack, name string, action Action) error {
	var res *ResourceState
	var settled bool
	e.sync(func() {
		res = st.Resources[name]
		switch {
		case res.PhysicalID == "":
			e.setResourceStatus(st, res, NewStatus(action, StateComplete), "nothing to delete")
			settled = true
		case res.Retain:
			e.setResourceStatus(st, res, NewStatus(action, StateComplete), "retained per deletion policy")
			settled = true
		default:
			e.setResourceStatus(st, res, NewStatus(action, StateInProgress), "")
		}
	})
	if settled {
		return nil
	}

	fail := func(err error) error {
		e.sync(func() { e.setResourceStatus(st, res, NewStatus(action, StateFailed), err.Error()) })
		return err
	}

	plugin, ok := e.registry.Get(res.Type)
	if !ok {
		return fail(fmt.Errorf("unknown resource type '%s'", res.Type))
	}

	req := res.request(st.Name)
	if err := plugin.Delete(ctx, req); err != nil {
		return fail(fmt.Errorf("delete: %w", err))
	}
	if err := e.waitFor(ctx, func(c context.Context) (bool, error) {
		return plugin.CheckDeleteComplete(c, req)
	}); err != nil {
		return fail(err)
	}

	e.sync(func() {
		res.PhysicalID = ""
		e.setResourceStatus(st, res, NewStatus(action, StateComplete), "")
	})
	return nil
}

// --- Shared ---

// waitFor polls check at the configured interval until it reports
// completion, bounded by the resource timeout.
func (e *Engine) waitFor(ctx context.Context, check func(context.Context) (bool, error)) error {
	ctx, cancel := context.WithTimeout(ctx, e.config.ResourceTimeout)
	defer cancel()

	ticker := time.NewTicker(e.config.PollInterval)
	defer ticker.Stop()

	for {
		done, err := check(ctx)
		if err != nil {
			return err
		}
		if done {
			return nil
		}

		select {
		case <-ticker.C:
		case <-ctx.Done():
			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				return fmt.Errorf("timed out after %s", e.config.ResourceTimeout)
			}
			return ctx.Err()
		}
	}
}

func (e *Engine) markSkipped(st *Stack, action Action, skipped []string) {
	if len(skipped) == 0 {
		return
	}
	e.sync(func() {
		for _, name := range skipped {
			e.setResourceStatus(st, st.Resources[name], NewStatus(action, StateSkipped), "not attempted: an earlier resource failed")
		}
	})
}

// resolveOutputs computes the template outputs against the live stack.
// Failing outputs are logged and left out rather than failing the whole
// operation.
func (e *Engine) resolveOutputs(st *Stack) {
	outputs := make(map[string]any)
	if st.Template != nil {
		sc := &scope{ctx: e.ctx, stack: st, registry: e.registry}
		for name, output := range st.Template.Outputs {
			value, err := output.Value.Resolve(sc)
			if err != nil {
				e.log.Warn("Failed to resolve stack output", "stack", st.Name, "output", name, "error", err)
				continue
			}
			outputs[name] = value
		}
	}
	e.sync(func() {
		st.Outputs = outputs
		e.persist(st)
	})
}

// finish records the terminal status of an operation.
func (e *Engine) finish(st *Stack, action Action, state State, reason string) {
	status := NewStatus(action, state)
	e.sync(func() {
		e.setStackStatus(st, status, reason)
		e.emit(EventOperationCompleted{Stack: st.Name, Operation: action, Status: status})
	})
	metrics.IncrCounterWithLabels(
		[]string{"stack", strings.ToLower(string(action))},
		1,
		[]metrics.Label{{Name: "state", Value: strings.ToLower(string(state))}},
	)
}

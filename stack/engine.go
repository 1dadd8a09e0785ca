package stack

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/armon/go-metrics"
	"github.com/google/uuid"
	"github.com/samber/lo"

	"github.com/gammadia/furnace/namegen"
	"github.com/gammadia/furnace/resource"
	"github.com/gammadia/furnace/state"
	"github.com/gammadia/furnace/template"
	"github.com/gammadia/furnace/template/parse"
)

var ErrShuttingDown = errors.New("engine is shutting down")
var ErrStackExists = errors.New("stack already exists")
var ErrStackNotFound = errors.New("stack not found")
var ErrOperationInProgress = errors.New("an operation is already in progress")

var stackNameRegex = regexp.MustCompile(`^[a-z][a-z0-9_-]*$`)

// Engine owns every stack and drives their convergence. All engine state is
// mutated exclusively on the Run loop goroutine; operation goroutines and
// walk workers funnel their mutations through the deferred channel.
type Engine struct {
	name     namegen.ID
	config   Config
	registry *resource.Registry
	log      *slog.Logger

	deferred chan func()
	stop     chan any
	drained  chan any
	stopOnce sync.Once
	wg       sync.WaitGroup

	// ctx is canceled on Shutdown; every walk runs under it.
	ctx    context.Context
	cancel context.CancelFunc

	shutdown bool
	stacks   map[string]*Stack

	subscribersMutex sync.RWMutex
	subscribers      map[chan Event]struct{}
}

// New builds an engine and recovers persisted stacks. Call Run to start it.
func New(registry *resource.Registry, config Config) (*Engine, error) {
	if err := Validate(config); err != nil {
		return nil, fmt.Errorf("invalid engine config: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	e := &Engine{
		name:     namegen.Get(),
		config:   config,
		registry: registry,
		log:      config.Logger,

		deferred: make(chan func()),
		stop:     make(chan any),
		drained:  make(chan any),

		ctx:    ctx,
		cancel: cancel,

		stacks:      make(map[string]*Stack),
		subscribers: make(map[chan Event]struct{}),
	}

	if err := e.recover(); err != nil {
		cancel()
		return nil, err
	}
	return e, nil
}

// recover reloads persisted stacks. Operations interrupted by the previous
// shutdown are downgraded to FAILED; convergence resumes on the next
// client-requested operation.
func (e *Engine) recover() error {
	records, err := e.config.Store.LoadStacks(context.Background())
	if err != nil {
		return fmt.Errorf("load persisted stacks: %w", err)
	}

	for _, record := range records {
		st := stackFromRecord(record)
		if st.TemplateSource != "" {
			if tmpl, err := parse.File("template."+string(st.TemplateFormat), []byte(st.TemplateSource)); err == nil {
				st.Template = tmpl
			} else {
				e.log.Warn("Recovered stack template no longer parses", "stack", st.Name, "error", err)
			}
		}
		if st.Status.InProgress() {
			st.Status = NewStatus(st.Status.Action(), StateFailed)
			st.StatusReason = "operation interrupted by server restart"
			for _, res := range st.Resources {
				if res.Status.InProgress() {
					res.Status = NewStatus(res.Status.Action(), StateFailed)
					res.StatusReason = "operation interrupted by server restart"
				}
			}
			if err := e.config.Store.SaveStack(context.Background(), recordFromStack(st)); err != nil {
				e.log.Error("Failed to persist recovered stack", "stack", st.Name, "error", err)
			}
			e.log.Warn("Recovered stack with interrupted operation", "stack", st.Name, "status", st.Status)
		}
		e.stacks[st.Name] = st
	}

	e.log.Info("Recovered persisted stacks", "count", len(e.stacks))
	return nil
}

// Run is the engine loop. It blocks until Shutdown has been called and all
// running operations have drained.
func (e *Engine) Run() {
	e.log.Info("Engine is running", "name", e.name)

	stop := e.stop
	for {
		select {
		case f := <-e.deferred:
			f()

		case <-stop:
			e.log.Info("Engine is stopping")
			e.shutdown = true
			e.cancel()
			go func() {
				e.wg.Wait()
				close(e.drained)
			}()
			// Keep serving deferred funcs while operations unwind.
			stop = nil

		case <-e.drained:
			e.log.Info("Engine stopped")
			return
		}
	}
}

// Shutdown cancels running walks and stops the engine once they unwind.
// This function is safe to call from multiple goroutines.
func (e *Engine) Shutdown() {
	e.stopOnce.Do(func() { close(e.stop) })
}

// Wait blocks until every scheduled operation has finished.
func (e *Engine) Wait() {
	e.wg.Wait()
}

// sync runs f on the engine loop goroutine and waits for it.
func (e *Engine) sync(f func()) {
	done := make(chan struct{})
	select {
	case e.deferred <- func() { f(); close(done) }:
		<-done
	case <-e.drained:
		// The loop is gone; nothing left to serialize against.
		f()
	}
}

// Subscribe registers an event listener. The returned function removes it.
func (e *Engine) Subscribe() (<-chan Event, func()) {
	channel := make(chan Event, 64)

	e.subscribersMutex.Lock()
	e.subscribers[channel] = struct{}{}
	e.subscribersMutex.Unlock()

	return channel, func() {
		e.subscribersMutex.Lock()
		delete(e.subscribers, channel)
		e.subscribersMutex.Unlock()
	}
}

func (e *Engine) emit(event Event) {
	e.subscribersMutex.RLock()
	defer e.subscribersMutex.RUnlock()

	for subscriber := range e.subscribers {
		select {
		case subscriber <- event:
		default:
			e.log.Warn("Event subscriber is lagging, dropping event")
		}
	}
}

// --- Scheduling ---

// Create validates and schedules the creation of a new stack. The
// convergence runs asynchronously; progress is reported through events.
func (e *Engine) Create(name string, tmpl *template.Template, source string, format TemplateFormat, params map[string]any) error {
	if !stackNameRegex.MatchString(name) {
		return fmt.Errorf("stack name must be a valid identifier")
	}

	bound, err := tmpl.BindParams(params)
	if err != nil {
		return fmt.Errorf("bind parameters: %w", err)
	}
	graph, err := BuildGraph(tmpl, e.registry)
	if err != nil {
		return err
	}
	if err := e.CheckTypes(tmpl); err != nil {
		return err
	}

	var schedErr error
	e.sync(func() {
		if e.shutdown {
			schedErr = ErrShuttingDown
			return
		}
		if _, exists := e.stacks[name]; exists {
			schedErr = fmt.Errorf("%w: '%s'", ErrStackExists, name)
			return
		}

		st := &Stack{
			ID:             uuid.NewString(),
			Name:           name,
			Template:       tmpl,
			TemplateSource: source,
			TemplateFormat: format,
			Parameters:     bound,
			Resources:      make(map[string]*ResourceState, len(tmpl.Resources)),
			CreatedAt:      time.Now(),
			UpdatedAt:      time.Now(),
		}
		for resName, res := range tmpl.Resources {
			st.Resources[resName] = &ResourceState{
				Name:   resName,
				Type:   res.Type,
				Deps:   graph.Deps(resName),
				Retain: res.DeletionPolicy == template.DeletionPolicyRetain,
			}
		}
		e.stacks[name] = st

		e.log.Info("Creating stack", "stack", name, "resources", len(st.Resources))
		e.emit(EventStackScheduled{Stack: name, Operation: ActionCreate, Resources: graph.Nodes()})
		e.setStackStatus(st, NewStatus(ActionCreate, StateInProgress), "")

		e.wg.Add(1)
		go e.runCreate(st, graph)
	})
	return schedErr
}

// Update schedules the convergence of an existing stack onto a new
// template and parameter set.
func (e *Engine) Update(name string, tmpl *template.Template, source string, format TemplateFormat, params map[string]any) error {
	bound, err := tmpl.BindParams(params)
	if err != nil {
		return fmt.Errorf("bind parameters: %w", err)
	}
	graph, err := BuildGraph(tmpl, e.registry)
	if err != nil {
		return err
	}
	if err := e.CheckTypes(tmpl); err != nil {
		return err
	}

	var schedErr error
	e.sync(func() {
		if e.shutdown {
			schedErr = ErrShuttingDown
			return
		}
		st, exists := e.stacks[name]
		if !exists {
			schedErr = fmt.Errorf("%w: '%s'", ErrStackNotFound, name)
			return
		}
		if st.Status.InProgress() {
			schedErr = fmt.Errorf("%w on stack '%s'", ErrOperationInProgress, name)
			return
		}

		// Resources absent from the new template are deleted after the
		// forward walk, in reverse order of the edges they were created
		// with.
		removed := lo.Filter(lo.Keys(st.Resources), func(resName string, _ int) bool {
			_, kept := tmpl.Resources[resName]
			return !kept
		})
		sort.Strings(removed)
		cleanup := GraphFromDeps(lo.SliceToMap(removed, func(resName string) (string, []string) {
			return resName, st.Resources[resName].Deps
		}))

		st.Template = tmpl
		st.TemplateSource = source
		st.TemplateFormat = format
		st.Parameters = bound
		for resName, res := range tmpl.Resources {
			if existing, ok := st.Resources[resName]; ok {
				existing.Deps = graph.Deps(resName)
				existing.Retain = res.DeletionPolicy == template.DeletionPolicyRetain
			} else {
				st.Resources[resName] = &ResourceState{
					Name:   resName,
					Type:   res.Type,
					Deps:   graph.Deps(resName),
					Retain: res.DeletionPolicy == template.DeletionPolicyRetain,
				}
			}
		}

		e.log.Info("Updating stack", "stack", name, "removed", len(removed))
		e.emit(EventStackScheduled{Stack: name, Operation: ActionUpdate, Resources: graph.Nodes()})
		e.setStackStatus(st, NewStatus(ActionUpdate, StateInProgress), "")

		e.wg.Add(1)
		go e.runUpdate(st, graph, cleanup)
	})
	return schedErr
}

// Delete schedules the deletion of a stack and all its resources.
func (e *Engine) Delete(name string) error {
	var schedErr error
	e.sync(func() {
		if e.shutdown {
			schedErr = ErrShuttingDown
			return
		}
		st, exists := e.stacks[name]
		if !exists {
			schedErr = fmt.Errorf("%w: '%s'", ErrStackNotFound, name)
			return
		}
		if st.Status.InProgress() {
			schedErr = fmt.Errorf("%w on stack '%s'", ErrOperationInProgress, name)
			return
		}

		// The persisted dependency lists are enough to order the delete,
		// even if the template no longer parses.
		graph := GraphFromDeps(lo.MapEntries(st.Resources, func(resName string, res *ResourceState) (string, []string) {
			return resName, res.Deps
		}))

		e.log.Info("Deleting stack", "stack", name)
		e.emit(EventStackScheduled{Stack: name, Operation: ActionDelete, Resources: graph.Nodes()})
		e.setStackStatus(st, NewStatus(ActionDelete, StateInProgress), "")

		e.wg.Add(1)
		go e.runDelete(st, graph)
	})
	return schedErr
}

// --- Accessors ---

// Get returns a snapshot of one stack.
func (e *Engine) Get(name string) (*Stack, bool) {
	var snapshot *Stack
	e.sync(func() {
		if st, ok := e.stacks[name]; ok {
			snapshot = st.Snapshot()
		}
	})
	return snapshot, snapshot != nil
}

// List returns snapshots of every stack, sorted by name.
func (e *Engine) List() []*Stack {
	var snapshots []*Stack
	e.sync(func() {
		for _, st := range e.stacks {
			snapshots = append(snapshots, st.Snapshot())
		}
	})
	sort.Slice(snapshots, func(i, j int) bool { return snapshots[i].Name < snapshots[j].Name })
	return snapshots
}

// Events returns a stack's persisted event history.
func (e *Engine) Events(ctx context.Context, name string) ([]*state.EventRecord, error) {
	return e.config.Store.ListEvents(ctx, name)
}

// ResourceTypes returns every registered resource type.
func (e *Engine) ResourceTypes() []string {
	return e.registry.Types()
}

// CheckTypes verifies that every resource type of a template is registered
// and lets plugins statically validate declared properties.
func (e *Engine) CheckTypes(tmpl *template.Template) error {
	for name, res := range tmpl.Resources {
		if _, ok := e.registry.Get(res.Type); !ok {
			return fmt.Errorf("resource '%s': unknown resource type '%s'", name, res.Type)
		}
	}
	return nil
}

// --- State transitions (loop goroutine only) ---

func (e *Engine) setStackStatus(st *Stack, status Status, reason string) {
	st.Status = status
	st.StatusReason = reason
	st.UpdatedAt = time.Now()

	e.log.Info("Stack status updated", "stack", st.Name, "status", status, "reason", reason)
	e.emit(EventStackStatusUpdated{Stack: st.Name, Status: status, Reason: reason})
	e.appendEvent(st.Name, "", status, reason)
	e.persist(st)
}

func (e *Engine) setResourceStatus(st *Stack, res *ResourceState, status Status, reason string) {
	res.Status = status
	res.StatusReason = reason
	st.UpdatedAt = time.Now()

	e.log.Debug("Resource status updated", "stack", st.Name, "resource", res.Name, "status", status, "reason", reason)
	e.emit(EventResourceStatusUpdated{
		Stack:      st.Name,
		Resource:   res.Name,
		Status:     status,
		Reason:     reason,
		PhysicalID: res.PhysicalID,
	})
	e.appendEvent(st.Name, res.Name, status, reason)

	if !status.InProgress() {
		metrics.IncrCounterWithLabels(
			[]string{"resource", strings.ToLower(string(status.Action()))},
			1,
			[]metrics.Label{
				{Name: "type", Value: res.Type},
				{Name: "state", Value: strings.ToLower(string(status.State()))},
			},
		)
	}

	e.persist(st)
}

func (e *Engine) appendEvent(stackName, resName string, status Status, reason string) {
	event := &state.EventRecord{
		Stack:     stackName,
		Resource:  resName,
		Status:    status.String(),
		Reason:    reason,
		Timestamp: time.Now(),
	}
	if err := e.config.Store.AppendEvent(context.Background(), event); err != nil {
		e.log.Error("Failed to persist event", "stack", stackName, "error", err)
	}
}

func (e *Engine) persist(st *Stack) {
	if err := e.config.Store.SaveStack(context.Background(), recordFromStack(st)); err != nil {
		e.log.Error("Failed to persist stack", "stack", st.Name, "error", err)
	}
}

package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"stagehand/internal/api"
	"stagehand/internal/units"
	"stagehand/pkg/logging"
)

// OrderPolicy selects what Start does with a hint order that places a unit
// before one of its dependencies.
type OrderPolicy string

const (
	// OrderStrict rejects the startup run.
	OrderStrict OrderPolicy = "strict"
	// OrderReorder replaces the hint with a stable topological order.
	OrderReorder OrderPolicy = "reorder"
)

// Valid reports whether p is a known policy. The empty policy is valid and
// means OrderStrict.
func (p OrderPolicy) Valid() bool {
	return p == "" || p == OrderStrict || p == OrderReorder
}

// Config holds the configuration for the orchestrator.
type Config struct {
	// Parallel starts independent eager units concurrently.
	Parallel bool
	// MaxConcurrency bounds concurrent factories; zero or less means no limit.
	MaxConcurrency int
	// OrderPolicy defaults to OrderStrict.
	OrderPolicy OrderPolicy
	// SessionUnit is the unit that holds the identity value set through
	// SetSession. Empty disables the session setter.
	SessionUnit api.UnitID
}

// Orchestrator drives units through their lifecycle. It owns no unit state
// itself; all of it lives in the registry and changes only through the
// transitions started here.
type Orchestrator struct {
	registry *units.Registry
	cfg      Config

	// globalMu serializes global state recomputation so that global events
	// are published in order.
	globalMu sync.Mutex
	global   api.GlobalState

	mu        sync.RWMutex
	started   bool
	running   bool
	runFailed bool
	// runGen identifies the current startup run.
	runGen uint64

	// State change event subscribers
	subscribers []chan<- api.StateChangedEvent
}

// New creates a new orchestrator over registry.
func New(registry *units.Registry, cfg Config) *Orchestrator {
	if cfg.OrderPolicy == "" {
		cfg.OrderPolicy = OrderStrict
	}
	return &Orchestrator{
		registry:    registry,
		cfg:         cfg,
		global:      api.GlobalPending,
		subscribers: make([]chan<- api.StateChangedEvent, 0),
	}
}

// Registry returns the unit registry.
func (o *Orchestrator) Registry() *units.Registry {
	return o.registry
}

// GetContext returns the instance of a Ready unit. It is nil for every other
// state and for unknown ids.
func (o *Orchestrator) GetContext(id api.UnitID) any {
	return o.registry.Instance(id)
}

// IsReady reports whether id is Ready.
func (o *Orchestrator) IsReady(id api.UnitID) bool {
	state, ok := o.registry.State(id)
	return ok && state == api.StateReady
}

// GetError returns the recorded error of a unit in Error, nil otherwise.
func (o *Orchestrator) GetError(id api.UnitID) error {
	return o.registry.Err(id)
}

// Status returns the read-only view of one unit.
func (o *Orchestrator) Status(id api.UnitID) (api.UnitStatus, error) {
	st, ok := o.registry.Status(id)
	if !ok {
		return api.UnitStatus{}, &api.UnknownUnitError{Unit: id}
	}
	return st, nil
}

// GlobalState returns the aggregate state.
func (o *Orchestrator) GlobalState() api.GlobalState {
	return o.computeGlobal(o.registry.DerivedGlobal())
}

// Snapshot returns all units and the global state.
func (o *Orchestrator) Snapshot() api.Snapshot {
	statuses, derived := o.registry.Snapshot()
	return api.Snapshot{
		Global:  o.computeGlobal(derived),
		Units:   statuses,
		TakenAt: time.Now(),
	}
}

// computeGlobal overlays the run state on the state derived from the eager
// units.
func (o *Orchestrator) computeGlobal(derived api.GlobalState) api.GlobalState {
	o.mu.RLock()
	defer o.mu.RUnlock()
	switch {
	case !o.started:
		return api.GlobalPending
	case o.running && o.runFailed:
		return api.GlobalError
	case o.running:
		return api.GlobalLoading
	default:
		return derived
	}
}

// refreshGlobal recomputes the global state and publishes an event if it
// changed.
func (o *Orchestrator) refreshGlobal() {
	o.globalMu.Lock()
	defer o.globalMu.Unlock()

	next := o.GlobalState()
	if next == o.global {
		return
	}
	prev := o.global
	o.global = next

	logging.Info("Orchestrator", "Global state changed: %s -> %s", prev, next)
	o.broadcast(api.StateChangedEvent{
		Kind:      api.EventGlobal,
		OldGlobal: prev,
		NewGlobal: next,
		Timestamp: time.Now(),
	})
}

// record publishes unit transitions and refreshes the global state.
func (o *Orchestrator) record(transitions ...units.Transition) {
	for _, t := range transitions {
		switch t.To {
		case api.StateError:
			logging.Error("Orchestrator", t.Err, "Unit %s failed (attempt %s)", t.Unit, t.AttemptID)
		case api.StateReady:
			logging.Info("Orchestrator", "Unit %s is ready", t.Unit)
		default:
			logging.Debug("Orchestrator", "Unit %s: %s -> %s", t.Unit, t.From, t.To)
		}
		o.broadcast(api.StateChangedEvent{
			Kind:      api.EventUnit,
			Unit:      t.Unit,
			OldState:  t.From,
			NewState:  t.To,
			Error:     t.Err,
			AttemptID: t.AttemptID,
			Timestamp: time.Now(),
		})
	}
	o.refreshGlobal()
}

// broadcast sends event to all subscribers without blocking.
func (o *Orchestrator) broadcast(event api.StateChangedEvent) {
	o.mu.RLock()
	subscribers := make([]chan<- api.StateChangedEvent, len(o.subscribers))
	copy(subscribers, o.subscribers)
	o.mu.RUnlock()

	for _, subscriber := range subscribers {
		select {
		case subscriber <- event:
		default:
			// Don't block if subscriber can't receive immediately
			logging.Debug("Orchestrator", "Subscriber blocked, skipping %s event for %q", event.Kind, event.Unit)
		}
	}
}

// Subscribe returns a channel for state change events.
func (o *Orchestrator) Subscribe() <-chan api.StateChangedEvent {
	eventChan := make(chan api.StateChangedEvent, 100)
	o.mu.Lock()
	o.subscribers = append(o.subscribers, eventChan)
	o.mu.Unlock()
	return eventChan
}

// Reset returns id and every unit that transitively depends on it to
// Pending. Instances are dropped without being closed; in-flight attempts of
// the affected units are superseded.
func (o *Orchestrator) Reset(id api.UnitID) error {
	if _, ok := o.registry.Get(id); !ok {
		return &api.UnknownUnitError{Unit: id}
	}

	ids := []api.UnitID{id}
	for _, dep := range o.registry.Graph().TransitiveDependents(dependencyID(id)) {
		ids = append(ids, api.UnitID(dep))
	}

	transitions := o.registry.Reset(ids...)
	logging.Info("Orchestrator", "Reset unit %s (%d units affected)", id, len(transitions))
	o.record(transitions...)
	return nil
}

// Shutdown tears every unit down: Ready instances that implement io.Closer
// or Close(context.Context) error are closed in reverse readiness order and
// all units return to Pending. A startup run in progress is ended; the
// factories it is awaiting finish but their results are discarded.
func (o *Orchestrator) Shutdown(ctx context.Context) error {
	o.mu.Lock()
	o.runGen++
	o.started = false
	o.running = false
	o.runFailed = false
	closing, transitions := o.registry.Teardown()
	o.mu.Unlock()

	var errs []error
	for _, c := range closing {
		if err := closeInstance(ctx, c.Instance); err != nil {
			logging.Error("Orchestrator", err, "Failed to close unit %s during shutdown", c.Unit)
			errs = append(errs, fmt.Errorf("close %s: %w", c.Unit, err))
			continue
		}
		logging.Debug("Orchestrator", "Closed unit %s", c.Unit)
	}

	o.record(transitions...)

	return errors.Join(errs...)
}

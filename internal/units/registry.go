package units

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"stagehand/internal/api"
	"stagehand/internal/dependency"
	"stagehand/pkg/logging"
)

// Registry stores unit definitions together with their current state.
//
// The registry is the single state container of the process: every unit
// field lives behind one mutex and is only changed through the transition
// methods in transition.go, which the orchestrator drives.
type Registry struct {
	mu sync.Mutex

	known map[api.UnitID]bool
	units map[api.UnitID]*unit
	order []api.UnitID
	hint  []api.UnitID

	readySeq uint64
}

// NewRegistry creates a registry that accepts only the given ids.
func NewRegistry(known ...api.UnitID) *Registry {
	r := &Registry{
		known: make(map[api.UnitID]bool, len(known)),
		units: make(map[api.UnitID]*unit),
	}
	for _, id := range known {
		r.known[id] = true
	}
	return r
}

// Register validates def and records the unit as Pending. No factory runs.
func (r *Registry) Register(def Definition) error {
	if def.ID == "" {
		return api.ErrEmptyID
	}
	if def.Factory == nil {
		return fmt.Errorf("unit %s: %w", def.ID, api.ErrNilFactory)
	}
	if !def.Mode.Valid() {
		return fmt.Errorf("unit %s: %w %q", def.ID, api.ErrInvalidMode, def.Mode)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.known[def.ID] {
		return &api.UnknownUnitError{Unit: def.ID}
	}
	if _, exists := r.units[def.ID]; exists {
		return fmt.Errorf("unit %s: %w", def.ID, api.ErrAlreadyRegistered)
	}

	seen := make(map[api.UnitID]bool, len(def.Dependencies))
	deps := make([]api.UnitID, 0, len(def.Dependencies))
	for _, dep := range def.Dependencies {
		if dep == def.ID {
			return fmt.Errorf("unit %s: %w", def.ID, api.ErrSelfDependency)
		}
		if !r.known[dep] {
			return &api.UnknownUnitError{Unit: dep, ReferencedBy: def.ID}
		}
		if seen[dep] {
			continue
		}
		seen[dep] = true
		deps = append(deps, dep)
	}
	def.Dependencies = deps

	r.units[def.ID] = &unit{def: def, state: api.StatePending}
	r.order = append(r.order, def.ID)

	logging.Debug("Registry", "Registered unit %s (mode=%s, deps=%v)", def.ID, def.Mode, deps)
	return nil
}

// SetHintOrder records the preferred startup order of eager units.
func (r *Registry) SetHintOrder(ids []api.UnitID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.hint = append([]api.UnitID(nil), ids...)
}

// HintOrder returns the recorded hint order.
func (r *Registry) HintOrder() []api.UnitID {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]api.UnitID(nil), r.hint...)
}

// Known reports whether id belongs to the declared id set.
func (r *Registry) Known(id api.UnitID) bool {
	return r.known[id]
}

// Get returns the definition of a registered unit.
func (r *Registry) Get(id api.UnitID) (Definition, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.units[id]
	if !ok {
		return Definition{}, false
	}
	def := u.def
	def.Dependencies = append([]api.UnitID(nil), u.def.Dependencies...)
	return def, true
}

// List returns all registered ids in registration order.
func (r *Registry) List() []api.UnitID {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]api.UnitID(nil), r.order...)
}

// Len returns the number of registered units.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.order)
}

// Eager returns the eager units of order followed by every eager unit that
// order omits, in registration order. Ids that are not registered or not
// eager are dropped.
func (r *Registry) Eager(order []api.UnitID) []api.UnitID {
	r.mu.Lock()
	defer r.mu.Unlock()

	res := make([]api.UnitID, 0, len(r.order))
	seen := make(map[api.UnitID]bool, len(r.order))
	add := func(id api.UnitID) {
		u, ok := r.units[id]
		if !ok || seen[id] || u.def.Mode != api.ModeEager {
			return
		}
		seen[id] = true
		res = append(res, id)
	}
	for _, id := range order {
		add(id)
	}
	for _, id := range r.order {
		add(id)
	}
	return res
}

// Graph builds a dependency graph of all registered units.
func (r *Registry) Graph() *dependency.Graph {
	r.mu.Lock()
	defer r.mu.Unlock()

	g := dependency.New()
	for _, id := range r.order {
		u := r.units[id]
		deps := make([]dependency.NodeID, len(u.def.Dependencies))
		for i, d := range u.def.Dependencies {
			deps[i] = dependency.NodeID(d)
		}
		g.AddNode(dependency.Node{
			ID:        dependency.NodeID(id),
			DependsOn: deps,
			Eager:     u.def.Mode == api.ModeEager,
		})
	}
	return g
}

// State returns the current state of id; ok is false for unregistered ids.
func (r *Registry) State(id api.UnitID) (api.State, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.units[id]
	if !ok {
		return "", false
	}
	return u.state, true
}

// Instance returns the instance of a Ready unit and nil otherwise.
func (r *Registry) Instance(id api.UnitID) any {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.units[id]
	if !ok || u.state != api.StateReady {
		return nil
	}
	return u.instance
}

// Err returns the recorded error of a unit in Error and nil otherwise.
func (r *Registry) Err(id api.UnitID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.units[id]
	if !ok || u.state != api.StateError {
		return nil
	}
	return u.err
}

// Status returns the read-only view of one unit.
func (r *Registry) Status(id api.UnitID) (api.UnitStatus, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.units[id]
	if !ok {
		return api.UnitStatus{}, false
	}
	return u.status(), true
}

// Statuses returns every unit in registration order, taken under one lock.
func (r *Registry) Statuses() []api.UnitStatus {
	r.mu.Lock()
	defer r.mu.Unlock()
	res := make([]api.UnitStatus, 0, len(r.order))
	for _, id := range r.order {
		res = append(res, r.units[id].status())
	}
	return res
}

// Snapshot returns every unit in registration order together with the
// derived global state, taken under one lock.
func (r *Registry) Snapshot() ([]api.UnitStatus, api.GlobalState) {
	r.mu.Lock()
	defer r.mu.Unlock()
	res := make([]api.UnitStatus, 0, len(r.order))
	for _, id := range r.order {
		res = append(res, r.units[id].status())
	}
	return res, r.derivedGlobalLocked()
}

// DerivedGlobal computes the global state from the eager units: Error if any
// is in Error, Ready if all are Ready, Pending otherwise.
func (r *Registry) DerivedGlobal() api.GlobalState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.derivedGlobalLocked()
}

func (r *Registry) derivedGlobalLocked() api.GlobalState {
	allReady := true
	for _, id := range r.order {
		u := r.units[id]
		if u.def.Mode != api.ModeEager {
			continue
		}
		if u.state == api.StateError {
			return api.GlobalError
		}
		if u.state != api.StateReady {
			allReady = false
		}
	}
	if allReady {
		return api.GlobalReady
	}
	return api.GlobalPending
}

// readyUnitsLocked returns Ready units sorted by the time they became Ready,
// latest first.
func (r *Registry) readyUnitsLocked() []*unit {
	var ready []*unit
	for _, id := range r.order {
		if u := r.units[id]; u.state == api.StateReady {
			ready = append(ready, u)
		}
	}
	sort.SliceStable(ready, func(i, j int) bool {
		return ready[i].readySeq > ready[j].readySeq
	})
	return ready
}

func (r *Registry) markReadyLocked(u *unit, instance any) {
	r.readySeq++
	u.state = api.StateReady
	u.instance = instance
	u.err = nil
	u.readyAt = time.Now()
	u.readySeq = r.readySeq
}

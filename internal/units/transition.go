package units

import (
	"slices"
	"time"

	"github.com/google/uuid"

	"stagehand/internal/api"
)

// Transition records one state change of a unit.
type Transition struct {
	Unit      api.UnitID
	From      api.State
	To        api.State
	Err       error
	AttemptID string
}

// Outcome tells the caller of Begin what happened.
type Outcome int

const (
	// OutcomeStarted means the unit moved to Loading and the caller owns the
	// attempt: it must run the factory and report back through Complete.
	OutcomeStarted Outcome = iota
	// OutcomeReady means the unit already was Ready; nothing changed.
	OutcomeReady
	// OutcomeInFlight means another attempt is running; wait on Wait.
	OutcomeInFlight
	// OutcomeBlocked means a dependency was unknown or not Ready and the unit
	// moved to Error with that gating error.
	OutcomeBlocked
	// OutcomeRejected means the unit's state is not one the caller allowed.
	OutcomeRejected
)

func (o Outcome) String() string {
	switch o {
	case OutcomeStarted:
		return "started"
	case OutcomeReady:
		return "ready"
	case OutcomeInFlight:
		return "in-flight"
	case OutcomeBlocked:
		return "blocked"
	case OutcomeRejected:
		return "rejected"
	default:
		return "unknown"
	}
}

// Attempt is one invocation of a unit's factory.
type Attempt struct {
	Unit    api.UnitID
	ID      string
	Factory Factory
	Deps    Dependencies

	generation uint64
}

// BeginResult describes the effect of Begin.
type BeginResult struct {
	Outcome Outcome

	// Attempt is set for OutcomeStarted.
	Attempt *Attempt

	// Wait is closed when the in-flight attempt settles (OutcomeInFlight).
	Wait <-chan struct{}

	// State is the state observed before any change.
	State api.State

	// Err is the gating error for OutcomeBlocked and the unit's recorded
	// error for OutcomeRejected.
	Err error

	// Transition is set when the unit's state changed.
	Transition *Transition
}

// Begin atomically gates a unit on its dependencies and, if they are all
// Ready, moves it to Loading. Only units currently in one of the allowed
// states are started; Ready and Loading units are reported as such
// regardless of allowed.
func (r *Registry) Begin(id api.UnitID, allowed ...api.State) (BeginResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.units[id]
	if !ok {
		return BeginResult{}, &api.UnknownUnitError{Unit: id}
	}

	res := BeginResult{State: u.state}
	switch {
	case u.state == api.StateReady:
		res.Outcome = OutcomeReady
		return res, nil
	case u.state == api.StateLoading:
		res.Outcome = OutcomeInFlight
		res.Wait = u.done
		return res, nil
	case !slices.Contains(allowed, u.state):
		res.Outcome = OutcomeRejected
		res.Err = u.err
		return res, nil
	}

	if err := r.gateLocked(u); err != nil {
		from := u.state
		u.state = api.StateError
		u.instance = nil
		u.err = err
		res.Outcome = OutcomeBlocked
		res.Err = err
		res.Transition = &Transition{Unit: id, From: from, To: api.StateError, Err: err, AttemptID: u.attemptID}
		return res, nil
	}

	deps := make(depSet, len(u.def.Dependencies))
	for _, dep := range u.def.Dependencies {
		deps[dep] = r.units[dep].instance
	}

	from := u.state
	u.attempts++
	u.attemptID = uuid.NewString()
	u.generation++
	u.state = api.StateLoading
	u.err = nil
	u.done = make(chan struct{})

	res.Outcome = OutcomeStarted
	res.Attempt = &Attempt{
		Unit:       id,
		ID:         u.attemptID,
		Factory:    u.def.Factory,
		Deps:       deps,
		generation: u.generation,
	}
	res.Transition = &Transition{Unit: id, From: from, To: api.StateLoading, AttemptID: u.attemptID}
	return res, nil
}

// gateLocked returns the first dependency problem of u, or nil.
func (r *Registry) gateLocked(u *unit) error {
	for _, dep := range u.def.Dependencies {
		d, ok := r.units[dep]
		if !ok {
			return &api.UnknownUnitError{Unit: dep, ReferencedBy: u.def.ID}
		}
		if d.state != api.StateReady {
			return &api.DependencyNotReadyError{Unit: u.def.ID, Dependency: dep, State: d.state}
		}
	}
	return nil
}

// Complete records the result of an attempt. A nil err moves the unit to
// Ready with instance; otherwise it moves to Error with err. ok is false when
// the attempt was superseded in the meantime; its result is then discarded.
func (r *Registry) Complete(a *Attempt, instance any, err error) (Transition, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, exists := r.units[a.Unit]
	if !exists || u.generation != a.generation || u.state != api.StateLoading {
		return Transition{}, false
	}

	t := Transition{Unit: a.Unit, From: u.state, AttemptID: a.ID}
	if err != nil {
		u.state = api.StateError
		u.instance = nil
		u.err = err
		t.Err = err
	} else {
		r.markReadyLocked(u, instance)
	}
	t.To = u.state
	u.settle()
	return t, true
}

// SetInstance makes id Ready with value as its instance without running the
// factory. Any in-flight attempt is superseded.
func (r *Registry) SetInstance(id api.UnitID, value any) (Transition, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.units[id]
	if !ok {
		return Transition{}, &api.UnknownUnitError{Unit: id}
	}

	from := u.state
	u.generation++
	u.attemptID = uuid.NewString()
	r.markReadyLocked(u, value)
	u.settle()
	return Transition{Unit: id, From: from, To: api.StateReady, AttemptID: u.attemptID}, nil
}

// Reset returns the given units to Pending, clearing instance and error.
// Units already Pending are left alone; unknown ids are ignored.
func (r *Registry) Reset(ids ...api.UnitID) []Transition {
	r.mu.Lock()
	defer r.mu.Unlock()

	var res []Transition
	for _, id := range ids {
		u, ok := r.units[id]
		if !ok {
			continue
		}
		if t, changed := r.resetLocked(u); changed {
			res = append(res, t)
		}
	}
	return res
}

func (r *Registry) resetLocked(u *unit) (Transition, bool) {
	if u.state == api.StatePending {
		return Transition{}, false
	}
	t := Transition{Unit: u.def.ID, From: u.state, To: api.StatePending, AttemptID: u.attemptID}
	u.state = api.StatePending
	u.instance = nil
	u.err = nil
	u.readyAt = time.Time{}
	u.readySeq = 0
	u.generation++
	u.settle()
	return t, true
}

// Closing is a Ready instance handed back by Teardown.
type Closing struct {
	Unit     api.UnitID
	Instance any
}

// Teardown clears every unit to Pending. The instances of Ready units are
// returned latest-ready first so they can be closed in reverse order.
func (r *Registry) Teardown() ([]Closing, []Transition) {
	r.mu.Lock()
	defer r.mu.Unlock()

	ready := r.readyUnitsLocked()
	closing := make([]Closing, 0, len(ready))
	for _, u := range ready {
		closing = append(closing, Closing{Unit: u.def.ID, Instance: u.instance})
	}

	var transitions []Transition
	for _, id := range r.order {
		if t, changed := r.resetLocked(r.units[id]); changed {
			transitions = append(transitions, t)
		}
	}
	return closing, transitions
}

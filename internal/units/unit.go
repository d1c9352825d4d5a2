package units

import (
	"context"
	"fmt"
	"time"

	"stagehand/internal/api"
)

// Factory constructs the instance of a unit. It is invoked at most once per
// attempt and must return exactly once. deps gives access to the instances of
// the declared dependencies, all of which are Ready when the factory runs.
type Factory func(ctx context.Context, deps Dependencies) (any, error)

// Dependencies is the read-only view of dependency instances handed to a
// factory.
type Dependencies interface {
	// Get returns the instance of a declared dependency, or nil for an id
	// that was not declared.
	Get(id api.UnitID) any
}

// Definition declares a unit.
type Definition struct {
	ID           api.UnitID
	Factory      Factory
	Dependencies []api.UnitID
	Mode         api.Mode
}

// Dep returns the dependency instance id asserted to T.
func Dep[T any](deps Dependencies, id api.UnitID) (T, error) {
	var zero T
	if deps == nil {
		return zero, fmt.Errorf("dependency %s not available", id)
	}
	raw := deps.Get(id)
	if raw == nil {
		return zero, fmt.Errorf("dependency %s not available", id)
	}
	v, ok := raw.(T)
	if !ok {
		return zero, fmt.Errorf("dependency %s has unexpected type %T", id, raw)
	}
	return v, nil
}

// depSet is the Dependencies handed to factories; it is captured when an
// attempt begins and never changes afterwards.
type depSet map[api.UnitID]any

func (d depSet) Get(id api.UnitID) any {
	return d[id]
}

// unit is the mutable per-unit record. All fields are guarded by
// Registry.mu.
type unit struct {
	def Definition

	state     api.State
	instance  any
	err       error
	attempts  int
	attemptID string
	readyAt   time.Time
	readySeq  uint64

	// generation is bumped whenever the current attempt is superseded
	// (reset, teardown, direct instance assignment).
	generation uint64
	// done is closed when the in-flight attempt settles or is superseded.
	done chan struct{}
}

func (u *unit) status() api.UnitStatus {
	return api.UnitStatus{
		ID:           u.def.ID,
		Mode:         u.def.Mode,
		State:        u.state,
		Dependencies: append([]api.UnitID(nil), u.def.Dependencies...),
		Error:        u.err,
		Attempts:     u.attempts,
		AttemptID:    u.attemptID,
		ReadyAt:      u.readyAt,
	}
}

// settle closes the done channel of the in-flight attempt, if any.
func (u *unit) settle() {
	if u.done != nil {
		close(u.done)
		u.done = nil
	}
}

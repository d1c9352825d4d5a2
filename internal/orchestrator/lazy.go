package orchestrator

import (
	"context"
	"fmt"

	"stagehand/internal/api"
)

var triggerStates = []api.State{api.StatePending}

func rejectAcquire(id api.UnitID, state api.State, unitErr error) error {
	if unitErr != nil {
		return unitErr
	}
	return fmt.Errorf("unit %s is %s: %w", id, state, api.ErrUnitNotReady)
}

// Acquire returns the instance of id. A Pending lazy unit is triggered first;
// a unit that is Loading is waited on. A unit in Error returns its recorded
// error; use RetryInitialization to run it again. Eager units are only ever
// started by Start, so a Pending eager unit yields ErrUnitNotReady.
//
// Triggering does not cascade: a lazy unit whose lazy dependency was never
// triggered fails with DependencyNotReadyError.
func (o *Orchestrator) Acquire(ctx context.Context, id api.UnitID) (any, error) {
	def, ok := o.registry.Get(id)
	if !ok {
		return nil, &api.UnknownUnitError{Unit: id}
	}

	allowed := triggerStates
	if def.Mode == api.ModeEager {
		allowed = nil
	}
	if err := o.drive(ctx, nil, id, allowed, rejectAcquire); err != nil {
		return nil, err
	}

	instance := o.registry.Instance(id)
	if instance == nil {
		// reset between the transition and this read
		state, _ := o.registry.State(id)
		return nil, rejectAcquire(id, state, nil)
	}
	return instance, nil
}

// Trigger starts a Pending lazy unit and waits for the outcome.
func (o *Orchestrator) Trigger(ctx context.Context, id api.UnitID) error {
	_, err := o.Acquire(ctx, id)
	return err
}

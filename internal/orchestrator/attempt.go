package orchestrator

import (
	"context"
	"fmt"
	"io"

	"stagehand/internal/api"
	"stagehand/internal/dependency"
	"stagehand/internal/units"
	"stagehand/pkg/logging"
)

// rejectFunc builds the error returned when a unit is in a state the caller
// may not start it from.
type rejectFunc func(id api.UnitID, state api.State, unitErr error) error

// drive runs id through the per-unit transition: gate on dependencies, mark
// Loading, await the factory, record Ready or Error. Units in a state outside
// allowed are handed to reject. A unit that is already Loading is waited on
// instead of being started twice.
//
// With run set, drive belongs to a startup run: it starts nothing once the
// run has ended, and it stops with ErrStartupInterrupted when the attempt it
// started or waited on is superseded. Without a run, a superseded attempt is
// driven again from the unit's new state.
func (o *Orchestrator) drive(ctx context.Context, run *startRun, id api.UnitID, allowed []api.State, reject rejectFunc) error {
	for {
		res, err := o.begin(run, id, allowed)
		if err != nil {
			return err
		}
		if res.Transition != nil {
			o.record(*res.Transition)
		}

		switch res.Outcome {
		case units.OutcomeReady:
			return nil
		case units.OutcomeBlocked:
			return res.Err
		case units.OutcomeRejected:
			return reject(id, res.State, res.Err)
		case units.OutcomeInFlight:
			select {
			case <-res.Wait:
			case <-ctx.Done():
				return ctx.Err()
			}
			state, _ := o.registry.State(id)
			if state == api.StateError {
				return o.registry.Err(id)
			}
			// Ready returns on the next Begin; Pending means the attempt we
			// waited on was superseded by a reset.
			if state == api.StatePending && run != nil {
				return run.interrupted(id)
			}
		case units.OutcomeStarted:
			superseded, err := o.run(ctx, res.Attempt)
			if !superseded {
				return err
			}
			if run != nil {
				return run.interrupted(id)
			}
		}
	}
}

// begin starts the next attempt of id. For a startup run the check that the
// run is still current and the Begin happen under mu, which Shutdown holds
// while tearing down, so no attempt of an ended run starts after teardown.
func (o *Orchestrator) begin(run *startRun, id api.UnitID, allowed []api.State) (units.BeginResult, error) {
	if run == nil {
		return o.registry.Begin(id, allowed...)
	}
	o.mu.RLock()
	defer o.mu.RUnlock()
	if o.runGen != run.gen {
		return units.BeginResult{}, run.interrupted(id)
	}
	return o.registry.Begin(id, allowed...)
}

// run awaits the factory of a started attempt and records its result.
// superseded is true when the attempt was overtaken while the factory ran
// and its result was discarded.
func (o *Orchestrator) run(ctx context.Context, a *units.Attempt) (superseded bool, err error) {
	logging.Debug("Orchestrator", "Initializing unit %s (attempt %s)", a.Unit, a.ID)

	instance, ferr := callFactory(ctx, a)
	if ferr == nil && instance == nil {
		ferr = api.ErrNoInstance
	}
	if ferr != nil {
		ferr = &api.FactoryError{Unit: a.Unit, Err: ferr}
		instance = nil
	}

	t, applied := o.registry.Complete(a, instance, ferr)
	if !applied {
		logging.Debug("Orchestrator", "Discarding result of superseded attempt %s for unit %s", a.ID, a.Unit)
		return true, nil
	}
	o.record(t)
	return false, ferr
}

// callFactory invokes the factory, converting a panic into an error.
func callFactory(ctx context.Context, a *units.Attempt) (instance any, err error) {
	defer func() {
		if r := recover(); r != nil {
			instance = nil
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return a.Factory(ctx, a.Deps)
}

type contextCloser interface {
	Close(ctx context.Context) error
}

// closeInstance closes instances that know how to close themselves.
func closeInstance(ctx context.Context, instance any) error {
	switch c := instance.(type) {
	case contextCloser:
		return c.Close(ctx)
	case io.Closer:
		return c.Close()
	default:
		return nil
	}
}

func dependencyID(id api.UnitID) dependency.NodeID {
	return dependency.NodeID(id)
}

func dependencyIDs(ids []api.UnitID) []dependency.NodeID {
	res := make([]dependency.NodeID, len(ids))
	for i, id := range ids {
		res[i] = dependency.NodeID(id)
	}
	return res
}

func unitIDs(ids []dependency.NodeID) []api.UnitID {
	res := make([]api.UnitID, len(ids))
	for i, id := range ids {
		res[i] = api.UnitID(id)
	}
	return res
}

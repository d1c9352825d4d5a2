package orchestrator

import (
	"context"
	"errors"
	"fmt"

	"stagehand/internal/api"
	"stagehand/pkg/logging"
)

var retryStates = []api.State{api.StateError}

func rejectRetry(id api.UnitID, state api.State, _ error) error {
	return fmt.Errorf("unit %s is %s: %w", id, state, api.ErrNotRetryable)
}

// RetryInitialization runs the initialization of a unit in Error again.
// Dependencies are re-validated, so a unit that failed because a dependency
// was not Ready only succeeds once that dependency is. Retrying a Ready unit
// is a no-op; Pending and Loading units return ErrNotRetryable. No other
// unit's state is touched.
func (o *Orchestrator) RetryInitialization(ctx context.Context, id api.UnitID) error {
	state, ok := o.registry.State(id)
	if !ok {
		return &api.UnknownUnitError{Unit: id}
	}
	if state == api.StateLoading {
		return rejectRetry(id, state, nil)
	}

	logging.Info("Orchestrator", "Retrying initialization of unit %s", id)
	return o.drive(ctx, nil, id, retryStates, rejectRetry)
}

// RetryAll retries every unit currently in Error, dependencies before
// dependents. Each retry is independent: one failure does not stop the
// others. Units that were never started are not started. The returned error
// joins every failed retry.
func (o *Orchestrator) RetryAll(ctx context.Context) error {
	var failed []api.UnitID
	for _, id := range o.retryOrder() {
		if state, _ := o.registry.State(id); state == api.StateError {
			failed = append(failed, id)
		}
	}
	if len(failed) == 0 {
		return nil
	}

	logging.Info("Orchestrator", "Retrying %d failed units: %v", len(failed), failed)

	var errs []error
	for _, id := range failed {
		if err := o.RetryInitialization(ctx, id); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// retryOrder is a dependency order of all registered units, falling back to
// registration order for cyclic graphs.
func (o *Orchestrator) retryOrder() []api.UnitID {
	order, err := o.registry.Graph().TopologicalSort(dependencyIDs(o.registry.HintOrder()))
	if err != nil {
		return o.registry.List()
	}
	return unitIDs(order)
}

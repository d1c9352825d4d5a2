package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"stagehand/internal/api"
	"stagehand/internal/dependency"
	"stagehand/pkg/logging"
)

// startStates are the states a startup run may move an eager unit out of.
// Error is included so that a second run resumes after a failure.
var startStates = []api.State{api.StatePending, api.StateError}

// startRun identifies one startup run. Shutdown ends the current run by
// bumping the orchestrator's run generation.
type startRun struct {
	gen uint64
}

func (r *startRun) interrupted(id api.UnitID) error {
	return fmt.Errorf("unit %s: %w", id, api.ErrStartupInterrupted)
}

func rejectStart(id api.UnitID, state api.State, unitErr error) error {
	if unitErr != nil {
		return unitErr
	}
	return fmt.Errorf("unit %s is %s", id, state)
}

// Plan validates the hint order against the dependency graph and returns the
// order in which a startup run walks the eager units.
//
// Hint entries that are not registered and dependency cycles always reject
// the plan. Eager units missing from the hint are appended in registration
// order. A hint that places a unit before one of its dependencies is
// rejected under OrderStrict and repaired under OrderReorder.
func (o *Orchestrator) Plan() ([]api.UnitID, error) {
	hint := o.registry.HintOrder()
	herr := &api.HintOrderError{}

	for _, id := range hint {
		if _, ok := o.registry.Get(id); !ok {
			herr.Unknown = append(herr.Unknown, id)
		}
	}

	g := o.registry.Graph()
	if cycle := g.FindCycle(); cycle != nil {
		herr.Cycle = unitIDs(cycle)
	}
	if len(herr.Unknown) > 0 || len(herr.Cycle) > 0 {
		return nil, herr
	}

	for _, edge := range g.Missing() {
		logging.Warn("Orchestrator", "Unit %s depends on unregistered unit %s and will fail to start", edge.From, edge.To)
	}

	eager := g.Subgraph(func(n dependency.Node) bool { return n.Eager })
	for _, id := range eager.IDs() {
		for _, dep := range g.Dependencies(id) {
			if n := g.Get(dep); n != nil && !n.Eager {
				logging.Warn("Orchestrator", "Eager unit %s depends on lazy unit %s; it only starts once %s was triggered", id, dep, dep)
			}
		}
	}

	order := o.registry.Eager(hint)
	violations := eager.ValidateOrder(dependencyIDs(order))
	if len(violations) == 0 {
		return order, nil
	}

	if o.cfg.OrderPolicy == OrderReorder {
		sorted, err := eager.TopologicalSort(dependencyIDs(order))
		if err != nil {
			return nil, err
		}
		logging.Warn("Orchestrator", "Hint order violates %d dependencies, using %v instead", len(violations), sorted)
		return unitIDs(sorted), nil
	}

	for _, v := range violations {
		herr.Violations = append(herr.Violations, api.OrderViolation{
			Unit:       api.UnitID(v.Node),
			Dependency: api.UnitID(v.Dependency),
		})
	}
	return nil, herr
}

// Start runs the startup algorithm over the eager units.
//
// The hint order is validated first; a rejected plan leaves every unit and
// the global state untouched. Otherwise the global state becomes Loading and
// each eager unit that is not Ready yet is gated on its dependencies and
// initialized. The first failure, whether a gating or a factory failure,
// sets the global state to Error and stops the run; units that are already
// Ready stay usable.
//
// Start may be called again after a failure: Ready units are skipped and
// the remaining ones are attempted. It returns the plan error, or the error
// of the unit that stopped the run.
//
// A Shutdown during the run ends it, as does a reset of the unit being
// initialized: no further unit is started and Start returns
// ErrStartupInterrupted without moving the global state to Error.
func (o *Orchestrator) Start(ctx context.Context) error {
	order, err := o.Plan()
	if err != nil {
		logging.Error("Orchestrator", err, "Rejected startup plan")
		return err
	}

	o.mu.Lock()
	if o.running {
		o.mu.Unlock()
		return api.ErrStartupInProgress
	}
	o.runGen++
	run := &startRun{gen: o.runGen}
	o.started = true
	o.running = true
	o.runFailed = false
	o.mu.Unlock()
	o.refreshGlobal()

	logging.Info("Orchestrator", "Starting %d eager units (parallel=%t): %v", len(order), o.cfg.Parallel, order)

	if o.cfg.Parallel {
		err = o.startConcurrent(ctx, run, order)
	} else {
		err = o.startSequential(ctx, run, order)
	}

	o.mu.Lock()
	if o.runGen == run.gen {
		o.running = false
	}
	o.mu.Unlock()
	o.refreshGlobal()

	if errors.Is(err, api.ErrStartupInterrupted) {
		logging.Warn("Orchestrator", "Startup interrupted: %v", err)
		return err
	}
	if err != nil {
		return err
	}
	logging.Info("Orchestrator", "Startup finished, global state %s", o.GlobalState())
	return nil
}

// failRun moves the global state of a still current run to Error. An
// interrupted run does not fail.
func (o *Orchestrator) failRun(run *startRun, err error) {
	if errors.Is(err, api.ErrStartupInterrupted) {
		return
	}
	o.mu.Lock()
	if o.runGen == run.gen {
		o.runFailed = true
	}
	o.mu.Unlock()
	o.refreshGlobal()
}

func (o *Orchestrator) startSequential(ctx context.Context, run *startRun, order []api.UnitID) error {
	for _, id := range order {
		if err := o.drive(ctx, run, id, startStates, rejectStart); err != nil {
			o.failRun(run, err)
			return err
		}
	}
	return nil
}

// startConcurrent launches every eager unit as soon as all of its eager
// dependencies have settled. The first failure or interruption stops further
// launches; factories already running finish and record their unit's state.
func (o *Orchestrator) startConcurrent(ctx context.Context, run *startRun, order []api.UnitID) error {
	var g errgroup.Group
	if o.cfg.MaxConcurrency > 0 {
		g.SetLimit(o.cfg.MaxConcurrency)
	}

	inRun := make(map[api.UnitID]bool, len(order))
	for _, id := range order {
		inRun[id] = true
	}

	var (
		mu       sync.Mutex
		settled  = make(map[api.UnitID]bool, len(order))
		firstErr error
	)
	launched := make(map[api.UnitID]bool, len(order))
	done := make(chan struct{}, len(order))
	inFlight := 0

	launchable := func(id api.UnitID) bool {
		def, _ := o.registry.Get(id)
		mu.Lock()
		defer mu.Unlock()
		for _, dep := range def.Dependencies {
			if inRun[dep] && !settled[dep] {
				return false
			}
		}
		return true
	}
	failed := func() bool {
		mu.Lock()
		defer mu.Unlock()
		return firstErr != nil
	}

	for {
		for _, id := range order {
			if failed() {
				break
			}
			if launched[id] || !launchable(id) {
				continue
			}
			launched[id] = true
			inFlight++
			id := id
			g.Go(func() error {
				err := o.drive(ctx, run, id, startStates, rejectStart)
				mu.Lock()
				settled[id] = true
				first := err != nil && firstErr == nil
				if first {
					firstErr = err
				}
				mu.Unlock()
				if first {
					o.failRun(run, err)
				}
				done <- struct{}{}
				return nil
			})
		}
		if inFlight == 0 {
			break
		}
		<-done
		inFlight--
	}

	_ = g.Wait()

	mu.Lock()
	defer mu.Unlock()
	return firstErr
}

package orchestrator

import (
	"context"

	"stagehand/internal/api"
)

// Adapter adapts the orchestrator to implement api.ConsumerHandler
type Adapter struct {
	orchestrator *Orchestrator
}

// NewAPIAdapter creates a new orchestrator adapter
func NewAPIAdapter(orchestrator *Orchestrator) *Adapter {
	return &Adapter{
		orchestrator: orchestrator,
	}
}

// Register registers the adapter with the API
func (a *Adapter) Register() {
	api.RegisterConsumer(a)
}

// Read-only queries
func (a *Adapter) GetContext(id api.UnitID) any {
	return a.orchestrator.GetContext(id)
}

func (a *Adapter) IsReady(id api.UnitID) bool {
	return a.orchestrator.IsReady(id)
}

func (a *Adapter) GetError(id api.UnitID) error {
	return a.orchestrator.GetError(id)
}

func (a *Adapter) GlobalState() api.GlobalState {
	return a.orchestrator.GlobalState()
}

func (a *Adapter) Snapshot() api.Snapshot {
	return a.orchestrator.Snapshot()
}

// Mutation entry points
func (a *Adapter) Acquire(ctx context.Context, id api.UnitID) (any, error) {
	return a.orchestrator.Acquire(ctx, id)
}

func (a *Adapter) RetryInitialization(ctx context.Context, id api.UnitID) error {
	return a.orchestrator.RetryInitialization(ctx, id)
}

func (a *Adapter) RetryAll(ctx context.Context) error {
	return a.orchestrator.RetryAll(ctx)
}

func (a *Adapter) SetSession(value any) error {
	return a.orchestrator.SetSession(value)
}

func (a *Adapter) Subscribe() <-chan api.StateChangedEvent {
	return a.orchestrator.Subscribe()
}

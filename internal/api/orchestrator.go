package api

import (
	"context"
)

// ConsumerHandler is implemented by the orchestrator and registered with the
// API layer. Collaborators never import the orchestrator package; they reach
// it through this interface.
type ConsumerHandler interface {
	// Read-only queries
	GetContext(id UnitID) any
	IsReady(id UnitID) bool
	GetError(id UnitID) error
	GlobalState() GlobalState
	Snapshot() Snapshot

	// Mutation entry points
	Acquire(ctx context.Context, id UnitID) (any, error)
	RetryInitialization(ctx context.Context, id UnitID) error
	RetryAll(ctx context.Context) error
	SetSession(value any) error

	// State change events
	Subscribe() <-chan StateChangedEvent
}

// ConsumerAPI is the API-layer view of the orchestrator used by dependents.
// Every query degrades gracefully when no handler is registered: readers get
// the zero answer and mutations return ErrConsumerNotRegistered.
type ConsumerAPI interface {
	ConsumerHandler
}

// consumerAPI delegates to the registered ConsumerHandler.
type consumerAPI struct {
	// No fields - uses handlers from registry
}

// NewConsumerAPI creates a new API wrapper for the orchestrator.
func NewConsumerAPI() ConsumerAPI {
	return &consumerAPI{}
}

// GetContext returns the instance of a Ready unit, or nil.
func (a *consumerAPI) GetContext(id UnitID) any {
	handler := GetConsumer()
	if handler == nil {
		return nil
	}
	return handler.GetContext(id)
}

// IsReady reports whether the unit is Ready.
func (a *consumerAPI) IsReady(id UnitID) bool {
	handler := GetConsumer()
	if handler == nil {
		return false
	}
	return handler.IsReady(id)
}

// GetError returns the recorded error of a unit in Error, or nil.
func (a *consumerAPI) GetError(id UnitID) error {
	handler := GetConsumer()
	if handler == nil {
		return nil
	}
	return handler.GetError(id)
}

// GlobalState returns the aggregate state, Pending when nothing is registered.
func (a *consumerAPI) GlobalState() GlobalState {
	handler := GetConsumer()
	if handler == nil {
		return GlobalPending
	}
	return handler.GlobalState()
}

// Snapshot returns a consistent view of all units.
func (a *consumerAPI) Snapshot() Snapshot {
	handler := GetConsumer()
	if handler == nil {
		return Snapshot{Global: GlobalPending}
	}
	return handler.Snapshot()
}

// Acquire returns a unit's instance, triggering it first if it is lazy.
func (a *consumerAPI) Acquire(ctx context.Context, id UnitID) (any, error) {
	handler := GetConsumer()
	if handler == nil {
		return nil, ErrConsumerNotRegistered
	}
	return handler.Acquire(ctx, id)
}

// RetryInitialization re-runs the initialization of a unit in Error.
func (a *consumerAPI) RetryInitialization(ctx context.Context, id UnitID) error {
	handler := GetConsumer()
	if handler == nil {
		return ErrConsumerNotRegistered
	}
	return handler.RetryInitialization(ctx, id)
}

// RetryAll retries every unit currently in Error.
func (a *consumerAPI) RetryAll(ctx context.Context) error {
	handler := GetConsumer()
	if handler == nil {
		return ErrConsumerNotRegistered
	}
	return handler.RetryAll(ctx)
}

// SetSession hands identity data to the session unit.
func (a *consumerAPI) SetSession(value any) error {
	handler := GetConsumer()
	if handler == nil {
		return ErrConsumerNotRegistered
	}
	return handler.SetSession(value)
}

// Subscribe returns a channel for receiving state change events.
func (a *consumerAPI) Subscribe() <-chan StateChangedEvent {
	handler := GetConsumer()
	if handler == nil {
		// Return a closed channel if no handler is registered
		ch := make(chan StateChangedEvent)
		close(ch)
		return ch
	}
	return handler.Subscribe()
}

// ContextAs returns the instance of a Ready unit asserted to T. ok is false
// when the unit is not Ready or its instance has a different type.
func ContextAs[T any](c ConsumerHandler, id UnitID) (T, bool) {
	var zero T
	if c == nil {
		return zero, false
	}
	v, ok := c.GetContext(id).(T)
	if !ok {
		return zero, false
	}
	return v, true
}

// Package api is the shared vocabulary of stagehand and the single point
// through which collaborators reach the orchestrator.
//
// It holds three things:
//
//  1. Types shared by every package: UnitID, Mode, State, GlobalState,
//     UnitStatus, Snapshot and StateChangedEvent.
//
//  2. The error taxonomy: DependencyNotReadyError, FactoryError,
//     UnknownUnitError, HintOrderError and the sentinel errors of the
//     registry and orchestrator, with Is* helpers that see through wrapping.
//
//  3. A small service locator. The orchestrator registers itself as the
//     ConsumerHandler during bootstrap; dependents obtain it with
//     GetConsumer or use the nil-safe ConsumerAPI wrapper returned by
//     NewConsumerAPI. This keeps presentation code and unit factories free of
//     imports on the orchestrator package.
//
// # Consumer contract
//
//	consumer := api.NewConsumerAPI()
//	if !consumer.IsReady(catalog.Remote) {
//	    return // render a loading state instead
//	}
//	client, _ := api.ContextAs[*catalog.RemoteClient](consumer, catalog.Remote)
//
// GetContext never fails: it returns nil for any unit that is not Ready,
// including ids that were never registered. Mutations (Acquire, retries,
// SetSession) return ErrConsumerNotRegistered when no orchestrator is present.
//
// The package does not import any other internal package.
package api

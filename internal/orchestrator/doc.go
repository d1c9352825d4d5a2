// Package orchestrator drives stagehand units from Pending to Ready or Error.
//
// The orchestrator holds no unit state of its own. Every unit lives in a
// units.Registry and changes state only through the transitions started
// here, which keeps the registry the single writer-guarded container for
// the whole process.
//
// # Startup
//
// Start validates the hint order (see Plan), sets the global state to
// Loading and walks the eager units:
//
//   - Ready units are skipped, so Start can be called again to resume.
//   - A unit whose dependencies are not all Ready moves to Error with a
//     DependencyNotReadyError (or UnknownUnitError for an unregistered
//     dependency). Units are never reordered implicitly.
//   - Otherwise the unit moves to Loading and its factory is awaited.
//   - The first failure sets the global state to Error and stops the run.
//     Units that are already Ready stay usable.
//
// With Config.Parallel the same rules hold, but independent units run
// concurrently on an errgroup bounded by Config.MaxConcurrency. A unit is
// launched only after all of its eager dependencies settled, and the first
// failure stops further launches while running factories finish.
//
// # Consumers
//
// The orchestrator implements api.ConsumerHandler; NewAPIAdapter(o).Register()
// makes it reachable through the api package. Besides the queries
// (GetContext, IsReady, GetError, GlobalState, Snapshot) it offers:
//
//   - Acquire / Trigger: start a lazy unit on first use.
//   - RetryInitialization / RetryAll: run failed units again.
//   - SetSession: hand identity data to the session unit; nil signs out and
//     resets everything that depends on it.
//   - Reset: explicit reset of a unit and its dependents.
//   - Shutdown: end a running startup and close Ready instances in reverse
//     readiness order.
//
// # Events
//
// Subscribe returns a buffered channel receiving one event per unit
// transition and one per global state change. Slow subscribers miss events
// rather than block the orchestrator.
package orchestrator

// Package dependency provides a directed graph of unit dependencies used to
// validate and compute the startup order of stagehand units.
//
// # Core Concepts
//
// Node: a unit id with its list of dependencies and whether it is eager.
//
// Graph: nodes keyed by id, kept in insertion order so that every query is
// deterministic.
//
// # Operations
//
//   - Dependencies / Dependents: direct edges in either direction.
//   - TransitiveDependents: everything that must be reset when a unit is
//     reset (used for sign-out).
//   - Missing: edges pointing at ids that are not in the graph.
//   - Subgraph: restrict the graph, e.g. to eager units.
//   - FindCycle: one cycle, if any.
//   - ValidateOrder: dependents placed before their dependencies in a
//     hand-maintained hint order.
//   - TopologicalSort: a stable dependency order that uses the hint as the
//     tie-breaker, so a valid hint comes back unchanged.
//
// # Usage Example
//
//	g := dependency.New()
//	g.AddNode(dependency.Node{ID: "remote", Eager: true})
//	g.AddNode(dependency.Node{ID: "devices", Eager: true, DependsOn: []dependency.NodeID{"remote"}})
//
//	eager := g.Subgraph(func(n dependency.Node) bool { return n.Eager })
//	if v := eager.ValidateOrder([]dependency.NodeID{"devices", "remote"}); len(v) > 0 {
//	    // devices is ordered before remote
//	}
//	order, err := eager.TopologicalSort([]dependency.NodeID{"devices", "remote"})
//	// order == [remote devices]
//
// # Thread Safety
//
// Graph is not thread-safe. The orchestrator builds a fresh graph from a
// registry snapshot whenever it needs one.
package dependency

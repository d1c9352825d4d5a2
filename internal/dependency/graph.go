// internal/dependency/graph.go
package dependency

import (
	"fmt"
	"strings"
)

// NodeID is the unique identifier for a node inside a dependency graph.
type NodeID string

// Node represents a unit together with its dependency list.
//
// Eager marks nodes that take part in the startup run. Ordering checks and
// topological sorting are usually performed on the eager subgraph only (see
// Subgraph).
type Node struct {
	ID        NodeID
	DependsOn []NodeID
	Eager     bool
}

// Edge is a dependency from From onto To.
type Edge struct {
	From NodeID
	To   NodeID
}

// Violation reports a node placed before one of its dependencies in an order.
type Violation struct {
	Node       NodeID
	Dependency NodeID
}

// CycleError is returned by TopologicalSort when the graph is not acyclic.
type CycleError struct {
	// Cycle lists the nodes of one cycle, first node repeated at the end.
	Cycle []NodeID
}

func (e *CycleError) Error() string {
	parts := make([]string, len(e.Cycle))
	for i, id := range e.Cycle {
		parts[i] = string(id)
	}
	return fmt.Sprintf("dependency cycle: %s", strings.Join(parts, " -> "))
}

// Graph is a small helper to answer dependency queries. It is *not*
// thread-safe by itself; callers must synchronise if they write concurrently.
//
// Nodes keep their insertion order, which makes every query below
// deterministic.
type Graph struct {
	nodes map[NodeID]*Node
	order []NodeID
}

// New returns an empty graph.
func New() *Graph {
	return &Graph{nodes: make(map[NodeID]*Node)}
}

// AddNode adds (or replaces) a node in the graph. A replaced node keeps its
// original position.
func (g *Graph) AddNode(n Node) {
	if g.nodes == nil {
		g.nodes = make(map[NodeID]*Node)
	}
	if _, exists := g.nodes[n.ID]; !exists {
		g.order = append(g.order, n.ID)
	}
	// Copy to avoid external mutations
	copied := n
	copied.DependsOn = append([]NodeID(nil), n.DependsOn...)
	g.nodes[n.ID] = &copied
}

// Get returns a pointer to the stored node or nil if it does not exist.
func (g *Graph) Get(id NodeID) *Node {
	return g.nodes[id]
}

// Len returns the number of nodes.
func (g *Graph) Len() int {
	return len(g.order)
}

// IDs returns all node ids in insertion order.
func (g *Graph) IDs() []NodeID {
	return append([]NodeID(nil), g.order...)
}

// Dependencies returns a slice of immediate dependency IDs for the given node.
func (g *Graph) Dependencies(id NodeID) []NodeID {
	if n, ok := g.nodes[id]; ok {
		// Return a copy to avoid callers modifying internal slice.
		depsCopy := make([]NodeID, len(n.DependsOn))
		copy(depsCopy, n.DependsOn)
		return depsCopy
	}
	return nil
}

// Dependents returns all node IDs that have a direct dependency on the given
// node, in insertion order.
func (g *Graph) Dependents(id NodeID) []NodeID {
	var res []NodeID
	for _, nid := range g.order {
		for _, dep := range g.nodes[nid].DependsOn {
			if dep == id {
				res = append(res, nid)
				break
			}
		}
	}
	return res
}

// TransitiveDependents returns every node that depends on id directly or
// indirectly, breadth first. id itself is never included.
func (g *Graph) TransitiveDependents(id NodeID) []NodeID {
	seen := map[NodeID]bool{id: true}
	var res []NodeID
	queue := []NodeID{id}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, dep := range g.Dependents(cur) {
			if seen[dep] {
				continue
			}
			seen[dep] = true
			res = append(res, dep)
			queue = append(queue, dep)
		}
	}
	return res
}

// Missing returns every edge whose target is not a node of the graph.
func (g *Graph) Missing() []Edge {
	var res []Edge
	for _, nid := range g.order {
		for _, dep := range g.nodes[nid].DependsOn {
			if _, ok := g.nodes[dep]; !ok {
				res = append(res, Edge{From: nid, To: dep})
			}
		}
	}
	return res
}

// Subgraph returns a graph holding the nodes accepted by keep. Edges pointing
// at dropped nodes are removed, so ordering queries on the result only
// consider relations inside the selection.
func (g *Graph) Subgraph(keep func(Node) bool) *Graph {
	sub := New()
	for _, nid := range g.order {
		if keep(*g.nodes[nid]) {
			sub.AddNode(*g.nodes[nid])
		}
	}
	for _, nid := range sub.order {
		n := sub.nodes[nid]
		deps := n.DependsOn[:0]
		for _, dep := range n.DependsOn {
			if _, ok := sub.nodes[dep]; ok {
				deps = append(deps, dep)
			}
		}
		n.DependsOn = deps
	}
	return sub
}

// FindCycle returns one dependency cycle, first node repeated at the end, or
// nil when the graph is acyclic. Edges to unknown nodes are ignored.
func (g *Graph) FindCycle() []NodeID {
	const (
		white = iota
		grey
		black
	)
	colour := make(map[NodeID]int, len(g.nodes))
	var stack []NodeID
	var cycle []NodeID

	var visit func(id NodeID) bool
	visit = func(id NodeID) bool {
		colour[id] = grey
		stack = append(stack, id)
		for _, dep := range g.nodes[id].DependsOn {
			if _, ok := g.nodes[dep]; !ok {
				continue
			}
			switch colour[dep] {
			case grey:
				for i, s := range stack {
					if s == dep {
						cycle = append(append([]NodeID(nil), stack[i:]...), dep)
						return true
					}
				}
			case white:
				if visit(dep) {
					return true
				}
			}
		}
		stack = stack[:len(stack)-1]
		colour[id] = black
		return false
	}

	for _, nid := range g.order {
		if colour[nid] == white && visit(nid) {
			return cycle
		}
	}
	return nil
}

// ValidateOrder checks that order places every dependency before its
// dependent. Nodes of the graph missing from order count as placed last;
// entries of order that are not graph nodes are ignored.
func (g *Graph) ValidateOrder(order []NodeID) []Violation {
	pos := make(map[NodeID]int, len(order))
	for i, id := range order {
		if _, ok := pos[id]; !ok {
			pos[id] = i
		}
	}
	position := func(id NodeID) int {
		if p, ok := pos[id]; ok {
			return p
		}
		return len(order)
	}

	var res []Violation
	for _, id := range g.order {
		p := position(id)
		for _, dep := range g.nodes[id].DependsOn {
			if _, ok := g.nodes[dep]; !ok {
				continue
			}
			if position(dep) >= p && dep != id {
				res = append(res, Violation{Node: id, Dependency: dep})
			}
		}
	}
	return res
}

// TopologicalSort returns all nodes with dependencies first. Among nodes that
// are ready at the same time the one earliest in hint wins; nodes absent
// from hint follow in insertion order. The sort is therefore stable: a hint
// that is already valid is returned unchanged.
func (g *Graph) TopologicalSort(hint []NodeID) ([]NodeID, error) {
	priority := make([]NodeID, 0, len(g.order))
	queued := make(map[NodeID]bool, len(g.order))
	for _, id := range hint {
		if _, ok := g.nodes[id]; ok && !queued[id] {
			priority = append(priority, id)
			queued[id] = true
		}
	}
	for _, id := range g.order {
		if !queued[id] {
			priority = append(priority, id)
			queued[id] = true
		}
	}

	done := make(map[NodeID]bool, len(priority))
	res := make([]NodeID, 0, len(priority))
	for len(res) < len(priority) {
		progressed := false
		for _, id := range priority {
			if done[id] || !g.depsDone(id, done) {
				continue
			}
			done[id] = true
			res = append(res, id)
			progressed = true
			break
		}
		if !progressed {
			return nil, &CycleError{Cycle: g.FindCycle()}
		}
	}
	return res, nil
}

func (g *Graph) depsDone(id NodeID, done map[NodeID]bool) bool {
	for _, dep := range g.nodes[id].DependsOn {
		if _, ok := g.nodes[dep]; !ok {
			continue
		}
		if !done[dep] {
			return false
		}
	}
	return true
}

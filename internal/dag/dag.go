// SPDX-License-Identifier: MPL-2.0

// Package dag orders workspace packages so that every package comes after the
// packages it depends on. It is used to derive the publish order.
package dag

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

// ErrCycle is the sentinel matched by every CycleError.
var ErrCycle = errors.New("dependency cycle")

type (
	// CycleError indicates that the graph contains a cycle, preventing a
	// complete ordering.
	CycleError struct {
		// Unresolved lists every node that could not be placed, in insertion
		// order. The first unplaced node comes first.
		Unresolved []string
		// Cycle is one concrete cycle among the unresolved nodes, with the
		// first node repeated at the end (A -> B -> A).
		Cycle []string
	}

	// Graph is a directed dependency graph. Nodes are identified by string
	// keys; an edge from A to B means "A depends on B", so B must be placed
	// before A.
	Graph struct {
		// deps maps each node to the nodes it depends on.
		deps map[string][]string
		// nodes tracks all nodes in insertion order for deterministic output.
		nodes []string
		// nodeSet provides O(1) lookup for node existence.
		nodeSet map[string]bool
	}
)

func (e *CycleError) Error() string {
	return fmt.Sprintf("dependency cycle detected: %s (unresolved: %s)",
		strings.Join(e.Cycle, " -> "), strings.Join(e.Unresolved, ", "))
}

// Is lets errors.Is match ErrCycle.
func (e *CycleError) Is(target error) bool { return target == ErrCycle }

// New creates an empty Graph.
func New() *Graph {
	return &Graph{
		deps:    make(map[string][]string),
		nodeSet: make(map[string]bool),
	}
}

// AddNode adds a node to the graph. If the node already exists, this is a no-op.
func (g *Graph) AddNode(name string) {
	if g.nodeSet[name] {
		return
	}
	g.nodeSet[name] = true
	g.nodes = append(g.nodes, name)
}

// AddDependency records that node depends on dependency. Both nodes are
// implicitly added if they don't exist. Duplicate edges are ignored.
func (g *Graph) AddDependency(node, dependency string) {
	g.AddNode(node)
	g.AddNode(dependency)
	if slices.Contains(g.deps[node], dependency) {
		return
	}
	g.deps[node] = append(g.deps[node], dependency)
}

// Nodes returns all nodes in insertion order.
func (g *Graph) Nodes() []string {
	return slices.Clone(g.nodes)
}

// Dependencies returns the direct dependencies of node in the order they were added.
func (g *Graph) Dependencies(node string) []string {
	return slices.Clone(g.deps[node])
}

// Len returns the number of nodes.
func (g *Graph) Len() int {
	return len(g.nodes)
}

// Order returns the nodes so that each appears after all of its
// dependencies. It repeatedly scans the remaining nodes in insertion order
// and places every node whose dependencies were all placed by earlier
// passes; nodes placed during a pass only become visible to the next one.
// When a pass places nothing, the remaining nodes are reported through a
// *CycleError and no partial order is returned. A self-dependency is a cycle.
func (g *Graph) Order() ([]string, error) {
	if len(g.nodes) == 0 {
		return []string{}, nil
	}

	placed := make(map[string]bool, len(g.nodes))
	remaining := slices.Clone(g.nodes)
	order := make([]string, 0, len(g.nodes))

	for len(remaining) > 0 {
		var ready, blocked []string
		for _, node := range remaining {
			if g.resolved(node, placed) {
				ready = append(ready, node)
			} else {
				blocked = append(blocked, node)
			}
		}
		if len(ready) == 0 {
			return nil, &CycleError{Unresolved: blocked, Cycle: g.findCycle(blocked[0], placed)}
		}
		for _, node := range ready {
			placed[node] = true
		}
		order = append(order, ready...)
		remaining = blocked
	}

	return order, nil
}

// Levels groups the order into passes: every node of a level depends only
// on nodes of earlier levels.
func (g *Graph) Levels() ([][]string, error) {
	order, err := g.Order()
	if err != nil {
		return nil, err
	}

	level := make(map[string]int, len(order))
	var levels [][]string
	for _, node := range order {
		l := 0
		for _, dep := range g.deps[node] {
			l = max(l, level[dep]+1)
		}
		level[node] = l
		if l == len(levels) {
			levels = append(levels, nil)
		}
		levels[l] = append(levels[l], node)
	}
	return levels, nil
}

func (g *Graph) resolved(node string, placed map[string]bool) bool {
	for _, dep := range g.deps[node] {
		if !placed[dep] {
			return false
		}
	}
	return true
}

// findCycle walks unplaced dependencies from start until a node repeats.
// Every unplaced node has at least one unplaced dependency, so the walk
// always closes a loop.
func (g *Graph) findCycle(start string, placed map[string]bool) []string {
	var path []string
	seen := make(map[string]int)
	node := start
	for {
		if i, ok := seen[node]; ok {
			return append(path[i:], node)
		}
		seen[node] = len(path)
		path = append(path, node)

		next := ""
		for _, dep := range g.deps[node] {
			if !placed[dep] {
				next = dep
				break
			}
		}
		if next == "" {
			return path
		}
		node = next
	}
}

// SPDX-License-Identifier: MPL-2.0

// Package depgraph classifies workspace dependencies into internal edges and
// external registry dependencies, and builds the publish dependency graph.
package depgraph

import (
	"slices"
	"strings"

	"github.com/emanate/emanate/internal/dag"
	"github.com/emanate/emanate/pkg/manifest"
)

// Result is the classified view of a workspace.
type Result struct {
	// Graph has one node per publish-eligible package, in member order, and
	// an edge for every dependency on another eligible package.
	Graph *dag.Graph
	// External lists dependencies that are not workspace members, one entry
	// per package name, sorted by name.
	External []manifest.Dependency
	// Internal maps each eligible package to the eligible packages it
	// depends on, in graph order.
	Internal map[string][]manifest.Dependency
}

// Build classifies the dependencies of ws. Dev-dependencies never create
// edges. Dependencies on members that are not publish-eligible are dropped:
// they are neither edges nor external.
func Build(ws *manifest.Workspace) *Result {
	eligible := make(map[string]bool)
	members := make(map[string]bool)
	for _, p := range ws.Packages {
		members[p.Name] = true
		if p.Publish {
			eligible[p.Name] = true
		}
	}

	res := &Result{
		Graph:    dag.New(),
		Internal: make(map[string][]manifest.Dependency),
	}
	external := make(map[string]manifest.Dependency)

	// Workspace-level entries take precedence over member declarations.
	for _, d := range ws.Dependencies {
		name := d.EffectiveName()
		if members[name] {
			continue
		}
		if _, ok := external[name]; !ok {
			external[name] = d
		}
	}

	for _, p := range ws.Eligible() {
		res.Graph.AddNode(p.Name)
	}

	for _, p := range ws.Eligible() {
		for _, d := range p.Dependencies {
			name := ws.EffectiveName(d)
			switch {
			case eligible[name]:
				res.Graph.AddDependency(p.Name, name)
				res.Internal[p.Name] = append(res.Internal[p.Name], d)
			case members[name]:
			default:
				if _, ok := external[name]; ok {
					continue
				}
				if d.Kind == manifest.KindWorkspace {
					if entry, ok := ws.Dependency(d.Name); ok {
						d = entry
					}
				}
				external[name] = d
			}
		}
	}

	res.External = make([]manifest.Dependency, 0, len(external))
	for _, d := range external {
		res.External = append(res.External, d)
	}
	slices.SortFunc(res.External, func(a, b manifest.Dependency) int {
		return strings.Compare(a.EffectiveName(), b.EffectiveName())
	})

	return res
}

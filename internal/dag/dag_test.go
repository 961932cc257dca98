// SPDX-License-Identifier: MPL-2.0

package dag

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"slices"
	"testing"
)

func TestOrder_EmptyGraph(t *testing.T) {
	t.Parallel()
	g := New()
	order, err := g.Order()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(order) != 0 {
		t.Errorf("expected empty order, got %v", order)
	}
}

func TestOrder_SingleNode(t *testing.T) {
	t.Parallel()
	g := New()
	g.AddNode("A")
	order, err := g.Order()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !slices.Equal(order, []string{"A"}) {
		t.Errorf("expected [A], got %v", order)
	}
}

func TestOrder_LinearChain(t *testing.T) {
	t.Parallel()
	g := New()
	// C depends on B, B depends on A.
	g.AddNode("C")
	g.AddNode("B")
	g.AddNode("A")
	g.AddDependency("C", "B")
	g.AddDependency("B", "A")

	order, err := g.Order()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	expected := []string{"A", "B", "C"}
	if !slices.Equal(order, expected) {
		t.Errorf("expected %v, got %v", expected, order)
	}
}

func TestOrder_PassSnapshot(t *testing.T) {
	t.Parallel()
	g := New()
	// A is ready on the first pass, but B only sees it on the second pass
	// even though B comes later in insertion order.
	g.AddNode("A")
	g.AddNode("B")
	g.AddNode("C")
	g.AddDependency("B", "A")

	order, err := g.Order()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	expected := []string{"A", "C", "B"}
	if !slices.Equal(order, expected) {
		t.Errorf("expected %v, got %v", expected, order)
	}
}

func TestOrder_Diamond(t *testing.T) {
	t.Parallel()
	g := New()
	g.AddNode("app")
	g.AddNode("left")
	g.AddNode("right")
	g.AddNode("core")
	g.AddDependency("app", "left")
	g.AddDependency("app", "right")
	g.AddDependency("left", "core")
	g.AddDependency("right", "core")

	order, err := g.Order()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	expected := []string{"core", "left", "right", "app"}
	if !slices.Equal(order, expected) {
		t.Errorf("expected %v, got %v", expected, order)
	}
}

func TestOrder_Deterministic(t *testing.T) {
	t.Parallel()
	build := func() *Graph {
		g := New()
		for _, n := range []string{"e", "d", "c", "b", "a"} {
			g.AddNode(n)
		}
		g.AddDependency("e", "a")
		g.AddDependency("d", "b")
		return g
	}

	first, err := build().Order()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for range 10 {
		again, err := build().Order()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !slices.Equal(first, again) {
			t.Fatalf("order changed between runs: %v vs %v", first, again)
		}
	}
	if !slices.Equal(first, []string{"c", "b", "a", "e", "d"}) {
		t.Errorf("unexpected order %v", first)
	}
}

func TestOrder_SimpleCycle(t *testing.T) {
	t.Parallel()
	g := New()
	g.AddDependency("A", "B")
	g.AddDependency("B", "A")

	order, err := g.Order()
	if order != nil {
		t.Errorf("expected no partial order, got %v", order)
	}
	var cycleErr *CycleError
	if !errors.As(err, &cycleErr) {
		t.Fatalf("expected *CycleError, got %T: %v", err, err)
	}
	if !errors.Is(err, ErrCycle) {
		t.Error("expected errors.Is(err, ErrCycle)")
	}
	if !slices.Equal(cycleErr.Unresolved, []string{"A", "B"}) {
		t.Errorf("Unresolved = %v", cycleErr.Unresolved)
	}
	if !slices.Equal(cycleErr.Cycle, []string{"A", "B", "A"}) {
		t.Errorf("Cycle = %v", cycleErr.Cycle)
	}
}

func TestOrder_SelfLoop(t *testing.T) {
	t.Parallel()
	g := New()
	g.AddNode("ok")
	g.AddDependency("A", "A")

	_, err := g.Order()
	var cycleErr *CycleError
	if !errors.As(err, &cycleErr) {
		t.Fatalf("expected *CycleError, got %T: %v", err, err)
	}
	if !slices.Equal(cycleErr.Unresolved, []string{"A"}) {
		t.Errorf("Unresolved = %v", cycleErr.Unresolved)
	}
	if !slices.Equal(cycleErr.Cycle, []string{"A", "A"}) {
		t.Errorf("Cycle = %v", cycleErr.Cycle)
	}
}

func TestOrder_CycleBehindDependent(t *testing.T) {
	t.Parallel()
	g := New()
	// top depends on a three-node cycle; top itself is unresolved but not
	// part of the cycle.
	g.AddDependency("top", "x")
	g.AddDependency("x", "y")
	g.AddDependency("y", "z")
	g.AddDependency("z", "x")
	g.AddNode("free")

	_, err := g.Order()
	var cycleErr *CycleError
	if !errors.As(err, &cycleErr) {
		t.Fatalf("expected *CycleError, got %T: %v", err, err)
	}
	if cycleErr.Unresolved[0] != "top" {
		t.Errorf("first unresolved = %q, want top", cycleErr.Unresolved[0])
	}
	if slices.Contains(cycleErr.Unresolved, "free") {
		t.Errorf("free node reported as unresolved: %v", cycleErr.Unresolved)
	}
	if !slices.Equal(cycleErr.Cycle, []string{"x", "y", "z", "x"}) {
		t.Errorf("Cycle = %v", cycleErr.Cycle)
	}
}

func TestOrder_DuplicateEdges(t *testing.T) {
	t.Parallel()
	g := New()
	g.AddDependency("B", "A")
	g.AddDependency("B", "A")

	if deps := g.Dependencies("B"); len(deps) != 1 {
		t.Errorf("expected duplicate edge to be ignored, got %v", deps)
	}
	order, err := g.Order()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !slices.Equal(order, []string{"A", "B"}) {
		t.Errorf("expected [A, B], got %v", order)
	}
}

func TestOrder_RandomAcyclicGraphs(t *testing.T) {
	t.Parallel()
	rng := rand.New(rand.NewPCG(1, 2))

	for iter := range 200 {
		n := 1 + rng.IntN(25)
		names := make([]string, n)
		for i := range names {
			names[i] = fmt.Sprintf("pkg-%02d", i)
		}
		// Shuffle insertion order while keeping edges pointing from higher
		// to lower original index, which can never produce a cycle.
		perm := rng.Perm(n)
		g := New()
		for _, i := range perm {
			g.AddNode(names[i])
		}
		type edge struct{ from, to string }
		var edges []edge
		for i := 1; i < n; i++ {
			for j := range i {
				if rng.IntN(4) == 0 {
					g.AddDependency(names[i], names[j])
					edges = append(edges, edge{names[i], names[j]})
				}
			}
		}

		order, err := g.Order()
		if err != nil {
			t.Fatalf("iteration %d: unexpected error: %v", iter, err)
		}
		if len(order) != n {
			t.Fatalf("iteration %d: order has %d nodes, want %d", iter, len(order), n)
		}
		for _, e := range edges {
			if slices.Index(order, e.to) >= slices.Index(order, e.from) {
				t.Fatalf("iteration %d: %s placed before its dependency %s in %v", iter, e.from, e.to, order)
			}
		}
	}
}

func TestLevels(t *testing.T) {
	t.Parallel()
	g := New()
	g.AddNode("core")
	g.AddNode("util")
	g.AddNode("app")
	g.AddDependency("util", "core")
	g.AddDependency("app", "util")
	g.AddDependency("app", "core")
	g.AddNode("docs")

	levels, err := g.Levels()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := [][]string{{"core", "docs"}, {"util"}, {"app"}}
	if len(levels) != len(want) {
		t.Fatalf("levels = %v, want %v", levels, want)
	}
	for i := range want {
		if !slices.Equal(levels[i], want[i]) {
			t.Errorf("level %d = %v, want %v", i, levels[i], want[i])
		}
	}
}

func TestCycleError_Message(t *testing.T) {
	t.Parallel()
	err := &CycleError{Unresolved: []string{"A", "B", "C"}, Cycle: []string{"A", "B", "A"}}
	expected := "dependency cycle detected: A -> B -> A (unresolved: A, B, C)"
	if err.Error() != expected {
		t.Errorf("expected %q, got %q", expected, err.Error())
	}
}

package envy

import (
	"fmt"
	"strings"

	"github.com/katalvlaran/fairdiv/valuation"
)

// Build constructs the envy graph of agents holding bundles.
// bundles[i] is the current bundle of agents[i].
//
// Complexity: O(n² · b) where b is the mean bundle size.
func Build(agents []valuation.Agent, bundles []valuation.Bundle) (*Graph, error) {
	if len(agents) != len(bundles) {
		return nil, fmt.Errorf("%w: %d agents, %d bundles", ErrShapeMismatch, len(agents), len(bundles))
	}
	n := len(agents)
	g := &Graph{
		names: make([]string, n),
		out:   make([][]int, n),
		in:    make([]int, n),
	}
	for a := range agents {
		g.names[a] = agents[a].Name
		own := agents[a].BundleValue(bundles[a])
		for b := range agents {
			if a == b {
				continue
			}
			if agents[a].BundleValue(bundles[b]) > own+Tol {
				g.out[a] = append(g.out[a], b)
				g.in[b]++
				g.edges++
			}
		}
	}

	return g, nil
}

// Len returns the number of vertices.
func (g *Graph) Len() int { return len(g.names) }

// Name returns the agent name of vertex v.
func (g *Graph) Name(v int) string { return g.names[v] }

// EdgeCount returns the number of envy edges.
func (g *Graph) EdgeCount() int { return g.edges }

// Successors returns the agents v envies, ascending.
func (g *Graph) Successors(v int) []int {
	return append([]int(nil), g.out[v]...)
}

// Envies reports whether a envies b.
func (g *Graph) Envies(a, b int) bool {
	for _, x := range g.out[a] {
		if x == b {
			return true
		}
	}

	return false
}

// InDegree returns how many agents envy v.
func (g *Graph) InDegree(v int) int { return g.in[v] }

// Unenvied returns the vertices nobody envies (in-degree 0), ascending.
// A finite acyclic graph always has at least one.
func (g *Graph) Unenvied() []int {
	var out []int
	for v, d := range g.in {
		if d == 0 {
			out = append(out, v)
		}
	}

	return out
}

// String renders the edge list as "A->B, C->A".
func (g *Graph) String() string {
	parts := make([]string, 0, g.edges)
	for a, succ := range g.out {
		for _, b := range succ {
			parts = append(parts, g.names[a]+"->"+g.names[b])
		}
	}

	return strings.Join(parts, ", ")
}

// CycleNames maps a cycle of vertices to agent names, closing it:
// [0 2] → ["A", "C", "A"].
func (g *Graph) CycleNames(cycle []int) []string {
	if len(cycle) == 0 {
		return nil
	}
	out := make([]string, 0, len(cycle)+1)
	for _, v := range cycle {
		out = append(out, g.names[v])
	}

	return append(out, g.names[cycle[0]])
}

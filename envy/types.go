package envy

import (
	"errors"

	"github.com/katalvlaran/fairdiv/valuation"
)

// Tol is the margin by which a bundle must beat an agent's own bundle for
// the agent to envy it. It keeps rounding noise out of the graph.
const Tol = 1e-9

// Visitation states of the cycle search.
const (
	White = iota // not visited yet
	Gray         // on the current DFS path
	Black        // fully explored
)

var (
	// ErrShapeMismatch indicates len(agents) != len(bundles).
	ErrShapeMismatch = errors.New("envy: agents and bundles differ in length")

	// ErrNoProgress indicates that cycle elimination exceeded the number of
	// rotations the envy-edge count allows; it signals a logic fault.
	ErrNoProgress = errors.New("envy: cycle elimination made no progress")
)

// Graph is a directed envy graph: an edge a→b exists iff agent a values b's
// bundle strictly more (by more than Tol) than its own.
//
// Vertices are agent positions in the slice given to Build; successor lists
// are ascending, so every traversal is deterministic. Graphs are immutable
// snapshots, rebuilt whenever bundles change.
type Graph struct {
	names []string
	out   [][]int
	in    []int
	edges int
}

// Resolution is the outcome of ResolveCycles.
type Resolution struct {
	// Bundles is the new bundle per agent, indexed like the input.
	Bundles []valuation.Bundle

	// Cycles lists every rotated cycle in order; each cycle is the sequence
	// of agent positions v0 → v1 → … → v0 (closing vertex omitted).
	Cycles [][]int
}

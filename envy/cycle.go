// Package envy implements envy-cycle elimination on envy graphs.
// FindCycle locates a directed cycle using depth-first search with
// three-color marking and back-edge detection; Rotate and ResolveCycles move
// bundles along cycles until the graph is acyclic.
//
// Complexity:
//
//   - FindCycle:     Time O(V + E), Memory O(V)
//   - ResolveCycles: at most E₀ rotations (E₀ = initial edge count), each
//     O(V² · b) for the rebuild
package envy

import (
	"fmt"

	"github.com/katalvlaran/fairdiv/valuation"
)

// FindCycle returns the first directed cycle met by a DFS that starts from
// vertices in ascending order and explores successors in ascending order.
// The cycle is returned as [v0, v1, …, vk-1] with vi → vi+1 and vk-1 → v0.
// It returns nil when the graph is acyclic.
func (g *Graph) FindCycle() []int {
	// 1) Nil or empty graph is cycle-free
	if g == nil || len(g.names) == 0 {
		return nil
	}

	// 2) Visitation state and the current DFS path
	state := make([]int, len(g.names))
	path := make([]int, 0, len(g.names))

	// 3) Launch DFS from each unvisited vertex; stop at the first cycle
	for v := range g.names {
		if state[v] != White {
			continue
		}
		if cycle := g.visit(v, state, &path); cycle != nil {
			return cycle
		}
	}

	return nil
}

// visit performs recursive DFS from v and returns the first cycle closed by
// a back-edge to a Gray vertex.
func (g *Graph) visit(v int, state []int, path *[]int) []int {
	state[v] = Gray
	*path = append(*path, v)

	for _, w := range g.out[v] {
		switch state[w] {
		case White:
			if cycle := g.visit(w, state, path); cycle != nil {
				return cycle
			}
		case Gray:
			// back-edge v→w closes the segment of the path starting at w
			idx := indexOf(*path, w)

			return append([]int(nil), (*path)[idx:]...)
		}
	}

	*path = (*path)[:len(*path)-1]
	state[v] = Black

	return nil
}

// indexOf returns the first index of val in s, or -1.
func indexOf(s []int, val int) int {
	for i, x := range s {
		if x == val {
			return i
		}
	}

	return -1
}

// Rotate returns a new bundle snapshot in which every agent on cycle takes
// the bundle of the agent it envies (its successor on the cycle). Agents off
// the cycle keep their bundles. The input is not modified.
func Rotate(bundles []valuation.Bundle, cycle []int) []valuation.Bundle {
	out := make([]valuation.Bundle, len(bundles))
	for i, b := range bundles {
		out[i] = b.Clone()
	}
	k := len(cycle)
	for i, v := range cycle {
		out[v] = bundles[cycle[(i+1)%k]].Clone()
	}

	return out
}

// ResolveCycles eliminates every envy cycle by repeated rotation and returns
// the resulting snapshot. After each rotation the graph is rebuilt; several
// disjoint or successive cycles may be rotated in one call.
//
// Every rotation strictly raises the value each rotated agent has for its own
// bundle and strictly lowers the number of envy edges, so the loop ends after
// at most as many rotations as the initial graph has edges. Exceeding that
// bound returns ErrNoProgress.
func ResolveCycles(agents []valuation.Agent, bundles []valuation.Bundle) (Resolution, error) {
	g, err := Build(agents, bundles)
	if err != nil {
		return Resolution{}, err
	}

	res := Resolution{Bundles: Rotate(bundles, nil)}
	limit := g.EdgeCount()
	for {
		cycle := g.FindCycle()
		if cycle == nil {
			return res, nil
		}
		if len(res.Cycles) >= limit {
			return Resolution{}, fmt.Errorf("%w: %d rotations", ErrNoProgress, len(res.Cycles))
		}
		res.Bundles = Rotate(res.Bundles, cycle)
		res.Cycles = append(res.Cycles, cycle)
		if g, err = Build(agents, res.Bundles); err != nil {
			return Resolution{}, err
		}
	}
}

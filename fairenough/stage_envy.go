package fairenough

import (
	"github.com/katalvlaran/fairdiv/envy"
	"github.com/katalvlaran/fairdiv/ledger"
	"github.com/katalvlaran/fairdiv/valuation"
)

// envyCycles runs Stages 6–7 until the pool is empty.
//
// Each iteration rotates bundles along envy cycles until the envy graph of
// the active agents is acyclic (Stage 6), then gives the first unenvied agent
// its most valued pool item (Stage 7). One item leaves the pool per
// iteration.
func (r *run) envyCycles() {
	for r.l.PoolSize() > 0 {
		active := r.l.Active()
		if len(active) == 0 {
			r.log.Debug("no active agents left", "unallocated", r.l.PoolSize())

			return
		}
		agents := make([]valuation.Agent, len(active))
		current := make([]valuation.Bundle, len(active))
		for k, i := range active {
			agents[k] = r.l.Agent(i)
			current[k] = r.l.Bundle(i)
		}

		// Stage 6: eliminate cycles
		res, err := envy.ResolveCycles(agents, current)
		if err != nil {
			panic(&ledger.InvariantViolation{Op: "ResolveCycles", Detail: err.Error()})
		}
		if len(res.Cycles) > 0 {
			next := make(map[int]valuation.Bundle, len(active))
			for k, i := range active {
				next[i] = res.Bundles[k]
			}
			r.l.Swap(next)
			r.rotations += len(res.Cycles)
			for _, c := range res.Cycles {
				r.log.Debug("envy cycle rotated", "cycle", cycleNames(agents, c))
			}
		}

		// Stage 7: hand one item to an unenvied agent
		g, err := envy.Build(agents, res.Bundles)
		if err != nil {
			panic(&ledger.InvariantViolation{Op: "Build", Detail: err.Error()})
		}
		sinks := g.Unenvied()
		if len(sinks) == 0 {
			panic(&ledger.InvariantViolation{Op: "Unenvied", Detail: "acyclic envy graph without a source"})
		}
		i := active[sinks[0]]
		it, _ := valuation.Best(r.l.Agent(i).Valuation, r.l.Pool())
		r.l.Give(i, it)
		r.iterations++
		r.log.Debug("item handed to unenvied agent", "agent", r.l.Agent(i).Name, "item", it)
	}
}

// cycleNames renders a cycle of positions in agents as "A->B->A".
func cycleNames(agents []valuation.Agent, cycle []int) string {
	s := ""
	for _, v := range cycle {
		s += agents[v].Name + "->"
	}

	return s + agents[cycle[0]].Name
}

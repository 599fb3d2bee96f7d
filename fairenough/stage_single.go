package fairenough

import "github.com/katalvlaran/fairdiv/valuation"

// singleItem runs Stage 1 to a fixpoint.
//
// Each pass fixes n (active agents) and γ(n). Agents are scanned in input
// order; an agent looks at the pool from its least to its most valued item
// and takes the first one worth at least γ·MMS(n). Any assignment retires the
// agent and restarts the pass with the smaller n.
func (r *run) singleItem() error {
	for r.l.PoolSize() > 0 {
		active := r.l.Active()
		if len(active) == 0 {
			return nil
		}
		n := len(active)
		gamma := Gamma(n)

		assigned := false
		for _, i := range active {
			share, err := r.l.MMS(i, n)
			if err != nil {
				return err
			}
			threshold := gamma * share
			a := r.l.Agent(i)
			for _, it := range valuation.SortByValue(a.Valuation, r.l.Pool(), false) {
				x := a.ItemValue(it)
				if x < threshold-r.opts.Eps {
					continue
				}
				r.l.Retire(i, []valuation.Item{it})
				r.commit(i, Record{Stage: StageSingleItem, N: n, Gamma: gamma, MMS: share, Threshold: threshold, Value: x})
				assigned = true

				break
			}
			if assigned {
				break
			}
		}
		if !assigned {
			r.log.Debug("stage 1 fixpoint", "active", n, "pool", r.l.PoolSize())

			return nil
		}
	}

	return nil
}

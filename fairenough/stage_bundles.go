package fairenough

import "github.com/katalvlaran/fairdiv/valuation"

// bundles runs Stages 3–5 to a fixpoint.
//
// A round snapshots the pool, lets every active agent take its most valued
// snapshot item in input order and again in reverse order (Stages 3 and 4),
// then walks the agents by name (Stage 5). The first agent whose best
// candidate bundle reaches γ·MMS retires with it and the round restarts.
// When a round commits nothing, every agent keeps its working bundle as its
// current bundle and the unclaimed snapshot becomes the pool for Stages 6–7.
func (r *run) bundles() error {
	for r.l.PoolSize() > 0 {
		active := r.l.Active()
		if len(active) == 0 {
			return nil
		}
		n := len(active)
		gamma := Gamma(n)
		shares := make(map[int]float64, n)
		for _, i := range active {
			share, err := r.l.MMS(i, n)
			if err != nil {
				return err
			}
			shares[i] = share
		}

		// Stages 3 and 4: forward and reverse picking
		r.l.ClearAcquired()
		snapshot := valuation.Bundle(r.l.Pool())
		last := make(map[int]valuation.Item, n)
		pick := func(i int) {
			it, ok := valuation.Best(r.l.Agent(i).Valuation, snapshot)
			if !ok {
				return
			}
			r.l.Acquire(i, it)
			last[i] = it
			snapshot = snapshot.Without(it)
		}
		for _, i := range active {
			pick(i)
		}
		for k := len(active) - 1; k >= 0; k-- {
			pick(active[k])
		}

		// Stage 5: commit pass in name order
		committed := false
		for _, i := range r.l.ActiveByName() {
			cand, val := r.candidate(i, last, snapshot)
			threshold := gamma * shares[i]
			if val < threshold-r.opts.Eps {
				continue
			}
			r.l.Retire(i, cand)
			r.commit(i, Record{Stage: StageBundle, N: n, Gamma: gamma, MMS: shares[i], Threshold: threshold, Value: val})
			committed = true

			break
		}
		if committed {
			continue
		}

		for _, i := range active {
			r.l.SetHoldings(i, r.l.Acquired(i))
		}
		r.l.ClearAcquired()
		r.log.Debug("stages 3-5 fixpoint", "active", n, "pool", r.l.PoolSize())

		return nil
	}
	r.l.ClearAcquired()

	return nil
}

// candidate returns agent i's better bundle of this round together with its
// value: either the working bundle, or the last item it picked plus its two
// most valued items left in the snapshot. Ties favour the working bundle.
func (r *run) candidate(i int, last map[int]valuation.Item, snapshot valuation.Bundle) (valuation.Bundle, float64) {
	a := r.l.Agent(i)
	cand := r.l.Acquired(i)
	val := a.BundleValue(cand)

	it, ok := last[i]
	if !ok {
		return cand, val
	}
	alt := append(valuation.Bundle{it}, valuation.Top(a.Valuation, snapshot, 2)...)
	if v := a.BundleValue(alt); v > val+r.opts.Eps {
		return alt, v
	}

	return cand, val
}

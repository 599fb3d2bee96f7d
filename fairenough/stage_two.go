package fairenough

// twoAgent runs Stage 2 for the two remaining agents p1, p2 (input order).
// p1's maximin partition {H1, H2} of the pool is offered to p2, who takes H1
// unless it values H2 strictly more; p1 receives the other half. Both agents
// retire and the pool is left empty.
func (r *run) twoAgent() error {
	active := r.l.Active()
	p1, p2 := active[0], active[1]

	// p2's share is read before the pool changes
	share2, err := r.l.MMS(p2, 2)
	if err != nil {
		return err
	}
	res, err := r.l.Partition(p1, 2)
	if err != nil {
		return err
	}
	h1, h2 := res.Bundles[0], res.Bundles[1]

	b := r.l.Agent(p2)
	chosen, rest := h1, h2
	if b.BundleValue(h2) > b.BundleValue(h1)+r.opts.Eps {
		chosen, rest = h2, h1
	}
	r.log.Debug("stage 2 split",
		"divider", r.l.Agent(p1).Name,
		"chooser", b.Name,
		"h1", h1.String(),
		"h2", h2.String())

	r.l.Retire(p2, chosen)
	r.commit(p2, Record{Stage: StageTwoAgent, N: 2, Gamma: 1, MMS: share2, Threshold: share2, Value: r.l.Value(p2)})
	r.l.Retire(p1, rest)
	r.commit(p1, Record{Stage: StageTwoAgent, N: 2, Gamma: 1, MMS: res.Value, Threshold: res.Value, Value: r.l.Value(p1)})

	return nil
}

package fairenough

import (
	"fmt"
	"strings"

	"github.com/katalvlaran/fairdiv/mms"
	"github.com/katalvlaran/fairdiv/valuation"
)

// Stats summarises the work of one run.
type Stats struct {
	// OracleCalls counts MMS searches actually run (cache misses).
	OracleCalls int

	// Rotations counts envy cycles rotated in Stages 6–7.
	Rotations int

	// EnvyIterations counts items handed out in Stage 7.
	EnvyIterations int
}

// Allocation is the immutable result of Allocate: one bundle per agent plus
// the items no agent received.
type Allocation struct {
	agents      []valuation.Agent
	universe    []valuation.Item
	bundles     []valuation.Bundle
	records     []Record
	index       map[string]int
	unallocated []valuation.Item
	mmsOpts     mms.Options
	eps         float64
	stats       Stats
}

// Agents returns the agent names in input order.
func (a *Allocation) Agents() []string {
	out := make([]string, len(a.agents))
	for i, ag := range a.agents {
		out[i] = ag.Name
	}

	return out
}

// lookup returns the index of the agent called name.
func (a *Allocation) lookup(name string) (int, error) {
	i, ok := a.index[name]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownAgent, name)
	}

	return i, nil
}

// Bundle returns a copy of name's bundle, in order of receipt.
func (a *Allocation) Bundle(name string) (valuation.Bundle, error) {
	i, err := a.lookup(name)
	if err != nil {
		return nil, err
	}

	return a.bundles[i].Clone(), nil
}

// Value returns name's value of its own bundle.
func (a *Allocation) Value(name string) (float64, error) {
	i, err := a.lookup(name)
	if err != nil {
		return 0, err
	}

	return a.agents[i].BundleValue(a.bundles[i]), nil
}

// Values returns every agent's value of its own bundle, keyed by name.
func (a *Allocation) Values() map[string]float64 {
	out := make(map[string]float64, len(a.agents))
	for i, ag := range a.agents {
		out[ag.Name] = ag.BundleValue(a.bundles[i])
	}

	return out
}

// Bundles returns a copy of every bundle, indexed like Agents.
func (a *Allocation) Bundles() []valuation.Bundle {
	out := make([]valuation.Bundle, len(a.bundles))
	for i, b := range a.bundles {
		out[i] = b.Clone()
	}

	return out
}

// Unallocated returns the items no agent received, in input order.
// It is empty unless every agent retired before the items ran out.
func (a *Allocation) Unallocated() []valuation.Item {
	return append([]valuation.Item(nil), a.unallocated...)
}

// Record returns the provenance of name's bundle.
func (a *Allocation) Record(name string) (Record, error) {
	i, err := a.lookup(name)
	if err != nil {
		return Record{}, err
	}

	return a.records[i], nil
}

// Stats returns run counters.
func (a *Allocation) Stats() Stats { return a.stats }

// Verify checks that bundles and Unallocated partition the item universe:
// every item appears exactly once and nothing else appears.
func (a *Allocation) Verify() error {
	count := make(map[valuation.Item]int, len(a.universe))
	for _, it := range a.universe {
		count[it] = 0
	}
	mark := func(owner string, it valuation.Item) error {
		c, ok := count[it]
		if !ok {
			return fmt.Errorf("fairenough: %s holds unknown item %q", owner, it)
		}
		if c > 0 {
			return fmt.Errorf("fairenough: item %q allocated twice", it)
		}
		count[it] = 1

		return nil
	}
	for i, b := range a.bundles {
		for _, it := range b {
			if err := mark(a.agents[i].Name, it); err != nil {
				return err
			}
		}
	}
	for _, it := range a.unallocated {
		if err := mark("the pool", it); err != nil {
			return err
		}
	}
	for _, it := range a.universe {
		if count[it] == 0 {
			return fmt.Errorf("fairenough: item %q lost", it)
		}
	}

	return nil
}

// SatisfiesGlobalGammaMMS reports whether name's bundle is worth at least
// Gamma(n)·MMS, where n is the number of agents in the run and the maximin
// share is taken over the whole item universe. The protocol promises this
// only relative to the pool and agent count at commit time (see
// MeetsThreshold), so a false result is not by itself a defect. It may fail
// with ErrResourceExhausted on large instances.
func (a *Allocation) SatisfiesGlobalGammaMMS(name string) (bool, error) {
	i, err := a.lookup(name)
	if err != nil {
		return false, err
	}
	n := len(a.agents)
	opts := a.mmsOpts
	opts.Eps = a.eps

	return mms.IsShare(a.agents[i].Valuation, a.bundles[i], a.universe, n, Gamma(n), opts)
}

// MeetsThreshold reports whether name's bundle is worth at least the
// threshold its committing stage required: γ(n)·MMS over the pool and n
// active agents at that moment for Stages 1 and 3–5, the 1-of-2 share for
// Stage 2. Agents served by Stages 6–7 return ErrNoThreshold.
func (a *Allocation) MeetsThreshold(name string) (bool, error) {
	i, err := a.lookup(name)
	if err != nil {
		return false, err
	}
	rec := a.records[i]
	switch rec.Stage {
	case StageSingleItem, StageTwoAgent, StageBundle:
		v := a.agents[i].BundleValue(a.bundles[i])

		return v >= rec.Threshold-a.eps, nil
	default:
		return false, fmt.Errorf("%w: %q served by %s", ErrNoThreshold, name, rec.Stage)
	}
}

// String renders one line per agent: "Alice: {a,f} value=2 (bundle)".
func (a *Allocation) String() string {
	var sb strings.Builder
	for i, ag := range a.agents {
		fmt.Fprintf(&sb, "%s: %v value=%g (%s)\n",
			ag.Name, a.bundles[i], ag.BundleValue(a.bundles[i]), a.records[i].Stage)
	}
	if len(a.unallocated) > 0 {
		fmt.Fprintf(&sb, "unallocated: %v\n", valuation.Bundle(a.unallocated))
	}

	return sb.String()
}

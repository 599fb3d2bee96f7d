package fairenough

import (
	"fmt"
	"log/slog"

	"github.com/katalvlaran/fairdiv/ledger"
	"github.com/katalvlaran/fairdiv/valuation"
)

// run carries the state of one Allocate call. Every run owns its ledger, so
// independent runs may proceed concurrently.
type run struct {
	l    *ledger.Ledger
	opts Options
	log  *slog.Logger

	records    []Record
	rotations  int
	iterations int
}

// Allocate divides items among agents with the Fair Enough protocol:
//
//  1. Stage 1 gives single items worth γ·MMS to the agents that value them
//     enough, until a full pass gives nothing away.
//  2. If exactly two agents remain, Stage 2 splits the rest by the first
//     agent's maximin partition and the run ends.
//  3. Otherwise Stages 3–5 accumulate bundles in forward and reverse rounds
//     and retire every agent whose bundle reaches γ·MMS.
//  4. Stages 6–7 hand the remaining items, one at a time, to an agent nobody
//     envies, eliminating envy cycles before each hand-off.
//
// Every agent in the result holds a (possibly empty) bundle; the bundles and
// Unallocated partition items exactly.
//
// Errors:
//   - *InvalidInputError (errors.Is ErrInvalidInput) for malformed input.
//   - ErrResourceExhausted (wrapped) when an MMS computation exceeds its
//     budget; no partial allocation is returned.
//
// A broken ownership invariant is a bug and panics with
// *ledger.InvariantViolation.
func Allocate(agents []valuation.Agent, items []valuation.Item, opts ...Option) (*Allocation, error) {
	o := DefaultOptions()
	for _, fn := range opts {
		fn(&o)
	}
	if err := validate(agents, items, o); err != nil {
		return nil, err
	}
	l, err := ledger.New(agents, items, o.MMS)
	if err != nil {
		return nil, invalid("instance", "%v", err)
	}

	r := &run{
		l:       l,
		opts:    o,
		log:     o.Logger,
		records: make([]Record, len(agents)),
	}
	r.log.Info("allocation started", "agents", len(agents), "items", len(items))

	if err = r.execute(); err != nil {
		r.log.Warn("allocation aborted", "err", err)

		return nil, err
	}
	if err = l.Verify(); err != nil {
		panic(&ledger.InvariantViolation{Op: "Allocate", Detail: err.Error()})
	}

	a := r.result(agents, items)
	r.log.Info("allocation finished",
		"unallocated", len(a.unallocated),
		"oracle_calls", a.stats.OracleCalls,
		"rotations", a.stats.Rotations)

	return a, nil
}

// execute drives the stages in protocol order.
func (r *run) execute() error {
	if err := r.singleItem(); err != nil {
		return fmt.Errorf("fairenough: stage 1: %w", err)
	}

	if len(r.l.Active()) == 2 {
		if err := r.twoAgent(); err != nil {
			return fmt.Errorf("fairenough: stage 2: %w", err)
		}

		return nil
	}

	if err := r.bundles(); err != nil {
		return fmt.Errorf("fairenough: stages 3-5: %w", err)
	}
	r.envyCycles()

	// agents still active keep what Stages 6–7 left them
	for _, i := range r.l.Active() {
		b := r.l.Bundle(i)
		r.l.Retire(i, b)
		r.commit(i, Record{Stage: StageEnvy, Value: r.l.Value(i)})
	}

	return nil
}

// commit stores the provenance of agent i's final bundle.
func (r *run) commit(i int, rec Record) {
	r.records[i] = rec
	r.log.Debug("bundle committed",
		"stage", rec.Stage.String(),
		"agent", r.l.Agent(i).Name,
		"bundle", r.l.Bundle(i).String(),
		"value", rec.Value,
		"threshold", rec.Threshold)
}

// result freezes the ledger into an Allocation.
func (r *run) result(agents []valuation.Agent, items []valuation.Item) *Allocation {
	a := &Allocation{
		agents:      append([]valuation.Agent(nil), agents...),
		universe:    append([]valuation.Item(nil), items...),
		bundles:     r.l.Holdings(),
		records:     r.records,
		index:       make(map[string]int, len(agents)),
		unallocated: r.l.Pool(),
		mmsOpts:     r.opts.MMS,
		eps:         r.opts.Eps,
		stats: Stats{
			OracleCalls:    r.l.OracleCalls(),
			Rotations:      r.rotations,
			EnvyIterations: r.iterations,
		},
	}
	for i, ag := range agents {
		a.index[ag.Name] = i
	}

	return a
}

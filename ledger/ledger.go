package ledger

import (
	"fmt"
	"sort"

	"github.com/katalvlaran/fairdiv/mms"
	"github.com/katalvlaran/fairdiv/valuation"
)

// Ledger is the mutable state of one allocation run.
//
// Every item of the universe has exactly one owner at all times: the pool or
// a single agent. Ownership is stored item -> owner, so two bundles can never
// share an item; each mutation asserts its preconditions on top of that.
//
// Agents are either active (still taking part) or retired (final bundle
// fixed). Working bundles (Acquired) are claims on pool items that do not
// move ownership until a stage commits them.
//
// A Ledger is not safe for concurrent use; concurrent runs use separate
// ledgers.
type Ledger struct {
	agents []valuation.Agent
	byName map[string]int

	universe []valuation.Item
	owner    map[valuation.Item]int
	poolSize int
	version  uint64

	holdings [][]valuation.Item
	retired  []bool

	acquired [][]valuation.Item
	claimed  map[valuation.Item]int

	opts  mms.Options
	cache map[mmsKey]float64
	calls int
}

// New creates a ledger with every item in the pool and every agent active.
// Agent names and items must be unique.
func New(agents []valuation.Agent, universe []valuation.Item, opts mms.Options) (*Ledger, error) {
	l := &Ledger{
		agents:   append([]valuation.Agent(nil), agents...),
		byName:   make(map[string]int, len(agents)),
		universe: append([]valuation.Item(nil), universe...),
		owner:    make(map[valuation.Item]int, len(universe)),
		holdings: make([][]valuation.Item, len(agents)),
		retired:  make([]bool, len(agents)),
		acquired: make([][]valuation.Item, len(agents)),
		claimed:  make(map[valuation.Item]int),
		opts:     opts,
		cache:    make(map[mmsKey]float64),
	}
	for i, a := range agents {
		if _, dup := l.byName[a.Name]; dup {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateAgent, a.Name)
		}
		l.byName[a.Name] = i
	}
	for _, it := range universe {
		if _, dup := l.owner[it]; dup {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateItem, it)
		}
		l.owner[it] = pool
	}
	l.poolSize = len(universe)

	return l, nil
}

// Len returns the number of agents in the run.
func (l *Ledger) Len() int { return len(l.agents) }

// Agent returns agent i. It panics on an out-of-range index.
func (l *Ledger) Agent(i int) valuation.Agent { return l.agents[i] }

// Index returns the index of the agent called name.
func (l *Ledger) Index(name string) (int, bool) {
	i, ok := l.byName[name]

	return i, ok
}

// Universe returns a copy of the item universe in input order.
func (l *Ledger) Universe() []valuation.Item {
	return append([]valuation.Item(nil), l.universe...)
}

// Pool returns the unallocated items in universe order.
// Complexity: O(|universe|).
func (l *Ledger) Pool() []valuation.Item {
	out := make([]valuation.Item, 0, l.poolSize)
	for _, it := range l.universe {
		if l.owner[it] == pool {
			out = append(out, it)
		}
	}

	return out
}

// PoolSize returns the number of unallocated items.
func (l *Ledger) PoolSize() int { return l.poolSize }

// InPool reports whether it is unallocated.
func (l *Ledger) InPool(it valuation.Item) bool {
	o, ok := l.owner[it]

	return ok && o == pool
}

// Owner returns the index of the agent holding it, or -1 for the pool.
func (l *Ledger) Owner(it valuation.Item) (int, bool) {
	o, ok := l.owner[it]

	return o, ok
}

// Version increments on every pool mutation.
func (l *Ledger) Version() uint64 { return l.version }

// Active returns the indices of active agents in input order.
func (l *Ledger) Active() []int {
	out := make([]int, 0, len(l.agents))
	for i := range l.agents {
		if !l.retired[i] {
			out = append(out, i)
		}
	}

	return out
}

// ActiveByName returns the indices of active agents sorted by name.
func (l *Ledger) ActiveByName() []int {
	out := l.Active()
	sort.SliceStable(out, func(a, b int) bool {
		return l.agents[out[a]].Name < l.agents[out[b]].Name
	})

	return out
}

// Retired reports whether agent i holds its final bundle.
func (l *Ledger) Retired(i int) bool { return l.retired[i] }

// Bundle returns a copy of agent i's current bundle in order of receipt.
func (l *Ledger) Bundle(i int) valuation.Bundle {
	return valuation.Bundle(l.holdings[i]).Clone()
}

// Holdings returns a copy of every agent's current bundle, indexed by agent.
func (l *Ledger) Holdings() []valuation.Bundle {
	out := make([]valuation.Bundle, len(l.agents))
	for i := range out {
		out[i] = l.Bundle(i)
	}

	return out
}

// Value returns agent i's value of its current bundle.
func (l *Ledger) Value(i int) float64 {
	return valuation.Sum(l.agents[i].Valuation, l.holdings[i])
}

// mustActive panics unless i is an active agent.
func (l *Ledger) mustActive(op string, i int) {
	if i < 0 || i >= len(l.agents) {
		violate(op, "agent index %d out of range", i)
	}
	if l.retired[i] {
		violate(op, "agent %q already retired", l.agents[i].Name)
	}
}

// take moves it from the pool (or from agent i itself) to agent i.
func (l *Ledger) take(op string, i int, it valuation.Item) {
	if c, ok := l.claimed[it]; ok && c != i {
		violate(op, "item %q claimed by %q", it, l.agents[c].Name)
	}
	o, ok := l.owner[it]
	switch {
	case !ok:
		violate(op, "item %q not in universe", it)
	case o == pool:
		l.owner[it] = i
		l.poolSize--
		l.version++
	case o != i:
		violate(op, "item %q owned by %q, wanted by %q", it, l.agents[o].Name, l.agents[i].Name)
	}
}

// replace makes items agent i's bundle; items it held before and no longer
// holds return to the pool.
func (l *Ledger) replace(op string, i int, items []valuation.Item) {
	keep := make(map[valuation.Item]struct{}, len(items))
	for _, it := range items {
		if _, dup := keep[it]; dup {
			violate(op, "item %q listed twice", it)
		}
		keep[it] = struct{}{}
		l.take(op, i, it)
	}
	for _, it := range l.holdings[i] {
		if _, ok := keep[it]; !ok {
			l.owner[it] = pool
			l.poolSize++
			l.version++
		}
	}
	l.holdings[i] = append([]valuation.Item(nil), items...)
}

// Retire fixes items as agent i's final bundle and removes i from the run.
// Each item must be unallocated or already held by i.
func (l *Ledger) Retire(i int, items []valuation.Item) {
	l.mustActive("Retire", i)
	l.replace("Retire", i, items)
	l.retired[i] = true
	l.releaseClaims(i)
}

// SetHoldings makes items agent i's current (non-final) bundle.
func (l *Ledger) SetHoldings(i int, items []valuation.Item) {
	l.mustActive("SetHoldings", i)
	l.replace("SetHoldings", i, items)
}

// Give adds one unallocated item to active agent i's bundle.
func (l *Ledger) Give(i int, it valuation.Item) {
	l.mustActive("Give", i)
	if !l.InPool(it) {
		violate("Give", "item %q is not unallocated", it)
	}
	l.take("Give", i, it)
	l.holdings[i] = append(l.holdings[i], it)
}

// Swap replaces the bundles of the given active agents at once. The new
// bundles must redistribute exactly the items those agents hold now, as a
// bundle rotation does.
func (l *Ledger) Swap(next map[int]valuation.Bundle) {
	before := make(map[valuation.Item]int)
	for i := range next {
		l.mustActive("Swap", i)
		for _, it := range l.holdings[i] {
			before[it]++
		}
	}
	after := make(map[valuation.Item]int)
	for _, b := range next {
		for _, it := range b {
			after[it]++
			if after[it] > 1 {
				violate("Swap", "item %q assigned twice", it)
			}
			if before[it] == 0 {
				violate("Swap", "item %q not held by the swapped agents", it)
			}
		}
	}
	if len(after) != len(before) {
		violate("Swap", "rotation drops %d items", len(before)-len(after))
	}
	for i, b := range next {
		l.holdings[i] = append([]valuation.Item(nil), b...)
		for _, it := range b {
			l.owner[it] = i
		}
	}
}

// Acquired returns a copy of agent i's working bundle.
func (l *Ledger) Acquired(i int) valuation.Bundle {
	return valuation.Bundle(l.acquired[i]).Clone()
}

// Acquire claims an unallocated item for agent i's working bundle. The item
// stays in the pool; two agents can never claim the same item.
func (l *Ledger) Acquire(i int, it valuation.Item) {
	l.mustActive("Acquire", i)
	if !l.InPool(it) {
		violate("Acquire", "item %q is not unallocated", it)
	}
	if o, ok := l.claimed[it]; ok {
		violate("Acquire", "item %q already claimed by %q", it, l.agents[o].Name)
	}
	l.claimed[it] = i
	l.acquired[i] = append(l.acquired[i], it)
}

// ClearAcquired empties every working bundle.
func (l *Ledger) ClearAcquired() {
	for i := range l.acquired {
		l.acquired[i] = nil
	}
	l.claimed = make(map[valuation.Item]int)
}

// releaseClaims drops agent i's working bundle.
func (l *Ledger) releaseClaims(i int) {
	for _, it := range l.acquired[i] {
		delete(l.claimed, it)
	}
	l.acquired[i] = nil
}

// MMS returns agent i's 1-of-c maximin share of the current pool.
// Results are memoised per (agent, c, pool version) for the lifetime of the
// ledger; errors (ErrResourceExhausted included) are never cached.
func (l *Ledger) MMS(i, c int) (float64, error) {
	if i < 0 || i >= len(l.agents) {
		return 0, ErrUnknownAgent
	}
	key := mmsKey{agent: i, c: c, version: l.version}
	if v, ok := l.cache[key]; ok {
		return v, nil
	}
	l.calls++
	v, err := mms.Value(l.agents[i].Valuation, l.Pool(), c, l.opts)
	if err != nil {
		return 0, fmt.Errorf("ledger: MMS of %q (c=%d): %w", l.agents[i].Name, c, err)
	}
	l.cache[key] = v

	return v, nil
}

// Partition returns agent i's 1-of-c maximin partition of the current pool.
func (l *Ledger) Partition(i, c int) (mms.Result, error) {
	if i < 0 || i >= len(l.agents) {
		return mms.Result{}, ErrUnknownAgent
	}
	l.calls++
	res, err := mms.Partition(l.agents[i].Valuation, l.Pool(), c, l.opts)
	if err != nil {
		return mms.Result{}, fmt.Errorf("ledger: partition of %q (c=%d): %w", l.agents[i].Name, c, err)
	}
	l.cache[mmsKey{agent: i, c: c, version: l.version}] = res.Value

	return res, nil
}

// OracleCalls returns how many searches the ledger has run (cache misses).
func (l *Ledger) OracleCalls() int { return l.calls }

// Verify checks that the pool and the bundles partition the universe.
func (l *Ledger) Verify() error {
	seen := make(map[valuation.Item]int, len(l.universe))
	for i, h := range l.holdings {
		for _, it := range h {
			seen[it]++
			if o, ok := l.owner[it]; !ok || o != i {
				return fmt.Errorf("%w: item %q in bundle of %q but owned by %d", ErrCoverage, it, l.agents[i].Name, o)
			}
		}
	}
	free := 0
	for _, it := range l.universe {
		switch {
		case seen[it] > 1:
			return fmt.Errorf("%w: item %q held %d times", ErrCoverage, it, seen[it])
		case seen[it] == 0 && l.owner[it] != pool:
			return fmt.Errorf("%w: item %q owned but in no bundle", ErrCoverage, it)
		case seen[it] == 0:
			free++
		}
	}
	if free != l.poolSize {
		return fmt.Errorf("%w: pool size %d, counted %d", ErrCoverage, l.poolSize, free)
	}

	return nil
}

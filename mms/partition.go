// Package mms - exact maximin-share search.
//
// Partition computes an agent's 1-of-c maximin share: the maximum, over all
// partitions of the item set into exactly c (possibly empty) bundles, of the
// minimum bundle value. The problem is NP-hard; the search is exact and
// enforces a hard budget instead of degrading to an approximation.
//
// Rationale (succinct):
//  1. Items are prefetched into a dense value buffer ordered by descending
//     value (ties by input index).
//  2. Value: a greedy partition gives a lower bound, total/c (rounded down
//     for integral values) an upper one. Each trial asks whether every
//     bundle can beat a target, bisecting the gap. A trial fills bundles one
//     at a time from minimal covering sets and remembers failed item sets.
//  3. Witness: a depth-first walk puts each item into an already opened
//     bundle (in opening order) or into exactly one new bundle. The first
//     partition within Eps of the value is returned, so ties resolve by
//     enumeration order alone.
//  4. Witness pruning: pouring the unassigned value into the lightest
//     bundles bounds the final minimum; every bundle short of it needs one
//     more valuable item. Bundles of equal load, and equal items placed out
//     of order, are skipped; neither can hide the first witness.
//  5. Budget: item count is checked up front, node count on every expansion
//     of either phase, and the soft time limit every 4096 nodes.
//
// Complexity:
//   - Worst case exponential in n; typical instances of up to 3c+4 items
//     settle within a few hundred thousand nodes.
//   - Memory: O(n·c) plus the failed-set cache.
package mms

import (
	"fmt"
	"math"
	"slices"
	"time"

	"github.com/katalvlaran/fairdiv/valuation"
)

// sumSlack absorbs summation-order differences between the two phases.
const sumSlack = 1e-12

// bbEngine holds the search state of one Partition or Value call.
type bbEngine struct {
	// Configuration
	c   int
	n   int
	eps float64

	// Budget
	maxNodes    int64
	nodes       int64
	useDeadline bool
	deadline    time.Time
	exhausted   bool

	// Dense data in branching order: w[k] is the value of items[order[k]].
	w        []float64
	order    []int
	suffix   []float64 // suffix[k] = w[k] + ... + w[n-1]
	pos      int       // number of items worth more than zero
	integral bool      // every value is a whole number and sums are exact

	ceiling float64

	// Value phase
	target  float64
	taken   []bool
	mask    uint64
	memo    bool
	failed  map[coverKey]struct{}
	scratch [][]float64 // per remaining-bundle count, n+1 long

	// Witness phase
	floor  float64
	bins   []float64
	sorted []float64
	assign []int
	used   int
}

// newEngine validates the call and prefetches the item values.
func newEngine(v valuation.Valuation, items []valuation.Item, c int, opts Options) (*bbEngine, error) {
	if c < 1 {
		return nil, ErrBadPartitionCount
	}
	o, err := opts.normalized()
	if err != nil {
		return nil, err
	}
	if v == nil {
		return nil, valuation.ErrNilValuation
	}
	if len(items) > o.MaxItems {
		return nil, fmt.Errorf("%w: %d items exceed size budget %d", ErrResourceExhausted, len(items), o.MaxItems)
	}

	e := &bbEngine{c: c, n: len(items), eps: o.Eps, maxNodes: o.MaxNodes}
	if o.TimeLimit > 0 {
		e.useDeadline = true
		e.deadline = time.Now().Add(o.TimeLimit)
	}
	if err = e.prefetch(v, items); err != nil {
		return nil, fmt.Errorf("mms: Partition: %w", err)
	}

	e.taken = make([]bool, e.n)
	e.memo = e.n <= 64
	e.failed = make(map[coverKey]struct{})
	e.scratch = make([][]float64, c+1)
	for i := range e.scratch {
		e.scratch[i] = make([]float64, e.n+1)
	}
	e.bins = make([]float64, c)
	e.sorted = make([]float64, c)
	e.assign = make([]int, e.n)

	return e, nil
}

// prefetch loads item values, validates them and builds the branching order.
func (e *bbEngine) prefetch(v valuation.Valuation, items []valuation.Item) error {
	vals := make([]float64, e.n)
	for i, it := range items {
		x, err := valuation.MustValue(v, it)
		if err != nil {
			return err
		}
		if math.IsNaN(x) || math.IsInf(x, 0) || x < 0 {
			return fmt.Errorf("%w: value %v of item %q", ErrBadValue, x, it)
		}
		vals[i] = x
	}

	e.order = make([]int, e.n)
	for i := range e.order {
		e.order[i] = i
	}
	slices.SortStableFunc(e.order, func(a, b int) int {
		switch {
		case vals[a] > vals[b]:
			return -1
		case vals[a] < vals[b]:
			return 1
		}

		return 0
	})

	e.w = make([]float64, e.n)
	e.suffix = make([]float64, e.n+1)
	e.integral = true
	for k, idx := range e.order {
		e.w[k] = vals[idx]
		if e.w[k] > 0 {
			e.pos++
		}
		if e.w[k] != math.Trunc(e.w[k]) {
			e.integral = false
		}
	}
	for k := e.n - 1; k >= 0; k-- {
		e.suffix[k] = e.suffix[k+1] + e.w[k]
	}
	if e.suffix[0] >= 1<<50 {
		e.integral = false
	}
	e.ceiling = e.suffix[0] / float64(e.c)

	return nil
}

// step counts one node expansion and reports whether the budget is spent.
func (e *bbEngine) step() bool {
	e.nodes++
	if e.nodes > e.maxNodes {
		e.exhausted = true
		return true
	}
	if e.useDeadline && (e.nodes&4095) == 0 && time.Now().After(e.deadline) {
		e.exhausted = true
		return true
	}

	return false
}

// waterLevel bounds the final minimum of any completion from position k:
// the remaining value poured into the lightest bundles cannot lift them
// above this level. Unopened bundles count as 0.
func (e *bbEngine) waterLevel(k int) float64 {
	copy(e.sorted, e.bins)
	slices.Sort(e.sorted)
	acc, rem := 0.0, e.suffix[k]
	for j, load := range e.sorted {
		acc += load
		level := (acc + rem) / float64(j+1)
		if j == len(e.sorted)-1 || level <= e.sorted[j+1] {
			return level
		}
	}

	return 0
}

// hopeless reports whether no completion from position k reaches the floor.
func (e *bbEngine) hopeless(k int) bool {
	if e.waterLevel(k) < e.floor {
		return true
	}
	short := 0
	for _, load := range e.bins {
		if load < e.floor {
			short++
		}
	}

	// zero-valued items lift nobody
	return short > max(0, e.pos-k)
}

// repeatsLoad reports whether an earlier bundle has the same load as b.
func (e *bbEngine) repeatsLoad(b int) bool {
	for a := 0; a < b; a++ {
		if e.bins[a] == e.bins[b] {
			return true
		}
	}

	return false
}

// witness assigns branching position k and recurses; it stops at the first
// complete partition reaching the floor and leaves it in assign.
func (e *bbEngine) witness(k int) bool {
	if e.step() || e.hopeless(k) {
		return false
	}
	if k == e.n {
		return true
	}

	x := e.w[k]
	start := 0
	if k > 0 && x == e.w[k-1] {
		start = e.assign[k-1]
	}
	for b := start; b < e.used; b++ {
		if e.repeatsLoad(b) {
			continue
		}
		old := e.bins[b]
		e.bins[b] = old + x
		e.assign[k] = b
		if e.witness(k + 1) {
			return true
		}
		e.bins[b] = old
		if e.exhausted {
			return false
		}
	}

	if e.used < e.c {
		b := e.used
		e.used++
		e.bins[b] = x
		e.assign[k] = b
		if e.witness(k + 1) {
			return true
		}
		e.bins[b] = 0
		e.used--
	}

	return false
}

// bundles materializes the witness as c bundles, items in input order.
func (e *bbEngine) bundles(items []valuation.Item) []valuation.Bundle {
	out := make([]valuation.Bundle, e.c)
	for b := range out {
		out[b] = valuation.Bundle{}
	}
	binOf := make([]int, e.n)
	for k, idx := range e.order {
		binOf[idx] = e.assign[k]
	}
	for idx, it := range items {
		out[binOf[idx]] = append(out[binOf[idx]], it)
	}

	return out
}

func (e *bbEngine) exhaustedErr() error {
	return fmt.Errorf("%w: %d items into %d bundles after %d nodes", ErrResourceExhausted, e.n, e.c, e.nodes)
}

// Partition returns a partition of items into exactly c bundles maximizing
// the minimum bundle value under v, together with that value.
//
// Errors:
//   - ErrBadPartitionCount if c < 1.
//   - ErrBadOptions for negative budgets.
//   - valuation.ErrNilValuation / valuation.ErrUndefinedItem for bad valuations.
//   - ErrBadValue for NaN, infinite or negative item values.
//   - ErrResourceExhausted (wrapped) when a budget is exceeded; no partial
//     result is ever returned.
func Partition(v valuation.Valuation, items []valuation.Item, c int, opts Options) (Result, error) {
	e, err := newEngine(v, items, c, opts)
	if err != nil {
		return Result{}, err
	}

	value := e.solveValue()
	if e.exhausted {
		return Result{}, e.exhaustedErr()
	}

	e.floor = value - e.eps - sumSlack*e.ceiling
	found := e.witness(0)
	if e.exhausted {
		return Result{}, e.exhaustedErr()
	}
	if !found {
		return Result{}, fmt.Errorf("mms: Partition: no witness for share %g", value)
	}

	return Result{Value: value, Bundles: e.bundles(items), Nodes: e.nodes}, nil
}

// Value returns only the maximin-share value of Partition, skipping the
// witness search.
func Value(v valuation.Valuation, items []valuation.Item, c int, opts Options) (float64, error) {
	e, err := newEngine(v, items, c, opts)
	if err != nil {
		return 0, err
	}

	value := e.solveValue()
	if e.exhausted {
		return 0, e.exhaustedErr()
	}

	return value, nil
}

// IsShare reports whether bundle is worth at least fraction times the 1-of-c
// maximin share of items under v.
func IsShare(v valuation.Valuation, bundle valuation.Bundle, items []valuation.Item, c int, fraction float64, opts Options) (bool, error) {
	share, err := Value(v, items, c, opts)
	if err != nil {
		return false, err
	}
	o, _ := opts.normalized()

	return valuation.Sum(v, bundle) >= fraction*share-o.Eps, nil
}

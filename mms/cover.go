package mms

import "math"

// coverKey identifies a failed covering subproblem: the items already placed
// and the number of bundles still to fill. Valid for one target only.
type coverKey struct {
	mask uint64
	left int
}

// greedy is the longest-processing-time heuristic: every item, heaviest
// first, joins the currently lightest bundle. Its minimum is a lower bound
// on the share.
func (e *bbEngine) greedy() float64 {
	bins := make([]float64, e.c)
	for _, x := range e.w {
		lo := 0
		for b := 1; b < e.c; b++ {
			if bins[b] < bins[lo] {
				lo = b
			}
		}
		bins[lo] += x
	}
	m := bins[0]
	for _, x := range bins[1:] {
		if x < m {
			m = x
		}
	}

	return m
}

// solveValue returns the maximin-share value. best is always the minimum of
// a partition that exists; hi is a value no partition's minimum exceeds.
// Each trial bisects the gap until it closes to within Eps.
func (e *bbEngine) solveValue() float64 {
	if e.c > e.pos {
		return 0 // some bundle gets no valuable item
	}
	best := e.greedy()
	hi := e.ceiling
	if e.integral {
		hi = math.Floor(hi)
	}

	for best < hi-e.eps {
		t := best + e.eps
		if hi-best > 4*e.eps {
			mid := (best + hi) / 2
			if e.integral {
				mid = math.Floor(mid)
			}
			if mid > t {
				t = mid
			}
		}

		got, ok := e.trial(t)
		if e.exhausted {
			return best
		}
		if ok {
			best = got

			continue
		}
		if t >= hi {
			break // adjacent floats, nothing left between best and hi
		}
		hi = t
		if e.integral {
			hi = math.Floor(t)
		}
	}

	return best
}

// trial looks for a partition whose every bundle is worth more than target
// and returns its minimum.
func (e *bbEngine) trial(target float64) (float64, bool) {
	e.target = target
	for i := range e.taken {
		e.taken[i] = false
	}
	e.mask = 0
	clear(e.failed)

	return e.cover(e.c, e.suffix[0], math.Inf(1))
}

// cover fills the next of left bundles from the unused items worth rem in
// total; low is the lightest bundle closed so far.
//
// The bundle always takes the heaviest unused item. It grows only until it
// crosses the target: any extra item could move to a later bundle without
// hurting it. The last bundle takes everything left.
func (e *bbEngine) cover(left int, rem, low float64) (float64, bool) {
	if left == 1 {
		if rem > e.target {
			return math.Min(low, rem), true
		}

		return 0, false
	}
	if rem <= float64(left)*e.target {
		return 0, false
	}
	first := -1
	for i, t := range e.taken {
		if !t {
			first = i
			break
		}
	}
	if first < 0 {
		return 0, false
	}

	key := coverKey{mask: e.mask, left: left}
	if e.memo {
		if _, seen := e.failed[key]; seen {
			return 0, false
		}
	}

	// unused[q] = value of unused items at positions ≥ q
	unused := e.scratch[left]
	unused[e.n] = 0
	for q := e.n - 1; q >= 0; q-- {
		unused[q] = unused[q+1]
		if !e.taken[q] {
			unused[q] += e.w[q]
		}
	}
	// the other left-1 bundles must each stay above the target
	upper := rem - float64(left-1)*e.target + e.eps

	e.take(first)
	got, ok := e.grow(first+1, e.w[first], left, rem, low, upper, unused)
	e.release(first)

	if !ok && e.memo && !e.exhausted {
		e.failed[key] = struct{}{}
	}

	return got, ok
}

// grow extends the open bundle, worth sum, with items from position p on.
func (e *bbEngine) grow(p int, sum float64, left int, rem, low, upper float64, unused []float64) (float64, bool) {
	if e.step() {
		return 0, false
	}
	if sum > e.target {
		if sum > upper {
			return 0, false
		}

		return e.cover(left-1, rem-sum, math.Min(low, sum))
	}

	prev := -1.0
	for q := p; q < e.n; q++ {
		if e.taken[q] {
			continue
		}
		if sum+unused[q] <= e.target {
			break
		}
		x := e.w[q]
		// equal values lead to the same subproblem
		if x == prev || sum+x > upper {
			continue
		}
		prev = x

		e.take(q)
		got, ok := e.grow(q+1, sum+x, left, rem, low, upper, unused)
		e.release(q)
		if ok || e.exhausted {
			return got, ok
		}
	}

	return 0, false
}

func (e *bbEngine) take(q int) {
	e.taken[q] = true
	e.mask |= 1 << uint(q)
}

func (e *bbEngine) release(q int) {
	e.taken[q] = false
	e.mask &^= 1 << uint(q)
}

package valuation

import (
	"sort"
	"strings"
)

// SortByValue returns a copy of items ordered by v's values.
// The sort is stable: equal values keep the order they had in items, which
// callers use to break ties by universe order.
// Complexity: O(n log n).
func SortByValue(v Valuation, items []Item, descending bool) []Item {
	out := append([]Item(nil), items...)
	vals := make(map[Item]float64, len(out))
	for _, it := range out {
		vals[it] = Sum(v, []Item{it})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if descending {
			return vals[out[i]] > vals[out[j]]
		}

		return vals[out[i]] < vals[out[j]]
	})

	return out
}

// Top returns the k items of items that v values most, best first.
// Ties keep the order of items. k larger than len(items) returns them all.
func Top(v Valuation, items []Item, k int) []Item {
	if k <= 0 || len(items) == 0 {
		return nil
	}
	sorted := SortByValue(v, items, true)
	if k > len(sorted) {
		k = len(sorted)
	}

	return sorted[:k]
}

// Best returns the item v values most and true, or "" and false when items is
// empty. The first maximal item in items wins.
// Complexity: O(n).
func Best(v Valuation, items []Item) (Item, bool) {
	if len(items) == 0 {
		return "", false
	}
	best := items[0]
	bestVal := Sum(v, items[:1])
	for _, it := range items[1:] {
		if x := Sum(v, []Item{it}); x > bestVal {
			best, bestVal = it, x
		}
	}

	return best, true
}

// Contains reports whether b holds it.
func (b Bundle) Contains(it Item) bool {
	for _, x := range b {
		if x == it {
			return true
		}
	}

	return false
}

// Clone returns an independent copy of b. A nil bundle clones to an empty one.
func (b Bundle) Clone() Bundle {
	return append(Bundle{}, b...)
}

// Union returns the items of b followed by the items of other not already in b.
func (b Bundle) Union(other Bundle) Bundle {
	out := b.Clone()
	for _, it := range other {
		if !out.Contains(it) {
			out = append(out, it)
		}
	}

	return out
}

// Without returns b with every item of drop removed.
func (b Bundle) Without(drop ...Item) Bundle {
	skip := make(map[Item]struct{}, len(drop))
	for _, it := range drop {
		skip[it] = struct{}{}
	}
	out := make(Bundle, 0, len(b))
	for _, it := range b {
		if _, ok := skip[it]; !ok {
			out = append(out, it)
		}
	}

	return out
}

// Sorted returns a copy of b in lexicographic item order.
func (b Bundle) Sorted() Bundle {
	out := b.Clone()
	sort.Strings(out)

	return out
}

// String renders b as "{a,b,c}" in lexicographic order.
func (b Bundle) String() string {
	return "{" + strings.Join(b.Sorted(), ",") + "}"
}

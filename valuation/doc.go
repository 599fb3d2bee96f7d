// Package valuation provides the leaf vocabulary of fair division: items,
// bundles, additive valuations and agents.
//
// What:
//
//   - Item: an opaque, hashable identifier of one indivisible good.
//   - Bundle: a set of items held by one agent.
//   - Valuation: the capability Value(item) -> (float64, defined).
//   - Additive: a map-backed Valuation; bundle value is the sum of item values.
//   - Agent: a named owner of a Valuation.
//
// Helpers (Sum, SortByValue, Top, Best) are deterministic: ties are always
// broken by the order of the input slice, which callers keep in universe
// order so every algorithm built on top is reproducible.
//
// Input shape (matrices, dict-of-dicts, YAML files) is never inspected here;
// adapters produce Additive values and the algorithms only see Valuation.
package valuation

// Package valuation defines the item, bundle and agent primitives shared by
// every allocation algorithm in fairdiv.
//
// Errors:
//
//	ErrNilValuation - an Agent or helper was given a nil Valuation.
//	ErrUndefinedItem - a valuation has no value for a queried item.
package valuation

import (
	"errors"
	"fmt"
)

// Sentinel errors for valuation queries.
var (
	// ErrNilValuation indicates that a nil Valuation was supplied.
	ErrNilValuation = errors.New("valuation: valuation is nil")

	// ErrUndefinedItem indicates that a valuation is not defined on an item.
	ErrUndefinedItem = errors.New("valuation: item is not valued")
)

// Item is an opaque, indivisible good. Items are compared by identity only.
type Item = string

// Bundle is a set of items held by one agent. Helpers in this package never
// introduce duplicates; order carries no meaning beyond reproducible output.
type Bundle []Item

// Valuation reports how much an agent values a single item.
//
// The boolean result is false when the valuation is not defined on it.
// Valuations are additive: the value of a bundle is the sum of its items.
type Valuation interface {
	Value(it Item) (float64, bool)
}

// Additive is the canonical map-backed Valuation: item -> value.
type Additive map[Item]float64

// Value implements Valuation.
func (a Additive) Value(it Item) (float64, bool) {
	v, ok := a[it]

	return v, ok
}

// Agent is a named participant owning an additive valuation.
//
// Agents are read-only inputs; per-run caches (maximin shares, working
// bundles) live in the ledger, never on the Agent itself.
type Agent struct {
	// Name uniquely identifies the agent within one instance.
	Name string

	// Valuation is the agent's additive value function over the universe.
	Valuation Valuation
}

// ItemValue returns the agent's value for it, or 0 if undefined.
func (a Agent) ItemValue(it Item) float64 {
	if a.Valuation == nil {
		return 0
	}
	v, _ := a.Valuation.Value(it)

	return v
}

// BundleValue returns the agent's value for b.
func (a Agent) BundleValue(b Bundle) float64 {
	return Sum(a.Valuation, b)
}

// String returns the agent name.
func (a Agent) String() string {
	return a.Name
}

// Sum returns the additive value of items under v.
// Items on which v is undefined contribute 0; a nil v yields 0.
// Complexity: O(len(items)).
func Sum(v Valuation, items []Item) float64 {
	if v == nil {
		return 0
	}
	var total float64
	for _, it := range items {
		if x, ok := v.Value(it); ok {
			total += x
		}
	}

	return total
}

// MustValue returns v's value for it, or an error wrapping ErrUndefinedItem.
func MustValue(v Valuation, it Item) (float64, error) {
	if v == nil {
		return 0, ErrNilValuation
	}
	x, ok := v.Value(it)
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUndefinedItem, it)
	}

	return x, nil
}

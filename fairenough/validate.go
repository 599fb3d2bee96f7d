package fairenough

import (
	"math"

	"github.com/katalvlaran/fairdiv/valuation"
)

// validate checks the whole input before any stage runs:
//  1. Options: non-negative tolerance and budgets.
//  2. Agents: at least two, unique non-empty names, non-nil valuations.
//  3. Items: unique ids.
//  4. Values: every agent values every item with a finite, non-negative number.
//
// Complexity: O(agents · items).
func validate(agents []valuation.Agent, items []valuation.Item, opts Options) error {
	// Stage 1: options
	if opts.Eps < 0 || math.IsNaN(opts.Eps) {
		return invalid("options", "negative tolerance %v", opts.Eps)
	}
	m := opts.MMS
	if m.MaxItems < 0 || m.MaxNodes < 0 || m.TimeLimit < 0 || m.Eps < 0 {
		return invalid("options", "negative MMS budget")
	}

	// Stage 2: agents
	switch len(agents) {
	case 0:
		return invalid("agents", "no agents")
	case 1:
		return invalid("agents", "a single agent %q; at least two are required", agents[0].Name)
	}
	names := make(map[string]struct{}, len(agents))
	for i, a := range agents {
		if a.Name == "" {
			return invalid("agents", "agent #%d has an empty name", i)
		}
		if _, dup := names[a.Name]; dup {
			return invalid(a.Name, "duplicate agent name")
		}
		names[a.Name] = struct{}{}
		if a.Valuation == nil {
			return invalid(a.Name, "nil valuation")
		}
	}

	// Stage 3: items
	seen := make(map[valuation.Item]struct{}, len(items))
	for _, it := range items {
		if _, dup := seen[it]; dup {
			return invalid(it, "duplicate item")
		}
		seen[it] = struct{}{}
	}

	// Stage 4: values
	for _, a := range agents {
		for _, it := range items {
			x, err := valuation.MustValue(a.Valuation, it)
			if err != nil {
				return invalid(a.Name, "%v", err)
			}
			if math.IsNaN(x) || math.IsInf(x, 0) {
				return invalid(a.Name, "non-finite value %v for item %q", x, it)
			}
			if x < 0 {
				return invalid(a.Name, "negative value %v for item %q", x, it)
			}
		}
	}

	return nil
}

package envy

import "github.com/katalvlaran/fairdiv/valuation"

// IsEnvyFree reports whether no agent envies another. bundles[i] belongs to
// agents[i]; a length mismatch reports false.
func IsEnvyFree(agents []valuation.Agent, bundles []valuation.Bundle) bool {
	g, err := Build(agents, bundles)
	if err != nil {
		return false
	}

	return g.EdgeCount() == 0
}

// IsEF1 reports whether the allocation is envy-free up to one item: for
// every pair (i, j), i's envy of j disappears once the item i values most in
// j's bundle is removed.
func IsEF1(agents []valuation.Agent, bundles []valuation.Bundle) bool {
	if len(agents) != len(bundles) {
		return false
	}
	for i, a := range agents {
		own := a.BundleValue(bundles[i])
		for j := range agents {
			if i == j || len(bundles[j]) == 0 {
				continue
			}
			other := a.BundleValue(bundles[j])
			if other <= own+Tol {
				continue
			}
			best, _ := valuation.Best(a.Valuation, bundles[j])
			drop := a.ItemValue(best)
			if other-drop > own+Tol {
				return false
			}
		}
	}

	return true
}

package generate

import (
	"errors"
	"fmt"

	"github.com/katalvlaran/fairdiv/valuation"
)

// ErrBadConfig indicates a negative agent or item count.
var ErrBadConfig = errors.New("generate: invalid config")

// Config describes a random instance.
type Config struct {
	// Agents and Items are the instance dimensions.
	Agents int
	Items  int

	// Seed selects the random stream; 0 means the package default.
	Seed int64

	// Values draws each item value; nil means ConstantValueFn(DefaultItemValue).
	Values ValueFn

	// Identical gives every agent the same valuation (common values).
	Identical bool
}

// AgentName returns the canonical name of agent i: "agent01", "agent02", ...
func AgentName(i int) string { return fmt.Sprintf("agent%02d", i+1) }

// ItemName returns the canonical id of item i: "item001", "item002", ...
func ItemName(i int) string { return fmt.Sprintf("item%03d", i+1) }

// Random builds a deterministic instance from cfg: cfg.Agents agents with
// additive valuations over cfg.Items items. Values are drawn agent by agent,
// item by item, from a single stream seeded by cfg.Seed.
//
// Complexity: O(Agents · Items).
func Random(cfg Config) ([]valuation.Agent, []valuation.Item, error) {
	if cfg.Agents < 0 || cfg.Items < 0 {
		return nil, nil, fmt.Errorf("%w: %d agents, %d items", ErrBadConfig, cfg.Agents, cfg.Items)
	}
	fn := cfg.Values
	if fn == nil {
		fn = ConstantValueFn(DefaultItemValue)
	}
	rng := rngFromSeed(cfg.Seed)

	items := make([]valuation.Item, cfg.Items)
	for j := range items {
		items[j] = ItemName(j)
	}

	draw := func() valuation.Additive {
		v := make(valuation.Additive, cfg.Items)
		for _, it := range items {
			v[it] = fn(rng)
		}

		return v
	}

	agents := make([]valuation.Agent, cfg.Agents)
	var shared valuation.Additive
	for i := range agents {
		v := shared
		if v == nil || !cfg.Identical {
			v = draw()
			shared = v
		}
		agents[i] = valuation.Agent{Name: AgentName(i), Valuation: v}
	}

	return agents, items, nil
}

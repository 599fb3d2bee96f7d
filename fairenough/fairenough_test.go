package fairenough_test

import (
	"bytes"
	"log/slog"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/katalvlaran/fairdiv/envy"
	"github.com/katalvlaran/fairdiv/fairenough"
	"github.com/katalvlaran/fairdiv/generate"
	"github.com/katalvlaran/fairdiv/mms"
	"github.com/katalvlaran/fairdiv/valuation"
)

const tol = 1e-9

// uniform returns an additive valuation giving value x to every item.
func uniform(items []valuation.Item, x float64) valuation.Additive {
	v := make(valuation.Additive, len(items))
	for _, it := range items {
		v[it] = x
	}

	return v
}

// sixItems is the item universe of the scenario tests.
var sixItems = []valuation.Item{"a", "b", "c", "d", "e", "f"}

// bundleOf fetches name's bundle, failing the test on error.
func bundleOf(t *testing.T, a *fairenough.Allocation, name string) valuation.Bundle {
	t.Helper()
	b, err := a.Bundle(name)
	require.NoError(t, err)

	return b
}

// valueOf fetches name's value, failing the test on error.
func valueOf(t *testing.T, a *fairenough.Allocation, name string) float64 {
	t.Helper()
	v, err := a.Value(name)
	require.NoError(t, err)

	return v
}

func TestGamma(t *testing.T) {
	cases := []struct {
		n    int
		want float64
	}{
		{-3, 1}, {0, 1}, {1, 1}, {2, 1},
		{3, 0.75}, {4, 0.75},
		{5, 10.0 / 14.0},
		{30, 0.6744186046511628},
	}
	for _, c := range cases {
		assert.InDelta(t, c.want, fairenough.Gamma(c.n), 1e-15, "n=%d", c.n)
	}
	// decreasing towards 2/3
	for n := 1; n < 200; n++ {
		assert.GreaterOrEqual(t, fairenough.Gamma(n), fairenough.Gamma(n+1))
		assert.Greater(t, fairenough.Gamma(n), 2.0/3.0)
	}
}

// Scenario A: three agents, six items worth 1 each.
func TestAllocate_ScenarioA_BundleRounds(t *testing.T) {
	agents := []valuation.Agent{
		{Name: "Alice", Valuation: uniform(sixItems, 1)},
		{Name: "Bob", Valuation: uniform(sixItems, 1)},
		{Name: "Eve", Valuation: uniform(sixItems, 1)},
	}
	a, err := fairenough.Allocate(agents, sixItems)
	require.NoError(t, err)
	require.NoError(t, a.Verify())

	assert.Equal(t, valuation.Bundle{"a", "f"}, bundleOf(t, a, "Alice"))
	assert.Equal(t, valuation.Bundle{"b", "e"}, bundleOf(t, a, "Bob"))
	assert.Equal(t, valuation.Bundle{"c", "d"}, bundleOf(t, a, "Eve"))
	assert.Equal(t, map[string]float64{"Alice": 2, "Bob": 2, "Eve": 2}, a.Values())
	assert.Empty(t, a.Unallocated())

	rec, err := a.Record("Alice")
	require.NoError(t, err)
	assert.Equal(t, fairenough.Record{
		Stage: fairenough.StageBundle, N: 3, Gamma: 0.75, MMS: 2, Threshold: 1.5, Value: 2,
	}, rec)

	rec, err = a.Record("Bob")
	require.NoError(t, err)
	assert.Equal(t, fairenough.StageBundle, rec.Stage)
	assert.Equal(t, 2, rec.N)
	assert.Equal(t, 1.0, rec.Gamma)

	for _, name := range a.Agents() {
		ok, err := a.SatisfiesGlobalGammaMMS(name)
		require.NoError(t, err)
		assert.True(t, ok, name)
		ok, err = a.MeetsThreshold(name)
		require.NoError(t, err)
		assert.True(t, ok, name)
	}
}

// Scenario B: two agents, six items worth 1 each.
func TestAllocate_ScenarioB_TwoAgentSplit(t *testing.T) {
	agents := []valuation.Agent{
		{Name: "Alice", Valuation: uniform(sixItems, 1)},
		{Name: "Bob", Valuation: uniform(sixItems, 1)},
	}
	a, err := fairenough.Allocate(agents, sixItems)
	require.NoError(t, err)
	require.NoError(t, a.Verify())

	// Bob is indifferent and keeps H1 of Alice's partition.
	assert.Equal(t, valuation.Bundle{"a", "b", "c"}, bundleOf(t, a, "Bob"))
	assert.Equal(t, valuation.Bundle{"d", "e", "f"}, bundleOf(t, a, "Alice"))
	assert.Equal(t, 3.0, valueOf(t, a, "Alice"))
	assert.Equal(t, 3.0, valueOf(t, a, "Bob"))

	rec, err := a.Record("Alice")
	require.NoError(t, err)
	assert.Equal(t, fairenough.StageTwoAgent, rec.Stage)
	assert.Equal(t, 3.0, rec.MMS)
}

// Scenario C: Alice values "a" at 0.21, everything else at 1.
func TestAllocate_ScenarioC_SkewedTwoAgent(t *testing.T) {
	alice := uniform(sixItems, 1)
	alice["a"] = 0.21
	agents := []valuation.Agent{
		{Name: "Alice", Valuation: alice},
		{Name: "Bob", Valuation: uniform(sixItems, 1)},
	}
	a, err := fairenough.Allocate(agents, sixItems)
	require.NoError(t, err)
	require.NoError(t, a.Verify())

	// Alice's maximin partition is {b,c,d} | {a,e,f}; Bob keeps {b,c,d}.
	assert.Equal(t, valuation.Bundle{"b", "c", "d"}, bundleOf(t, a, "Bob"))
	assert.Equal(t, valuation.Bundle{"a", "e", "f"}, bundleOf(t, a, "Alice"))
	assert.True(t, bundleOf(t, a, "Alice").Contains("a"))
	assert.InDelta(t, 2.21, valueOf(t, a, "Alice"), tol)
	assert.GreaterOrEqual(t, valueOf(t, a, "Bob"), 2.0)

	rec, err := a.Record("Alice")
	require.NoError(t, err)
	assert.InDelta(t, rec.MMS, rec.Value, tol) // exactly the maximin share
}

// Scenario D: no items at all.
func TestAllocate_ScenarioD_NoItems(t *testing.T) {
	for _, n := range []int{2, 3, 5} {
		agents := make([]valuation.Agent, n)
		for i := range agents {
			agents[i] = valuation.Agent{Name: generate.AgentName(i), Valuation: valuation.Additive{}}
		}
		a, err := fairenough.Allocate(agents, nil)
		require.NoError(t, err, "n=%d", n)
		require.NoError(t, a.Verify())
		for _, name := range a.Agents() {
			assert.Empty(t, bundleOf(t, a, name))
			assert.Zero(t, valueOf(t, a, name))
		}
		assert.Empty(t, a.Unallocated())
	}
}

func TestAllocate_SingleItemThenTwoAgents(t *testing.T) {
	universe := []valuation.Item{"a", "b", "c", "d", "e", "gem"}
	v := uniform(universe, 1)
	v["gem"] = 10
	agents := []valuation.Agent{
		{Name: "A", Valuation: v},
		{Name: "B", Valuation: v},
		{Name: "C", Valuation: v},
	}
	a, err := fairenough.Allocate(agents, universe)
	require.NoError(t, err)
	require.NoError(t, a.Verify())

	assert.Equal(t, valuation.Bundle{"gem"}, bundleOf(t, a, "A"))
	rec, err := a.Record("A")
	require.NoError(t, err)
	assert.Equal(t, fairenough.Record{
		Stage: fairenough.StageSingleItem, N: 3, Gamma: 0.75, MMS: 2, Threshold: 1.5, Value: 10,
	}, rec)

	// B divides {a..e}; C prefers the larger half.
	assert.Equal(t, valuation.Bundle{"d", "e"}, bundleOf(t, a, "B"))
	assert.Equal(t, valuation.Bundle{"a", "b", "c"}, bundleOf(t, a, "C"))
	for _, name := range []string{"B", "C"} {
		rec, err := a.Record(name)
		require.NoError(t, err)
		assert.Equal(t, fairenough.StageTwoAgent, rec.Stage)
		assert.Equal(t, 2.0, rec.MMS)
		assert.GreaterOrEqual(t, rec.Value, rec.MMS)
	}
}

func TestAllocate_EnvyStagesHandOutRemainder(t *testing.T) {
	universe := make([]valuation.Item, 15)
	for j := range universe {
		universe[j] = string(rune('a' + j))
	}
	v := uniform(universe, 1)
	agents := []valuation.Agent{
		{Name: "A", Valuation: v},
		{Name: "B", Valuation: v},
		{Name: "C", Valuation: v},
	}
	// γ·MMS = 0.75·5 exceeds both the two-item working bundles and the
	// three-item alternatives, so every item after the first round is handed
	// out by Stage 7.
	a, err := fairenough.Allocate(agents, universe)
	require.NoError(t, err)
	require.NoError(t, a.Verify())

	assert.Equal(t, valuation.Bundle{"a", "f", "g", "j", "m"}, bundleOf(t, a, "A"))
	assert.Equal(t, valuation.Bundle{"b", "e", "h", "k", "n"}, bundleOf(t, a, "B"))
	assert.Equal(t, valuation.Bundle{"c", "d", "i", "l", "o"}, bundleOf(t, a, "C"))

	st := a.Stats()
	assert.Equal(t, 9, st.EnvyIterations)
	assert.Zero(t, st.Rotations)
	for _, name := range a.Agents() {
		rec, err := a.Record(name)
		require.NoError(t, err)
		assert.Equal(t, fairenough.StageEnvy, rec.Stage)
		assert.Equal(t, 5.0, rec.Value)
	}
}

// Bob and Eve each prefer the other's working bundle after Stages 3–5, so
// Stage 6 swaps them before Stage 7 hands out d and e.
func TestAllocate_EnvyCycleRotation(t *testing.T) {
	universe := []valuation.Item{"a", "b", "c", "d", "e", "f", "g", "h"}
	agents := []valuation.Agent{
		{Name: "Alice", Valuation: valuation.Additive{"a": 2, "b": 4, "c": 6, "d": 2, "e": 3, "f": 4, "g": 5, "h": 4}},
		{Name: "Bob", Valuation: valuation.Additive{"a": 5, "b": 3, "c": 3, "d": 2, "e": 2, "f": 1, "g": 6, "h": 5}},
		{Name: "Eve", Valuation: valuation.Additive{"a": 3, "b": 3, "c": 6, "d": 2, "e": 3, "f": 1, "g": 5, "h": 4}},
	}
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	a, err := fairenough.Allocate(agents, universe, fairenough.WithLogger(logger))
	require.NoError(t, err)
	require.NoError(t, a.Verify())

	// Alice commits her working bundle {c,f}; Bob held {g,b} and Eve {h,a}.
	assert.Equal(t, valuation.Bundle{"c", "f"}, bundleOf(t, a, "Alice"))
	assert.Equal(t, valuation.Bundle{"h", "a", "d"}, bundleOf(t, a, "Bob"))
	assert.Equal(t, valuation.Bundle{"g", "b", "e"}, bundleOf(t, a, "Eve"))
	assert.Equal(t, map[string]float64{"Alice": 10, "Bob": 12, "Eve": 11}, a.Values())
	assert.Empty(t, a.Unallocated())

	rec, err := a.Record("Alice")
	require.NoError(t, err)
	assert.Equal(t, fairenough.Record{
		Stage: fairenough.StageBundle, N: 3, Gamma: 0.75, MMS: 10, Threshold: 7.5, Value: 10,
	}, rec)
	for _, name := range []string{"Bob", "Eve"} {
		rec, err = a.Record(name)
		require.NoError(t, err)
		assert.Equal(t, fairenough.StageEnvy, rec.Stage)
		_, err = a.MeetsThreshold(name)
		assert.ErrorIs(t, err, fairenough.ErrNoThreshold)
	}

	st := a.Stats()
	assert.Equal(t, 1, st.Rotations)
	assert.Equal(t, 2, st.EnvyIterations)
	assert.LessOrEqual(t, st.EnvyIterations, len(universe)+len(agents))
	assert.Contains(t, buf.String(), "envy cycle rotated")
	assert.Contains(t, buf.String(), "cycle=Bob->Eve->Bob")

	// after the swap Bob and Eve are envy-free towards each other; Alice
	// still envies Eve, but only up to one item
	final := []valuation.Bundle{bundleOf(t, a, "Alice"), bundleOf(t, a, "Bob"), bundleOf(t, a, "Eve")}
	assert.True(t, envy.IsEnvyFree(agents[1:], final[1:]))
	assert.False(t, envy.IsEnvyFree(agents, final))
	assert.True(t, envy.IsEF1(agents, final))
}

func TestAllocate_AlternativeBundleThenEnvy(t *testing.T) {
	universe := []valuation.Item{"a", "b", "c", "d", "e", "f", "g", "h", "i", "j", "k", "l"}
	v := uniform(universe, 1)
	agents := []valuation.Agent{
		{Name: "Alice", Valuation: v},
		{Name: "Bob", Valuation: v},
		{Name: "Eve", Valuation: v},
	}
	a, err := fairenough.Allocate(agents, universe)
	require.NoError(t, err)
	require.NoError(t, a.Verify())

	// Alice's last pick plus the two best leftovers beats her working bundle.
	assert.Equal(t, valuation.Bundle{"f", "g", "h"}, bundleOf(t, a, "Alice"))
	assert.Equal(t, valuation.Bundle{"a", "d", "e", "j", "l"}, bundleOf(t, a, "Bob"))
	assert.Equal(t, valuation.Bundle{"b", "c", "i", "k"}, bundleOf(t, a, "Eve"))

	rec, err := a.Record("Alice")
	require.NoError(t, err)
	assert.Equal(t, fairenough.StageBundle, rec.Stage)
	assert.Equal(t, 3.0, rec.Threshold)
	rec, err = a.Record("Eve")
	require.NoError(t, err)
	assert.Equal(t, fairenough.StageEnvy, rec.Stage)
	assert.Equal(t, 5, a.Stats().EnvyIterations)
}

func TestAllocate_InvalidInput(t *testing.T) {
	v := valuation.Additive{"x": 1, "y": 2}
	items := []valuation.Item{"x", "y"}
	ok := valuation.Agent{Name: "A", Valuation: v}

	cases := []struct {
		name   string
		agents []valuation.Agent
		items  []valuation.Item
		opts   []fairenough.Option
	}{
		{"no agents", nil, items, nil},
		{"one agent", []valuation.Agent{ok}, items, nil},
		{"empty name", []valuation.Agent{ok, {Name: "", Valuation: v}}, items, nil},
		{"duplicate name", []valuation.Agent{ok, ok}, items, nil},
		{"nil valuation", []valuation.Agent{ok, {Name: "B"}}, items, nil},
		{"duplicate item", []valuation.Agent{ok, {Name: "B", Valuation: v}}, []valuation.Item{"x", "x"}, nil},
		{"undefined item", []valuation.Agent{ok, {Name: "B", Valuation: valuation.Additive{"x": 1}}}, items, nil},
		{"negative value", []valuation.Agent{ok, {Name: "B", Valuation: valuation.Additive{"x": 1, "y": -1}}}, items, nil},
		{"NaN value", []valuation.Agent{ok, {Name: "B", Valuation: valuation.Additive{"x": 1, "y": math.NaN()}}}, items, nil},
		{"infinite value", []valuation.Agent{ok, {Name: "B", Valuation: valuation.Additive{"x": math.Inf(1), "y": 1}}}, items, nil},
		{"negative eps", []valuation.Agent{ok, {Name: "B", Valuation: v}}, items, []fairenough.Option{fairenough.WithEps(-1)}},
		{"negative budget", []valuation.Agent{ok, {Name: "B", Valuation: v}}, items,
			[]fairenough.Option{fairenough.WithMMSOptions(mms.Options{MaxNodes: -1})}},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			a, err := fairenough.Allocate(c.agents, c.items, c.opts...)
			assert.Nil(t, a)
			require.Error(t, err)
			assert.ErrorIs(t, err, fairenough.ErrInvalidInput)
			var iie *fairenough.InvalidInputError
			assert.ErrorAs(t, err, &iie)
		})
	}
}

func TestAllocate_ResourceExhausted(t *testing.T) {
	agents, items, err := generate.Random(generate.Config{Agents: 3, Items: 8, Seed: 5, Values: generate.IntegerValueFn(1, 9)})
	require.NoError(t, err)

	a, err := fairenough.Allocate(agents, items, fairenough.WithMMSOptions(mms.Options{MaxItems: 4}))
	assert.Nil(t, a)
	assert.ErrorIs(t, err, fairenough.ErrResourceExhausted)
	assert.ErrorIs(t, err, mms.ErrResourceExhausted)
	assert.NotErrorIs(t, err, fairenough.ErrInvalidInput)
}

func TestAllocation_UnknownAgent(t *testing.T) {
	agents := []valuation.Agent{
		{Name: "Alice", Valuation: uniform(sixItems, 1)},
		{Name: "Bob", Valuation: uniform(sixItems, 1)},
	}
	a, err := fairenough.Allocate(agents, sixItems)
	require.NoError(t, err)

	_, err = a.Bundle("Mallory")
	assert.ErrorIs(t, err, fairenough.ErrUnknownAgent)
	_, err = a.Value("Mallory")
	assert.ErrorIs(t, err, fairenough.ErrUnknownAgent)
	_, err = a.Record("Mallory")
	assert.ErrorIs(t, err, fairenough.ErrUnknownAgent)
	_, err = a.SatisfiesGlobalGammaMMS("Mallory")
	assert.ErrorIs(t, err, fairenough.ErrUnknownAgent)
	_, err = a.MeetsThreshold("Mallory")
	assert.ErrorIs(t, err, fairenough.ErrUnknownAgent)
}

func TestAllocate_Logging(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	agents := []valuation.Agent{
		{Name: "Alice", Valuation: uniform(sixItems, 1)},
		{Name: "Bob", Valuation: uniform(sixItems, 1)},
	}
	_, err := fairenough.Allocate(agents, sixItems, fairenough.WithLogger(logger))
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "allocation started")
	assert.Contains(t, out, "stage 2 split")
	assert.Contains(t, out, "stage=two-agent")
	assert.Contains(t, out, "allocation finished")
}

// TestAllocate_Properties checks the protocol invariants on seeded random
// instances: coverage, stage thresholds and the Stage 7 iteration bound.
func TestAllocate_Properties(t *testing.T) {
	fns := []generate.ValueFn{
		generate.IntegerValueFn(0, 10),
		generate.ExponentialValueFn(0.3),
		generate.UniformValueFn(0, 1),
	}
	for seed := int64(1); seed <= 45; seed++ {
		cfg := generate.Config{
			Agents:    2 + int(seed%4),
			Items:     int(seed % 13),
			Seed:      seed,
			Values:    fns[seed%3],
			Identical: seed%5 == 0,
		}
		agents, items, err := generate.Random(cfg)
		require.NoError(t, err)

		a, err := fairenough.Allocate(agents, items)
		require.NoError(t, err, "seed %d", seed)
		require.NoError(t, a.Verify(), "seed %d", seed)

		assert.LessOrEqual(t, a.Stats().EnvyIterations, len(items), "seed %d", seed)
		envyUsed := false
		for _, name := range a.Agents() {
			rec, err := a.Record(name)
			require.NoError(t, err)
			v, err := a.Value(name)
			require.NoError(t, err)
			assert.InDelta(t, rec.Value, v, tol, "seed %d %s", seed, name)

			met, err := a.MeetsThreshold(name)
			if rec.Stage == fairenough.StageEnvy {
				assert.ErrorIs(t, err, fairenough.ErrNoThreshold)
			} else {
				require.NoError(t, err)
				assert.True(t, met, "seed %d %s", seed, name)
			}

			switch rec.Stage {
			case fairenough.StageSingleItem, fairenough.StageBundle:
				assert.InDelta(t, fairenough.Gamma(rec.N)*rec.MMS, rec.Threshold, tol)
				assert.GreaterOrEqual(t, rec.Value, rec.Threshold-tol, "seed %d %s", seed, name)
			case fairenough.StageTwoAgent:
				assert.GreaterOrEqual(t, rec.Value, rec.MMS-tol, "seed %d %s", seed, name)
			case fairenough.StageEnvy:
				envyUsed = true
			default:
				t.Fatalf("seed %d: %s has no stage", seed, name)
			}
		}
		if len(a.Unallocated()) > 0 {
			assert.False(t, envyUsed, "seed %d: items left although Stage 7 ran", seed)
		}
	}
}

func TestAllocate_ConcurrentRunsAreIsolated(t *testing.T) {
	agents, items, err := generate.Random(generate.Config{Agents: 4, Items: 10, Seed: 11, Values: generate.IntegerValueFn(1, 30)})
	require.NoError(t, err)
	want, err := fairenough.Allocate(agents, items)
	require.NoError(t, err)

	results := make([]*fairenough.Allocation, 8)
	var g errgroup.Group
	for k := range results {
		k := k
		g.Go(func() error {
			a, err := fairenough.Allocate(agents, items)
			results[k] = a

			return err
		})
	}
	require.NoError(t, g.Wait())
	for _, got := range results {
		assert.Equal(t, want.Bundles(), got.Bundles())
	}
}

package generate

import (
	"fmt"
	"math"
	"math/rand"
)

// DefaultItemValue is the value produced when no ValueFn is configured.
const DefaultItemValue float64 = 1

// ValueFn draws one item value from rng. It must be deterministic for a
// given RNG state and never return a negative or non-finite number;
// constructors panic on configurations that could.
type ValueFn func(rng *rand.Rand) float64

// ConstantValueFn returns a ValueFn that always yields value.
// Panics if value < 0.
// Complexity: O(1).
func ConstantValueFn(value float64) ValueFn {
	if value < 0 || math.IsNaN(value) || math.IsInf(value, 0) {
		panic(fmt.Sprintf("ConstantValueFn: value must be finite and ≥ 0, got %g", value))
	}

	return func(_ *rand.Rand) float64 {
		return value
	}
}

// UniformValueFn samples uniformly in [min, max).
// Panics unless 0 ≤ min ≤ max.
// If rng is nil, yields DefaultItemValue.
func UniformValueFn(min, max float64) ValueFn {
	if min < 0 || max < min {
		panic(fmt.Sprintf("UniformValueFn: require 0 ≤ min ≤ max, got min=%g, max=%g", min, max))
	}

	return func(rng *rand.Rand) float64 {
		if rng == nil {
			return DefaultItemValue
		}
		if max == min {
			return min
		}

		return min + rng.Float64()*(max-min)
	}
}

// IntegerValueFn samples integers uniformly in [min, max] inclusive.
// Integer values keep every sum exact, which makes hand-checked expectations
// reproducible. Panics unless 0 ≤ min ≤ max.
func IntegerValueFn(min, max int) ValueFn {
	if min < 0 || max < min {
		panic(fmt.Sprintf("IntegerValueFn: require 0 ≤ min ≤ max, got min=%d, max=%d", min, max))
	}

	return func(rng *rand.Rand) float64 {
		if rng == nil {
			return DefaultItemValue
		}

		return float64(min + rng.Intn(max-min+1))
	}
}

// ExponentialValueFn samples from an exponential distribution with rate λ,
// rounded to the nearest integer. Heavy tails produce the "one precious
// item" instances Stage 1 is built for. Panics if rate ≤ 0.
func ExponentialValueFn(rate float64) ValueFn {
	if rate <= 0 {
		panic(fmt.Sprintf("ExponentialValueFn: rate must be > 0, got %f", rate))
	}

	return func(rng *rand.Rand) float64 {
		if rng == nil {
			return DefaultItemValue
		}

		return math.Round(rng.ExpFloat64() / rate)
	}
}

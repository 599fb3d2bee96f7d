package ledger_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/katalvlaran/fairdiv/ledger"
	"github.com/katalvlaran/fairdiv/mms"
	"github.com/katalvlaran/fairdiv/valuation"
)

// newRun builds a three-agent ledger over items a..f, all valued 1 except
// Bob's "f" (worth 4).
func newRun(t *testing.T) *ledger.Ledger {
	t.Helper()
	uniform := valuation.Additive{"a": 1, "b": 1, "c": 1, "d": 1, "e": 1, "f": 1}
	bob := valuation.Additive{"a": 1, "b": 1, "c": 1, "d": 1, "e": 1, "f": 4}
	agents := []valuation.Agent{
		{Name: "Eve", Valuation: uniform},
		{Name: "Alice", Valuation: uniform},
		{Name: "Bob", Valuation: bob},
	}
	l, err := ledger.New(agents, []valuation.Item{"a", "b", "c", "d", "e", "f"}, mms.DefaultOptions())
	require.NoError(t, err)

	return l
}

// mustViolate asserts fn panics with an *InvariantViolation.
func mustViolate(t *testing.T, fn func()) {
	t.Helper()
	defer func() {
		r := recover()
		require.NotNil(t, r, "expected a panic")
		_, ok := r.(*ledger.InvariantViolation)
		assert.True(t, ok, "panic value %T", r)
	}()
	fn()
}

func TestNew_RejectsDuplicates(t *testing.T) {
	v := valuation.Additive{"a": 1}
	_, err := ledger.New([]valuation.Agent{{Name: "A", Valuation: v}, {Name: "A", Valuation: v}}, nil, mms.DefaultOptions())
	assert.ErrorIs(t, err, ledger.ErrDuplicateAgent)

	_, err = ledger.New([]valuation.Agent{{Name: "A", Valuation: v}}, []valuation.Item{"a", "a"}, mms.DefaultOptions())
	assert.ErrorIs(t, err, ledger.ErrDuplicateItem)
}

func TestLedger_InitialState(t *testing.T) {
	l := newRun(t)

	assert.Equal(t, 3, l.Len())
	assert.Equal(t, []valuation.Item{"a", "b", "c", "d", "e", "f"}, l.Pool())
	assert.Equal(t, 6, l.PoolSize())
	assert.Equal(t, []int{0, 1, 2}, l.Active())
	assert.Equal(t, []int{1, 2, 0}, l.ActiveByName()) // Alice, Bob, Eve

	i, ok := l.Index("Bob")
	assert.True(t, ok)
	assert.Equal(t, 2, i)
	assert.NoError(t, l.Verify())
}

func TestLedger_RetireGiveAndPool(t *testing.T) {
	l := newRun(t)
	v0 := l.Version()

	l.Retire(1, []valuation.Item{"b", "d"})
	assert.True(t, l.Retired(1))
	assert.Equal(t, valuation.Bundle{"b", "d"}, l.Bundle(1))
	assert.Equal(t, []valuation.Item{"a", "c", "e", "f"}, l.Pool())
	assert.Equal(t, []int{0, 2}, l.Active())
	assert.Greater(t, l.Version(), v0)

	l.Give(2, "f")
	assert.Equal(t, 4.0, l.Value(2))
	o, ok := l.Owner("f")
	assert.True(t, ok)
	assert.Equal(t, 2, o)
	assert.False(t, l.InPool("f"))
	assert.NoError(t, l.Verify())

	// SetHoldings releases what is no longer held.
	l.SetHoldings(2, []valuation.Item{"a"})
	assert.True(t, l.InPool("f"))
	assert.Equal(t, valuation.Bundle{"a"}, l.Bundle(2))
	assert.NoError(t, l.Verify())
}

func TestLedger_InvariantViolations(t *testing.T) {
	l := newRun(t)
	l.Retire(0, []valuation.Item{"a"})

	// retired agent
	mustViolate(t, func() { l.Give(0, "b") })
	// item owned elsewhere
	mustViolate(t, func() { l.Give(1, "a") })
	// unknown item
	mustViolate(t, func() { l.Give(1, "zzz") })
	// owned by Eve
	mustViolate(t, func() { l.Retire(1, []valuation.Item{"a"}) })
	// listed twice
	mustViolate(t, func() { l.SetHoldings(1, []valuation.Item{"b", "b"}) })
	// out of range
	mustViolate(t, func() { l.Give(7, "b") })
}

func TestLedger_SwapRotation(t *testing.T) {
	l := newRun(t)
	l.SetHoldings(0, []valuation.Item{"a"})
	l.SetHoldings(1, []valuation.Item{"b", "c"})
	l.SetHoldings(2, []valuation.Item{"d"})

	l.Swap(map[int]valuation.Bundle{0: {"b", "c"}, 1: {"d"}, 2: {"a"}})
	assert.Equal(t, valuation.Bundle{"b", "c"}, l.Bundle(0))
	assert.Equal(t, valuation.Bundle{"d"}, l.Bundle(1))
	assert.Equal(t, valuation.Bundle{"a"}, l.Bundle(2))
	assert.NoError(t, l.Verify())

	// Bringing in a pool item is not a rotation.
	mustViolate(t, func() { l.Swap(map[int]valuation.Bundle{0: {"e"}, 1: {"d"}, 2: {"a"}}) })
	// Dropping an item is not a rotation either.
	mustViolate(t, func() { l.Swap(map[int]valuation.Bundle{0: {"b"}, 1: {"d"}, 2: {"a"}}) })
}

func TestLedger_AcquiredClaims(t *testing.T) {
	l := newRun(t)

	l.Acquire(0, "a")
	l.Acquire(0, "b")
	l.Acquire(1, "c")
	assert.Equal(t, valuation.Bundle{"a", "b"}, l.Acquired(0))
	assert.Equal(t, 6, l.PoolSize()) // claims do not move ownership

	// both claimed by Eve
	mustViolate(t, func() { l.Acquire(1, "a") })
	mustViolate(t, func() { l.Retire(1, []valuation.Item{"b"}) })

	l.Retire(0, []valuation.Item{"b"}) // own claim, released afterwards
	assert.Empty(t, l.Acquired(0))
	l.Acquire(1, "a") // "a" is free to claim again

	l.ClearAcquired()
	assert.Empty(t, l.Acquired(1))
	assert.NoError(t, l.Verify())
}

func TestLedger_MMSCache(t *testing.T) {
	l := newRun(t)

	v, err := l.MMS(1, 3)
	require.NoError(t, err)
	assert.Equal(t, 2.0, v)
	assert.Equal(t, 1, l.OracleCalls())

	again, err := l.MMS(1, 3)
	require.NoError(t, err)
	assert.Equal(t, v, again)
	assert.Equal(t, 1, l.OracleCalls()) // cache hit

	// A pool mutation invalidates the entry.
	l.Retire(0, []valuation.Item{"a", "b"})
	v, err = l.MMS(1, 2)
	require.NoError(t, err)
	assert.Equal(t, 2.0, v)
	assert.Equal(t, 2, l.OracleCalls())

	res, err := l.Partition(2, 2)
	require.NoError(t, err)
	assert.Equal(t, 3.0, res.Value) // Bob: {f} against {c,d,e}
	assert.Equal(t, []valuation.Bundle{{"f"}, {"c", "d", "e"}}, res.Bundles)
	_, err = l.MMS(9, 2)
	assert.ErrorIs(t, err, ledger.ErrUnknownAgent)
}

func TestLedger_MMSResourceExhausted(t *testing.T) {
	uniform := valuation.Additive{"a": 1, "b": 1, "c": 1}
	l, err := ledger.New([]valuation.Agent{{Name: "A", Valuation: uniform}}, []valuation.Item{"a", "b", "c"}, mms.Options{MaxItems: 2})
	require.NoError(t, err)

	_, err = l.MMS(0, 2)
	assert.ErrorIs(t, err, mms.ErrResourceExhausted)
}

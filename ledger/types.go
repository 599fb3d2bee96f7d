// Package ledger defines the per-run allocation state shared by all stages
// of an allocation protocol.
//
// Errors:
//
//	ErrUnknownAgent   - an operation referenced an agent outside the run.
//	ErrCoverage       - Verify found an item missing or owned twice.
//	ErrDuplicateAgent - two agents share a name.
//	ErrDuplicateItem  - an item appears twice in the universe.
//
// Logic faults (double ownership, mutating a retired agent) are not errors:
// they panic with *InvariantViolation.
package ledger

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownAgent indicates an agent index or name outside the run.
	ErrUnknownAgent = errors.New("ledger: unknown agent")

	// ErrCoverage indicates that bundles and pool do not partition the universe.
	ErrCoverage = errors.New("ledger: coverage or disjointness violated")

	// ErrDuplicateAgent indicates two agents with the same name.
	ErrDuplicateAgent = errors.New("ledger: duplicate agent name")

	// ErrDuplicateItem indicates a repeated item in the universe.
	ErrDuplicateItem = errors.New("ledger: duplicate item")
)

// pool is the owner value of unallocated items.
const pool = -1

// InvariantViolation is the panic value raised when a stage breaks the
// exclusive-ownership invariant. It signals a bug, never bad input.
type InvariantViolation struct {
	Op     string
	Detail string
}

// Error implements error so recovered values print well.
func (v *InvariantViolation) Error() string {
	return fmt.Sprintf("ledger: invariant violation in %s: %s", v.Op, v.Detail)
}

// violate panics with an InvariantViolation.
func violate(op, format string, args ...interface{}) {
	panic(&InvariantViolation{Op: op, Detail: fmt.Sprintf(format, args...)})
}

// mmsKey identifies a cached maximin share: the same agent, partition count
// and pool contents always yield the same value.
type mmsKey struct {
	agent   int
	c       int
	version uint64
}

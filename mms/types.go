// Package mms defines options, results and sentinel errors for the
// maximin-share oracle.
package mms

import (
	"errors"
	"time"

	"github.com/katalvlaran/fairdiv/valuation"
)

// Default budgets. MaxItems bounds the instance size accepted by the exact
// search; MaxNodes bounds the number of search nodes expanded per call.
const (
	DefaultMaxItems = 64
	DefaultMaxNodes = 20_000_000
	DefaultEps      = 1e-9
)

var (
	// ErrResourceExhausted is returned when a search exceeds its size, node
	// or time budget. It is the only oracle error worth retrying, with a
	// larger budget.
	ErrResourceExhausted = errors.New("mms: search budget exhausted")

	// ErrBadPartitionCount indicates c < 1.
	ErrBadPartitionCount = errors.New("mms: partition count must be positive")

	// ErrBadOptions indicates negative budgets or tolerance.
	ErrBadOptions = errors.New("mms: invalid options")

	// ErrBadValue indicates a NaN, infinite or negative item value.
	ErrBadValue = errors.New("mms: item value must be finite and non-negative")
)

// Options bounds the exact partition search.
type Options struct {
	// MaxItems is the largest item set searched; larger sets fail fast with
	// ErrResourceExhausted. Zero means DefaultMaxItems.
	MaxItems int

	// MaxNodes caps the number of expanded search nodes. Zero means
	// DefaultMaxNodes.
	MaxNodes int64

	// TimeLimit is a soft wall-clock budget checked every 4096 nodes.
	// Zero disables it.
	TimeLimit time.Duration

	// Eps is the tolerance of value comparisons.
	Eps float64
}

// DefaultOptions returns Options with default budgets and no time limit.
func DefaultOptions() Options {
	return Options{
		MaxItems:  DefaultMaxItems,
		MaxNodes:  DefaultMaxNodes,
		TimeLimit: 0,
		Eps:       DefaultEps,
	}
}

// normalized fills zero fields with defaults and rejects negative ones.
func (o Options) normalized() (Options, error) {
	if o.MaxItems < 0 || o.MaxNodes < 0 || o.TimeLimit < 0 || o.Eps < 0 {
		return o, ErrBadOptions
	}
	if o.MaxItems == 0 {
		o.MaxItems = DefaultMaxItems
	}
	if o.MaxNodes == 0 {
		o.MaxNodes = DefaultMaxNodes
	}

	return o, nil
}

// Result is a maximin-share value together with a partition achieving it.
type Result struct {
	// Value is the maximum, over all partitions into len(Bundles) parts, of
	// the minimum bundle value.
	Value float64

	// Bundles is the first partition in enumeration order whose minimum is
	// within Eps of Value. It holds exactly c bundles in the order the
	// search opened them; items inside a bundle keep input order. Bundles
	// may be empty.
	Bundles []valuation.Bundle

	// Nodes is the number of search nodes expanded by both phases.
	Nodes int64
}

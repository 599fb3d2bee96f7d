// Package fairenough defines the options, errors and result records of the
// Fair Enough approximate maximin-share allocation protocol.
package fairenough

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/katalvlaran/fairdiv/mms"
)

// DefaultEps is the tolerance of every threshold comparison (value ≥ t − Eps).
const DefaultEps = 1e-9

var (
	// ErrInvalidInput is wrapped by every *InvalidInputError.
	ErrInvalidInput = errors.New("fairenough: invalid input")

	// ErrResourceExhausted is returned (wrapped) when an MMS computation
	// exceeds its budget. No partial allocation is returned.
	ErrResourceExhausted = mms.ErrResourceExhausted

	// ErrUnknownAgent is returned by Allocation accessors for a name that
	// took no part in the run.
	ErrUnknownAgent = errors.New("fairenough: unknown agent")

	// ErrNoThreshold is returned by Allocation.MeetsThreshold for agents
	// served by Stages 6–7, whose bundles were never held to a threshold.
	ErrNoThreshold = errors.New("fairenough: no threshold recorded")
)

// InvalidInputError describes malformed input rejected before any stage runs.
type InvalidInputError struct {
	// Field names the offending part of the input ("agents", "items", an
	// agent name or an item id).
	Field string

	// Reason says what is wrong with it.
	Reason string
}

// Error implements error.
func (e *InvalidInputError) Error() string {
	return fmt.Sprintf("fairenough: invalid input: %s: %s", e.Field, e.Reason)
}

// Unwrap makes errors.Is(err, ErrInvalidInput) hold.
func (e *InvalidInputError) Unwrap() error { return ErrInvalidInput }

// invalid builds an *InvalidInputError.
func invalid(field, format string, args ...interface{}) error {
	return &InvalidInputError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// Stage identifies the protocol stage that fixed an agent's bundle.
type Stage int

const (
	// StageNone marks an agent that never received a bundle.
	StageNone Stage = iota
	// StageSingleItem is Stage 1: one item worth γ·MMS.
	StageSingleItem
	// StageTwoAgent is Stage 2: the exact two-agent MMS split.
	StageTwoAgent
	// StageBundle is Stages 3–5: a bundle accumulated in cyclic rounds.
	StageBundle
	// StageEnvy is Stages 6–7: envy-cycle elimination.
	StageEnvy
)

// String returns a short stage label.
func (s Stage) String() string {
	switch s {
	case StageSingleItem:
		return "single-item"
	case StageTwoAgent:
		return "two-agent"
	case StageBundle:
		return "bundle"
	case StageEnvy:
		return "envy-cycle"
	default:
		return "none"
	}
}

// Record is the provenance of one agent's final bundle.
//
// N, Gamma, MMS and Threshold describe the pass in which the bundle was
// committed; they are zero for StageEnvy, where no threshold applies.
type Record struct {
	Stage     Stage
	N         int
	Gamma     float64
	MMS       float64
	Threshold float64
	Value     float64
}

// Options configures a run of Allocate.
type Options struct {
	// Logger receives stage transitions; defaults to a discarding logger.
	Logger *slog.Logger

	// MMS bounds every maximin-share computation of the run.
	MMS mms.Options

	// Eps is the tolerance of threshold comparisons; defaults to DefaultEps.
	Eps float64
}

// Option configures optional behavior of Allocate.
type Option func(*Options)

// DefaultOptions returns Options with:
//   - a logger on slog.DiscardHandler
//   - mms.DefaultOptions() budgets
//   - Eps = DefaultEps
func DefaultOptions() Options {
	return Options{
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		MMS:    mms.DefaultOptions(),
		Eps:    DefaultEps,
	}
}

// WithLogger routes stage logging to l. A nil logger has no effect.
func WithLogger(l *slog.Logger) Option {
	return func(o *Options) {
		if l != nil {
			o.Logger = l
		}
	}
}

// WithMMSOptions sets the budgets of the MMS oracle.
func WithMMSOptions(m mms.Options) Option {
	return func(o *Options) {
		o.MMS = m
	}
}

// WithEps sets the threshold tolerance. Negative values are rejected by
// Allocate.
func WithEps(eps float64) Option {
	return func(o *Options) {
		o.Eps = eps
	}
}

// Package mms computes maximin shares (MMS) of additive valuations.
//
// What:
//
//   - Partition: the exact 1-of-c maximin share of an item set together with
//     a witnessing partition into c bundles.
//   - Value: the share value only.
//   - IsShare: whether a bundle meets a fraction of the share.
//
// Why:
//   - The maximin share is the benchmark of the "Fair Enough" protocol: every
//     agent is promised γ·MMS, so thresholds must be exact.
//   - Stage 2 of the protocol needs the partition itself, not just its value.
//
// Determinism:
//
//	The witness is the first partition, in a fixed enumeration order over
//	items sorted by descending value (ties by input order), whose minimum is
//	within Eps of the share. The same inputs always yield the same partition.
//
// Complexity:
//
//   - Time:   exponential in the worst case (bisected covering trials, then a
//     branch-and-bound witness walk; see partition.go)
//   - Memory: O(n·c) plus a cache of failed item sets
//
// Errors:
//
//   - ErrResourceExhausted  size, node or time budget exceeded (retry with a larger budget)
//   - ErrBadPartitionCount  c < 1
//   - ErrBadOptions         negative budgets
//   - ErrBadValue           NaN, infinite or negative item value
package mms

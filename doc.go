// Package fairdiv is a playground for fair division of indivisible goods:
// agents with additive valuations, maximin shares, envy graphs and the
// "Fair Enough" approximate-MMS protocol of Kurokawa, Procaccia and Wang.
//
// 🚀 What is fairdiv?
//
//	A small, deterministic, dependency-light toolkit that brings together:
//		• Valuations: items, bundles, additive agents
//		• MMS oracle: exact 1-of-c maximin share with a hard search budget
//		• Ledger: per-run exclusive ownership of every item
//		• Envy graphs: cycle detection, bundle rotation, unenvied sinks
//		• Fair Enough: the seven-stage γ-MMS allocation protocol
//		• Instances: YAML/JSON codec and a seeded random generator
//
// Under the hood, everything is organized under these subpackages:
//
//	valuation/  - Item, Bundle, Valuation, Additive, Agent
//	mms/        - maximin-share value and witnessing partition (branch-and-bound)
//	ledger/     - mutable per-run allocation state and invariants
//	envy/       - envy graph, cycle elimination, sink selection, EF/EF1 checks
//	fairenough/ - Allocate: Stage 1 … Stage 7 and the Allocation result
//	instance/   - instance files (YAML, JSON)
//	generate/   - reproducible random instances
//	cmd/fairdiv - command-line front end
//
// Quick example:
//
//	alice := valuation.Agent{Name: "Alice", Valuation: valuation.Additive{"a": 1, "b": 1, "c": 1}}
//	bob := valuation.Agent{Name: "Bob", Valuation: valuation.Additive{"a": 1, "b": 2, "c": 1}}
//	alloc, err := fairenough.Allocate([]valuation.Agent{alice, bob}, []valuation.Item{"a", "b", "c"})
//
//	go get github.com/katalvlaran/fairdiv
package fairdiv

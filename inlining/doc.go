// Package inlining models the decision trees recorded by a compiler's
// inlining heuristic search and the algorithms that turn many of them into a
// learning problem and back into an optimal decision.
//
// # Reading Guide
//
// Start with these files:
//   - pathkey.go: PathKey, the structural identity of a node (its
//     root-to-node trace of Declaration and Call segments)
//   - node.go, raw.go: the canonical tree and the raw parser-facing tree
//   - relabel.go: raw tree -> canonical tree
//   - registry.go: PathKey <-> dense id registry, edge flattening
//   - adjacency.go: rebuilding a tree from a flat edge list
//   - reward.go: bottom-up reward propagation and optimal-tree reconstruction
//   - projection.go: masked DFS re-derivation of one example's benefit
//
// # Architecture
//
// Sub-packages build on the core:
//   - inlining/problem/: the Problem aggregate, formulation and persistence
//   - inlining/learn/: benefit functions, problem matrices, fitters
//   - inlining/batch/: concurrent loading of experiment run directories
//   - inlining/report/: reward reports, optimal decisions, run inspection
//
// All traversals use explicit stacks; tree depth follows the call depth of
// the analyzed program and is not bounded.
//
// # Errors
//
// SchemaError (ErrSchema) marks data that violates the tree schema and
// IntegrityError (ErrIntegrity) marks malformed structure. Neither is
// recovered from inside this package. Missing observations are nil values,
// never errors and never zero.
package inlining

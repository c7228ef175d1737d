// Package scheduler orders the nodes of one sliced bundle.
//
// # Why Scheduler Exists
//
// A bundle is a subgraph whose tensors were cut into slices so that each
// piece fits in on-chip memory. Lowering needs two things from it: a total
// order of the nodes (the operation index) and a grouping of the nodes into
// pipeline stages (threads) so that engines can overlap the work of
// neighbouring slices. This package computes both and writes them into the
// schedstore side-table.
//
// # How It Works
//
// The pass is a chain of small components, each replaceable through the
// factory functions in interface.go:
//
//  1. The traversal sorter orders the sliced BVDs by the MME walk preferences.
//  2. A routes creator (DFS or BFS) lists, for every input slice of a route
//     end, the in-bundle nodes that produce it, split into the part feeding
//     the MME and the part from the MME onward.
//  3. The slices sequencer walks the BVD coordinate space in traversal order
//     and groups route-end input slices that share a coordinate.
//  4. The threads creator merges the routes of one slice set into one
//     deduplicated, layer-interleaved thread.
//  5. The multi-thread scheduler walks the threads round-robin inside a
//     window bounded by the pipeline depth and assigns operation indices.
//
// BundleScheduler runs the chain and checks that every member was scheduled.
//
// # Errors
//
// Conditions that can only come from a broken earlier pass (an empty bundle,
// missing annotations, inconsistent routes) are returned as errors wrapping
// the sentinels in errors.go. An incomplete schedule is not an error: it is
// the false result of SetBundleNodesSchedule, which lets callers probe a
// bundle with a dry run.
//
// # Concurrency
//
// The pass is single-threaded and deterministic. "Threads" are pipeline
// stages of the target, not goroutines.
package scheduler

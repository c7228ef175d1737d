// Package bundle holds the static description of one sliced bundle: the node
// and tensor arena with its data and control edges, and the slicing metadata
// (bundle-view dimensions, slice coordinates, the chosen strategy) that the
// scheduler reads.
//
// # Handles, not copies
//
// Nodes and tensors live in a single arena owned by Graph and are referenced
// everywhere else by NodeID and TensorID. Routes and threads built by the
// scheduler are slices of handles, so deduplication is a handle comparison and
// no structure is ever copied.
//
// # Structure vs. state
//
// Nothing in this package changes once the bundle is built. The mutable
// scheduling annotation of each node (operation index, thread index) lives in
// the separate schedstore side-table, the same split the graph keeps between
// topology and node state.
package bundle

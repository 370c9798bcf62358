// Package grouping implements incremental group maintenance over a live
// collection of records: given a source collection and a list of group-key
// properties, the engine partitions the source into groups of records that
// agree on every key property, and keeps the partition synchronized as the
// source is spliced or as key fields of individual members change, without
// ever recomputing the whole partition.
//
// The derived result is a GroupSet, itself a live collection of Groups, each
// Group a live sub-collection of the source members sharing one key-value
// tuple. Groups are created on demand, destroyed the moment they empty, and
// both levels support independent sort configuration.
//
// Group lookup is a linear scan over the current groups comparing key values
// under strict (identity) equality. This is O(groups) per member, a known
// scaling limit accepted because group cardinality is expected to stay small
// relative to member cardinality.
//
// The engine is single-threaded and synchronous: all maintenance runs to
// completion inside the caller's mutation, and the engine tolerates re-entrant
// notifications triggered by its own structural updates.
package grouping

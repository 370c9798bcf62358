// Package collection implements a live, ordered, observable collection: an
// in-memory sequence that reports every structural edit to its subscribers as
// a two-phase splice notification (before the edit, with the affected items
// still in place, and after it). All structural operations reduce to a single
// splice, so subscribers see exactly one before/after pair per edit, with one
// exception: a bulk append to a sorted collection emits the end splice plus
// the resort's replace splice, since the insert positions need not be
// contiguous.
//
// Collections can carry an independent sort configuration; a sorted collection
// keeps itself ordered on subsequent inserts.
package collection

package collection

import (
	"fmt"
	"sort"

	"github.com/go-logr/logr"
)

// Splice describes one structural edit: the items in
// [Index, Index+len(Removed)) are replaced by Added. Insertions have no
// removed items, removals no added ones.
type Splice[T comparable] struct {
	Index   int
	Removed []T
	Added   []T
}

// SpliceHandler is the two-phase callback contract for structural edits.
// Before runs with the removed items still present in the collection, After
// once the edit is applied. The same Splice value is delivered to both phases.
type SpliceHandler[T comparable] struct {
	Before func(Splice[T])
	After  func(Splice[T])
}

// Subscription is a typed handle to a registered splice handler.
type Subscription[T comparable] struct {
	c  *Collection[T]
	id int64
}

// Cancel removes the handler. Canceling twice is a no-op.
func (s Subscription[T]) Cancel() {
	if s.c == nil {
		return
	}
	delete(s.c.handlers, s.id)
}

// Options configure a collection.
type Options[T comparable] struct {
	Logger logr.Logger
	// PropertyReader reads a named property off an item, used by the sorter.
	PropertyReader PropertyReader[T]
	// Sorter is the optional initial sort configuration.
	Sorter *SortOptions
}

// Collection is a live ordered collection of items compared by identity.
type Collection[T comparable] struct {
	items    []T
	handlers map[int64]SpliceHandler[T]
	nextID   int64
	reader   PropertyReader[T]
	sorter   *SortOptions
	log      logr.Logger
}

// New creates an empty collection.
func New[T comparable](opts Options[T]) *Collection[T] {
	logger := opts.Logger
	if logger.GetSink() == nil {
		logger = logr.Discard()
	}

	return &Collection[T]{
		handlers: make(map[int64]SpliceHandler[T]),
		reader:   opts.PropertyReader,
		sorter:   opts.Sorter,
		log:      logger.WithName("collection"),
	}
}

// Len returns the number of items.
func (c *Collection[T]) Len() int { return len(c.items) }

// At returns the item at the given index.
func (c *Collection[T]) At(i int) T { return c.items[i] }

// First returns the first item, or false when the collection is empty.
func (c *Collection[T]) First() (T, bool) {
	var zero T
	if len(c.items) == 0 {
		return zero, false
	}
	return c.items[0], true
}

// Last returns the last item, or false when the collection is empty.
func (c *Collection[T]) Last() (T, bool) {
	var zero T
	if len(c.items) == 0 {
		return zero, false
	}
	return c.items[len(c.items)-1], true
}

// Items returns a snapshot copy of the current content.
func (c *Collection[T]) Items() []T {
	ret := make([]T, len(c.items))
	copy(ret, c.items)
	return ret
}

// IndexOf returns the index of the first occurrence of item, or -1.
func (c *Collection[T]) IndexOf(item T) int {
	for i := range c.items {
		if c.items[i] == item {
			return i
		}
	}
	return -1
}

// Contains reports whether the item is present.
func (c *Collection[T]) Contains(item T) bool { return c.IndexOf(item) >= 0 }

// OnSplice registers a two-phase structural-edit handler.
func (c *Collection[T]) OnSplice(handler SpliceHandler[T]) Subscription[T] {
	c.nextID++
	id := c.nextID
	c.handlers[id] = handler
	return Subscription[T]{c: c, id: id}
}

// HandlerCount returns the number of registered splice handlers.
func (c *Collection[T]) HandlerCount() int { return len(c.handlers) }

// Splice replaces the items in [index, index+removeCount) with the added
// items, emitting exactly one before/after notification pair.
func (c *Collection[T]) Splice(index, removeCount int, added ...T) error {
	if index < 0 || index > len(c.items) {
		return fmt.Errorf("splice index %d out of range [0,%d]", index, len(c.items))
	}
	if removeCount < 0 || index+removeCount > len(c.items) {
		return fmt.Errorf("splice remove count %d out of range at index %d (len %d)",
			removeCount, index, len(c.items))
	}

	sp := Splice[T]{Index: index}
	sp.Removed = make([]T, removeCount)
	copy(sp.Removed, c.items[index:index+removeCount])
	sp.Added = make([]T, len(added))
	copy(sp.Added, added)

	c.log.V(5).Info("splice", "index", index, "removed", removeCount, "added", len(added))

	hs := c.snapshotHandlers()
	for _, h := range hs {
		if h.Before != nil {
			h.Before(sp)
		}
	}

	tail := make([]T, len(c.items)-index-removeCount)
	copy(tail, c.items[index+removeCount:])
	c.items = append(c.items[:index], sp.Added...)
	c.items = append(c.items, tail...)

	for _, h := range hs {
		if h.After != nil {
			h.After(sp)
		}
	}

	return nil
}

// Append adds a single item. On a sorted collection the item is inserted at
// its sort position, otherwise at the end.
func (c *Collection[T]) Append(item T) {
	idx := len(c.items)
	if c.sorter != nil && c.reader != nil {
		idx = c.insertionIndex(item)
	}
	c.Splice(idx, 0, item) //nolint:errcheck
}

// AppendAll adds the items as one bulk edit: a single end splice, followed by
// a resort when the collection carries a sort configuration. On a sorted
// collection subscribers thus see up to two splice pairs, the end splice and
// the resort's replace splice.
func (c *Collection[T]) AppendAll(items []T) {
	if len(items) == 0 {
		return
	}
	c.Splice(len(c.items), 0, items...) //nolint:errcheck
	if c.sorter != nil && c.reader != nil {
		c.Sort()
	}
}

// InsertAt inserts a single item at the given index.
func (c *Collection[T]) InsertAt(index int, item T) error {
	return c.Splice(index, 0, item)
}

// RemoveAt removes the item at the given index.
func (c *Collection[T]) RemoveAt(index int) error {
	return c.Splice(index, 1)
}

// Remove removes the first occurrence of the item, reporting whether it was
// found.
func (c *Collection[T]) Remove(item T) bool {
	idx := c.IndexOf(item)
	if idx < 0 {
		return false
	}
	c.Splice(idx, 1) //nolint:errcheck
	return true
}

// RemoveAll removes the first occurrence of every given item, each as its own
// structural edit.
func (c *Collection[T]) RemoveAll(items []T) {
	for _, item := range items {
		c.Remove(item)
	}
}

// Replace resets the whole content as one structural edit.
func (c *Collection[T]) Replace(items []T) {
	c.Splice(0, len(c.items), items...) //nolint:errcheck
}

func (c *Collection[T]) snapshotHandlers() []SpliceHandler[T] {
	if len(c.handlers) == 0 {
		return nil
	}

	ids := make([]int64, 0, len(c.handlers))
	for id := range c.handlers {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	ret := make([]SpliceHandler[T], 0, len(ids))
	for _, id := range ids {
		ret = append(ret, c.handlers[id])
	}
	return ret
}

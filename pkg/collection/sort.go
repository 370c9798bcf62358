package collection

import (
	"fmt"
	"sort"
)

// PropertyReader reads a named property off an item for sorting.
type PropertyReader[T comparable] func(item T, property string) any

// Comparator is a three-way comparison over property values.
type Comparator func(a, b any) int

// SortOptions is the independent sort configuration of a collection: the
// properties to order by, the direction, and an optional custom comparator
// applied to each property value pair.
type SortOptions struct {
	Properties []string
	Ascending  bool
	Compare    Comparator
}

// NewSortOptions creates an ascending sort configuration over the given
// properties with the generic comparator.
func NewSortOptions(properties ...string) *SortOptions {
	return &SortOptions{Properties: properties, Ascending: true}
}

// Compare is the generic three-way comparator: nil sorts before booleans,
// booleans before numbers, numbers before strings; anything else is compared
// by its string representation.
func Compare(a, b any) int {
	ra, rb := rank(a), rank(b)
	if ra != rb {
		return cmpInt(ra, rb)
	}

	switch ra {
	case rankNil:
		return 0
	case rankBool:
		va, vb := a.(bool), b.(bool)
		switch {
		case va == vb:
			return 0
		case !va:
			return -1
		default:
			return 1
		}
	case rankNumber:
		fa, _ := asFloat(a)
		fb, _ := asFloat(b)
		switch {
		case fa < fb:
			return -1
		case fa > fb:
			return 1
		default:
			return 0
		}
	case rankString:
		return cmpString(a.(string), b.(string))
	default:
		return cmpString(fmt.Sprint(a), fmt.Sprint(b))
	}
}

const (
	rankNil = iota
	rankBool
	rankNumber
	rankString
	rankOther
)

func rank(v any) int {
	switch v.(type) {
	case nil:
		return rankNil
	case bool:
		return rankBool
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32, float64:
		return rankNumber
	case string:
		return rankString
	default:
		return rankOther
	}
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	default:
		return 0, false
	}
}

func cmpInt(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func cmpString(a, b string) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// Sorter returns the current sort configuration, nil when unsorted.
func (c *Collection[T]) Sorter() *SortOptions { return c.sorter }

// SetSorter installs a sort configuration and re-sorts the current content.
// A nil sorter turns sorting off without reordering.
func (c *Collection[T]) SetSorter(sorter *SortOptions) {
	c.sorter = sorter
	if sorter != nil {
		c.Sort()
	}
}

// Sort applies the current sort configuration as a stable sort, emitting a
// single replace splice when the order actually changes. It is a no-op
// without a sorter or property reader.
func (c *Collection[T]) Sort() {
	if c.sorter == nil || c.reader == nil || len(c.items) < 2 {
		return
	}

	sorted := make([]T, len(c.items))
	copy(sorted, c.items)
	sort.SliceStable(sorted, func(i, j int) bool {
		return c.compareItems(sorted[i], sorted[j]) < 0
	})

	for i := range sorted {
		if sorted[i] != c.items[i] {
			c.Replace(sorted)
			return
		}
	}
}

// insertionIndex finds the sorted insert position for an item (after any
// equal items, keeping insertion order stable).
func (c *Collection[T]) insertionIndex(item T) int {
	return sort.Search(len(c.items), func(i int) bool {
		return c.compareItems(c.items[i], item) > 0
	})
}

func (c *Collection[T]) compareItems(a, b T) int {
	cmp := c.sorter.Compare
	if cmp == nil {
		cmp = Compare
	}

	for _, p := range c.sorter.Properties {
		res := cmp(c.reader(a, p), c.reader(b, p))
		if res == 0 {
			continue
		}
		if !c.sorter.Ascending {
			res = -res
		}
		return res
	}
	return 0
}

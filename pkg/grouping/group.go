package grouping

import (
	"fmt"
	"sort"
	"strings"

	"l7mp.io/livegroup/pkg/collection"
	"l7mp.io/livegroup/pkg/record"
)

// Members is the live sub-collection type holding one partition's records.
type Members = collection.Collection[*record.Record]

// Group is an ordered, mutable, observable sub-collection holding the members
// of one partition plus the snapshot of the group-key values that define the
// partition. A group's member sequence is never empty while the group is
// reachable from a GroupSet; emptied groups are synchronously detached and
// destroyed. The single passthrough group of ungrouped mode is exempt: it
// mirrors the source collection live and survives emptiness.
type Group struct {
	keyValues   record.Fields
	members     *Members
	owner       *GroupSet
	passthrough bool
	destroyed   bool
}

// GroupFactory builds a Group around the given key-value snapshot and member
// collection. Plug a custom factory into the engine Options to attach derived
// attributes to groups.
type GroupFactory func(keyValues record.Fields, members *Members) *Group

// NewGroup is the default GroupFactory.
func NewGroup(keyValues record.Fields, members *Members) *Group {
	return &Group{keyValues: keyValues, members: members}
}

// Members returns the group's live member collection.
func (g *Group) Members() *Members { return g.members }

// Len returns the number of members.
func (g *Group) Len() int { return g.members.Len() }

// KeyValues returns a copy of the group-key snapshot.
func (g *Group) KeyValues() record.Fields {
	ret := make(record.Fields, len(g.keyValues))
	for k, v := range g.keyValues {
		ret[k] = v
	}
	return ret
}

// Value exposes one group-key property: a group keyed on "gender" reports its
// gender here.
func (g *Group) Value(property string) any { return g.keyValues[property] }

// Owner returns the GroupSet the group is attached to. This is a
// back-reference, not an ownership edge.
func (g *Group) Owner() *GroupSet { return g.owner }

// Passthrough reports whether this is the synthetic group of ungrouped mode,
// whose member collection is the source collection itself.
func (g *Group) Passthrough() bool { return g.passthrough }

// Destroyed reports whether the group has been destroyed.
func (g *Group) Destroyed() bool { return g.destroyed }

// matches reports whether the group's key snapshot agrees with the given
// projection on every key property, under strict equality.
func (g *Group) matches(keyValues record.Fields, properties []string) bool {
	return record.StrictEqualFields(g.keyValues, keyValues, properties)
}

// destroy marks the group dead. Idempotent: re-entrant destruction during a
// cascading structural update must not double-free.
func (g *Group) destroy() {
	if g.destroyed {
		return
	}
	g.destroyed = true
	g.owner = nil
}

// String returns a compact representation for debugging.
func (g *Group) String() string {
	keys := make([]string, 0, len(g.keyValues))
	for k := range g.keyValues {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	kvs := make([]string, 0, len(keys))
	for _, k := range keys {
		kvs = append(kvs, fmt.Sprintf("%s=%v", k, g.keyValues[k]))
	}
	return fmt.Sprintf("group:{%s}[%d]", strings.Join(kvs, ","), g.members.Len())
}

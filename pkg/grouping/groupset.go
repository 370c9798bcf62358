package grouping

import (
	"l7mp.io/livegroup/pkg/collection"
	"l7mp.io/livegroup/pkg/record"
)

// Groups is the live collection type holding the derived groups.
type Groups = collection.Collection[*Group]

// GroupSet is the externally visible derived result: an ordered, mutable,
// observable collection of groups. New groups are appended, so without an
// explicit sort configuration the set keeps group insertion order. At most
// one group per distinct key-value tuple is reachable at any time.
type GroupSet struct {
	groups    *Groups
	destroyed bool
}

// GroupSetFactory builds a GroupSet around the given group collection. Plug a
// custom factory into the engine Options to attach derived attributes to the
// set.
type GroupSetFactory func(groups *Groups) *GroupSet

// NewGroupSet is the default GroupSetFactory.
func NewGroupSet(groups *Groups) *GroupSet {
	return &GroupSet{groups: groups}
}

// Groups returns the live group collection.
func (s *GroupSet) Groups() *Groups { return s.groups }

// Len returns the number of groups.
func (s *GroupSet) Len() int { return s.groups.Len() }

// At returns the group at the given index.
func (s *GroupSet) At(i int) *Group { return s.groups.At(i) }

// Destroyed reports whether the set has been destroyed.
func (s *GroupSet) Destroyed() bool { return s.destroyed }

// lookup finds the group matching the key projection by linear scan, first
// match wins. Returns nil when no group matches.
func (s *GroupSet) lookup(keyValues record.Fields, properties []string) *Group {
	for i := 0; i < s.groups.Len(); i++ {
		g := s.groups.At(i)
		if g.matches(keyValues, properties) {
			return g
		}
	}
	return nil
}

// attach appends a group and wires its back-reference.
func (s *GroupSet) attach(g *Group) {
	g.owner = s
	s.groups.Append(g)
}

// attachAll appends a batch of new groups as one bulk update.
func (s *GroupSet) attachAll(gs []*Group) {
	for _, g := range gs {
		g.owner = s
	}
	s.groups.AppendAll(gs)
}

// detach removes a group from the set without destroying it.
func (s *GroupSet) detach(g *Group) bool {
	if s.groups.Remove(g) {
		g.owner = nil
		return true
	}
	return false
}

// destroy tears down the set and every contained group. Idempotent.
func (s *GroupSet) destroy() {
	if s.destroyed {
		return
	}
	s.destroyed = true
	for _, g := range s.groups.Items() {
		g.destroy()
	}
}

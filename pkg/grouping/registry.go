package grouping

import (
	"github.com/go-logr/logr"
	"k8s.io/apimachinery/pkg/util/sets"

	"l7mp.io/livegroup/pkg/record"
)

// subscriptionRegistry tracks, per member and per group-key property, the
// change-notification handle the engine holds on that member. The registry
// guarantees the engine's core bookkeeping invariant: at every quiescent
// point the tracked set equals {(m, p): m tracked member, p group-key
// property}, so handles can be installed exactly once and removed exactly
// once, with no leaked or duplicate notifications.
type subscriptionRegistry struct {
	// member UID -> property -> cancel handle
	subs    map[string]map[string]record.Subscription
	members map[string]*record.Record
	log     logr.Logger

	// cumulative counters, exposed for the subscription-invariant tests
	subscribed, unsubscribed int
}

func newSubscriptionRegistry(log logr.Logger) *subscriptionRegistry {
	return &subscriptionRegistry{
		subs:    make(map[string]map[string]record.Subscription),
		members: make(map[string]*record.Record),
		log:     log,
	}
}

// track installs a change handler for every given property of the member,
// skipping pairs that are already tracked.
func (r *subscriptionRegistry) track(m *record.Record, properties []string, handler record.FieldChangeHandler) {
	uid := m.UID()
	if r.subs[uid] == nil {
		r.subs[uid] = make(map[string]record.Subscription, len(properties))
		r.members[uid] = m
	}

	for _, p := range properties {
		if _, ok := r.subs[uid][p]; ok {
			continue
		}
		r.subs[uid][p] = m.OnFieldChange(p, handler)
		r.subscribed++
	}
}

// untrack removes every handle held for the member.
func (r *subscriptionRegistry) untrack(m *record.Record) {
	uid := m.UID()
	hs, ok := r.subs[uid]
	if !ok {
		return
	}

	// drop the entry before canceling so that a re-entrant untrack during
	// handler dispatch finds nothing to do
	delete(r.subs, uid)
	delete(r.members, uid)

	for _, sub := range hs {
		sub.Cancel()
		r.unsubscribed++
	}
}

// untrackAll drains the registry, canceling every held handle.
func (r *subscriptionRegistry) untrackAll() {
	for uid := range r.members {
		r.untrack(r.members[uid])
	}
}

// properties returns the property set currently tracked for a member.
func (r *subscriptionRegistry) properties(m *record.Record) sets.Set[string] {
	ret := sets.New[string]()
	for p := range r.subs[m.UID()] {
		ret.Insert(p)
	}
	return ret
}

// size returns the number of tracked (member, property) pairs.
func (r *subscriptionRegistry) size() int {
	total := 0
	for _, hs := range r.subs {
		total += len(hs)
	}
	return total
}

// trackedMembers returns the number of tracked members.
func (r *subscriptionRegistry) trackedMembers() int { return len(r.members) }

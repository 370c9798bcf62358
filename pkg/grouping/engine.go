package grouping

import (
	"github.com/go-logr/logr"
	"k8s.io/apimachinery/pkg/util/sets"

	"l7mp.io/livegroup/pkg/collection"
	"l7mp.io/livegroup/pkg/record"
)

// Source is the live record collection type the engine partitions.
type Source = collection.Collection[*record.Record]

// Options configure a grouping engine.
type Options struct {
	Logger logr.Logger
	// GroupFactory and GroupSetFactory replace the default group and
	// group-set constructors.
	GroupFactory    GroupFactory
	GroupSetFactory GroupSetFactory
	// MemberSort is the default sort configuration forwarded to every
	// group's member collection, so members within a group sort the same
	// way the ungrouped collection would.
	MemberSort *collection.SortOptions
	// GroupSort orders groups relative to each other. Leaving Properties
	// empty sorts by the group-key properties.
	GroupSort *collection.SortOptions
	// Metrics enables engine metric collection when non-nil.
	Metrics *Metrics
}

// Engine owns the group-key configuration and maintains the derived GroupSet
// incrementally: it intercepts the source collection's two-phase splice
// notifications and each tracked member's two-phase key-field change
// notifications, and synchronizes group membership inside those callbacks.
type Engine struct {
	source    *Source
	sourceSub collection.Subscription[*record.Record]

	groupBy  []string
	keyProps sets.Set[string]

	grouped      *GroupSet
	registry     *subscriptionRegistry
	fieldHandler record.FieldChangeHandler

	groupFactory GroupFactory
	setFactory   GroupSetFactory
	memberSort   *collection.SortOptions
	groupSort    *collection.SortOptions

	metrics     *Metrics
	logger, log logr.Logger
	destroyed   bool
}

// New creates an engine over the given source collection with grouping
// disabled; call SetGroupBy to start partitioning. A nil source is replaced
// by an empty collection.
func New(source *Source, opts Options) *Engine {
	logger := opts.Logger
	if logger.GetSink() == nil {
		logger = logr.Discard()
	}

	if source == nil {
		source = collection.New[*record.Record](collection.Options[*record.Record]{
			Logger:         logger,
			PropertyReader: record.Property,
		})
	}

	e := &Engine{
		source:       source,
		keyProps:     sets.New[string](),
		groupFactory: opts.GroupFactory,
		setFactory:   opts.GroupSetFactory,
		memberSort:   opts.MemberSort,
		groupSort:    opts.GroupSort,
		metrics:      opts.Metrics,
		logger:       logger,
		log:          logger.WithName("grouping"),
	}
	if e.groupFactory == nil {
		e.groupFactory = NewGroup
	}
	if e.setFactory == nil {
		e.setFactory = NewGroupSet
	}

	e.registry = newSubscriptionRegistry(e.log)
	e.fieldHandler = record.FieldChangeHandler{
		Before: e.beforeFieldChange,
		After:  e.afterFieldChange,
	}
	e.sourceSub = source.OnSplice(collection.SpliceHandler[*record.Record]{
		Before: e.beforeContentSplice,
		After:  e.afterContentSplice,
	})

	e.rebuild()

	return e
}

// Source returns the engine's source collection.
func (e *Engine) Source() *Source { return e.source }

// GroupBy returns a copy of the current group-key property list.
func (e *Engine) GroupBy() []string {
	ret := make([]string, len(e.groupBy))
	copy(ret, e.groupBy)
	return ret
}

// IsGrouped reports whether a non-empty group key is configured.
func (e *Engine) IsGrouped() bool { return len(e.groupBy) > 0 }

// GroupedContent returns the derived GroupSet. The set is read-only from the
// caller's perspective: it is mutated only by the engine.
func (e *Engine) GroupedContent() *GroupSet { return e.grouped }

// Destroyed reports whether the engine has been destroyed.
func (e *Engine) Destroyed() bool { return e.destroyed }

// GroupSort returns the group-level sort configuration in effect: the
// configured one, or the default (group-key properties, ascending, generic
// comparator) when none is set.
func (e *Engine) GroupSort() *collection.SortOptions {
	if s := e.effectiveGroupSort(); s != nil {
		return s
	}
	return collection.NewSortOptions(e.GroupBy()...)
}

// MemberSort returns the default member-level sort configuration.
func (e *Engine) MemberSort() *collection.SortOptions {
	return copySortOptions(e.memberSort)
}

// SetGroupBy reassigns the group-key property list and fully repartitions the
// source. A nil or empty list disables grouping: the grouped content then
// holds a single synthetic group mirroring the source collection live.
func (e *Engine) SetGroupBy(properties []string) error {
	if e.destroyed {
		return ErrEngineDestroyed
	}
	if err := validateGroupBy(properties); err != nil {
		return err
	}

	e.groupBy = make([]string, len(properties))
	copy(e.groupBy, properties)
	e.keyProps = sets.New(e.groupBy...)

	e.log.V(1).Info("group key reassigned", "properties", e.groupBy)
	e.rebuild()

	return nil
}

// SetSource replaces the source collection and fully repartitions.
func (e *Engine) SetSource(source *Source) error {
	if e.destroyed {
		return ErrEngineDestroyed
	}
	if source == nil {
		return newConfigurationError("source collection must not be nil")
	}

	e.sourceSub.Cancel()
	e.source = source
	e.sourceSub = source.OnSplice(collection.SpliceHandler[*record.Record]{
		Before: e.beforeContentSplice,
		After:  e.afterContentSplice,
	})

	e.log.V(1).Info("source replaced", "len", source.Len())
	e.rebuild()

	return nil
}

// SetFactories replaces the group and group-set constructors (nil restores
// the default) and fully repartitions.
func (e *Engine) SetFactories(gf GroupFactory, sf GroupSetFactory) error {
	if e.destroyed {
		return ErrEngineDestroyed
	}

	e.groupFactory = gf
	if e.groupFactory == nil {
		e.groupFactory = NewGroup
	}
	e.setFactory = sf
	if e.setFactory == nil {
		e.setFactory = NewGroupSet
	}

	e.rebuild()

	return nil
}

// SetGroupSort installs the group-level sort configuration on the grouped
// content. Empty Properties default to the group-key properties; nil turns
// group sorting off.
func (e *Engine) SetGroupSort(sorter *collection.SortOptions) error {
	if e.destroyed {
		return ErrEngineDestroyed
	}

	e.groupSort = sorter
	if e.grouped != nil {
		e.grouped.groups.SetSorter(e.effectiveGroupSort())
	}

	return nil
}

// SetMemberSort installs the default member-level sort configuration and
// applies it to every current group. The passthrough group of ungrouped mode
// is left alone: its member collection is the source itself and its ordering
// belongs to the caller.
func (e *Engine) SetMemberSort(sorter *collection.SortOptions) error {
	if e.destroyed {
		return ErrEngineDestroyed
	}

	e.memberSort = sorter
	if e.grouped == nil || !e.IsGrouped() {
		return nil
	}
	for _, g := range e.grouped.groups.Items() {
		g.members.SetSorter(copySortOptions(sorter))
	}

	return nil
}

// Destroy tears down the engine: every tracked member is unsubscribed, the
// source splice handler is detached, and the GroupSet with all its groups is
// destroyed. Destroying twice is a no-op.
func (e *Engine) Destroy() {
	if e.destroyed {
		return
	}
	e.destroyed = true

	e.registry.untrackAll()
	e.sourceSub.Cancel()
	if e.grouped != nil {
		e.grouped.destroy()
	}
	e.metrics.setGroupsLive(0)

	e.log.V(1).Info("engine destroyed")
}

// rebuild discards the previous partition wholesale (subscriptions included)
// and reconstructs the GroupSet from scratch. No incremental diffing happens
// across a full recompute.
func (e *Engine) rebuild() {
	e.registry.untrackAll()
	if e.grouped != nil {
		e.grouped.destroy()
	}

	e.grouped = e.buildPartition()

	e.metrics.incRebuilds()
	e.metrics.setGroupsLive(e.grouped.Len())
	e.log.V(4).Info("partition rebuilt", "grouped", e.IsGrouped(), "groups", e.grouped.Len())
}

// buildPartition runs the full initial partition pass over the source.
func (e *Engine) buildPartition() *GroupSet {
	groups := collection.New[*Group](collection.Options[*Group]{
		Logger:         e.logger,
		PropertyReader: groupProperty,
		Sorter:         e.effectiveGroupSort(),
	})
	set := e.setFactory(groups)

	if !e.IsGrouped() {
		g := e.groupFactory(record.Fields{}, e.source)
		g.passthrough = true
		set.attach(g)
		return set
	}

	for _, m := range e.source.Items() {
		keyValues := m.GetFields(e.groupBy)
		g := set.lookup(keyValues, e.groupBy)
		if g == nil {
			g = e.newGroup(keyValues)
			set.attach(g)
		}
		g.members.Append(m)
		e.registry.track(m, e.groupBy, e.fieldHandler)
	}

	return set
}

// beforeContentSplice handles the about-to-be-removed slice of a source edit:
// each removed member leaves its group and its key-field subscriptions, and
// groups that emptied are detached and destroyed in one deduplicated batch.
func (e *Engine) beforeContentSplice(sp collection.Splice[*record.Record]) {
	if e.destroyed || !e.IsGrouped() || len(sp.Removed) == 0 {
		return
	}

	marked := sets.New[*Group]()
	emptied := []*Group{}
	for _, m := range sp.Removed {
		keyValues := m.GetFields(e.groupBy)
		if g := e.grouped.lookup(keyValues, e.groupBy); g != nil {
			g.members.Remove(m)
			if g.Len() == 0 && !marked.Has(g) {
				marked.Insert(g)
				emptied = append(emptied, g)
			}
		}
		e.registry.untrack(m)
	}

	for _, g := range emptied {
		if g.Len() > 0 {
			// re-populated by a re-entrant notification handler
			continue
		}
		e.detachAndDestroy(g)
	}
}

// afterContentSplice handles the newly-inserted slice of a source edit: each
// added member is appended to its (possibly new) group and subscribed on the
// key properties. Newly created groups are attached to the GroupSet in a
// single bulk update after all additions are processed.
func (e *Engine) afterContentSplice(sp collection.Splice[*record.Record]) {
	if e.destroyed || !e.IsGrouped() || len(sp.Added) == 0 {
		return
	}

	var created []*Group
	for _, m := range sp.Added {
		keyValues := m.GetFields(e.groupBy)
		g := e.grouped.lookup(keyValues, e.groupBy)
		if g == nil {
			g = lookupIn(created, keyValues, e.groupBy)
		}
		if g == nil {
			g = e.newGroup(keyValues)
			created = append(created, g)
		}
		g.members.Append(m)
		e.registry.track(m, e.groupBy, e.fieldHandler)
	}

	if len(created) > 0 {
		e.grouped.attachAll(created)
		e.metrics.incCreated(len(created))
		e.metrics.setGroupsLive(e.grouped.Len())
		e.log.V(4).Info("groups created", "count", len(created))
	}
}

// beforeFieldChange runs with the pre-change field values still in place: the
// member is removed from its current group, which is destroyed immediately
// when emptied (at most one member moves per notification, so there is
// nothing to batch).
func (e *Engine) beforeFieldChange(m *record.Record, property string) {
	if e.destroyed || !e.IsGrouped() {
		return
	}
	if !e.keyProps.Has(property) {
		// subscriptions are keyed to the group key, so this cannot happen
		// unless the bookkeeping invariant is broken
		e.log.V(1).Info("ignoring change notification for non-key property", "property", property)
		return
	}

	keyValues := m.GetFields(e.groupBy)
	g := e.grouped.lookup(keyValues, e.groupBy)
	if g == nil {
		return
	}

	g.members.Remove(m)
	if g.Len() == 0 {
		e.detachAndDestroy(g)
	}
}

// afterFieldChange runs with the post-change field values applied: the member
// is appended to the matching group, creating and attaching a new one when
// none matches. A change that does not alter the key-value tuple nets to a
// remove and re-add into the same group, shifting the member to the end;
// that repositioning is expected, not a defect.
func (e *Engine) afterFieldChange(m *record.Record, property string) {
	if e.destroyed || !e.IsGrouped() {
		return
	}
	if !e.keyProps.Has(property) {
		return
	}

	keyValues := m.GetFields(e.groupBy)
	g := e.grouped.lookup(keyValues, e.groupBy)
	if g == nil {
		g = e.newGroup(keyValues)
		e.grouped.attach(g)
		e.metrics.incCreated(1)
		e.metrics.setGroupsLive(e.grouped.Len())
	}
	g.members.Append(m)

	e.metrics.incRelocations()
	e.log.V(5).Info("member relocated", "member", m.Dump(), "group", g.String())
}

// detachAndDestroy removes an emptied group from the GroupSet and destroys
// it. Safe against re-entrant destruction.
func (e *Engine) detachAndDestroy(g *Group) {
	if g.destroyed {
		return
	}
	e.grouped.detach(g)
	g.destroy()

	e.metrics.incDestroyed(1)
	e.metrics.setGroupsLive(e.grouped.Len())
	e.log.V(4).Info("group destroyed", "group", g.String())
}

// newGroup builds a group with a fresh member collection carrying the
// engine's member-sort defaults.
func (e *Engine) newGroup(keyValues record.Fields) *Group {
	members := collection.New[*record.Record](collection.Options[*record.Record]{
		Logger:         e.logger,
		PropertyReader: record.Property,
		Sorter:         copySortOptions(e.memberSort),
	})
	return e.groupFactory(keyValues, members)
}

// effectiveGroupSort resolves the group-level sort configuration: explicit
// config wins, empty Properties fall back to the group-key property list, and
// no config means insertion order.
func (e *Engine) effectiveGroupSort() *collection.SortOptions {
	if e.groupSort == nil {
		return nil
	}
	ret := copySortOptions(e.groupSort)
	if len(ret.Properties) == 0 {
		ret.Properties = e.GroupBy()
	}
	return ret
}

func validateGroupBy(properties []string) error {
	seen := sets.New[string]()
	for i, p := range properties {
		if p == "" {
			return newConfigurationError("empty group property name at index %d", i)
		}
		if seen.Has(p) {
			return newConfigurationError("duplicate group property %q", p)
		}
		seen.Insert(p)
	}
	return nil
}

func lookupIn(groups []*Group, keyValues record.Fields, properties []string) *Group {
	for _, g := range groups {
		if g.matches(keyValues, properties) {
			return g
		}
	}
	return nil
}

func groupProperty(g *Group, property string) any { return g.Value(property) }

func copySortOptions(s *collection.SortOptions) *collection.SortOptions {
	if s == nil {
		return nil
	}
	ret := &collection.SortOptions{
		Ascending: s.Ascending,
		Compare:   s.Compare,
	}
	ret.Properties = make([]string, len(s.Properties))
	copy(ret.Properties, s.Properties)
	return ret
}

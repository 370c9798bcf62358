package record

import (
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/ohler55/ojg/jp"
)

// FieldChangeHandler is the two-phase callback contract for field-level edits:
// Before is invoked with the pre-change value still in place, After with the
// new value applied. Both phases are load-bearing for consumers that must read
// pre-mutation state (like the grouping engine's relocation path).
type FieldChangeHandler struct {
	Before func(r *Record, property string)
	After  func(r *Record, property string)
}

// Subscription is a typed handle to a registered (record, property) change
// handler, enabling exact removal without name-based dispatch.
type Subscription struct {
	record   *Record
	property string
	id       int64
}

// Cancel removes the handler. Canceling an already-canceled subscription is a
// no-op.
func (s Subscription) Cancel() {
	if s.record == nil {
		return
	}
	s.record.unsubscribe(s.property, s.id)
}

// Record is a mutable unstructured record with a stable UID and per-property
// change notification. Mutations must go through Set so that the paired
// before/after handlers fire; the content returned by accessors is copied and
// writing it back has no effect.
type Record struct {
	uid      string
	content  map[string]any
	handlers map[string]map[int64]FieldChangeHandler
	nextID   int64
}

// New creates a record from the given content. The content is deep-copied.
func New(content Fields) *Record {
	if content == nil {
		content = Fields{}
	}
	return &Record{
		uid:      uuid.NewString(),
		content:  DeepCopyFields(content),
		handlers: make(map[string]map[int64]FieldChangeHandler),
	}
}

// UID returns the record's unique id, assigned at construction.
func (r *Record) UID() string { return r.uid }

// Content returns a deep copy of the record's content.
func (r *Record) Content() Fields { return DeepCopyFields(r.content) }

// Get reads a single named property. Property names starting with '$' are
// evaluated as JSONPath expressions, anything else is a plain top-level key.
func (r *Record) Get(property string) (any, bool) {
	if !strings.HasPrefix(property, "$") {
		v, ok := r.content[property]
		return v, ok
	}

	je, err := jp.ParseString(property)
	if err != nil {
		return nil, false
	}
	values := je.Get(r.content)
	if len(values) == 0 {
		return nil, false
	}
	return values[0], true
}

// GetFields reads several named properties at a single point in time and
// returns them as a property->value projection. Missing properties map to nil.
func (r *Record) GetFields(properties []string) Fields {
	ret := make(Fields, len(properties))
	for _, p := range properties {
		v, _ := r.Get(p)
		ret[p] = v
	}
	return ret
}

// Set writes a single named property, dispatching the before handlers, then
// applying the value, then the after handlers registered for that property.
// Handler dispatch is synchronous and re-entrant: the handler list is
// snapshotted before the first callback runs. The before/after pairing holds
// even when applying the value fails: the after handlers then run with the
// value unchanged, and the error is returned afterwards.
func (r *Record) Set(property string, value any) error {
	var je jp.Expr
	if strings.HasPrefix(property, "$") {
		var err error
		je, err = jp.ParseString(property)
		if err != nil {
			return fmt.Errorf("invalid property path %q: %w", property, err)
		}
	}

	hs := r.snapshotHandlers(property)

	for _, h := range hs {
		if h.Before != nil {
			h.Before(r, property)
		}
	}

	var setErr error
	if je == nil {
		r.content[property] = value
	} else if err := je.Set(r.content, value); err != nil {
		// subscribers that acted on Before must still see After, with
		// the value unchanged
		setErr = fmt.Errorf("failed to set property %q: %w", property, err)
	}

	for _, h := range hs {
		if h.After != nil {
			h.After(r, property)
		}
	}

	return setErr
}

// OnFieldChange registers a before/after change handler for the given
// property. The returned subscription removes exactly this handler.
func (r *Record) OnFieldChange(property string, handler FieldChangeHandler) Subscription {
	r.nextID++
	id := r.nextID

	if r.handlers[property] == nil {
		r.handlers[property] = make(map[int64]FieldChangeHandler)
	}
	r.handlers[property][id] = handler

	return Subscription{record: r, property: property, id: id}
}

// HandlerCount returns the number of change handlers currently registered for
// the given property.
func (r *Record) HandlerCount(property string) int {
	return len(r.handlers[property])
}

func (r *Record) unsubscribe(property string, id int64) {
	hs, ok := r.handlers[property]
	if !ok {
		return
	}
	delete(hs, id)
	if len(hs) == 0 {
		delete(r.handlers, property)
	}
}

// snapshotHandlers returns the handlers for a property in registration order.
func (r *Record) snapshotHandlers(property string) []FieldChangeHandler {
	hs := r.handlers[property]
	if len(hs) == 0 {
		return nil
	}

	ids := make([]int64, 0, len(hs))
	for id := range hs {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	ret := make([]FieldChangeHandler, 0, len(ids))
	for _, id := range ids {
		ret = append(ret, hs[id])
	}
	return ret
}

// Property reads a single named property, mapping missing properties to nil.
// The signature fits the collection sorter's property-reader contract.
func Property(r *Record, property string) any {
	v, _ := r.Get(property)
	return v
}

// Dump returns a compact string representation for debugging and logging.
func (r *Record) Dump() string {
	key, err := jsonKey(r.content)
	if err != nil {
		return fmt.Sprintf("%v", r.content)
	}
	return key
}

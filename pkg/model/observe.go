package model

// MutationKind names the shape of a change record.
type MutationKind string

const (
	MutationSplice MutationKind = "splice"
	MutationSet    MutationKind = "set"
	MutationDelete MutationKind = "delete"
)

// Mutation describes one discrete change to an observable value. Splice
// records fill Index/Removed/Added; set and delete records fill Key (or Index
// for list element assignment) along with Old/New.
type Mutation struct {
	Kind    MutationKind
	Index   int
	Removed []any
	Added   []any
	Key     string
	Old     any
	New     any
}

// MutationFunc receives change records.
type MutationFunc func(Mutation)

// Subscription severs an observation when closed. Closing is idempotent.
type Subscription interface {
	Close()
}

// Observable is implemented by values that report their own mutations.
type Observable interface {
	Observe(fn MutationFunc) Subscription
}

// FirstObservable is implemented by values that can deliver a mutation to
// some observers before the ordinary ones.
type FirstObservable interface {
	ObserveFirst(fn MutationFunc) Subscription
}

// Observer abstracts how the engine subscribes to model objects. Observe
// returns false when obj cannot be observed.
type Observer interface {
	Observe(obj any, fn MutationFunc) (Subscription, bool)
}

// StructureObserver is an Observer that can subscribe ahead of ordinary
// observers. Template iterators use it for the arrays they repeat over so a
// splice is applied to the content tree before bindings under the affected
// instances re-evaluate.
type StructureObserver interface {
	Observer
	ObserveStructure(obj any, fn MutationFunc) (Subscription, bool)
}

// DefaultObserver subscribes to any Observable value.
type DefaultObserver struct{}

// Observe implements Observer.
func (DefaultObserver) Observe(obj any, fn MutationFunc) (Subscription, bool) {
	if fn == nil {
		return nil, false
	}
	observable, ok := obj.(Observable)
	if !ok || observable == nil {
		return nil, false
	}
	return observable.Observe(fn), true
}

// ObserveStructure implements StructureObserver. Values without a first tier
// fall back to Observe.
func (d DefaultObserver) ObserveStructure(obj any, fn MutationFunc) (Subscription, bool) {
	if fn == nil {
		return nil, false
	}
	if first, ok := obj.(FirstObservable); ok && first != nil {
		return first.ObserveFirst(fn), true
	}
	return d.Observe(obj, fn)
}

type observer struct {
	fn     MutationFunc
	active bool
	first  bool
}

func (o *observer) Close() {
	o.active = false
}

// observers is the registry embedded by Map and List. Dispatch iterates a
// copy, first-tier entries before the rest, and a subscription closed
// mid-dispatch is skipped.
type observers struct {
	entries []*observer
}

func (o *observers) add(fn MutationFunc, first bool) Subscription {
	entry := &observer{fn: fn, active: true, first: first}
	o.compact()
	o.entries = append(o.entries, entry)
	return entry
}

func (o *observers) notify(m Mutation) {
	if len(o.entries) == 0 {
		return
	}
	snapshot := append([]*observer(nil), o.entries...)
	for _, tier := range [...]bool{true, false} {
		for _, entry := range snapshot {
			if entry.active && entry.first == tier {
				entry.fn(m)
			}
		}
	}
	o.compact()
}

func (o *observers) count() int {
	n := 0
	for _, entry := range o.entries {
		if entry.active {
			n++
		}
	}
	return n
}

func (o *observers) compact() {
	out := o.entries[:0]
	for _, entry := range o.entries {
		if entry.active {
			out = append(out, entry)
		}
	}
	for idx := len(out); idx < len(o.entries); idx++ {
		o.entries[idx] = nil
	}
	o.entries = out
}

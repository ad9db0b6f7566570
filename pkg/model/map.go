package model

import "sort"

// Map is an observable string-keyed object.
type Map struct {
	values    map[string]any
	observers observers
}

// NewMap builds a Map seeded with values. The input map is copied.
func NewMap(values map[string]any) *Map {
	m := &Map{values: make(map[string]any, len(values))}
	for key, value := range values {
		m.values[key] = value
	}
	return m
}

// Get returns the value stored under key.
func (m *Map) Get(key string) (any, bool) {
	if m == nil {
		return nil, false
	}
	value, ok := m.values[key]
	return value, ok
}

// Set stores value under key and notifies observers when the value changed.
func (m *Map) Set(key string, value any) {
	old, existed := m.values[key]
	if existed && Same(old, value) {
		return
	}
	if m.values == nil {
		m.values = make(map[string]any)
	}
	m.values[key] = value
	m.observers.notify(Mutation{Kind: MutationSet, Key: key, Old: old, New: value})
}

// Delete removes key, notifying observers if it was present.
func (m *Map) Delete(key string) {
	old, existed := m.values[key]
	if !existed {
		return
	}
	delete(m.values, key)
	m.observers.notify(Mutation{Kind: MutationDelete, Key: key, Old: old})
}

// Keys returns the sorted key set.
func (m *Map) Keys() []string {
	if m == nil {
		return nil
	}
	keys := make([]string, 0, len(m.values))
	for key := range m.values {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// Len reports the number of keys.
func (m *Map) Len() int {
	if m == nil {
		return 0
	}
	return len(m.values)
}

// Observe implements Observable.
func (m *Map) Observe(fn MutationFunc) Subscription {
	return m.observers.add(fn, false)
}

// ObserveFirst implements FirstObservable.
func (m *Map) ObserveFirst(fn MutationFunc) Subscription {
	return m.observers.add(fn, true)
}

// ObserverCount reports active subscriptions; useful to assert teardown.
func (m *Map) ObserverCount() int {
	return m.observers.count()
}

// Assign makes m mirror other: every key of other is set and keys missing
// from other are deleted. Observers see one record per changed key.
func (m *Map) Assign(other *Map) {
	for _, key := range m.Keys() {
		if _, ok := other.Get(key); !ok {
			m.Delete(key)
		}
	}
	for _, key := range other.Keys() {
		value, _ := other.Get(key)
		m.Set(key, value)
	}
}

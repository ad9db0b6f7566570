package model

import "fmt"

// List is an observable array. Structural edits are reported as splice
// records; element assignment is reported as a set record carrying Index.
type List struct {
	items     []any
	observers observers
}

// NewList builds a List holding items. The slice is copied.
func NewList(items ...any) *List {
	return &List{items: append([]any(nil), items...)}
}

// Len returns the number of elements.
func (l *List) Len() int {
	if l == nil {
		return 0
	}
	return len(l.items)
}

// At returns the element at idx.
func (l *List) At(idx int) (any, bool) {
	if l == nil || idx < 0 || idx >= len(l.items) {
		return nil, false
	}
	return l.items[idx], true
}

// Values returns a copy of the elements.
func (l *List) Values() []any {
	if l == nil {
		return nil
	}
	return append([]any(nil), l.items...)
}

// Set replaces the element at idx.
func (l *List) Set(idx int, value any) error {
	if idx < 0 || idx >= len(l.items) {
		return fmt.Errorf("model: list index %d out of range [0,%d)", idx, len(l.items))
	}
	old := l.items[idx]
	if Same(old, value) {
		return nil
	}
	l.items[idx] = value
	l.observers.notify(Mutation{Kind: MutationSet, Index: idx, Key: fmt.Sprint(idx), Old: old, New: value})
	return nil
}

// Splice removes removeCount elements at index and inserts items in their
// place, returning the removed elements. index is clamped to [0, Len] and
// removeCount to the available tail. A no-op splice emits nothing.
func (l *List) Splice(index, removeCount int, items ...any) []any {
	if index < 0 {
		index = 0
	}
	if index > len(l.items) {
		index = len(l.items)
	}
	if removeCount < 0 {
		removeCount = 0
	}
	if index+removeCount > len(l.items) {
		removeCount = len(l.items) - index
	}

	removed := append([]any(nil), l.items[index:index+removeCount]...)
	added := append([]any(nil), items...)

	next := make([]any, 0, len(l.items)-removeCount+len(added))
	next = append(next, l.items[:index]...)
	next = append(next, added...)
	next = append(next, l.items[index+removeCount:]...)
	l.items = next

	if len(removed) == 0 && len(added) == 0 {
		return removed
	}
	l.observers.notify(Mutation{Kind: MutationSplice, Index: index, Removed: removed, Added: added})
	return removed
}

// Append adds items at the end.
func (l *List) Append(items ...any) {
	l.Splice(len(l.items), 0, items...)
}

// RemoveAt removes count elements starting at idx.
func (l *List) RemoveAt(idx, count int) []any {
	return l.Splice(idx, count)
}

// Observe implements Observable.
func (l *List) Observe(fn MutationFunc) Subscription {
	return l.observers.add(fn, false)
}

// ObserveFirst implements FirstObservable.
func (l *List) ObserveFirst(fn MutationFunc) Subscription {
	return l.observers.add(fn, true)
}

// ObserverCount reports active subscriptions.
func (l *List) ObserverCount() int {
	return l.observers.count()
}

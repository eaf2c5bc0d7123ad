package event

import (
	"reflect"
	"sync"
)

// Bus is a registry of listeners. Registration ignores nil and duplicate
// listeners, and listeners whose dynamic type cannot be compared; notification always iterates over a snapshot so listeners may
// add or remove listeners while being notified.
type Bus[L comparable] struct {
	mu        sync.RWMutex
	listeners []L
}

// Add registers l and reports whether it was added
func (b *Bus[L]) Add(l L) bool {
	if !identifiable(l) {
		return false
	}
	var zero L
	if l == zero {
		return false
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	for _, existing := range b.listeners {
		if existing == l {
			return false
		}
	}
	b.listeners = append(b.listeners, l)
	return true
}

// Remove unregisters l and reports whether it was registered
func (b *Bus[L]) Remove(l L) bool {
	if !identifiable(l) {
		return false
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	for i, existing := range b.listeners {
		if existing == l {
			b.listeners = append(b.listeners[:i:i], b.listeners[i+1:]...)
			return true
		}
	}
	return false
}

// identifiable reports whether l can be compared with ==. Interface type
// parameters still admit values of uncomparable dynamic types, and comparing
// two of those panics.
func identifiable(l any) bool {
	t := reflect.TypeOf(l)
	return t == nil || t.Comparable()
}

// Len returns the number of registered listeners
func (b *Bus[L]) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.listeners)
}

// Snapshot returns the listeners in registration order
func (b *Bus[L]) Snapshot() []L {
	b.mu.RLock()
	defer b.mu.RUnlock()

	out := make([]L, len(b.listeners))
	copy(out, b.listeners)
	return out
}

// Each calls fn for every listener in a snapshot
func (b *Bus[L]) Each(fn func(L)) {
	for _, l := range b.Snapshot() {
		fn(l)
	}
}

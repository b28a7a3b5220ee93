package registry

import (
	"fmt"

	"nftmarket/native/common"
)

// List is a dense enumerable collection with O(1) insert, remove and lookup.
// Entries keep their insertion order until a removal, which swap-deletes:
// the last entry moves into the freed slot and the slice is truncated, so the
// previously-last entry is the only one whose position changes.
type List[K comparable, V any] struct {
	entries   []listEntry[K, V]
	positions map[K]int
}

type listEntry[K comparable, V any] struct {
	key   K
	value V
}

// NewList returns an empty list.
func NewList[K comparable, V any]() *List[K, V] {
	return &List[K, V]{positions: make(map[K]int)}
}

// Put appends a new entry. It fails if the key is already present.
func (l *List[K, V]) Put(key K, value V) error {
	if _, ok := l.positions[key]; ok {
		return fmt.Errorf("registry: key already present: %w", common.ErrInvalidInput)
	}
	l.positions[key] = len(l.entries)
	l.entries = append(l.entries, listEntry[K, V]{key: key, value: value})
	return nil
}

// Update replaces the value stored for an existing key.
func (l *List[K, V]) Update(key K, value V) error {
	pos, ok := l.positions[key]
	if !ok {
		return fmt.Errorf("registry: key not present: %w", common.ErrNotFound)
	}
	l.entries[pos].value = value
	return nil
}

// Delete swap-deletes the entry for key and returns its value.
func (l *List[K, V]) Delete(key K) (V, error) {
	pos, ok := l.positions[key]
	if !ok {
		var zero V
		return zero, fmt.Errorf("registry: key not present: %w", common.ErrNotFound)
	}
	removed := l.entries[pos].value
	last := len(l.entries) - 1
	if pos != last {
		l.entries[pos] = l.entries[last]
		l.positions[l.entries[pos].key] = pos
	}
	l.entries = l.entries[:last]
	delete(l.positions, key)
	return removed, nil
}

// Get returns the value stored for key.
func (l *List[K, V]) Get(key K) (V, bool) {
	pos, ok := l.positions[key]
	if !ok {
		var zero V
		return zero, false
	}
	return l.entries[pos].value, true
}

// Contains reports membership.
func (l *List[K, V]) Contains(key K) bool {
	_, ok := l.positions[key]
	return ok
}

// Len returns the number of entries.
func (l *List[K, V]) Len() int {
	return len(l.entries)
}

// ByIndex returns the entry occupying position i.
func (l *List[K, V]) ByIndex(i int) (V, error) {
	if i < 0 || i >= len(l.entries) {
		var zero V
		return zero, fmt.Errorf("registry: index %d out of bounds: %w", i, common.ErrNotFound)
	}
	return l.entries[i].value, nil
}

// KeyByIndex returns the key occupying position i.
func (l *List[K, V]) KeyByIndex(i int) (K, error) {
	if i < 0 || i >= len(l.entries) {
		var zero K
		return zero, fmt.Errorf("registry: index %d out of bounds: %w", i, common.ErrNotFound)
	}
	return l.entries[i].key, nil
}

// Keys returns the keys in current enumeration order.
func (l *List[K, V]) Keys() []K {
	keys := make([]K, len(l.entries))
	for i := range l.entries {
		keys[i] = l.entries[i].key
	}
	return keys
}

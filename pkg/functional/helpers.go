package f

import "slices"

type Set[T comparable] map[T]struct{}

func NewSet[T comparable](items ...T) Set[T] {
	s := make(Set[T], len(items))
	for _, item := range items {
		s.Add(item)
	}
	return s
}

func (s Set[T]) Add(item T) {
	s[item] = struct{}{}
}

func (s Set[T]) Contains(item T) bool {
	_, found := s[item]
	return found
}

func Map[T, U any](ts []T, f func(T) U) []U {
	us := make([]U, len(ts))
	for i, t := range ts {
		us[i] = f(t)
	}
	return us
}

func Filtered[T any](ts []T, f func(T) bool) []T {
	filtered := make([]T, 0, len(ts))
	for _, t := range ts {
		if f(t) {
			filtered = append(filtered, t)
		}
	}
	return filtered
}

// Unique returns the distinct items of ts in first-seen order. ts is not modified.
func Unique[T comparable](ts []T) []T {
	seen := NewSet[T]()
	return Filtered(ts, func(t T) bool {
		if seen.Contains(t) {
			return false
		}
		seen.Add(t)
		return true
	})
}

// Grouped is a multimap that remembers the order in which keys were first added.
type Grouped[K comparable, V any] struct {
	keys   []K
	values map[K][]V
}

func NewGrouped[K comparable, V any]() *Grouped[K, V] {
	return &Grouped[K, V]{values: make(map[K][]V)}
}

func (g *Grouped[K, V]) Add(key K, value V) {
	if _, found := g.values[key]; !found {
		g.keys = append(g.keys, key)
	}
	g.values[key] = append(g.values[key], value)
}

func (g *Grouped[K, V]) Keys() []K {
	return slices.Clone(g.keys)
}

func (g *Grouped[K, V]) Get(key K) []V {
	return g.values[key]
}

func (g *Grouped[K, V]) Len() int {
	return len(g.keys)
}

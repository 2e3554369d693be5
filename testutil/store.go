package testutil

import (
	"sort"
	"sync"
)

// InMemoryStore is a generic id-keyed store that hands out ascending ids.
type InMemoryStore[T any] struct {
	mu     sync.RWMutex
	items  map[uint]T
	nextID uint
}

func NewInMemoryStore[T any]() *InMemoryStore[T] {
	return &InMemoryStore[T]{items: make(map[uint]T)}
}

func (s *InMemoryStore[T]) nextIdentity() uint {
	s.nextID++
	return s.nextID
}

func (s *InMemoryStore[T]) get(id uint) (T, bool) {
	item, ok := s.items[id]
	return item, ok
}

// list returns matching items ordered by id.
func (s *InMemoryStore[T]) list(match func(T) bool) []T {
	ids := make([]uint, 0, len(s.items))
	for id := range s.items {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	out := make([]T, 0, len(ids))
	for _, id := range ids {
		if match == nil || match(s.items[id]) {
			out = append(out, s.items[id])
		}
	}
	return out
}

// Clear removes all items from the store
func (s *InMemoryStore[T]) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = make(map[uint]T)
	s.nextID = 0
}

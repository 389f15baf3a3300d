package testutil

import (
	"context"
	"sort"
	"sync"

	ierr "github.com/funduq/funduq/internal/errors"
)

// InMemoryStore is a generic concurrency-safe map store backing the test
// repositories
type InMemoryStore[T any] struct {
	mu    sync.RWMutex
	items map[string]T
}

func NewInMemoryStore[T any]() *InMemoryStore[T] {
	return &InMemoryStore[T]{
		items: make(map[string]T),
	}
}

func (s *InMemoryStore[T]) Create(_ context.Context, id string, item T) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.items[id]; exists {
		return ierr.NewError("item already exists").
			WithReportableDetails(map[string]interface{}{"id": id}).
			Mark(ierr.ErrAlreadyExists)
	}
	s.items[id] = item
	return nil
}

func (s *InMemoryStore[T]) Get(_ context.Context, id string) (T, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	item, exists := s.items[id]
	if !exists {
		var zero T
		return zero, ierr.NewError("item not found").
			WithReportableDetails(map[string]interface{}{"id": id}).
			Mark(ierr.ErrNotFound)
	}
	return item, nil
}

func (s *InMemoryStore[T]) Update(_ context.Context, id string, item T) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.items[id]; !exists {
		return ierr.NewError("item not found").
			WithReportableDetails(map[string]interface{}{"id": id}).
			Mark(ierr.ErrNotFound)
	}
	s.items[id] = item
	return nil
}

// Upsert stores merge(existing, found) under id atomically
func (s *InMemoryStore[T]) Upsert(_ context.Context, id string, merge func(existing T, found bool) T) T {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, found := s.items[id]
	item := merge(existing, found)
	s.items[id] = item
	return item
}

func (s *InMemoryStore[T]) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.items[id]; !exists {
		return ierr.NewError("item not found").
			WithReportableDetails(map[string]interface{}{"id": id}).
			Mark(ierr.ErrNotFound)
	}
	delete(s.items, id)
	return nil
}

// List returns the items accepted by filterFn, ordered by sortFn when set
func (s *InMemoryStore[T]) List(
	ctx context.Context,
	filter interface{},
	filterFn func(ctx context.Context, item T, filter interface{}) bool,
	sortFn func(i, j T) bool,
) ([]T, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var items []T
	for _, item := range s.items {
		if filterFn == nil || filterFn(ctx, item, filter) {
			items = append(items, item)
		}
	}
	if sortFn != nil {
		sort.SliceStable(items, func(i, j int) bool {
			return sortFn(items[i], items[j])
		})
	}
	return items, nil
}

func (s *InMemoryStore[T]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

func (s *InMemoryStore[T]) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = make(map[string]T)
}

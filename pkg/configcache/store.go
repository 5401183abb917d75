package configcache

import (
	"context"
	"strings"

	"github.com/jellydator/ttlcache/v3"
)

// Store holds cache entries. Implementations must be safe for concurrent use.
type Store[T any] interface {
	// Get returns the entry stored under key. found is false when there is none.
	Get(ctx context.Context, key string) (entry Entry[T], found bool, err error)
	// Set stores entry under key. The store may drop it once EvictAfter has elapsed.
	Set(ctx context.Context, key string, entry Entry[T]) error
	// Delete removes key.
	Delete(ctx context.Context, key string) error
	// DeletePrefix removes every key starting with prefix.
	DeletePrefix(ctx context.Context, prefix string) error
	// Close releases the store's resources.
	Close() error
}

// MemoryStore keeps entries in process memory. Items expire EvictAfter after they are set.
type MemoryStore[T any] struct {
	items *ttlcache.Cache[string, Entry[T]]
}

// NewMemoryStore creates an in-memory store and starts its expiry loop.
func NewMemoryStore[T any]() *MemoryStore[T] {
	items := ttlcache.New(
		ttlcache.WithDisableTouchOnHit[string, Entry[T]](),
	)
	go items.Start()
	return &MemoryStore[T]{items: items}
}

func (s *MemoryStore[T]) Get(_ context.Context, key string) (Entry[T], bool, error) {
	item := s.items.Get(key)
	if item == nil {
		var zero Entry[T]
		return zero, false, nil
	}
	return item.Value(), true, nil
}

func (s *MemoryStore[T]) Set(_ context.Context, key string, entry Entry[T]) error {
	ttl := entry.EvictAfter
	if ttl <= 0 {
		ttl = ttlcache.NoTTL
	}
	s.items.Set(key, entry, ttl)
	return nil
}

func (s *MemoryStore[T]) Delete(_ context.Context, key string) error {
	s.items.Delete(key)
	return nil
}

func (s *MemoryStore[T]) DeletePrefix(_ context.Context, prefix string) error {
	for _, key := range s.items.Keys() {
		if strings.HasPrefix(key, prefix) {
			s.items.Delete(key)
		}
	}
	return nil
}

// Len returns the number of live items.
func (s *MemoryStore[T]) Len() int {
	return s.items.Len()
}

// Close stops the expiry loop.
func (s *MemoryStore[T]) Close() error {
	s.items.Stop()
	return nil
}

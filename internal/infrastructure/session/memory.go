// Package session keeps flow sessions in process memory. Sessions do not
// survive a restart.
package session

import (
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/owningthelook/backend/internal/domain"
)

// entry is a stored value with its sliding expiration
type entry[T any] struct {
	value      T
	expiration time.Time
}

// MemoryStore is a thread-safe in-memory registry with sliding TTL
type MemoryStore[T any] struct {
	data  map[string]entry[T]
	mutex sync.RWMutex
	ttl   time.Duration
	now   func() time.Time
	stop  chan struct{}
	once  sync.Once
}

// NewMemoryStore creates a store whose entries expire ttl after last use.
// A cleanup goroutine runs every cleanupInterval until Close.
func NewMemoryStore[T any](ttl, cleanupInterval time.Duration) *MemoryStore[T] {
	store := &MemoryStore[T]{
		data: make(map[string]entry[T]),
		ttl:  ttl,
		now:  time.Now,
		stop: make(chan struct{}),
	}

	if cleanupInterval > 0 {
		go store.cleanupExpired(cleanupInterval)
	}

	return store
}

// NewID returns a fresh session id
func (s *MemoryStore[T]) NewID() string {
	return uuid.NewString()
}

// Put stores value under id
func (s *MemoryStore[T]) Put(id string, value T) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.data[id] = entry[T]{value: value, expiration: s.now().Add(s.ttl)}
}

// Get returns the value under id and extends its lifetime
func (s *MemoryStore[T]) Get(id string) (T, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	var zero T
	item, exists := s.data[id]
	if !exists {
		return zero, domain.ErrSessionNotFound
	}

	now := s.now()
	if now.After(item.expiration) {
		delete(s.data, id)
		return zero, domain.ErrSessionNotFound
	}

	item.expiration = now.Add(s.ttl)
	s.data[id] = item
	return item.value, nil
}

// Delete removes id; unknown ids report ErrSessionNotFound
func (s *MemoryStore[T]) Delete(id string) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if _, exists := s.data[id]; !exists {
		return domain.ErrSessionNotFound
	}
	delete(s.data, id)
	return nil
}

// Size returns the current number of entries, expired ones included until swept
func (s *MemoryStore[T]) Size() int {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return len(s.data)
}

// Close stops the cleanup goroutine
func (s *MemoryStore[T]) Close() {
	s.once.Do(func() { close(s.stop) })
}

// sweep removes expired entries and returns how many it removed
func (s *MemoryStore[T]) sweep() int {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	now := s.now()
	removed := 0
	for id, item := range s.data {
		if now.After(item.expiration) {
			delete(s.data, id)
			removed++
		}
	}
	return removed
}

// cleanupExpired sweeps periodically
func (s *MemoryStore[T]) cleanupExpired(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if removed := s.sweep(); removed > 0 {
				log.Printf("[Session] Expired %d sessions", removed)
			}
		case <-s.stop:
			return
		}
	}
}

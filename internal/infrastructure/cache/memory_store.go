// Package cache implementa el índice efímero de duplicados: una versión en
// memoria para despliegues de un solo nodo y una sobre Redis para compartir
// el índice entre réplicas. Ambas expiran los baldes completos al vencer la
// ventana; el libro contable nunca depende de este índice.
package cache

import (
	"context"
	"sync"
	"time"
)

// MemoryStore índice en memoria con candado. Los baldes vencidos se filtran
// en lectura y se eliminan de verdad en Purge (lo invoca el barredor).
type MemoryStore struct {
	mu      sync.Mutex
	buckets map[string]memoryBucket
	now     func() time.Time
}

type memoryBucket struct {
	members   []string
	expiresAt time.Time
}

// NewMemoryStore construye el índice en memoria.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		buckets: make(map[string]memoryBucket),
		now:     time.Now,
	}
}

// Add agrega el miembro al balde y corre la expiración a now+window.
func (s *MemoryStore) Add(_ context.Context, bucket, member string, window time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	b := s.buckets[bucket]
	if !b.expiresAt.IsZero() && !s.now().Before(b.expiresAt) {
		b = memoryBucket{}
	}
	b.members = append(b.members, member)
	b.expiresAt = s.now().Add(window)
	s.buckets[bucket] = b
	return nil
}

// Members lista los miembros vigentes del balde.
func (s *MemoryStore) Members(_ context.Context, bucket string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.buckets[bucket]
	if !ok || !s.now().Before(b.expiresAt) {
		return nil, nil
	}
	out := make([]string, len(b.members))
	copy(out, b.members)
	return out, nil
}

// Purge elimina los baldes vencidos y devuelve cuántos retiró.
func (s *MemoryStore) Purge() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	now := s.now()
	for key, b := range s.buckets {
		if !now.Before(b.expiresAt) {
			delete(s.buckets, key)
			removed++
		}
	}
	return removed
}

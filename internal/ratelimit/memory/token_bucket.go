// Package memory provides an in-process token bucket limiter keyed by
// account, adapted from the connector's original single-bucket design.
package memory

import (
	"sync"
	"time"

	"github.com/ilpgo/connector/internal/ratelimit"
)

type bucket struct {
	mu             sync.Mutex
	tokens         float64
	lastRefillTime time.Time
}

// Store is a registry of independent token buckets, one per key, all
// sharing the same capacity and refill rate. Buckets are created lazily
// on first use and never evicted (bounded by the connector's account
// count, not request volume).
type Store struct {
	capacity   float64
	refillRate float64 // tokens per second

	mu      sync.Mutex
	buckets map[string]*bucket
}

// New returns a Store where each key's bucket holds up to capacity
// tokens and refills at refillRate tokens/second.
func New(capacity, refillRate float64) *Store {
	return &Store{
		capacity:   capacity,
		refillRate: refillRate,
		buckets:    make(map[string]*bucket),
	}
}

func (s *Store) bucketFor(key string) *bucket {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.buckets[key]
	if !ok {
		b = &bucket{tokens: s.capacity, lastRefillTime: time.Now()}
		s.buckets[key] = b
	}
	return b
}

func (s *Store) refill(b *bucket) {
	now := time.Now()
	elapsed := now.Sub(b.lastRefillTime)
	if b.tokens < s.capacity {
		b.tokens += elapsed.Seconds() * s.refillRate
		if b.tokens > s.capacity {
			b.tokens = s.capacity
		}
	}
	b.lastRefillTime = now
}

// Allow consumes cost tokens from key's bucket if enough are available.
func (s *Store) Allow(key string, cost float64) (bool, error) {
	b := s.bucketFor(key)
	b.mu.Lock()
	defer b.mu.Unlock()

	s.refill(b)
	if b.tokens >= cost {
		b.tokens -= cost
		return true, nil
	}
	return false, nil
}

// Refund returns units to key's bucket without the capacity cap, so a
// refund following a burst of allowed requests can't be clipped short.
func (s *Store) Refund(key string, units float64) error {
	b := s.bucketFor(key)
	b.mu.Lock()
	defer b.mu.Unlock()
	b.tokens += units
	return nil
}

// Available reports the current token count for key, for tests and
// diagnostics.
func (s *Store) Available(key string) float64 {
	b := s.bucketFor(key)
	b.mu.Lock()
	defer b.mu.Unlock()
	s.refill(b)
	return b.tokens
}

var _ ratelimit.Limiter = (*Store)(nil)

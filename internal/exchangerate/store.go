// Package exchangerate polls external rate providers and publishes a
// copy-on-write snapshot that the pipeline's exchange-rate middleware
// reads on every packet.
package exchangerate

import (
	"strings"
	"sync/atomic"
)

// Store holds the most recently polled USD-denominated rate for each
// asset code, readable without locking via an atomic snapshot swap so
// the per-packet hot path never blocks on a poll in progress.
type Store struct {
	snapshot atomic.Pointer[map[string]float64]
}

// NewStore returns a Store seeded with USD=1.0.
func NewStore() *Store {
	s := &Store{}
	seed := map[string]float64{"USD": 1.0}
	s.snapshot.Store(&seed)
	return s
}

// Rate implements middleware.RateStore: the USD price of one unit of
// assetCode, or false if no provider has reported it.
func (s *Store) Rate(assetCode string) (float64, bool) {
	rates := s.snapshot.Load()
	rate, ok := (*rates)[strings.ToUpper(assetCode)]
	return rate, ok
}

// Replace swaps in a freshly polled rate table wholesale. USD is
// always pinned to 1.0 regardless of what a provider reported for it.
func (s *Store) Replace(rates map[string]float64) {
	next := make(map[string]float64, len(rates)+1)
	for code, rate := range rates {
		next[strings.ToUpper(code)] = rate
	}
	next["USD"] = 1.0
	s.snapshot.Store(&next)
}

// Merge layers rates from one provider on top of the current
// snapshot, overwriting only the codes that provider reported.
func (s *Store) Merge(rates map[string]float64) {
	current := s.snapshot.Load()
	next := make(map[string]float64, len(*current)+len(rates))
	for code, rate := range *current {
		next[code] = rate
	}
	for code, rate := range rates {
		next[strings.ToUpper(code)] = rate
	}
	next["USD"] = 1.0
	s.snapshot.Store(&next)
}

// Snapshot returns a copy of the current rate table, for the admin API.
func (s *Store) Snapshot() map[string]float64 {
	current := s.snapshot.Load()
	out := make(map[string]float64, len(*current))
	for code, rate := range *current {
		out[code] = rate
	}
	return out
}

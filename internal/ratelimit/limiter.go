// Package ratelimit defines the token-bucket abstraction shared by the
// connector's in-memory and Redis-backed rate limiters.
package ratelimit

// Limiter is satisfied by both the in-memory and Redis implementations.
// A connector account gets two Limiter instances: one counting packets,
// one counting amount units, each keyed by account ID.
type Limiter interface {
	// Allow checks whether one unit (a packet, or `cost` amount units) is
	// available for key and consumes it if so.
	Allow(key string, cost float64) (bool, error)

	// Refund returns previously consumed units to the bucket for key,
	// used when a Prepare is later rejected and its reserved amount
	// should not count against the sender's window.
	Refund(key string, units float64) error
}

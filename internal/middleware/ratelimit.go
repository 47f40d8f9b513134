// Package middleware implements the connector's per-request pipeline
// stages: rate limiting, max packet amount enforcement, exchange rate
// conversion, expiry shortening, and balance bookkeeping. Each stage is
// an ilpservice.IncomingService or ilpservice.OutgoingService wrapper
// that calls through to the next stage in the chain.
package middleware

import (
	"context"
	"fmt"

	"github.com/ilpgo/connector/internal/ratelimit"
	"github.com/ilpgo/connector/pkg/ilppacket"
	"github.com/ilpgo/connector/pkg/ilpservice"
)

// RateLimiter charges two token buckets keyed by the sending account's
// ID: one token per packet from Packets, and the Prepare's amount from
// Amounts. Capacity and refill rate are those of the Limiters it is
// given, the same for every account; the account's
// PacketsPerMinuteLimit and AmountPerMinuteLimit fields are not read. A
// Prepare that is later rejected has its reserved amount refunded to the
// amount bucket, since the packet never actually transferred value.
type RateLimiter struct {
	Next ilpservice.IncomingService

	Packets ratelimit.Limiter
	Amounts ratelimit.Limiter
}

// NewRateLimiter returns a RateLimiter wrapping next.
func NewRateLimiter(next ilpservice.IncomingService, packets, amounts ratelimit.Limiter) *RateLimiter {
	return &RateLimiter{Next: next, Packets: packets, Amounts: amounts}
}

func (m *RateLimiter) HandleRequest(ctx context.Context, req ilpservice.IncomingRequest) (ilpservice.Result, error) {
	key := string(req.From.ID)

	if m.Packets != nil {
		allowed, err := m.Packets.Allow(key, 1)
		if err != nil {
			return ilpservice.Result{}, fmt.Errorf("ratelimit: packet bucket: %w", err)
		}
		if !allowed {
			return ilpservice.RejectResult(rateLimitedReject(req.Prepare, "packets per minute exceeded")), nil
		}
	}

	if m.Amounts != nil {
		cost := float64(req.Prepare.Amount)
		allowed, err := m.Amounts.Allow(key, cost)
		if err != nil {
			return ilpservice.Result{}, fmt.Errorf("ratelimit: amount bucket: %w", err)
		}
		if !allowed {
			return ilpservice.RejectResult(rateLimitedReject(req.Prepare, "amount per minute exceeded")), nil
		}
	}

	result, err := m.Next.HandleRequest(ctx, req)
	if err != nil {
		return result, err
	}

	if result.Reject != nil && m.Amounts != nil {
		_ = m.Amounts.Refund(key, float64(req.Prepare.Amount))
	}
	return result, nil
}

func rateLimitedReject(p ilppacket.Prepare, message string) ilppacket.Reject {
	return ilppacket.RejectBuilder{
		Code:    ilppacket.CodeT05RateLimited,
		Message: message,
	}.Build()
}

var _ ilpservice.IncomingService = (*RateLimiter)(nil)

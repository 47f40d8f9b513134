package middleware

import (
	"context"

	"github.com/ilpgo/connector/pkg/ilpservice"
)

// ExpiryShortener reduces each Prepare's expiry by both endpoints'
// estimated round trip time before forwarding it onward, so a Reject
// caused by an upstream timeout has time to propagate back before the
// original sender's own expiry is reached.
type ExpiryShortener struct {
	Next ilpservice.OutgoingService
}

// NewExpiryShortener returns an ExpiryShortener wrapping next.
func NewExpiryShortener(next ilpservice.OutgoingService) *ExpiryShortener {
	return &ExpiryShortener{Next: next}
}

func (m *ExpiryShortener) SendRequest(ctx context.Context, req ilpservice.OutgoingRequest) (ilpservice.Result, error) {
	slack := req.From.RoundTripTimeOrDefault() + req.To.RoundTripTimeOrDefault()
	req.Prepare.ExpiresAt = req.Prepare.ExpiresAt.Add(-slack)
	return m.Next.SendRequest(ctx, req)
}

var _ ilpservice.OutgoingService = (*ExpiryShortener)(nil)

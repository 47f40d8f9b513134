// Package validator implements the incoming expiry check and the
// outgoing per-hop timeout and fulfillment-condition check, grounded on
// the original validator service.
package validator

import (
	"context"
	"time"

	"github.com/ilpgo/connector/pkg/ilppacket"
	"github.com/ilpgo/connector/pkg/ilpservice"
)

// Incoming rejects any Prepare that has already expired before it is
// handed further into the pipeline.
type Incoming struct {
	Next ilpservice.IncomingService
	Now  func() time.Time
}

// NewIncoming returns an Incoming validator wrapping next.
func NewIncoming(next ilpservice.IncomingService) *Incoming {
	return &Incoming{Next: next, Now: time.Now}
}

func (v *Incoming) HandleRequest(ctx context.Context, req ilpservice.IncomingRequest) (ilpservice.Result, error) {
	if !req.Prepare.ExpiresAt.After(v.now()) {
		return ilpservice.RejectResult(timedOut("")), nil
	}
	return v.Next.HandleRequest(ctx, req)
}

func (v *Incoming) now() time.Time {
	if v.Now != nil {
		return v.Now()
	}
	return time.Now()
}

// Outgoing bounds the next hop's response time to what remains of the
// Prepare's expiry and checks that a returned Fulfill's preimage hashes
// to the original execution condition before letting it pass.
type Outgoing struct {
	Next ilpservice.OutgoingService
	Now  func() time.Time
}

// NewOutgoing returns an Outgoing validator wrapping next.
func NewOutgoing(next ilpservice.OutgoingService) *Outgoing {
	return &Outgoing{Next: next, Now: time.Now}
}

func (v *Outgoing) SendRequest(ctx context.Context, req ilpservice.OutgoingRequest) (ilpservice.Result, error) {
	now := v.now()
	timeout := req.Prepare.ExpiresAt.Sub(now)
	if timeout <= 0 {
		return ilpservice.RejectResult(timedOut("")), nil
	}

	hopCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	result, err := v.Next.SendRequest(hopCtx, req)
	if hopCtx.Err() == context.DeadlineExceeded {
		return ilpservice.RejectResult(timedOut("")), nil
	}
	if err != nil {
		return result, err
	}

	if result.Fulfill != nil {
		if result.Fulfill.Condition() != req.Prepare.ExecutionCondition {
			return ilpservice.RejectResult(invalidPeerResponse()), nil
		}
	}
	return result, nil
}

func (v *Outgoing) now() time.Time {
	if v.Now != nil {
		return v.Now()
	}
	return time.Now()
}

func timedOut(message string) ilppacket.Reject {
	return ilppacket.RejectBuilder{Code: ilppacket.CodeR00TransferTimedOut, Message: message}.Build()
}

func invalidPeerResponse() ilppacket.Reject {
	return ilppacket.RejectBuilder{
		Code:    ilppacket.CodeF09InvalidPeerResponse,
		Message: "fulfillment did not match condition",
	}.Build()
}

var (
	_ ilpservice.IncomingService = (*Incoming)(nil)
	_ ilpservice.OutgoingService = (*Outgoing)(nil)
)

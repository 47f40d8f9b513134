package middleware

import (
	"context"

	"github.com/ilpgo/connector/pkg/ilppacket"
	"github.com/ilpgo/connector/pkg/ilpservice"
)

// MaxPacketAmount rejects any Prepare whose amount exceeds the sending
// account's configured ceiling, signaling the limit back to the sender
// in the Reject's data so its sending software can adapt.
type MaxPacketAmount struct {
	Next ilpservice.IncomingService
}

// NewMaxPacketAmount returns a MaxPacketAmount wrapping next.
func NewMaxPacketAmount(next ilpservice.IncomingService) *MaxPacketAmount {
	return &MaxPacketAmount{Next: next}
}

func (m *MaxPacketAmount) HandleRequest(ctx context.Context, req ilpservice.IncomingRequest) (ilpservice.Result, error) {
	max := req.From.MaxPacketAmountOrMax()
	if req.Prepare.Amount <= max {
		return m.Next.HandleRequest(ctx, req)
	}

	details := ilppacket.MaxPacketAmountDetails{
		AmountReceived: req.Prepare.Amount,
		MaxAmount:      max,
	}
	reject := ilppacket.RejectBuilder{
		Code: ilppacket.CodeF08AmountTooLarge,
		Data: details.Bytes(),
	}.Build()
	return ilpservice.RejectResult(reject), nil
}

var _ ilpservice.IncomingService = (*MaxPacketAmount)(nil)

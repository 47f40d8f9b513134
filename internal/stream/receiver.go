package stream

import (
	"context"
	"crypto/sha256"

	"github.com/ilpgo/connector/pkg/ilppacket"
	"github.com/ilpgo/connector/pkg/ilpservice"
)

// Receiver answers STREAM Prepares addressed to connections it minted,
// decrypting the packet, checking the execution condition against the
// derived fulfillment, and fulfilling only when the Prepare's amount is
// at least the configured minimum and at least the packet's claimed
// prepare amount.
type Receiver struct {
	Connections        *ConnectionGenerator
	MinDestinationAmount uint64
}

// NewReceiver returns a Receiver using connections to recover each
// inbound Prepare's shared secret.
func NewReceiver(connections *ConnectionGenerator, minDestinationAmount uint64) *Receiver {
	return &Receiver{Connections: connections, MinDestinationAmount: minDestinationAmount}
}

// HandleRequest implements ilpservice.IncomingService.
func (r *Receiver) HandleRequest(ctx context.Context, req ilpservice.IncomingRequest) (ilpservice.Result, error) {
	sharedSecret, err := r.Connections.SharedSecretFromAddress(req.Prepare.Destination)
	if err != nil {
		return ilpservice.RejectResult(ilppacket.RejectBuilder{
			Code:    ilppacket.CodeF02Unreachable,
			Message: "not a STREAM connection this receiver minted",
		}.Build()), nil
	}

	packet, err := Open(sharedSecret, req.Prepare.Data)
	if err != nil {
		return ilpservice.RejectResult(ilppacket.RejectBuilder{
			Code:    ilppacket.CodeF06UnexpectedPayment,
			Message: "unable to decrypt stream packet",
		}.Build()), nil
	}

	fulfillment := Fulfillment(sharedSecret, req.Prepare.Data)
	condition := sha256.Sum256(fulfillment[:])
	if condition != req.Prepare.ExecutionCondition {
		return ilpservice.RejectResult(ilppacket.RejectBuilder{
			Code:    ilppacket.CodeF05WrongCondition,
			Message: "execution condition does not match derived fulfillment",
		}.Build()), nil
	}

	if req.Prepare.Amount < r.MinDestinationAmount || packet.PrepareAmount > req.Prepare.Amount {
		blockedFrame := Frame{
			Type:          FrameStreamMoneyBlocked,
			TotalReceived: req.Prepare.Amount,
			SendMax:       r.MinDestinationAmount,
		}
		response := StreamPacket{
			SequenceNumber: packet.SequenceNumber,
			PacketType:     PacketTypeIlpReject,
			Frames:         []Frame{blockedFrame},
		}
		data, sealErr := response.Seal(sharedSecret)
		if sealErr != nil {
			data = nil
		}
		return ilpservice.RejectResult(ilppacket.RejectBuilder{
			Code:    ilppacket.CodeF04InsufficientDstAmt,
			Message: "amount below minimum destination amount",
			Data:    data,
		}.Build()), nil
	}

	response := StreamPacket{
		SequenceNumber: packet.SequenceNumber,
		PacketType:     PacketTypeIlpFulfill,
		PrepareAmount:  req.Prepare.Amount,
	}
	data, err := response.Seal(sharedSecret)
	if err != nil {
		return ilpservice.RejectResult(ilppacket.RejectBuilder{
			Code:    ilppacket.CodeT00InternalError,
			Message: "failed to seal fulfill response packet",
		}.Build()), nil
	}

	return ilpservice.FulfillResult(ilppacket.Fulfill{
		Fulfillment: fulfillment,
		Data:        data,
	}), nil
}

var _ ilpservice.IncomingService = (*Receiver)(nil)

package stream

import (
	"context"
	"crypto/sha256"
	"fmt"
	"time"

	"github.com/ilpgo/connector/pkg/ilppacket"
	"github.com/ilpgo/connector/pkg/ilpservice"
)

const (
	initialCongestionWindow = 1000
	slowStartThreshold      = 100000

	// defaultPacketExpiry bounds how long a single chunk's Prepare has to
	// reach the receiver and come back before the sender gives up on it.
	defaultPacketExpiry = 30 * time.Second
)

// SendFunc dispatches a single Prepare and waits for its terminal
// response, the one thing Sender needs from whatever transport binds
// it to the network (BTP, HTTP, or an in-process pipeline in tests).
type SendFunc func(ctx context.Context, prepare ilppacket.Prepare) (ilpservice.Result, error)

// Sender drives a single STREAM connection: the first Prepare carries
// ConnectionNewAddress, and it chunks a source amount into a sequence
// of Prepares bounded by a congestion window that grows on Fulfill
// (slow-start then linear) and shrinks on F08/other Reject. It returns
// once the amount is delivered; no StreamClose frame is sent.
type Sender struct {
	SharedSecret []byte
	Destination  ilppacket.Address
	Send         SendFunc
}

// SendMoney drives sourceAmount (in units of the sender's local
// Prepare amount field, one chunk per Prepare) to completion, returning
// the total amount the receiver's Fulfill responses acknowledged.
func (s *Sender) SendMoney(ctx context.Context, sourceAmount uint64) (uint64, error) {
	window := uint64(initialCongestionWindow)
	var delivered uint64
	var sequence uint64 = 1
	opening := true

	for delivered < sourceAmount {
		chunk := window
		if remaining := sourceAmount - delivered; chunk > remaining {
			chunk = remaining
		}

		frames := make([]Frame, 0, 2)
		if opening {
			frames = append(frames, Frame{Type: FrameConnectionNewAddress, Address: string(s.Destination)})
			opening = false
		}
		frames = append(frames, Frame{Type: FrameStreamMoney, StreamID: 1, Shares: chunk})

		packet := StreamPacket{
			SequenceNumber: sequence,
			PacketType:     PacketTypeIlpPrepare,
			PrepareAmount:  chunk,
			Frames:         frames,
		}
		sequence++

		data, err := packet.Seal(s.SharedSecret)
		if err != nil {
			return delivered, fmt.Errorf("stream: sealing packet: %w", err)
		}
		fulfillment := Fulfillment(s.SharedSecret, data)
		condition := sha256.Sum256(fulfillment[:])

		result, err := s.Send(ctx, ilppacket.Prepare{
			Amount:             chunk,
			Destination:        s.Destination,
			Data:               data,
			ExecutionCondition: condition,
			ExpiresAt:          time.Now().Add(defaultPacketExpiry),
		})
		if err != nil {
			return delivered, err
		}

		if result.IsFulfill() {
			delivered += chunk
			if window < slowStartThreshold {
				window *= 2
			} else {
				window += initialCongestionWindow
			}
			continue
		}

		switch result.Reject.Code {
		case ilppacket.CodeF08AmountTooLarge:
			if details, ok := ilppacket.ParseMaxPacketAmountDetails(result.Reject.Data); ok && details.MaxAmount < window {
				window = details.MaxAmount
			} else {
				window /= 2
			}
		default:
			window /= 2
		}
		if window == 0 {
			return delivered, fmt.Errorf("stream: congestion window collapsed to zero, last reject %s: %s", result.Reject.Code, result.Reject.Message)
		}
	}

	return delivered, nil
}

package spsp

import (
	"context"
	"fmt"

	"github.com/ilpgo/connector/internal/stream"
	"github.com/ilpgo/connector/pkg/ilppacket"
)

// Payer drives admin-triggered SPSP payments: resolve the receiver via
// SPSP, then hand the resulting destination/secret to a STREAM Sender
// bound to whatever outgoing path the caller provides.
type Payer struct {
	SPSP *Client
	Send stream.SendFunc
}

// NewPayer returns a Payer that queries receivers with spspClient and
// dispatches Prepares through send (typically the connector's own
// incoming pipeline, since a locally-initiated payment re-enters
// routing like any other Prepare).
func NewPayer(spspClient *Client, send stream.SendFunc) *Payer {
	return &Payer{SPSP: spspClient, Send: send}
}

// Pay implements admin.Payer.
func (p *Payer) Pay(ctx context.Context, receiver string, sourceAmount uint64) (uint64, error) {
	resp, err := p.SPSP.Query(ctx, receiver)
	if err != nil {
		return 0, err
	}
	destination, err := ilppacket.ParseAddress(resp.DestinationAccount)
	if err != nil {
		return 0, fmt.Errorf("spsp: receiver returned invalid address: %w", err)
	}
	secret, err := resp.SharedSecretBytes()
	if err != nil {
		return 0, fmt.Errorf("spsp: receiver returned invalid shared secret: %w", err)
	}

	sender := &stream.Sender{SharedSecret: secret, Destination: destination, Send: p.Send}
	return sender.SendMoney(ctx, sourceAmount)
}

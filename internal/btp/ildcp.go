package btp

import (
	"context"

	"github.com/ilpgo/connector/pkg/ilppacket"
	"github.com/ilpgo/connector/pkg/ilpservice"
)

// ildcpFulfillment is the fixed all-zero preimage IL-DCP requests are
// fulfilled with; the protocol's security comes from the underlying BTP
// auth handshake, not from the condition/fulfillment pair.
var ildcpFulfillment [32]byte

// Configurer resolves the address and asset a child account should be
// told about in response to an IL-DCP request.
type Configurer func(acc ilpservice.Account) (ilpservice.IldcpResponse, error)

// NewIldcpHandler returns an IncomingService that answers Prepares sent
// to peer.config with the sending account's configuration in the
// Fulfill data, and rejects any other destination with F02. The child
// has to send that Prepare itself; the BTP server does not push
// configuration during the auth handshake.
func NewIldcpHandler(configure Configurer) ilpservice.IncomingServiceFunc {
	return func(ctx context.Context, req ilpservice.IncomingRequest) (ilpservice.Result, error) {
		if string(req.Prepare.Destination) != ilpservice.IldcpDestination {
			return ilpservice.RejectResult(ilppacket.RejectBuilder{
				Code:    ilppacket.CodeF02Unreachable,
				Message: "not an IL-DCP request",
			}.Build()), nil
		}

		response, err := configure(req.From)
		if err != nil {
			return ilpservice.RejectResult(ilppacket.RejectBuilder{
				Code:    ilppacket.CodeT00InternalError,
				Message: err.Error(),
			}.Build()), nil
		}

		return ilpservice.FulfillResult(ilppacket.Fulfill{
			Fulfillment: ildcpFulfillment,
			Data:        response.Encode(),
		}), nil
	}
}

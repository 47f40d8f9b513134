package ilpservice

import "github.com/ilpgo/connector/pkg/ilppacket"

// IncomingRequest is what an ingress transport hands the pipeline: the
// peer account the Prepare arrived from, and the Prepare itself.
type IncomingRequest struct {
	From    Account
	Prepare ilppacket.Prepare
}

// OutgoingRequest is what the router hands the egress side of the
// pipeline once a next-hop account has been chosen.
type OutgoingRequest struct {
	From    Account
	To      Account
	Prepare ilppacket.Prepare
}

// IntoOutgoing builds the OutgoingRequest for the next hop, carrying the
// original sender (From) forward so downstream middleware (balance,
// exchange-rate) can see both endpoints of the transfer.
func (r IncomingRequest) IntoOutgoing(to Account) OutgoingRequest {
	return OutgoingRequest{
		From:    r.From,
		To:      to,
		Prepare: r.Prepare,
	}
}

// Result is the outcome of handling a request: exactly one of Fulfill or
// Reject is set.
type Result struct {
	Fulfill *ilppacket.Fulfill
	Reject  *ilppacket.Reject
}

// FulfillResult wraps a Fulfill as a Result.
func FulfillResult(f ilppacket.Fulfill) Result { return Result{Fulfill: &f} }

// RejectResult wraps a Reject as a Result.
func RejectResult(r ilppacket.Reject) Result { return Result{Reject: &r} }

// IsFulfill reports whether the result succeeded.
func (r Result) IsFulfill() bool { return r.Fulfill != nil }

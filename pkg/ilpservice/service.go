package ilpservice

import "context"

// IncomingService consumes a request arriving from a peer and returns the
// terminal Fulfill/Reject. Implementations are cheap to hold by value or
// pointer and compose by wrapping a "next" handle — see the middleware
// packages under internal/.
type IncomingService interface {
	HandleRequest(ctx context.Context, req IncomingRequest) (Result, error)
}

// OutgoingService consumes a request bound for a chosen next-hop account
// and returns the terminal Fulfill/Reject.
type OutgoingService interface {
	SendRequest(ctx context.Context, req OutgoingRequest) (Result, error)
}

// IncomingServiceFunc adapts a plain function to an IncomingService.
type IncomingServiceFunc func(ctx context.Context, req IncomingRequest) (Result, error)

func (f IncomingServiceFunc) HandleRequest(ctx context.Context, req IncomingRequest) (Result, error) {
	return f(ctx, req)
}

// OutgoingServiceFunc adapts a function to an OutgoingService.
type OutgoingServiceFunc func(ctx context.Context, req OutgoingRequest) (Result, error)

func (f OutgoingServiceFunc) SendRequest(ctx context.Context, req OutgoingRequest) (Result, error) {
	return f(ctx, req)
}

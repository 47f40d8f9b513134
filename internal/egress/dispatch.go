// Package egress picks, for an outgoing Prepare, which concrete peer
// transport (BTP or ILP-over-HTTP) actually carries it, based on which
// credential block the destination account carries.
package egress

import (
	"context"
	"fmt"
	"net/http"

	"github.com/ilpgo/connector/internal/httptransport"
	"github.com/ilpgo/connector/pkg/ilpservice"
)

// HTTPOutgoing sends every request through a freshly built httptransport.Client
// targeting req.To's own HTTP credentials, since unlike a BTP connection
// there is no persistent per-account HTTP session to reuse.
type HTTPOutgoing struct {
	Client *http.Client
}

func (h *HTTPOutgoing) SendRequest(ctx context.Context, req ilpservice.OutgoingRequest) (ilpservice.Result, error) {
	if req.To.HTTP == nil {
		return ilpservice.Result{}, fmt.Errorf("egress: account %s has no http credentials", req.To.ID)
	}
	client := &httptransport.Client{
		HTTPClient: h.Client,
		URL:        req.To.HTTP.URL,
		Username:   req.To.Username,
		Token:      req.To.HTTP.OutgoingToken,
	}
	return client.SendRequest(ctx, req)
}

var _ ilpservice.OutgoingService = (*HTTPOutgoing)(nil)

// Dispatcher routes an OutgoingRequest to BTP or HTTP depending on which
// transport credentials req.To carries, preferring BTP when an account
// has both (BTP connections are bidirectional and already open; HTTP
// requires a fresh outbound connection per Prepare).
type Dispatcher struct {
	BTP  ilpservice.OutgoingService
	HTTP ilpservice.OutgoingService
}

// New returns a Dispatcher splitting traffic between btp and http.
func New(btp, http ilpservice.OutgoingService) *Dispatcher {
	return &Dispatcher{BTP: btp, HTTP: http}
}

func (d *Dispatcher) SendRequest(ctx context.Context, req ilpservice.OutgoingRequest) (ilpservice.Result, error) {
	switch {
	case req.To.BTP != nil && d.BTP != nil:
		return d.BTP.SendRequest(ctx, req)
	case req.To.HTTP != nil && d.HTTP != nil:
		return d.HTTP.SendRequest(ctx, req)
	default:
		return ilpservice.Result{}, fmt.Errorf("egress: account %s has no usable transport", req.To.ID)
	}
}

var _ ilpservice.OutgoingService = (*Dispatcher)(nil)

package httptransport

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/ilpgo/connector/pkg/ilppacket"
	"github.com/ilpgo/connector/pkg/ilpservice"
)

// Client sends outgoing Prepares to a peer's ILP-over-HTTP endpoint.
type Client struct {
	HTTPClient *http.Client
	URL        string
	Username   string
	Token      string
}

func (c *Client) httpClient() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}
	return http.DefaultClient
}

// SendRequest implements ilpservice.OutgoingService.
func (c *Client) SendRequest(ctx context.Context, req ilpservice.OutgoingRequest) (ilpservice.Result, error) {
	body, err := req.Prepare.Encode()
	if err != nil {
		return ilpservice.Result{}, fmt.Errorf("httptransport: encoding prepare: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.URL, bytes.NewReader(body))
	if err != nil {
		return ilpservice.Result{}, err
	}
	httpReq.Header.Set("Content-Type", "application/octet-stream")
	httpReq.Header.Set("Authorization", "Bearer "+c.Username+":"+c.Token)

	resp, err := c.httpClient().Do(httpReq)
	if err != nil {
		return ilpservice.Result{}, fmt.Errorf("httptransport: sending prepare to %s: %w", c.URL, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return ilpservice.Result{}, err
	}
	if resp.StatusCode != http.StatusOK {
		return ilpservice.Result{}, fmt.Errorf("httptransport: peer %s returned status %d", c.URL, resp.StatusCode)
	}

	if fulfill, err := ilppacket.DecodeFulfill(respBody); err == nil {
		return ilpservice.FulfillResult(fulfill), nil
	}
	reject, err := ilppacket.DecodeReject(respBody)
	if err != nil {
		return ilpservice.Result{}, fmt.Errorf("httptransport: peer %s returned undecodable body: %w", c.URL, err)
	}
	return ilpservice.RejectResult(reject), nil
}

var _ ilpservice.OutgoingService = (*Client)(nil)

// Package spsp implements the Simple Payment Setup Protocol: an HTTP
// query that turns a payment pointer into a STREAM destination address
// and shared secret, and the local receiver side that answers it.
package spsp

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

// Response is the body an SPSP query returns.
type Response struct {
	DestinationAccount string `json:"destination_account"`
	SharedSecret        string `json:"shared_secret"`
}

// Client queries remote SPSP receivers and drives STREAM payments to
// them.
type Client struct {
	HTTPClient *http.Client
}

func (c *Client) httpClient() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}
	return http.DefaultClient
}

// Query resolves a payment pointer (or bare https URL) to its SPSP
// response.
func (c *Client) Query(ctx context.Context, pointer string) (Response, error) {
	url := paymentPointerToURL(pointer)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Response{}, err
	}
	req.Header.Set("Accept", "application/spsp4+json")

	resp, err := c.httpClient().Do(req)
	if err != nil {
		return Response{}, fmt.Errorf("spsp: querying %s: %w", url, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return Response{}, fmt.Errorf("spsp: %s returned status %d", url, resp.StatusCode)
	}

	var parsed Response
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return Response{}, fmt.Errorf("spsp: decoding response from %s: %w", url, err)
	}
	return parsed, nil
}

// SharedSecretBytes base64-decodes the response's shared secret.
func (r Response) SharedSecretBytes() ([]byte, error) {
	return base64.StdEncoding.DecodeString(r.SharedSecret)
}

// paymentPointerToURL converts a `$`-prefixed payment pointer (or a
// bare https URL) into the well-known SPSP query endpoint.
func paymentPointerToURL(pointer string) string {
	url := pointer
	if strings.HasPrefix(pointer, "$") {
		url = "https://" + pointer[1:]
	}

	slashes := strings.Count(url, "/")
	switch {
	case slashes == 2:
		url += "/.well-known/pay"
	case slashes == 1 && strings.HasSuffix(url, "/"):
		url += ".well-known/pay"
	}
	return url
}

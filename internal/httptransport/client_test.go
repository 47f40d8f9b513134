package httptransport

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ilpgo/connector/pkg/ilppacket"
	"github.com/ilpgo/connector/pkg/ilpservice"
)

func testOutgoingRequest(t *testing.T) ilpservice.OutgoingRequest {
	t.Helper()
	dest, err := ilppacket.ParseAddress("g.connector.bob")
	require.NoError(t, err)
	return ilpservice.OutgoingRequest{
		Prepare: ilppacket.Prepare{
			Amount:      50,
			ExpiresAt:   time.Now().Add(time.Minute),
			Destination: dest,
		},
	}
}

func TestClient_SendRequestDecodesFulfill(t *testing.T) {
	var gotAuth string
	peer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		body, _ := io.ReadAll(r.Body)
		_, err := ilppacket.DecodePrepare(body)
		require.NoError(t, err)
		raw, _ := ilppacket.Fulfill{Fulfillment: [32]byte{3}}.Encode()
		w.WriteHeader(http.StatusOK)
		w.Write(raw)
	}))
	defer peer.Close()

	client := &Client{URL: peer.URL, Username: "alice", Token: "secret"}
	result, err := client.SendRequest(context.Background(), testOutgoingRequest(t))
	require.NoError(t, err)
	require.NotNil(t, result.Fulfill)
	assert.Equal(t, [32]byte{3}, result.Fulfill.Fulfillment)
	assert.Equal(t, "Bearer alice:secret", gotAuth)
}

func TestClient_SendRequestDecodesReject(t *testing.T) {
	peer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := ilppacket.RejectBuilder{Code: ilppacket.CodeF02Unreachable, Message: "nope"}.Build().Encode()
		w.WriteHeader(http.StatusOK)
		w.Write(raw)
	}))
	defer peer.Close()

	client := &Client{URL: peer.URL, Username: "alice", Token: "secret"}
	result, err := client.SendRequest(context.Background(), testOutgoingRequest(t))
	require.NoError(t, err)
	require.NotNil(t, result.Reject)
	assert.Equal(t, ilppacket.CodeF02Unreachable, result.Reject.Code)
}

func TestClient_NonOKStatusReturnsError(t *testing.T) {
	peer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer peer.Close()

	client := &Client{URL: peer.URL, Username: "alice", Token: "secret"}
	_, err := client.SendRequest(context.Background(), testOutgoingRequest(t))
	assert.Error(t, err)
}

package egress

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ilpgo/connector/pkg/ilppacket"
	"github.com/ilpgo/connector/pkg/ilpservice"
)

func testPrepare(t *testing.T) ilppacket.Prepare {
	t.Helper()
	dest, err := ilppacket.ParseAddress("g.receiver")
	require.NoError(t, err)
	return ilppacket.Prepare{Amount: 100, Destination: dest, ExpiresAt: time.Now().Add(time.Minute)}
}

func TestDispatcher_PrefersBTPWhenBothPresent(t *testing.T) {
	var usedBTP, usedHTTP bool
	btp := ilpservice.OutgoingServiceFunc(func(ctx context.Context, req ilpservice.OutgoingRequest) (ilpservice.Result, error) {
		usedBTP = true
		return ilpservice.Result{}, nil
	})
	httpSvc := ilpservice.OutgoingServiceFunc(func(ctx context.Context, req ilpservice.OutgoingRequest) (ilpservice.Result, error) {
		usedHTTP = true
		return ilpservice.Result{}, nil
	})
	d := New(btp, httpSvc)

	account := ilpservice.Account{
		BTP:  &ilpservice.BTPCredentials{},
		HTTP: &ilpservice.HTTPCredentials{},
	}
	_, err := d.SendRequest(context.Background(), ilpservice.OutgoingRequest{To: account, Prepare: testPrepare(t)})
	require.NoError(t, err)
	assert.True(t, usedBTP)
	assert.False(t, usedHTTP)
}

func TestDispatcher_FallsBackToHTTPWithoutBTP(t *testing.T) {
	var usedHTTP bool
	httpSvc := ilpservice.OutgoingServiceFunc(func(ctx context.Context, req ilpservice.OutgoingRequest) (ilpservice.Result, error) {
		usedHTTP = true
		return ilpservice.Result{}, nil
	})
	d := New(nil, httpSvc)

	account := ilpservice.Account{HTTP: &ilpservice.HTTPCredentials{}}
	_, err := d.SendRequest(context.Background(), ilpservice.OutgoingRequest{To: account, Prepare: testPrepare(t)})
	require.NoError(t, err)
	assert.True(t, usedHTTP)
}

func TestDispatcher_NoUsableTransportErrors(t *testing.T) {
	d := New(nil, nil)
	_, err := d.SendRequest(context.Background(), ilpservice.OutgoingRequest{To: ilpservice.Account{}, Prepare: testPrepare(t)})
	assert.Error(t, err)
}

func TestHTTPOutgoing_BuildsClientFromAccountCredentials(t *testing.T) {
	var gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		fulfill := ilppacket.Fulfill{Fulfillment: [32]byte{1}}
		raw, _ := fulfill.Encode()
		w.Write(raw)
	}))
	defer server.Close()

	h := &HTTPOutgoing{}
	account := ilpservice.Account{
		Username: "bob",
		HTTP:     &ilpservice.HTTPCredentials{URL: server.URL, OutgoingToken: "tok"},
	}
	result, err := h.SendRequest(context.Background(), ilpservice.OutgoingRequest{To: account, Prepare: testPrepare(t)})
	require.NoError(t, err)
	assert.True(t, result.IsFulfill())
	assert.Equal(t, "Bearer bob:tok", gotAuth)
}

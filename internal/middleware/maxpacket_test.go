package middleware

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ilpgo/connector/pkg/ilppacket"
	"github.com/ilpgo/connector/pkg/ilpservice"
)

func testIncomingRequest(t *testing.T, amount uint64, max *uint64) ilpservice.IncomingRequest {
	t.Helper()
	dest, err := ilppacket.ParseAddress("g.receiver")
	require.NoError(t, err)
	return ilpservice.IncomingRequest{
		From:    ilpservice.Account{MaxPacketAmount: max},
		Prepare: ilppacket.Prepare{Amount: amount, Destination: dest, ExpiresAt: time.Now().Add(time.Minute)},
	}
}

func TestMaxPacketAmount_AllowsWithinLimit(t *testing.T) {
	max := uint64(1000)
	var called bool
	next := ilpservice.IncomingServiceFunc(func(ctx context.Context, req ilpservice.IncomingRequest) (ilpservice.Result, error) {
		called = true
		return ilpservice.Result{}, nil
	})

	m := NewMaxPacketAmount(next)
	_, err := m.HandleRequest(context.Background(), testIncomingRequest(t, 500, &max))
	require.NoError(t, err)
	assert.True(t, called)
}

func TestMaxPacketAmount_RejectsOverLimitWithDetails(t *testing.T) {
	max := uint64(1000)
	next := ilpservice.IncomingServiceFunc(func(ctx context.Context, req ilpservice.IncomingRequest) (ilpservice.Result, error) {
		t.Fatal("next should not be called")
		return ilpservice.Result{}, nil
	})

	m := NewMaxPacketAmount(next)
	result, err := m.HandleRequest(context.Background(), testIncomingRequest(t, 5000, &max))
	require.NoError(t, err)
	require.NotNil(t, result.Reject)
	assert.Equal(t, ilppacket.CodeF08AmountTooLarge, result.Reject.Code)

	details, ok := ilppacket.ParseMaxPacketAmountDetails(result.Reject.Data)
	require.True(t, ok)
	assert.Equal(t, uint64(5000), details.AmountReceived)
	assert.Equal(t, uint64(1000), details.MaxAmount)
}

func TestMaxPacketAmount_UnboundedWhenUnset(t *testing.T) {
	var called bool
	next := ilpservice.IncomingServiceFunc(func(ctx context.Context, req ilpservice.IncomingRequest) (ilpservice.Result, error) {
		called = true
		return ilpservice.Result{}, nil
	})

	m := NewMaxPacketAmount(next)
	_, err := m.HandleRequest(context.Background(), testIncomingRequest(t, ^uint64(0), nil))
	require.NoError(t, err)
	assert.True(t, called)
}

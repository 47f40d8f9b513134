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

func TestExpiryShortener_ShortensByBothRoundTripTimes(t *testing.T) {
	dest, err := ilppacket.ParseAddress("g.receiver")
	require.NoError(t, err)

	expiresAt := time.Now().Add(time.Minute)
	fromRTT := 200 * time.Millisecond
	toRTT := 300 * time.Millisecond

	var seen time.Time
	next := ilpservice.OutgoingServiceFunc(func(ctx context.Context, req ilpservice.OutgoingRequest) (ilpservice.Result, error) {
		seen = req.Prepare.ExpiresAt
		return ilpservice.Result{}, nil
	})

	m := NewExpiryShortener(next)
	_, err = m.SendRequest(context.Background(), ilpservice.OutgoingRequest{
		From:    ilpservice.Account{RoundTripTime: &fromRTT},
		To:      ilpservice.Account{RoundTripTime: &toRTT},
		Prepare: ilppacket.Prepare{Amount: 100, Destination: dest, ExpiresAt: expiresAt},
	})
	require.NoError(t, err)
	assert.WithinDuration(t, expiresAt.Add(-fromRTT-toRTT), seen, time.Millisecond)
}

func TestExpiryShortener_UsesDefaultRoundTripTimeWhenUnset(t *testing.T) {
	dest, err := ilppacket.ParseAddress("g.receiver")
	require.NoError(t, err)
	expiresAt := time.Now().Add(time.Minute)

	var seen time.Time
	next := ilpservice.OutgoingServiceFunc(func(ctx context.Context, req ilpservice.OutgoingRequest) (ilpservice.Result, error) {
		seen = req.Prepare.ExpiresAt
		return ilpservice.Result{}, nil
	})

	m := NewExpiryShortener(next)
	_, err = m.SendRequest(context.Background(), ilpservice.OutgoingRequest{
		Prepare: ilppacket.Prepare{Amount: 100, Destination: dest, ExpiresAt: expiresAt},
	})
	require.NoError(t, err)
	assert.WithinDuration(t, expiresAt.Add(-2*ilpservice.DefaultRoundTripTime), seen, time.Millisecond)
}

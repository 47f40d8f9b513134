package validator

import (
	"context"
	"crypto/sha256"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ilpgo/connector/pkg/ilppacket"
	"github.com/ilpgo/connector/pkg/ilpservice"
)

func TestIncoming_RejectsExpiredPrepare(t *testing.T) {
	fixedNow := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	called := false
	next := ilpservice.IncomingServiceFunc(func(ctx context.Context, req ilpservice.IncomingRequest) (ilpservice.Result, error) {
		called = true
		return ilpservice.FulfillResult(ilppacket.Fulfill{}), nil
	})
	v := NewIncoming(next)
	v.Now = func() time.Time { return fixedNow }

	req := ilpservice.IncomingRequest{Prepare: ilppacket.Prepare{ExpiresAt: fixedNow.Add(-time.Second)}}
	result, err := v.HandleRequest(context.Background(), req)

	require.NoError(t, err)
	require.NotNil(t, result.Reject)
	assert.Equal(t, ilppacket.CodeR00TransferTimedOut, result.Reject.Code)
	assert.False(t, called)
}

func TestIncoming_PassesThroughUnexpiredPrepare(t *testing.T) {
	fixedNow := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	next := ilpservice.IncomingServiceFunc(func(ctx context.Context, req ilpservice.IncomingRequest) (ilpservice.Result, error) {
		return ilpservice.FulfillResult(ilppacket.Fulfill{}), nil
	})
	v := NewIncoming(next)
	v.Now = func() time.Time { return fixedNow }

	req := ilpservice.IncomingRequest{Prepare: ilppacket.Prepare{ExpiresAt: fixedNow.Add(time.Second)}}
	result, err := v.HandleRequest(context.Background(), req)

	require.NoError(t, err)
	assert.True(t, result.IsFulfill())
}

func TestOutgoing_RejectsOnConditionMismatch(t *testing.T) {
	fulfillment := [32]byte{1, 2, 3}
	wrongCondition := sha256.Sum256([]byte("not the preimage"))

	next := ilpservice.OutgoingServiceFunc(func(ctx context.Context, req ilpservice.OutgoingRequest) (ilpservice.Result, error) {
		return ilpservice.FulfillResult(ilppacket.Fulfill{Fulfillment: fulfillment}), nil
	})
	v := NewOutgoing(next)

	req := ilpservice.OutgoingRequest{Prepare: ilppacket.Prepare{
		ExpiresAt:          time.Now().Add(time.Minute),
		ExecutionCondition: wrongCondition,
	}}
	result, err := v.SendRequest(context.Background(), req)

	require.NoError(t, err)
	require.NotNil(t, result.Reject)
	assert.Equal(t, ilppacket.CodeF09InvalidPeerResponse, result.Reject.Code)
}

func TestOutgoing_AcceptsMatchingFulfillment(t *testing.T) {
	fulfillment := [32]byte{9, 9, 9}
	condition := sha256.Sum256(fulfillment[:])

	next := ilpservice.OutgoingServiceFunc(func(ctx context.Context, req ilpservice.OutgoingRequest) (ilpservice.Result, error) {
		return ilpservice.FulfillResult(ilppacket.Fulfill{Fulfillment: fulfillment}), nil
	})
	v := NewOutgoing(next)

	req := ilpservice.OutgoingRequest{Prepare: ilppacket.Prepare{
		ExpiresAt:          time.Now().Add(time.Minute),
		ExecutionCondition: condition,
	}}
	result, err := v.SendRequest(context.Background(), req)

	require.NoError(t, err)
	assert.True(t, result.IsFulfill())
}

func TestOutgoing_RejectsWithTimeoutWhenHopContextExpiresInFlight(t *testing.T) {
	next := ilpservice.OutgoingServiceFunc(func(ctx context.Context, req ilpservice.OutgoingRequest) (ilpservice.Result, error) {
		<-ctx.Done()
		return ilpservice.Result{}, ctx.Err()
	})
	v := NewOutgoing(next)

	req := ilpservice.OutgoingRequest{Prepare: ilppacket.Prepare{ExpiresAt: time.Now().Add(20 * time.Millisecond)}}
	result, err := v.SendRequest(context.Background(), req)

	require.NoError(t, err)
	require.NotNil(t, result.Reject)
	assert.Equal(t, ilppacket.CodeR00TransferTimedOut, result.Reject.Code)
}

func TestOutgoing_PropagatesNonTimeoutTransportError(t *testing.T) {
	transportErr := errors.New("connection reset")
	next := ilpservice.OutgoingServiceFunc(func(ctx context.Context, req ilpservice.OutgoingRequest) (ilpservice.Result, error) {
		return ilpservice.Result{}, transportErr
	})
	v := NewOutgoing(next)

	req := ilpservice.OutgoingRequest{Prepare: ilppacket.Prepare{ExpiresAt: time.Now().Add(time.Minute)}}
	_, err := v.SendRequest(context.Background(), req)

	assert.ErrorIs(t, err, transportErr)
}

func TestOutgoing_RejectsWhenAlreadyExpired(t *testing.T) {
	next := ilpservice.OutgoingServiceFunc(func(ctx context.Context, req ilpservice.OutgoingRequest) (ilpservice.Result, error) {
		t.Fatal("next hop must not be called once the Prepare has expired")
		return ilpservice.Result{}, nil
	})
	v := NewOutgoing(next)

	req := ilpservice.OutgoingRequest{Prepare: ilppacket.Prepare{ExpiresAt: time.Now().Add(-time.Second)}}
	result, err := v.SendRequest(context.Background(), req)

	require.NoError(t, err)
	require.NotNil(t, result.Reject)
	assert.Equal(t, ilppacket.CodeR00TransferTimedOut, result.Reject.Code)
}

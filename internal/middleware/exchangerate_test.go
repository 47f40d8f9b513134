package middleware

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ilpgo/connector/pkg/ilppacket"
	"github.com/ilpgo/connector/pkg/ilpservice"
)

type fixedRates map[string]float64

func (f fixedRates) Rate(assetCode string) (float64, bool) {
	r, ok := f[assetCode]
	return r, ok
}

func TestExchangeRate_SameAssetRescalesByScaleDifference(t *testing.T) {
	var seenAmount uint64
	next := ilpservice.OutgoingServiceFunc(func(ctx context.Context, req ilpservice.OutgoingRequest) (ilpservice.Result, error) {
		seenAmount = req.Prepare.Amount
		return ilpservice.FulfillResult(ilppacket.Fulfill{}), nil
	})
	m := NewExchangeRate(next, fixedRates{"USD": 1}, 0)

	req := ilpservice.OutgoingRequest{
		From:    ilpservice.Account{AssetCode: "USD", AssetScale: 2},
		To:      ilpservice.Account{AssetCode: "USD", AssetScale: 6},
		Prepare: ilppacket.Prepare{Amount: 100},
	}
	_, err := m.SendRequest(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, uint64(1_000_000), seenAmount)
}

func TestExchangeRate_CrossCurrencyUsesRateRatio(t *testing.T) {
	var seenAmount uint64
	next := ilpservice.OutgoingServiceFunc(func(ctx context.Context, req ilpservice.OutgoingRequest) (ilpservice.Result, error) {
		seenAmount = req.Prepare.Amount
		return ilpservice.FulfillResult(ilppacket.Fulfill{}), nil
	})
	m := NewExchangeRate(next, fixedRates{"USD": 1, "EUR": 0.5}, 0)

	req := ilpservice.OutgoingRequest{
		From:    ilpservice.Account{AssetCode: "USD", AssetScale: 2},
		To:      ilpservice.Account{AssetCode: "EUR", AssetScale: 2},
		Prepare: ilppacket.Prepare{Amount: 1000},
	}
	_, err := m.SendRequest(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, uint64(500), seenAmount)
}

func TestExchangeRate_SpreadReducesConvertedAmount(t *testing.T) {
	var seenAmount uint64
	next := ilpservice.OutgoingServiceFunc(func(ctx context.Context, req ilpservice.OutgoingRequest) (ilpservice.Result, error) {
		seenAmount = req.Prepare.Amount
		return ilpservice.FulfillResult(ilppacket.Fulfill{}), nil
	})
	m := NewExchangeRate(next, fixedRates{"USD": 1}, 0.1)

	req := ilpservice.OutgoingRequest{
		From:    ilpservice.Account{AssetCode: "USD", AssetScale: 2},
		To:      ilpservice.Account{AssetCode: "USD", AssetScale: 2},
		Prepare: ilppacket.Prepare{Amount: 1000},
	}
	_, err := m.SendRequest(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, uint64(900), seenAmount)
}

func TestExchangeRate_MissingRateRejectsInternalError(t *testing.T) {
	next := ilpservice.OutgoingServiceFunc(func(ctx context.Context, req ilpservice.OutgoingRequest) (ilpservice.Result, error) {
		t.Fatal("next must not run when a rate is missing")
		return ilpservice.Result{}, nil
	})
	m := NewExchangeRate(next, fixedRates{}, 0)

	req := ilpservice.OutgoingRequest{
		From:    ilpservice.Account{AssetCode: "USD", AssetScale: 2},
		To:      ilpservice.Account{AssetCode: "EUR", AssetScale: 2},
		Prepare: ilppacket.Prepare{Amount: 100},
	}
	result, err := m.SendRequest(context.Background(), req)
	require.NoError(t, err)
	require.NotNil(t, result.Reject)
	assert.Equal(t, ilppacket.CodeT00InternalError, result.Reject.Code)
}

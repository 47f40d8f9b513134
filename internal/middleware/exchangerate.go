package middleware

import (
	"context"
	"math/big"

	"github.com/ilpgo/connector/pkg/ilppacket"
	"github.com/ilpgo/connector/pkg/ilpservice"
)

// RateStore supplies the latest polled USD-anchored rate for an asset
// code. Its concrete implementation (the copy-on-write snapshot kept
// fresh by the exchange rate pollers) lives outside this package.
type RateStore interface {
	Rate(assetCode string) (rate float64, ok bool)
}

// ExchangeRate converts a Prepare's amount from the sending account's
// asset/scale to the receiving account's, applying a configurable spread
// that the connector keeps for itself as margin. All arithmetic runs
// through math/big so converting between widely different scales never
// loses precision to floating point rounding before the final floor.
type ExchangeRate struct {
	Next   ilpservice.OutgoingService
	Rates  RateStore
	Spread float64 // 0..1, fraction of the converted amount retained as margin
}

// NewExchangeRate returns an ExchangeRate middleware wrapping next.
func NewExchangeRate(next ilpservice.OutgoingService, rates RateStore, spread float64) *ExchangeRate {
	return &ExchangeRate{Next: next, Rates: rates, Spread: spread}
}

func (m *ExchangeRate) SendRequest(ctx context.Context, req ilpservice.OutgoingRequest) (ilpservice.Result, error) {
	scaleDiff := int(req.To.AssetScale) - int(req.From.AssetScale)

	var converted *big.Float
	if req.From.AssetCode == req.To.AssetCode {
		converted = rescaleBySign(req.Prepare.Amount, scaleDiff)
	} else {
		rFrom, ok := m.Rates.Rate(req.From.AssetCode)
		if !ok {
			return ilpservice.RejectResult(internalError("no rate for " + req.From.AssetCode)), nil
		}
		rTo, ok := m.Rates.Rate(req.To.AssetCode)
		if !ok {
			return ilpservice.RejectResult(internalError("no rate for " + req.To.AssetCode)), nil
		}
		if rFrom == 0 {
			return ilpservice.RejectResult(internalError("zero rate for " + req.From.AssetCode)), nil
		}

		amount := new(big.Float).SetUint64(req.Prepare.Amount)
		ratio := new(big.Float).Quo(big.NewFloat(rTo), big.NewFloat(rFrom))
		converted = scaleByPow10(new(big.Float).Mul(amount, ratio), scaleDiff)
	}

	if m.Spread > 0 {
		converted = new(big.Float).Mul(converted, big.NewFloat(1-m.Spread))
	}

	newAmount, overflowed := floorToUint64(converted)
	if overflowed {
		return ilpservice.RejectResult(amountTooLarge(req.Prepare.Amount)), nil
	}

	req.Prepare.Amount = newAmount
	return m.Next.SendRequest(ctx, req)
}

// rescaleBySign applies 10^scaleDiff to amount: multiplication for a
// positive exponent, integer floor division for a negative one, matching
// the same-asset rescale rule.
func rescaleBySign(amount uint64, scaleDiff int) *big.Float {
	base := new(big.Float).SetUint64(amount)
	return scaleByPow10(base, scaleDiff)
}

func scaleByPow10(value *big.Float, scaleDiff int) *big.Float {
	if scaleDiff == 0 {
		return value
	}
	pow := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(abs(scaleDiff))), nil)
	powFloat := new(big.Float).SetInt(pow)
	if scaleDiff > 0 {
		return new(big.Float).Mul(value, powFloat)
	}
	return new(big.Float).Quo(value, powFloat)
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

// floorToUint64 truncates toward zero and reports overflow beyond the
// uint64 range (including negative results, which never arise from a
// well-formed Prepare but are guarded against regardless).
func floorToUint64(f *big.Float) (uint64, bool) {
	if f.Sign() < 0 {
		return 0, true
	}
	i, _ := f.Int(nil)
	if !i.IsUint64() {
		return 0, true
	}
	return i.Uint64(), false
}

func internalError(message string) ilppacket.Reject {
	return ilppacket.RejectBuilder{Code: ilppacket.CodeT00InternalError, Message: message}.Build()
}

func amountTooLarge(amount uint64) ilppacket.Reject {
	details := ilppacket.MaxPacketAmountDetails{AmountReceived: amount, MaxAmount: 0}
	return ilppacket.RejectBuilder{Code: ilppacket.CodeF08AmountTooLarge, Data: details.Bytes()}.Build()
}

var _ ilpservice.OutgoingService = (*ExchangeRate)(nil)

package middleware

import (
	"context"

	"github.com/ilpgo/connector/internal/settlement"
	"github.com/ilpgo/connector/internal/store"
	"github.com/ilpgo/connector/pkg/ilppacket"
	"github.com/ilpgo/connector/pkg/ilpservice"
)

// Balance tentatively moves value between the two endpoints of an
// outgoing request before it is sent, commits the movement on Fulfill,
// and reverses it on Reject (or on the request erroring out entirely).
// A committed movement that leaves From's balance at or below its
// configured settle threshold enqueues a settlement job toward SettleTo.
type Balance struct {
	Next       ilpservice.OutgoingService
	Balances   *store.BalanceStore
	Settlement *settlement.Queue // nil disables automatic settlement triggering
}

// NewBalance returns a Balance middleware wrapping next.
func NewBalance(next ilpservice.OutgoingService, balances *store.BalanceStore, settlementQueue *settlement.Queue) *Balance {
	return &Balance{Next: next, Balances: balances, Settlement: settlementQueue}
}

func (m *Balance) SendRequest(ctx context.Context, req ilpservice.OutgoingRequest) (ilpservice.Result, error) {
	debit := int64(req.Prepare.Amount)
	credit := int64(req.Prepare.Amount) // the outgoing Prepare already carries the transformed amount

	moved := m.Balances.TryMove(req.From.ID, req.To.ID, debit, credit, req.From.MinBalanceOrMin())
	if !moved {
		return ilpservice.RejectResult(insufficientLiquidity()), nil
	}

	result, err := m.Next.SendRequest(ctx, req)
	if err != nil {
		m.Balances.Reverse(req.From.ID, req.To.ID, debit, credit)
		return result, err
	}

	if result.Reject != nil {
		m.Balances.Reverse(req.From.ID, req.To.ID, debit, credit)
		return result, nil
	}

	m.Balances.Publish(req.From.ID)
	m.Balances.Publish(req.To.ID)
	m.maybeEnqueueSettlement(req.From)
	return result, nil
}

func (m *Balance) maybeEnqueueSettlement(account ilpservice.Account) {
	if m.Settlement == nil || account.SettleThreshold == nil || account.SettleTo == nil {
		return
	}
	balance := m.Balances.Balance(account.ID)
	if balance > *account.SettleThreshold {
		return
	}
	amount := *account.SettleTo - balance
	if amount <= 0 {
		return
	}
	m.Settlement.Enqueue(settlement.Job{Account: account.ID, Amount: amount})
}

func insufficientLiquidity() ilppacket.Reject {
	return ilppacket.RejectBuilder{Code: ilppacket.CodeT04InsufficientLiquidity}.Build()
}

var _ ilpservice.OutgoingService = (*Balance)(nil)

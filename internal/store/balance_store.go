package store

import (
	"sync"

	"github.com/ilpgo/connector/pkg/ilpservice"
)

// BalanceUpdate is published to subscribers whenever a balance commits.
type BalanceUpdate struct {
	Account ilpservice.AccountID
	Balance int64
}

// BalanceStore tracks each account's signed balance under its own mutex,
// enforcing the floor invariant (balance >= min_balance) on every update
// and notifying subscribers after a commit. Cross-account updates always
// acquire locks in ascending AccountID order to avoid deadlock, per the
// connector's concurrency model.
type BalanceStore struct {
	mu       sync.Mutex
	balances map[ilpservice.AccountID]*accountBalance

	subMu sync.Mutex
	subs  []chan BalanceUpdate
}

type accountBalance struct {
	mu      sync.Mutex
	balance int64
}

// NewBalanceStore returns an empty balance store.
func NewBalanceStore() *BalanceStore {
	return &BalanceStore{balances: make(map[ilpservice.AccountID]*accountBalance)}
}

func (s *BalanceStore) entry(id ilpservice.AccountID) *accountBalance {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.balances[id]
	if !ok {
		e = &accountBalance{}
		s.balances[id] = e
	}
	return e
}

// Balance returns the account's current balance (0 if never touched).
func (s *BalanceStore) Balance(id ilpservice.AccountID) int64 {
	e := s.entry(id)
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.balance
}

// TryMove debits `from` by amountFrom and credits `to` by amountTo,
// atomically with respect to other TryMove/Reverse calls on either
// account, enforcing that from's resulting balance is not below
// minBalanceFrom. On failure neither side is touched.
func (s *BalanceStore) TryMove(from, to ilpservice.AccountID, amountFrom, amountTo int64, minBalanceFrom int64) bool {
	fromEntry, toEntry := s.entry(from), s.entry(to)
	first, second := fromEntry, toEntry
	if to < from {
		first, second = toEntry, fromEntry
	}
	first.mu.Lock()
	if first != second {
		second.mu.Lock()
	}
	defer func() {
		if first != second {
			second.mu.Unlock()
		}
		first.mu.Unlock()
	}()

	newFromBalance := fromEntry.balance - amountFrom
	if newFromBalance < minBalanceFrom {
		return false
	}
	fromEntry.balance = newFromBalance
	toEntry.balance += amountTo
	return true
}

// Reverse undoes a previously applied TryMove (used when a downstream
// Reject arrives after the tentative movement was made).
func (s *BalanceStore) Reverse(from, to ilpservice.AccountID, amountFrom, amountTo int64) {
	fromEntry, toEntry := s.entry(from), s.entry(to)
	first, second := fromEntry, toEntry
	if to < from {
		first, second = toEntry, fromEntry
	}
	first.mu.Lock()
	if first != second {
		second.mu.Lock()
	}
	fromEntry.balance += amountFrom
	toEntry.balance -= amountTo
	if first != second {
		second.mu.Unlock()
	}
	first.mu.Unlock()
}

// Publish notifies every subscriber of a committed balance for account id.
// Each subscriber has its own buffered channel, which it drains itself
// (see Subscribe), so a slow subscriber cannot block the balance service
// itself — the update is dropped for that subscriber if its queue is full.
func (s *BalanceStore) Publish(id ilpservice.AccountID) {
	update := BalanceUpdate{Account: id, Balance: s.Balance(id)}
	s.subMu.Lock()
	defer s.subMu.Unlock()
	for _, ch := range s.subs {
		select {
		case ch <- update:
		default:
		}
	}
}

// Subscribe returns a channel of balance-change notifications. Close via
// the returned cancel function.
func (s *BalanceStore) Subscribe(buffer int) (<-chan BalanceUpdate, func()) {
	if buffer <= 0 {
		buffer = 16
	}
	ch := make(chan BalanceUpdate, buffer)
	s.subMu.Lock()
	s.subs = append(s.subs, ch)
	s.subMu.Unlock()

	cancel := func() {
		s.subMu.Lock()
		defer s.subMu.Unlock()
		for i, c := range s.subs {
			if c == ch {
				s.subs = append(s.subs[:i], s.subs[i+1:]...)
				break
			}
		}
		close(ch)
	}
	return ch, cancel
}

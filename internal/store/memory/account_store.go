// Package memory provides an in-process AccountStore, useful for tests
// and single-process deployments that don't need a durable backend.
package memory

import (
	"context"
	"sync"

	"github.com/ilpgo/connector/internal/store"
	"github.com/ilpgo/connector/pkg/ilpservice"
)

// AccountStore keeps every account in a map guarded by one mutex; reads
// and writes are infrequent relative to the pipeline's per-packet hot
// path, which never touches this store directly (only the router and
// transports do, once per Prepare).
type AccountStore struct {
	mu       sync.RWMutex
	accounts map[ilpservice.AccountID]ilpservice.Account
	byName   map[string]ilpservice.AccountID

	httpTokens map[ilpservice.AccountID]string
	btpTokens  map[ilpservice.AccountID]string
}

// New returns an empty AccountStore.
func New() *AccountStore {
	return &AccountStore{
		accounts:   make(map[ilpservice.AccountID]ilpservice.Account),
		byName:     make(map[string]ilpservice.AccountID),
		httpTokens: make(map[ilpservice.AccountID]string),
		btpTokens:  make(map[ilpservice.AccountID]string),
	}
}

func (s *AccountStore) GetAccount(ctx context.Context, id ilpservice.AccountID) (ilpservice.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	acc, ok := s.accounts[id]
	if !ok {
		return ilpservice.Account{}, store.ErrAccountNotFound
	}
	return acc, nil
}

func (s *AccountStore) GetAccountByUsername(ctx context.Context, username string) (ilpservice.Account, error) {
	normalized, err := store.NormalizeUsername(username)
	if err != nil {
		return ilpservice.Account{}, store.ErrAccountNotFound
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byName[normalized]
	if !ok {
		return ilpservice.Account{}, store.ErrAccountNotFound
	}
	return s.accounts[id], nil
}

func (s *AccountStore) GetAccounts(ctx context.Context) ([]ilpservice.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]ilpservice.Account, 0, len(s.accounts))
	for _, acc := range s.accounts {
		out = append(out, acc)
	}
	return out, nil
}

func (s *AccountStore) CreateAccount(ctx context.Context, acc ilpservice.Account) error {
	normalized, err := store.NormalizeUsername(acc.Username)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.accounts[acc.ID]; exists {
		return store.ErrConflict
	}
	if _, exists := s.byName[normalized]; exists {
		return store.ErrConflict
	}
	s.accounts[acc.ID] = acc
	s.byName[normalized] = acc.ID
	if acc.HTTP != nil {
		s.httpTokens[acc.ID] = acc.HTTP.IncomingToken
	}
	if acc.BTP != nil {
		s.btpTokens[acc.ID] = acc.BTP.IncomingToken
	}
	return nil
}

func (s *AccountStore) DeleteAccount(ctx context.Context, id ilpservice.AccountID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	acc, ok := s.accounts[id]
	if !ok {
		return store.ErrAccountNotFound
	}
	normalized, _ := store.NormalizeUsername(acc.Username)
	delete(s.accounts, id)
	delete(s.byName, normalized)
	delete(s.httpTokens, id)
	delete(s.btpTokens, id)
	return nil
}

func (s *AccountStore) AuthenticateHTTP(ctx context.Context, username, token string) (ilpservice.Account, error) {
	acc, err := s.GetAccountByUsername(ctx, username)
	if err != nil {
		return ilpservice.Account{}, store.ErrUnauthorized
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if want, ok := s.httpTokens[acc.ID]; !ok || want != token {
		return ilpservice.Account{}, store.ErrUnauthorized
	}
	return acc, nil
}

func (s *AccountStore) AuthenticateBTP(ctx context.Context, username, token string) (ilpservice.Account, error) {
	acc, err := s.GetAccountByUsername(ctx, username)
	if err != nil {
		return ilpservice.Account{}, store.ErrUnauthorized
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if want, ok := s.btpTokens[acc.ID]; !ok || want != token {
		return ilpservice.Account{}, store.ErrUnauthorized
	}
	return acc, nil
}

var _ store.AccountStore = (*AccountStore)(nil)

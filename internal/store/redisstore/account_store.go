// Package redisstore provides a Redis-backed AccountStore, so a
// connector's account records survive process restarts and can be
// shared across replicas.
package redisstore

import (
	"context"
	"encoding/json"
	"errors"

	goredis "github.com/redis/go-redis/v9"

	"github.com/ilpgo/connector/internal/store"
	"github.com/ilpgo/connector/pkg/ilpservice"
)

// AccountStore persists accounts as JSON values under accounts:<id>,
// with a usernames:<normalized> -> id index for username lookups.
type AccountStore struct {
	client *goredis.Client
	prefix string
}

// New returns a Redis-backed AccountStore using client, with keys under
// prefix (defaulting to "ilp:").
func New(client *goredis.Client, prefix string) *AccountStore {
	if prefix == "" {
		prefix = "ilp:"
	}
	return &AccountStore{client: client, prefix: prefix}
}

func (s *AccountStore) accountKey(id ilpservice.AccountID) string {
	return s.prefix + "accounts:" + string(id)
}

func (s *AccountStore) usernameKey(normalized string) string {
	return s.prefix + "usernames:" + normalized
}

func (s *AccountStore) GetAccount(ctx context.Context, id ilpservice.AccountID) (ilpservice.Account, error) {
	raw, err := s.client.Get(ctx, s.accountKey(id)).Bytes()
	if errors.Is(err, goredis.Nil) {
		return ilpservice.Account{}, store.ErrAccountNotFound
	}
	if err != nil {
		return ilpservice.Account{}, store.Other(err)
	}
	var acc ilpservice.Account
	if err := json.Unmarshal(raw, &acc); err != nil {
		return ilpservice.Account{}, store.Other(err)
	}
	return acc, nil
}

func (s *AccountStore) GetAccountByUsername(ctx context.Context, username string) (ilpservice.Account, error) {
	normalized, err := store.NormalizeUsername(username)
	if err != nil {
		return ilpservice.Account{}, store.ErrAccountNotFound
	}
	id, err := s.client.Get(ctx, s.usernameKey(normalized)).Result()
	if errors.Is(err, goredis.Nil) {
		return ilpservice.Account{}, store.ErrAccountNotFound
	}
	if err != nil {
		return ilpservice.Account{}, store.Other(err)
	}
	return s.GetAccount(ctx, ilpservice.AccountID(id))
}

func (s *AccountStore) GetAccounts(ctx context.Context) ([]ilpservice.Account, error) {
	keys, err := s.client.Keys(ctx, s.prefix+"accounts:*").Result()
	if err != nil {
		return nil, store.Other(err)
	}
	out := make([]ilpservice.Account, 0, len(keys))
	for _, key := range keys {
		raw, err := s.client.Get(ctx, key).Bytes()
		if err != nil {
			continue
		}
		var acc ilpservice.Account
		if err := json.Unmarshal(raw, &acc); err != nil {
			continue
		}
		out = append(out, acc)
	}
	return out, nil
}

func (s *AccountStore) CreateAccount(ctx context.Context, acc ilpservice.Account) error {
	normalized, err := store.NormalizeUsername(acc.Username)
	if err != nil {
		return err
	}

	set, err := s.client.SetNX(ctx, s.usernameKey(normalized), string(acc.ID), 0).Result()
	if err != nil {
		return store.Other(err)
	}
	if !set {
		return store.ErrConflict
	}

	raw, err := json.Marshal(acc)
	if err != nil {
		return store.Other(err)
	}
	if err := s.client.Set(ctx, s.accountKey(acc.ID), raw, 0).Err(); err != nil {
		s.client.Del(ctx, s.usernameKey(normalized))
		return store.Other(err)
	}
	return nil
}

func (s *AccountStore) DeleteAccount(ctx context.Context, id ilpservice.AccountID) error {
	acc, err := s.GetAccount(ctx, id)
	if err != nil {
		return err
	}
	normalized, _ := store.NormalizeUsername(acc.Username)
	pipe := s.client.TxPipeline()
	pipe.Del(ctx, s.accountKey(id))
	pipe.Del(ctx, s.usernameKey(normalized))
	_, err = pipe.Exec(ctx)
	if err != nil {
		return store.Other(err)
	}
	return nil
}

func (s *AccountStore) AuthenticateHTTP(ctx context.Context, username, token string) (ilpservice.Account, error) {
	acc, err := s.GetAccountByUsername(ctx, username)
	if err != nil {
		return ilpservice.Account{}, store.ErrUnauthorized
	}
	if acc.HTTP == nil || acc.HTTP.IncomingToken != token {
		return ilpservice.Account{}, store.ErrUnauthorized
	}
	return acc, nil
}

func (s *AccountStore) AuthenticateBTP(ctx context.Context, username, token string) (ilpservice.Account, error) {
	acc, err := s.GetAccountByUsername(ctx, username)
	if err != nil {
		return ilpservice.Account{}, store.ErrUnauthorized
	}
	if acc.BTP == nil || acc.BTP.IncomingToken != token {
		return ilpservice.Account{}, store.ErrUnauthorized
	}
	return acc, nil
}

var _ store.AccountStore = (*AccountStore)(nil)

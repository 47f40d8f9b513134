package redisstore

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ilpgo/connector/internal/store"
	"github.com/ilpgo/connector/pkg/ilpservice"
)

func setupMiniredis(t *testing.T) *goredis.Client {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return client
}

func TestAccountStore_CreateAndLookup(t *testing.T) {
	s := New(setupMiniredis(t), "")
	acc := ilpservice.Account{
		ID:       "alice",
		Username: "Alice",
		HTTP:     &ilpservice.HTTPCredentials{IncomingToken: "http-secret"},
		BTP:      &ilpservice.BTPCredentials{IncomingToken: "btp-secret"},
	}
	require.NoError(t, s.CreateAccount(context.Background(), acc))

	got, err := s.GetAccount(context.Background(), "alice")
	require.NoError(t, err)
	assert.Equal(t, acc.ID, got.ID)

	byName, err := s.GetAccountByUsername(context.Background(), "alice")
	require.NoError(t, err)
	assert.Equal(t, acc.ID, byName.ID)
}

func TestAccountStore_DuplicateUsernameConflicts(t *testing.T) {
	s := New(setupMiniredis(t), "")
	require.NoError(t, s.CreateAccount(context.Background(), ilpservice.Account{ID: "a1", Username: "dup"}))
	err := s.CreateAccount(context.Background(), ilpservice.Account{ID: "a2", Username: "dup"})
	assert.ErrorIs(t, err, store.ErrConflict)
}

func TestAccountStore_AuthenticateHTTP(t *testing.T) {
	s := New(setupMiniredis(t), "")
	require.NoError(t, s.CreateAccount(context.Background(), ilpservice.Account{
		ID: "alice", Username: "alice",
		HTTP: &ilpservice.HTTPCredentials{IncomingToken: "correct"},
	}))

	_, err := s.AuthenticateHTTP(context.Background(), "alice", "wrong")
	assert.ErrorIs(t, err, store.ErrUnauthorized)

	acc, err := s.AuthenticateHTTP(context.Background(), "alice", "correct")
	require.NoError(t, err)
	assert.Equal(t, ilpservice.AccountID("alice"), acc.ID)
}

func TestAccountStore_GetMissingAccountNotFound(t *testing.T) {
	s := New(setupMiniredis(t), "")
	_, err := s.GetAccount(context.Background(), "nobody")
	assert.ErrorIs(t, err, store.ErrAccountNotFound)
}

func TestAccountStore_DeleteRemovesUsernameIndex(t *testing.T) {
	s := New(setupMiniredis(t), "")
	require.NoError(t, s.CreateAccount(context.Background(), ilpservice.Account{ID: "alice", Username: "alice"}))
	require.NoError(t, s.DeleteAccount(context.Background(), "alice"))

	_, err := s.GetAccount(context.Background(), "alice")
	assert.ErrorIs(t, err, store.ErrAccountNotFound)
	_, err = s.GetAccountByUsername(context.Background(), "alice")
	assert.ErrorIs(t, err, store.ErrAccountNotFound)

	require.NoError(t, s.CreateAccount(context.Background(), ilpservice.Account{ID: "bob", Username: "alice"}))
}

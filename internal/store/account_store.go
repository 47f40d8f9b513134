package store

import (
	"context"

	"github.com/ilpgo/connector/pkg/ilpservice"
)

// AccountStore is the external collaborator that owns durable account
// records. The connector core only depends on this interface; any KV
// backend (the in-memory and Redis implementations here, or something
// else entirely) can satisfy it.
type AccountStore interface {
	GetAccount(ctx context.Context, id ilpservice.AccountID) (ilpservice.Account, error)
	GetAccountByUsername(ctx context.Context, username string) (ilpservice.Account, error)
	GetAccounts(ctx context.Context) ([]ilpservice.Account, error)
	CreateAccount(ctx context.Context, acc ilpservice.Account) error
	DeleteAccount(ctx context.Context, id ilpservice.AccountID) error

	// AuthenticateHTTP resolves the account whose incoming HTTP token
	// matches, or ErrUnauthorized.
	AuthenticateHTTP(ctx context.Context, username, token string) (ilpservice.Account, error)
	// AuthenticateBTP resolves the account whose incoming BTP token
	// matches, or ErrUnauthorized.
	AuthenticateBTP(ctx context.Context, username, token string) (ilpservice.Account, error)
}

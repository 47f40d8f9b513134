package httptransport

import (
	"bytes"
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ilpgo/connector/internal/store"
	"github.com/ilpgo/connector/pkg/ilppacket"
	"github.com/ilpgo/connector/pkg/ilpservice"
)

type singleAccount struct {
	account  ilpservice.Account
	username string
	token    string
}

func (s *singleAccount) GetAccount(ctx context.Context, id ilpservice.AccountID) (ilpservice.Account, error) {
	return ilpservice.Account{}, store.ErrAccountNotFound
}
func (s *singleAccount) GetAccountByUsername(ctx context.Context, username string) (ilpservice.Account, error) {
	return ilpservice.Account{}, store.ErrAccountNotFound
}
func (s *singleAccount) GetAccounts(ctx context.Context) ([]ilpservice.Account, error) { return nil, nil }
func (s *singleAccount) CreateAccount(ctx context.Context, acc ilpservice.Account) error { return nil }
func (s *singleAccount) DeleteAccount(ctx context.Context, id ilpservice.AccountID) error { return nil }
func (s *singleAccount) AuthenticateHTTP(ctx context.Context, username, token string) (ilpservice.Account, error) {
	if username == s.username && token == s.token {
		return s.account, nil
	}
	return ilpservice.Account{}, store.ErrUnauthorized
}
func (s *singleAccount) AuthenticateBTP(ctx context.Context, username, token string) (ilpservice.Account, error) {
	return ilpservice.Account{}, store.ErrUnauthorized
}

func testPrepare(t *testing.T) ilppacket.Prepare {
	t.Helper()
	dest, err := ilppacket.ParseAddress("g.connector.bob")
	require.NoError(t, err)
	return ilppacket.Prepare{
		Amount:      100,
		ExpiresAt:   time.Now().Add(time.Minute),
		Destination: dest,
	}
}

func TestServer_AuthenticatesAndRunsPipeline(t *testing.T) {
	accounts := &singleAccount{account: ilpservice.Account{ID: "alice"}, username: "alice", token: "secret"}
	handler := ilpservice.IncomingServiceFunc(func(ctx context.Context, req ilpservice.IncomingRequest) (ilpservice.Result, error) {
		assert.Equal(t, ilpservice.AccountID("alice"), req.From.ID)
		return ilpservice.FulfillResult(ilppacket.Fulfill{Fulfillment: [32]byte{9}}), nil
	})
	server := NewServer(accounts, handler)
	httpServer := httptest.NewServer(server)
	defer httpServer.Close()

	body, err := testPrepare(t).Encode()
	require.NoError(t, err)

	req := httptest.NewRequest("POST", "/ilp", bytes.NewReader(body))
	req.Header.Set("Authorization", "Bearer alice:secret")
	rec := httptest.NewRecorder()
	server.ServeHTTP(rec, req)

	require.Equal(t, 200, rec.Code)
	fulfill, err := ilppacket.DecodeFulfill(rec.Body.Bytes())
	require.NoError(t, err)
	assert.Equal(t, [32]byte{9}, fulfill.Fulfillment)
}

func TestServer_RejectsBadCredentials(t *testing.T) {
	accounts := &singleAccount{account: ilpservice.Account{ID: "alice"}, username: "alice", token: "secret"}
	handler := ilpservice.IncomingServiceFunc(func(ctx context.Context, req ilpservice.IncomingRequest) (ilpservice.Result, error) {
		t.Fatal("handler should not run")
		return ilpservice.Result{}, nil
	})
	server := NewServer(accounts, handler)

	body, _ := testPrepare(t).Encode()
	req := httptest.NewRequest("POST", "/ilp", bytes.NewReader(body))
	req.Header.Set("Authorization", "Bearer alice:wrong")
	rec := httptest.NewRecorder()
	server.ServeHTTP(rec, req)

	assert.Equal(t, 401, rec.Code)
}

func TestServer_AcceptsURLEncodedColonInCredentials(t *testing.T) {
	accounts := &singleAccount{account: ilpservice.Account{ID: "alice"}, username: "alice", token: "sec:ret"}
	handler := ilpservice.IncomingServiceFunc(func(ctx context.Context, req ilpservice.IncomingRequest) (ilpservice.Result, error) {
		return ilpservice.FulfillResult(ilppacket.Fulfill{}), nil
	})
	server := NewServer(accounts, handler)

	body, _ := testPrepare(t).Encode()
	req := httptest.NewRequest("POST", "/ilp", bytes.NewReader(body))
	req.Header.Set("Authorization", "Bearer alice%3Asec%3Aret")
	rec := httptest.NewRecorder()
	server.ServeHTTP(rec, req)

	assert.Equal(t, 200, rec.Code)
}

func TestServer_RejectsMalformedPrepareBody(t *testing.T) {
	accounts := &singleAccount{account: ilpservice.Account{ID: "alice"}, username: "alice", token: "secret"}
	handler := ilpservice.IncomingServiceFunc(func(ctx context.Context, req ilpservice.IncomingRequest) (ilpservice.Result, error) {
		t.Fatal("handler should not run")
		return ilpservice.Result{}, nil
	})
	server := NewServer(accounts, handler)

	req := httptest.NewRequest("POST", "/ilp", bytes.NewReader([]byte{0xFF, 0x01, 0x02}))
	req.Header.Set("Authorization", "Bearer alice:secret")
	rec := httptest.NewRecorder()
	server.ServeHTTP(rec, req)

	assert.Equal(t, 400, rec.Code)
}

package spsp

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ilpgo/connector/internal/store/memory"
	"github.com/ilpgo/connector/internal/stream"
	"github.com/ilpgo/connector/pkg/ilppacket"
	"github.com/ilpgo/connector/pkg/ilpservice"
)

func TestResolver_ResolvesKnownUsername(t *testing.T) {
	accounts := memory.New()
	require.NoError(t, accounts.CreateAccount(context.Background(), ilpservice.Account{ID: "alice", Username: "alice"}))

	serverAddress, err := ilppacket.ParseAddress("g.connector.alice")
	require.NoError(t, err)
	gen := stream.NewConnectionGenerator(serverAddress, []byte("seed"))

	resolver := NewResolver(accounts, gen)
	destination, secret, err := resolver.Resolve(context.Background(), "alice")
	require.NoError(t, err)
	assert.NotEmpty(t, destination)
	assert.Len(t, secret, 32)
}

func TestResolver_UnknownUsernameErrors(t *testing.T) {
	accounts := memory.New()
	serverAddress, _ := ilppacket.ParseAddress("g.connector.alice")
	gen := stream.NewConnectionGenerator(serverAddress, []byte("seed"))

	resolver := NewResolver(accounts, gen)
	_, _, err := resolver.Resolve(context.Background(), "ghost")
	assert.Error(t, err)
}

func TestServer_HandlesSPSPQuery(t *testing.T) {
	accounts := memory.New()
	require.NoError(t, accounts.CreateAccount(context.Background(), ilpservice.Account{ID: "alice", Username: "alice"}))
	serverAddress, _ := ilppacket.ParseAddress("g.connector.alice")
	gen := stream.NewConnectionGenerator(serverAddress, []byte("seed"))
	resolver := NewResolver(accounts, gen)
	server := NewServer(resolver)

	req := httptest.NewRequest("GET", "/alice/.well-known/pay", nil)
	rec := httptest.NewRecorder()
	server.ServeHTTP(rec, req)
	require.Equal(t, 200, rec.Code)

	var resp Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.DestinationAccount)
}

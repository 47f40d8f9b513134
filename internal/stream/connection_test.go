package stream

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ilpgo/connector/pkg/ilppacket"
)

func TestConnectionGenerator_AddressRoundTripsToSameSecret(t *testing.T) {
	serverAddress, err := ilppacket.ParseAddress("g.connector.receiver")
	require.NoError(t, err)
	gen := NewConnectionGenerator(serverAddress, []byte("server-seed"))

	address, secret, err := gen.GenerateAddressAndSecret()
	require.NoError(t, err)
	assert.True(t, address.StartsWith(string(serverAddress)+"."))

	recovered, err := gen.SharedSecretFromAddress(address)
	require.NoError(t, err)
	assert.Equal(t, secret, recovered)
}

func TestConnectionGenerator_RejectsForeignAddress(t *testing.T) {
	serverAddress, err := ilppacket.ParseAddress("g.connector.receiver")
	require.NoError(t, err)
	gen := NewConnectionGenerator(serverAddress, []byte("server-seed"))

	_, err = gen.SharedSecretFromAddress("g.connector.someone-else.abc")
	assert.ErrorIs(t, err, ErrNotOurConnection)
}

func TestConnectionGenerator_DifferentConnectionsGetDifferentSecrets(t *testing.T) {
	serverAddress, err := ilppacket.ParseAddress("g.connector.receiver")
	require.NoError(t, err)
	gen := NewConnectionGenerator(serverAddress, []byte("server-seed"))

	_, secretA, err := gen.GenerateAddressAndSecret()
	require.NoError(t, err)
	_, secretB, err := gen.GenerateAddressAndSecret()
	require.NoError(t, err)
	assert.NotEqual(t, secretA, secretB)
}

package stream

import (
	"encoding/base64"
	"strings"

	"github.com/ilpgo/connector/pkg/ilppacket"
)

// ConnectionGenerator mints per-connection destination addresses and
// derives the shared secret a sender needs to talk STREAM to this
// receiver, without the receiver persisting any per-connection state:
// the token embedded in the address is all it takes to recompute the
// secret later.
type ConnectionGenerator struct {
	serverAddress ilppacket.Address
	serverSeed    []byte
}

// NewConnectionGenerator returns a generator minting addresses rooted
// at serverAddress, keyed by serverSeed.
func NewConnectionGenerator(serverAddress ilppacket.Address, serverSeed []byte) *ConnectionGenerator {
	return &ConnectionGenerator{serverAddress: serverAddress, serverSeed: serverSeed}
}

// GenerateAddressAndSecret mints a fresh destination address (scoped
// under serverAddress) and the shared secret a sender should use to
// talk to it.
func (g *ConnectionGenerator) GenerateAddressAndSecret() (ilppacket.Address, []byte, error) {
	token, err := GenerateToken()
	if err != nil {
		return "", nil, err
	}
	segment := base64.RawURLEncoding.EncodeToString(token)
	address, err := ilppacket.ParseAddress(string(g.serverAddress) + "." + segment)
	if err != nil {
		return "", nil, err
	}
	return address, DeriveSharedSecret(g.serverSeed, token), nil
}

// SharedSecretFromAddress recovers the shared secret for an inbound
// Prepare's destination address, which must start with serverAddress
// followed by the base64url-encoded token as the next segment; any
// segments after the token are ignored.
func (g *ConnectionGenerator) SharedSecretFromAddress(destination ilppacket.Address) ([]byte, error) {
	suffix := strings.TrimPrefix(string(destination), string(g.serverAddress)+".")
	if suffix == string(destination) {
		return nil, ErrNotOurConnection
	}
	if idx := strings.IndexByte(suffix, '.'); idx >= 0 {
		suffix = suffix[:idx]
	}
	token, err := base64.RawURLEncoding.DecodeString(suffix)
	if err != nil {
		return nil, ErrNotOurConnection
	}
	return DeriveSharedSecret(g.serverSeed, token), nil
}

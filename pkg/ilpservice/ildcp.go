package ilpservice

import "github.com/ilpgo/connector/pkg/ilppacket"

// IldcpDestination is the well-known peer address an account asks its
// parent for configuration by Prepare-ing to, per IL-DCP.
const IldcpDestination = "peer.config"

// IldcpResponse is what a parent hands a freshly connected child: its
// assigned ILP address and the asset it should transact in. Encoded into
// the data field of the Fulfill returned for an IL-DCP request.
type IldcpResponse struct {
	ClientAddress ilppacket.Address
	AssetCode     string
	AssetScale    uint8
}

// Encode serializes the response as: var-octet address, 1-byte scale,
// var-octet asset code.
func (r IldcpResponse) Encode() []byte {
	out := make([]byte, 0, len(r.ClientAddress)+1+len(r.AssetCode)+8)
	out = appendVarOctet(out, []byte(r.ClientAddress))
	out = append(out, r.AssetScale)
	out = appendVarOctet(out, []byte(r.AssetCode))
	return out
}

// DecodeIldcpResponse parses the body produced by Encode.
func DecodeIldcpResponse(b []byte) (IldcpResponse, bool) {
	pos := 0
	addr, n, ok := readVarOctet(b, pos)
	if !ok {
		return IldcpResponse{}, false
	}
	pos = n
	if pos >= len(b) {
		return IldcpResponse{}, false
	}
	scale := b[pos]
	pos++
	code, pos, ok := readVarOctet(b, pos)
	if !ok {
		return IldcpResponse{}, false
	}
	_ = pos
	address, err := ilppacket.ParseAddress(string(addr))
	if err != nil {
		return IldcpResponse{}, false
	}
	return IldcpResponse{
		ClientAddress: address,
		AssetCode:     string(code),
		AssetScale:    scale,
	}, true
}

func appendVarOctet(dst, b []byte) []byte {
	if len(b) < 128 {
		dst = append(dst, byte(len(b)))
	} else {
		dst = append(dst, 0x82, byte(len(b)>>8), byte(len(b)))
	}
	return append(dst, b...)
}

func readVarOctet(b []byte, pos int) ([]byte, int, bool) {
	if pos >= len(b) {
		return nil, 0, false
	}
	first := b[pos]
	pos++
	var length int
	if first < 128 {
		length = int(first)
	} else {
		lenOfLen := int(first &^ 0x80)
		if lenOfLen == 0 || lenOfLen > 4 || pos+lenOfLen > len(b) {
			return nil, 0, false
		}
		for i := 0; i < lenOfLen; i++ {
			length = (length << 8) | int(b[pos])
			pos++
		}
	}
	if pos+length > len(b) {
		return nil, 0, false
	}
	return b[pos : pos+length], pos + length, true
}

package ilppacket

import (
	"crypto/sha256"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFulfill_RoundTrip(t *testing.T) {
	f := Fulfill{Fulfillment: [32]byte{9, 9, 9}, Data: []byte("ok")}
	encoded, err := f.Encode()
	require.NoError(t, err)

	decoded, err := DecodeFulfill(encoded)
	require.NoError(t, err)
	assert.Equal(t, f, decoded)

	reEncoded, err := decoded.Encode()
	require.NoError(t, err)
	assert.Equal(t, encoded, reEncoded)
}

func TestFulfill_ConditionMatchesSHA256(t *testing.T) {
	f := Fulfill{Fulfillment: [32]byte{1, 2, 3}}
	want := sha256.Sum256(f.Fulfillment[:])
	assert.Equal(t, want, f.Condition())
}

func TestReject_RoundTrip(t *testing.T) {
	triggeredBy, err := ParseAddress("example.connector")
	require.NoError(t, err)
	r := Reject{
		Code:        CodeF02Unreachable,
		TriggeredBy: triggeredBy,
		Message:     "no route",
		Data:        []byte{1, 2, 3},
	}
	encoded, err := r.Encode()
	require.NoError(t, err)

	decoded, err := DecodeReject(encoded)
	require.NoError(t, err)
	assert.Equal(t, r, decoded)
}

func TestReject_EmptyTriggeredBy(t *testing.T) {
	r := Reject{Code: CodeT00InternalError}
	encoded, err := r.Encode()
	require.NoError(t, err)

	decoded, err := DecodeReject(encoded)
	require.NoError(t, err)
	assert.Equal(t, Address(""), decoded.TriggeredBy)
}

func TestReject_BuilderMatchesStruct(t *testing.T) {
	built := RejectBuilder{Code: CodeR00TransferTimedOut}.Build()
	assert.Equal(t, Reject{Code: CodeR00TransferTimedOut}, built)
}

func TestReject_RejectsInvalidUTF8Message(t *testing.T) {
	r := Reject{Code: CodeF00BadRequest, Message: string([]byte{0xff, 0xfe})}
	_, err := r.Encode()
	require.Error(t, err)
}

func TestMaxPacketAmountDetails_RoundTrip(t *testing.T) {
	d := MaxPacketAmountDetails{AmountReceived: 5000, MaxAmount: 1000}
	b := d.Bytes()
	decoded, ok := ParseMaxPacketAmountDetails(b)
	require.True(t, ok)
	assert.Equal(t, d, decoded)
}

package ilppacket

import "time"

// Packet type tags, fixed by the ILP wire format.
const (
	TypePrepare byte = 12
	TypeFulfill byte = 13
	TypeReject  byte = 14
)

// MaxDataLength bounds the data field of a Prepare/Fulfill packet.
const MaxDataLength = 32767

// Prepare is a pre-commit ILP packet: a hop forwards it downstream and
// waits for a matching Fulfill or Reject, or its own expiry.
type Prepare struct {
	Amount              uint64
	ExpiresAt           time.Time
	ExecutionCondition  [32]byte
	Destination         Address
	Data                []byte
}

// Encode serializes p to the ILP wire format: type tag, outer length
// prefix, then amount / expiresAt / condition / destination / data in
// that fixed order.
func (p Prepare) Encode() ([]byte, error) {
	if len(p.Data) > MaxDataLength {
		return nil, errInvalidPacketField("data exceeds max length")
	}
	inner := make([]byte, 0, 8+17+32+4+len(p.Destination)+4+len(p.Data))
	amt := make([]byte, 8)
	putUint64(amt, p.Amount)
	inner = append(inner, amt...)
	inner = append(inner, encodeTimestamp(p.ExpiresAt)...)
	inner = append(inner, p.ExecutionCondition[:]...)
	inner = writeVarOctetString(inner, []byte(p.Destination))
	inner = writeVarOctetString(inner, p.Data)

	out := make([]byte, 0, len(inner)+5)
	out = append(out, TypePrepare)
	out = writeVarOctetLength(out, len(inner))
	out = append(out, inner...)
	return out, nil
}

// DecodePrepare parses b as a Prepare packet. Any deviation from the
// fixed field order, an invalid address, a non-UTF-8/IA5 field, or
// trailing bytes (inner or outer) is a typed *ParseError — never a panic.
func DecodePrepare(b []byte) (Prepare, error) {
	r := newReader(b)
	tag, err := r.readByte()
	if err != nil {
		return Prepare{}, err
	}
	if tag != TypePrepare {
		return Prepare{}, errUnexpectedType(int(tag), int(TypePrepare))
	}
	innerLen, err := r.readVarOctetLength()
	if err != nil {
		return Prepare{}, err
	}
	innerBytes, err := r.readN(innerLen)
	if err != nil {
		return Prepare{}, err
	}
	if !r.atEnd() {
		return Prepare{}, errTrailingOuter()
	}

	ir := newReader(innerBytes)
	amtBytes, err := ir.readN(8)
	if err != nil {
		return Prepare{}, err
	}
	tsBytes, err := ir.readN(17)
	if err != nil {
		return Prepare{}, err
	}
	expiresAt, err := decodeTimestamp(tsBytes)
	if err != nil {
		return Prepare{}, err
	}
	condBytes, err := ir.readN(32)
	if err != nil {
		return Prepare{}, err
	}
	destBytes, err := ir.readVarOctetString()
	if err != nil {
		return Prepare{}, err
	}
	dest, err := ParseAddress(string(destBytes))
	if err != nil {
		return Prepare{}, err
	}
	data, err := ir.readVarOctetString()
	if err != nil {
		return Prepare{}, err
	}
	if len(data) > MaxDataLength {
		return Prepare{}, errInvalidPacketField("data exceeds max length")
	}
	if !ir.atEnd() {
		return Prepare{}, errTrailingInner()
	}

	var cond [32]byte
	copy(cond[:], condBytes)

	return Prepare{
		Amount:             getUint64(amtBytes),
		ExpiresAt:          expiresAt,
		ExecutionCondition: cond,
		Destination:        dest,
		Data:               append([]byte(nil), data...),
	}, nil
}

func errInvalidPacketField(msg string) error {
	return &ParseError{Kind: ErrInvalidPacket, detail: msg}
}

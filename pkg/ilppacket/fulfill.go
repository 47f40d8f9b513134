package ilppacket

import "crypto/sha256"

// Fulfill is the success response to a Prepare: the preimage of the
// execution condition, plus any data the receiver wants to return.
type Fulfill struct {
	Fulfillment [32]byte
	Data        []byte
}

// Condition returns SHA256(fulfillment), which must equal the
// originating Prepare's ExecutionCondition for the Fulfill to be valid.
func (f Fulfill) Condition() [32]byte {
	return sha256.Sum256(f.Fulfillment[:])
}

// Encode serializes f to the ILP wire format.
func (f Fulfill) Encode() ([]byte, error) {
	if len(f.Data) > MaxDataLength {
		return nil, errInvalidPacketField("data exceeds max length")
	}
	inner := make([]byte, 0, 32+4+len(f.Data))
	inner = append(inner, f.Fulfillment[:]...)
	inner = writeVarOctetString(inner, f.Data)

	out := make([]byte, 0, len(inner)+5)
	out = append(out, TypeFulfill)
	out = writeVarOctetLength(out, len(inner))
	out = append(out, inner...)
	return out, nil
}

// DecodeFulfill parses b as a Fulfill packet.
func DecodeFulfill(b []byte) (Fulfill, error) {
	r := newReader(b)
	tag, err := r.readByte()
	if err != nil {
		return Fulfill{}, err
	}
	if tag != TypeFulfill {
		return Fulfill{}, errUnexpectedType(int(tag), int(TypeFulfill))
	}
	innerLen, err := r.readVarOctetLength()
	if err != nil {
		return Fulfill{}, err
	}
	innerBytes, err := r.readN(innerLen)
	if err != nil {
		return Fulfill{}, err
	}
	if !r.atEnd() {
		return Fulfill{}, errTrailingOuter()
	}

	ir := newReader(innerBytes)
	fulfillBytes, err := ir.readN(32)
	if err != nil {
		return Fulfill{}, err
	}
	data, err := ir.readVarOctetString()
	if err != nil {
		return Fulfill{}, err
	}
	if len(data) > MaxDataLength {
		return Fulfill{}, errInvalidPacketField("data exceeds max length")
	}
	if !ir.atEnd() {
		return Fulfill{}, errTrailingInner()
	}

	var fulfillment [32]byte
	copy(fulfillment[:], fulfillBytes)
	return Fulfill{
		Fulfillment: fulfillment,
		Data:        append([]byte(nil), data...),
	}, nil
}

package ilppacket

import "unicode/utf8"

// MaxRejectFieldLength bounds Reject.Message and Reject.Data.
const MaxRejectFieldLength = 8192

// Reject is the failure response to a Prepare. TriggeredBy is empty when
// the rejecting node chose not to (or cannot) identify itself.
type Reject struct {
	Code        ErrorCode
	TriggeredBy Address
	Message     string
	Data        []byte
}

// Encode serializes r to the ILP wire format: code (3 ASCII bytes),
// triggeredBy (var-octet string, possibly empty), message (var-octet
// UTF-8 string), data (var-octet bytes).
func (r Reject) Encode() ([]byte, error) {
	if len(r.Code) != 3 {
		return nil, errInvalidPacketField("code must be exactly 3 characters")
	}
	if !isASCII(string(r.Code)) {
		return nil, errNotASCII()
	}
	if len([]byte(r.Message)) > MaxRejectFieldLength {
		return nil, errInvalidPacketField("message exceeds max length")
	}
	if !utf8.ValidString(r.Message) {
		return nil, errInvalidPacketField("message is not valid UTF-8")
	}
	if len(r.Data) > MaxRejectFieldLength {
		return nil, errInvalidPacketField("data exceeds max length")
	}

	inner := make([]byte, 0, 3+4+len(r.TriggeredBy)+4+len(r.Message)+4+len(r.Data))
	inner = append(inner, []byte(r.Code)...)
	inner = writeVarOctetString(inner, []byte(r.TriggeredBy))
	inner = writeVarOctetString(inner, []byte(r.Message))
	inner = writeVarOctetString(inner, r.Data)

	out := make([]byte, 0, len(inner)+5)
	out = append(out, TypeReject)
	out = writeVarOctetLength(out, len(inner))
	out = append(out, inner...)
	return out, nil
}

// DecodeReject parses b as a Reject packet.
func DecodeReject(b []byte) (Reject, error) {
	r := newReader(b)
	tag, err := r.readByte()
	if err != nil {
		return Reject{}, err
	}
	if tag != TypeReject {
		return Reject{}, errUnexpectedType(int(tag), int(TypeReject))
	}
	innerLen, err := r.readVarOctetLength()
	if err != nil {
		return Reject{}, err
	}
	innerBytes, err := r.readN(innerLen)
	if err != nil {
		return Reject{}, err
	}
	if !r.atEnd() {
		return Reject{}, errTrailingOuter()
	}

	ir := newReader(innerBytes)
	codeBytes, err := ir.readN(3)
	if err != nil {
		return Reject{}, err
	}
	if !isASCII(string(codeBytes)) {
		return Reject{}, errNotASCII()
	}

	var triggeredBy Address
	triggeredByBytes, err := ir.readVarOctetString()
	if err != nil {
		return Reject{}, err
	}
	if len(triggeredByBytes) > 0 {
		triggeredBy, err = ParseAddress(string(triggeredByBytes))
		if err != nil {
			return Reject{}, err
		}
	}

	msgBytes, err := ir.readVarOctetString()
	if err != nil {
		return Reject{}, err
	}
	if len(msgBytes) > MaxRejectFieldLength {
		return Reject{}, errInvalidPacketField("message exceeds max length")
	}
	if !utf8.Valid(msgBytes) {
		return Reject{}, errInvalidPacketField("message is not valid UTF-8")
	}

	data, err := ir.readVarOctetString()
	if err != nil {
		return Reject{}, err
	}
	if len(data) > MaxRejectFieldLength {
		return Reject{}, errInvalidPacketField("data exceeds max length")
	}
	if !ir.atEnd() {
		return Reject{}, errTrailingInner()
	}

	return Reject{
		Code:        ErrorCode(codeBytes),
		TriggeredBy: triggeredBy,
		Message:     string(msgBytes),
		Data:        append([]byte(nil), data...),
	}, nil
}

// RejectBuilder is a small constructor builder used throughout the
// service pipeline to synthesize Rejects.
type RejectBuilder struct {
	Code        ErrorCode
	TriggeredBy Address
	Message     string
	Data        []byte
}

// Build returns the built Reject.
func (b RejectBuilder) Build() Reject {
	return Reject{
		Code:        b.Code,
		TriggeredBy: b.TriggeredBy,
		Message:     b.Message,
		Data:        b.Data,
	}
}

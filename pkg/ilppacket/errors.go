package ilppacket

import "fmt"

// ParseError is returned by Decode when a byte sequence is not a
// well-formed Prepare, Fulfill or Reject. A malformed inbound Prepare
// never enters the pipeline: BTP answers it with an F01 Error frame
// carrying this error's text, and ILP-over-HTTP with status 400.
type ParseError struct {
	Kind ParseErrorKind
	// Got/Expected/Byte carry kind-specific detail; not all are set for
	// every kind.
	Got, Expected int
	Byte          byte
	detail        string
}

// ParseErrorKind enumerates the narrow set of ways a packet fails to parse.
type ParseErrorKind int

const (
	ErrIO ParseErrorKind = iota
	ErrUnknownType
	ErrUnexpectedType
	ErrTrailingBytesOuter
	ErrTrailingBytesInner
	ErrInvalidTimestamp
	ErrInvalidAddress
	ErrNotIA5
	ErrNotASCII
	ErrLengthOverflow
	ErrInvalidPacket
)

func (e *ParseError) Error() string {
	switch e.Kind {
	case ErrIO:
		return "ilppacket: unexpected end of input"
	case ErrUnknownType:
		return fmt.Sprintf("ilppacket: unknown packet type %d", e.Byte)
	case ErrUnexpectedType:
		return fmt.Sprintf("ilppacket: got type %d, expected %d", e.Got, e.Expected)
	case ErrTrailingBytesOuter:
		return "ilppacket: trailing bytes after outer envelope"
	case ErrTrailingBytesInner:
		return "ilppacket: trailing bytes after inner content"
	case ErrInvalidTimestamp:
		return "ilppacket: invalid timestamp"
	case ErrInvalidAddress:
		return "ilppacket: invalid ILP address"
	case ErrNotIA5:
		return "ilppacket: field is not a valid IA5 string"
	case ErrNotASCII:
		return "ilppacket: field is not a valid ASCII string"
	case ErrLengthOverflow:
		return "ilppacket: length prefix exceeds remaining bytes"
	case ErrInvalidPacket:
		return fmt.Sprintf("ilppacket: invalid packet: %s", e.detail)
	default:
		return "ilppacket: parse error"
	}
}

func errIO() error                    { return &ParseError{Kind: ErrIO} }
func errUnknownType(b byte) error     { return &ParseError{Kind: ErrUnknownType, Byte: b} }
func errUnexpectedType(got, want int) error {
	return &ParseError{Kind: ErrUnexpectedType, Got: got, Expected: want}
}
func errTrailingOuter() error      { return &ParseError{Kind: ErrTrailingBytesOuter} }
func errTrailingInner() error      { return &ParseError{Kind: ErrTrailingBytesInner} }
func errInvalidTimestamp() error   { return &ParseError{Kind: ErrInvalidTimestamp} }
func errInvalidAddress() error     { return &ParseError{Kind: ErrInvalidAddress} }
func errNotIA5() error             { return &ParseError{Kind: ErrNotIA5} }
func errNotASCII() error           { return &ParseError{Kind: ErrNotASCII} }
func errLengthOverflow() error     { return &ParseError{Kind: ErrLengthOverflow} }

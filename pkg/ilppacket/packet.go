package ilppacket

// PeekType returns the type tag of an encoded packet without otherwise
// parsing it, so a transport can dispatch to DecodePrepare/Fulfill/Reject.
func PeekType(b []byte) (byte, error) {
	if len(b) == 0 {
		return 0, errIO()
	}
	switch b[0] {
	case TypePrepare, TypeFulfill, TypeReject:
		return b[0], nil
	default:
		return 0, errUnknownType(b[0])
	}
}

// Decode parses b into whichever of Prepare/Fulfill/Reject its type tag
// names, returned as one of those three concrete types.
func Decode(b []byte) (interface{}, error) {
	tag, err := PeekType(b)
	if err != nil {
		return nil, err
	}
	switch tag {
	case TypePrepare:
		return DecodePrepare(b)
	case TypeFulfill:
		return DecodeFulfill(b)
	default:
		return DecodeReject(b)
	}
}

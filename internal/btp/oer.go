package btp

// appendVarOctet appends b as an OER-style length-prefixed string.
func appendVarOctet(dst, b []byte) []byte {
	dst = appendVarOctetLength(dst, len(b))
	return append(dst, b...)
}

// appendVarOctetLength appends just the length prefix for n bytes to follow.
func appendVarOctetLength(dst []byte, n int) []byte {
	if n < 128 {
		return append(dst, byte(n))
	}
	var lenBytes []byte
	for rem := n; rem > 0; rem >>= 8 {
		lenBytes = append([]byte{byte(rem)}, lenBytes...)
	}
	dst = append(dst, 0x80|byte(len(lenBytes)))
	return append(dst, lenBytes...)
}

// readVarOctetLength reads a length prefix starting at pos, returning the
// position of the first content byte, the declared length, and success.
func readVarOctetLength(b []byte, pos int) (int, int, bool) {
	if pos >= len(b) {
		return 0, 0, false
	}
	first := b[pos]
	pos++
	if first < 128 {
		return pos, int(first), true
	}
	lenOfLen := int(first &^ 0x80)
	if lenOfLen == 0 || lenOfLen > 4 || pos+lenOfLen > len(b) {
		return 0, 0, false
	}
	length := 0
	for i := 0; i < lenOfLen; i++ {
		length = (length << 8) | int(b[pos])
		pos++
	}
	return pos, length, true
}

// readVarOctet reads a length-prefixed string starting at pos, returning
// the content, the position just past it, and success.
func readVarOctet(b []byte, pos int) ([]byte, int, bool) {
	contentPos, length, ok := readVarOctetLength(b, pos)
	if !ok || contentPos+length > len(b) {
		return nil, 0, false
	}
	return b[contentPos : contentPos+length], contentPos + length, true
}

package ilppacket

import "encoding/binary"

func putUint64(dst []byte, v uint64) { binary.BigEndian.PutUint64(dst, v) }
func getUint64(src []byte) uint64    { return binary.BigEndian.Uint64(src) }

// writeVarOctetLength appends the minimal OER length-prefix for n bytes:
// a single byte if n < 128, otherwise 0x80|len(bytes-of-n) followed by the
// big-endian bytes of n.
func writeVarOctetLength(dst []byte, n int) []byte {
	if n < 128 {
		return append(dst, byte(n))
	}
	var lenBytes []byte
	v := uint64(n)
	for v > 0 {
		lenBytes = append([]byte{byte(v & 0xff)}, lenBytes...)
		v >>= 8
	}
	dst = append(dst, 0x80|byte(len(lenBytes)))
	dst = append(dst, lenBytes...)
	return dst
}

// writeVarOctetString appends an OER var-octet-string: length prefix then
// the raw bytes.
func writeVarOctetString(dst []byte, b []byte) []byte {
	dst = writeVarOctetLength(dst, len(b))
	return append(dst, b...)
}

// reader is a bounds-checked cursor over a byte slice. Every method either
// succeeds or returns errIO()/errLengthOverflow() — it never panics or
// reads out of bounds, so arbitrary input is safe to feed in.
type reader struct {
	buf []byte
	pos int
}

func newReader(b []byte) *reader { return &reader{buf: b} }

func (r *reader) remaining() int { return len(r.buf) - r.pos }

func (r *reader) readByte() (byte, error) {
	if r.remaining() < 1 {
		return 0, errIO()
	}
	b := r.buf[r.pos]
	r.pos++
	return b, nil
}

func (r *reader) readN(n int) ([]byte, error) {
	if n < 0 || r.remaining() < n {
		return nil, errIO()
	}
	b := r.buf[r.pos : r.pos+n]
	r.pos += n
	return b, nil
}

// readVarOctetLength reads the OER length prefix and returns the declared
// length. It rejects any length that would run past the end of the buffer,
// so callers never allocate or slice beyond what is actually present.
func (r *reader) readVarOctetLength() (int, error) {
	first, err := r.readByte()
	if err != nil {
		return 0, err
	}
	if first < 0x80 {
		n := int(first)
		if n > r.remaining() {
			return 0, errLengthOverflow()
		}
		return n, nil
	}
	lenOfLen := int(first &^ 0x80)
	if lenOfLen == 0 || lenOfLen > 8 {
		return 0, errLengthOverflow()
	}
	lenBytes, err := r.readN(lenOfLen)
	if err != nil {
		return 0, err
	}
	var n uint64
	for _, b := range lenBytes {
		n = (n << 8) | uint64(b)
	}
	if n > uint64(r.remaining()) {
		return 0, errLengthOverflow()
	}
	return int(n), nil
}

func (r *reader) readVarOctetString() ([]byte, error) {
	n, err := r.readVarOctetLength()
	if err != nil {
		return nil, err
	}
	return r.readN(n)
}

// atEnd reports whether every byte of the buffer has been consumed.
func (r *reader) atEnd() bool { return r.pos == len(r.buf) }

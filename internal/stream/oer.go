package stream

import "errors"

// errTruncated is returned by the reader helpers below on any
// out-of-bounds read.
var errTruncated = errors.New("stream: truncated buffer")

// Local, unexported var-octet helpers mirroring ilppacket's; this
// package encodes its own OER structures (StreamPacket, Frame) and
// gains nothing from depending on ilppacket's unexported reader.

func appendVarOctetLength(buf []byte, length int) []byte {
	if length < 128 {
		return append(buf, byte(length))
	}
	var lenBytes []byte
	for n := length; n > 0; n >>= 8 {
		lenBytes = append([]byte{byte(n)}, lenBytes...)
	}
	buf = append(buf, 0x80|byte(len(lenBytes)))
	return append(buf, lenBytes...)
}

func appendVarOctet(buf, data []byte) []byte {
	buf = appendVarOctetLength(buf, len(data))
	return append(buf, data...)
}

func appendVarUint(buf []byte, v uint64) []byte {
	if v == 0 {
		return appendVarOctet(buf, []byte{0})
	}
	var raw []byte
	for v > 0 {
		raw = append([]byte{byte(v)}, raw...)
		v >>= 8
	}
	return appendVarOctet(buf, raw)
}

type reader struct {
	b   []byte
	pos int
}

func newReader(b []byte) *reader { return &reader{b: b} }

func (r *reader) readByte() (byte, error) {
	if r.pos >= len(r.b) {
		return 0, errTruncated
	}
	v := r.b[r.pos]
	r.pos++
	return v, nil
}

func (r *reader) readVarOctetLength() (int, error) {
	first, err := r.readByte()
	if err != nil {
		return 0, err
	}
	if first < 128 {
		return int(first), nil
	}
	numLenBytes := int(first &^ 0x80)
	if numLenBytes == 0 || numLenBytes > 8 {
		return 0, errTruncated
	}
	length := 0
	for i := 0; i < numLenBytes; i++ {
		b, err := r.readByte()
		if err != nil {
			return 0, err
		}
		length = length<<8 | int(b)
	}
	return length, nil
}

func (r *reader) readVarOctet() ([]byte, error) {
	length, err := r.readVarOctetLength()
	if err != nil {
		return nil, err
	}
	if r.pos+length > len(r.b) {
		return nil, errTruncated
	}
	out := r.b[r.pos : r.pos+length]
	r.pos += length
	return out, nil
}

func (r *reader) readVarUint() (uint64, error) {
	raw, err := r.readVarOctet()
	if err != nil {
		return 0, err
	}
	var v uint64
	for _, b := range raw {
		v = v<<8 | uint64(b)
	}
	return v, nil
}

func (r *reader) remaining() bool { return r.pos < len(r.b) }

package stream

import "errors"

// PacketType tags the ILP packet a StreamPacket was (or will be) carried
// inside, letting the receiver distinguish a Prepare-bound packet from
// the Fulfill/Reject response it's packed alongside.
type PacketType byte

const (
	PacketTypeIlpPrepare PacketType = 12
	PacketTypeIlpFulfill PacketType = 13
	PacketTypeIlpReject  PacketType = 14
)

// ErrUnsupportedVersion is returned when a decoded packet's version
// byte isn't one this implementation understands.
var ErrUnsupportedVersion = errors.New("stream: unsupported packet version")

const streamVersion = 2

// StreamPacket is the plaintext structure carried, AES-256-GCM
// encrypted, inside a Prepare/Fulfill/Reject's data field.
type StreamPacket struct {
	SequenceNumber uint64
	PacketType     PacketType
	PrepareAmount  uint64
	Frames         []Frame
}

// Encode serializes p to its plaintext OER encoding.
func (p StreamPacket) Encode() []byte {
	var buf []byte
	buf = append(buf, streamVersion)
	buf = appendVarUint(buf, p.SequenceNumber)
	buf = append(buf, byte(p.PacketType))
	buf = appendVarUint(buf, p.PrepareAmount)

	var framesBuf []byte
	framesBuf = appendVarUint(framesBuf, uint64(len(p.Frames)))
	for _, f := range p.Frames {
		framesBuf = append(framesBuf, f.encode()...)
	}
	buf = append(buf, framesBuf...)
	return buf
}

// DecodePacket parses b as a plaintext StreamPacket.
func DecodePacket(b []byte) (StreamPacket, error) {
	r := newReader(b)
	version, err := r.readByte()
	if err != nil {
		return StreamPacket{}, err
	}
	if version != streamVersion {
		return StreamPacket{}, ErrUnsupportedVersion
	}

	p := StreamPacket{}
	if p.SequenceNumber, err = r.readVarUint(); err != nil {
		return StreamPacket{}, err
	}
	packetType, err := r.readByte()
	if err != nil {
		return StreamPacket{}, err
	}
	p.PacketType = PacketType(packetType)
	if p.PrepareAmount, err = r.readVarUint(); err != nil {
		return StreamPacket{}, err
	}

	numFrames, err := r.readVarUint()
	if err != nil {
		return StreamPacket{}, err
	}
	p.Frames = make([]Frame, 0, numFrames)
	for i := uint64(0); i < numFrames; i++ {
		f, err := decodeFrame(r)
		if err != nil {
			return StreamPacket{}, err
		}
		p.Frames = append(p.Frames, f)
	}
	return p, nil
}

// Seal encodes p and encrypts it under sharedSecret, returning the
// ciphertext ready to carry in a Prepare/Fulfill/Reject data field.
func (p StreamPacket) Seal(sharedSecret []byte) ([]byte, error) {
	return encrypt(sharedSecret, p.Encode())
}

// Open decrypts ciphertext under sharedSecret and decodes it as a
// StreamPacket.
func Open(sharedSecret, ciphertext []byte) (StreamPacket, error) {
	plaintext, err := decrypt(sharedSecret, ciphertext)
	if err != nil {
		return StreamPacket{}, err
	}
	return DecodePacket(plaintext)
}

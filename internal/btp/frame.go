// Package btp implements Bilateral Transfer Protocol framing over
// WebSockets: binary frame encode/decode, request/response correlation,
// and the client/server connection state machines.
package btp

import (
	"encoding/binary"
	"fmt"
)

// FrameType identifies a BTP frame's role.
type FrameType byte

const (
	TypeResponse FrameType = 1
	TypeError    FrameType = 2
	TypeMessage  FrameType = 6
)

// ContentType identifies how a ProtocolData entry's bytes should be
// interpreted.
type ContentType byte

const (
	ContentTypeOctetStream ContentType = 0
	ContentTypeTextPlain   ContentType = 1
	ContentTypeJSON        ContentType = 2
)

// ProtocolData is one named, typed payload inside a frame. ILP packets
// ride in an entry named "ilp" with ContentTypeOctetStream.
type ProtocolData struct {
	ProtocolName string
	ContentType  ContentType
	Data         []byte
}

// Frame is a single BTP wire message: a type, a correlating request id,
// and a list of protocol data entries. Error frames additionally carry
// an ILP-style error code, name, triggered-by address and data.
type Frame struct {
	Type      FrameType
	RequestID uint32

	Protocols []ProtocolData

	// Error-frame-only fields.
	ErrorCode    string
	ErrorName    string
	ErrorTrigger string
	ErrorData    []byte
}

// ProtocolDataByName returns the first entry named name, if present.
func (f Frame) ProtocolDataByName(name string) ([]byte, bool) {
	for _, p := range f.Protocols {
		if p.ProtocolName == name {
			return p.Data, true
		}
	}
	return nil, false
}

// Encode serializes f to the BTP wire format.
func (f Frame) Encode() ([]byte, error) {
	var payload []byte
	switch f.Type {
	case TypeMessage, TypeResponse:
		payload = encodeProtocolDataArray(f.Protocols)
	case TypeError:
		if len(f.ErrorCode) != 3 {
			return nil, fmt.Errorf("btp: error code must be 3 characters, got %q", f.ErrorCode)
		}
		payload = append(payload, []byte(f.ErrorCode)...)
		payload = appendVarOctet(payload, []byte(f.ErrorName))
		payload = appendVarOctet(payload, []byte(f.ErrorTrigger))
		payload = appendVarOctet(payload, f.ErrorData)
		payload = append(payload, encodeProtocolDataArray(f.Protocols)...)
	default:
		return nil, fmt.Errorf("btp: unknown frame type %d", f.Type)
	}

	out := make([]byte, 0, 5+len(payload)+4)
	out = append(out, byte(f.Type))
	out = binary.BigEndian.AppendUint32(out, f.RequestID)
	out = appendVarOctetLength(out, len(payload))
	out = append(out, payload...)
	return out, nil
}

// DecodeFrame parses b as a single BTP frame.
func DecodeFrame(b []byte) (Frame, error) {
	if len(b) < 5 {
		return Frame{}, fmt.Errorf("btp: frame too short")
	}
	frameType := FrameType(b[0])
	requestID := binary.BigEndian.Uint32(b[1:5])

	payload, length, ok := readVarOctetLength(b, 5)
	if !ok {
		return Frame{}, fmt.Errorf("btp: invalid length prefix")
	}
	if length+payload > len(b) {
		return Frame{}, fmt.Errorf("btp: length prefix exceeds buffer")
	}
	body := b[payload : payload+length]

	f := Frame{Type: frameType, RequestID: requestID}
	switch frameType {
	case TypeMessage, TypeResponse:
		protocols, err := decodeProtocolDataArray(body)
		if err != nil {
			return Frame{}, err
		}
		f.Protocols = protocols
	case TypeError:
		if len(body) < 3 {
			return Frame{}, fmt.Errorf("btp: error frame too short")
		}
		f.ErrorCode = string(body[:3])
		pos := 3
		name, n, ok := readVarOctet(body, pos)
		if !ok {
			return Frame{}, fmt.Errorf("btp: invalid error name")
		}
		f.ErrorName = string(name)
		pos = n
		trigger, n, ok := readVarOctet(body, pos)
		if !ok {
			return Frame{}, fmt.Errorf("btp: invalid error trigger")
		}
		f.ErrorTrigger = string(trigger)
		pos = n
		data, n, ok := readVarOctet(body, pos)
		if !ok {
			return Frame{}, fmt.Errorf("btp: invalid error data")
		}
		f.ErrorData = append([]byte(nil), data...)
		pos = n
		protocols, err := decodeProtocolDataArray(body[pos:])
		if err != nil {
			return Frame{}, err
		}
		f.Protocols = protocols
	default:
		return Frame{}, fmt.Errorf("btp: unknown frame type %d", frameType)
	}
	return f, nil
}

func encodeProtocolDataArray(entries []ProtocolData) []byte {
	out := []byte{byte(len(entries))}
	for _, e := range entries {
		out = appendVarOctet(out, []byte(e.ProtocolName))
		out = append(out, byte(e.ContentType))
		out = appendVarOctet(out, e.Data)
	}
	return out
}

func decodeProtocolDataArray(b []byte) ([]ProtocolData, error) {
	if len(b) < 1 {
		return nil, fmt.Errorf("btp: missing protocol data count")
	}
	count := int(b[0])
	pos := 1
	entries := make([]ProtocolData, 0, count)
	for i := 0; i < count; i++ {
		name, n, ok := readVarOctet(b, pos)
		if !ok {
			return nil, fmt.Errorf("btp: invalid protocol data name")
		}
		pos = n
		if pos >= len(b) {
			return nil, fmt.Errorf("btp: missing content type")
		}
		contentType := ContentType(b[pos])
		pos++
		data, n, ok := readVarOctet(b, pos)
		if !ok {
			return nil, fmt.Errorf("btp: invalid protocol data body")
		}
		pos = n
		entries = append(entries, ProtocolData{
			ProtocolName: string(name),
			ContentType:  contentType,
			Data:         append([]byte(nil), data...),
		})
	}
	return entries, nil
}

package stream

// FrameType tags the frames a StreamPacket can carry, numbered as in
// the STREAM transport's frame registry.
type FrameType byte

const (
	FrameConnectionClose        FrameType = 0x01
	FrameConnectionNewAddress   FrameType = 0x02
	FrameConnectionAssetDetails FrameType = 0x03
	FrameStreamClose            FrameType = 0x10
	FrameStreamMoney            FrameType = 0x11
	FrameStreamMaxMoney         FrameType = 0x12
	FrameStreamMoneyBlocked     FrameType = 0x13
	FrameStreamData             FrameType = 0x14
)

// Frame is one entry of a StreamPacket's frame list. Exactly one of
// the typed fields below is meaningful, selected by Type; this mirrors
// the flat-struct approach used for BTP's ProtocolData rather than an
// interface-per-frame hierarchy, since frames are small and fixed in
// shape.
type Frame struct {
	Type FrameType

	// ConnectionNewAddress
	Address string

	// ConnectionAssetDetails
	AssetCode  string
	AssetScale uint8

	// StreamMoney / StreamMoneyBlocked / StreamMaxMoney
	StreamID      uint64
	Shares        uint64
	ReceiveMax    uint64
	TotalReceived uint64
	SendMax       uint64
	TotalSent     uint64

	// StreamData
	Offset uint64
	Data   []byte

	// StreamClose / ConnectionClose
	ErrorCode uint8
}

func (f Frame) encode() []byte {
	var buf []byte
	switch f.Type {
	case FrameConnectionNewAddress:
		buf = appendVarOctet(buf, []byte(f.Address))
	case FrameConnectionAssetDetails:
		buf = appendVarOctet(buf, []byte(f.AssetCode))
		buf = append(buf, f.AssetScale)
	case FrameStreamMoney:
		buf = appendVarUint(buf, f.StreamID)
		buf = appendVarUint(buf, f.Shares)
	case FrameStreamMaxMoney:
		buf = appendVarUint(buf, f.StreamID)
		buf = appendVarUint(buf, f.ReceiveMax)
		buf = appendVarUint(buf, f.TotalReceived)
	case FrameStreamMoneyBlocked:
		buf = appendVarUint(buf, f.StreamID)
		buf = appendVarUint(buf, f.SendMax)
		buf = appendVarUint(buf, f.TotalSent)
	case FrameStreamData:
		buf = appendVarUint(buf, f.StreamID)
		buf = appendVarUint(buf, f.Offset)
		buf = appendVarOctet(buf, f.Data)
	case FrameStreamClose, FrameConnectionClose:
		buf = appendVarUint(buf, f.StreamID)
		buf = append(buf, f.ErrorCode)
	}

	out := []byte{byte(f.Type)}
	out = appendVarOctet(out, buf)
	return out
}

func decodeFrame(r *reader) (Frame, error) {
	typeByte, err := r.readByte()
	if err != nil {
		return Frame{}, err
	}
	body, err := r.readVarOctet()
	if err != nil {
		return Frame{}, err
	}
	br := newReader(body)

	f := Frame{Type: FrameType(typeByte)}
	switch f.Type {
	case FrameConnectionNewAddress:
		addr, err := br.readVarOctet()
		if err != nil {
			return Frame{}, err
		}
		f.Address = string(addr)
	case FrameConnectionAssetDetails:
		code, err := br.readVarOctet()
		if err != nil {
			return Frame{}, err
		}
		scale, err := br.readByte()
		if err != nil {
			return Frame{}, err
		}
		f.AssetCode = string(code)
		f.AssetScale = scale
	case FrameStreamMoney:
		if f.StreamID, err = br.readVarUint(); err != nil {
			return Frame{}, err
		}
		if f.Shares, err = br.readVarUint(); err != nil {
			return Frame{}, err
		}
	case FrameStreamMaxMoney:
		if f.StreamID, err = br.readVarUint(); err != nil {
			return Frame{}, err
		}
		if f.ReceiveMax, err = br.readVarUint(); err != nil {
			return Frame{}, err
		}
		if f.TotalReceived, err = br.readVarUint(); err != nil {
			return Frame{}, err
		}
	case FrameStreamMoneyBlocked:
		if f.StreamID, err = br.readVarUint(); err != nil {
			return Frame{}, err
		}
		if f.SendMax, err = br.readVarUint(); err != nil {
			return Frame{}, err
		}
		if f.TotalSent, err = br.readVarUint(); err != nil {
			return Frame{}, err
		}
	case FrameStreamData:
		if f.StreamID, err = br.readVarUint(); err != nil {
			return Frame{}, err
		}
		if f.Offset, err = br.readVarUint(); err != nil {
			return Frame{}, err
		}
		if f.Data, err = br.readVarOctet(); err != nil {
			return Frame{}, err
		}
	case FrameStreamClose, FrameConnectionClose:
		if f.StreamID, err = br.readVarUint(); err != nil {
			return Frame{}, err
		}
		if f.ErrorCode, err = br.readByte(); err != nil {
			return Frame{}, err
		}
	}
	return f, nil
}

package btp

import (
	"context"
	"fmt"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/ilpgo/connector/pkg/ilppacket"
	"github.com/ilpgo/connector/pkg/ilpservice"
)

// Conn wraps one physical BTP WebSocket connection, in either direction:
// the connector dialing out to a peer (client.go) or a peer dialing in
// (server.go). BTP is bidirectional, so both sides of a connection use
// the same read pump and request/response correlation.
type Conn struct {
	ws         *websocket.Conn
	correlator *Correlator
	account    ilpservice.Account

	writeMu sync.Mutex
	closeMu sync.Mutex
	closed  bool
	done    chan struct{}
}

func newConn(ws *websocket.Conn, account ilpservice.Account) *Conn {
	return &Conn{
		ws:         ws,
		correlator: NewCorrelator(),
		account:    account,
		done:       make(chan struct{}),
	}
}

// Account returns the peer account this connection is bound to.
func (c *Conn) Account() ilpservice.Account { return c.account }

// Done is closed once the connection's read pump exits.
func (c *Conn) Done() <-chan struct{} { return c.done }

func (c *Conn) writeFrame(f Frame) error {
	encoded, err := f.Encode()
	if err != nil {
		return err
	}
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.ws.WriteMessage(websocket.BinaryMessage, encoded)
}

// SendPrepare sends p as a BTP Message frame carrying the ILP packet
// sub-protocol and waits for the correlated Response or Error frame,
// translating either into an ilpservice.Result. ctx's deadline, if any,
// bounds how long the wait may take.
func (c *Conn) SendPrepare(ctx context.Context, p ilppacket.Prepare) (ilpservice.Result, error) {
	encoded, err := p.Encode()
	if err != nil {
		return ilpservice.Result{}, err
	}

	requestID := c.correlator.NextRequestID()
	waiter, err := c.correlator.Await(requestID)
	if err != nil {
		return ilpservice.Result{}, err
	}

	frame := Frame{
		Type:      TypeMessage,
		RequestID: requestID,
		Protocols: []ProtocolData{
			{ProtocolName: "ilp", ContentType: ContentTypeOctetStream, Data: encoded},
		},
	}
	if err := c.writeFrame(frame); err != nil {
		c.correlator.Cancel(requestID)
		return ilpservice.Result{}, err
	}

	select {
	case reply := <-waiter:
		return frameToResult(reply)
	case <-ctx.Done():
		c.correlator.Cancel(requestID)
		return ilpservice.Result{}, ctx.Err()
	case <-c.done:
		c.correlator.Cancel(requestID)
		return ilpservice.Result{}, fmt.Errorf("btp: connection closed while awaiting response")
	}
}

func frameToResult(f Frame) (ilpservice.Result, error) {
	switch f.Type {
	case TypeResponse:
		data, ok := f.ProtocolDataByName("ilp")
		if !ok {
			return ilpservice.Result{}, fmt.Errorf("btp: response frame missing ilp protocol data")
		}
		fulfill, err := ilppacket.DecodeFulfill(data)
		if err != nil {
			return ilpservice.Result{}, err
		}
		return ilpservice.FulfillResult(fulfill), nil
	case TypeError:
		data, ok := f.ProtocolDataByName("ilp")
		if ok {
			reject, err := ilppacket.DecodeReject(data)
			if err == nil {
				return ilpservice.RejectResult(reject), nil
			}
		}
		reject := ilppacket.RejectBuilder{
			Code:    ilppacket.ErrorCode(f.ErrorCode),
			Message: f.ErrorName,
		}.Build()
		return ilpservice.RejectResult(reject), nil
	default:
		return ilpservice.Result{}, fmt.Errorf("btp: unexpected frame type %d in response", f.Type)
	}
}

// Run starts the read pump: every inbound Message frame carrying an ilp
// sub-protocol is decoded into a Prepare and handed to handler, whose
// Result is written back as a Response or Error frame correlated to the
// same request id. Inbound Response/Error frames resolve an outstanding
// SendPrepare call. Run blocks until the connection closes.
func (c *Conn) Run(ctx context.Context, handler ilpservice.IncomingService) error {
	defer c.close()
	for {
		_, raw, err := c.ws.ReadMessage()
		if err != nil {
			return err
		}
		frame, err := DecodeFrame(raw)
		if err != nil {
			continue
		}

		switch frame.Type {
		case TypeResponse, TypeError:
			c.correlator.Resolve(frame)
		case TypeMessage:
			go c.handleMessage(ctx, frame, handler)
		}
	}
}

func (c *Conn) handleMessage(ctx context.Context, frame Frame, handler ilpservice.IncomingService) {
	data, ok := frame.ProtocolDataByName("ilp")
	if !ok {
		c.writeFrame(errorFrame(frame.RequestID, ilppacket.CodeF01InvalidPacket, "missing ilp protocol data"))
		return
	}
	prepare, err := ilppacket.DecodePrepare(data)
	if err != nil {
		c.writeFrame(errorFrame(frame.RequestID, ilppacket.CodeF01InvalidPacket, err.Error()))
		return
	}

	result, err := handler.HandleRequest(ctx, ilpservice.IncomingRequest{From: c.account, Prepare: prepare})
	if err != nil {
		c.writeFrame(errorFrame(frame.RequestID, ilppacket.CodeT00InternalError, err.Error()))
		return
	}

	if result.IsFulfill() {
		encoded, err := result.Fulfill.Encode()
		if err != nil {
			c.writeFrame(errorFrame(frame.RequestID, ilppacket.CodeT00InternalError, err.Error()))
			return
		}
		c.writeFrame(Frame{
			Type:      TypeResponse,
			RequestID: frame.RequestID,
			Protocols: []ProtocolData{{ProtocolName: "ilp", ContentType: ContentTypeOctetStream, Data: encoded}},
		})
		return
	}

	encoded, err := result.Reject.Encode()
	if err != nil {
		c.writeFrame(errorFrame(frame.RequestID, ilppacket.CodeT00InternalError, err.Error()))
		return
	}
	c.writeFrame(Frame{
		Type:      TypeError,
		RequestID: frame.RequestID,
		ErrorCode: string(result.Reject.Code),
		Protocols: []ProtocolData{{ProtocolName: "ilp", ContentType: ContentTypeOctetStream, Data: encoded}},
	})
}

func errorFrame(requestID uint32, code ilppacket.ErrorCode, message string) Frame {
	return Frame{
		Type:      TypeError,
		RequestID: requestID,
		ErrorCode: string(code),
		ErrorName: message,
	}
}

func (c *Conn) close() {
	c.closeMu.Lock()
	defer c.closeMu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.done)
	c.ws.Close()
}

// Close closes the underlying WebSocket connection.
func (c *Conn) Close() error {
	c.close()
	return nil
}

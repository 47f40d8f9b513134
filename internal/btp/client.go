package btp

import (
	"context"
	"fmt"
	"math/rand"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/ilpgo/connector/pkg/ilpservice"
)

// ClientState tracks a dialed BTP connection's lifecycle.
type ClientState int

const (
	StateConnecting ClientState = iota
	StateAuthenticating
	StateReady
	StateClosed
)

// DialConfig names the peer to dial and how to authenticate with it.
type DialConfig struct {
	URL      string // btp+ws://... or btp+wss://...
	Username string
	Token    string
	Account  ilpservice.Account
}

// wsURL rewrites the BTP URL scheme (btp+ws / btp+wss) to the plain
// ws/wss scheme gorilla/websocket expects.
func wsURL(raw string) (string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", err
	}
	switch u.Scheme {
	case "btp+ws":
		u.Scheme = "ws"
	case "btp+wss":
		u.Scheme = "wss"
	default:
		return "", fmt.Errorf("btp: unsupported URL scheme %q", u.Scheme)
	}
	return u.String(), nil
}

// Dial establishes one BTP connection and completes the auth handshake.
// The first frame sent is a Message carrying the auth, auth_username,
// and auth_token sub-protocols, per the connection's handshake contract.
func Dial(ctx context.Context, cfg DialConfig) (*Conn, error) {
	target, err := wsURL(cfg.URL)
	if err != nil {
		return nil, err
	}

	ws, _, err := websocket.DefaultDialer.DialContext(ctx, target, nil)
	if err != nil {
		return nil, fmt.Errorf("btp: dial %s: %w", target, err)
	}

	conn := newConn(ws, cfg.Account)

	authRequestID := conn.correlator.NextRequestID()
	waiter, err := conn.correlator.Await(authRequestID)
	if err != nil {
		ws.Close()
		return nil, err
	}

	authFrame := Frame{
		Type:      TypeMessage,
		RequestID: authRequestID,
		Protocols: []ProtocolData{
			{ProtocolName: "auth", ContentType: ContentTypeOctetStream},
			{ProtocolName: "auth_username", ContentType: ContentTypeTextPlain, Data: []byte(cfg.Username)},
			{ProtocolName: "auth_token", ContentType: ContentTypeTextPlain, Data: []byte(cfg.Token)},
		},
	}
	if err := conn.writeFrame(authFrame); err != nil {
		ws.Close()
		return nil, err
	}

	go pumpAuthReplies(conn)

	select {
	case reply := <-waiter:
		if reply.Type == TypeError {
			ws.Close()
			return nil, fmt.Errorf("btp: auth rejected: %s %s", reply.ErrorCode, reply.ErrorName)
		}
	case <-ctx.Done():
		ws.Close()
		return nil, ctx.Err()
	}

	return conn, nil
}

// pumpAuthReplies reads exactly the frames needed to resolve the pending
// auth correlator entry; Run takes over the read loop once the caller
// starts it after Dial returns.
func pumpAuthReplies(conn *Conn) {
	_, raw, err := conn.ws.ReadMessage()
	if err != nil {
		return
	}
	frame, err := DecodeFrame(raw)
	if err != nil {
		return
	}
	conn.correlator.Resolve(frame)
}

// DialWithBackoff retries Dial with exponential backoff (capped at max,
// jittered) until ctx is canceled or a connection succeeds.
func DialWithBackoff(ctx context.Context, cfg DialConfig, initial, max time.Duration) (*Conn, error) {
	delay := initial
	for {
		conn, err := Dial(ctx, cfg)
		if err == nil {
			return conn, nil
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(jitter(delay)):
		}
		delay *= 2
		if delay > max {
			delay = max
		}
	}
}

func jitter(d time.Duration) time.Duration {
	if d <= 0 {
		return 0
	}
	return d/2 + time.Duration(rand.Int63n(int64(d)/2+1))
}

// IsBTPURL reports whether raw looks like a BTP WebSocket URL.
func IsBTPURL(raw string) bool {
	return strings.HasPrefix(raw, "btp+ws://") || strings.HasPrefix(raw, "btp+wss://")
}

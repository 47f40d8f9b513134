package btp

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ilpgo/connector/pkg/ilpservice"
)

// Transport is the outgoing-side BTP egress: it holds every connection
// this node currently has open to a peer, whether this node dialed out
// (a Child or Peer account configured with a BTP URL) or the peer dialed
// in (bound by Server.ServeHTTP through Bind), and sends a Prepare over whichever one
// matches the destination account.
type Transport struct {
	mu    sync.RWMutex
	conns map[ilpservice.AccountID]*Conn

	backoffInitial time.Duration
	backoffMax     time.Duration
}

// NewTransport returns an empty Transport.
func NewTransport(backoffInitial, backoffMax time.Duration) *Transport {
	if backoffInitial <= 0 {
		backoffInitial = 100 * time.Millisecond
	}
	if backoffMax <= 0 {
		backoffMax = 30 * time.Second
	}
	return &Transport{
		conns:          make(map[ilpservice.AccountID]*Conn),
		backoffInitial: backoffInitial,
		backoffMax:     backoffMax,
	}
}

// Bind registers conn as the egress path for its account, replacing any
// existing connection for that account.
func (t *Transport) Bind(conn *Conn) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.conns[conn.Account().ID] = conn
}

// Unbind removes the connection for id, if conn is still the one bound.
func (t *Transport) Unbind(id ilpservice.AccountID, conn *Conn) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if current, ok := t.conns[id]; ok && current == conn {
		delete(t.conns, id)
	}
}

// DialAndRun dials cfg, binds the resulting connection, runs its read
// pump (handing inbound Prepares to handler) until it drops, then
// reconnects with exponential backoff. Blocks until ctx is canceled.
func (t *Transport) DialAndRun(ctx context.Context, cfg DialConfig, handler ilpservice.IncomingService) error {
	for {
		conn, err := DialWithBackoff(ctx, cfg, t.backoffInitial, t.backoffMax)
		if err != nil {
			return err
		}
		t.Bind(conn)
		runErr := conn.Run(ctx, handler)
		t.Unbind(cfg.Account.ID, conn)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		_ = runErr // connection dropped; loop reconnects
	}
}

// SendRequest implements ilpservice.OutgoingService by forwarding over
// whichever BTP connection is bound to req.To.
func (t *Transport) SendRequest(ctx context.Context, req ilpservice.OutgoingRequest) (ilpservice.Result, error) {
	t.mu.RLock()
	conn, ok := t.conns[req.To.ID]
	t.mu.RUnlock()
	if !ok {
		return ilpservice.Result{}, fmt.Errorf("btp: no connection bound for account %s", req.To.ID)
	}
	return conn.SendPrepare(ctx, req.Prepare)
}

var _ ilpservice.OutgoingService = (*Transport)(nil)

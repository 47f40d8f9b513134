package btp

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/ilpgo/connector/internal/store"
	"github.com/ilpgo/connector/pkg/ilpservice"
)

// Server accepts inbound BTP WebSocket connections, authenticates the
// first Message frame against the account store, and pumps subsequent
// frames into Handler. Successfully authenticated connections are bound
// into Transport so the outgoing pipeline can send Prepares back over
// them.
type Server struct {
	Accounts  store.AccountStore
	Handler   ilpservice.IncomingService
	Transport *Transport
	Upgrader  websocket.Upgrader
}

// NewServer returns a Server ready to accept connections.
func NewServer(accounts store.AccountStore, handler ilpservice.IncomingService, transport *Transport) *Server {
	return &Server{Accounts: accounts, Handler: handler, Transport: transport}
}

// ServeHTTP upgrades the request to a WebSocket, authenticates the first
// Message frame, binds the connection to its account, and runs its read
// pump until it closes.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ws, err := s.Upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}

	account, requestID, err := s.authenticate(ws)
	if err != nil {
		errFrame := errorFrame(requestID, "F00", err.Error())
		if encoded, encErr := errFrame.Encode(); encErr == nil {
			ws.WriteMessage(websocket.BinaryMessage, encoded)
		}
		ws.Close()
		return
	}

	conn := newConn(ws, account)
	s.Transport.Bind(conn)
	defer s.Transport.Unbind(account.ID, conn)

	if err := conn.writeFrame(Frame{Type: TypeResponse, RequestID: requestID}); err != nil {
		ws.Close()
		return
	}

	conn.Run(r.Context(), s.Handler)
}

func (s *Server) authenticate(ws *websocket.Conn) (ilpservice.Account, uint32, error) {
	_, raw, err := ws.ReadMessage()
	if err != nil {
		return ilpservice.Account{}, 0, err
	}
	frame, err := DecodeFrame(raw)
	if err != nil {
		return ilpservice.Account{}, 0, err
	}
	if frame.Type != TypeMessage {
		return ilpservice.Account{}, frame.RequestID, fmt.Errorf("btp: first frame must be a Message")
	}
	if _, ok := frame.ProtocolDataByName("auth"); !ok {
		return ilpservice.Account{}, frame.RequestID, fmt.Errorf("btp: first frame must carry the auth sub-protocol")
	}

	usernameBytes, ok := frame.ProtocolDataByName("auth_username")
	if !ok {
		return ilpservice.Account{}, frame.RequestID, fmt.Errorf("btp: missing auth_username")
	}
	tokenBytes, ok := frame.ProtocolDataByName("auth_token")
	if !ok {
		return ilpservice.Account{}, frame.RequestID, fmt.Errorf("btp: missing auth_token")
	}

	account, err := s.Accounts.AuthenticateBTP(context.Background(), string(usernameBytes), string(tokenBytes))
	if err != nil {
		return ilpservice.Account{}, frame.RequestID, err
	}
	return account, frame.RequestID, nil
}

var _ http.Handler = (*Server)(nil)

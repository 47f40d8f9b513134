// Package httptransport exposes the connector's ILP-over-HTTP ingress:
// POST /ilp with a raw Prepare body, Bearer-authenticated per account.
package httptransport

import (
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/ilpgo/connector/internal/logging"
	"github.com/ilpgo/connector/internal/store"
	"github.com/ilpgo/connector/pkg/ilppacket"
	"github.com/ilpgo/connector/pkg/ilpservice"
)

const maxPrepareBodyBytes = 32 * 1024

// Server answers POST /ilp by decoding the body as a Prepare,
// authenticating the caller against Accounts, and running it through
// Handler.
type Server struct {
	Accounts store.AccountStore
	Handler  ilpservice.IncomingService

	engine *gin.Engine
	logger interface {
		Errorw(msg string, keysAndValues ...interface{})
	}
}

// NewServer returns an http.Handler serving POST /ilp.
func NewServer(accounts store.AccountStore, handler ilpservice.IncomingService) *Server {
	s := &Server{
		Accounts: accounts,
		Handler:  handler,
		logger:   logging.For("httptransport"),
	}
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.POST("/ilp", s.handlePrepare)
	s.engine = engine
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.engine.ServeHTTP(w, r)
}

func (s *Server) handlePrepare(c *gin.Context) {
	username, token, ok := bearerCredentials(c.GetHeader("Authorization"))
	if !ok {
		c.Status(http.StatusUnauthorized)
		return
	}

	account, err := s.Accounts.AuthenticateHTTP(c.Request.Context(), username, token)
	if err != nil {
		c.Status(http.StatusUnauthorized)
		return
	}

	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxPrepareBodyBytes+1))
	if err != nil {
		c.Status(http.StatusBadRequest)
		return
	}
	if len(body) > maxPrepareBodyBytes {
		c.Status(http.StatusRequestEntityTooLarge)
		return
	}

	prepare, err := ilppacket.DecodePrepare(body)
	if err != nil {
		c.Status(http.StatusBadRequest)
		return
	}

	result, err := s.Handler.HandleRequest(c.Request.Context(), ilpservice.IncomingRequest{
		From:    account,
		Prepare: prepare,
	})
	if err != nil {
		s.logger.Errorw("pipeline returned a transport-level error", "account", account.ID, "error", err)
		c.Status(http.StatusInternalServerError)
		return
	}

	var raw []byte
	var encodeErr error
	switch {
	case result.Fulfill != nil:
		raw, encodeErr = result.Fulfill.Encode()
	case result.Reject != nil:
		raw, encodeErr = result.Reject.Encode()
	}
	if encodeErr != nil {
		c.Status(http.StatusInternalServerError)
		return
	}

	c.Data(http.StatusOK, "application/octet-stream", raw)
}

// bearerCredentials parses "Bearer username:token", also accepting a
// URL-encoded colon in the credential portion.
func bearerCredentials(header string) (username, token string, ok bool) {
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return "", "", false
	}
	creds := strings.TrimPrefix(header, prefix)
	if decoded, err := url.QueryUnescape(creds); err == nil {
		creds = decoded
	}
	idx := strings.IndexByte(creds, ':')
	if idx < 0 {
		return "", "", false
	}
	return creds[:idx], creds[idx+1:], true
}

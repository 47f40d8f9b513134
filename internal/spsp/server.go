package spsp

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ilpgo/connector/internal/store"
	"github.com/ilpgo/connector/internal/stream"
)

// Resolver answers SPSP queries for this node's local receivers,
// minting a fresh STREAM connection (address + shared secret) per
// query.
type Resolver struct {
	Accounts    store.AccountStore
	Connections *stream.ConnectionGenerator
}

// NewResolver returns a Resolver using connections to mint STREAM
// destinations rooted at this node's address.
func NewResolver(accounts store.AccountStore, connections *stream.ConnectionGenerator) *Resolver {
	return &Resolver{Accounts: accounts, Connections: connections}
}

// Resolve implements admin.SPSPResolver: verifies username names a
// known local account, then mints a connection for it.
func (r *Resolver) Resolve(ctx context.Context, username string) (string, []byte, error) {
	if _, err := r.Accounts.GetAccountByUsername(ctx, username); err != nil {
		return "", nil, err
	}
	address, secret, err := r.Connections.GenerateAddressAndSecret()
	if err != nil {
		return "", nil, fmt.Errorf("spsp: minting connection for %s: %w", username, err)
	}
	return string(address), secret, nil
}

// Server answers GET /.well-known/pay and GET /<username>/.well-known/pay
// (the payment-pointer-resolved path) with an SPSP response.
type Server struct {
	Resolver *Resolver
	engine   *gin.Engine
}

// NewServer builds the SPSP HTTP surface.
func NewServer(resolver *Resolver) *Server {
	s := &Server{Resolver: resolver}
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.GET("/:username/.well-known/pay", s.handleQuery)
	engine.GET("/.well-known/pay", s.handleDefaultQuery)
	s.engine = engine
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.engine.ServeHTTP(w, r)
}

func (s *Server) handleDefaultQuery(c *gin.Context) {
	s.respond(c, "default")
}

func (s *Server) handleQuery(c *gin.Context) {
	s.respond(c, c.Param("username"))
}

func (s *Server) respond(c *gin.Context, username string) {
	destination, secret, err := s.Resolver.Resolve(c.Request.Context(), username)
	if err != nil {
		c.Status(http.StatusNotFound)
		return
	}
	c.Header("Content-Type", "application/spsp4+json")
	c.JSON(http.StatusOK, Response{
		DestinationAccount: destination,
		SharedSecret:        base64.StdEncoding.EncodeToString(secret),
	})
}

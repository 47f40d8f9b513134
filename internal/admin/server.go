// Package admin exposes the connector's JSON management surface:
// account CRUD, balances, exchange rates, routes, and payment/SPSP
// triggers.
package admin

import (
	"context"
	"encoding/base64"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/ilpgo/connector/internal/exchangerate"
	"github.com/ilpgo/connector/internal/logging"
	"github.com/ilpgo/connector/internal/store"
	"github.com/ilpgo/connector/pkg/ilpservice"
)

// Payer triggers an SPSP-driven payment on behalf of the admin API's
// POST /pay, returning the amount actually delivered to the receiver.
type Payer interface {
	Pay(ctx context.Context, receiver string, sourceAmount uint64) (deliveredAmount uint64, err error)
}

// SPSPResolver answers the admin API's SPSP query endpoint for a local
// receiving account.
type SPSPResolver interface {
	Resolve(ctx context.Context, username string) (destinationAccount string, sharedSecret []byte, err error)
}

// Server implements the admin JSON API described for the connector's
// management surface.
type Server struct {
	Accounts  store.AccountStore
	Balances  *store.BalanceStore
	Routes    *store.RouteTable
	Rates     *exchangerate.Store
	Payer     Payer
	SPSP      SPSPResolver
	AdminAuth string

	engine *gin.Engine
	logger interface {
		Errorw(msg string, keysAndValues ...interface{})
	}
}

// NewServer wires the admin HTTP surface. adminAuthToken is the bearer
// token that authenticates as the node operator; an account's own
// bearer token (HTTP.IncomingToken) is also accepted for endpoints
// scoped to that account.
func NewServer(accounts store.AccountStore, balances *store.BalanceStore, routes *store.RouteTable, rates *exchangerate.Store, payer Payer, spsp SPSPResolver, adminAuthToken string) *Server {
	s := &Server{
		Accounts:  accounts,
		Balances:  balances,
		Routes:    routes,
		Rates:     rates,
		Payer:     payer,
		SPSP:      spsp,
		AdminAuth: adminAuthToken,
		logger:    logging.For("admin"),
	}

	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())

	accountsGroup := engine.Group("/accounts", s.requireAdmin)
	accountsGroup.POST("", s.createAccount)
	accountsGroup.GET("", s.listAccounts)
	accountsGroup.GET("/:id", s.getAccount)
	accountsGroup.DELETE("/:id", s.deleteAccount)
	accountsGroup.GET("/:id/balance", s.getBalance)

	engine.GET("/rates", s.requireAdmin, s.getRates)
	engine.PUT("/rates", s.requireAdmin, s.putRates)
	engine.GET("/routes", s.requireAdmin, s.getRoutes)
	engine.POST("/pay", s.requireAdmin, s.pay)
	engine.GET("/spsp/:username", s.requireAdmin, s.spsp)

	s.engine = engine
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.engine.ServeHTTP(w, r)
}

// requireAdmin accepts the configured admin token on every endpoint,
// and an account's own HTTP incoming token only on routes whose :id
// parameter is that account's ID.
func (s *Server) requireAdmin(c *gin.Context) {
	token := bearerToken(c.GetHeader("Authorization"))
	if token == "" {
		c.AbortWithStatus(http.StatusUnauthorized)
		return
	}
	if s.AdminAuth != "" && token == s.AdminAuth {
		c.Next()
		return
	}

	accounts, err := s.Accounts.GetAccounts(c.Request.Context())
	if err != nil {
		c.AbortWithStatus(http.StatusUnauthorized)
		return
	}
	for _, acc := range accounts {
		if acc.HTTP != nil && acc.HTTP.IncomingToken == token {
			if c.Param("id") != string(acc.ID) {
				break
			}
			c.Set("account", acc)
			c.Next()
			return
		}
	}
	c.AbortWithStatus(http.StatusUnauthorized)
}

func bearerToken(header string) string {
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return ""
	}
	return strings.TrimPrefix(header, prefix)
}

func (s *Server) storeStatus(err error) int {
	switch {
	case errors.Is(err, store.ErrAccountNotFound):
		return http.StatusNotFound
	case errors.Is(err, store.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, store.ErrConflict):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

type accountPayload struct {
	ID              string  `json:"id"`
	Username        string  `json:"username"`
	AssetCode       string  `json:"asset_code"`
	AssetScale      uint8   `json:"asset_scale"`
	RoutingRelation string  `json:"routing_relation"`
	MaxPacketAmount *uint64 `json:"max_packet_amount,omitempty"`
	MinBalance      *int64  `json:"min_balance,omitempty"`
	SettleThreshold *int64  `json:"settle_threshold,omitempty"`
	SettleTo        *int64  `json:"settle_to,omitempty"`

	HTTPIncomingToken string `json:"http_incoming_token,omitempty"`
	HTTPOutgoingToken string `json:"http_outgoing_token,omitempty"`
	HTTPURL           string `json:"http_url,omitempty"`
	BTPIncomingToken  string `json:"btp_incoming_token,omitempty"`
	BTPOutgoingToken  string `json:"btp_outgoing_token,omitempty"`
	BTPURL            string `json:"btp_url,omitempty"`
}

func (p accountPayload) toAccount() ilpservice.Account {
	acc := ilpservice.Account{
		ID:              ilpservice.AccountID(p.ID),
		Username:        p.Username,
		AssetCode:       p.AssetCode,
		AssetScale:      p.AssetScale,
		RoutingRelation: ilpservice.RoutingRelation(p.RoutingRelation),
		MaxPacketAmount: p.MaxPacketAmount,
		MinBalance:      p.MinBalance,
		SettleThreshold: p.SettleThreshold,
		SettleTo:        p.SettleTo,
	}
	if p.HTTPIncomingToken != "" || p.HTTPOutgoingToken != "" || p.HTTPURL != "" {
		acc.HTTP = &ilpservice.HTTPCredentials{
			URL:           p.HTTPURL,
			IncomingToken: p.HTTPIncomingToken,
			OutgoingToken: p.HTTPOutgoingToken,
		}
	}
	if p.BTPIncomingToken != "" || p.BTPOutgoingToken != "" || p.BTPURL != "" {
		acc.BTP = &ilpservice.BTPCredentials{
			URL:           p.BTPURL,
			IncomingToken: p.BTPIncomingToken,
			OutgoingToken: p.BTPOutgoingToken,
		}
	}
	return acc
}

func fromAccount(acc ilpservice.Account) accountPayload {
	p := accountPayload{
		ID:              string(acc.ID),
		Username:        acc.Username,
		AssetCode:       acc.AssetCode,
		AssetScale:      acc.AssetScale,
		RoutingRelation: string(acc.RoutingRelation),
		MaxPacketAmount: acc.MaxPacketAmount,
		MinBalance:      acc.MinBalance,
		SettleThreshold: acc.SettleThreshold,
		SettleTo:        acc.SettleTo,
	}
	if acc.HTTP != nil {
		p.HTTPURL = acc.HTTP.URL
	}
	if acc.BTP != nil {
		p.BTPURL = acc.BTP.URL
	}
	return p
}

func (s *Server) createAccount(c *gin.Context) {
	var payload accountPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.Status(http.StatusBadRequest)
		return
	}
	acc := payload.toAccount()
	if err := s.Accounts.CreateAccount(c.Request.Context(), acc); err != nil {
		c.Status(s.storeStatus(err))
		return
	}
	c.JSON(http.StatusCreated, fromAccount(acc))
}

func (s *Server) listAccounts(c *gin.Context) {
	accounts, err := s.Accounts.GetAccounts(c.Request.Context())
	if err != nil {
		c.Status(s.storeStatus(err))
		return
	}
	out := make([]accountPayload, 0, len(accounts))
	for _, acc := range accounts {
		out = append(out, fromAccount(acc))
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) getAccount(c *gin.Context) {
	acc, err := s.Accounts.GetAccount(c.Request.Context(), ilpservice.AccountID(c.Param("id")))
	if err != nil {
		c.Status(s.storeStatus(err))
		return
	}
	c.JSON(http.StatusOK, fromAccount(acc))
}

func (s *Server) deleteAccount(c *gin.Context) {
	if err := s.Accounts.DeleteAccount(c.Request.Context(), ilpservice.AccountID(c.Param("id"))); err != nil {
		c.Status(s.storeStatus(err))
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) getBalance(c *gin.Context) {
	id := ilpservice.AccountID(c.Param("id"))
	if _, err := s.Accounts.GetAccount(c.Request.Context(), id); err != nil {
		c.Status(s.storeStatus(err))
		return
	}
	balance := s.Balances.Balance(id)
	c.JSON(http.StatusOK, gin.H{"balance": strconv.FormatInt(balance, 10)})
}

func (s *Server) getRates(c *gin.Context) {
	c.JSON(http.StatusOK, s.Rates.Snapshot())
}

func (s *Server) putRates(c *gin.Context) {
	var rates map[string]float64
	if err := c.ShouldBindJSON(&rates); err != nil {
		c.Status(http.StatusBadRequest)
		return
	}
	s.Rates.Replace(rates)
	c.Status(http.StatusNoContent)
}

func (s *Server) getRoutes(c *gin.Context) {
	out := make(map[string]string)
	for _, route := range s.Routes.Routes() {
		out[route.Prefix] = string(route.NextHop)
	}
	c.JSON(http.StatusOK, out)
}

type payRequest struct {
	Receiver     string `json:"receiver"`
	SourceAmount uint64 `json:"source_amount"`
}

func (s *Server) pay(c *gin.Context) {
	if s.Payer == nil {
		c.Status(http.StatusNotImplemented)
		return
	}
	var req payRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Status(http.StatusBadRequest)
		return
	}
	delivered, err := s.Payer.Pay(c.Request.Context(), req.Receiver, req.SourceAmount)
	if err != nil {
		s.logger.Errorw("payment failed", "receiver", req.Receiver, "error", err)
		c.Status(http.StatusInternalServerError)
		return
	}
	c.JSON(http.StatusOK, gin.H{"delivered_amount": delivered})
}

func (s *Server) spsp(c *gin.Context) {
	if s.SPSP == nil {
		c.Status(http.StatusNotImplemented)
		return
	}
	destination, secret, err := s.SPSP.Resolve(c.Request.Context(), c.Param("username"))
	if err != nil {
		c.Status(s.storeStatus(err))
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"destination_account": destination,
		"shared_secret":       base64.StdEncoding.EncodeToString(secret),
	})
}

// Command connector runs one ILP connector node: BTP and ILP-over-HTTP
// ingress, the service pipeline, an admin JSON API, and SPSP.
package main

import (
	"context"
	"flag"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/ilpgo/connector/internal/admin"
	"github.com/ilpgo/connector/internal/btp"
	"github.com/ilpgo/connector/internal/config"
	"github.com/ilpgo/connector/internal/egress"
	"github.com/ilpgo/connector/internal/exchangerate"
	"github.com/ilpgo/connector/internal/httptransport"
	"github.com/ilpgo/connector/internal/logging"
	"github.com/ilpgo/connector/internal/middleware"
	"github.com/ilpgo/connector/internal/ratelimit"
	ratelimitmemory "github.com/ilpgo/connector/internal/ratelimit/memory"
	ratelimitredis "github.com/ilpgo/connector/internal/ratelimit/redis"
	"github.com/ilpgo/connector/internal/router"
	"github.com/ilpgo/connector/internal/settlement"
	"github.com/ilpgo/connector/internal/spsp"
	"github.com/ilpgo/connector/internal/store"
	"github.com/ilpgo/connector/internal/store/memory"
	"github.com/ilpgo/connector/internal/store/redisstore"
	"github.com/ilpgo/connector/internal/stream"
	"github.com/ilpgo/connector/internal/validator"
	"github.com/ilpgo/connector/pkg/ilppacket"
	"github.com/ilpgo/connector/pkg/ilpservice"
)

const (
	exitOK = iota
	exitConfigError
	exitStoreError
	exitPortInUse
)

func main() {
	os.Exit(run())
}

func run() int {
	overlayPath := flag.String("config", "", "optional YAML overlay file for rate-limiter and BTP tuning")
	logLevel := flag.String("log-level", "info", "zap log level")
	flag.Parse()

	if err := logging.Init(*logLevel, false); err != nil {
		os.Stderr.WriteString("connector: failed to initialize logging: " + err.Error() + "\n")
		return exitConfigError
	}
	defer logging.Sync()
	logger := logging.For("main")

	cfg, err := config.FromEnv(*overlayPath)
	if err != nil {
		logger.Errorw("configuration error", "error", err)
		return exitConfigError
	}

	ownAddress, err := ilppacket.ParseAddress(cfg.Address)
	if err != nil {
		logger.Errorw("ILP_ADDRESS is not a valid address", "error", err)
		return exitConfigError
	}

	accounts, balances, routes, err := buildStores(cfg, logger)
	if err != nil {
		logger.Errorw("failed to connect to account store", "error", err)
		return exitStoreError
	}

	packetLimiter, amountLimiter, err := buildRateLimiters(cfg, logger)
	if err != nil {
		logger.Errorw("failed to connect to rate limit store", "error", err)
		return exitStoreError
	}

	rates := exchangerate.NewStore()
	poller := buildExchangeRatePoller(cfg, rates, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go poller.Run(ctx)

	connections := stream.NewConnectionGenerator(ownAddress, cfg.SecretSeed)
	receiver := stream.NewReceiver(connections, 1)

	btpTransport := btp.NewTransport(100*time.Millisecond, cfg.BTP.BackoffCeiling)
	httpOutgoing := &egress.HTTPOutgoing{}
	dispatcher := egress.New(btpTransport, httpOutgoing)

	settlements := settlement.NewQueue(&loggingSettler{logger: logger}, 100, func(job settlement.Job, err error) {
		if err != nil {
			logger.Errorw("settlement failed", "account", job.Account, "amount", job.Amount, "error", err)
		}
	})
	defer settlements.Close()

	outgoing := buildOutgoingPipeline(dispatcher, rates, balances, settlements)
	incoming := buildIncomingPipeline(routes, accounts, outgoing, receiver, ownAddress, packetLimiter, amountLimiter)

	btpServer := btp.NewServer(accounts, incoming, btpTransport)
	httpServer := httptransport.NewServer(accounts, incoming)

	spspResolver := spsp.NewResolver(accounts, connections)
	spspPayer := spsp.NewPayer(&spsp.Client{}, func(ctx context.Context, prepare ilppacket.Prepare) (ilpservice.Result, error) {
		return incoming.HandleRequest(ctx, ilpservice.IncomingRequest{Prepare: prepare})
	})
	adminServer := admin.NewServer(accounts, balances, routes, rates, spspPayer, spspResolver, cfg.AdminAuthToken)
	spspServer := spsp.NewServer(spspResolver)

	mux := http.NewServeMux()
	mux.Handle("/ilp", httpServer)
	mux.Handle("/accounts", adminServer)
	mux.Handle("/accounts/", adminServer)
	mux.Handle("/rates", adminServer)
	mux.Handle("/routes", adminServer)
	mux.Handle("/pay", adminServer)
	mux.Handle("/spsp/", adminServer)
	mux.Handle("/.well-known/pay", spspServer)
	mux.Handle("/", spspServer)

	httpListener, err := net.Listen("tcp", cfg.HTTPBindAddress)
	if err != nil {
		logger.Errorw("http bind address already in use", "address", cfg.HTTPBindAddress, "error", err)
		return exitPortInUse
	}
	btpListener, err := net.Listen("tcp", cfg.BTPBindAddress)
	if err != nil {
		logger.Errorw("btp bind address already in use", "address", cfg.BTPBindAddress, "error", err)
		return exitPortInUse
	}

	srv := &http.Server{Handler: mux}
	btpSrv := &http.Server{Handler: btpServer}

	var servers errgroup.Group
	servers.Go(func() error {
		if err := srv.Serve(httpListener); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})
	servers.Go(func() error {
		if err := btpSrv.Serve(btpListener); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})

	logger.Infow("connector started", "address", cfg.Address, "http", cfg.HTTPBindAddress, "btp", cfg.BTPBindAddress)

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	logger.Infow("shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	srv.Shutdown(shutdownCtx)
	btpSrv.Shutdown(shutdownCtx)
	if err := servers.Wait(); err != nil {
		logger.Errorw("server exited with error", "error", err)
	}
	return exitOK
}

func buildStores(cfg *config.Config, logger interface {
	Infow(msg string, keysAndValues ...interface{})
}) (store.AccountStore, *store.BalanceStore, *store.RouteTable, error) {
	balances := store.NewBalanceStore()
	routes := store.NewRouteTable()

	if cfg.DatabaseURL == "" {
		logger.Infow("using in-memory account store")
		return memory.New(), balances, routes, nil
	}

	opts, err := goredis.ParseURL(cfg.DatabaseURL)
	if err != nil {
		return nil, nil, nil, err
	}
	client := goredis.NewClient(opts)
	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, nil, nil, err
	}
	logger.Infow("using redis account store", "url", cfg.DatabaseURL)
	return redisstore.New(client, "ilp:"), balances, routes, nil
}

func buildRateLimiters(cfg *config.Config, logger interface {
	Infow(msg string, keysAndValues ...interface{})
}) (ratelimit.Limiter, ratelimit.Limiter, error) {
	if cfg.DatabaseURL == "" {
		return ratelimitmemory.New(cfg.RateLimit.Capacity, cfg.RateLimit.RefillRate),
			ratelimitmemory.New(cfg.RateLimit.Capacity, cfg.RateLimit.RefillRate), nil
	}

	opts, err := goredis.ParseURL(cfg.DatabaseURL)
	if err != nil {
		return nil, nil, err
	}
	client := goredis.NewClient(opts)
	packets := ratelimitredis.New(ratelimitredis.Config{Client: client, Capacity: cfg.RateLimit.Capacity, RefillRate: cfg.RateLimit.RefillRate, KeyPrefix: "ilprl:packets:"})
	amounts := ratelimitredis.New(ratelimitredis.Config{Client: client, Capacity: cfg.RateLimit.Capacity, RefillRate: cfg.RateLimit.RefillRate, KeyPrefix: "ilprl:amounts:"})
	logger.Infow("using redis rate limiter")
	return packets, amounts, nil
}

func buildExchangeRatePoller(cfg *config.Config, rates *exchangerate.Store, logger interface {
	Infow(msg string, keysAndValues ...interface{})
}) *exchangerate.Poller {
	var providers []exchangerate.Provider
	switch strings.ToLower(cfg.ExchangeRate.Provider) {
	case "cryptocompare":
		providers = append(providers, &exchangerate.CryptoCompareProvider{APIKey: os.Getenv("ILP_CRYPTOCOMPARE_API_KEY")})
	default:
		providers = append(providers, &exchangerate.CoinCapProvider{})
	}
	logger.Infow("polling exchange rates", "provider", cfg.ExchangeRate.Provider, "interval", cfg.ExchangeRate.PollInterval)
	return exchangerate.NewPoller(rates, providers, cfg.ExchangeRate.PollInterval)
}

// buildOutgoingPipeline composes the outgoing-side middleware in the
// order a Prepare flows through once it has a next hop: move the
// balance reservation first (so a liquidity reject never reaches the
// wire), apply the configured spread to convert between assets,
// shorten the expiry for the next hop's own timeout budget, then hand
// off to the validator, which bounds the round trip and checks the
// returned fulfillment.
func buildOutgoingPipeline(dispatcher ilpservice.OutgoingService, rates *exchangerate.Store, balances *store.BalanceStore, settlements *settlement.Queue) ilpservice.OutgoingService {
	const spread = 0.002
	var pipeline ilpservice.OutgoingService = validator.NewOutgoing(dispatcher)
	pipeline = middleware.NewExpiryShortener(pipeline)
	pipeline = middleware.NewExchangeRate(pipeline, rates, spread)
	pipeline = middleware.NewBalance(pipeline, balances, settlements)
	return pipeline
}

func buildIncomingPipeline(
	routes *store.RouteTable,
	accounts store.AccountStore,
	outgoing ilpservice.OutgoingService,
	receiver *stream.Receiver,
	ownAddress ilppacket.Address,
	packetLimiter, amountLimiter ratelimit.Limiter,
) ilpservice.IncomingService {
	local := btp.NewIldcpHandler(func(acc ilpservice.Account) (ilpservice.IldcpResponse, error) {
		childAddress, err := ilppacket.ParseAddress(string(ownAddress) + "." + acc.Username)
		if err != nil {
			return ilpservice.IldcpResponse{}, err
		}
		return ilpservice.IldcpResponse{ClientAddress: childAddress, AssetCode: acc.AssetCode, AssetScale: acc.AssetScale}, nil
	})

	r := router.New(routes, accounts, outgoing, local)

	ownPrefix := string(ownAddress) + "."
	dispatch := ilpservice.IncomingServiceFunc(func(ctx context.Context, req ilpservice.IncomingRequest) (ilpservice.Result, error) {
		if strings.HasPrefix(string(req.Prepare.Destination), ownPrefix) {
			return receiver.HandleRequest(ctx, req)
		}
		return r.HandleRequest(ctx, req)
	})

	var pipeline ilpservice.IncomingService = dispatch
	pipeline = middleware.NewMaxPacketAmount(pipeline)
	pipeline = middleware.NewRateLimiter(pipeline, packetLimiter, amountLimiter)
	pipeline = validator.NewIncoming(pipeline)
	return pipeline
}

// loggingSettler stands in for a real settlement engine integration
// (explicitly out of scope): it only logs what would have been settled,
// so the balance middleware's settlement-threshold logic still has a
// collaborator to enqueue jobs against.
type loggingSettler struct {
	logger interface {
		Infow(msg string, keysAndValues ...interface{})
	}
}

func (s *loggingSettler) Settle(ctx context.Context, job settlement.Job) error {
	s.logger.Infow("settlement engine not configured, skipping settlement", "account", job.Account, "amount", job.Amount)
	return nil
}

// Command walletsim runs a development wallet that answers the ERC-7715 and
// EIP-5792 wallet methods over HTTP JSON-RPC.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/0xPexy/sentra-wallet/internal/auth"
	cfgpkg "github.com/0xPexy/sentra-wallet/internal/config"
	"github.com/0xPexy/sentra-wallet/internal/logger"
	"github.com/0xPexy/sentra-wallet/internal/metrics"
	"github.com/0xPexy/sentra-wallet/internal/server"
	"github.com/0xPexy/sentra-wallet/internal/simulator"
	"github.com/0xPexy/sentra-wallet/internal/store"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

func main() {
	cfg := cfgpkg.Load()
	log, err := logger.New(logger.Config{Level: cfg.Log.Level, Env: cfg.Log.Env, Service: "walletsim"})
	if err != nil {
		panic(err)
	}
	defer func() { _ = log.Sync() }()

	if err := run(cfg, log); err != nil {
		log.Error("walletsim stopped", zap.Error(err))
		os.Exit(1)
	}
}

func run(cfg cfgpkg.Config, log *zap.Logger) error {
	sim := cfg.Simulator
	db, err := store.Open(sim.DBDriver, sim.DBDSN)
	if err != nil {
		return err
	}
	defer db.Close()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	hub := server.NewEventHub(log)
	wallet := simulator.NewWallet(
		simulator.Config{ChainID: sim.ChainID, PermissionTTL: sim.PermissionTTL},
		store.NewRepository(db),
		simulator.WithPublisher(hub),
		simulator.WithMetrics(m),
		simulator.WithLogger(log.Named("wallet")),
	)
	handler := simulator.NewHandler(wallet)
	if proxy := server.NewUpstreamProxy(sim.UpstreamURL, log.Named("upstream")); proxy != nil {
		handler = handler.WithUpstream(proxy)
	}

	r := server.NewRouter(server.RouterDeps{
		Wallet:   handler,
		Hub:      hub,
		Auth:     auth.NewVerifier(sim.AuthToken, sim.JWTSecret),
		Metrics:  m,
		Gatherer: reg,
	})
	srv := server.NewHTTP(sim.HTTPAddr, r)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Info("walletsim listening",
		zap.String("addr", sim.HTTPAddr),
		zap.Uint64("chainId", sim.ChainID),
		zap.String("db", sim.DBDriver),
		zap.Bool("upstream", sim.UpstreamURL != ""))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		hub.Run(gctx)
		return nil
	})
	g.Go(func() error {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Stop(shutdown)
	})
	return g.Wait()
}

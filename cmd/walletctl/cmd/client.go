package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/0xPexy/sentra-wallet/internal/account"
	"github.com/0xPexy/sentra-wallet/internal/chain"
	cfgpkg "github.com/0xPexy/sentra-wallet/internal/config"
	"github.com/0xPexy/sentra-wallet/internal/logger"
	"github.com/0xPexy/sentra-wallet/internal/rpc"
	"github.com/0xPexy/sentra-wallet/internal/walletclient"
	"github.com/ethereum/go-ethereum/ethclient"
	gethrpc "github.com/ethereum/go-ethereum/rpc"
	"go.uber.org/zap"
)

// session is a connected wallet client plus the local signer, if a private
// key is configured.
type session struct {
	client    walletclient.Client
	signer    account.Signer
	log       *zap.Logger
	transport *rpc.Client
}

func (s *session) Close() {
	s.transport.Close()
	_ = s.log.Sync()
}

func openSession(ctx context.Context, cfg cfgpkg.Config) (*session, error) {
	if err := cfg.RPC.Validate(); err != nil {
		return nil, err
	}
	log, err := logger.New(logger.Config{Level: cfg.Log.Level, Env: cfg.Log.Env, Service: "walletctl"})
	if err != nil {
		return nil, err
	}

	opts := []rpc.Option{
		rpc.WithRetryConfig(rpc.RetryConfig{
			MaxRetries:      cfg.RPC.RetryCount,
			InitialInterval: cfg.RPC.RetryDelay,
			MaxInterval:     5 * time.Second,
			Multiplier:      2,
		}),
		rpc.WithHTTPTimeout(cfg.RPC.Timeout),
		rpc.WithLogger(log.Named("rpc")),
	}
	if cfg.RPC.RateLimit > 0 {
		opts = append(opts, rpc.WithRateLimit(cfg.RPC.RateLimit, cfg.RPC.RateBurst))
	}
	if cfg.RPC.AuthToken != "" {
		opts = append(opts, rpc.WithBearerToken(cfg.RPC.AuthToken))
	}
	transport, err := rpc.Dial(ctx, cfg.RPC.URL, opts...)
	if err != nil {
		return nil, err
	}

	s := &session{log: log, transport: transport}
	clientOpts := []walletclient.Option{walletclient.WithLogger(log)}

	switch {
	case cfg.Account.PrivateKey != "":
		signer, err := account.NewLocalAccount(cfg.Account.PrivateKey)
		if err != nil {
			transport.Close()
			return nil, err
		}
		s.signer = signer
		clientOpts = append(clientOpts, walletclient.WithAccount(signer))
	case cfg.Account.Address != "":
		acc, err := account.Parse(cfg.Account.Address)
		if err != nil {
			transport.Close()
			return nil, err
		}
		clientOpts = append(clientOpts, walletclient.WithAccount(acc))
	}

	ch, err := resolveChain(ctx, cfg)
	if err != nil {
		transport.Close()
		return nil, err
	}
	clientOpts = append(clientOpts, walletclient.WithChain(ch))
	log.Debug("wallet session ready", zap.String("url", cfg.RPC.URL), zap.Stringer("chain", ch))

	s.client = walletclient.New(transport, clientOpts...)
	return s, nil
}

// resolveChain uses the configured id or asks CHAIN_RPC_URL (falling back to
// the wallet endpoint) for eth_chainId.
func resolveChain(ctx context.Context, cfg cfgpkg.Config) (*chain.Chain, error) {
	if cfg.Chain.ID != 0 {
		return chain.New(cfg.Chain.ID, cfg.Chain.Name), nil
	}
	url := cfg.Chain.RPCURL
	if url == "" {
		url = cfg.RPC.URL
	}
	var dialOpts []gethrpc.ClientOption
	if url == cfg.RPC.URL && cfg.RPC.AuthToken != "" {
		dialOpts = append(dialOpts, gethrpc.WithHeader("Authorization", "Bearer "+cfg.RPC.AuthToken))
	}
	rc, err := gethrpc.DialOptions(ctx, url, dialOpts...)
	if err != nil {
		return nil, fmt.Errorf("dial chain rpc: %w", err)
	}
	ec := ethclient.NewClient(rc)
	defer ec.Close()
	return chain.FromRPC(ctx, ec, cfg.Chain.Name)
}

func (s *session) requireSigner() (account.Signer, error) {
	if s.signer == nil {
		return nil, fmt.Errorf("signing requires WALLET_PRIVATE_KEY")
	}
	return s.signer, nil
}

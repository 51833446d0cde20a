package config

import (
	"errors"
	"time"
)

type RPCConfig struct {
	URL        string
	Timeout    time.Duration
	RetryCount int
	RetryDelay time.Duration
	// RateLimit is requests per second; zero disables limiting.
	RateLimit float64
	RateBurst int
	AuthToken string
}

func loadRPC() RPCConfig {
	return RPCConfig{
		URL:        getenv("WALLET_RPC_URL", "http://127.0.0.1:8545/rpc"),
		Timeout:    durationEnvSeconds("RPC_TIMEOUT", 10*time.Second),
		RetryCount: nonNegIntEnv("RPC_RETRY_COUNT", 3),
		RetryDelay: durationEnvSeconds("RPC_RETRY_DELAY", 150*time.Millisecond),
		RateLimit:  floatEnv("RPC_RATE_LIMIT", 0),
		RateBurst:  intEnv("RPC_RATE_BURST", 1),
		AuthToken:  getenv("RPC_AUTH_TOKEN", ""),
	}
}

func (c RPCConfig) Validate() error {
	if c.URL == "" {
		return errors.New("WALLET_RPC_URL is required")
	}
	if c.RateLimit < 0 {
		return errors.New("RPC_RATE_LIMIT must not be negative")
	}
	return nil
}

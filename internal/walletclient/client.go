// Package walletclient bundles a transport with the ambient account and chain
// that wallet actions fall back to when a call does not name its own.
package walletclient

import (
	"github.com/0xPexy/sentra-wallet/internal/account"
	"github.com/0xPexy/sentra-wallet/internal/chain"
	"github.com/0xPexy/sentra-wallet/internal/rpc"
	"go.uber.org/zap"
)

// Client is passed by value into every action. It carries no mutable state.
type Client struct {
	Transport rpc.Transport
	Account   account.Account
	Chain     *chain.Chain
	Logger    *zap.Logger
}

func New(t rpc.Transport, opts ...Option) Client {
	c := Client{Transport: t}
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

type Option func(*Client)

func WithAccount(a account.Account) Option {
	return func(c *Client) { c.Account = a }
}

func WithChain(ch *chain.Chain) Option {
	return func(c *Client) { c.Chain = ch }
}

func WithLogger(l *zap.Logger) Option {
	return func(c *Client) { c.Logger = l }
}

// Log never returns nil.
func (c Client) Log() *zap.Logger {
	if c.Logger == nil {
		return zap.NewNop()
	}
	return c.Logger
}

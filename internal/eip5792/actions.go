// Package eip5792 implements wallet_prepareCalls and wallet_sendPreparedCalls.
package eip5792

import (
	"context"
	"errors"
	"fmt"

	"github.com/0xPexy/sentra-wallet/internal/account"
	"github.com/0xPexy/sentra-wallet/internal/chain"
	"github.com/0xPexy/sentra-wallet/internal/quantity"
	"github.com/0xPexy/sentra-wallet/internal/rpc"
	"github.com/0xPexy/sentra-wallet/internal/walletclient"
	"github.com/0xPexy/sentra-wallet/internal/walleterr"
	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"
)

const (
	MethodPrepareCalls      = "wallet_prepareCalls"
	MethodSendPreparedCalls = "wallet_sendPreparedCalls"

	DefaultVersion = "1.0"
)

var ErrNoCalls = errors.New("at least one call is required")

type PrepareCallsParameters struct {
	Account      account.Account
	Chain        *chain.Chain
	Calls        []Call
	Capabilities Capabilities
	// Version defaults to DefaultVersion.
	Version string
}

// PrepareCallsRequest is the single positional param of wallet_prepareCalls.
type PrepareCallsRequest struct {
	From         common.Address `json:"from"`
	Calls        []WireCall     `json:"calls"`
	ChainID      string         `json:"chainId"`
	Capabilities map[string]any `json:"capabilities,omitempty"`
	Version      string         `json:"version"`
}

type WireCall map[string]any

// FormatPrepareCalls builds the wire request for an already resolved account
// and chain.
func FormatPrepareCalls(from common.Address, ch *chain.Chain, p PrepareCallsParameters) (PrepareCallsRequest, error) {
	if len(p.Calls) == 0 {
		return PrepareCallsRequest{}, ErrNoCalls
	}
	calls := make([]WireCall, 0, len(p.Calls))
	for i, c := range p.Calls {
		w, err := FormatCall(c)
		if err != nil {
			return PrepareCallsRequest{}, fmt.Errorf("calls[%d]: %w", i, err)
		}
		calls = append(calls, w)
	}
	return PrepareCallsRequest{
		From:         from,
		Calls:        calls,
		ChainID:      quantity.EncodeUint64(ch.ID),
		Capabilities: p.Capabilities.wire(),
		Version:      versionOrDefault(p.Version),
	}, nil
}

func FormatCall(c Call) (WireCall, error) {
	w := make(WireCall, len(c.Extra)+4)
	for k, v := range c.Extra {
		w[k] = v
	}
	// value is always owned by the formatter; an Extra "value" is dropped.
	delete(w, "value")
	if c.To != nil {
		w["to"] = *c.To
	}
	if c.Data != nil {
		w["data"] = c.Data
	}
	if c.Value != nil && c.Value.Sign() != 0 {
		v, err := quantity.Encode(c.Value)
		if err != nil {
			return nil, err
		}
		w["value"] = v
	}
	if c.ChainID != nil {
		w["chainId"] = quantity.EncodeUint64(*c.ChainID)
	}
	return w, nil
}

// PrepareCalls asks the wallet to assemble the calls into a bundle awaiting
// a signature.
func PrepareCalls(ctx context.Context, c walletclient.Client, p PrepareCallsParameters) ([]PreparedBundle, error) {
	acc, err := account.Resolve(p.Account, c.Account)
	if err != nil {
		return nil, err
	}
	ch, err := chain.Resolve(p.Chain, c.Chain)
	if err != nil {
		return nil, err
	}
	req, err := FormatPrepareCalls(acc.Address(), ch, p)
	if err != nil {
		return nil, err
	}

	var out []PreparedBundle
	if err := c.Transport.Request(ctx, &out, MethodPrepareCalls, []any{req}); err != nil {
		c.Log().Warn("prepare calls failed",
			zap.String("from", acc.Address().Hex()), zap.Uint64("chainId", ch.ID), zap.Error(err))
		return nil, walleterr.New(err, walleterr.Context{
			Method:  MethodPrepareCalls,
			Account: acc,
			Chain:   ch,
			Params:  p,
		})
	}
	return out, nil
}

type SendPreparedCallsParameters struct {
	Account       account.Account
	Chain         *chain.Chain
	PreparedCalls PreparedCalls
	SignatureData SignatureData
	Version       string
}

type SendPreparedCallsRequest struct {
	SignatureData SignatureData  `json:"signatureData"`
	PreparedCalls PreparedCalls  `json:"preparedCalls"`
	From          common.Address `json:"from"`
	Version       string         `json:"version"`
}

// SendPreparedCalls submits a signed bundle and returns the wallet's bundle
// identifier. The request is sent once, never retried.
func SendPreparedCalls(ctx context.Context, c walletclient.Client, p SendPreparedCallsParameters) (string, error) {
	acc, err := account.Resolve(p.Account, c.Account)
	if err != nil {
		return "", err
	}
	// The chain is not part of the request but the action still requires one.
	ch, err := chain.Resolve(p.Chain, c.Chain)
	if err != nil {
		return "", err
	}
	req := SendPreparedCallsRequest{
		SignatureData: p.SignatureData,
		PreparedCalls: p.PreparedCalls,
		From:          acc.Address(),
		Version:       versionOrDefault(p.Version),
	}

	var id string
	if err := c.Transport.Request(ctx, &id, MethodSendPreparedCalls, []any{req}, rpc.WithRetryCount(0)); err != nil {
		c.Log().Warn("send prepared calls failed",
			zap.String("from", acc.Address().Hex()), zap.Error(err))
		return "", walleterr.New(err, walleterr.Context{
			Method:  MethodSendPreparedCalls,
			Account: acc,
			Chain:   ch,
			Params:  p,
		})
	}
	c.Log().Debug("prepared calls sent", zap.String("id", id))
	return id, nil
}

// SignBundle signs the bundle's signature request hash with a local key and
// returns the parameters for SendPreparedCalls.
func SignBundle(s account.Signer, b PreparedBundle, permissionsContext string) (SendPreparedCallsParameters, error) {
	sig, err := s.SignHash(b.SignatureRequest.Hash)
	if err != nil {
		return SendPreparedCallsParameters{}, fmt.Errorf("sign prepared calls: %w", err)
	}
	return SendPreparedCallsParameters{
		Account:       s,
		PreparedCalls: b.PreparedCalls,
		SignatureData: PermissionsSignature(sig, permissionsContext),
	}, nil
}

func versionOrDefault(v string) string {
	if v == "" {
		return DefaultVersion
	}
	return v
}

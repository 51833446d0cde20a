// Package erc7715 implements the ERC-7715 permission actions:
// wallet_getActivePermissions and wallet_grantPermissions.
package erc7715

import (
	"bytes"
	"context"
	"encoding/json"

	"github.com/0xPexy/sentra-wallet/internal/account"
	"github.com/0xPexy/sentra-wallet/internal/chain"
	"github.com/0xPexy/sentra-wallet/internal/rpc"
	"github.com/0xPexy/sentra-wallet/internal/walletclient"
	"github.com/0xPexy/sentra-wallet/internal/walleterr"
	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"
)

const (
	MethodGetActivePermissions = "wallet_getActivePermissions"
	MethodGrantPermissions     = "wallet_grantPermissions"
)

type GetActivePermissionsParameters struct {
	// Account overrides the client's account.
	Account account.Account
}

type GetActivePermissionsResult struct {
	Permissions []Permission `json:"permissions"`
	Context     string       `json:"context,omitempty"`
}

// UnmarshalJSON accepts both a bare permission array and a
// {"permissions": [...], "context": ...} object.
func (r *GetActivePermissionsResult) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '[' {
		var perms []Permission
		if err := json.Unmarshal(b, &perms); err != nil {
			return err
		}
		*r = GetActivePermissionsResult{Permissions: perms}
		return nil
	}
	type plain GetActivePermissionsResult
	var p plain
	if err := json.Unmarshal(b, &p); err != nil {
		return err
	}
	*r = GetActivePermissionsResult(p)
	return nil
}

// GetActivePermissions lists the permissions the wallet has granted to the
// resolved account.
func GetActivePermissions(ctx context.Context, c walletclient.Client, p GetActivePermissionsParameters) (*GetActivePermissionsResult, error) {
	acc, err := account.Resolve(p.Account, c.Account)
	if err != nil {
		return nil, err
	}
	params := []any{acc.Address()}

	var out GetActivePermissionsResult
	if err := c.Transport.Request(ctx, &out, MethodGetActivePermissions, params); err != nil {
		c.Log().Warn("get active permissions failed",
			zap.String("account", acc.Address().Hex()), zap.Error(err))
		return nil, walleterr.New(err, walleterr.Context{
			Method:  MethodGetActivePermissions,
			Account: acc,
			Chain:   c.Chain,
			Params:  p,
		})
	}
	return &out, nil
}

type GrantPermissionsParameters struct {
	Permissions []Permission
	// Account and Chain fill in permissions that leave Account or ChainID
	// zero. They override the client's defaults.
	Account account.Account
	Chain   *chain.Chain
}

type GrantPermissionsResult struct {
	// Context is opaque and must be passed back unmodified, e.g. as the
	// permissions capability of wallet_prepareCalls.
	Context     string       `json:"context"`
	Permissions []Permission `json:"permissions"`
}

// GrantPermissions asks the wallet to grant the permissions. The request is
// sent once, never retried.
func GrantPermissions(ctx context.Context, c walletclient.Client, p GrantPermissionsParameters) (*GrantPermissionsResult, error) {
	perms, acc, ch, err := applyDefaults(c, p)
	if err != nil {
		return nil, err
	}
	req, err := FormatGrantPermissions(perms)
	if err != nil {
		return nil, err
	}

	var out GrantPermissionsResult
	if err := c.Transport.Request(ctx, &out, MethodGrantPermissions, req, rpc.WithRetryCount(0)); err != nil {
		c.Log().Warn("grant permissions failed",
			zap.Int("permissions", len(perms)), zap.Error(err))
		return nil, walleterr.New(err, walleterr.Context{
			Method:  MethodGrantPermissions,
			Account: acc,
			Chain:   ch,
			Params:  p,
		})
	}
	c.Log().Debug("permissions granted",
		zap.Int("requested", len(perms)), zap.Int("granted", len(out.Permissions)))
	return &out, nil
}

// applyDefaults copies the permissions, filling a zero account or chain id
// from the resolved defaults. Resolution errors only surface when a
// permission actually needs the default.
func applyDefaults(c walletclient.Client, p GrantPermissionsParameters) ([]Permission, account.Account, *chain.Chain, error) {
	acc, accErr := account.Resolve(p.Account, c.Account)
	ch, chErr := chain.Resolve(p.Chain, c.Chain)

	out := make([]Permission, len(p.Permissions))
	for i, perm := range p.Permissions {
		if perm.Account == (common.Address{}) {
			if accErr != nil {
				return nil, nil, nil, accErr
			}
			perm.Account = acc.Address()
		}
		if perm.ChainID == 0 {
			if chErr != nil {
				return nil, nil, nil, chErr
			}
			perm.ChainID = ch.ID
		}
		out[i] = perm
	}
	if accErr != nil {
		acc = nil
	}
	if chErr != nil {
		ch = nil
	}
	return out, acc, ch, nil
}

package simulator

import (
	"context"
	"encoding/json"
	"time"

	"github.com/0xPexy/sentra-wallet/internal/erc7715"
	"github.com/0xPexy/sentra-wallet/internal/store"
	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

type activePermissionsResult struct {
	Permissions []json.RawMessage `json:"permissions"`
}

type grantPermissionsResult struct {
	Context     string               `json:"context"`
	Permissions []erc7715.Permission `json:"permissions"`
}

func (w *Wallet) activePermissions(ctx context.Context, account common.Address) (activePermissionsResult, error) {
	grants, err := w.repo.ActiveGrants(ctx, account.Hex(), w.now())
	if err != nil {
		return activePermissionsResult{}, errors.Wrap(err, "load grants")
	}
	out := activePermissionsResult{Permissions: make([]json.RawMessage, 0, len(grants))}
	for _, g := range grants {
		var perm map[string]any
		if err := json.Unmarshal([]byte(g.Payload), &perm); err != nil {
			return activePermissionsResult{}, errors.Wrapf(err, "grant %d payload", g.ID)
		}
		perm["context"] = g.Context
		raw, err := json.Marshal(perm)
		if err != nil {
			return activePermissionsResult{}, err
		}
		out.Permissions = append(out.Permissions, raw)
	}
	return out, nil
}

// grantPermissions grants every requested permission under one new context.
// Missing expiries get the configured TTL.
func (w *Wallet) grantPermissions(ctx context.Context, perms []erc7715.Permission) (grantPermissionsResult, error) {
	if len(perms) == 0 {
		return grantPermissionsResult{}, invalidParams("no permissions requested")
	}
	now := w.now()
	grantCtx := newOpaqueID()
	account := perms[0].Account

	granted := make([]erc7715.Permission, 0, len(perms))
	rows := make([]store.PermissionGrant, 0, len(perms))
	for i, p := range perms {
		if p.Data == nil {
			return grantPermissionsResult{}, invalidParams("permissions[%d]: type is required", i)
		}
		if p.Account == (common.Address{}) {
			return grantPermissionsResult{}, invalidParams("permissions[%d]: account is required", i)
		}
		if p.Account != account {
			return grantPermissionsResult{}, invalidParams("permissions[%d]: all permissions must target one account", i)
		}
		if p.ChainID != w.cfg.ChainID {
			return grantPermissionsResult{}, invalidParams("permissions[%d]: unsupported chain %d", i, p.ChainID)
		}
		if p.Expiry == 0 {
			p.Expiry = now.Add(w.cfg.PermissionTTL).Unix()
		}
		if p.Expiry <= now.Unix() {
			return grantPermissionsResult{}, invalidParams("permissions[%d]: expiry is in the past", i)
		}
		payload, err := json.Marshal(p)
		if err != nil {
			return grantPermissionsResult{}, invalidParams("permissions[%d]: %v", i, err)
		}
		expires := time.Unix(p.Expiry, 0)
		rows = append(rows, store.PermissionGrant{
			Context:   grantCtx,
			Account:   p.Account.Hex(),
			ChainID:   p.ChainID,
			Type:      p.Data.PermissionType().String(),
			Payload:   string(payload),
			ExpiresAt: &expires,
		})
		granted = append(granted, p)
	}

	if err := w.repo.SaveGrants(ctx, rows); err != nil {
		return grantPermissionsResult{}, errors.Wrap(err, "save grants")
	}
	if w.metrics != nil {
		w.metrics.PermissionsGranted.Add(float64(len(granted)))
	}
	w.logger.Info("permissions granted",
		zap.String("account", account.Hex()),
		zap.String("context", grantCtx),
		zap.Int("count", len(granted)))
	w.publish(Event{
		Type:    EventPermissionsGranted,
		Account: account.Hex(),
		ChainID: w.cfg.ChainID,
		Context: grantCtx,
		Count:   len(granted),
	})
	return grantPermissionsResult{Context: grantCtx, Permissions: granted}, nil
}

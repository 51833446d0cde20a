package erc7715

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/0xPexy/sentra-wallet/internal/quantity"
)

var (
	// ErrNegativeAmount is returned when an allowance or limit is below zero.
	ErrNegativeAmount = errors.New("amount must not be negative")
	// ErrUnknownVariant is returned for permission, policy or signer values
	// that are not one of this package's variant types.
	ErrUnknownVariant = errors.New("unknown variant")
)

// GrantPermissionsRequest is the single positional param of
// wallet_grantPermissions.
type GrantPermissionsRequest struct {
	Permissions []WirePermission `json:"permissions"`
}

// WirePermission is a permission in wire form. Extra fields supplied by the
// caller sit next to the known keys.
type WirePermission map[string]any

type WirePolicy struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

type WireSigner struct {
	Type string `json:"type"`
	Data any    `json:"data,omitempty"`
}

// FormatGrantPermissions converts permissions to wire form. Order is
// preserved; the input is not modified.
func FormatGrantPermissions(perms []Permission) (GrantPermissionsRequest, error) {
	out := GrantPermissionsRequest{Permissions: make([]WirePermission, 0, len(perms))}
	for i, p := range perms {
		w, err := FormatPermission(p)
		if err != nil {
			return GrantPermissionsRequest{}, fmt.Errorf("permissions[%d]: %w", i, err)
		}
		out.Permissions = append(out.Permissions, w)
	}
	return out, nil
}

func FormatPermission(p Permission) (WirePermission, error) {
	if p.Data == nil {
		return nil, errors.New("permission data is required")
	}
	data, err := formatPermissionData(p.Data)
	if err != nil {
		return nil, err
	}
	policies := make([]WirePolicy, 0, len(p.Policies))
	for i, pol := range p.Policies {
		wp, err := FormatPolicy(pol)
		if err != nil {
			return nil, fmt.Errorf("policies[%d]: %w", i, err)
		}
		policies = append(policies, wp)
	}

	w := make(WirePermission, len(p.Extra)+8)
	for k, v := range p.Extra {
		w[k] = v
	}
	w["type"] = p.Data.PermissionType().String()
	w["data"] = data
	w["policies"] = policies
	if p.Required != nil {
		w["required"] = *p.Required
	}
	w["account"] = p.Account
	w["chainId"] = quantity.EncodeUint64(p.ChainID)
	w["expiry"] = p.Expiry
	if p.Signer != nil {
		s, err := FormatSigner(p.Signer)
		if err != nil {
			return nil, err
		}
		w["signer"] = s
	}
	return w, nil
}

func FormatPolicy(p Policy) (WirePolicy, error) {
	if p == nil {
		return WirePolicy{}, fmt.Errorf("%w: nil policy", ErrUnknownVariant)
	}
	var data any
	switch v := p.(type) {
	case TokenAllowance:
		a, err := hexAmount("allowance", v.Allowance)
		if err != nil {
			return WirePolicy{}, err
		}
		data = map[string]any{"allowance": a}
	case GasLimit:
		l, err := hexAmount("limit", v.Limit)
		if err != nil {
			return WirePolicy{}, err
		}
		data = map[string]any{"limit": l}
	case RateLimit:
		data = map[string]any{"count": v.Count, "interval": v.Interval}
	case NativeTokenSpendLimit:
		a, err := hexAmount("allowance", v.Allowance)
		if err != nil {
			return WirePolicy{}, err
		}
		data = map[string]any{"allowance": a}
	case CustomPolicy:
		if v.Type == "" {
			return WirePolicy{}, errors.New("custom policy type is empty")
		}
		data = v.Data
	default:
		return WirePolicy{}, fmt.Errorf("%w: policy %T", ErrUnknownVariant, p)
	}
	return WirePolicy{Type: p.PolicyType().String(), Data: data}, nil
}

func formatPermissionData(d PermissionData) (any, error) {
	switch v := d.(type) {
	case NativeTokenTransfer:
		return map[string]any{"ticker": v.Ticker}, nil
	case ERC20TokenTransfer:
		return map[string]any{"address": v.Address, "ticker": v.Ticker}, nil
	case ContractCall:
		calls := v.Calls
		if calls == nil {
			calls = []string{}
		}
		return map[string]any{"address": v.Address, "calls": calls}, nil
	case CallWithPermission:
		return map[string]any{
			"allowedContract": v.AllowedContract,
			"permissionArgs":  v.PermissionArgs,
		}, nil
	case RecurringAllowance:
		a, err := hexAmount("allowance", v.Allowance)
		if err != nil {
			return nil, err
		}
		m := map[string]any{"allowance": a, "start": v.Start, "period": v.Period}
		if v.Token != nil {
			m["token"] = *v.Token
		}
		return m, nil
	case AllowedContract:
		return map[string]any{"address": v.Address}, nil
	case AllowedSelector:
		return map[string]any{"selector": v.Selector}, nil
	case AllowedContractSelector:
		return map[string]any{"address": v.Address, "selector": v.Selector}, nil
	case CustomPermission:
		if v.Type == "" {
			return nil, errors.New("custom permission type is empty")
		}
		return v.Data, nil
	default:
		return nil, fmt.Errorf("%w: permission %T", ErrUnknownVariant, d)
	}
}

func FormatSigner(s Signer) (WireSigner, error) {
	switch v := s.(type) {
	case AccountSigner:
		return WireSigner{Type: SignerTypeAccount, Data: map[string]any{"id": v.ID}}, nil
	case KeySigner:
		return WireSigner{Type: SignerTypeKey, Data: map[string]any{
			"type":      v.KeyType,
			"publicKey": v.PublicKey,
		}}, nil
	case MultiKeySigner:
		ids := v.IDs
		if ids == nil {
			ids = []string{}
		}
		return WireSigner{Type: SignerTypeKeys, Data: map[string]any{"ids": ids}}, nil
	case WalletSigner:
		return WireSigner{Type: SignerTypeWallet}, nil
	case P256Signer:
		return WireSigner{Type: SignerTypeP256, Data: map[string]any{"publicKey": v.PublicKey}}, nil
	default:
		return WireSigner{}, fmt.Errorf("%w: signer %T", ErrUnknownVariant, s)
	}
}

func hexAmount(field string, v *big.Int) (string, error) {
	if v != nil && v.Sign() < 0 {
		return "", fmt.Errorf("%s %s: %w", field, v, ErrNegativeAmount)
	}
	return quantity.Encode(v)
}

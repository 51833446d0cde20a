package erc7715

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/0xPexy/sentra-wallet/internal/quantity"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// MarshalJSON emits the wire form produced by FormatPermission.
func (p Permission) MarshalJSON() ([]byte, error) {
	w, err := FormatPermission(p)
	if err != nil {
		return nil, err
	}
	return json.Marshal(w)
}

var permissionKeys = map[string]struct{}{
	"type": {}, "data": {}, "policies": {}, "required": {},
	"account": {}, "chainId": {}, "expiry": {}, "signer": {},
}

// UnmarshalJSON reads a wallet-reported permission. Quantities may be hex
// strings, decimal strings or numbers. Unrecognized type tags decode to
// CustomPermission / CustomPolicy; unrecognized keys land in Extra.
func (p *Permission) UnmarshalJSON(b []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(b, &fields); err != nil {
		return err
	}
	var out Permission

	var tag TypeTag
	if raw, ok := fields["type"]; ok {
		if err := json.Unmarshal(raw, &tag); err != nil {
			return err
		}
	}
	data, err := DecodePermissionData(tag, fields["data"])
	if err != nil {
		return fmt.Errorf("permission %q: %w", tag.Name, err)
	}
	out.Data = data

	if raw, ok := fields["policies"]; ok && !isNull(raw) {
		var items []json.RawMessage
		if err := json.Unmarshal(raw, &items); err != nil {
			return fmt.Errorf("policies: %w", err)
		}
		out.Policies = make([]Policy, 0, len(items))
		for i, item := range items {
			pol, err := DecodePolicy(item)
			if err != nil {
				return fmt.Errorf("policies[%d]: %w", i, err)
			}
			out.Policies = append(out.Policies, pol)
		}
	}
	if raw, ok := fields["required"]; ok && !isNull(raw) {
		var req bool
		if err := json.Unmarshal(raw, &req); err != nil {
			return fmt.Errorf("required: %w", err)
		}
		out.Required = &req
	}
	if raw, ok := fields["account"]; ok && !isNull(raw) {
		if err := json.Unmarshal(raw, &out.Account); err != nil {
			return fmt.Errorf("account: %w", err)
		}
	}
	if out.ChainID, err = quantity.DecodeUint64(fields["chainId"]); err != nil {
		return fmt.Errorf("chainId: %w", err)
	}
	if out.Expiry, err = quantity.DecodeInt64(fields["expiry"]); err != nil {
		return fmt.Errorf("expiry: %w", err)
	}
	if raw, ok := fields["signer"]; ok && !isNull(raw) {
		if out.Signer, err = DecodeSigner(raw); err != nil {
			return fmt.Errorf("signer: %w", err)
		}
	}

	for k, raw := range fields {
		if _, known := permissionKeys[k]; known {
			continue
		}
		var v any
		if err := json.Unmarshal(raw, &v); err != nil {
			return fmt.Errorf("%s: %w", k, err)
		}
		if out.Extra == nil {
			out.Extra = make(map[string]any)
		}
		out.Extra[k] = v
	}
	*p = out
	return nil
}

// DecodePermissionData reads the data object of a permission with the given tag.
func DecodePermissionData(tag TypeTag, raw json.RawMessage) (PermissionData, error) {
	if tag.Name == "" {
		return nil, fmt.Errorf("missing permission type")
	}
	if tag.Custom {
		v, err := decodeAny(raw)
		return CustomPermission{Type: tag.Name, Data: v}, err
	}
	switch tag.Name {
	case TypeNativeTokenTransfer:
		var d struct {
			Ticker string `json:"ticker"`
		}
		err := unmarshalData(raw, &d)
		return NativeTokenTransfer{Ticker: d.Ticker}, err
	case TypeERC20TokenTransfer:
		var d struct {
			Address common.Address `json:"address"`
			Ticker  string         `json:"ticker"`
		}
		err := unmarshalData(raw, &d)
		return ERC20TokenTransfer{Address: d.Address, Ticker: d.Ticker}, err
	case TypeContractCall:
		var d struct {
			Address common.Address `json:"address"`
			Calls   []string       `json:"calls"`
		}
		err := unmarshalData(raw, &d)
		return ContractCall{Address: d.Address, Calls: d.Calls}, err
	case TypeCallWithPermission:
		var d struct {
			AllowedContract common.Address `json:"allowedContract"`
			PermissionArgs  hexutil.Bytes  `json:"permissionArgs"`
		}
		err := unmarshalData(raw, &d)
		return CallWithPermission{AllowedContract: d.AllowedContract, PermissionArgs: d.PermissionArgs}, err
	case TypeRecurringAllowance:
		var d struct {
			Token     *common.Address `json:"token"`
			Allowance json.RawMessage `json:"allowance"`
			Start     json.RawMessage `json:"start"`
			Period    json.RawMessage `json:"period"`
		}
		if err := unmarshalData(raw, &d); err != nil {
			return nil, err
		}
		out := RecurringAllowance{Token: d.Token}
		var err error
		if out.Allowance, err = quantity.Decode(d.Allowance); err != nil {
			return nil, fmt.Errorf("allowance: %w", err)
		}
		if out.Start, err = quantity.DecodeInt64(d.Start); err != nil {
			return nil, fmt.Errorf("start: %w", err)
		}
		if out.Period, err = quantity.DecodeInt64(d.Period); err != nil {
			return nil, fmt.Errorf("period: %w", err)
		}
		return out, nil
	case TypeAllowedContract:
		var d struct {
			Address common.Address `json:"address"`
		}
		err := unmarshalData(raw, &d)
		return AllowedContract{Address: d.Address}, err
	case TypeAllowedSelector:
		var d struct {
			Selector hexutil.Bytes `json:"selector"`
		}
		err := unmarshalData(raw, &d)
		return AllowedSelector{Selector: d.Selector}, err
	case TypeAllowedContractSelector:
		var d struct {
			Address  common.Address `json:"address"`
			Selector hexutil.Bytes  `json:"selector"`
		}
		err := unmarshalData(raw, &d)
		return AllowedContractSelector{Address: d.Address, Selector: d.Selector}, err
	default:
		v, err := decodeAny(raw)
		return CustomPermission{Type: tag.Name, Data: v}, err
	}
}

// DecodePolicy reads a {type, data} policy object.
func DecodePolicy(raw json.RawMessage) (Policy, error) {
	var env struct {
		Type TypeTag         `json:"type"`
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, err
	}
	if env.Type.Name == "" {
		return nil, fmt.Errorf("missing policy type")
	}
	if env.Type.Custom {
		v, err := decodeAny(env.Data)
		return CustomPolicy{Type: env.Type.Name, Data: v}, err
	}
	switch env.Type.Name {
	case TypeTokenAllowance, TypeNativeTokenSpendLimit:
		var d struct {
			Allowance json.RawMessage `json:"allowance"`
		}
		if err := unmarshalData(env.Data, &d); err != nil {
			return nil, err
		}
		a, err := quantity.Decode(d.Allowance)
		if err != nil {
			return nil, fmt.Errorf("allowance: %w", err)
		}
		if env.Type.Name == TypeTokenAllowance {
			return TokenAllowance{Allowance: a}, nil
		}
		return NativeTokenSpendLimit{Allowance: a}, nil
	case TypeGasLimit:
		var d struct {
			Limit json.RawMessage `json:"limit"`
		}
		if err := unmarshalData(env.Data, &d); err != nil {
			return nil, err
		}
		l, err := quantity.Decode(d.Limit)
		if err != nil {
			return nil, fmt.Errorf("limit: %w", err)
		}
		return GasLimit{Limit: l}, nil
	case TypeRateLimit:
		var d struct {
			Count    json.RawMessage `json:"count"`
			Interval json.RawMessage `json:"interval"`
		}
		if err := unmarshalData(env.Data, &d); err != nil {
			return nil, err
		}
		count, err := quantity.DecodeInt64(d.Count)
		if err != nil {
			return nil, fmt.Errorf("count: %w", err)
		}
		interval, err := quantity.DecodeInt64(d.Interval)
		if err != nil {
			return nil, fmt.Errorf("interval: %w", err)
		}
		return RateLimit{Count: count, Interval: interval}, nil
	default:
		v, err := decodeAny(env.Data)
		return CustomPolicy{Type: env.Type.Name, Data: v}, err
	}
}

func DecodeSigner(raw json.RawMessage) (Signer, error) {
	var env struct {
		Type string          `json:"type"`
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, err
	}
	switch env.Type {
	case SignerTypeAccount:
		var d struct {
			ID common.Address `json:"id"`
		}
		err := unmarshalData(env.Data, &d)
		return AccountSigner{ID: d.ID}, err
	case SignerTypeKey:
		var d struct {
			Type      string        `json:"type"`
			PublicKey hexutil.Bytes `json:"publicKey"`
		}
		err := unmarshalData(env.Data, &d)
		return KeySigner{KeyType: d.Type, PublicKey: d.PublicKey}, err
	case SignerTypeKeys:
		var d struct {
			IDs []string `json:"ids"`
		}
		err := unmarshalData(env.Data, &d)
		return MultiKeySigner{IDs: d.IDs}, err
	case SignerTypeWallet:
		return WalletSigner{}, nil
	case SignerTypeP256:
		var d struct {
			PublicKey hexutil.Bytes `json:"publicKey"`
		}
		err := unmarshalData(env.Data, &d)
		return P256Signer{PublicKey: d.PublicKey}, err
	default:
		return nil, fmt.Errorf("%w: signer type %q", ErrUnknownVariant, env.Type)
	}
}

func unmarshalData(raw json.RawMessage, v any) error {
	if isNull(raw) {
		return nil
	}
	return json.Unmarshal(raw, v)
}

func decodeAny(raw json.RawMessage) (any, error) {
	if isNull(raw) {
		return nil, nil
	}
	var v any
	err := json.Unmarshal(raw, &v)
	return v, err
}

func isNull(raw json.RawMessage) bool {
	raw = bytes.TrimSpace(raw)
	return len(raw) == 0 || bytes.Equal(raw, []byte("null"))
}

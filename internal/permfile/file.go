// Package permfile loads permission requests from YAML or JSON files.
//
//	account: 0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266
//	chainId: 8453
//	expiry: 24h
//	permissions:
//	  - type: native-token-transfer
//	    data: {ticker: ETH}
//	    policies:
//	      - type: token-allowance
//	        data: {allowance: 0.5 ether}
//
// Amounts accept ether/gwei/wei units or hex. Top-level account, chainId and
// expiry fill permissions that leave them out. Expiry is a unix timestamp or a
// duration from now. Quote hex byte strings such as selectors, otherwise YAML
// reads them as integers.
package permfile

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/0xPexy/sentra-wallet/internal/erc7715"
	"github.com/0xPexy/sentra-wallet/internal/quantity"
	"github.com/ethereum/go-ethereum/common"
	"gopkg.in/yaml.v3"
)

type File struct {
	Account string           `yaml:"account"`
	ChainID uint64           `yaml:"chainId"`
	Expiry  string           `yaml:"expiry"`
	Entries []map[string]any `yaml:"permissions"`
}

func Load(path string) (*File, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read permission file: %w", err)
	}
	f, err := Parse(b)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return f, nil
}

// Parse accepts YAML; JSON documents parse as well.
func Parse(b []byte) (*File, error) {
	var f File
	if err := yaml.Unmarshal(b, &f); err != nil {
		return nil, fmt.Errorf("parse permission file: %w", err)
	}
	if len(f.Entries) == 0 {
		return nil, fmt.Errorf("permission file has no permissions")
	}
	if f.Account != "" && !common.IsHexAddress(f.Account) {
		return nil, fmt.Errorf("invalid account %q", f.Account)
	}
	return &f, nil
}

// amount fields by permission or policy type
var amountFields = map[string][]string{
	erc7715.TypeRecurringAllowance:    {"allowance"},
	erc7715.TypeTokenAllowance:        {"allowance"},
	erc7715.TypeNativeTokenSpendLimit: {"allowance"},
	erc7715.TypeGasLimit:              {"limit"},
}

// Permissions converts the file entries. now anchors relative expiries.
func (f *File) Permissions(now time.Time) ([]erc7715.Permission, error) {
	defaultExpiry, err := parseExpiry(f.Expiry, now)
	if err != nil {
		return nil, err
	}
	out := make([]erc7715.Permission, 0, len(f.Entries))
	for i, entry := range f.Entries {
		p, err := f.convert(entry, defaultExpiry, now)
		if err != nil {
			return nil, fmt.Errorf("permissions[%d]: %w", i, err)
		}
		out = append(out, p)
	}
	return out, nil
}

func (f *File) convert(entry map[string]any, defaultExpiry int64, now time.Time) (erc7715.Permission, error) {
	m := make(map[string]any, len(entry)+3)
	for k, v := range entry {
		m[k] = v
	}
	if err := normalizeAmounts(m); err != nil {
		return erc7715.Permission{}, err
	}
	if policies, ok := m["policies"].([]any); ok {
		for j, raw := range policies {
			pol, ok := raw.(map[string]any)
			if !ok {
				return erc7715.Permission{}, fmt.Errorf("policies[%d]: expected a mapping", j)
			}
			if err := normalizeAmounts(pol); err != nil {
				return erc7715.Permission{}, fmt.Errorf("policies[%d]: %w", j, err)
			}
		}
	}

	if _, ok := m["account"]; !ok && f.Account != "" {
		m["account"] = f.Account
	}
	if _, ok := m["chainId"]; !ok && f.ChainID != 0 {
		m["chainId"] = f.ChainID
	}
	if raw, ok := m["expiry"]; ok {
		exp, err := parseExpiry(fmt.Sprint(raw), now)
		if err != nil {
			return erc7715.Permission{}, err
		}
		m["expiry"] = exp
	} else if defaultExpiry != 0 {
		m["expiry"] = defaultExpiry
	}

	b, err := json.Marshal(m)
	if err != nil {
		return erc7715.Permission{}, err
	}
	var p erc7715.Permission
	if err := json.Unmarshal(b, &p); err != nil {
		return erc7715.Permission{}, err
	}
	return p, nil
}

// normalizeAmounts rewrites the amount fields of a {type, data} mapping as
// hex quantities. Custom tags have no amount fields.
func normalizeAmounts(m map[string]any) error {
	typ, _ := m["type"].(string)
	fields := amountFields[typ]
	if len(fields) == 0 {
		return nil
	}
	data, ok := m["data"].(map[string]any)
	if !ok {
		return fmt.Errorf("%s: data must be a mapping", typ)
	}
	for _, field := range fields {
		raw, ok := data[field]
		if !ok {
			continue
		}
		wei, err := ParseAmount(scalarString(raw))
		if err != nil {
			return fmt.Errorf("%s.%s: %w", typ, field, err)
		}
		hex, err := quantity.Encode(wei)
		if err != nil {
			return err
		}
		data[field] = hex
	}
	return nil
}

func scalarString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return fmt.Sprint(t)
	}
}

func parseExpiry(s string, now time.Time) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	if ts, err := strconv.ParseInt(s, 10, 64); err == nil {
		return ts, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid expiry %q: want unix seconds or a duration", s)
	}
	return now.Add(d).Unix(), nil
}

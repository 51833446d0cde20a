// Package quantity converts between *big.Int and JSON-RPC quantity text.
package quantity

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common/hexutil"
)

var ErrNegative = errors.New("quantity must not be negative")

// Encode returns the minimal 0x-prefixed hex form of v. Nil encodes as 0x0.
func Encode(v *big.Int) (string, error) {
	if v == nil {
		return "0x0", nil
	}
	if v.Sign() < 0 {
		return "", fmt.Errorf("%w: %s", ErrNegative, v)
	}
	return hexutil.EncodeBig(v), nil
}

func EncodeUint64(v uint64) string { return hexutil.EncodeUint64(v) }

// Parse accepts 0x-prefixed hex or base-10 text.
func Parse(s string) (*big.Int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, errors.New("empty quantity")
	}
	base := 10
	digits := s
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		base, digits = 16, s[2:]
		if digits == "" {
			return nil, fmt.Errorf("invalid hex quantity %q", s)
		}
	}
	v, ok := new(big.Int).SetString(digits, base)
	if !ok {
		return nil, fmt.Errorf("invalid quantity %q", s)
	}
	if v.Sign() < 0 {
		return nil, fmt.Errorf("%w: %s", ErrNegative, s)
	}
	return v, nil
}

// Decode reads a quantity given as a JSON string (hex or decimal) or a JSON
// number. null and empty input decode to nil.
func Decode(raw json.RawMessage) (*big.Int, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, nil
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil, err
		}
		return Parse(s)
	}
	return Parse(string(raw))
}

func DecodeUint64(raw json.RawMessage) (uint64, error) {
	v, err := Decode(raw)
	if err != nil || v == nil {
		return 0, err
	}
	if !v.IsUint64() {
		return 0, fmt.Errorf("quantity %s overflows uint64", v)
	}
	return v.Uint64(), nil
}

// DecodeInt64 is used for timestamps and counts, which wallets send as plain
// numbers but occasionally as hex strings.
func DecodeInt64(raw json.RawMessage) (int64, error) {
	v, err := Decode(raw)
	if err != nil || v == nil {
		return 0, err
	}
	if !v.IsInt64() {
		return 0, fmt.Errorf("quantity %s overflows int64", v)
	}
	return v.Int64(), nil
}

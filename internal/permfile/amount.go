package permfile

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/0xPexy/sentra-wallet/internal/quantity"
	"github.com/shopspring/decimal"
)

var unitExp = map[string]int32{
	"":      0,
	"wei":   0,
	"gwei":  9,
	"eth":   18,
	"ether": 18,
}

// ParseAmount reads "1.5 ether", "30gwei", "42", "42 wei" or "0x2a" into wei.
// Fractional wei is rejected.
func ParseAmount(s string) (*big.Int, error) {
	s = strings.TrimSpace(strings.ToLower(s))
	if s == "" {
		return nil, fmt.Errorf("empty amount")
	}
	if strings.HasPrefix(s, "0x") {
		return quantity.Parse(s)
	}

	num, unit := splitUnit(s)
	exp, ok := unitExp[unit]
	if !ok {
		return nil, fmt.Errorf("amount %q: unknown unit %q", s, unit)
	}
	d, err := decimal.NewFromString(num)
	if err != nil {
		return nil, fmt.Errorf("amount %q: %w", s, err)
	}
	if d.IsNegative() {
		return nil, fmt.Errorf("amount %q: %w", s, quantity.ErrNegative)
	}
	wei := d.Shift(exp)
	if !wei.Equal(wei.Truncate(0)) {
		return nil, fmt.Errorf("amount %q is not a whole number of wei", s)
	}
	return wei.BigInt(), nil
}

// FormatEther renders wei as a decimal ether string, e.g. "1.5".
func FormatEther(wei *big.Int) string {
	if wei == nil {
		return "0"
	}
	return decimal.NewFromBigInt(wei, -18).String()
}

func splitUnit(s string) (num, unit string) {
	i := len(s)
	for i > 0 {
		c := s[i-1]
		if c < 'a' || c > 'z' {
			break
		}
		i--
	}
	return strings.TrimSpace(s[:i]), s[i:]
}

package erc7715

import "math/big"

const (
	TypeTokenAllowance        = "token-allowance"
	TypeGasLimit              = "gas-limit"
	TypeRateLimit             = "rate-limit"
	TypeNativeTokenSpendLimit = "native-token-spend-limit"
)

// Policy constrains a Permission.
type Policy interface {
	PolicyType() TypeTag
	isPolicy()
}

type TokenAllowance struct {
	// Allowance in wei.
	Allowance *big.Int
}

type GasLimit struct {
	Limit *big.Int
}

type RateLimit struct {
	// Count is the number of uses allowed per Interval seconds.
	Count    int64
	Interval int64
}

type NativeTokenSpendLimit struct {
	Allowance *big.Int
}

type CustomPolicy struct {
	Type string
	Data any
}

func (TokenAllowance) PolicyType() TypeTag        { return Tag(TypeTokenAllowance) }
func (GasLimit) PolicyType() TypeTag              { return Tag(TypeGasLimit) }
func (RateLimit) PolicyType() TypeTag             { return Tag(TypeRateLimit) }
func (NativeTokenSpendLimit) PolicyType() TypeTag { return Tag(TypeNativeTokenSpendLimit) }
func (c CustomPolicy) PolicyType() TypeTag        { return CustomTag(c.Type) }

func (TokenAllowance) isPolicy()        {}
func (GasLimit) isPolicy()              {}
func (RateLimit) isPolicy()             {}
func (NativeTokenSpendLimit) isPolicy() {}
func (CustomPolicy) isPolicy()          {}

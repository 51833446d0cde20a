package erc7715

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

const (
	TypeNativeTokenTransfer     = "native-token-transfer"
	TypeERC20TokenTransfer      = "erc20-token-transfer"
	TypeContractCall            = "contract-call"
	TypeCallWithPermission      = "call-with-permission"
	TypeRecurringAllowance      = "recurring-allowance"
	TypeAllowedContract         = "allowed-contract"
	TypeAllowedSelector         = "allowed-selector"
	TypeAllowedContractSelector = "allowed-contract-selector"
)

// Permission is a single capability requested from (or reported by) a wallet.
type Permission struct {
	Data     PermissionData
	Policies []Policy
	// Required marks permissions the wallet must grant. Nil leaves it unset.
	Required *bool
	Account  common.Address
	ChainID  uint64
	// Expiry is a unix timestamp in seconds.
	Expiry int64
	Signer Signer
	// Extra holds caller fields with no dedicated Go field. They are merged
	// into the wire object as-is.
	Extra map[string]any
}

// PermissionData is the variant payload of a Permission.
type PermissionData interface {
	PermissionType() TypeTag
	isPermissionData()
}

type NativeTokenTransfer struct {
	// Ticker is the native token symbol, e.g. ETH.
	Ticker string
}

type ERC20TokenTransfer struct {
	Address common.Address
	Ticker  string
}

type ContractCall struct {
	Address common.Address
	// Calls lists permitted function signatures.
	Calls []string
}

type CallWithPermission struct {
	AllowedContract common.Address
	PermissionArgs  hexutil.Bytes
}

type RecurringAllowance struct {
	// Token is nil for the native token.
	Token     *common.Address
	Allowance *big.Int
	// Start is a unix timestamp, Period a duration in seconds.
	Start  int64
	Period int64
}

type AllowedContract struct {
	Address common.Address
}

type AllowedSelector struct {
	Selector hexutil.Bytes
}

type AllowedContractSelector struct {
	Address  common.Address
	Selector hexutil.Bytes
}

// CustomPermission carries a wallet-specific permission; Data is sent verbatim.
type CustomPermission struct {
	Type string
	Data any
}

func (NativeTokenTransfer) PermissionType() TypeTag     { return Tag(TypeNativeTokenTransfer) }
func (ERC20TokenTransfer) PermissionType() TypeTag      { return Tag(TypeERC20TokenTransfer) }
func (ContractCall) PermissionType() TypeTag            { return Tag(TypeContractCall) }
func (CallWithPermission) PermissionType() TypeTag      { return Tag(TypeCallWithPermission) }
func (RecurringAllowance) PermissionType() TypeTag      { return Tag(TypeRecurringAllowance) }
func (AllowedContract) PermissionType() TypeTag         { return Tag(TypeAllowedContract) }
func (AllowedSelector) PermissionType() TypeTag         { return Tag(TypeAllowedSelector) }
func (AllowedContractSelector) PermissionType() TypeTag { return Tag(TypeAllowedContractSelector) }
func (c CustomPermission) PermissionType() TypeTag      { return CustomTag(c.Type) }

func (NativeTokenTransfer) isPermissionData()     {}
func (ERC20TokenTransfer) isPermissionData()      {}
func (ContractCall) isPermissionData()            {}
func (CallWithPermission) isPermissionData()      {}
func (RecurringAllowance) isPermissionData()      {}
func (AllowedContract) isPermissionData()         {}
func (AllowedSelector) isPermissionData()         {}
func (AllowedContractSelector) isPermissionData() {}
func (CustomPermission) isPermissionData()        {}

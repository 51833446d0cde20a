package account

import (
	"crypto/ecdsa"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// Account is anything that can be resolved to a canonical address.
type Account interface {
	Address() common.Address
}

// Signer is an Account that can sign a 32-byte digest locally.
type Signer interface {
	Account
	SignHash(hash common.Hash) ([]byte, error)
}

// JSONRPCAccount is an address whose signing is delegated to the wallet.
type JSONRPCAccount struct {
	addr common.Address
}

func NewJSONRPCAccount(addr common.Address) JSONRPCAccount {
	return JSONRPCAccount{addr: addr}
}

func (a JSONRPCAccount) Address() common.Address { return a.addr }

func (a JSONRPCAccount) String() string { return a.addr.Hex() }

// Parse normalizes a hex address into a JSONRPCAccount.
func Parse(s string) (JSONRPCAccount, error) {
	s = strings.TrimSpace(s)
	if !common.IsHexAddress(s) {
		return JSONRPCAccount{}, fmt.Errorf("invalid account address %q", s)
	}
	return NewJSONRPCAccount(common.HexToAddress(s)), nil
}

// LocalAccount holds a secp256k1 key in memory.
type LocalAccount struct {
	key  *ecdsa.PrivateKey
	addr common.Address
}

func NewLocalAccount(skHex string) (*LocalAccount, error) {
	k, err := crypto.HexToECDSA(trim0x(strings.TrimSpace(skHex)))
	if err != nil {
		return nil, fmt.Errorf("parse private key: %w", err)
	}
	return &LocalAccount{key: k, addr: crypto.PubkeyToAddress(k.PublicKey)}, nil
}

func (a *LocalAccount) Address() common.Address { return a.addr }

// SignHash returns a 65-byte [R || S || V] signature with V in {27, 28}.
func (a *LocalAccount) SignHash(hash common.Hash) ([]byte, error) {
	sig, err := crypto.Sign(hash[:], a.key)
	if err != nil {
		return nil, err
	}
	sig[64] += 27
	return sig, nil
}

// Resolve picks explicit when set, otherwise ambient.
func Resolve(explicit, ambient Account) (Account, error) {
	if explicit != nil {
		return explicit, nil
	}
	if ambient != nil {
		return ambient, nil
	}
	return nil, &AccountNotFoundError{}
}

func trim0x(s string) string {
	if len(s) >= 2 && (s[:2] == "0x" || s[:2] == "0X") {
		return s[2:]
	}
	return s
}
